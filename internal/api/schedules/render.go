// internal/api/schedules/render.go
package schedules

import (
	"github.com/jsandlin/leaguedesk/internal/schedule"
)

type gameView struct {
	ID             string `json:"id"`
	HomeTeamID     string `json:"homeTeamId,omitempty"`
	HomeTeamName   string `json:"homeTeamName,omitempty"`
	AwayTeamID     string `json:"awayTeamId,omitempty"`
	AwayTeamName   string `json:"awayTeamName,omitempty"`
	TimeSlotID     string `json:"timeSlotId,omitempty"`
	Time           string `json:"time,omitempty"`
	VenueID        string `json:"venueId,omitempty"`
	VenueName      string `json:"venueName,omitempty"`
	Status         string `json:"status"`
	ConflictReason string `json:"conflictReason,omitempty"`
}

type weekView struct {
	Number     int        `json:"number"`
	Date       string     `json:"date"`
	CustomDate bool       `json:"customDate"`
	Bye        bool       `json:"bye"`
	Games      []gameView `json:"games"`
}

type teamView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AgeGroup     string `json:"ageGroup,omitempty"`
	HomeVenue    string `json:"homeVenue,omitempty"`
	DisplayColor string `json:"displayColor,omitempty"`
}

type venueView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Address   string `json:"address,omitempty"`
	HomeField bool   `json:"homeField"`
}

type slotView struct {
	ID    string `json:"id"`
	Time  string `json:"time"`
	Label string `json:"label"`
}

type scheduleView struct {
	SeasonID   string      `json:"seasonId"`
	SeasonName string      `json:"seasonName"`
	StartDate  string      `json:"startDate"`
	Weeks      []weekView  `json:"weeks"`
	Teams      []teamView  `json:"teams"`
	Venues     []venueView `json:"venues"`
	TimeSlots  []slotView  `json:"timeSlots"`
}

// renderSchedule flattens the session's settled grid and catalogs into the
// response shape. Callers hold the session lock.
func renderSchedule(sess *session) scheduleView {
	grid := sess.editor.Grid()
	view := scheduleView{
		SeasonID:   sess.season.ID,
		SeasonName: sess.season.Name,
		StartDate:  grid.StartDate.Format(scheduleDateLayout),
		Weeks:      make([]weekView, 0, len(grid.Weeks)),
		Teams:      renderTeams(sess),
		Venues:     renderVenues(sess),
		TimeSlots:  renderSlots(sess),
	}
	for _, week := range grid.Weeks {
		date, _ := grid.WeekDate(week.Number)
		wv := weekView{
			Number:     week.Number,
			Date:       date.Format(scheduleDateLayout),
			CustomDate: week.OverrideDate != nil,
			Bye:        week.Bye,
			Games:      make([]gameView, 0, len(week.Games)),
		}
		for _, game := range week.Games {
			wv.Games = append(wv.Games, renderGame(game))
		}
		view.Weeks = append(view.Weeks, wv)
	}
	return view
}

func renderGame(game schedule.ScheduledGame) gameView {
	view := gameView{
		ID:             game.ID,
		Status:         string(game.Status),
		ConflictReason: game.ConflictReason,
	}
	if game.HomeTeam != nil {
		view.HomeTeamID = game.HomeTeam.ID
		view.HomeTeamName = game.HomeTeam.Name
	}
	if game.AwayTeam != nil {
		view.AwayTeamID = game.AwayTeam.ID
		view.AwayTeamName = game.AwayTeam.Name
	}
	if game.TimeSlot != nil {
		view.TimeSlotID = game.TimeSlot.ID
		view.Time = game.TimeSlot.Time
	}
	if game.Venue != nil {
		view.VenueID = game.Venue.ID
		view.VenueName = game.Venue.Name
	}
	return view
}

func renderTeams(sess *session) []teamView {
	views := make([]teamView, 0, len(sess.teams))
	for _, team := range sess.teams {
		views = append(views, teamView{
			ID:           team.ID,
			Name:         team.Name,
			AgeGroup:     team.AgeGroup,
			HomeVenue:    team.HomeVenue,
			DisplayColor: team.DisplayColor,
		})
	}
	return views
}

func renderVenues(sess *session) []venueView {
	views := make([]venueView, 0, len(sess.venues))
	for _, venue := range sess.venues {
		views = append(views, venueView{
			ID:        venue.ID,
			Name:      venue.Name,
			Location:  venue.Location,
			Address:   venue.Address,
			HomeField: venue.HomeField,
		})
	}
	return views
}

func renderSlots(sess *session) []slotView {
	views := make([]slotView, 0, len(sess.slots))
	for _, slot := range sess.slots {
		views = append(views, slotView{ID: slot.ID, Time: slot.Time, Label: slot.Label})
	}
	return views
}
