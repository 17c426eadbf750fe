package schedule

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// GameStatus classifies a scheduled game after a conflict-detection pass.
type GameStatus string

const (
	StatusIncomplete GameStatus = "incomplete"
	StatusComplete   GameStatus = "complete"
	StatusConflict   GameStatus = "conflict"
)

// Team is a league participant. Teams are sourced from the registration
// system; the schedule builder never creates or deletes them.
type Team struct {
	ID           string
	Name         string
	AgeGroup     string
	ProgramID    string
	HomeVenue    string
	HomeAddress  string
	DisplayColor string
}

// Venue is a place where games are played. Identity for booking purposes is
// the normalized name, not the ID: the same field is often entered once per
// team and once by hand, and both entries must still collide.
type Venue struct {
	ID        string
	Name      string
	Location  string
	Address   string
	HomeField bool
	TeamID    string
}

// Key returns the venue's identity for booking purposes.
func (v Venue) Key() string {
	return NormalizeVenueName(v.Name)
}

// NormalizeVenueName lower-cases and trims a venue name so that redundant
// entries of the same physical place compare equal.
func NormalizeVenueName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TimeSlot is a bookable time of day. Identity is the canonical 24-hour
// time string.
type TimeSlot struct {
	ID    string
	Time  string // canonical "HH:MM"
	Label string
}

// ScheduledGame is one matchup on the grid. All four assignment fields are
// optional; Status and ConflictReason are derived, never set directly.
type ScheduledGame struct {
	ID             string
	HomeTeam       *Team
	AwayTeam       *Team
	TimeSlot       *TimeSlot
	Venue          *Venue
	Status         GameStatus
	ConflictReason string

	// WeekNumber and Date carry placement when a game travels outside the
	// grid: loading previously persisted games and flattening for save.
	WeekNumber int
	Date       time.Time
}

// Assigned reports whether every assignment field is set. Only assigned
// games participate in conflict detection.
func (g ScheduledGame) Assigned() bool {
	return g.HomeTeam != nil && g.AwayTeam != nil && g.TimeSlot != nil && g.Venue != nil
}

// Unassigned reports whether no assignment field is set.
func (g ScheduledGame) Unassigned() bool {
	return g.HomeTeam == nil && g.AwayTeam == nil && g.TimeSlot == nil && g.Venue == nil
}

// WeekData is one week of the season. If Bye is set the games list is empty;
// ToggleBye enforces this by clearing games when turning the flag on.
type WeekData struct {
	Number       int
	Games        []ScheduledGame
	Bye          bool
	OverrideDate *time.Time
}

// ExternalBooking is a read-only fact imported from another scheduling group
// sharing the venue pool (a different age division, commissioner games).
type ExternalBooking struct {
	Date      time.Time
	Time      string // "HH:MM"
	VenueName string
	AgeGroup  string
	HomeTeam  string
	AwayTeam  string
}

// GamePatch is a partial update for a game. Each Set flag marks the field as
// present; a present field with a nil value clears the assignment, and
// absent fields are left untouched.
type GamePatch struct {
	SetHomeTeam bool
	HomeTeam    *Team
	SetAwayTeam bool
	AwayTeam    *Team
	SetTimeSlot bool
	TimeSlot    *TimeSlot
	SetVenue    bool
	Venue       *Venue
}

func (p GamePatch) apply(game *ScheduledGame) {
	if p.SetHomeTeam {
		game.HomeTeam = p.HomeTeam
	}
	if p.SetAwayTeam {
		game.AwayTeam = p.AwayTeam
	}
	if p.SetTimeSlot {
		game.TimeSlot = p.TimeSlot
	}
	if p.SetVenue {
		game.Venue = p.Venue
	}
}

// assignedTeams returns the teams a patch would newly assign.
func (p GamePatch) assignedTeams() []*Team {
	var teams []*Team
	if p.SetHomeTeam && p.HomeTeam != nil {
		teams = append(teams, p.HomeTeam)
	}
	if p.SetAwayTeam && p.AwayTeam != nil {
		teams = append(teams, p.AwayTeam)
	}
	return teams
}
