package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrConfirmRemoveWeek signals that removing the last week would discard
// games or a bye flag; the caller must ask and retry with force set.
var ErrConfirmRemoveWeek = errors.New("removing this week discards its contents; confirmation required")

var (
	ErrWeekNotFound = errors.New("week not found")
	ErrGameNotFound = errors.New("game not found")
	ErrByeWeek      = errors.New("week is a bye week")
)

// Grid is the ordered week sequence for one season's schedule. Week numbers
// are contiguous starting at 1. The zero value is not usable; construct with
// NewGrid or FromGames.
type Grid struct {
	StartDate time.Time
	Weeks     []WeekData
}

// NewGrid returns an empty grid with weekCount non-bye weeks. A season
// always has at least one week.
func NewGrid(startDate time.Time, weekCount int) *Grid {
	if weekCount < 1 {
		weekCount = 1
	}
	grid := &Grid{StartDate: truncateDate(startDate)}
	for number := 1; number <= weekCount; number++ {
		grid.Weeks = append(grid.Weeks, WeekData{Number: number})
	}
	return grid
}

// FromGames rebuilds a grid from previously persisted games, grouped by
// their recorded week number. The grid is padded to minWeeks so a partially
// saved season still shows its full length.
func FromGames(startDate time.Time, games []ScheduledGame, minWeeks int) *Grid {
	weekCount := minWeeks
	for _, game := range games {
		if game.WeekNumber > weekCount {
			weekCount = game.WeekNumber
		}
	}
	grid := NewGrid(startDate, weekCount)
	for _, game := range games {
		if game.WeekNumber < 1 {
			continue
		}
		week := &grid.Weeks[game.WeekNumber-1]
		game.Status = completeness(game)
		game.ConflictReason = ""
		week.Games = append(week.Games, game)
	}
	return grid
}

// AddWeek appends a new empty, non-bye week at position count+1.
func (g *Grid) AddWeek() {
	g.Weeks = append(g.Weeks, WeekData{Number: len(g.Weeks) + 1})
}

// RemoveLastWeek removes the final week. If that week has games or is a bye
// week it returns ErrConfirmRemoveWeek unless force is set, leaving the grid
// unchanged. The grid never shrinks below one week.
func (g *Grid) RemoveLastWeek(force bool) error {
	if len(g.Weeks) <= 1 {
		return errors.New("a season must keep at least one week")
	}
	last := g.Weeks[len(g.Weeks)-1]
	if !force && (len(last.Games) > 0 || last.Bye) {
		return ErrConfirmRemoveWeek
	}
	g.Weeks = g.Weeks[:len(g.Weeks)-1]
	return nil
}

// SetWeekDate sets or clears a week's override date. A nil date reverts the
// week to its computed default.
func (g *Grid) SetWeekDate(weekNumber int, date *time.Time) error {
	week, err := g.week(weekNumber)
	if err != nil {
		return err
	}
	if date == nil {
		week.OverrideDate = nil
		return nil
	}
	truncated := truncateDate(*date)
	week.OverrideDate = &truncated
	return nil
}

// AddGame appends a fully unassigned game to the named week and returns its
// generated ID. Bye weeks cannot hold games.
func (g *Grid) AddGame(weekNumber int) (string, error) {
	week, err := g.week(weekNumber)
	if err != nil {
		return "", err
	}
	if week.Bye {
		return "", ErrByeWeek
	}
	game := ScheduledGame{
		ID:     uuid.New().String(),
		Status: StatusIncomplete,
	}
	week.Games = append(week.Games, game)
	return game.ID, nil
}

// UpdateGame merges the patch into the matching game and recomputes its
// completeness. Conflict status is the detector's job, not this one's.
func (g *Grid) UpdateGame(weekNumber int, gameID string, patch GamePatch) error {
	week, err := g.week(weekNumber)
	if err != nil {
		return err
	}
	for i := range week.Games {
		if week.Games[i].ID != gameID {
			continue
		}
		patch.apply(&week.Games[i])
		week.Games[i].Status = completeness(week.Games[i])
		week.Games[i].ConflictReason = ""
		return nil
	}
	return ErrGameNotFound
}

// DeleteGame removes the game from the week.
func (g *Grid) DeleteGame(weekNumber int, gameID string) error {
	week, err := g.week(weekNumber)
	if err != nil {
		return err
	}
	for i := range week.Games {
		if week.Games[i].ID == gameID {
			week.Games = append(week.Games[:i], week.Games[i+1:]...)
			return nil
		}
	}
	return ErrGameNotFound
}

// ToggleBye flips a week's bye flag. Turning bye on clears all games in the
// week; that is destructive and not undoable within the session.
func (g *Grid) ToggleBye(weekNumber int) error {
	week, err := g.week(weekNumber)
	if err != nil {
		return err
	}
	week.Bye = !week.Bye
	if week.Bye {
		week.Games = nil
	}
	return nil
}

// WeekDate resolves the calendar date a week's games fall on: the override
// date when set, else the computed default.
func (g *Grid) WeekDate(weekNumber int) (time.Time, error) {
	week, err := g.week(weekNumber)
	if err != nil {
		return time.Time{}, err
	}
	if week.OverrideDate != nil {
		return *week.OverrideDate, nil
	}
	return DefaultWeekDate(g.StartDate, weekNumber), nil
}

// DefaultWeekDate computes the default date for week N: season start plus
// (N-1) whole weeks, advanced forward to the next Saturday. Games land on a
// consistent weekday no matter what weekday the season starts on.
func DefaultWeekDate(seasonStart time.Time, weekNumber int) time.Time {
	date := truncateDate(seasonStart).AddDate(0, 0, (weekNumber-1)*7)
	for date.Weekday() != time.Saturday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

// FlattenGames returns every game annotated with its resolved week number
// and date, in week order, the shape the persistence collaborator writes.
func (g *Grid) FlattenGames() []ScheduledGame {
	var games []ScheduledGame
	for _, week := range g.Weeks {
		date, _ := g.WeekDate(week.Number)
		for _, game := range week.Games {
			game.WeekNumber = week.Number
			game.Date = date
			games = append(games, game)
		}
	}
	return games
}

// Clone returns a deep copy of the grid. Detection works on a copy so the
// input grid is never mutated.
func (g *Grid) Clone() *Grid {
	clone := &Grid{StartDate: g.StartDate, Weeks: make([]WeekData, len(g.Weeks))}
	copy(clone.Weeks, g.Weeks)
	for i := range clone.Weeks {
		if g.Weeks[i].OverrideDate != nil {
			date := *g.Weeks[i].OverrideDate
			clone.Weeks[i].OverrideDate = &date
		}
		clone.Weeks[i].Games = make([]ScheduledGame, len(g.Weeks[i].Games))
		copy(clone.Weeks[i].Games, g.Weeks[i].Games)
	}
	return clone
}

func (g *Grid) week(weekNumber int) (*WeekData, error) {
	if weekNumber < 1 || weekNumber > len(g.Weeks) {
		return nil, fmt.Errorf("%w: week %d of %d", ErrWeekNotFound, weekNumber, len(g.Weeks))
	}
	return &g.Weeks[weekNumber-1], nil
}

// completeness classifies a game by its assignments alone: complete when all
// four fields are set, otherwise incomplete.
func completeness(game ScheduledGame) GameStatus {
	if game.Assigned() {
		return StatusComplete
	}
	return StatusIncomplete
}

func truncateDate(value time.Time) time.Time {
	loc := value.Location()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, loc)
}
