package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TeamBookedError rejects assigning a team into a game when it already
// plays in another game that week. Unlike venue/time conflicts, which are
// flagged and left for the operator, this rejection blocks the mutation.
type TeamBookedError struct {
	TeamName   string
	WeekNumber int
}

func (e TeamBookedError) Error() string {
	return fmt.Sprintf("%s is already scheduled in week %d", e.TeamName, e.WeekNumber)
}

// Editor runs one editing session over a grid: every mutation goes through a
// grid primitive and is followed by a conflict-detection pass, committed
// only when the detected statuses differ from what the grid already holds.
// Editors are not safe for concurrent use; a season has one editor at a time.
type Editor struct {
	grid     *Grid
	bookings []ExternalBooking
}

// NewEditor wraps a grid and an external-booking snapshot and settles the
// grid with an initial detection pass.
func NewEditor(grid *Grid, bookings []ExternalBooking) *Editor {
	editor := &Editor{grid: grid, bookings: bookings}
	editor.redetect()
	return editor
}

// Grid returns the settled grid. Callers must treat it as read-only and go
// through the editor for changes.
func (e *Editor) Grid() *Grid {
	return e.grid
}

// SetBookings replaces the external-booking snapshot and re-runs detection.
// The editor has no staleness detection of its own; whoever imports fresh
// bookings calls this.
func (e *Editor) SetBookings(bookings []ExternalBooking) {
	e.bookings = bookings
	e.redetect()
}

func (e *Editor) AddWeek() {
	e.grid.AddWeek()
	e.redetect()
}

func (e *Editor) RemoveLastWeek(force bool) error {
	if err := e.grid.RemoveLastWeek(force); err != nil {
		return err
	}
	e.redetect()
	return nil
}

func (e *Editor) SetWeekDate(weekNumber int, date *time.Time) error {
	if err := e.grid.SetWeekDate(weekNumber, date); err != nil {
		return err
	}
	e.redetect()
	return nil
}

func (e *Editor) ToggleBye(weekNumber int) error {
	if err := e.grid.ToggleBye(weekNumber); err != nil {
		return err
	}
	e.redetect()
	return nil
}

func (e *Editor) AddGame(weekNumber int) (string, error) {
	gameID, err := e.grid.AddGame(weekNumber)
	if err != nil {
		return "", err
	}
	e.redetect()
	return gameID, nil
}

// UpdateGame merges a patch into a game. Assigning a team that already
// plays elsewhere in the same week is rejected before the grid is touched.
func (e *Editor) UpdateGame(weekNumber int, gameID string, patch GamePatch) error {
	if err := e.checkTeamAvailability(weekNumber, gameID, patch); err != nil {
		return err
	}
	if err := e.grid.UpdateGame(weekNumber, gameID, patch); err != nil {
		return err
	}
	e.redetect()
	return nil
}

func (e *Editor) DeleteGame(weekNumber int, gameID string) error {
	if err := e.grid.DeleteGame(weekNumber, gameID); err != nil {
		return err
	}
	e.redetect()
	return nil
}

// Generate replaces the whole grid with a round-robin skeleton. Callers
// must warn first when the current grid already has games; nothing is
// merged or preserved.
func (e *Editor) Generate(teams []Team, totalWeeks int) error {
	grid, err := GenerateRoundRobin(teams, totalWeeks, e.grid.StartDate)
	if err != nil {
		return err
	}
	e.grid = grid
	e.redetect()
	return nil
}

// redetect runs the conflict detector and commits its output only when the
// status/reason fingerprint changed. Detection is idempotent, so this
// settles in a single pass.
func (e *Editor) redetect() {
	detected := DetectConflicts(e.grid, e.bookings)
	if statusFingerprint(detected) == statusFingerprint(e.grid) {
		return
	}
	e.grid = detected
}

func (e *Editor) checkTeamAvailability(weekNumber int, gameID string, patch GamePatch) error {
	week, err := e.grid.week(weekNumber)
	if err != nil {
		return err
	}
	for _, team := range patch.assignedTeams() {
		for _, game := range week.Games {
			if game.ID == gameID {
				continue
			}
			if hasTeam(game, team.ID) {
				return TeamBookedError{TeamName: team.Name, WeekNumber: weekNumber}
			}
		}
	}
	return nil
}

func hasTeam(game ScheduledGame, teamID string) bool {
	if game.HomeTeam != nil && game.HomeTeam.ID == teamID {
		return true
	}
	return game.AwayTeam != nil && game.AwayTeam.ID == teamID
}

// statusFingerprint serializes only the derived fields, the comparison the
// commit-on-change contract is defined over.
func statusFingerprint(grid *Grid) string {
	var b strings.Builder
	for _, week := range grid.Weeks {
		b.WriteString(strconv.Itoa(week.Number))
		if week.Bye {
			b.WriteString(":bye")
		}
		for _, game := range week.Games {
			b.WriteString("|")
			b.WriteString(game.ID)
			b.WriteString("=")
			b.WriteString(string(game.Status))
			b.WriteString("/")
			b.WriteString(game.ConflictReason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
