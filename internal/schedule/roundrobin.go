package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GenerateRoundRobin produces a fresh schedule skeleton in which every team
// is paired against every other team, using the circle method: one position
// is held fixed and the rest rotate through it round by round. The result
// replaces the whole grid; it never merges with manual edits.
//
// Rounds are derived from the requested team count before any BYE padding.
// With an odd count a synthetic BYE placeholder fills the pairing table and
// any match against it is simply not recorded, so one team rests each round.
// Rounds past totalWeeks are truncated; weeks past the last round are
// created as bye weeks.
func GenerateRoundRobin(teams []Team, totalWeeks int, seasonStart time.Time) (*Grid, error) {
	if len(teams) < 2 {
		return nil, errors.New("at least two teams are required")
	}
	if totalWeeks < 1 {
		return nil, errors.New("total weeks must be positive")
	}

	rounds := len(teams) - 1

	slots := make([]*Team, len(teams))
	for i := range teams {
		slots[i] = &teams[i]
	}
	if len(slots)%2 == 1 {
		slots = append(slots, nil) // BYE placeholder
	}
	n := len(slots)

	grid := &Grid{StartDate: truncateDate(seasonStart)}
	for round := 0; round < rounds && round < totalWeeks; round++ {
		week := WeekData{Number: round + 1}
		for match := 0; match < n/2; match++ {
			home := slots[(round+match)%(n-1)]
			away := slots[n-1]
			if match > 0 {
				away = slots[(n-1-match+round)%(n-1)]
			}
			if home == nil || away == nil {
				continue // pairing against BYE: a rest, not a game
			}
			week.Games = append(week.Games, newGeneratedGame(home, away))
		}
		grid.Weeks = append(grid.Weeks, week)
	}

	for number := len(grid.Weeks) + 1; number <= totalWeeks; number++ {
		grid.Weeks = append(grid.Weeks, WeekData{Number: number, Bye: true})
	}
	return grid, nil
}

// newGeneratedGame pre-assigns the home team's designated field when it has
// one; the operator fills in the time slot later.
func newGeneratedGame(home, away *Team) ScheduledGame {
	game := ScheduledGame{
		ID:       uuid.New().String(),
		HomeTeam: home,
		AwayTeam: away,
		Status:   StatusIncomplete,
	}
	game.Venue = homeVenueFor(*home)
	return game
}
