package schedule

import (
	"fmt"
	"time"
)

// bookingKey identifies one claim on a physical resource: a venue at a time
// on a date. Keying on the normalized venue name rather than the venue ID is
// deliberate; redundant entries of the same field must still collide.
type bookingKey struct {
	date  string
	time  string
	venue string
}

func keyFor(date time.Time, timeOfDay, venueName string) bookingKey {
	return bookingKey{
		date:  date.Format(dateLayout),
		time:  timeOfDay,
		venue: NormalizeVenueName(venueName),
	}
}

type gameRef struct {
	week  int
	index int
}

// DetectConflicts recomputes every game's status and conflict reason against
// the grid itself and the supplied external-booking snapshot. It is pure and
// idempotent: the input grid is untouched, and re-running it on its own
// output changes nothing. Callers that commit-on-change rely on that to
// terminate after one pass.
func DetectConflicts(grid *Grid, bookings []ExternalBooking) *Grid {
	external := make(map[bookingKey]ExternalBooking, len(bookings))
	for _, booking := range bookings {
		key := keyFor(booking.Date, booking.Time, booking.VenueName)
		if _, ok := external[key]; !ok {
			external[key] = booking
		}
	}

	result := grid.Clone()

	// First pass: index every fully assigned game by its booking key. Bye
	// weeks and their contents are not conflict-checked.
	claims := make(map[bookingKey][]gameRef)
	for _, week := range result.Weeks {
		if week.Bye {
			continue
		}
		date, err := result.WeekDate(week.Number)
		if err != nil {
			continue
		}
		for i, game := range week.Games {
			if !game.Assigned() {
				continue
			}
			key := keyFor(date, game.TimeSlot.Time, game.Venue.Name)
			claims[key] = append(claims[key], gameRef{week: week.Number, index: i})
		}
	}

	// Second pass: classify each game. External collisions outrank
	// intra-schedule ones; only one reason is reported per game.
	for w := range result.Weeks {
		week := &result.Weeks[w]
		if week.Bye {
			continue
		}
		date, err := result.WeekDate(week.Number)
		if err != nil {
			continue
		}
		for i := range week.Games {
			game := &week.Games[i]
			if !game.Assigned() {
				game.Status = StatusIncomplete
				game.ConflictReason = ""
				continue
			}
			key := keyFor(date, game.TimeSlot.Time, game.Venue.Name)
			if booking, ok := external[key]; ok {
				game.Status = StatusConflict
				game.ConflictReason = externalReason(booking, game.Venue.Name)
				continue
			}
			if other, ok := otherClaim(claims[key], week.Number, i); ok {
				game.Status = StatusConflict
				game.ConflictReason = intraReason(game, week.Number, other)
				continue
			}
			game.Status = StatusComplete
			game.ConflictReason = ""
		}
	}
	return result
}

// otherClaim finds a claim on the same key by a different game.
func otherClaim(refs []gameRef, weekNumber, index int) (gameRef, bool) {
	for _, ref := range refs {
		if ref.week == weekNumber && ref.index == index {
			continue
		}
		return ref, true
	}
	return gameRef{}, false
}

func externalReason(booking ExternalBooking, venueName string) string {
	return fmt.Sprintf("%s already has %s vs %s booked at %s",
		booking.AgeGroup, booking.HomeTeam, booking.AwayTeam, venueName)
}

func intraReason(game *ScheduledGame, weekNumber int, other gameRef) string {
	if other.week == weekNumber {
		return fmt.Sprintf("%s is also booked at %s by another game this week",
			game.Venue.Name, slotDisplay(game.TimeSlot))
	}
	return fmt.Sprintf("%s is also booked at %s by a game in week %d",
		game.Venue.Name, slotDisplay(game.TimeSlot), other.week)
}

func slotDisplay(slot *TimeSlot) string {
	if slot == nil {
		return ""
	}
	if slot.Label != "" {
		return slot.Label
	}
	return slot.Time
}
