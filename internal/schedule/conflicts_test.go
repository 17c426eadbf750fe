package schedule

import (
	"strings"
	"testing"
	"time"
)

// seasonStart is a Monday, so week 1 defaults to Saturday 2024-09-07.
var seasonStart = date(2024, time.September, 2)

func completeGame(id string, home, away *Team, hhmm, venueName string) ScheduledGame {
	return ScheduledGame{
		ID:       id,
		HomeTeam: home,
		AwayTeam: away,
		TimeSlot: slot(hhmm),
		Venue:    venue(venueName),
		Status:   StatusComplete,
	}
}

func TestDetectConflictsStatuses(t *testing.T) {
	grid := NewGrid(seasonStart, 2)
	grid.Weeks[0].Games = []ScheduledGame{
		{ID: "blank"},
		{ID: "partial", HomeTeam: team("t1", "Hawks"), TimeSlot: slot("10:00")},
		completeGame("clean", team("t2", "Owls"), team("t3", "Bears"), "12:00", "Park A"),
	}

	detected := DetectConflicts(grid, nil)

	games := detected.Weeks[0].Games
	if games[0].Status != StatusIncomplete || games[1].Status != StatusIncomplete {
		t.Fatalf("unassigned and partial games must be incomplete: %s, %s", games[0].Status, games[1].Status)
	}
	if games[2].Status != StatusComplete || games[2].ConflictReason != "" {
		t.Fatalf("clean game: %s %q", games[2].Status, games[2].ConflictReason)
	}

	// Input grid is untouched.
	if grid.Weeks[0].Games[2].Status != StatusComplete {
		t.Fatal("detection must not mutate its input")
	}
}

func TestDetectConflictsSameWeekDoubleBooking(t *testing.T) {
	grid := NewGrid(seasonStart, 1)
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "14:00", "Main Field"),
		completeGame("g2", team("t3", "Bears"), team("t4", "Foxes"), "14:00", " main field "),
	}

	detected := DetectConflicts(grid, nil)

	for _, game := range detected.Weeks[0].Games {
		if game.Status != StatusConflict {
			t.Fatalf("game %s: %s", game.ID, game.Status)
		}
		if !strings.Contains(game.ConflictReason, "this week") {
			t.Fatalf("same-week reason: %q", game.ConflictReason)
		}
	}
}

func TestDetectConflictsCrossWeekViaDateOverride(t *testing.T) {
	grid := NewGrid(seasonStart, 3)
	shared := date(2024, time.September, 28)
	if err := grid.SetWeekDate(1, &shared); err != nil {
		t.Fatalf("set week 1 date: %v", err)
	}
	if err := grid.SetWeekDate(3, &shared); err != nil {
		t.Fatalf("set week 3 date: %v", err)
	}
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "14:00", "Main Field"),
	}
	grid.Weeks[2].Games = []ScheduledGame{
		completeGame("g2", team("t3", "Bears"), team("t4", "Foxes"), "14:00", "Main Field"),
	}

	detected := DetectConflicts(grid, nil)

	first := detected.Weeks[0].Games[0]
	third := detected.Weeks[2].Games[0]
	if first.Status != StatusConflict || third.Status != StatusConflict {
		t.Fatalf("statuses: %s, %s", first.Status, third.Status)
	}
	if !strings.Contains(first.ConflictReason, "week 3") {
		t.Fatalf("week 1 reason should name week 3: %q", first.ConflictReason)
	}
	if !strings.Contains(third.ConflictReason, "week 1") {
		t.Fatalf("week 3 reason should name week 1: %q", third.ConflictReason)
	}
}

func TestDetectConflictsExternalBooking(t *testing.T) {
	grid := NewGrid(seasonStart, 1)
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "10:00", "Park A"),
	}
	bookings := []ExternalBooking{{
		Date:      date(2024, time.September, 7),
		Time:      "10:00",
		VenueName: "park a",
		AgeGroup:  "U10",
		HomeTeam:  "Comets",
		AwayTeam:  "Rockets",
	}}

	detected := DetectConflicts(grid, bookings)

	game := detected.Weeks[0].Games[0]
	if game.Status != StatusConflict {
		t.Fatalf("status: %s", game.Status)
	}
	for _, want := range []string{"U10", "Comets", "Rockets", "Park A"} {
		if !strings.Contains(game.ConflictReason, want) {
			t.Fatalf("reason %q missing %q", game.ConflictReason, want)
		}
	}
}

func TestDetectConflictsExternalOutranksIntra(t *testing.T) {
	grid := NewGrid(seasonStart, 1)
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "10:00", "Park A"),
		completeGame("g2", team("t3", "Bears"), team("t4", "Foxes"), "10:00", "Park A"),
	}
	bookings := []ExternalBooking{{
		Date:      date(2024, time.September, 7),
		Time:      "10:00",
		VenueName: "Park A",
		AgeGroup:  "U10",
		HomeTeam:  "Comets",
		AwayTeam:  "Rockets",
	}}

	detected := DetectConflicts(grid, bookings)

	for _, game := range detected.Weeks[0].Games {
		if !strings.Contains(game.ConflictReason, "U10") {
			t.Fatalf("external collision must win the reported reason: %q", game.ConflictReason)
		}
	}
}

func TestDetectConflictsSkipsByeWeeks(t *testing.T) {
	grid := NewGrid(seasonStart, 2)
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "10:00", "Park A"),
	}
	grid.Weeks[1].Bye = true
	// A bye week holding games is already invalid, but the detector must
	// still leave it alone rather than flag or fix it.
	grid.Weeks[1].Games = []ScheduledGame{
		completeGame("g2", team("t3", "Bears"), team("t4", "Foxes"), "10:00", "Park A"),
	}
	sameDate := date(2024, time.September, 7)
	if err := grid.SetWeekDate(2, &sameDate); err != nil {
		t.Fatalf("set date: %v", err)
	}

	detected := DetectConflicts(grid, nil)

	if detected.Weeks[0].Games[0].Status != StatusComplete {
		t.Fatalf("week 1 game: %s", detected.Weeks[0].Games[0].Status)
	}
	if detected.Weeks[1].Games[0].Status != StatusComplete {
		t.Fatalf("bye-week game must be untouched: %s", detected.Weeks[1].Games[0].Status)
	}
}

func TestDetectConflictsIdempotent(t *testing.T) {
	grid := NewGrid(seasonStart, 2)
	grid.Weeks[0].Games = []ScheduledGame{
		completeGame("g1", team("t1", "Hawks"), team("t2", "Owls"), "14:00", "Main Field"),
		completeGame("g2", team("t3", "Bears"), team("t4", "Foxes"), "14:00", "Main Field"),
		{ID: "g3", HomeTeam: team("t5", "Wolves")},
	}
	bookings := []ExternalBooking{{
		Date:      date(2024, time.September, 14),
		Time:      "10:00",
		VenueName: "Park A",
		AgeGroup:  "U10",
		HomeTeam:  "Comets",
		AwayTeam:  "Rockets",
	}}

	once := DetectConflicts(grid, bookings)
	twice := DetectConflicts(once, bookings)

	if statusFingerprint(once) != statusFingerprint(twice) {
		t.Fatalf("detection is not idempotent:\n%s\nvs\n%s", statusFingerprint(once), statusFingerprint(twice))
	}
}
