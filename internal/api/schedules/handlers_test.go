package schedules

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jsandlin/leaguedesk/internal/schedule"
	"github.com/jsandlin/leaguedesk/internal/store"
	"github.com/jsandlin/leaguedesk/internal/testutil"
)

func setupScheduleTest(t *testing.T) (*store.Store, store.Season) {
	t.Helper()

	st := testutil.NewTestStore(t)
	ctx := context.Background()

	season := store.Season{
		ID:         "s1",
		Name:       "Fall 2024",
		AgeGroup:   "U12",
		StartDate:  time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC),
		TotalWeeks: 4,
	}
	if err := st.CreateSeason(ctx, season); err != nil {
		t.Fatalf("seed season: %v", err)
	}
	teams := []schedule.Team{
		{ID: "t1", Name: "Hawks", AgeGroup: "U12", HomeVenue: "Hawk Field"},
		{ID: "t2", Name: "Owls", AgeGroup: "U12"},
		{ID: "t3", Name: "Bears", AgeGroup: "U12"},
	}
	for _, team := range teams {
		if err := st.AddTeam(ctx, season.ID, team); err != nil {
			t.Fatalf("seed team %s: %v", team.Name, err)
		}
	}

	InitHandlers(st)
	t.Cleanup(func() { InitHandlers(nil) })

	return st, season
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range pathValues {
		req.SetPathValue(key, value)
	}
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func decodeSchedule(t *testing.T, recorder *httptest.ResponseRecorder) scheduleView {
	t.Helper()
	var view scheduleView
	if err := json.Unmarshal(recorder.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode schedule response: %v\n%s", err, recorder.Body.String())
	}
	return view
}

func seasonPath(seasonID string) map[string]string {
	return map[string]string{seasonIDPathKey: seasonID}
}

func weekPath(seasonID string, week int) map[string]string {
	return map[string]string{seasonIDPathKey: seasonID, weekPathKey: fmt.Sprintf("%d", week)}
}

func gamePath(seasonID string, week int, gameID string) map[string]string {
	values := weekPath(seasonID, week)
	values[gameIDPathKey] = gameID
	return values
}

func addGame(t *testing.T, seasonID string, week int) string {
	t.Helper()
	recorder := doRequest(t, HandleAddGame, http.MethodPost,
		fmt.Sprintf("/api/v1/seasons/%s/schedule/weeks/%d/games", seasonID, week), "", weekPath(seasonID, week))
	if recorder.Code != http.StatusOK {
		t.Fatalf("add game: %d %s", recorder.Code, recorder.Body.String())
	}
	view := decodeSchedule(t, recorder)
	games := view.Weeks[week-1].Games
	return games[len(games)-1].ID
}

func patchGame(t *testing.T, seasonID string, week int, gameID, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, HandleUpdateGame, http.MethodPatch,
		fmt.Sprintf("/api/v1/seasons/%s/schedule/weeks/%d/games/%s", seasonID, week, gameID),
		body, gamePath(seasonID, week, gameID))
}

func TestHandleGetSchedule(t *testing.T) {
	_, season := setupScheduleTest(t)

	recorder := doRequest(t, HandleGetSchedule, http.MethodGet,
		"/api/v1/seasons/s1/schedule", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d %s", recorder.Code, recorder.Body.String())
	}

	view := decodeSchedule(t, recorder)
	if len(view.Weeks) != 4 {
		t.Fatalf("weeks: %d", len(view.Weeks))
	}
	if view.Weeks[0].Date != "2024-09-07" {
		t.Fatalf("week 1 date: %s", view.Weeks[0].Date)
	}
	if len(view.Teams) != 3 {
		t.Fatalf("teams: %d", len(view.Teams))
	}
	// Hawk Field is derived from the team list, 13 hourly slots come fixed.
	if len(view.Venues) != 1 || view.Venues[0].ID != "team-venue-t1" {
		t.Fatalf("venues: %+v", view.Venues)
	}
	if len(view.TimeSlots) != 13 {
		t.Fatalf("time slots: %d", len(view.TimeSlots))
	}
}

func TestHandleGetScheduleSeasonNotFound(t *testing.T) {
	setupScheduleTest(t)

	recorder := doRequest(t, HandleGetSchedule, http.MethodGet,
		"/api/v1/seasons/missing/schedule", "", seasonPath("missing"))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleUpdateGameDetectsConflicts(t *testing.T) {
	_, season := setupScheduleTest(t)

	first := addGame(t, season.ID, 1)
	second := addGame(t, season.ID, 1)

	recorder := patchGame(t, season.ID, 1, first,
		`{"homeTeamId":"t1","awayTeamId":"t2","timeSlotId":"slot-14:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("first patch: %d %s", recorder.Code, recorder.Body.String())
	}
	view := decodeSchedule(t, recorder)
	if view.Weeks[0].Games[0].Status != string(schedule.StatusComplete) {
		t.Fatalf("first game status: %s", view.Weeks[0].Games[0].Status)
	}

	// Without an away team the game stays unassigned and claims no slot.
	recorder = patchGame(t, season.ID, 1, second,
		`{"homeTeamId":"t3","awayTeamId":null,"timeSlotId":"slot-14:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("second patch: %d %s", recorder.Code, recorder.Body.String())
	}
	view = decodeSchedule(t, recorder)
	if view.Weeks[0].Games[1].Status != string(schedule.StatusIncomplete) {
		t.Fatalf("second game should stay incomplete without an away team: %s", view.Weeks[0].Games[1].Status)
	}

	// Completing it flags both games.
	recorder = patchGame(t, season.ID, 1, second, `{"awayTeamId":"t2"}`)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("t2 already plays in week 1: %d", recorder.Code)
	}

	// A different away team completes the game and surfaces the venue clash.
	recorder = doRequest(t, HandleAddWeek, http.MethodPost,
		"/api/v1/seasons/s1/schedule/weeks", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("add week: %d", recorder.Code)
	}
	third := addGame(t, season.ID, 5)
	recorder = patchGame(t, season.ID, 5, third,
		`{"homeTeamId":"t2","awayTeamId":"t3","timeSlotId":"slot-14:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("third patch: %d %s", recorder.Code, recorder.Body.String())
	}
	view = decodeSchedule(t, recorder)
	if view.Weeks[4].Games[0].Status != string(schedule.StatusComplete) {
		t.Fatalf("different week, different date: %s %s",
			view.Weeks[4].Games[0].Status, view.Weeks[4].Games[0].ConflictReason)
	}
}

func TestHandleUpdateGameTeamDoubleBooked(t *testing.T) {
	_, season := setupScheduleTest(t)

	first := addGame(t, season.ID, 1)
	second := addGame(t, season.ID, 1)

	recorder := patchGame(t, season.ID, 1, first, `{"homeTeamId":"t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("first patch: %d", recorder.Code)
	}

	recorder = patchGame(t, season.ID, 1, second, `{"awayTeamId":"t1"}`)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d %s", recorder.Code, recorder.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload["team"] != "Hawks" {
		t.Fatalf("payload: %v", payload)
	}
}

func TestHandleUpdateGameUnknownResource(t *testing.T) {
	_, season := setupScheduleTest(t)
	gameID := addGame(t, season.ID, 1)

	recorder := patchGame(t, season.ID, 1, gameID, `{"venueId":"nope"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleRemoveLastWeekConfirmation(t *testing.T) {
	_, season := setupScheduleTest(t)
	addGame(t, season.ID, 4)

	recorder := doRequest(t, HandleRemoveLastWeek, http.MethodDelete,
		"/api/v1/seasons/s1/schedule/weeks/last", "", seasonPath(season.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["confirmRequired"] != true {
		t.Fatalf("payload: %v", payload)
	}

	recorder = doRequest(t, HandleRemoveLastWeek, http.MethodDelete,
		"/api/v1/seasons/s1/schedule/weeks/last?force=true", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("forced removal: %d %s", recorder.Code, recorder.Body.String())
	}
	view := decodeSchedule(t, recorder)
	if len(view.Weeks) != 3 {
		t.Fatalf("weeks after removal: %d", len(view.Weeks))
	}
}

func TestHandleToggleByeAndWeekDate(t *testing.T) {
	_, season := setupScheduleTest(t)

	recorder := doRequest(t, HandleToggleBye, http.MethodPost,
		"/api/v1/seasons/s1/schedule/weeks/2/bye", "", weekPath(season.ID, 2))
	if recorder.Code != http.StatusOK {
		t.Fatalf("toggle bye: %d", recorder.Code)
	}
	view := decodeSchedule(t, recorder)
	if !view.Weeks[1].Bye {
		t.Fatal("week 2 should be a bye")
	}

	recorder = doRequest(t, HandleSetWeekDate, http.MethodPut,
		"/api/v1/seasons/s1/schedule/weeks/3/date", `{"date":"2024-10-05"}`, weekPath(season.ID, 3))
	if recorder.Code != http.StatusOK {
		t.Fatalf("set date: %d %s", recorder.Code, recorder.Body.String())
	}
	view = decodeSchedule(t, recorder)
	if view.Weeks[2].Date != "2024-10-05" || !view.Weeks[2].CustomDate {
		t.Fatalf("week 3: %+v", view.Weeks[2])
	}

	recorder = doRequest(t, HandleSetWeekDate, http.MethodPut,
		"/api/v1/seasons/s1/schedule/weeks/3/date", `{"date":null}`, weekPath(season.ID, 3))
	if recorder.Code != http.StatusOK {
		t.Fatalf("clear date: %d", recorder.Code)
	}
	view = decodeSchedule(t, recorder)
	if view.Weeks[2].CustomDate {
		t.Fatal("override should be cleared")
	}
}

func TestHandleGenerateSchedule(t *testing.T) {
	_, season := setupScheduleTest(t)

	recorder := doRequest(t, HandleGenerateSchedule, http.MethodPost,
		"/api/v1/seasons/s1/schedule/generate", `{"totalWeeks":4}`, seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", recorder.Code, recorder.Body.String())
	}
	view := decodeSchedule(t, recorder)
	if len(view.Weeks) != 4 {
		t.Fatalf("weeks: %d", len(view.Weeks))
	}
	// Three teams, so each round pairs two and rests one.
	if len(view.Weeks[0].Games) != 1 {
		t.Fatalf("week 1 games: %d", len(view.Weeks[0].Games))
	}

	recorder = doRequest(t, HandleGenerateSchedule, http.MethodPost,
		"/api/v1/seasons/s1/schedule/generate", `{"totalWeeks":4}`, seasonPath(season.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("regenerate without replace: %d", recorder.Code)
	}

	recorder = doRequest(t, HandleGenerateSchedule, http.MethodPost,
		"/api/v1/seasons/s1/schedule/generate", `{"totalWeeks":4,"replace":true}`, seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("regenerate with replace: %d", recorder.Code)
	}
}

func TestHandleSaveSchedule(t *testing.T) {
	st, season := setupScheduleTest(t)

	gameID := addGame(t, season.ID, 1)
	recorder := patchGame(t, season.ID, 1, gameID,
		`{"homeTeamId":"t1","awayTeamId":"t2","timeSlotId":"slot-10:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("patch: %d", recorder.Code)
	}

	recorder = doRequest(t, HandleSaveSchedule, http.MethodPost,
		"/api/v1/seasons/s1/schedule/save", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("save: %d %s", recorder.Code, recorder.Body.String())
	}

	var count int
	err := st.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM season_games WHERE season_id = ?`, season.ID).Scan(&count)
	if err != nil {
		t.Fatalf("count games: %v", err)
	}
	if count != 1 {
		t.Fatalf("persisted games: %d", count)
	}
}

func TestHandleScheduleStats(t *testing.T) {
	_, season := setupScheduleTest(t)

	gameID := addGame(t, season.ID, 1)
	recorder := patchGame(t, season.ID, 1, gameID,
		`{"homeTeamId":"t1","awayTeamId":"t2","timeSlotId":"slot-10:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("patch: %d", recorder.Code)
	}

	recorder = doRequest(t, HandleScheduleStats, http.MethodGet,
		"/api/v1/seasons/s1/schedule/stats", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("stats: %d", recorder.Code)
	}

	var payload struct {
		Summary schedule.Stats                `json:"summary"`
		Teams   map[string]schedule.TeamStats `json:"teams"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if payload.Summary.TotalGames != 1 || payload.Summary.CompleteGames != 1 {
		t.Fatalf("summary: %+v", payload.Summary)
	}
	if payload.Teams["t3"].Games != 0 || payload.Teams["t3"].Byes != 4 {
		t.Fatalf("t3 stats: %+v", payload.Teams["t3"])
	}
}

func TestHandleAddTimeSlot(t *testing.T) {
	_, season := setupScheduleTest(t)

	recorder := doRequest(t, HandleAddTimeSlot, http.MethodPost,
		"/api/v1/seasons/s1/timeslots", `{"time":"17:45"}`, seasonPath(season.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("add slot: %d %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(t, HandleAddTimeSlot, http.MethodPost,
		"/api/v1/seasons/s1/timeslots", `{"time":"17:45"}`, seasonPath(season.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate slot: %d", recorder.Code)
	}
}

func TestExternalBookingRefreshOnOpen(t *testing.T) {
	st, season := setupScheduleTest(t)

	gameID := addGame(t, season.ID, 1)
	recorder := patchGame(t, season.ID, 1, gameID,
		`{"homeTeamId":"t1","awayTeamId":"t2","timeSlotId":"slot-10:00","venueId":"team-venue-t1"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("patch: %d", recorder.Code)
	}

	bookings := []schedule.ExternalBooking{{
		Date:      time.Date(2024, time.September, 7, 0, 0, 0, 0, time.UTC),
		Time:      "10:00",
		VenueName: "hawk field",
		AgeGroup:  "U10",
		HomeTeam:  "Comets",
		AwayTeam:  "Rockets",
	}}
	if err := st.ReplaceExternalBookings(context.Background(), season.ID, bookings); err != nil {
		t.Fatalf("seed bookings: %v", err)
	}

	recorder = doRequest(t, HandleGetSchedule, http.MethodGet,
		"/api/v1/seasons/s1/schedule", "", seasonPath(season.ID))
	if recorder.Code != http.StatusOK {
		t.Fatalf("get: %d", recorder.Code)
	}
	view := decodeSchedule(t, recorder)
	game := view.Weeks[0].Games[0]
	if game.Status != string(schedule.StatusConflict) {
		t.Fatalf("status after booking import: %s", game.Status)
	}
	if !strings.Contains(game.ConflictReason, "U10") {
		t.Fatalf("reason: %q", game.ConflictReason)
	}
}
