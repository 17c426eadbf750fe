// internal/api/schedules/handlers.go
package schedules

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jsandlin/leaguedesk/internal/api/apiutil"
	"github.com/jsandlin/leaguedesk/internal/schedule"
	"github.com/jsandlin/leaguedesk/internal/store"
)

const (
	scheduleQueryTimeout = 5 * time.Second
	seasonIDPathKey      = "id"
	weekPathKey          = "week"
	gameIDPathKey        = "game_id"
	scheduleDateLayout   = "2006-01-02"
)

var (
	st *store.Store

	sessionsMu sync.Mutex
	sessions   = map[string]*session{}
)

var defaultWeekCount = 8

// InitHandlers wires the handlers to the backing store.
func InitHandlers(s *store.Store) {
	st = s
	sessionsMu.Lock()
	sessions = map[string]*session{}
	sessionsMu.Unlock()
}

// SetDefaultWeekCount sets the grid size used for seasons created without
// an explicit week count.
func SetDefaultWeekCount(n int) {
	if n > 0 {
		defaultWeekCount = n
	}
}

// session is one season's editing state. A season has a single editor at a
// time; the mutex only serializes handler access, it is not a collaboration
// mechanism.
type session struct {
	mu     sync.Mutex
	season store.Season
	teams  []schedule.Team
	venues []schedule.Venue
	slots  []schedule.TimeSlot
	editor *schedule.Editor
}

// openSession returns the live session for a season, loading the persisted
// grid, catalogs, and booking snapshot on first access.
func openSession(ctx context.Context, seasonID string) (*session, error) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	if existing, ok := sessions[seasonID]; ok {
		return existing, nil
	}

	season, err := st.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if season.TotalWeeks < 1 {
		season.TotalWeeks = defaultWeekCount
	}
	teams, err := st.ListTeams(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	customVenues, err := st.ListVenues(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	customSlots, err := st.ListTimeSlots(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	bookings, err := st.ListExternalBookings(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	grid, err := st.LoadGrid(ctx, season)
	if err != nil {
		return nil, err
	}

	sess := &session{
		season: season,
		teams:  teams,
		venues: schedule.BuildVenueList(teams, customVenues),
		slots:  schedule.BuildTimeSlotList(customSlots),
		editor: schedule.NewEditor(grid, bookings),
	}
	sessions[seasonID] = sess
	return sess, nil
}

// RefreshSessionBookings re-supplies a fresh booking snapshot to a live
// session. No-op when the season has no open session; the snapshot is then
// simply loaded on next open. The bookings refresh job calls this.
func RefreshSessionBookings(ctx context.Context, seasonID string) error {
	sessionsMu.Lock()
	sess, ok := sessions[seasonID]
	sessionsMu.Unlock()
	if !ok {
		return nil
	}

	bookings, err := st.ListExternalBookings(ctx, seasonID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.editor.SetBookings(bookings)
	sess.mu.Unlock()
	return nil
}

// GET /api/v1/seasons/{id}/schedule
func HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	// Detection runs against a snapshot; re-reading bookings on each open
	// is how an editor picks up another group's edits.
	bookings, err := st.ListExternalBookings(ctx, sess.season.ID)
	if err != nil {
		logger.Error().Err(err).Str("season_id", sess.season.ID).Msg("Failed to refresh external bookings")
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}

	sess.mu.Lock()
	sess.editor.SetBookings(bookings)
	payload := renderSchedule(sess)
	sess.mu.Unlock()

	writeScheduleJSON(w, r, http.StatusOK, payload)
}

// GET /api/v1/seasons/{id}/schedule/stats
func HandleScheduleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	weeks := sess.editor.Grid().Weeks
	payload := map[string]any{
		"summary": schedule.ComputeStats(weeks),
		"teams":   schedule.ComputeTeamStats(weeks, sess.teams),
	}
	sess.mu.Unlock()

	writeScheduleJSON(w, r, http.StatusOK, payload)
}

// POST /api/v1/seasons/{id}/schedule/save
func HandleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	grid := sess.editor.Grid()
	err := st.SaveGrid(ctx, sess.season.ID, grid)
	saved := len(grid.FlattenGames())
	sess.mu.Unlock()

	if err != nil {
		logger.Error().Err(err).Str("season_id", sess.season.ID).Msg("Failed to save schedule")
		http.Error(w, "Failed to save schedule", http.StatusInternalServerError)
		return
	}

	writeScheduleJSON(w, r, http.StatusOK, map[string]any{"savedGames": saved})
}

type timeSlotRequest struct {
	Time string `json:"time"`
}

// POST /api/v1/seasons/{id}/timeslots
func HandleAddTimeSlot(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	var req timeSlotRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	slots, err := schedule.AddTimeSlot(sess.slots, req.Time)
	if err == nil {
		added := slots[len(slots)-1]
		if storeErr := st.AddTimeSlot(ctx, sess.season.ID, added); storeErr != nil {
			sess.mu.Unlock()
			logger.Error().Err(storeErr).Str("season_id", sess.season.ID).Msg("Failed to persist time slot")
			http.Error(w, "Failed to add time slot", http.StatusInternalServerError)
			return
		}
		sess.slots = slots
	}
	sess.mu.Unlock()

	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	writeScheduleJSON(w, r, http.StatusCreated, map[string]any{"slots": renderSlots(sess)})
}

func sessionFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session, bool) {
	seasonID := r.PathValue(seasonIDPathKey)
	if seasonID == "" {
		http.Error(w, "Invalid season ID", http.StatusBadRequest)
		return nil, false
	}
	sess, err := openSession(ctx, seasonID)
	if err != nil {
		if errors.Is(err, store.ErrSeasonNotFound) {
			http.Error(w, "Season not found", http.StatusNotFound)
			return nil, false
		}
		log.Ctx(r.Context()).Error().Err(err).Str("season_id", seasonID).Msg("Failed to open schedule session")
		http.Error(w, "Failed to open schedule", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func writeScheduleJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write schedule response")
	}
}
