// internal/api/schedules/mutations.go
package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jsandlin/leaguedesk/internal/api/apiutil"
	"github.com/jsandlin/leaguedesk/internal/schedule"
)

// POST /api/v1/seasons/{id}/schedule/weeks
func HandleAddWeek(w http.ResponseWriter, r *http.Request) {
	mutateSchedule(w, r, func(sess *session) error {
		sess.editor.AddWeek()
		return nil
	})
}

// DELETE /api/v1/seasons/{id}/schedule/weeks/last?force=true
func HandleRemoveLastWeek(w http.ResponseWriter, r *http.Request) {
	force, err := apiutil.ParseOptionalBool(r.URL.Query().Get("force"))
	if err != nil {
		http.Error(w, "Invalid force flag", http.StatusBadRequest)
		return
	}
	mutateSchedule(w, r, func(sess *session) error {
		return sess.editor.RemoveLastWeek(force)
	})
}

type weekDateRequest struct {
	// Date is the override in YYYY-MM-DD form; null reverts the week to
	// its computed default.
	Date *string `json:"date"`
}

// PUT /api/v1/seasons/{id}/schedule/weeks/{week}/date
func HandleSetWeekDate(w http.ResponseWriter, r *http.Request) {
	weekNumber, err := apiutil.ParsePositiveIntField(r.PathValue(weekPathKey), "week")
	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	var req weekDateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mutateSchedule(w, r, func(sess *session) error {
		if req.Date == nil {
			return sess.editor.SetWeekDate(weekNumber, nil)
		}
		date, err := apiutil.ParseDateField(*req.Date, "date")
		if err != nil {
			return err
		}
		return sess.editor.SetWeekDate(weekNumber, &date)
	})
}

// POST /api/v1/seasons/{id}/schedule/weeks/{week}/bye
func HandleToggleBye(w http.ResponseWriter, r *http.Request) {
	weekNumber, err := apiutil.ParsePositiveIntField(r.PathValue(weekPathKey), "week")
	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	mutateSchedule(w, r, func(sess *session) error {
		return sess.editor.ToggleBye(weekNumber)
	})
}

// POST /api/v1/seasons/{id}/schedule/weeks/{week}/games
func HandleAddGame(w http.ResponseWriter, r *http.Request) {
	weekNumber, err := apiutil.ParsePositiveIntField(r.PathValue(weekPathKey), "week")
	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	mutateSchedule(w, r, func(sess *session) error {
		_, err := sess.editor.AddGame(weekNumber)
		return err
	})
}

// DELETE /api/v1/seasons/{id}/schedule/weeks/{week}/games/{game_id}
func HandleDeleteGame(w http.ResponseWriter, r *http.Request) {
	weekNumber, err := apiutil.ParsePositiveIntField(r.PathValue(weekPathKey), "week")
	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	gameID := r.PathValue(gameIDPathKey)
	mutateSchedule(w, r, func(sess *session) error {
		return sess.editor.DeleteGame(weekNumber, gameID)
	})
}

// gamePatchRequest distinguishes an absent field from an explicit null:
// absent fields stay untouched, null clears the assignment.
type gamePatchRequest struct {
	HomeTeamID json.RawMessage `json:"homeTeamId"`
	AwayTeamID json.RawMessage `json:"awayTeamId"`
	TimeSlotID json.RawMessage `json:"timeSlotId"`
	VenueID    json.RawMessage `json:"venueId"`
}

// PATCH /api/v1/seasons/{id}/schedule/weeks/{week}/games/{game_id}
func HandleUpdateGame(w http.ResponseWriter, r *http.Request) {
	weekNumber, err := apiutil.ParsePositiveIntField(r.PathValue(weekPathKey), "week")
	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	gameID := r.PathValue(gameIDPathKey)

	var req gamePatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mutateSchedule(w, r, func(sess *session) error {
		patch, err := sess.buildPatch(req)
		if err != nil {
			return err
		}
		return sess.editor.UpdateGame(weekNumber, gameID, patch)
	})
}

type generateRequest struct {
	TotalWeeks int  `json:"totalWeeks"`
	Replace    bool `json:"replace"`
}

// POST /api/v1/seasons/{id}/schedule/generate
//
// Generation replaces the whole grid, so a grid that already holds games is
// refused unless the caller explicitly opts into replacement.
func HandleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()
	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	totalWeeks := req.TotalWeeks
	if totalWeeks == 0 {
		totalWeeks = sess.season.TotalWeeks
	}

	sess.mu.Lock()
	if !req.Replace && len(sess.editor.Grid().FlattenGames()) > 0 {
		sess.mu.Unlock()
		http.Error(w, "Schedule already has games; pass replace to overwrite", http.StatusConflict)
		return
	}
	err := sess.editor.Generate(sess.teams, totalWeeks)
	var payload any
	if err == nil {
		payload = renderSchedule(sess)
	}
	sess.mu.Unlock()

	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("season_id", sess.season.ID).Msg("Schedule generation rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeScheduleJSON(w, r, http.StatusOK, payload)
}

// mutateSchedule opens the season session, applies fn under its lock, and
// renders the settled grid back. Domain failures map to statuses in
// writeScheduleError.
func mutateSchedule(w http.ResponseWriter, r *http.Request, fn func(*session) error) {
	ctx, cancel := context.WithTimeout(r.Context(), scheduleQueryTimeout)
	defer cancel()

	sess, ok := sessionFromRequest(ctx, w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	err := fn(sess)
	var payload any
	if err == nil {
		payload = renderSchedule(sess)
	}
	sess.mu.Unlock()

	if err != nil {
		writeScheduleError(w, r, err)
		return
	}
	writeScheduleJSON(w, r, http.StatusOK, payload)
}

func (sess *session) buildPatch(req gamePatchRequest) (schedule.GamePatch, error) {
	var patch schedule.GamePatch

	set, id, err := decodePatchField(req.HomeTeamID, "homeTeamId")
	if err != nil {
		return patch, err
	}
	if set {
		patch.SetHomeTeam = true
		if id != "" {
			team := sess.teamByID(id)
			if team == nil {
				return patch, apiutil.FieldError{Field: "homeTeamId", Reason: "is not a team in this season"}
			}
			patch.HomeTeam = team
		}
	}

	set, id, err = decodePatchField(req.AwayTeamID, "awayTeamId")
	if err != nil {
		return patch, err
	}
	if set {
		patch.SetAwayTeam = true
		if id != "" {
			team := sess.teamByID(id)
			if team == nil {
				return patch, apiutil.FieldError{Field: "awayTeamId", Reason: "is not a team in this season"}
			}
			patch.AwayTeam = team
		}
	}

	set, id, err = decodePatchField(req.TimeSlotID, "timeSlotId")
	if err != nil {
		return patch, err
	}
	if set {
		patch.SetTimeSlot = true
		if id != "" {
			slot := sess.slotByID(id)
			if slot == nil {
				return patch, apiutil.FieldError{Field: "timeSlotId", Reason: "is not an available time slot"}
			}
			patch.TimeSlot = slot
		}
	}

	set, id, err = decodePatchField(req.VenueID, "venueId")
	if err != nil {
		return patch, err
	}
	if set {
		patch.SetVenue = true
		if id != "" {
			venue := sess.venueByID(id)
			if venue == nil {
				return patch, apiutil.FieldError{Field: "venueId", Reason: "is not an available venue"}
			}
			patch.Venue = venue
		}
	}

	return patch, nil
}

// decodePatchField reports whether the field was present, and its ID when
// non-null. An explicit JSON null yields (true, "", nil).
func decodePatchField(raw json.RawMessage, field string) (bool, string, error) {
	if raw == nil {
		return false, "", nil
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return true, "", nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return false, "", apiutil.FieldError{Field: field, Reason: "must be a string or null"}
	}
	return true, id, nil
}

func (sess *session) teamByID(id string) *schedule.Team {
	for i := range sess.teams {
		if sess.teams[i].ID == id {
			return &sess.teams[i]
		}
	}
	return nil
}

func (sess *session) venueByID(id string) *schedule.Venue {
	for i := range sess.venues {
		if sess.venues[i].ID == id {
			return &sess.venues[i]
		}
	}
	return nil
}

func (sess *session) slotByID(id string) *schedule.TimeSlot {
	for i := range sess.slots {
		if sess.slots[i].ID == id {
			return &sess.slots[i]
		}
	}
	return nil
}

func writeScheduleError(w http.ResponseWriter, r *http.Request, err error) {
	var booked schedule.TeamBookedError
	var fieldErr apiutil.FieldError
	switch {
	case errors.As(err, &booked):
		writeScheduleJSON(w, r, http.StatusConflict, map[string]any{
			"error": booked.Error(),
			"team":  booked.TeamName,
			"week":  booked.WeekNumber,
		})
	case errors.Is(err, schedule.ErrConfirmRemoveWeek):
		writeScheduleJSON(w, r, http.StatusConflict, map[string]any{
			"error":           err.Error(),
			"confirmRequired": true,
		})
	case errors.Is(err, schedule.ErrDuplicateTimeSlot):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, schedule.ErrWeekNotFound), errors.Is(err, schedule.ErrGameNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, schedule.ErrByeWeek):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &fieldErr):
		http.Error(w, fieldErr.Error(), http.StatusBadRequest)
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Schedule mutation failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
