// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jsandlin/leaguedesk/internal/api"
	"github.com/jsandlin/leaguedesk/internal/api/schedules"
	"github.com/jsandlin/leaguedesk/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Schedule studio
	mux.HandleFunc("GET /api/v1/seasons/{id}/schedule", schedules.HandleGetSchedule)
	mux.HandleFunc("GET /api/v1/seasons/{id}/schedule/stats", schedules.HandleScheduleStats)
	mux.HandleFunc("POST /api/v1/seasons/{id}/schedule/save", schedules.HandleSaveSchedule)
	mux.HandleFunc("POST /api/v1/seasons/{id}/schedule/generate", schedules.HandleGenerateSchedule)

	// Week mutations
	mux.HandleFunc("POST /api/v1/seasons/{id}/schedule/weeks", schedules.HandleAddWeek)
	mux.HandleFunc("DELETE /api/v1/seasons/{id}/schedule/weeks/last", schedules.HandleRemoveLastWeek)
	mux.HandleFunc("PUT /api/v1/seasons/{id}/schedule/weeks/{week}/date", schedules.HandleSetWeekDate)
	mux.HandleFunc("POST /api/v1/seasons/{id}/schedule/weeks/{week}/bye", schedules.HandleToggleBye)

	// Game mutations
	mux.HandleFunc("POST /api/v1/seasons/{id}/schedule/weeks/{week}/games", schedules.HandleAddGame)
	mux.HandleFunc("PATCH /api/v1/seasons/{id}/schedule/weeks/{week}/games/{game_id}", schedules.HandleUpdateGame)
	mux.HandleFunc("DELETE /api/v1/seasons/{id}/schedule/weeks/{week}/games/{game_id}", schedules.HandleDeleteGame)

	// Season catalog
	mux.HandleFunc("POST /api/v1/seasons/{id}/timeslots", schedules.HandleAddTimeSlot)
}
