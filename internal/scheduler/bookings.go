package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jsandlin/leaguedesk/internal/api/schedules"
	"github.com/jsandlin/leaguedesk/internal/store"
)

const defaultBookingsRefreshCron = "*/10 * * * *"

// RegisterBookingsRefreshJob keeps open editing sessions current with the
// external-booking feed. Conflict detection works off a snapshot taken when
// a session opens; this job re-reads the feed for every season so bookings
// entered elsewhere surface without the editor reloading.
func RegisterBookingsRefreshJob(st *store.Store, cronExpr string) error {
	if st == nil {
		return fmt.Errorf("bookings refresh job requires store")
	}
	if cronExpr == "" {
		cronExpr = defaultBookingsRefreshCron
	}

	jobName := "external_bookings_refresh"
	jobLogger := log.With().
		Str("component", "bookings_refresh_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		seasons, err := st.ListSeasons(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to list seasons for bookings refresh")
			return
		}

		refreshed := 0
		for _, season := range seasons {
			if err := schedules.RefreshSessionBookings(ctx, season.ID); err != nil {
				jobLogger.Error().Err(err).Str("season_id", season.ID).Msg("Failed to refresh external bookings")
				continue
			}
			refreshed++
		}
		jobLogger.Debug().Int("seasons", refreshed).Msg("External bookings refreshed")
	})
	if err != nil {
		return fmt.Errorf("add bookings refresh job: %w", err)
	}

	jobLogger.Info().Msg("External bookings refresh job registered")
	return nil
}
