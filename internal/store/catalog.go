package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jsandlin/leaguedesk/internal/schedule"
)

const dateLayout = "2006-01-02"

// ErrSeasonNotFound is returned when a season ID matches no row.
var ErrSeasonNotFound = errors.New("season not found")

// Season is the scheduling context a studio session opens against.
type Season struct {
	ID         string
	Name       string
	AgeGroup   string
	ProgramID  string
	StartDate  time.Time
	TotalWeeks int
}

func (s *Store) GetSeason(ctx context.Context, seasonID string) (Season, error) {
	row := s.QueryRowContext(ctx,
		`SELECT id, name, age_group, program_id, start_date, total_weeks
		 FROM seasons WHERE id = ?`, seasonID)

	var season Season
	var startDate string
	err := row.Scan(&season.ID, &season.Name, &season.AgeGroup, &season.ProgramID, &startDate, &season.TotalWeeks)
	if errors.Is(err, sql.ErrNoRows) {
		return Season{}, ErrSeasonNotFound
	}
	if err != nil {
		return Season{}, fmt.Errorf("fetch season: %w", err)
	}
	season.StartDate, err = time.Parse(dateLayout, startDate)
	if err != nil {
		return Season{}, fmt.Errorf("season %s has invalid start date %q: %w", seasonID, startDate, err)
	}
	return season, nil
}

func (s *Store) ListSeasons(ctx context.Context) ([]Season, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, age_group, program_id, start_date, total_weeks
		 FROM seasons ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		var season Season
		var startDate string
		if err := rows.Scan(&season.ID, &season.Name, &season.AgeGroup, &season.ProgramID, &startDate, &season.TotalWeeks); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		season.StartDate, err = time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("season %s has invalid start date %q: %w", season.ID, startDate, err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

func (s *Store) CreateSeason(ctx context.Context, season Season) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO seasons (id, name, age_group, program_id, start_date, total_weeks)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		season.ID, season.Name, season.AgeGroup, season.ProgramID,
		season.StartDate.Format(dateLayout), season.TotalWeeks)
	if err != nil {
		return fmt.Errorf("create season: %w", err)
	}
	return nil
}

func (s *Store) ListTeams(ctx context.Context, seasonID string) ([]schedule.Team, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, age_group, program_id, home_venue, home_address, display_color
		 FROM teams WHERE season_id = ? ORDER BY name`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []schedule.Team
	for rows.Next() {
		var team schedule.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.AgeGroup, &team.ProgramID,
			&team.HomeVenue, &team.HomeAddress, &team.DisplayColor); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (s *Store) AddTeam(ctx context.Context, seasonID string, team schedule.Team) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO teams (id, season_id, name, age_group, program_id, home_venue, home_address, display_color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		team.ID, seasonID, team.Name, team.AgeGroup, team.ProgramID,
		team.HomeVenue, team.HomeAddress, team.DisplayColor)
	if err != nil {
		return fmt.Errorf("add team: %w", err)
	}
	return nil
}

// ListVenues returns the custom venues entered for a season. Team home
// fields are not stored here; the catalog derives them from the team list.
func (s *Store) ListVenues(ctx context.Context, seasonID string) ([]schedule.Venue, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, location, address, home_field, team_id
		 FROM venues WHERE season_id = ? ORDER BY rowid`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []schedule.Venue
	for rows.Next() {
		var venue schedule.Venue
		if err := rows.Scan(&venue.ID, &venue.Name, &venue.Location, &venue.Address,
			&venue.HomeField, &venue.TeamID); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

func (s *Store) AddVenue(ctx context.Context, seasonID string, venue schedule.Venue) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO venues (id, season_id, name, location, address, home_field, team_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		venue.ID, seasonID, venue.Name, venue.Location, venue.Address, venue.HomeField, venue.TeamID)
	if err != nil {
		return fmt.Errorf("add venue: %w", err)
	}
	return nil
}

// ListTimeSlots returns a season's custom slots in insertion order.
func (s *Store) ListTimeSlots(ctx context.Context, seasonID string) ([]schedule.TimeSlot, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, slot_time, label FROM time_slots WHERE season_id = ? ORDER BY rowid`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	defer rows.Close()

	var slots []schedule.TimeSlot
	for rows.Next() {
		var slot schedule.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.Time, &slot.Label); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) AddTimeSlot(ctx context.Context, seasonID string, slot schedule.TimeSlot) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO time_slots (id, season_id, slot_time, label) VALUES (?, ?, ?, ?)`,
		slot.ID, seasonID, slot.Time, slot.Label)
	if err != nil {
		return fmt.Errorf("add time slot: %w", err)
	}
	return nil
}

// ListExternalBookings returns the current snapshot of bookings from other
// scheduling groups sharing the season's venue pool.
func (s *Store) ListExternalBookings(ctx context.Context, seasonID string) ([]schedule.ExternalBooking, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT game_date, game_time, venue_name, age_group, home_team, away_team
		 FROM external_bookings WHERE season_id = ? ORDER BY game_date, game_time`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list external bookings: %w", err)
	}
	defer rows.Close()

	var bookings []schedule.ExternalBooking
	for rows.Next() {
		var booking schedule.ExternalBooking
		var gameDate string
		if err := rows.Scan(&gameDate, &booking.Time, &booking.VenueName,
			&booking.AgeGroup, &booking.HomeTeam, &booking.AwayTeam); err != nil {
			return nil, fmt.Errorf("scan external booking: %w", err)
		}
		booking.Date, err = time.Parse(dateLayout, gameDate)
		if err != nil {
			return nil, fmt.Errorf("external booking has invalid date %q: %w", gameDate, err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// ReplaceExternalBookings swaps the season's booking snapshot wholesale.
// The refresh job calls this when another group's schedule changes.
func (s *Store) ReplaceExternalBookings(ctx context.Context, seasonID string, bookings []schedule.ExternalBooking) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM external_bookings WHERE season_id = ?`, seasonID); err != nil {
			return fmt.Errorf("clear external bookings: %w", err)
		}
		for _, booking := range bookings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO external_bookings (season_id, game_date, game_time, venue_name, age_group, home_team, away_team)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				seasonID, booking.Date.Format(dateLayout), booking.Time,
				booking.VenueName, booking.AgeGroup, booking.HomeTeam, booking.AwayTeam)
			if err != nil {
				return fmt.Errorf("insert external booking: %w", err)
			}
		}
		return nil
	})
}
