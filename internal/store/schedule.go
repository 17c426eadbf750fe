package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jsandlin/leaguedesk/internal/schedule"
)

// LoadGrid reconstructs a season's schedule grid: persisted games grouped by
// week number, plus the structural week rows (bye flags, override dates).
// Teams are resolved by ID against the season's team list; a game whose team
// no longer exists keeps that side unassigned.
func (s *Store) LoadGrid(ctx context.Context, season Season) (*schedule.Grid, error) {
	teams, err := s.ListTeams(ctx, season.ID)
	if err != nil {
		return nil, err
	}
	teamsByID := make(map[string]*schedule.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	games, err := s.loadGames(ctx, season.ID, teamsByID)
	if err != nil {
		return nil, err
	}

	grid := schedule.FromGames(season.StartDate, games, season.TotalWeeks)

	rows, err := s.QueryContext(ctx,
		`SELECT week_number, bye, override_date
		 FROM season_weeks WHERE season_id = ? ORDER BY week_number`, season.ID)
	if err != nil {
		return nil, fmt.Errorf("list season weeks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var weekNumber int
		var bye bool
		var overrideDate sql.NullString
		if err := rows.Scan(&weekNumber, &bye, &overrideDate); err != nil {
			return nil, fmt.Errorf("scan season week: %w", err)
		}
		for weekNumber > len(grid.Weeks) {
			grid.AddWeek()
		}
		week := &grid.Weeks[weekNumber-1]
		week.Bye = bye
		if bye {
			week.Games = nil
		}
		if overrideDate.Valid {
			date, err := time.Parse(dateLayout, overrideDate.String)
			if err != nil {
				return nil, fmt.Errorf("week %d has invalid override date %q: %w", weekNumber, overrideDate.String, err)
			}
			week.OverrideDate = &date
		}
	}
	return grid, rows.Err()
}

func (s *Store) loadGames(ctx context.Context, seasonID string, teamsByID map[string]*schedule.Team) ([]schedule.ScheduledGame, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, week_number, game_date, home_team_id, away_team_id, slot_time, venue_name
		 FROM season_games WHERE season_id = ? ORDER BY week_number, rowid`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list season games: %w", err)
	}
	defer rows.Close()

	var games []schedule.ScheduledGame
	for rows.Next() {
		var game schedule.ScheduledGame
		var gameDate string
		var homeTeamID, awayTeamID, slotTime, venueName sql.NullString
		if err := rows.Scan(&game.ID, &game.WeekNumber, &gameDate,
			&homeTeamID, &awayTeamID, &slotTime, &venueName); err != nil {
			return nil, fmt.Errorf("scan season game: %w", err)
		}
		game.Date, err = time.Parse(dateLayout, gameDate)
		if err != nil {
			return nil, fmt.Errorf("game %s has invalid date %q: %w", game.ID, gameDate, err)
		}
		if homeTeamID.Valid {
			game.HomeTeam = teamsByID[homeTeamID.String]
		}
		if awayTeamID.Valid {
			game.AwayTeam = teamsByID[awayTeamID.String]
		}
		if slotTime.Valid {
			game.TimeSlot = &schedule.TimeSlot{
				ID:   "slot-" + slotTime.String,
				Time: slotTime.String,
			}
		}
		if venueName.Valid {
			game.Venue = &schedule.Venue{
				ID:   "venue-" + schedule.NormalizeVenueName(venueName.String),
				Name: venueName.String,
			}
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// SaveGrid persists a settled grid in one transaction: the flat annotated
// game list plus the week structure, replacing whatever was saved before.
// Conflict statuses are saved as-is; a schedule with conflicts is a normal,
// persistable state.
func (s *Store) SaveGrid(ctx context.Context, seasonID string, grid *schedule.Grid) error {
	flat := grid.FlattenGames()
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM season_games WHERE season_id = ?`, seasonID); err != nil {
			return fmt.Errorf("clear season games: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM season_weeks WHERE season_id = ?`, seasonID); err != nil {
			return fmt.Errorf("clear season weeks: %w", err)
		}

		for _, game := range flat {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO season_games
				 (id, season_id, week_number, game_date, home_team_id, away_team_id, slot_time, venue_name, status, conflict_reason)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				game.ID, seasonID, game.WeekNumber, game.Date.Format(dateLayout),
				teamID(game.HomeTeam), teamID(game.AwayTeam),
				slotTime(game.TimeSlot), venueName(game.Venue),
				string(game.Status), game.ConflictReason)
			if err != nil {
				return fmt.Errorf("insert game %s: %w", game.ID, err)
			}
		}

		for _, week := range grid.Weeks {
			var overrideDate any
			if week.OverrideDate != nil {
				overrideDate = week.OverrideDate.Format(dateLayout)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO season_weeks (season_id, week_number, bye, override_date)
				 VALUES (?, ?, ?, ?)`,
				seasonID, week.Number, week.Bye, overrideDate)
			if err != nil {
				return fmt.Errorf("insert week %d: %w", week.Number, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE seasons SET total_weeks = ? WHERE id = ?`,
			len(grid.Weeks), seasonID); err != nil {
			return fmt.Errorf("update season week count: %w", err)
		}
		return nil
	})
}

func teamID(team *schedule.Team) any {
	if team == nil {
		return nil
	}
	return team.ID
}

func slotTime(slot *schedule.TimeSlot) any {
	if slot == nil {
		return nil
	}
	return slot.Time
}

func venueName(venue *schedule.Venue) any {
	if venue == nil {
		return nil
	}
	return venue.Name
}
