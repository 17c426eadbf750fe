package schedule

// Stats summarizes schedule completion for progress reporting.
type Stats struct {
	TotalGames      int `json:"totalGames"`
	CompleteGames   int `json:"completeGames"`
	IncompleteGames int `json:"incompleteGames"`
	ConflictGames   int `json:"conflictGames"`
	ByeWeeks        int `json:"byeWeeks"`
}

// TeamStats counts one team's scheduled games and rest weeks.
type TeamStats struct {
	Games int `json:"games"`
	Byes  int `json:"byes"`
}

// ComputeStats classifies every non-bye game by status in one pass over the
// grid.
func ComputeStats(weeks []WeekData) Stats {
	var stats Stats
	for _, week := range weeks {
		if week.Bye {
			stats.ByeWeeks++
			continue
		}
		for _, game := range week.Games {
			stats.TotalGames++
			switch game.Status {
			case StatusComplete:
				stats.CompleteGames++
			case StatusConflict:
				stats.ConflictGames++
			default:
				stats.IncompleteGames++
			}
		}
	}
	return stats
}

// ComputeTeamStats derives per-team games-played and bye counts. A team is
// resting in a bye week, and also in any ordinary week where it appears in
// no game.
func ComputeTeamStats(weeks []WeekData, teams []Team) map[string]TeamStats {
	stats := make(map[string]TeamStats, len(teams))
	for _, team := range teams {
		stats[team.ID] = TeamStats{}
	}

	for _, week := range weeks {
		if week.Bye {
			for _, team := range teams {
				entry := stats[team.ID]
				entry.Byes++
				stats[team.ID] = entry
			}
			continue
		}

		playing := make(map[string]int)
		for _, game := range week.Games {
			if game.HomeTeam != nil {
				playing[game.HomeTeam.ID]++
			}
			if game.AwayTeam != nil {
				playing[game.AwayTeam.ID]++
			}
		}
		for _, team := range teams {
			entry := stats[team.ID]
			if count, ok := playing[team.ID]; ok {
				entry.Games += count
			} else {
				entry.Byes++
			}
			stats[team.ID] = entry
		}
	}
	return stats
}
