// Package stats serves per-player match statistics from the persisted
// game results.
package stats

import (
	"fmt"
	"time"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/db"
)

type PlayerStats struct {
	UserID      string  `json:"userId"`
	Name        string  `json:"name"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinStreak   int     `json:"winStreak"`
	WinRate     float64 `json:"winRate"`
}

type GameSummary struct {
	GameID   string    `json:"gameId"`
	GameType string    `json:"gameType"`
	Side     string    `json:"side"`
	Score    int       `json:"score"`
	Result   string    `json:"result"`
	EndedAt  time.Time `json:"endedAt"`
}

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetPlayerStats(userID string) (*PlayerStats, error) {
	stats := &PlayerStats{UserID: userID}

	err := q.DB.QueryRow(`SELECT name FROM users WHERE id = $1`, userID).
		Scan(&stats.Name)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT
			COUNT(*) as games_played,
			COUNT(*) FILTER (WHERE result = 'win') as wins,
			COUNT(*) FILTER (WHERE result = 'lose') as losses
		FROM game_results
		WHERE user_id = $1
	`, userID).Scan(&stats.GamesPlayed, &stats.Wins, &stats.Losses)
	if err != nil {
		return nil, fmt.Errorf("getting results: %w", err)
	}

	// Win streak: most recent consecutive wins.
	rows, err := q.DB.Query(`
		SELECT gr.result
		FROM game_results gr
		JOIN games g ON g.id = gr.game_id
		WHERE gr.user_id = $1 AND g.ended_at IS NOT NULL
		ORDER BY g.ended_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting win streak: %w", err)
	}
	defer rows.Close()

	streak := 0
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return nil, err
		}
		if result != "win" {
			break
		}
		streak++
	}
	stats.WinStreak = streak

	if stats.GamesPlayed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.GamesPlayed) * 100
	}
	return stats, nil
}

func (q *Queries) GetRecentGames(userID string, limit int) ([]GameSummary, error) {
	rows, err := q.DB.Query(`
		SELECT g.id, g.game_type, gr.side, gr.score, gr.result, g.ended_at
		FROM game_results gr
		JOIN games g ON g.id = gr.game_id
		WHERE gr.user_id = $1 AND g.ended_at IS NOT NULL
		ORDER BY g.ended_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent games: %w", err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.GameID, &g.GameType, &g.Side, &g.Score, &g.Result, &g.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
