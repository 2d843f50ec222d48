package db

import (
	"fmt"
	"time"
)

type GameRecord struct {
	ID           string
	GameType     string
	BallSpeed    int
	WinningScore int
	EndReason    string
	StartedAt    time.Time
	EndedAt      *time.Time
}

func (d *DB) CreateGame(gameType string, ballSpeed, winningScore int) (string, error) {
	var id string
	err := d.conn.QueryRow(`
		INSERT INTO games (game_type, ball_speed, winning_score)
		VALUES ($1, $2, $3)
		RETURNING id
	`, gameType, ballSpeed, winningScore).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("creating game: %w", err)
	}
	return id, nil
}

func (d *DB) EndGame(gameID, endReason string) error {
	_, err := d.conn.Exec(`
		UPDATE games SET ended_at = now(), end_reason = $2 WHERE id = $1
	`, gameID, endReason)
	if err != nil {
		return fmt.Errorf("ending game: %w", err)
	}
	return nil
}

func (d *DB) AddGameResult(gameID, userID, side string, score int, result string) error {
	_, err := d.conn.Exec(`
		INSERT INTO game_results (game_id, user_id, side, score, result)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, user_id) DO UPDATE SET score = $4, result = $5
	`, gameID, userID, side, score, result)
	if err != nil {
		return fmt.Errorf("adding game result: %w", err)
	}
	return nil
}
