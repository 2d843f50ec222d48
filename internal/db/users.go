package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrSessionNotFound = errors.New("session not found or expired")

func (d *DB) UpsertUser(id, name string) error {
	_, err := d.conn.Exec(`
		INSERT INTO users (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = $2
	`, id, name)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

func (d *DB) UserExists(id string) (bool, error) {
	var exists bool
	err := d.conn.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return exists, nil
}

// ResolveSession maps a session token to its user id. Expired sessions do
// not resolve.
func (d *DB) ResolveSession(token string) (string, error) {
	var userID string
	err := d.conn.QueryRow(`
		SELECT user_id FROM sessions
		WHERE token = $1 AND expires_at > now()
	`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return userID, nil
}

func (d *DB) CreateSession(token, userID string, expiresAt time.Time) error {
	_, err := d.conn.Exec(`
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}
