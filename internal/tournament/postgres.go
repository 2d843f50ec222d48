package tournament

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/db"
)

// PostgresStore persists tournament state through the shared database
// handle. It is the production Store.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

func (s *PostgresStore) CreateTournament(ctx context.Context, t *Tournament) error {
	_, err := s.db.Exec(`
		INSERT INTO tournaments (id, name, creator_id, status, max_participants, current_round, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Name, t.CreatorID, string(t.Status), t.MaxParticipants, t.CurrentRound, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting tournament: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTournament(ctx context.Context, id string) (*Tournament, error) {
	row := s.db.QueryRow(`
		SELECT id, name, creator_id, status, max_participants, current_round, winner_id, created_at, updated_at
		FROM tournaments WHERE id = $1
	`, id)
	return scanTournament(row)
}

func (s *PostgresStore) ListTournaments(ctx context.Context, status Status) ([]*Tournament, error) {
	query := `
		SELECT id, name, creator_id, status, max_participants, current_round, winner_id, created_at, updated_at
		FROM tournaments`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	var list []*Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (s *PostgresStore) UpdateTournament(ctx context.Context, t *Tournament) error {
	_, err := s.db.Exec(`
		UPDATE tournaments
		SET status = $2, current_round = $3, winner_id = NULLIF($4, ''), updated_at = $5
		WHERE id = $1
	`, t.ID, string(t.Status), t.CurrentRound, t.WinnerID, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating tournament: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, p *Participant) error {
	_, err := s.db.Exec(`
		INSERT INTO tournament_participants (id, tournament_id, user_id, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.TournamentID, p.UserID, string(p.Status), p.JoinedAt)
	if err != nil {
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListParticipants(ctx context.Context, tournamentID string) ([]*Participant, error) {
	rows, err := s.db.Query(`
		SELECT id, tournament_id, user_id, status, eliminated_round, joined_at
		FROM tournament_participants WHERE tournament_id = $1
		ORDER BY joined_at
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var list []*Participant
	for rows.Next() {
		var p Participant
		var status string
		var eliminated sql.NullInt64
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &status, &eliminated, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		p.Status = ParticipantStatus(status)
		if eliminated.Valid {
			p.EliminatedRound = int(eliminated.Int64)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

func (s *PostgresStore) UpdateParticipant(ctx context.Context, p *Participant) error {
	_, err := s.db.Exec(`
		UPDATE tournament_participants
		SET status = $2, eliminated_round = NULLIF($3, 0)
		WHERE id = $1
	`, p.ID, string(p.Status), p.EliminatedRound)
	if err != nil {
		return fmt.Errorf("updating participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddMatches(ctx context.Context, matches []*Match) error {
	for _, m := range matches {
		_, err := s.db.Exec(`
			INSERT INTO tournament_matches (id, tournament_id, round, match_number, player1_id, player2_id, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, m.ID, m.TournamentID, m.Round, m.MatchNumber, m.Player1ID, m.Player2ID, string(m.Status))
		if err != nil {
			return fmt.Errorf("inserting match %d: %w", m.MatchNumber, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, tournamentID string) ([]*Match, error) {
	rows, err := s.db.Query(`
		SELECT id, tournament_id, round, match_number, player1_id, player2_id, winner_id, game_id, status
		FROM tournament_matches WHERE tournament_id = $1
		ORDER BY round, match_number
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var list []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*Match, error) {
	row := s.db.QueryRow(`
		SELECT id, tournament_id, round, match_number, player1_id, player2_id, winner_id, game_id, status
		FROM tournament_matches WHERE id = $1
	`, id)
	return scanMatch(row)
}

func (s *PostgresStore) UpdateMatch(ctx context.Context, m *Match) error {
	_, err := s.db.Exec(`
		UPDATE tournament_matches
		SET winner_id = NULLIF($2, ''), game_id = NULLIF($3, ''), status = $4
		WHERE id = $1
	`, m.ID, m.WinnerID, m.GameID, string(m.Status))
	if err != nil {
		return fmt.Errorf("updating match: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTournament(row scanner) (*Tournament, error) {
	var t Tournament
	var status string
	var winner sql.NullString
	err := row.Scan(&t.ID, &t.Name, &t.CreatorID, &status, &t.MaxParticipants, &t.CurrentRound, &winner, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning tournament: %w", err)
	}
	t.Status = Status(status)
	t.WinnerID = winner.String
	return &t, nil
}

func scanMatch(row scanner) (*Match, error) {
	var m Match
	var status string
	var winner, gameID sql.NullString
	err := row.Scan(&m.ID, &m.TournamentID, &m.Round, &m.MatchNumber, &m.Player1ID, &m.Player2ID, &winner, &gameID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning match: %w", err)
	}
	m.Status = MatchStatus(status)
	m.WinnerID = winner.String
	m.GameID = gameID.String
	return &m, nil
}
