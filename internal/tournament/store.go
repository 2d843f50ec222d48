package tournament

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tournament: not found")

// Store is the persistence boundary for tournament state. The postgres
// implementation is the source of truth in production; the memory
// implementation backs database-less runs and tests.
type Store interface {
	CreateTournament(ctx context.Context, t *Tournament) error
	GetTournament(ctx context.Context, id string) (*Tournament, error)
	ListTournaments(ctx context.Context, status Status) ([]*Tournament, error)
	UpdateTournament(ctx context.Context, t *Tournament) error

	AddParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, tournamentID string) ([]*Participant, error)
	UpdateParticipant(ctx context.Context, p *Participant) error

	AddMatches(ctx context.Context, matches []*Match) error
	ListMatches(ctx context.Context, tournamentID string) ([]*Match, error)
	GetMatch(ctx context.Context, id string) (*Match, error)
	UpdateMatch(ctx context.Context, m *Match) error
}
