package tournament

import (
	"context"
	"sync"
)

// MemoryStore keeps tournament state in process memory. Values are copied
// on the way in and out so callers can mutate their structs freely.
type MemoryStore struct {
	mu           sync.Mutex
	tournaments  map[string]Tournament
	participants map[string]Participant
	matches      map[string]Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments:  make(map[string]Tournament),
		participants: make(map[string]Participant),
		matches:      make(map[string]Match),
	}
}

func (s *MemoryStore) CreateTournament(ctx context.Context, t *Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTournament(ctx context.Context, id string) (*Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ListTournaments(ctx context.Context, status Status) ([]*Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		if status != "" && t.Status != status {
			continue
		}
		t := t
		list = append(list, &t)
	}
	return list, nil
}

func (s *MemoryStore) UpdateTournament(ctx context.Context, t *Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tournaments[t.ID]; !ok {
		return ErrNotFound
	}
	s.tournaments[t.ID] = *t
	return nil
}

func (s *MemoryStore) AddParticipant(ctx context.Context, p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListParticipants(ctx context.Context, tournamentID string) ([]*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*Participant
	for _, p := range s.participants {
		if p.TournamentID == tournamentID {
			p := p
			list = append(list, &p)
		}
	}
	return list, nil
}

func (s *MemoryStore) UpdateParticipant(ctx context.Context, p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; !ok {
		return ErrNotFound
	}
	s.participants[p.ID] = *p
	return nil
}

func (s *MemoryStore) AddMatches(ctx context.Context, matches []*Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range matches {
		s.matches[m.ID] = *m
	}
	return nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, tournamentID string) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*Match
	for _, m := range s.matches {
		if m.TournamentID == tournamentID {
			m := m
			list = append(list, &m)
		}
	}
	return list, nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, id string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) UpdateMatch(ctx context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; !ok {
		return ErrNotFound
	}
	s.matches[m.ID] = *m
	return nil
}
