package rooms

import (
	"fmt"
	"sync"
	"time"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
)

const staleTTL = 1 * time.Hour

// Store is the registry of live rooms. Matchmaking inserts, disconnect
// cleanup deletes; both go through the store mutex.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	defaults game.Settings
}

func NewStore(defaults game.Settings) *Store {
	s := &Store{
		rooms:    make(map[string]*Room),
		defaults: defaults,
	}
	go s.sweepStale()
	return s
}

func (s *Store) newRoom(id string, gameType game.Type) *Room {
	return &Room{
		ID:        id,
		GameType:  gameType,
		CreatedAt: time.Now(),
		Players:   make(map[game.Side]PlayerSink),
		UserIDs:   make(map[game.Side]string),
		State:     game.NewState(s.defaults, gameType),
		Settings:  s.defaults,
	}
}

// FindAvailable returns an online room with an open side still waiting for
// its match to start, creating a fresh one when none exists.
func (s *Store) FindAvailable() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		if room.GameType != game.TypeOnline {
			continue
		}
		room.Mu.Lock()
		_, open := room.OpenSideLocked()
		joinable := open && room.State.Status != game.StatusFinished
		room.Mu.Unlock()
		if joinable {
			return room, nil
		}
	}

	// Try up to 10 times to generate a unique code
	for i := 0; i < 10; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}
		room := s.newRoom(code, game.TypeOnline)
		s.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

// GetOrCreate is an idempotent lookup-or-create keyed by an explicit id,
// used for direct joins and local games.
func (s *Store) GetOrCreate(id string, gameType game.Type) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, exists := s.rooms[id]; exists {
		return room
	}
	room := s.newRoom(id, gameType)
	s.rooms[id] = room
	return room
}

// CreateTournamentRoom returns the room executing a tournament match,
// creating it on the first participant's arrival. Tournament rooms skip
// settings negotiation, so the left side counts as ready from the start.
func (s *Store) CreateTournamentRoom(tournamentID, matchID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, exists := s.rooms[matchID]; exists {
		return room
	}
	room := s.newRoom(matchID, game.TypeTournament)
	room.TournamentID = tournamentID
	room.TournamentMatchID = matchID
	room.LeftPlayerReady = true
	s.rooms[matchID] = room
	return room
}

func (s *Store) Get(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for id, room := range s.rooms {
			room.Mu.Lock()
			stale := room.EmptyLocked() && now.Sub(room.CreatedAt) > staleTTL
			if stale {
				room.StopCountdownLocked()
				room.StopTickLocked()
			}
			room.Mu.Unlock()
			if stale {
				delete(s.rooms, id)
			}
		}
		s.mu.Unlock()
	}
}
