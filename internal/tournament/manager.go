package tournament

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Domain validation failures surfaced to the REST layer as rejected
// operations. None of them leaves partial state behind.
var (
	ErrNotWaiting         = errors.New("tournament is not accepting participants")
	ErrAlreadyJoined      = errors.New("user is already a participant")
	ErrFull               = errors.New("tournament is full")
	ErrNotCreator         = errors.New("only the creator can start the tournament")
	ErrTooFewParticipants = errors.New("at least 2 participants are required")
	ErrMatchCompleted     = errors.New("match result already recorded")
	ErrInvalidWinner      = errors.New("winner is not a player of this match")
)

// Manager owns the tournament bracket state machine: creation, joining,
// round generation, result processing and champion declaration. Round
// advancement is serialized per tournament so concurrent result reports
// cannot double-advance a bracket.
type Manager struct {
	store Store
	bus   *Bus

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, bus *Bus) *Manager {
	return &Manager{
		store: store,
		bus:   bus,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(tournamentID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[tournamentID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[tournamentID] = l
	}
	return l
}

// Create opens a new tournament in the waiting state and enrolls the
// creator as its first participant.
func (m *Manager) Create(ctx context.Context, name string, maxParticipants int, creatorID string) (*Tournament, error) {
	if name == "" {
		return nil, errors.New("tournament name is required")
	}
	if maxParticipants < 2 {
		return nil, ErrTooFewParticipants
	}

	now := time.Now()
	t := &Tournament{
		ID:              uuid.New().String(),
		Name:            name,
		CreatorID:       creatorID,
		Status:          StatusWaiting,
		MaxParticipants: maxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.store.CreateTournament(ctx, t); err != nil {
		return nil, fmt.Errorf("creating tournament: %w", err)
	}
	if _, err := m.enroll(ctx, t.ID, creatorID); err != nil {
		return nil, fmt.Errorf("enrolling creator: %w", err)
	}
	m.publish(t.ID)
	return t, nil
}

// Join adds a user to a waiting tournament.
func (m *Manager) Join(ctx context.Context, tournamentID, userID string) (*Participant, error) {
	l := m.lockFor(tournamentID)
	l.Lock()
	defer l.Unlock()

	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusWaiting {
		return nil, ErrNotWaiting
	}

	participants, err := m.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	for _, p := range participants {
		if p.UserID == userID {
			return nil, ErrAlreadyJoined
		}
	}
	if len(participants) >= t.MaxParticipants {
		return nil, ErrFull
	}

	p, err := m.enroll(ctx, tournamentID, userID)
	if err != nil {
		return nil, err
	}
	m.publish(tournamentID)
	return p, nil
}

func (m *Manager) enroll(ctx context.Context, tournamentID, userID string) (*Participant, error) {
	p := &Participant{
		ID:           uuid.New().String(),
		TournamentID: tournamentID,
		UserID:       userID,
		Status:       ParticipantActive,
		JoinedAt:     time.Now(),
	}
	if err := m.store.AddParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("adding participant: %w", err)
	}
	return p, nil
}

// Start moves a waiting tournament to in_progress and generates round 1.
// Only the creator may start, and only with at least two participants.
func (m *Manager) Start(ctx context.Context, tournamentID, callerID string) error {
	l := m.lockFor(tournamentID)
	l.Lock()
	defer l.Unlock()

	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.CreatorID != callerID {
		return ErrNotCreator
	}
	if t.Status != StatusWaiting {
		return ErrNotWaiting
	}

	participants, err := m.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	if len(participants) < 2 {
		return ErrTooFewParticipants
	}

	entrants := make([]string, 0, len(participants))
	for _, p := range participants {
		entrants = append(entrants, p.UserID)
	}

	t.Status = StatusInProgress
	t.CurrentRound = 1
	t.UpdatedAt = time.Now()
	if err := m.store.UpdateTournament(ctx, t); err != nil {
		return fmt.Errorf("updating tournament: %w", err)
	}
	if err := m.generateRound(ctx, t.ID, 1, entrants); err != nil {
		return err
	}

	log.Printf("[Tournament] %s started with %d participants", t.ID, len(participants))
	m.publish(tournamentID)
	return nil
}

// generateRound shuffles the entrants and pairs them consecutively into
// pending matches numbered from 1. An odd entrant out receives a bye: they
// stay active, appear in no match this round, and re-enter the next round's
// entrant set.
func (m *Manager) generateRound(ctx context.Context, tournamentID string, round int, entrants []string) error {
	shuffled := make([]string, len(entrants))
	copy(shuffled, entrants)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	matches := make([]*Match, 0, len(shuffled)/2)
	for i := 0; i+1 < len(shuffled); i += 2 {
		matches = append(matches, &Match{
			ID:           uuid.New().String(),
			TournamentID: tournamentID,
			Round:        round,
			MatchNumber:  i/2 + 1,
			Player1ID:    shuffled[i],
			Player2ID:    shuffled[i+1],
			Status:       MatchPending,
		})
	}
	if len(shuffled)%2 == 1 {
		log.Printf("[Tournament] %s round %d: %s receives a bye", tournamentID, round, shuffled[len(shuffled)-1])
	}
	if err := m.store.AddMatches(ctx, matches); err != nil {
		return fmt.Errorf("adding round %d matches: %w", round, err)
	}
	return nil
}

// MatchPlayers returns the two registered players of a match. Used by the
// session layer to authorize tournament connections.
func (m *Manager) MatchPlayers(ctx context.Context, matchID string) (string, string, error) {
	match, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return "", "", err
	}
	return match.Player1ID, match.Player2ID, nil
}

// MarkMatchInProgress records that a match's room went live. A completed
// match is left untouched.
func (m *Manager) MarkMatchInProgress(ctx context.Context, matchID string) error {
	match, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != MatchPending {
		return nil
	}
	match.Status = MatchInProgress
	if err := m.store.UpdateMatch(ctx, match); err != nil {
		return fmt.Errorf("updating match: %w", err)
	}
	m.publish(match.TournamentID)
	return nil
}

// ProcessMatchResult records a finished match, eliminates the loser and
// advances the bracket when the round is complete. Reporting a result for
// an already-completed match returns ErrMatchCompleted without touching
// state, which makes at-least-once delivery from the result recorder safe.
func (m *Manager) ProcessMatchResult(ctx context.Context, matchID, winnerID, gameID string) error {
	match, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	l := m.lockFor(match.TournamentID)
	l.Lock()
	defer l.Unlock()

	// Re-read under the tournament lock; a concurrent report may have won.
	match, err = m.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status == MatchCompleted {
		return ErrMatchCompleted
	}
	if winnerID != match.Player1ID && winnerID != match.Player2ID {
		return ErrInvalidWinner
	}

	match.Status = MatchCompleted
	match.WinnerID = winnerID
	match.GameID = gameID
	if err := m.store.UpdateMatch(ctx, match); err != nil {
		return fmt.Errorf("updating match: %w", err)
	}

	loserID := match.Player1ID
	if loserID == winnerID {
		loserID = match.Player2ID
	}
	if err := m.eliminate(ctx, match.TournamentID, loserID, match.Round); err != nil {
		return err
	}

	if err := m.advanceIfRoundDone(ctx, match.TournamentID); err != nil {
		return err
	}
	m.publish(match.TournamentID)
	return nil
}

func (m *Manager) eliminate(ctx context.Context, tournamentID, userID string, round int) error {
	participants, err := m.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	for _, p := range participants {
		if p.UserID != userID {
			continue
		}
		if p.Status != ParticipantActive {
			return nil
		}
		p.Status = ParticipantEliminated
		p.EliminatedRound = round
		if err := m.store.UpdateParticipant(ctx, p); err != nil {
			return fmt.Errorf("eliminating participant: %w", err)
		}
		return nil
	}
	return nil
}

// advanceIfRoundDone is a no-op while any match in the current round is
// undecided. Once all are completed, either the sole survivor becomes
// champion or the winners (plus any bye) form the next round.
func (m *Manager) advanceIfRoundDone(ctx context.Context, tournamentID string) error {
	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != StatusInProgress {
		return nil
	}

	matches, err := m.store.ListMatches(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("listing matches: %w", err)
	}
	inMatch := make(map[string]bool)
	var winners []string
	for _, match := range matches {
		if match.Round != t.CurrentRound {
			continue
		}
		if match.Status != MatchCompleted {
			return nil
		}
		inMatch[match.Player1ID] = true
		inMatch[match.Player2ID] = true
		winners = append(winners, match.WinnerID)
	}

	// A bye'd participant is still active but played no match this round.
	participants, err := m.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	for _, p := range participants {
		if p.Status == ParticipantActive && !inMatch[p.UserID] {
			winners = append(winners, p.UserID)
		}
	}

	if len(winners) == 1 {
		return m.declareChampion(ctx, t, participants, winners[0])
	}

	t.CurrentRound++
	t.UpdatedAt = time.Now()
	if err := m.store.UpdateTournament(ctx, t); err != nil {
		return fmt.Errorf("updating tournament: %w", err)
	}
	log.Printf("[Tournament] %s advancing to round %d with %d entrants", t.ID, t.CurrentRound, len(winners))
	return m.generateRound(ctx, t.ID, t.CurrentRound, winners)
}

func (m *Manager) declareChampion(ctx context.Context, t *Tournament, participants []*Participant, winnerID string) error {
	t.Status = StatusCompleted
	t.WinnerID = winnerID
	t.UpdatedAt = time.Now()
	if err := m.store.UpdateTournament(ctx, t); err != nil {
		return fmt.Errorf("completing tournament: %w", err)
	}
	for _, p := range participants {
		if p.UserID != winnerID {
			continue
		}
		p.Status = ParticipantWinner
		if err := m.store.UpdateParticipant(ctx, p); err != nil {
			return fmt.Errorf("marking winner: %w", err)
		}
	}
	log.Printf("[Tournament] %s completed, winner %s", t.ID, winnerID)
	return nil
}

// List returns tournaments filtered by status; an empty status lists all.
func (m *Manager) List(ctx context.Context, status Status) ([]*Tournament, error) {
	list, err := m.store.ListTournaments(ctx, status)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// GetView assembles the full tournament snapshot served to clients and
// pushed to lobby listeners.
func (m *Manager) GetView(ctx context.Context, tournamentID string) (*View, error) {
	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	participants, err := m.store.ListParticipants(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	matches, err := m.store.ListMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].MatchNumber < matches[j].MatchNumber
	})
	return &View{Tournament: t, Participants: participants, Matches: matches}, nil
}

// GetMatch returns one match by id.
func (m *Manager) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	return m.store.GetMatch(ctx, matchID)
}

func (m *Manager) publish(tournamentID string) {
	if m.bus == nil {
		return
	}
	select {
	case m.bus.Updates <- Update{TournamentID: tournamentID}:
	default:
		// Drop update if no listener is draining; lobby views poll anyway.
	}
}
