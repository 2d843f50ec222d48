package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/protocol"
)

// PlayerSink is the capability a room holds for each connected player.
// Concrete transport adapters implement it; tests substitute fakes.
type PlayerSink interface {
	// Send queues one frame for delivery. It must not block on a slow peer.
	Send(data []byte) error
	// Close terminates the connection with a close code and reason.
	Close(code int, reason string)
}

// Room is the unit of isolation: the live state and timers for one ongoing
// or pending match. All mutable fields are guarded by Mu; the coordinator
// and the room's own timer callbacks are the only writers.
type Room struct {
	ID        string
	GameType  game.Type
	CreatedAt time.Time

	// Set only on rooms executing a tournament match.
	TournamentID      string
	TournamentMatchID string

	Mu              sync.Mutex
	Players         map[game.Side]PlayerSink
	UserIDs         map[game.Side]string
	State           *game.State
	Chats           []protocol.ChatEntry
	Settings        game.Settings
	LeftPlayerReady bool

	CancelCountdown context.CancelFunc
	CancelTick      context.CancelFunc
}

// OpenSideLocked returns the first unoccupied side, or false when the room
// is full. Caller holds Mu.
func (r *Room) OpenSideLocked() (game.Side, bool) {
	if r.Players[game.SideLeft] == nil {
		return game.SideLeft, true
	}
	if r.Players[game.SideRight] == nil {
		return game.SideRight, true
	}
	return "", false
}

// EmptyLocked reports whether both player slots are vacant. Caller holds Mu.
func (r *Room) EmptyLocked() bool {
	return r.Players[game.SideLeft] == nil && r.Players[game.SideRight] == nil
}

// StopCountdownLocked cancels the countdown timer if one is running.
// Idempotent; caller holds Mu.
func (r *Room) StopCountdownLocked() {
	if r.CancelCountdown != nil {
		r.CancelCountdown()
		r.CancelCountdown = nil
	}
}

// StopTickLocked cancels the tick-loop timer if one is running.
// Idempotent; caller holds Mu.
func (r *Room) StopTickLocked() {
	if r.CancelTick != nil {
		r.CancelTick()
		r.CancelTick = nil
	}
}

// StopTimers cancels both timers. Safe to call on a stopped or never-started
// room.
func (r *Room) StopTimers() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.StopCountdownLocked()
	r.StopTickLocked()
}
