package session

import (
	"context"
	"log"
	"time"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/metrics"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/protocol"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
)

// startCountdownLocked arms the pre-match countdown. Caller holds the room
// lock; the countdown goroutine reacquires it for each announcement.
func (c *Coordinator) startCountdownLocked(room *rooms.Room) {
	room.StopCountdownLocked()
	room.State.Status = game.StatusCountdown

	ctx, cancel := context.WithCancel(context.Background())
	room.CancelCountdown = cancel

	start := c.marshalLocked(protocol.ServerMessage{Type: protocol.MsgGameStart, State: room.State})
	for _, s := range c.sinksLocked(room) {
		s.Send(start)
	}
	log.Printf("[Session] Countdown started in room %s", room.ID)

	go c.runCountdown(ctx, room)
}

// runCountdown announces the remaining seconds once per second, then hands
// the room to the tick loop. Cancelled when a player leaves mid-countdown.
func (c *Coordinator) runCountdown(ctx context.Context, room *rooms.Room) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining := c.countdownSecs; remaining > 0; remaining-- {
		room.Mu.Lock()
		if room.State.Status != game.StatusCountdown {
			room.Mu.Unlock()
			return
		}
		frame := c.marshalLocked(protocol.ServerMessage{Type: protocol.MsgCountdown, Count: remaining})
		sinks := c.sinksLocked(room)
		room.Mu.Unlock()

		for _, s := range sinks {
			s.Send(frame)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	c.beginPlay(ctx, room)
}

// beginPlay flips the room into play and starts the tick loop.
func (c *Coordinator) beginPlay(ctx context.Context, room *rooms.Room) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if ctx.Err() != nil || room.State.Status != game.StatusCountdown {
		return
	}
	room.StopCountdownLocked()
	game.ResetBall(room.State, float64(room.Settings.BallSpeed))
	room.State.Status = game.StatusPlaying
	c.startTickLocked(room)
	log.Printf("[Session] Match started in room %s", room.ID)
}

// startTickLocked arms the simulation loop. Caller holds the room lock.
func (c *Coordinator) startTickLocked(room *rooms.Room) {
	room.StopTickLocked()
	ctx, cancel := context.WithCancel(context.Background())
	room.CancelTick = cancel
	go c.runTicks(ctx, room)
}

// runTicks advances the simulation on a fixed interval, broadcasting the
// state after every step. The loop ends when the state reaches finished or
// the timer is cancelled.
func (c *Coordinator) runTicks(ctx context.Context, room *rooms.Room) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		room.Mu.Lock()
		if room.State.Status != game.StatusPlaying {
			room.Mu.Unlock()
			return
		}
		game.Advance(room.State, float64(room.Settings.BallSpeed))
		metrics.PhysicsTicks.Inc()

		if room.State.Status == game.StatusFinished {
			out := c.finishLocked(room, room.State.Winner, protocol.ReasonCompleted, false)
			room.Mu.Unlock()
			c.deliverFinish(out)
			return
		}

		frame := c.marshalLocked(protocol.ServerMessage{Type: protocol.MsgGameState, State: room.State})
		sinks := c.sinksLocked(room)
		room.Mu.Unlock()

		for _, s := range sinks {
			s.Send(frame)
		}
	}
}
