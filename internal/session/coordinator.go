// Package session binds player connections to rooms, dispatches protocol
// messages, and owns each room's countdown and tick-loop timers. All
// mutation of a room happens under that room's lock; handlers never block
// on I/O while holding it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/metrics"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/protocol"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/results"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
)

// TokenResolver maps a session token to a user id. A nil resolver accepts
// the token itself as the user id.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// MatchDirectory is the slice of the tournament manager the coordinator
// needs: who plays a match, and marking it live.
type MatchDirectory interface {
	MatchPlayers(ctx context.Context, matchID string) (string, string, error)
	MarkMatchInProgress(ctx context.Context, matchID string) error
}

// ResultRecorder receives finished-match snapshots. Implementations must
// swallow their own failures.
type ResultRecorder interface {
	SaveGameResult(ctx context.Context, res results.GameResult)
}

type Coordinator struct {
	rooms    *rooms.Store
	recorder ResultRecorder // nil disables persistence
	matches  MatchDirectory // nil disables tournament rooms
	resolver TokenResolver

	countdownSecs int
	tickInterval  time.Duration
}

func New(store *rooms.Store, recorder ResultRecorder, matches MatchDirectory, resolver TokenResolver, countdownSecs, tickIntervalMs int) *Coordinator {
	return &Coordinator{
		rooms:         store,
		recorder:      recorder,
		matches:       matches,
		resolver:      resolver,
		countdownSecs: countdownSecs,
		tickInterval:  time.Duration(tickIntervalMs) * time.Millisecond,
	}
}

// Player is one connection's binding to a room. Tournament connections stay
// unbound until their auth message is accepted.
type Player struct {
	Room   *rooms.Room
	Sink   rooms.PlayerSink
	Side   game.Side
	UserID string
	bound  bool
}

var ErrRoomFull = errors.New("room is full")

// Attach assigns the connection to the room's first open side. Tournament
// rooms defer the side assignment to auth so an unauthorized connection
// never occupies a slot.
func (c *Coordinator) Attach(room *rooms.Room, sink rooms.PlayerSink) (*Player, error) {
	room.Mu.Lock()

	if room.GameType == game.TypeTournament {
		_, open := room.OpenSideLocked()
		room.Mu.Unlock()
		if !open {
			sink.Close(protocol.CloseRoomFull, "room full")
			return nil, ErrRoomFull
		}
		return &Player{Room: room, Sink: sink}, nil
	}

	side, open := room.OpenSideLocked()
	if !open {
		room.Mu.Unlock()
		sink.Close(protocol.CloseRoomFull, "room full")
		return nil, ErrRoomFull
	}
	room.Players[side] = sink
	p := &Player{Room: room, Sink: sink, Side: side, bound: true}
	init := c.marshalLocked(protocol.ServerMessage{
		Type:   protocol.MsgInit,
		Side:   side,
		RoomID: room.ID,
		State:  room.State,
	})
	room.Mu.Unlock()

	sink.Send(init)
	log.Printf("[Session] Connection joined room %s as %s", room.ID, side)
	return p, nil
}

// HandleMessage dispatches one inbound frame. Malformed payloads and
// unknown types are logged and ignored; a bad message never tears down the
// connection or the room.
func (c *Coordinator) HandleMessage(ctx context.Context, p *Player, data []byte) {
	var msg protocol.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[Session] Malformed message in room %s: %v", p.Room.ID, err)
		return
	}
	metrics.MessagesReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case protocol.MsgAuth:
		c.handleAuth(ctx, p, msg)
	case protocol.MsgGameSettings:
		c.handleSettings(p, msg)
	case protocol.MsgPaddleMove:
		c.handlePaddleMove(p, msg)
	case protocol.MsgChat:
		c.handleChat(p, msg)
	case protocol.MsgSurrender:
		c.handleSurrender(ctx, p)
	default:
		log.Printf("[Session] Unknown message type %q in room %s", msg.Type, p.Room.ID)
	}
}

func (c *Coordinator) resolveToken(ctx context.Context, token string) (string, error) {
	if c.resolver == nil {
		if token == "" {
			return "", errors.New("empty session token")
		}
		return token, nil
	}
	return c.resolver.Resolve(ctx, token)
}

func (c *Coordinator) handleAuth(ctx context.Context, p *Player, msg protocol.ClientMessage) {
	room := p.Room

	userID, err := c.resolveToken(ctx, msg.SessionToken)
	if err != nil {
		if room.GameType == game.TypeTournament {
			p.Sink.Close(protocol.CloseUnauthorized, "invalid session")
		} else {
			log.Printf("[Session] Auth failed in room %s: %v", room.ID, err)
		}
		return
	}

	if room.GameType == game.TypeTournament {
		c.handleTournamentAuth(ctx, p, userID)
		return
	}

	room.Mu.Lock()
	if !p.bound {
		room.Mu.Unlock()
		return
	}
	p.UserID = userID
	room.UserIDs[p.Side] = userID
	if p.Side == game.SideLeft {
		if room.State.Status == game.StatusConnecting {
			room.State.Status = game.StatusSetup
		}
	} else {
		if room.State.Status == game.StatusConnecting || room.State.Status == game.StatusSetup {
			room.State.Status = game.StatusWaiting
		}
		c.tryStartLocked(room)
	}
	room.Mu.Unlock()
}

// handleTournamentAuth binds the connection to a side only when the user is
// one of the match's two registered players and is not already connected.
func (c *Coordinator) handleTournamentAuth(ctx context.Context, p *Player, userID string) {
	room := p.Room
	if c.matches == nil {
		p.Sink.Close(protocol.CloseUnauthorized, "tournaments unavailable")
		return
	}
	p1, p2, err := c.matches.MatchPlayers(ctx, room.TournamentMatchID)
	if err != nil {
		log.Printf("[Session] Match lookup failed for %s: %v", room.TournamentMatchID, err)
		p.Sink.Close(protocol.CloseUnauthorized, "unknown match")
		return
	}
	if userID != p1 && userID != p2 {
		p.Sink.Close(protocol.CloseUnauthorized, "not a player of this match")
		return
	}

	room.Mu.Lock()
	for _, uid := range room.UserIDs {
		if uid == userID {
			room.Mu.Unlock()
			p.Sink.Close(protocol.CloseUnauthorized, "already connected")
			return
		}
	}
	side, open := room.OpenSideLocked()
	if !open {
		room.Mu.Unlock()
		p.Sink.Close(protocol.CloseRoomFull, "room full")
		return
	}
	room.Players[side] = p.Sink
	room.UserIDs[side] = userID
	p.Side = side
	p.UserID = userID
	p.bound = true
	if room.State.Status == game.StatusConnecting {
		room.State.Status = game.StatusWaiting
	}
	init := c.marshalLocked(protocol.ServerMessage{
		Type:   protocol.MsgInit,
		Side:   side,
		RoomID: room.ID,
		State:  room.State,
	})
	c.tryStartLocked(room)
	room.Mu.Unlock()

	p.Sink.Send(init)
	log.Printf("[Session] %s joined tournament match %s as %s", userID, room.TournamentMatchID, side)
}

// handleSettings stores the left player's match settings and re-checks the
// start condition. Tournament rooms negotiate nothing.
func (c *Coordinator) handleSettings(p *Player, msg protocol.ClientMessage) {
	room := p.Room
	if !p.bound || p.Side != game.SideLeft || room.GameType == game.TypeTournament {
		log.Printf("[Session] Ignoring gameSettings from %s in room %s", p.Side, room.ID)
		return
	}
	if msg.BallSpeed <= 0 || msg.WinningScore <= 0 {
		log.Printf("[Session] Ignoring invalid gameSettings in room %s", room.ID)
		return
	}

	room.Mu.Lock()
	room.Settings = game.Settings{BallSpeed: msg.BallSpeed, WinningScore: msg.WinningScore}
	room.State.WinningScore = msg.WinningScore
	game.ResetBall(room.State, float64(msg.BallSpeed))
	room.LeftPlayerReady = true
	c.tryStartLocked(room)
	room.Mu.Unlock()
}

// handlePaddleMove updates the sender's paddle and forwards the state to
// the opponent only. The server trusts the client's clamping.
func (c *Coordinator) handlePaddleMove(p *Player, msg protocol.ClientMessage) {
	room := p.Room
	if !p.bound {
		return
	}

	side := p.Side
	if room.GameType == game.TypeLocal && msg.PlayerSide != "" {
		switch game.Side(msg.PlayerSide) {
		case game.SideLeft, game.SideRight:
			side = game.Side(msg.PlayerSide)
		}
	}

	room.Mu.Lock()
	if side == game.SideLeft {
		room.State.PaddleLeft.Y = msg.Y
	} else {
		room.State.PaddleRight.Y = msg.Y
	}
	frame := c.marshalLocked(protocol.ServerMessage{Type: protocol.MsgGameState, State: room.State})
	opponent := room.Players[side.Opponent()]
	room.Mu.Unlock()

	if opponent != nil && opponent != p.Sink {
		opponent.Send(frame)
	}
}

func (c *Coordinator) handleChat(p *Player, msg protocol.ClientMessage) {
	room := p.Room
	room.Mu.Lock()
	room.Chats = append(room.Chats, protocol.ChatEntry{Name: msg.Name, Message: msg.Message})
	frame := c.marshalLocked(protocol.ServerMessage{Type: protocol.MsgChatUpdate, Messages: room.Chats})
	sinks := c.sinksLocked(room)
	room.Mu.Unlock()

	for _, s := range sinks {
		s.Send(frame)
	}
}

// handleSurrender declares the sender's opponent winner. A surrender
// outside play is a no-op.
func (c *Coordinator) handleSurrender(ctx context.Context, p *Player) {
	room := p.Room
	if !p.bound {
		return
	}

	room.Mu.Lock()
	if room.State.Status != game.StatusPlaying {
		room.Mu.Unlock()
		return
	}
	out := c.finishLocked(room, p.Side.Opponent(), protocol.ReasonSurrender, true)
	room.Mu.Unlock()

	c.deliverFinish(out)
}

// HandleClose handles a connection going away: the side is vacated, an
// in-flight match is decided for the remaining player, and an empty room is
// evicted from the registry.
func (c *Coordinator) HandleClose(ctx context.Context, p *Player) {
	room := p.Room

	room.Mu.Lock()
	wasPlaying := room.State.Status == game.StatusPlaying

	var out finishOutcome
	if p.bound && wasPlaying {
		out = c.finishLocked(room, p.Side.Opponent(), protocol.ReasonDisconnected, true)
	}
	if p.bound {
		delete(room.Players, p.Side)
		delete(room.UserIDs, p.Side)
		if room.State.Status == game.StatusCountdown {
			room.StopCountdownLocked()
			room.State.Status = game.StatusWaiting
		}
	}
	empty := room.EmptyLocked()
	if empty {
		room.StopTickLocked()
	}
	room.Mu.Unlock()

	if wasPlaying && p.bound {
		c.deliverFinish(out)
	}
	if empty {
		c.rooms.Delete(room.ID)
		room.StopTimers()
		metrics.ActiveRooms.Set(float64(len(c.rooms.List())))
		log.Printf("[Session] Room %s removed", room.ID)
	}
}

// tryStartLocked moves the room into countdown once its start condition
// holds. Caller holds the room lock.
func (c *Coordinator) tryStartLocked(room *rooms.Room) {
	switch room.State.Status {
	case game.StatusCountdown, game.StatusPlaying, game.StatusFinished:
		return
	}

	ready := false
	switch room.GameType {
	case game.TypeLocal:
		ready = room.Players[game.SideLeft] != nil && room.LeftPlayerReady
	case game.TypeTournament:
		ready = room.Players[game.SideLeft] != nil && room.Players[game.SideRight] != nil &&
			room.UserIDs[game.SideLeft] != "" && room.UserIDs[game.SideRight] != ""
	default:
		ready = room.Players[game.SideLeft] != nil && room.Players[game.SideRight] != nil &&
			room.LeftPlayerReady
	}
	if !ready {
		return
	}

	c.startCountdownLocked(room)

	if room.GameType == game.TypeTournament && c.matches != nil {
		matchID := room.TournamentMatchID
		go func() {
			if err := c.matches.MarkMatchInProgress(context.Background(), matchID); err != nil {
				log.Printf("[Session] MarkMatchInProgress error for %s: %v", matchID, err)
			}
		}()
	}
}

// sinksLocked snapshots the connected sinks. Caller holds the room lock.
func (c *Coordinator) sinksLocked(room *rooms.Room) []rooms.PlayerSink {
	sinks := make([]rooms.PlayerSink, 0, 2)
	for _, s := range room.Players {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return sinks
}

// marshalLocked encodes an outbound message while the room lock guarantees
// a consistent state snapshot.
func (c *Coordinator) marshalLocked(msg protocol.ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Session] Marshal error: %v", err)
		return []byte(fmt.Sprintf(`{"type":%q}`, msg.Type))
	}
	return data
}

// finishOutcome carries everything a finish needs once the room lock is
// released: the per-side frames, where to send them, and what to record.
type finishOutcome struct {
	reason string
	frames map[game.Side][]byte
	sinks  map[game.Side]rooms.PlayerSink
	record *results.GameResult
}

// finishLocked finalizes a match: winner set, tick timer stopped, status
// finished. With forceScore the winner's score snaps to the winning score
// so surrender and disconnect read as a full win. Caller holds the room
// lock and delivers the outcome after releasing it.
func (c *Coordinator) finishLocked(room *rooms.Room, winner game.Side, reason string, forceScore bool) finishOutcome {
	if forceScore {
		if winner == game.SideLeft {
			room.State.Score.Left = room.Settings.WinningScore
		} else {
			room.State.Score.Right = room.Settings.WinningScore
		}
	}
	room.StopTickLocked()
	room.State.Status = game.StatusFinished
	room.State.Winner = winner

	result := protocol.GameOverResult{
		Winner:     winner,
		FinalScore: room.State.Score,
		Reason:     reason,
	}
	switch reason {
	case protocol.ReasonSurrender:
		result.Message = "Match ended by surrender"
	case protocol.ReasonDisconnected:
		result.Message = "Opponent left the game"
	}

	out := finishOutcome{
		reason: reason,
		frames: make(map[game.Side][]byte, 2),
		sinks:  make(map[game.Side]rooms.PlayerSink, 2),
	}
	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		if room.Players[side] == nil {
			continue
		}
		out.sinks[side] = room.Players[side]
		out.frames[side] = c.marshalLocked(protocol.ServerMessage{
			Type:           protocol.MsgGameOver,
			Result:         &result,
			OpponentUserID: room.UserIDs[side.Opponent()],
		})
	}

	if room.GameType != game.TypeLocal {
		out.record = &results.GameResult{
			LeftUserID:        room.UserIDs[game.SideLeft],
			RightUserID:       room.UserIDs[game.SideRight],
			Winner:            winner,
			Score:             room.State.Score,
			GameType:          room.GameType,
			BallSpeed:         room.Settings.BallSpeed,
			WinningScore:      room.Settings.WinningScore,
			EndReason:         reason,
			TournamentID:      room.TournamentID,
			TournamentMatchID: room.TournamentMatchID,
		}
	}
	return out
}

// deliverFinish pushes the gameOver frames and hands the result to the
// recorder off the caller's goroutine.
func (c *Coordinator) deliverFinish(out finishOutcome) {
	for side, sink := range out.sinks {
		sink.Send(out.frames[side])
	}
	metrics.GamesFinished.WithLabelValues(out.reason).Inc()
	if out.record != nil && c.recorder != nil {
		record := *out.record
		go c.recorder.SaveGameResult(context.Background(), record)
	}
}
