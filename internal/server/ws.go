package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/metrics"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/protocol"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/session"
)

func (s *Server) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[WS] Accept error: %v", err)
		return nil, false
	}
	return conn, true
}

// handleMatchmaking pairs the connection with an open online room, or
// opens a fresh one to wait in.
func (s *Server) handleMatchmaking(w http.ResponseWriter, r *http.Request) {
	room, err := s.Rooms.FindAvailable()
	if err != nil {
		log.Printf("[WS] Matchmaking error: %v", err)
		http.Error(w, "failed to allocate a room", http.StatusInternalServerError)
		return
	}
	conn, ok := s.accept(w, r)
	if !ok {
		return
	}
	s.serveRoom(r, conn, room)
}

// handleDirectJoin connects to the room identified by a shared code.
func (s *Server) handleDirectJoin(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(mux.Vars(r)["roomId"])

	conn, ok := s.accept(w, r)
	if !ok {
		return
	}
	if !rooms.ValidCode(roomID) {
		conn.Close(websocket.StatusCode(protocol.CloseInvalidRoom), "invalid room id")
		return
	}
	room := s.Rooms.GetOrCreate(roomID, game.TypeOnline)
	s.serveRoom(r, conn, room)
}

// handleLocal opens a single-connection room where one client drives both
// paddles.
func (s *Server) handleLocal(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.accept(w, r)
	if !ok {
		return
	}
	room := s.Rooms.GetOrCreate("local-"+uuid.New().String(), game.TypeLocal)
	s.serveRoom(r, conn, room)
}

// handleTournamentMatch connects a participant to the room executing a
// scheduled tournament match.
func (s *Server) handleTournamentMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	conn, ok := s.accept(w, r)
	if !ok {
		return
	}
	match, err := s.Tournaments.GetMatch(r.Context(), matchID)
	if err != nil {
		conn.Close(websocket.StatusCode(protocol.CloseInvalidRoom), "unknown match")
		return
	}
	room := s.Rooms.CreateTournamentRoom(match.TournamentID, match.ID)
	s.serveRoom(r, conn, room)
}

// serveRoom runs the connection's read loop until the peer goes away, then
// releases its seat. Cleanup uses a fresh context: the request context is
// already dead by then.
func (s *Server) serveRoom(r *http.Request, conn *websocket.Conn, room *rooms.Room) {
	sink := session.NewWSSink(conn)
	player, err := s.Coordinator.Attach(room, sink)
	if err != nil {
		return
	}
	metrics.ActiveRooms.Set(float64(len(s.Rooms.List())))

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		s.Coordinator.HandleMessage(ctx, player, data)
	}

	s.Coordinator.HandleClose(context.Background(), player)
	sink.Close(int(websocket.StatusNormalClosure), "")
}
