package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/tournament"
)

// Broadcaster fans tournament updates out to lobby SSE subscribers. Slow
// subscribers miss updates rather than stalling the fan-out.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan tournament.Update]bool
}

func NewBroadcaster(bus *tournament.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan tournament.Update]bool),
	}
	go func() {
		for update := range bus.Updates {
			b.Broadcast(update)
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan tournament.Update {
	ch := make(chan tournament.Update, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan tournament.Update) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(update tournament.Update) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- update:
		default:
			// skip clients with full data channels
		}
	}
}

// handleLobbyEvents streams tournament updates as server-sent events so
// lobby views can refresh without polling.
func (s *Server) handleLobbyEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msgChan := s.Lobby.Subscribe()
	defer s.Lobby.Unsubscribe(msgChan)

	for {
		select {
		case <-r.Context().Done():
			return
		case update := <-msgChan:
			data, err := json.Marshal(update)
			if err != nil {
				log.Printf("[SSE] Marshal error: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: tournamentUpdate\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
