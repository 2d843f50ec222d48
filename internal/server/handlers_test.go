package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/protocol"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/results"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/rooms"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/session"
	"github.com/ayuko3939/ft-transcendence-sub000/internal/tournament"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	roomStore := rooms.NewStore(game.DefaultSettings())
	bus := tournament.NewBus()
	manager := tournament.NewManager(tournament.NewMemoryStore(), bus)

	srv := &Server{
		Rooms:       roomStore,
		Tournaments: manager,
		Lobby:       NewBroadcaster(bus),
	}
	recorder := results.NewRecorder(nil, manager)
	srv.Coordinator = session.New(roomStore, recorder, manager, nil, 3, 16)

	ts := httptest.NewServer(srv.RegisterRoutes())
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestCreateTournament(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/tournaments", map[string]any{
		"name":            "Friday Cup",
		"maxParticipants": 4,
		"creatorId":       "alice",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created tournament.Tournament
	decodeBody(t, resp, &created)
	if created.Name != "Friday Cup" {
		t.Errorf("name = %q, want %q", created.Name, "Friday Cup")
	}
	if created.Status != tournament.StatusWaiting {
		t.Errorf("status = %q, want %q", created.Status, tournament.StatusWaiting)
	}
}

func TestCreateTournament_MissingName(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/tournaments", map[string]any{
		"maxParticipants": 4,
		"creatorId":       "alice",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestTournamentLifecycleOverREST(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/tournaments", map[string]any{
		"name":            "Bracket",
		"maxParticipants": 4,
		"creatorId":       "alice",
	})
	var created tournament.Tournament
	decodeBody(t, resp, &created)

	resp = postJSON(t, ts.URL+"/tournaments/"+created.ID+"/join", map[string]any{"userId": "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/tournaments/"+created.ID+"/start", map[string]any{"userId": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/tournaments/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	var view tournament.View
	decodeBody(t, resp, &view)

	if view.Tournament.Status != tournament.StatusInProgress {
		t.Errorf("status = %q, want %q", view.Tournament.Status, tournament.StatusInProgress)
	}
	if len(view.Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(view.Participants))
	}
	if len(view.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(view.Matches))
	}

	resp, err = http.Get(ts.URL + "/tournaments/" + created.ID + "/matches/" + view.Matches[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	var match tournament.Match
	decodeBody(t, resp, &match)
	if match.Round != 1 {
		t.Errorf("round = %d, want 1", match.Round)
	}
}

func TestJoinTournament_NotFound(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/tournaments/no-such-id/join", map[string]any{"userId": "bob"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestStartTournament_NotCreator(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/tournaments", map[string]any{
		"name":            "Bracket",
		"maxParticipants": 4,
		"creatorId":       "alice",
	})
	var created tournament.Tournament
	decodeBody(t, resp, &created)

	resp = postJSON(t, ts.URL+"/tournaments/"+created.ID+"/join", map[string]any{"userId": "bob"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/tournaments/"+created.ID+"/start", map[string]any{"userId": "bob"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestPlayerStats_WithoutDatabase(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/players/someone/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func wsURL(base, path string) string {
	return "ws" + strings.TrimPrefix(base, "http") + path
}

func TestLocalWebSocketReceivesInit(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.URL, "/ws/local"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != protocol.MsgInit {
		t.Errorf("first message type = %q, want %q", msg.Type, protocol.MsgInit)
	}
	if msg.Side != game.SideLeft {
		t.Errorf("side = %q, want %q", msg.Side, game.SideLeft)
	}
}

func TestDirectJoin_InvalidRoomID(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.URL, "/ws/not-a-code"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected close, got a frame")
	}
	if got := websocket.CloseStatus(err); got != websocket.StatusCode(protocol.CloseInvalidRoom) {
		t.Errorf("close status = %d, want %d", got, protocol.CloseInvalidRoom)
	}
}

func TestTournamentWebSocket_UnknownMatch(t *testing.T) {
	_, ts := newTestServer(t)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.URL, "/ws/tournament/no-such-match"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected close, got a frame")
	}
	if got := websocket.CloseStatus(err); got != websocket.StatusCode(protocol.CloseInvalidRoom) {
		t.Errorf("close status = %d, want %d", got, protocol.CloseInvalidRoom)
	}
}
