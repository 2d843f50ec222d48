package rooms

import (
	"sync"
	"testing"

	"github.com/ayuko3939/ft-transcendence-sub000/internal/game"
)

type nullSink struct{}

func (nullSink) Send(data []byte) error      { return nil }
func (nullSink) Close(code int, reason string) {}

func TestNewStore(t *testing.T) {
	s := NewStore(game.DefaultSettings())
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if len(s.List()) != 0 {
		t.Error("new store should have no rooms")
	}
}

func TestStore_FindAvailable_CreatesRoom(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	room, err := s.FindAvailable()
	if err != nil {
		t.Fatal(err)
	}
	if room.ID == "" {
		t.Error("room id should not be empty")
	}
	if room.GameType != game.TypeOnline {
		t.Errorf("GameType = %q, want %q", room.GameType, game.TypeOnline)
	}
	if room.State == nil {
		t.Fatal("room state should not be nil")
	}
	if room.State.Status != game.StatusConnecting {
		t.Errorf("Status = %q, want %q", room.State.Status, game.StatusConnecting)
	}
}

func TestStore_FindAvailable_ReusesOpenRoom(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	first, _ := s.FindAvailable()
	first.Mu.Lock()
	first.Players[game.SideLeft] = nullSink{}
	first.Mu.Unlock()

	second, _ := s.FindAvailable()
	if second.ID != first.ID {
		t.Errorf("got room %q, want open room %q reused", second.ID, first.ID)
	}
}

func TestStore_FindAvailable_SkipsFullRoom(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	first, _ := s.FindAvailable()
	first.Mu.Lock()
	first.Players[game.SideLeft] = nullSink{}
	first.Players[game.SideRight] = nullSink{}
	first.Mu.Unlock()

	second, _ := s.FindAvailable()
	if second.ID == first.ID {
		t.Error("full room should not be matched again")
	}
}

func TestStore_FindAvailable_SkipsFinishedRoom(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	first, _ := s.FindAvailable()
	first.Mu.Lock()
	first.Players[game.SideLeft] = nullSink{}
	first.State.Status = game.StatusFinished
	first.Mu.Unlock()

	second, _ := s.FindAvailable()
	if second.ID == first.ID {
		t.Error("finished room should not be matched again")
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	room := s.GetOrCreate("ABCDEF", game.TypeOnline)
	if room.ID != "ABCDEF" {
		t.Errorf("ID = %q, want %q", room.ID, "ABCDEF")
	}

	again := s.GetOrCreate("ABCDEF", game.TypeOnline)
	if again != room {
		t.Error("GetOrCreate should be idempotent")
	}
}

func TestStore_GetOrCreate_Local(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	room := s.GetOrCreate("local-1", game.TypeLocal)
	if room.GameType != game.TypeLocal {
		t.Errorf("GameType = %q, want %q", room.GameType, game.TypeLocal)
	}
}

func TestStore_CreateTournamentRoom(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	room := s.CreateTournamentRoom("t-1", "m-1")
	if room.TournamentID != "t-1" || room.TournamentMatchID != "m-1" {
		t.Errorf("tournament tags = %q/%q, want t-1/m-1", room.TournamentID, room.TournamentMatchID)
	}
	if !room.LeftPlayerReady {
		t.Error("tournament rooms should skip settings negotiation")
	}
	if room.GameType != game.TypeTournament {
		t.Errorf("GameType = %q, want %q", room.GameType, game.TypeTournament)
	}

	again := s.CreateTournamentRoom("t-1", "m-1")
	if again != room {
		t.Error("CreateTournamentRoom should be idempotent per match")
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(game.DefaultSettings())
	room, _ := s.FindAvailable()

	s.Delete(room.ID)

	if s.Get(room.ID) != nil {
		t.Error("room should be deleted")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(game.DefaultSettings())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, err := s.FindAvailable()
			if err != nil {
				t.Error(err)
				return
			}
			room.Mu.Lock()
			side, ok := room.OpenSideLocked()
			if ok {
				room.Players[side] = nullSink{}
			}
			room.Mu.Unlock()
		}()
	}
	wg.Wait()

	for _, room := range s.List() {
		room.Mu.Lock()
		if len(room.Players) > 2 {
			t.Errorf("room %s has %d players", room.ID, len(room.Players))
		}
		room.Mu.Unlock()
	}
}

func TestRoom_OpenSideLocked(t *testing.T) {
	s := NewStore(game.DefaultSettings())
	room, _ := s.FindAvailable()

	room.Mu.Lock()
	defer room.Mu.Unlock()

	side, ok := room.OpenSideLocked()
	if !ok || side != game.SideLeft {
		t.Errorf("open side = %q/%t, want left/true", side, ok)
	}

	room.Players[game.SideLeft] = nullSink{}
	side, ok = room.OpenSideLocked()
	if !ok || side != game.SideRight {
		t.Errorf("open side = %q/%t, want right/true", side, ok)
	}

	room.Players[game.SideRight] = nullSink{}
	if _, ok := room.OpenSideLocked(); ok {
		t.Error("full room should report no open side")
	}
}

func TestRoom_StopTimersIdempotent(t *testing.T) {
	s := NewStore(game.DefaultSettings())
	room, _ := s.FindAvailable()

	// Never-started timers: must not panic.
	room.StopTimers()

	cancelled := 0
	room.Mu.Lock()
	room.CancelCountdown = func() { cancelled++ }
	room.CancelTick = func() { cancelled++ }
	room.Mu.Unlock()

	room.StopTimers()
	room.StopTimers()

	if cancelled != 2 {
		t.Errorf("cancel calls = %d, want 2 (double stop must not re-cancel)", cancelled)
	}
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != codeLength {
		t.Errorf("code length = %d, want %d", len(code), codeLength)
	}
	for _, c := range code {
		found := false
		for _, a := range alphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("code contains %q, not in alphabet", c)
		}
	}
}

func TestValidCode(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatal(err)
	}
	if !ValidCode(code) {
		t.Errorf("ValidCode(%q) = false, want true", code)
	}

	for _, bad := range []string{"", "ABC", "ABCDEFG", "ABC-EF", "abcdef", "ABCDE0"} {
		if ValidCode(bad) {
			t.Errorf("ValidCode(%q) = true, want false", bad)
		}
	}
}
