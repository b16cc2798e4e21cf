package game

import (
	"errors"
	"testing"
)

func wireFakes(string) Deps {
	return Deps{Bridge: newFakeBridge(), Camera: &fakeCamera{}, Scorer: &fakeScorer{}}
}

func TestNewRoomManager(t *testing.T) {
	rm := NewRoomManager(false)
	if rm.sessions == nil {
		t.Fatal("sessions map should be initialized")
	}
	if code, r := rm.Active(); code != "" || r != nil {
		t.Fatal("active session should be empty initially")
	}
}

func TestCreateSession(t *testing.T) {
	rm := NewRoomManager(false)
	cfg := SessionConfig{PlayerNames: [2]string{"Alice", "Bob"}}

	var wiredFor string
	code, hostToken, err := rm.CreateSession(cfg, func(c string) Deps {
		wiredFor = c
		return wireFakes(c)
	})
	if err != nil {
		t.Fatalf("should be able to create session: %v", err)
	}
	if len(code) != 5 {
		t.Fatalf("expected 5 character code, got %q", code)
	}
	if hostToken == "" {
		t.Fatal("host token should not be empty")
	}
	if wiredFor != code {
		t.Fatalf("expected deps wired for %s, got %s", code, wiredFor)
	}

	r, err := rm.Get(code)
	if err != nil {
		t.Fatalf("should be able to get session: %v", err)
	}
	if r.Controller == nil {
		t.Fatal("room should have a controller")
	}
	if active, _ := rm.Active(); active != code {
		t.Fatalf("expected active %s, got %s", code, active)
	}
}

func TestGetUnknownSession(t *testing.T) {
	rm := NewRoomManager(false)
	if _, err := rm.Get("NOPE1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	rm := NewRoomManager(false)
	code, hostToken, _ := rm.CreateSession(SessionConfig{}, wireFakes)
	r, _ := rm.Get(code)

	if err := r.Authorize(hostToken); err != nil {
		t.Fatalf("expected host authorized, got %v", err)
	}
	if err := r.Authorize("wrong"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := r.Authorize(""); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost for empty token, got %v", err)
	}
}

func TestDeleteCancelsRoom(t *testing.T) {
	rm := NewRoomManager(false)
	code, _, _ := rm.CreateSession(SessionConfig{}, wireFakes)
	r, _ := rm.Get(code)

	var closed []string
	rm.OnClose(func(c string) { closed = append(closed, c) })

	if err := rm.Delete(code); err != nil {
		t.Fatalf("delete: %v", err)
	}
	select {
	case <-r.Context().Done():
	default:
		t.Fatal("expected room context cancelled")
	}
	if len(closed) != 1 || closed[0] != code {
		t.Fatalf("expected close callback for %s, got %v", code, closed)
	}
	if rm.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", rm.Len())
	}
	if err := rm.Delete(code); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSingleSessionReplacesPrevious(t *testing.T) {
	rm := NewRoomManager(true)
	first, _, _ := rm.CreateSession(SessionConfig{}, wireFakes)
	old, _ := rm.Get(first)

	second, _, _ := rm.CreateSession(SessionConfig{}, wireFakes)
	if rm.Len() != 1 {
		t.Fatalf("expected one session, got %d", rm.Len())
	}
	if _, err := rm.Get(first); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("expected first session closed")
	}
	if old.Context().Err() == nil {
		t.Fatal("expected first session cancelled")
	}
	if active, _ := rm.Active(); active != second {
		t.Fatalf("expected active %s, got %s", second, active)
	}
}

func TestMultiSessionKeepsAll(t *testing.T) {
	rm := NewRoomManager(false)
	for i := 0; i < 3; i++ {
		if _, _, err := rm.CreateSession(SessionConfig{}, wireFakes); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if rm.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", rm.Len())
	}
}

func TestRandomCodeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		for _, r := range randomCode(5) {
			if r == 'O' || r == '0' || r == 'I' || r == '1' {
				t.Fatalf("ambiguous character %q in code", r)
			}
		}
	}
}
