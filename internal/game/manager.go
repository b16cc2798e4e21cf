package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound          = errors.New("session not found")
	ErrNotHost                  = errors.New("not host")
	ErrInvalidSlot              = errors.New("invalid player")
	ErrCaptureDisabled          = errors.New("capture disabled for player")
	ErrResetUnavailable         = errors.New("reset unavailable while a turn is running")
	ErrNoPendingConsent         = errors.New("no pending consent prompt")
	ErrConsentPending           = errors.New("consent prompt already pending")
	ErrDecisionAlreadySubmitted = errors.New("decision already submitted")
	ErrCameraUnavailable        = errors.New("camera unavailable")
	ErrCaptureCancelled         = errors.New("capture cancelled")
	ErrNoPhoto                  = errors.New("no photo")
)

// Room is a hosted session addressed by its join code.
type Room struct {
	Code       string
	CreatedAt  time.Time
	HostToken  string
	Controller *Controller

	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the room is closed; turns run under it.
func (r *Room) Context() context.Context { return r.ctx }

func (r *Room) Authorize(hostToken string) error {
	if hostToken == "" || hostToken != r.HostToken {
		return ErrNotHost
	}
	return nil
}

// TakeTurn runs a turn for slot under the room's lifetime.
func (r *Room) TakeTurn(slot Slot) error {
	return r.Controller.TakeTurn(r.ctx, slot)
}

type RoomManager struct {
	mu       sync.RWMutex
	sessions map[string]*Room
	active   string // most recently created session
	single   bool
	onClose  []func(code string)
}

// NewRoomManager creates an empty registry. In single-session mode creating a
// session closes the previous one.
func NewRoomManager(singleSession bool) *RoomManager {
	return &RoomManager{sessions: make(map[string]*Room), single: singleSession}
}

// CreateSession registers a new room. wire builds the controller's
// collaborators once the join code is known.
func (rm *RoomManager) CreateSession(cfg SessionConfig, wire func(code string) Deps) (code string, hostToken string, err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code = randomCode(5)
	for rm.sessions[code] != nil {
		code = randomCode(5)
	}
	if rm.single && rm.active != "" {
		rm.closeLocked(rm.active)
	}
	hostToken = uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	r := &Room{
		Code:       code,
		CreatedAt:  time.Now().UTC(),
		HostToken:  hostToken,
		Controller: NewController(cfg, wire(code)),
		ctx:        ctx,
		cancel:     cancel,
	}

	rm.sessions[code] = r
	rm.active = code
	return code, hostToken, nil
}

func (rm *RoomManager) Get(code string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	r := rm.sessions[code]
	if r == nil {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

func (rm *RoomManager) Active() (string, *Room) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if rm.active == "" {
		return "", nil
	}
	return rm.active, rm.sessions[rm.active]
}

// Delete closes the room and cancels its running turns.
func (rm *RoomManager) Delete(code string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.sessions[code] == nil {
		return ErrSessionNotFound
	}
	rm.closeLocked(code)
	return nil
}

// OnClose registers fn to run whenever a room is closed.
func (rm *RoomManager) OnClose(fn func(code string)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onClose = append(rm.onClose, fn)
}

func (rm *RoomManager) closeLocked(code string) {
	if r := rm.sessions[code]; r != nil {
		r.cancel()
	}
	for _, fn := range rm.onClose {
		fn(code)
	}
	delete(rm.sessions, code)
	if rm.active == code {
		rm.active = ""
	}
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.sessions)
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
