package game

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Slot selects one player's half of a session.
type Slot int

const (
	PlayerA Slot = iota
	PlayerB
)

// Slots lists both slots in display order.
var Slots = [2]Slot{PlayerA, PlayerB}

func (s Slot) Valid() bool { return s == PlayerA || s == PlayerB }

// Number is the 1-based player number shown to users.
func (s Slot) Number() int { return int(s) + 1 }

func (s Slot) Other() Slot { return 1 - s }

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return fmt.Sprintf("Player%d", s.Number())
}

// ParseSlot accepts the 1-based player number used on the wire.
func ParseSlot(player int) (Slot, error) {
	s := Slot(player - 1)
	if !s.Valid() {
		return 0, ErrInvalidSlot
	}
	return s, nil
}

type TurnState string

const (
	TurnIdle                TurnState = "Idle"
	TurnAwaitingConsent     TurnState = "AwaitingConsent"
	TurnAwaitingCapture     TurnState = "AwaitingCapture"
	TurnAwaitingRevealReady TurnState = "AwaitingRevealReady"
	TurnRevealing           TurnState = "Revealing"
	TurnAwaitingScore       TurnState = "AwaitingScore"
	TurnScoring             TurnState = "Scoring"
	TurnComplete            TurnState = "Complete"
	TurnAborted             TurnState = "Aborted"
)

type SessionConfig struct {
	PlayerNames [2]string `json:"playerNames"`
	// Animation lengths used by the presentation layer; the settle delays
	// after each reveal derive from them.
	PhotoRevealAnimation time.Duration `json:"photoRevealAnimation"`
	ScoreRevealAnimation time.Duration `json:"scoreRevealAnimation"`
}

func (c SessionConfig) playerName(s Slot) string {
	if n := c.PlayerNames[s]; n != "" {
		return n
	}
	return fmt.Sprintf("Player %d", s.Number())
}

// settleDelay is ceil(animation in ms × 2.5) milliseconds.
func settleDelay(animation time.Duration) time.Duration {
	ms := math.Ceil(float64(animation.Milliseconds()) * 2.5)
	return time.Duration(ms) * time.Millisecond
}

// Image is a captured photo. The turn that captured it owns it and releases
// it once scoring is done.
type Image struct {
	ID          string
	ContentType string
	Data        []byte

	once    sync.Once
	release func()
}

// NewImage wraps captured bytes; release may be nil.
func NewImage(contentType string, data []byte, release func()) *Image {
	return &Image{ID: uuid.NewString(), ContentType: contentType, Data: data, release: release}
}

// Release frees the capture. Safe to call more than once.
func (img *Image) Release() {
	if img == nil {
		return
	}
	img.once.Do(func() {
		if img.release != nil {
			img.release()
		}
		img.Data = nil
	})
}

// Photo is the track's own copy of a captured image, kept for display.
type Photo struct {
	ID          string
	ContentType string
	Data        []byte
}
