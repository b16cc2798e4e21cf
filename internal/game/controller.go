package game

import (
	"bytes"
	"math/rand"
	"sync"

	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/emotion"
	"github.com/kiliankoe/faceoff/internal/telemetry"
	"github.com/rs/zerolog"
)

// Deps are the collaborators a controller drives.
type Deps struct {
	Bridge  Bridge
	Camera  Camera
	Scorer  ai.Scorer
	Tracker telemetry.Tracker
	// Rand seeds emotion draws; nil uses the shared source.
	Rand *rand.Rand
	Log  *zerolog.Logger
}

// Controller runs one two-player session. Each turn runs on the caller's
// goroutine; the mutex guards session fields and is never held while a turn
// waits.
type Controller struct {
	cfg      SessionConfig
	bridge   Bridge
	camera   Camera
	pipeline *Pipeline
	tel      telemetry.Tracker
	rnd      *rand.Rand
	log      zerolog.Logger

	mu      sync.Mutex
	session *Session
	turns   [2]*turn
	states  [2]TurnState
	consent *consentGate
}

func NewController(cfg SessionConfig, deps Deps) *Controller {
	tel := deps.Tracker
	if tel == nil {
		tel = telemetry.Nop{}
	}
	log := zerolog.Nop()
	if deps.Log != nil {
		log = *deps.Log
	}
	return &Controller{
		cfg:      cfg,
		bridge:   deps.Bridge,
		camera:   deps.Camera,
		pipeline: NewPipeline(deps.Scorer, deps.Bridge, tel),
		tel:      tel,
		rnd:      deps.Rand,
		log:      log,
		session:  NewSession(deps.Rand),
		states:   [2]TurnState{TurnIdle, TurnIdle},
	}
}

// apply mutates the session under the lock and publishes the new snapshot.
func (c *Controller) apply(fn func(s *Session)) {
	c.mu.Lock()
	fn(c.session)
	snap := c.session.snapshot(c.states)
	c.mu.Unlock()
	c.bridge.SessionChanged(snap)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.snapshot(c.states)
}

func (c *Controller) Emotion() emotion.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Emotion
}

// Track returns a copy of the slot's track.
func (c *Controller) Track(slot Slot) Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.session.Track(slot)
}

func (c *Controller) ResetEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ResetEnabled
}

func (c *Controller) TurnState(slot Slot) TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[slot]
}

// Photo returns the slot's captured photo, if any.
func (c *Controller) Photo(slot Slot) (*Photo, bool) {
	if !slot.Valid() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.session.Track(slot).Photo
	return p, p != nil
}

func (c *Controller) inFlight() bool {
	return c.turns[PlayerA] != nil || c.turns[PlayerB] != nil
}

// refreshReset keeps the published reset control in line with what Reset
// accepts. Callers hold c.mu.
func (c *Controller) refreshReset() {
	c.session.recomputeReset(c.inFlight())
}

// Reset starts a new round. It is refused while a turn is running or a track
// is still scoring.
func (c *Controller) Reset() error {
	c.tel.Track(telemetry.EventResetTapped)
	c.mu.Lock()
	if c.session.AnyScoring() || c.inFlight() {
		c.mu.Unlock()
		return ErrResetUnavailable
	}
	prev := c.session.Emotion
	c.session.reroll(c.rnd)
	c.states = [2]TurnState{TurnIdle, TurnIdle}
	snap := c.session.snapshot(c.states)
	c.mu.Unlock()

	c.log.Info().Str("from", prev.Label()).Str("to", snap.Emotion).Msg("session reset")
	c.bridge.SessionChanged(snap)
	return nil
}

// ShowFullResults publishes the slot's breakdown, or the error placeholder
// when nothing has been scored yet.
func (c *Controller) ShowFullResults(slot Slot) (string, error) {
	if !slot.Valid() {
		return "", ErrInvalidSlot
	}
	c.tel.Track(telemetry.ResultsButtonTapped(slot.Number()))
	c.mu.Lock()
	text := c.session.Track(slot).Results
	c.mu.Unlock()
	if text == "" {
		text = LabelGenericError
	}
	c.bridge.AllResultsRequested(slot, text)
	return text, nil
}

// SubmitConsentDecision answers the pending consent prompt.
func (c *Controller) SubmitConsentDecision(accepted bool) error {
	c.mu.Lock()
	g := c.consent
	c.mu.Unlock()
	if g == nil {
		return ErrNoPendingConsent
	}
	return g.resolve(accepted)
}

// ApplySamplePhoto installs img as a finished capture scored 100% Happiness
// and switches the round to Happiness. It exists for demos and UI tests that
// run without a camera or scoring service.
func (c *Controller) ApplySamplePhoto(slot Slot, img *Image) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if img == nil || len(img.Data) == 0 {
		return ErrNoPhoto
	}
	defer img.Release()

	var scores emotion.Scores
	scores[emotion.Happiness] = 1
	out := Outcome{Kind: OutcomeSuccess, Target: emotion.Happiness, Score: 1, Scores: scores}

	c.mu.Lock()
	if c.inFlight() {
		c.mu.Unlock()
		return ErrCaptureDisabled
	}
	c.session.Emotion = emotion.Happiness
	tr := c.session.Track(slot)
	tr.Photo = &Photo{ID: img.ID, ContentType: img.ContentType, Data: bytes.Clone(img.Data)}
	tr.Results = out.Results()
	tr.ScoreText = out.ScoreText()
	tr.CaptureEnabled = false
	tr.CaptureRowVisible = false
	tr.PhotoVisible = true
	tr.ScoreButtonVisible = true
	tr.ScoreButtonEnabled = true
	c.refreshReset()
	c.states[slot] = TurnComplete
	snap := c.session.snapshot(c.states)
	c.mu.Unlock()

	c.tel.Track(telemetry.EventSamplePhoto)
	c.bridge.SessionChanged(snap)
	c.bridge.RevealPhoto(slot)
	c.bridge.RevealScoreButton(slot)
	return nil
}
