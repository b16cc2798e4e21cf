package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kiliankoe/faceoff/internal/emotion"
)

type consentRequest struct {
	slot           Slot
	title, message string
}

type fakeBridge struct {
	*Readiness

	mu            sync.Mutex
	consents      chan consentRequest
	multipleFaces int
	noCamera      int
	photoReveals  []Slot
	scoreReveals  []Slot
	results       []string
	snapshots     []Snapshot
}

func newFakeBridge() *fakeBridge {
	b := &fakeBridge{Readiness: NewReadiness(), consents: make(chan consentRequest, 4)}
	for _, s := range Slots {
		b.MarkSubscribed(RevealPhoto, s)
		b.MarkSubscribed(RevealScore, s)
	}
	return b
}

func (b *fakeBridge) ConsentRequested(slot Slot, title, message string) {
	b.consents <- consentRequest{slot, title, message}
}

func (b *fakeBridge) MultipleFacesDetected() {
	b.mu.Lock()
	b.multipleFaces++
	b.mu.Unlock()
}

func (b *fakeBridge) NoCameraAvailable() {
	b.mu.Lock()
	b.noCamera++
	b.mu.Unlock()
}

func (b *fakeBridge) RevealPhoto(slot Slot) {
	b.mu.Lock()
	b.photoReveals = append(b.photoReveals, slot)
	b.mu.Unlock()
}

func (b *fakeBridge) RevealScoreButton(slot Slot) {
	b.mu.Lock()
	b.scoreReveals = append(b.scoreReveals, slot)
	b.mu.Unlock()
}

func (b *fakeBridge) AllResultsRequested(slot Slot, text string) {
	b.mu.Lock()
	b.results = append(b.results, text)
	b.mu.Unlock()
}

func (b *fakeBridge) SessionChanged(snap Snapshot) {
	b.mu.Lock()
	b.snapshots = append(b.snapshots, snap)
	b.mu.Unlock()
}

func (b *fakeBridge) PhotoRevealReady(slot Slot) <-chan struct{} { return b.Ready(RevealPhoto, slot) }
func (b *fakeBridge) ScoreRevealReady(slot Slot) <-chan struct{} { return b.Ready(RevealScore, slot) }

func (b *fakeBridge) counts() (multiple, noCamera int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.multipleFaces, b.noCamera
}

type fakeCamera struct {
	mu    sync.Mutex
	calls int
	img   func() *Image
	err   error
}

func (c *fakeCamera) Capture(ctx context.Context, slot Slot) (*Image, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.img == nil {
		return NewImage("image/jpeg", []byte("selfie"), nil), nil
	}
	return c.img(), nil
}

func (c *fakeCamera) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeScorer struct {
	faces   []emotion.Scores
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}
}

func (s *fakeScorer) Analyze(ctx context.Context, image []byte) ([]emotion.Scores, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.panics {
		panic("scorer exploded")
	}
	return s.faces, s.err
}

func face(k emotion.Kind, v float64) emotion.Scores {
	var s emotion.Scores
	s[k] = v
	return s
}

type fakeTracker struct {
	mu      sync.Mutex
	events  []string
	reports []error
}

func (t *fakeTracker) Track(event string) {
	t.mu.Lock()
	t.events = append(t.events, event)
	t.mu.Unlock()
}

func (t *fakeTracker) Report(err error) {
	t.mu.Lock()
	t.reports = append(t.reports, err)
	t.mu.Unlock()
}

func (t *fakeTracker) TrackTime(ctx context.Context, event string) (context.Context, func()) {
	return ctx, func() { t.Track(event) }
}

func (t *fakeTracker) reportCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reports)
}

type harness struct {
	c      *Controller
	bridge *fakeBridge
	camera *fakeCamera
	scorer *fakeScorer
	tel    *fakeTracker
}

func newHarness(target emotion.Kind, faces ...emotion.Scores) *harness {
	h := &harness{
		bridge: newFakeBridge(),
		camera: &fakeCamera{},
		scorer: &fakeScorer{faces: faces},
		tel:    &fakeTracker{},
	}
	h.c = NewController(SessionConfig{PlayerNames: [2]string{"Alice", "Bob"}}, Deps{
		Bridge:  h.bridge,
		Camera:  h.camera,
		Scorer:  h.scorer,
		Tracker: h.tel,
	})
	h.c.session.Emotion = target
	return h
}

// start runs a turn in the background and returns its result channel.
func (h *harness) start(ctx context.Context, slot Slot) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.c.TakeTurn(ctx, slot) }()
	return done
}

func (h *harness) awaitConsent(t *testing.T) consentRequest {
	t.Helper()
	select {
	case req := <-h.bridge.consents:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for consent prompt")
	}
	return consentRequest{}
}

func awaitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for turn to finish")
	}
	return nil
}

// play runs a full turn for slot, answering the consent prompt with accept.
func (h *harness) play(t *testing.T, slot Slot, accept bool) error {
	t.Helper()
	done := h.start(context.Background(), slot)
	h.awaitConsent(t)
	if err := h.c.SubmitConsentDecision(accept); err != nil {
		t.Fatalf("submit decision: %v", err)
	}
	return awaitDone(t, done)
}
