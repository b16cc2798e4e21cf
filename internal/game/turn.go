package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiliankoe/faceoff/internal/emotion"
	"github.com/kiliankoe/faceoff/internal/telemetry"
	"github.com/rs/zerolog"
)

const consentMessage = "take a selfie looking "

type turn struct {
	id   string
	slot Slot
	log  zerolog.Logger
}

// TakeTurn runs one consent, capture, reveal and score cycle for slot and
// returns once the turn completes or aborts. A denied consent or a cancelled
// capture is a normal abort and returns nil.
func (c *Controller) TakeTurn(ctx context.Context, slot Slot) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	c.mu.Lock()
	if c.turns[slot] != nil || !c.session.Track(slot).CaptureEnabled {
		c.mu.Unlock()
		return ErrCaptureDisabled
	}
	t := &turn{id: uuid.NewString(), slot: slot}
	t.log = c.log.With().Str("turn", t.id).Stringer("slot", slot).Logger()
	c.turns[slot] = t
	c.refreshReset()
	target := c.session.Emotion
	c.mu.Unlock()

	defer c.apply(func(*Session) {
		c.turns[slot] = nil
		c.refreshReset()
	})
	return c.runTurn(ctx, t, target)
}

func (c *Controller) setState(t *turn, state TurnState) {
	c.apply(func(*Session) { c.states[t.slot] = state })
	t.log.Debug().Str("state", string(state)).Msg("turn state")
}

func (c *Controller) runTurn(ctx context.Context, t *turn, target emotion.Kind) error {
	slot, other := t.slot, t.slot.Other()
	c.tel.Track(telemetry.PhotoButtonTapped(slot.Number()))

	// Only one prompt or camera may be up at a time, so the other player's
	// capture and this player's score button are off until the photo is in.
	var saved controls
	var gate *consentGate
	pending := false
	c.apply(func(s *Session) {
		saved = controls{otherCapture: s.Track(other).CaptureEnabled, ownScore: s.Track(slot).ScoreButtonEnabled}
		s.Track(other).CaptureEnabled = false
		s.Track(slot).ScoreButtonEnabled = false
		c.states[slot] = TurnAwaitingConsent
		if c.consent != nil {
			pending = true
			return
		}
		gate = newConsentGate()
		c.consent = gate
	})
	abort := func() {
		c.apply(func(s *Session) {
			s.Track(other).CaptureEnabled = saved.otherCapture
			s.Track(slot).ScoreButtonEnabled = saved.ownScore
			c.states[slot] = TurnAborted
		})
	}
	if pending {
		abort()
		return ErrConsentPending
	}

	c.bridge.ConsentRequested(slot, target.Label(), c.cfg.playerName(slot)+", "+consentMessage+target.PromptPhrase())
	accepted, err := gate.wait(ctx)
	c.mu.Lock()
	if c.consent == gate {
		c.consent = nil
	}
	c.mu.Unlock()
	if err != nil {
		abort()
		return err
	}
	if !accepted {
		t.log.Info().Msg("consent denied")
		abort()
		return nil
	}

	c.setState(t, TurnAwaitingCapture)
	img, err := c.camera.Capture(ctx, slot)
	if err != nil || img == nil {
		switch {
		case ctx.Err() != nil:
			abort()
			return ctx.Err()
		case errors.Is(err, ErrCameraUnavailable):
			t.log.Warn().Msg("no camera available")
			c.bridge.NoCameraAvailable()
		case err == nil, errors.Is(err, ErrCaptureCancelled):
			t.log.Info().Msg("capture cancelled")
		default:
			c.tel.Report(fmt.Errorf("capture: %w", err))
		}
		abort()
		return nil
	}
	defer img.Release()

	c.setState(t, TurnAwaitingRevealReady)
	if err := waitReady(ctx, c.bridge.PhotoRevealReady(slot)); err != nil {
		abort()
		return err
	}

	c.bridge.RevealPhoto(slot)
	c.tel.Track(telemetry.EventPhotoTaken)
	c.apply(func(s *Session) {
		tr := s.Track(slot)
		tr.CaptureEnabled = false
		tr.CaptureRowVisible = false
		tr.ScoreText = analyzingText
		tr.Photo = &Photo{ID: img.ID, ContentType: img.ContentType, Data: bytes.Clone(img.Data)}
		tr.PhotoVisible = true
		tr.Scoring = true
		s.Track(other).CaptureEnabled = saved.otherCapture
		c.refreshReset()
		c.states[slot] = TurnRevealing
	})
	fail := func() {
		c.apply(func(s *Session) {
			tr := s.Track(slot)
			tr.Scoring = false
			tr.ScoreText = LabelGenericError
			tr.Results = LabelGenericError
			tr.ScoreButtonEnabled = true
			c.refreshReset()
			c.states[slot] = TurnAborted
		})
	}

	if err := sleepCtx(ctx, settleDelay(c.cfg.PhotoRevealAnimation)); err != nil {
		fail()
		return err
	}

	c.setState(t, TurnAwaitingScore)
	if err := waitReady(ctx, c.bridge.ScoreRevealReady(slot)); err != nil {
		fail()
		return err
	}
	c.apply(func(s *Session) { s.Track(slot).ScoreButtonVisible = true })
	c.bridge.RevealScoreButton(slot)

	c.setState(t, TurnScoring)
	outcome := c.pipeline.Score(ctx, img, target)
	if outcome.Kind != OutcomeSuccess {
		c.tel.Track(outcome.Label())
	}
	c.apply(func(s *Session) {
		tr := s.Track(slot)
		tr.ScoreText = outcome.ScoreText()
		tr.Results = outcome.Results()
		tr.Scoring = false
		tr.ScoreButtonEnabled = true
		c.refreshReset()
	})
	img.Release()
	t.log.Info().Str("emotion", target.Label()).Str("outcome", string(outcome.Kind)).Str("score", outcome.ScoreText()).Msg("turn scored")

	// The result is in; a cancelled settle only shortens the wait.
	_ = sleepCtx(ctx, settleDelay(c.cfg.ScoreRevealAnimation))
	c.setState(t, TurnComplete)
	return nil
}

func waitReady(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
