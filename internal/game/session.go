package game

import (
	"math/rand"

	"github.com/kiliankoe/faceoff/internal/emotion"
)

// Session is the state of one round: the emotion both players must show and
// their two tracks.
type Session struct {
	Emotion      emotion.Kind
	Tracks       [2]Track
	ResetEnabled bool
}

// NewSession rolls a fresh emotion and default tracks.
func NewSession(rnd *rand.Rand) *Session {
	s := &Session{Emotion: emotion.Pick(rnd)}
	s.clearTracks()
	return s
}

func (s *Session) Track(slot Slot) *Track { return &s.Tracks[slot] }

func (s *Session) PageTitle() string { return s.Emotion.Label() }

// AnyScoring reports whether either track waits on the scoring service.
func (s *Session) AnyScoring() bool {
	return s.Tracks[PlayerA].Scoring || s.Tracks[PlayerB].Scoring
}

func (s *Session) anyPhoto() bool {
	return s.Tracks[PlayerA].HasPhoto() || s.Tracks[PlayerB].HasPhoto()
}

// recomputeReset enables the reset control once there is a photo to clear and
// nothing is scoring or running.
func (s *Session) recomputeReset(turnRunning bool) {
	s.ResetEnabled = !turnRunning && !s.AnyScoring() && s.anyPhoto()
}

// reroll starts a new round with an emotion different from the last one.
func (s *Session) reroll(rnd *rand.Rand) {
	s.Emotion = emotion.PickExcluding(rnd, s.Emotion)
	s.clearTracks()
	s.ResetEnabled = false
}

func (s *Session) clearTracks() {
	for _, slot := range Slots {
		s.Tracks[slot] = defaultTrack()
	}
}

// Snapshot is the JSON view of a session pushed to the presentation layer.
type Snapshot struct {
	Emotion      string       `json:"emotion"`
	PageTitle    string       `json:"pageTitle"`
	Tracks       [2]TrackView `json:"tracks"`
	ResetEnabled bool         `json:"resetEnabled"`
	Turns        [2]TurnState `json:"turns"`
}

func (s *Session) snapshot(turns [2]TurnState) Snapshot {
	out := Snapshot{
		Emotion:      s.Emotion.Label(),
		PageTitle:    s.PageTitle(),
		ResetEnabled: s.ResetEnabled,
		Turns:        turns,
	}
	for _, slot := range Slots {
		out.Tracks[slot] = s.Tracks[slot].view(slot)
	}
	return out
}
