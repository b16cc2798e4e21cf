package ai

import (
	"context"
	"errors"

	"github.com/kiliankoe/faceoff/internal/emotion"
)

// Scorer sends a photo to an emotion recognition service and returns one
// score set per detected face.
type Scorer interface {
	Analyze(ctx context.Context, image []byte) ([]emotion.Scores, error)
}

var ErrEmptyImage = errors.New("empty image")

// FaceScores is the per-face JSON shape shared by the providers.
type FaceScores struct {
	Anger     float64 `json:"anger"`
	Contempt  float64 `json:"contempt"`
	Disgust   float64 `json:"disgust"`
	Fear      float64 `json:"fear"`
	Happiness float64 `json:"happiness"`
	Neutral   float64 `json:"neutral"`
	Sadness   float64 `json:"sadness"`
	Surprise  float64 `json:"surprise"`
}

func (f FaceScores) Scores() emotion.Scores {
	var s emotion.Scores
	s[emotion.Anger] = clamp(f.Anger)
	s[emotion.Contempt] = clamp(f.Contempt)
	s[emotion.Disgust] = clamp(f.Disgust)
	s[emotion.Fear] = clamp(f.Fear)
	s[emotion.Happiness] = clamp(f.Happiness)
	s[emotion.Neutral] = clamp(f.Neutral)
	s[emotion.Sadness] = clamp(f.Sadness)
	s[emotion.Surprise] = clamp(f.Surprise)
	return s
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
