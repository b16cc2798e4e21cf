package game

import (
	"context"
	"fmt"

	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/emotion"
	"github.com/kiliankoe/faceoff/internal/telemetry"
)

type OutcomeKind string

const (
	OutcomeSuccess               OutcomeKind = "Success"
	OutcomeNoFaceDetected        OutcomeKind = "NoFaceDetected"
	OutcomeMultipleFacesDetected OutcomeKind = "MultipleFacesDetected"
	OutcomeGenericError          OutcomeKind = "GenericError"
)

// Labels shown on the score button in place of a percentage.
const (
	LabelNoFaceDetected        = "No Face Detected"
	LabelMultipleFacesDetected = "Multiple Faces Detected"
	LabelGenericError          = "Error"

	analyzingText = "Analyzing"
)

// Outcome is the result of scoring one capture.
type Outcome struct {
	Kind   OutcomeKind
	Target emotion.Kind
	// Score and Scores are only set on success.
	Score  float64
	Scores emotion.Scores
}

func (o Outcome) Label() string {
	switch o.Kind {
	case OutcomeSuccess:
		return ""
	case OutcomeNoFaceDetected:
		return LabelNoFaceDetected
	case OutcomeMultipleFacesDetected:
		return LabelMultipleFacesDetected
	default:
		return LabelGenericError
	}
}

func (o Outcome) Percentage() string { return emotion.FormatPercent(o.Score) }

// ScoreText is what the score button shows once scoring is done.
func (o Outcome) ScoreText() string {
	if o.Kind == OutcomeSuccess {
		return "Score: " + o.Percentage()
	}
	return o.Label()
}

// Results is the full breakdown shown on demand, or the error placeholder.
func (o Outcome) Results() string {
	if o.Kind == OutcomeSuccess {
		return emotion.Breakdown(o.Scores)
	}
	return LabelGenericError
}

// Pipeline turns a captured image into an Outcome. It never returns an error:
// every failure is reported to telemetry and becomes OutcomeGenericError.
type Pipeline struct {
	scorer ai.Scorer
	bridge Bridge
	tel    telemetry.Tracker
}

func NewPipeline(scorer ai.Scorer, bridge Bridge, tel telemetry.Tracker) *Pipeline {
	if tel == nil {
		tel = telemetry.Nop{}
	}
	return &Pipeline{scorer: scorer, bridge: bridge, tel: tel}
}

func (p *Pipeline) Score(ctx context.Context, img *Image, target emotion.Kind) (out Outcome) {
	out = Outcome{Kind: OutcomeGenericError, Target: target}
	defer func() {
		if r := recover(); r != nil {
			p.tel.Report(fmt.Errorf("scoring panic: %v", r))
			out = Outcome{Kind: OutcomeGenericError, Target: target}
		}
	}()

	if img == nil || len(img.Data) == 0 {
		return Outcome{Kind: OutcomeNoFaceDetected, Target: target}
	}
	if !target.Valid() {
		p.tel.Report(fmt.Errorf("score: %w", emotion.ErrUnknownKind))
		return out
	}

	ctx, done := p.tel.TrackTime(ctx, telemetry.EventAnalyzeEmotion)
	faces, err := p.scorer.Analyze(ctx, img.Data)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	done()
	if err != nil {
		p.tel.Report(fmt.Errorf("analyze emotion: %w", err))
		return out
	}

	switch {
	case len(faces) == 0:
		return Outcome{Kind: OutcomeNoFaceDetected, Target: target}
	case len(faces) > 1:
		p.bridge.MultipleFacesDetected()
		return Outcome{Kind: OutcomeMultipleFacesDetected, Target: target}
	}
	return Outcome{Kind: OutcomeSuccess, Target: target, Score: faces[0].Get(target), Scores: faces[0]}
}
