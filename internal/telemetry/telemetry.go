// Package telemetry records usage events and errors for the game.
//
// Events and reports are written as structured zerolog lines. Timed events
// additionally open an OpenTelemetry span on the global tracer provider, which
// is a no-op unless Setup registered an exporter.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventPhotoTaken     = "Photo Taken"
	EventResetTapped    = "Reset Button Tapped"
	EventAnalyzeEmotion = "Analyze Emotion"
	EventSamplePhoto    = "Sample Photo Loaded"
)

func PhotoButtonTapped(player int) string {
	return fmt.Sprintf("Photo Button %d Tapped", player)
}

func ResultsButtonTapped(player int) string {
	return fmt.Sprintf("Results Button %d Tapped", player)
}

// Tracker is fire-and-forget: none of its methods block on I/O or fail.
type Tracker interface {
	Track(event string)
	Report(err error)
	// TrackTime starts a timed event; call the returned func when it ends.
	TrackTime(ctx context.Context, event string) (context.Context, func())
}

type Logger struct {
	log    zerolog.Logger
	tracer trace.Tracer
}

func New(log zerolog.Logger) *Logger {
	return &Logger{log: log, tracer: otel.Tracer("github.com/kiliankoe/faceoff")}
}

// With returns a tracker that adds the given string field to every line.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{log: l.log.With().Str(key, value).Logger(), tracer: l.tracer}
}

func (l *Logger) Track(event string) {
	l.log.Info().Str("event", event).Msg("track")
}

func (l *Logger) Report(err error) {
	if err == nil {
		return
	}
	l.log.Error().Err(err).Msg("report")
}

func (l *Logger) TrackTime(ctx context.Context, event string) (context.Context, func()) {
	start := time.Now()
	ctx, span := l.tracer.Start(ctx, event)
	return ctx, func() {
		span.End()
		l.log.Info().Str("event", event).Dur("dur", time.Since(start)).Msg("track")
	}
}

// RecordError marks the span in ctx as failed, if there is one.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Nop discards everything.
type Nop struct{}

func (Nop) Track(string) {}
func (Nop) Report(error) {}
func (Nop) TrackTime(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}
