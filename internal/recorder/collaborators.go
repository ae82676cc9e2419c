package recorder

import (
	"context"
	"time"

	"clipwatch/internal/encoder"
	"clipwatch/internal/highlights"
)

// Encoder launches recording processes.
type Encoder interface {
	Start(ctx context.Context, outputPath string) (EncoderProcess, error)
}

// EncoderProcess is a running recording.
type EncoderProcess interface {
	PID() int
	StartedAt() time.Time
	Done() <-chan struct{}
	Exited() bool
	ExitErr() error
	Diagnostics() []string
	Stats(ctx context.Context) (encoder.Stats, error)
	Stop() error
}

// Detector is the marker detection loop.
type Detector interface {
	Start(ctx context.Context, sessionStart time.Time) error
	Stop()
	Timestamps() []time.Duration
	Count() int
	ClearTimestamps()
}

// Extractor trims clips around detection timestamps.
type Extractor interface {
	ExtractAll(ctx context.Context, timestamps []time.Duration, source string, recordingDuration time.Duration) (highlights.Manifest, error)
}

// Merger concatenates extracted clips.
type Merger interface {
	OutputPath(folder string) string
	Merge(ctx context.Context, manifest highlights.Manifest, outputPath string) (bool, error)
}

// Observer is told about session boundaries. SessionFinished runs on the
// highlight worker before the orchestrator returns to idle.
type Observer interface {
	SessionStarted(ctx context.Context, session Session)
	SessionFinished(ctx context.Context, result Result)
}

// LauncherAdapter exposes an encoder.Launcher as an Encoder.
type LauncherAdapter struct {
	Launcher *encoder.Launcher
}

// Start implements Encoder.
func (a LauncherAdapter) Start(ctx context.Context, outputPath string) (EncoderProcess, error) {
	proc, err := a.Launcher.Start(ctx, outputPath)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

type nopObserver struct{}

func (nopObserver) SessionStarted(context.Context, Session) {}
func (nopObserver) SessionFinished(context.Context, Result) {}
