package detection

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"clipwatch/internal/logging"
)

// State is the lifecycle state of a Loop.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Match is the outcome of scoring one frame.
type Match struct {
	Matched bool
	Score   float64
	Marker  string
}

// Capturer grabs one encoded full-screen frame.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Matcher scores frames against a loaded marker set.
type Matcher interface {
	Match(frame []byte) (Match, error)
	Len() int
	Close() error
}

// MatcherFactory loads a fresh marker set when a loop starts.
type MatcherFactory func() (Matcher, error)

// Option configures a Loop.
type Option func(*Loop)

// WithBackoff sets the pause after a frame without a match.
func WithBackoff(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.backoff = d
		}
	}
}

// WithClock overrides the time source used to stamp detections.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithObserver registers a callback invoked for every accepted detection.
func WithObserver(fn func(ts time.Duration, m Match)) Option {
	return func(l *Loop) {
		l.observe = fn
	}
}

// Loop scans the screen on a single worker goroutine.
type Loop struct {
	capturer Capturer
	load     MatcherFactory
	buffer   *Buffer
	backoff  time.Duration
	now      func() time.Time
	observe  func(time.Duration, Match)
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop constructs an idle loop debouncing detections with minGap.
func NewLoop(capturer Capturer, load MatcherFactory, minGap time.Duration, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		capturer: capturer,
		load:     load,
		buffer:   NewBuffer(minGap),
		backoff:  100 * time.Millisecond,
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "detection"),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start loads the marker set and launches the worker. It is a logged no-op
// when the loop is already running or the marker set is empty. The worker
// outlives ctx and runs until Stop.
func (l *Loop) Start(ctx context.Context, sessionStart time.Time) error {
	logger := logging.WithContext(ctx, l.logger)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		logger.Info("detection already running; start ignored", logging.String("state", string(l.state)))
		return nil
	}

	matcher, err := l.load()
	if err != nil {
		return fmt.Errorf("load markers: %w", err)
	}
	if matcher.Len() == 0 {
		_ = matcher.Close()
		logging.WarnWithContext(logger, "no marker images found; detection disabled", "detection_no_markers",
			logging.String(logging.FieldErrorHint, "add PNG/JPG marker images to paths.markers_dir"),
			logging.String(logging.FieldImpact, "recording continues without highlights"),
		)
		return nil
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	l.state = StateRunning
	l.cancel = cancel
	l.done = done

	go l.run(workerCtx, matcher, sessionStart, done, logger)
	logger.Info("detection started", logging.Int("markers", matcher.Len()), logging.Duration("backoff", l.backoff))
	return nil
}

// Stop cancels the worker and waits for it to exit. Calling Stop when the
// loop is not running is a logged no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		l.logger.Debug("detection not running; stop ignored")
		return
	}
	l.state = StateStopping
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.mu.Lock()
	l.state = StateIdle
	l.mu.Unlock()
	l.logger.Info("detection stopped", logging.Int("detections", l.buffer.Len()))
}

// Timestamps returns a copy of the accepted detection timestamps.
func (l *Loop) Timestamps() []time.Duration {
	return l.buffer.Snapshot()
}

// Count returns the number of accepted detections so far.
func (l *Loop) Count() int {
	return l.buffer.Len()
}

// ClearTimestamps empties the detection buffer.
func (l *Loop) ClearTimestamps() {
	l.buffer.Clear()
}

func (l *Loop) run(ctx context.Context, matcher Matcher, sessionStart time.Time, done chan struct{}, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "detection worker panicked; detection stopped", "detection_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldImpact, "no further highlights this session"),
			)
		}
		_ = matcher.Close()
		l.finish(done)
	}()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for ctx.Err() == nil {
		frame, err := l.capturer.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.ErrorWithContext(logger, "screen capture failed; detection stopped", "detection_capture_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check capture.video_format and capture.video_input"),
				logging.String(logging.FieldImpact, "recording continues without further highlights"),
			)
			return
		}

		result, err := matcher.Match(frame)
		if err != nil {
			logger.Warn("frame match failed; treating as no match", logging.Error(err))
			result = Match{}
		}

		if result.Matched {
			ts := l.now().Sub(sessionStart)
			if l.buffer.Offer(ts) {
				logger.Info("marker detected",
					logging.String("marker", result.Marker),
					logging.Float64("score", result.Score),
					logging.Duration("timestamp", ts),
				)
				if l.observe != nil {
					l.observe(ts, result)
				}
			} else {
				logger.Debug("detection debounced", logging.String("marker", result.Marker), logging.Duration("timestamp", ts))
			}
			continue
		}

		timer.Reset(l.backoff)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// finish returns the loop to Idle when the worker exits on its own.
func (l *Loop) finish(done chan struct{}) {
	l.mu.Lock()
	if l.done == done {
		if l.state == StateRunning {
			l.state = StateIdle
		}
		l.cancel()
		l.cancel = nil
		l.done = nil
	}
	l.mu.Unlock()
	close(done)
}
