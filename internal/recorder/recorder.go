package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipwatch/internal/config"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
	"clipwatch/internal/status"
)

// Dependencies are the collaborators a Recorder drives.
type Dependencies struct {
	Encoder   Encoder
	Detector  Detector
	Extractor Extractor
	Merger    Merger
	Hub       *status.Hub
	Observer  Observer
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source for session stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Recorder) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Recorder is the session orchestrator.
type Recorder struct {
	cfg       *config.Config
	logger    *slog.Logger
	encoder   Encoder
	detector  Detector
	extractor Extractor
	merger    Merger
	hub       *status.Hub
	observer  Observer
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	state   State
	session *Session
	proc    EncoderProcess
	worker  chan struct{}
	last    *Result

	// starting is closed when an in-flight Start returns.
	starting chan struct{}
}

// New constructs an idle Recorder.
func New(cfg *config.Config, logger *slog.Logger, deps Dependencies, opts ...Option) *Recorder {
	r := &Recorder{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "recorder"),
		encoder:   deps.Encoder,
		detector:  deps.Detector,
		extractor: deps.Extractor,
		merger:    deps.Merger,
		hub:       deps.Hub,
		observer:  deps.Observer,
		now:       time.Now,
		newID:     uuid.NewString,
		state:     StateIdle,
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a session under baseFolder (the configured recordings
// directory when empty) and returns the recording path.
func (r *Recorder) Start(ctx context.Context, baseFolder string) (string, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		r.logger.Info("start rejected", logging.String("state", string(state)))
		return "", ErrAlreadyRecording
	}
	r.state = StateStarting
	starting := make(chan struct{})
	r.starting = starting
	r.mu.Unlock()
	defer r.finishStarting(starting)

	session, err := r.newSession(baseFolder)
	if err != nil {
		r.rollback(nil, nil)
		return "", err
	}
	ctx = services.WithSessionID(ctx, session.Name)
	logger := logging.WithContext(ctx, r.logger)

	r.publish(session, status.PhaseStarting, "Initializing recording process...")

	proc, err := r.encoder.Start(ctx, session.OutputPath)
	if err != nil {
		logging.ErrorWithContext(logger, "recording failed to start", "recording_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `clipwatch deps` and check the [capture] devices"),
		)
		r.publish(session, status.PhaseFailed, "Recording failed: "+err.Error())
		r.rollback(session, nil)
		return "", err
	}

	// Detection offsets are measured from the encoder launch, not from the
	// end of its startup grace period.
	session.StartTime = proc.StartedAt()
	if session.StartTime.IsZero() {
		session.StartTime = r.now()
	}
	if err := r.detector.Start(ctx, session.StartTime); err != nil {
		err = services.Wrap(services.ErrConfiguration, "recorder", "start detection", "", err)
		logging.ErrorWithContext(logger, "detection failed to start; aborting recording", "detection_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.markers_dir"),
		)
		r.publish(session, status.PhaseFailed, "Recording failed: "+err.Error())
		r.rollback(session, proc)
		return "", err
	}

	session.State = StateRecording
	r.mu.Lock()
	r.state = StateRecording
	r.session = session
	r.proc = proc
	r.mu.Unlock()

	go r.watchEncoder(ctx, session, proc)

	logger.Info("recording started",
		logging.String("session", session.ID),
		logging.String("output", session.OutputPath),
		logging.Int("encoder_pid", proc.PID()),
	)
	r.publish(session, status.PhaseRecording, "Recording started successfully.")
	r.observer.SessionStarted(ctx, *session)
	return session.OutputPath, nil
}

func (r *Recorder) newSession(baseFolder string) (*Session, error) {
	if baseFolder == "" {
		baseFolder = r.cfg.Paths.RecordingsDir
	}
	stamp := r.now()
	name := stamp.Format(FolderLayout)
	folder := filepath.Join(baseFolder, name)
	for i := 2; ; i++ {
		if _, err := os.Stat(folder); errors.Is(err, os.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s_%d", stamp.Format(FolderLayout), i)
		folder = filepath.Join(baseFolder, name)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "recorder", "create session folder", folder, err)
	}
	return &Session{
		ID:         r.newID(),
		Name:       name,
		Folder:     folder,
		OutputPath: filepath.Join(folder, "recording."+r.cfg.ContainerExt()),
		State:      StateStarting,
	}, nil
}

func (r *Recorder) finishStarting(starting chan struct{}) {
	r.mu.Lock()
	if r.starting == starting {
		r.starting = nil
	}
	r.mu.Unlock()
	close(starting)
}

// rollback returns a failed Start to idle, stopping the encoder if it launched.
func (r *Recorder) rollback(session *Session, proc EncoderProcess) {
	if proc != nil {
		if err := proc.Stop(); err != nil {
			r.logger.Warn("encoder stop during rollback failed", logging.Error(err))
		}
	}
	if session != nil {
		// Only empty folders are removed; a partial recording stays for inspection.
		_ = os.Remove(session.OutputPath)
		_ = os.Remove(session.Folder)
	}
	r.mu.Lock()
	r.state = StateIdle
	r.session = nil
	r.proc = nil
	r.mu.Unlock()
}

// watchEncoder reports an encoder that exits on its own while recording. The
// session stays in Recording; Stop still runs the highlight worker over
// whatever was written.
func (r *Recorder) watchEncoder(ctx context.Context, session *Session, proc EncoderProcess) {
	<-proc.Done()
	r.mu.Lock()
	unexpected := r.state == StateRecording && r.session != nil && r.session.ID == session.ID
	r.mu.Unlock()
	if !unexpected {
		return
	}
	attrs := []logging.Attr{
		logging.Error(proc.ExitErr()),
		logging.String(logging.FieldImpact, "recording ended early; stop the session to process highlights"),
	}
	if diag := proc.Diagnostics(); len(diag) > 0 {
		attrs = append(attrs, logging.String("last_output", diag[len(diag)-1]))
	}
	logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "encoder exited unexpectedly", "encoder_exited", attrs...)
	r.publish(session, status.PhaseFailed, "FFmpeg exited unexpectedly; stop the session to keep what was recorded.")
}

// Stop ends the recording and schedules the highlight worker. It returns once
// detection has been joined and the encoder has exited; Wait blocks for the
// worker. An encoder stop error is returned after the worker is scheduled.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateRecording {
		state := r.state
		r.mu.Unlock()
		r.logger.Info("stop rejected", logging.String("state", string(state)))
		return ErrNotRecording
	}
	r.state = StateStopping
	session := r.session
	session.State = StateStopping
	proc := r.proc
	done := make(chan struct{})
	r.worker = done
	r.mu.Unlock()

	ctx = services.WithSessionID(ctx, session.Name)
	logger := logging.WithContext(ctx, r.logger)
	r.publish(session, status.PhaseStopping, "Stopping recording, please wait...")

	r.detector.Stop()
	stopErr := proc.Stop()
	if stopErr != nil {
		logging.ErrorWithContext(logger, "encoder did not stop cleanly", "encoder_stop_failed",
			logging.Error(stopErr),
			logging.String(logging.FieldImpact, "recording may be truncated; highlights still attempted"),
		)
	}

	workerCtx := context.WithoutCancel(ctx)
	go r.process(workerCtx, *session, done)
	return stopErr
}

// Wait blocks until the most recent highlight worker has finished or ctx ends.
func (r *Recorder) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.worker
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops an active recording and waits for its highlights. A Start in
// progress is allowed to finish first. Errors are logged, never returned.
func (r *Recorder) Close(ctx context.Context) {
	r.mu.Lock()
	starting := r.starting
	r.mu.Unlock()
	if starting != nil {
		r.logger.Info("waiting for recording start before shutdown")
		select {
		case <-starting:
		case <-ctx.Done():
			r.logger.Warn("recording start did not finish before shutdown", logging.Error(ctx.Err()))
			return
		}
	}

	r.mu.Lock()
	recording := r.state == StateRecording
	r.mu.Unlock()
	if recording {
		r.logger.Info("stopping active recording for shutdown")
		if err := r.Stop(ctx); err != nil {
			r.logger.Warn("stop during shutdown reported an error", logging.Error(err))
		}
	}
	if err := r.Wait(ctx); err != nil {
		r.logger.Warn("highlight processing did not finish before shutdown", logging.Error(err))
	}
}

// Snapshot returns the current state and session.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{State: r.state, Last: r.last}
	if r.session != nil {
		session := *r.session
		snap.Session = &session
		snap.Detections = r.detector.Count()
	}
	if r.proc != nil && !r.proc.Exited() {
		snap.EncoderPID = r.proc.PID()
	}
	return snap
}

// EncoderProcess returns the running encoder, if any.
func (r *Recorder) EncoderProcess() (EncoderProcess, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil || r.state != StateRecording {
		return nil, false
	}
	return r.proc, true
}

func (r *Recorder) publish(session *Session, phase status.Phase, message string) {
	evt := status.Event{Phase: phase, Message: message}
	if session != nil {
		evt.SessionID = session.Name
	}
	r.hub.PublishEvent(evt)
}
