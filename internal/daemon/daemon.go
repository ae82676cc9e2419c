package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/encoder"
	"clipwatch/internal/logging"
	"clipwatch/internal/media/ffprobe"
	"clipwatch/internal/notifications"
	"clipwatch/internal/recorder"
	"clipwatch/internal/services"
	"clipwatch/internal/status"
)

// LockFileName is the single-instance lock created in the log directory.
const LockFileName = "clipwatch.lock"

const defaultShutdownTimeout = 2 * time.Minute

// ErrNotRunning rejects recording commands before Start or after Stop.
var ErrNotRunning = services.Wrap(services.ErrValidation, "daemon", "", "daemon is not running", nil)

// ProbeFunc inspects a media file. It is ffprobe.Inspect outside tests.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option customizes a Daemon.
type Option func(*Daemon)

// WithNotifier overrides the notification service built from config.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) {
		if svc != nil {
			d.notifier = svc
		}
	}
}

// WithProbe overrides the merged-output inspection.
func WithProbe(fn ProbeFunc) Option {
	return func(d *Daemon) {
		if fn != nil {
			d.probe = fn
		}
	}
}

// WithRecorderOptions passes options through to recorder.New.
func WithRecorderOptions(opts ...recorder.Option) Option {
	return func(d *Daemon) {
		d.recorderOpts = append(d.recorderOpts, opts...)
	}
}

// WithShutdownTimeout bounds how long Stop waits for highlight processing.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(d *Daemon) {
		if timeout > 0 {
			d.shutdownTimeout = timeout
		}
	}
}

// Daemon owns the recorder, the session catalog and notifications, and
// enforces single-instance execution.
type Daemon struct {
	cfg             *config.Config
	logger          *slog.Logger
	store           *catalog.Store
	recorder        *recorder.Recorder
	hub             *status.Hub
	notifier        notifications.Service
	probe           ProbeFunc
	recorderOpts    []recorder.Option
	shutdownTimeout time.Duration
	api             *apiServer
	logPath         string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	State        recorder.State
	Session      *recorder.Session
	Detections   int
	Encoder      *encoder.Stats
	Latest       *status.Event
	Summary      catalog.Summary
	CatalogPath  string
	LockFilePath string
	LogPath      string
	APIBind      string
}

// New constructs a daemon around the recorder collaborators in deps. The
// daemon becomes the recorder's observer; deps.Observer is ignored.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, deps recorder.Dependencies, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and session catalog")
	}
	if deps.Encoder == nil || deps.Detector == nil || deps.Extractor == nil || deps.Merger == nil {
		return nil, errors.New("daemon requires encoder, detector, extractor, and merger")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Hub == nil {
		deps.Hub = status.NewHub(256)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, LockFileName)
	d := &Daemon{
		cfg:             cfg,
		logger:          logging.NewComponentLogger(logger, "daemon"),
		store:           store,
		hub:             deps.Hub,
		notifier:        notifications.NewService(cfg),
		probe:           ffprobe.Inspect,
		shutdownTimeout: defaultShutdownTimeout,
		logPath:         filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
		lockPath:        lockPath,
		lock:            flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}

	deps.Observer = d
	d.recorder = recorder.New(cfg, logger, deps, d.recorderOpts...)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, marks sessions left over from a previous
// run as interrupted, and starts the HTTP API when configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipwatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if marked, err := d.store.MarkInterrupted(d.ctx); err != nil {
		logging.WarnWithContext(d.logger, "could not mark stale sessions", "catalog_recovery_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "sessions from a crashed run stay listed as recording"),
		)
	} else if marked > 0 {
		d.logger.Info("marked interrupted sessions", logging.Int64("count", marked))
	}

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.hub.Publish(status.PhaseIdle, "Ready.")
	d.logger.Info("clipwatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop finishes an active recording, waits for its highlights, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	d.recorder.Close(stopCtx)
	cancel()

	d.api.stop(context.Background())
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clipwatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Hub exposes the status stream.
func (d *Daemon) Hub() *status.Hub {
	return d.hub
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// StartRecording begins a session under folder, or under the configured
// recordings directory when folder is empty.
func (d *Daemon) StartRecording(ctx context.Context, folder string) (recorder.Session, error) {
	if !d.running.Load() {
		return recorder.Session{}, ErrNotRunning
	}
	folder = strings.TrimSpace(folder)
	if folder != "" {
		expanded, err := config.ExpandPath(folder)
		if err != nil {
			return recorder.Session{}, services.Wrap(services.ErrValidation, "daemon", "resolve folder", folder, err)
		}
		if err := os.MkdirAll(expanded, 0o755); err != nil {
			return recorder.Session{}, services.Wrap(services.ErrConfiguration, "daemon", "create folder", expanded, err)
		}
		folder = expanded
	}
	if _, err := d.recorder.Start(ctx, folder); err != nil {
		return recorder.Session{}, err
	}
	snap := d.recorder.Snapshot()
	if snap.Session == nil {
		return recorder.Session{}, errors.New("recording ended before it could be reported")
	}
	return *snap.Session, nil
}

// StopRecording ends the active recording. Highlight processing continues in
// the background; progress is visible on the status stream.
func (d *Daemon) StopRecording(ctx context.Context) (recorder.Session, error) {
	if !d.running.Load() {
		return recorder.Session{}, ErrNotRunning
	}
	snap := d.recorder.Snapshot()
	if snap.State != recorder.StateRecording || snap.Session == nil {
		return recorder.Session{}, recorder.ErrNotRecording
	}
	session := *snap.Session
	d.markProcessing(ctx, session.ID)

	err := d.recorder.Stop(ctx)
	if errors.Is(err, recorder.ErrNotRecording) {
		return recorder.Session{}, err
	}
	session.State = recorder.StateStopping
	return session, err
}

// WaitIdle blocks until highlight processing for the last session finishes.
func (d *Daemon) WaitIdle(ctx context.Context) error {
	return d.recorder.Wait(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	snap := d.recorder.Snapshot()
	st := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		State:        snap.State,
		Session:      snap.Session,
		Detections:   snap.Detections,
		CatalogPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
	}
	if d.api != nil {
		st.APIBind = d.api.address()
	}
	if proc, ok := d.recorder.EncoderProcess(); ok {
		if stats, err := proc.Stats(ctx); err == nil {
			st.Encoder = &stats
		} else {
			d.logger.Debug("encoder stats unavailable", logging.Error(err))
		}
	}
	if latest, ok := d.hub.Latest(); ok {
		st.Latest = &latest
	}
	summary, err := d.store.Summarize(ctx)
	if err != nil {
		d.logger.Warn("session summary unavailable", logging.Error(err))
	}
	st.Summary = summary
	return st
}

// Events returns status events after since. With follow set the call waits
// for the next event when none are pending.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, follow bool) ([]status.Event, uint64, error) {
	return d.hub.Fetch(ctx, since, limit, follow)
}

// Sessions lists catalogued sessions newest first.
func (d *Daemon) Sessions(ctx context.Context, limit int, statuses ...catalog.Status) ([]*catalog.Session, error) {
	return d.store.List(ctx, limit, statuses...)
}

// Session returns one catalogued session or nil when unknown.
func (d *Daemon) Session(ctx context.Context, id string) (*catalog.Session, error) {
	return d.store.Get(ctx, id)
}

// RemoveSession deletes a catalog row. Recording files are left on disk.
func (d *Daemon) RemoveSession(ctx context.Context, id string) (bool, error) {
	snap := d.recorder.Snapshot()
	if snap.Session != nil && snap.Session.ID == id {
		return false, services.Wrap(services.ErrValidation, "daemon", "remove session", "session is still active", nil)
	}
	return d.store.Remove(ctx, id)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) markProcessing(ctx context.Context, id string) {
	row, err := d.store.Get(ctx, id)
	if err != nil || row == nil {
		return
	}
	row.Status = catalog.StatusProcessing
	if err := d.store.Update(ctx, row); err != nil {
		d.logger.Debug("could not mark session processing", logging.String("session", id), logging.Error(err))
	}
}

// API converts the status into its wire representation.
func (s Status) API() api.DaemonStatus {
	dto := api.DaemonStatus{
		Running:      s.Running,
		PID:          s.PID,
		State:        string(s.State),
		Session:      api.FromActiveSession(s.Session, time.Now()),
		Detections:   s.Detections,
		Encoder:      api.FromEncoderStats(s.Encoder),
		Sessions:     api.FromSummary(s.Summary),
		CatalogPath:  s.CatalogPath,
		LockFilePath: s.LockFilePath,
		LogPath:      s.LogPath,
		APIBind:      s.APIBind,
	}
	if s.Latest != nil {
		latest := api.FromEvent(*s.Latest)
		dto.Latest = &latest
	}
	return dto
}
