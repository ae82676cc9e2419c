package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/daemon"
	"clipwatch/internal/encoder"
	"clipwatch/internal/highlights"
	"clipwatch/internal/logging"
	"clipwatch/internal/media/ffprobe"
	"clipwatch/internal/notifications"
	"clipwatch/internal/recorder"
	"clipwatch/internal/testsupport"
)

type stubDetector struct {
	mu         sync.Mutex
	timestamps []time.Duration
	running    bool
}

func (d *stubDetector) Start(context.Context, time.Time) error {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
	return nil
}

func (d *stubDetector) Stop() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
}

func (d *stubDetector) Timestamps() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.timestamps...)
}

func (d *stubDetector) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timestamps)
}

func (d *stubDetector) ClearTimestamps() {
	d.mu.Lock()
	d.timestamps = nil
	d.mu.Unlock()
}

type publishedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{event: event, payload: payload})
	return nil
}

func (n *recordingNotifier) snapshot() []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]publishedEvent(nil), n.events...)
}

type fixture struct {
	cfg      *config.Config
	store    *catalog.Store
	det      *stubDetector
	notifier *recordingNotifier
	daemon   *daemon.Daemon
}

func newFixture(t *testing.T, timestamps ...time.Duration) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	f := &fixture{
		cfg:      cfg,
		store:    testsupport.MustOpenCatalog(t, cfg),
		det:      &stubDetector{timestamps: timestamps},
		notifier: &recordingNotifier{},
	}
	logger := logging.NewNop()
	probe := func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: "10.5", Size: "2048"}}, nil
	}
	d, err := daemon.New(cfg, f.store, logger, recorder.Dependencies{
		Encoder:   recorder.LauncherAdapter{Launcher: encoder.NewLauncher(cfg, logger, encoder.WithStartupGrace(0))},
		Detector:  f.det,
		Extractor: highlights.NewExtractor(cfg, logger, highlights.WithLeadIn(highlights.FixedLeadIn(5*time.Second))),
		Merger:    highlights.NewMerger(cfg, logger),
	}, daemon.WithNotifier(f.notifier), daemon.WithProbe(probe), daemon.WithShutdownTimeout(10*time.Second))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	f.daemon = d
	t.Cleanup(func() {
		d.Close()
	})
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.daemon.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestDaemonStartStop(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	status := f.daemon.Status(context.Background())
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.State != recorder.StateIdle {
		t.Fatalf("expected idle recorder, got %s", status.State)
	}
	if _, err := os.Stat(status.LockFilePath); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
	if status.Latest == nil || status.Latest.Message != "Ready." {
		t.Fatalf("expected ready event, got %+v", status.Latest)
	}

	if err := f.daemon.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	f.daemon.Stop()
	if f.daemon.Running() {
		t.Fatal("expected daemon stopped")
	}
	f.daemon.Stop()
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	other, err := daemon.New(f.cfg, f.store, logging.NewNop(), recorder.Dependencies{
		Encoder:   recorder.LauncherAdapter{Launcher: encoder.NewLauncher(f.cfg, nil)},
		Detector:  &stubDetector{},
		Extractor: highlights.NewExtractor(f.cfg, nil),
		Merger:    highlights.NewMerger(f.cfg, nil),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if _, err := daemon.New(cfg, store, nil, recorder.Dependencies{}); err == nil {
		t.Fatal("expected error without recorder collaborators")
	}
}

func TestRecordingRejectedWhileStopped(t *testing.T) {
	f := newFixture(t)
	if _, err := f.daemon.StartRecording(context.Background(), ""); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := f.daemon.StopRecording(context.Background()); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestRecordingWithDetectionsIsCatalogued(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.start(t)
	ctx := context.Background()

	session, err := f.daemon.StartRecording(ctx, "")
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	row, err := f.store.Get(ctx, session.ID)
	if err != nil || row == nil {
		t.Fatalf("expected catalog row, got %v, %v", row, err)
	}
	if row.Status != catalog.StatusRecording || row.Name != session.Name {
		t.Fatalf("unexpected row at start %+v", row)
	}
	if _, err := f.daemon.StartRecording(ctx, ""); !errors.Is(err, recorder.ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}

	if _, err := f.daemon.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	f.waitIdle(t)

	row, err = f.store.Get(ctx, session.ID)
	if err != nil || row == nil {
		t.Fatalf("Get after stop: %v, %v", row, err)
	}
	if row.Status != catalog.StatusComplete {
		t.Fatalf("expected complete, got %s (%s)", row.Status, row.ErrorMessage)
	}
	if row.Detections != 1 || row.Clips != 1 {
		t.Fatalf("unexpected counts detections=%d clips=%d", row.Detections, row.Clips)
	}
	if row.MergedPath != filepath.Join(session.Folder, highlights.MergedBaseName+".flv") {
		t.Fatalf("unexpected merged path %q", row.MergedPath)
	}
	if row.MergedDuration != 10.5 {
		t.Fatalf("expected probed duration, got %v", row.MergedDuration)
	}
	if row.EndedAt == nil || row.RecordingBytes == 0 {
		t.Fatalf("expected end time and recording size, got %+v", row)
	}

	events := f.notifier.snapshot()
	if len(events) != 1 || events[0].event != notifications.EventHighlightsReady {
		t.Fatalf("expected highlights notification, got %+v", events)
	}
	if events[0].payload["clips"] != 1 {
		t.Fatalf("unexpected payload %+v", events[0].payload)
	}
}

func TestRecordingWithoutDetections(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	folder := filepath.Join(testsupport.BaseDir(f.cfg), "custom")
	session, err := f.daemon.StartRecording(ctx, folder)
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if filepath.Dir(session.Folder) != folder {
		t.Fatalf("expected session under %s, got %s", folder, session.Folder)
	}
	if _, err := f.daemon.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	f.waitIdle(t)

	row, _ := f.store.Get(ctx, session.ID)
	if row == nil || row.Status != catalog.StatusNoHighlights {
		t.Fatalf("expected no_highlights row, got %+v", row)
	}
	events := f.notifier.snapshot()
	if len(events) != 1 || events[0].event != notifications.EventNoHighlights {
		t.Fatalf("expected no-highlights notification, got %+v", events)
	}
}

func TestStopRecordingWhenIdle(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	if _, err := f.daemon.StopRecording(context.Background()); !errors.Is(err, recorder.ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestStartMarksStaleSessionsInterrupted(t *testing.T) {
	f := newFixture(t)
	stale := testsupport.NewSession(t, f.store, "stale", time.Now().Add(-time.Hour))
	f.start(t)

	row, err := f.store.Get(context.Background(), stale.ID)
	if err != nil || row == nil {
		t.Fatalf("Get: %v, %v", row, err)
	}
	if row.Status != catalog.StatusInterrupted {
		t.Fatalf("expected interrupted, got %s", row.Status)
	}
}

func TestDaemonStopFinishesActiveRecording(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	session, err := f.daemon.StartRecording(ctx, "")
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	f.daemon.Stop()

	row, _ := f.store.Get(ctx, session.ID)
	if row == nil || !row.Status.Terminal() {
		t.Fatalf("expected terminal row after shutdown, got %+v", row)
	}
}

func TestRemoveSession(t *testing.T) {
	f := newFixture(t)
	testsupport.NewSession(t, f.store, "old", time.Now().Add(-time.Hour))
	f.start(t)

	removed, err := f.daemon.RemoveSession(context.Background(), "old")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}
	sessions, err := f.daemon.Sessions(context.Background(), 0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty catalog, got %d", len(sessions))
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	f := newFixture(t)
	sent, message, err := f.daemon.TestNotification(context.Background())
	if err != nil || sent {
		t.Fatalf("expected not sent without error, got %v, %v", sent, err)
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestStatusAPIConversion(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	testsupport.NewSession(t, f.store, "row", time.Now())

	dto := f.daemon.Status(context.Background()).API()
	if !dto.Running || dto.State != "idle" {
		t.Fatalf("unexpected status %+v", dto)
	}
	if dto.Sessions.Total != 1 || dto.Sessions.Active != 1 {
		t.Fatalf("unexpected summary %+v", dto.Sessions)
	}
	if dto.Latest == nil || dto.Latest.Phase != "idle" {
		t.Fatalf("expected latest event, got %+v", dto.Latest)
	}
}
