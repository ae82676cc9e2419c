package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"clipwatch/internal/daemon"
	"clipwatch/internal/encoder"
	"clipwatch/internal/highlights"
	"clipwatch/internal/ipc"
	"clipwatch/internal/logging"
	"clipwatch/internal/recorder"
	"clipwatch/internal/testsupport"
)

type idleDetector struct{}

func (idleDetector) Start(context.Context, time.Time) error { return nil }
func (idleDetector) Stop() {}
func (idleDetector) Timestamps() []time.Duration { return nil }
func (idleDetector) Count() int { return 0 }
func (idleDetector) ClearTimestamps() {}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenCatalog(t, cfg)
	logger := logging.NewNop()
	d, err := daemon.New(cfg, store, logger, recorder.Dependencies{
		Encoder:   recorder.LauncherAdapter{Launcher: encoder.NewLauncher(cfg, logger, encoder.WithStartupGrace(0))},
		Detector:  idleDetector{},
		Extractor: highlights.NewExtractor(cfg, logger),
		Merger:    highlights.NewMerger(cfg, logger),
	}, daemon.WithShutdownTimeout(10*time.Second))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon Start: %v", err)
	}

	var shutdowns atomic.Int32
	shutdownDone := make(chan struct{})
	socket := filepath.Join(cfg.Paths.LogDir, "clipwatch.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger, ipc.WithShutdown(func() {
		shutdowns.Add(1)
		close(shutdownDone)
	}))
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || status.State != "idle" {
		t.Fatalf("unexpected status %+v", status)
	}

	if _, err := client.Stop(false); err == nil {
		t.Fatal("expected Stop to fail while idle")
	}

	startResp, err := client.Start("")
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if startResp.Session.ID == "" || startResp.Session.State != "recording" {
		t.Fatalf("unexpected start response %+v", startResp.Session)
	}
	if _, err := client.Start(""); err == nil {
		t.Fatal("expected second Start to fail")
	}

	events, err := client.Events(ipc.EventsRequest{})
	if err != nil {
		t.Fatalf("Events RPC failed: %v", err)
	}
	if len(events.Events) == 0 || events.Next == 0 {
		t.Fatalf("expected status events, got %+v", events)
	}

	stopResp, err := client.Stop(true)
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if stopResp.Session.ID != startResp.Session.ID {
		t.Fatalf("stopped %q, expected %q", stopResp.Session.ID, startResp.Session.ID)
	}
	if stopResp.Outcome == nil || stopResp.Outcome.Status != "no_highlights" {
		t.Fatalf("unexpected outcome %+v", stopResp.Outcome)
	}

	follow, err := client.Events(ipc.EventsRequest{Since: events.Next, Limit: 100})
	if err != nil {
		t.Fatalf("Events RPC failed: %v", err)
	}
	if len(follow.Events) == 0 {
		t.Fatal("expected processing events after stop")
	}
	idle, err := client.Events(ipc.EventsRequest{Since: follow.Next, Follow: true, WaitMillis: 50})
	if err != nil {
		t.Fatalf("Events follow failed: %v", err)
	}
	if len(idle.Events) != 0 || idle.Next != follow.Next {
		t.Fatalf("expected empty follow page, got %+v", idle)
	}

	list, err := client.SessionList(0, nil)
	if err != nil {
		t.Fatalf("SessionList failed: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].ID != startResp.Session.ID {
		t.Fatalf("unexpected sessions %+v", list.Sessions)
	}
	if _, err := client.SessionList(0, []string{"bogus"}); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	filtered, err := client.SessionList(0, []string{"complete"})
	if err != nil {
		t.Fatalf("SessionList filter failed: %v", err)
	}
	if len(filtered.Sessions) != 0 {
		t.Fatalf("expected no complete sessions, got %d", len(filtered.Sessions))
	}

	describe, err := client.SessionDescribe(startResp.Session.ID)
	if err != nil {
		t.Fatalf("SessionDescribe failed: %v", err)
	}
	if describe.Session.RecordingPath == "" {
		t.Fatalf("expected recording path, got %+v", describe.Session)
	}
	if _, err := client.SessionDescribe("missing"); err == nil {
		t.Fatal("expected missing session error")
	}

	logPath := d.LogPath()
	lines := `{"msg":"first","session_id":"a"}` + "\n" + `{"msg":"second","session_id":"b"}` + "\n" + `{"msg":"third","session_id":"a"}` + "\n"
	if err := os.WriteFile(logPath, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(logResp.Lines) != 2 || !strings.Contains(logResp.Lines[1], "third") {
		t.Fatalf("unexpected log tail %#v", logResp.Lines)
	}
	sessionLogs, err := client.LogTail(ipc.LogTailRequest{Offset: 0, SessionID: "a"})
	if err != nil {
		t.Fatalf("LogTail session failed: %v", err)
	}
	if len(sessionLogs.Lines) != 2 || sessionLogs.Offset != logResp.Offset {
		t.Fatalf("unexpected session log tail %#v offset=%d", sessionLogs.Lines, sessionLogs.Offset)
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected notification response %+v", notifyResp)
	}

	removed, err := client.SessionRemove([]string{startResp.Session.ID, "missing"})
	if err != nil {
		t.Fatalf("SessionRemove failed: %v", err)
	}
	if removed.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed.Removed)
	}

	shutdown, err := client.Shutdown()
	if err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !shutdown.Accepted {
		t.Fatal("expected shutdown to be accepted")
	}
	select {
	case <-shutdownDone:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown func was not invoked")
	}
	if _, err := client.Shutdown(); err != nil {
		t.Fatalf("repeated Shutdown failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := shutdowns.Load(); got != 1 {
		t.Fatalf("expected shutdown once, got %d", got)
	}
}

func TestShutdownRejectedWithoutHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenCatalog(t, cfg)
	d, err := daemon.New(cfg, store, nil, recorder.Dependencies{
		Encoder:   recorder.LauncherAdapter{Launcher: encoder.NewLauncher(cfg, nil)},
		Detector:  idleDetector{},
		Extractor: highlights.NewExtractor(cfg, nil),
		Merger:    highlights.NewMerger(cfg, nil),
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	socket := filepath.Join(cfg.Paths.LogDir, "clipwatch.sock")
	srv, err := ipc.NewServer(context.Background(), socket, d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Shutdown(); err == nil {
		t.Fatal("expected shutdown to be rejected")
	}
	if _, err := client.Start(""); err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("expected not running error, got %v", err)
	}
}
