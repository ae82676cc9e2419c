package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipwatch/internal/daemonctl"
	"clipwatch/internal/deps"
	"clipwatch/internal/testsupport"
)

func TestBuildDependencySummary(t *testing.T) {
	tests := []struct {
		name     string
		statuses []deps.Status
		severity string
		detail   string
	}{
		{"none", nil, "info", "No dependency checks configured"},
		{"all available", []deps.Status{{Available: true}, {Available: true}}, "ok", "2/2 available"},
		{"optional missing", []deps.Status{{Available: true}, {Optional: true}}, "warn", "1/2 available (missing: 0 required, 1 optional)"},
		{"required missing", []deps.Status{{}, {Optional: true}}, "error", "0/2 available (missing: 1 required, 1 optional)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := daemonctl.BuildDependencySummary(tc.statuses)
			if got.Severity != tc.severity || got.Detail != tc.detail {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), daemonctl.PIDFileName)
	if err := os.WriteFile(pidPath, []byte("0\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
}

func TestForceKillProcessRequiresPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), daemonctl.PIDFileName)
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error without pid")
	}
}

func TestOfflineDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	socket := filepath.Join(t.TempDir(), "clipwatch.sock")

	alive, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil || alive || pid != 0 {
		t.Fatalf("expected offline daemon, got alive=%v pid=%d err=%v", alive, pid, err)
	}
	if err := daemonctl.WaitForShutdown(socket, time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
	if _, err := daemonctl.StopAndTerminate(socket, cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	store := testsupport.MustOpenCatalog(t, cfg)
	testsupport.NewSession(t, store, "one", time.Now())

	markers := func(string) ([]string, error) { return []string{"kill.png"}, nil }
	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), filepath.Join(t.TempDir(), "none.sock"), cfg, markers)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Daemon != nil {
		t.Fatal("expected no daemon status when offline")
	}
	if snap.Sessions.Total != 1 {
		t.Fatalf("expected catalog fallback summary, got %+v", snap.Sessions)
	}
	if len(snap.Dependencies) == 0 || !snap.Dependencies[0].Available {
		t.Fatalf("expected stub ffmpeg to be available, got %+v", snap.Dependencies)
	}
	names := map[string]bool{}
	for _, check := range snap.Checks {
		names[check.Name] = true
	}
	for _, want := range []string{"Recordings", "Markers", "Notifications", "HTTP API"} {
		if !names[want] {
			t.Fatalf("missing %q check in %+v", want, snap.Checks)
		}
	}
}

func TestBuildStatusSnapshotRequiresConfig(t *testing.T) {
	if _, err := daemonctl.BuildStatusSnapshot(context.Background(), "", nil, nil); err == nil {
		t.Fatal("expected error without config")
	}
}
