package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"clipwatch/internal/api"
	"clipwatch/internal/daemonctl"
	"clipwatch/internal/deps"
	"clipwatch/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: false, Detail: "binary \"ffmpeg\" not found"},
		{Name: "FFprobe", Available: true, Resolved: "/usr/bin/ffprobe", Optional: true},
		{Name: "Extra", Available: false, Optional: true},
	}
	lines := dependencyLines(statuses, daemonctl.BuildDependencySummary(statuses), false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Summary") || !strings.Contains(lines[0], "[ERROR]") {
		t.Fatalf("expected error summary first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] binary") {
		t.Fatalf("expected required dependency error, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (/usr/bin/ffprobe)") {
		t.Fatalf("expected ready line, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] not available") {
		t.Fatalf("expected optional warning, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "FFmpeg, Extra") {
		t.Fatalf("expected missing list, got %q", lines[4])
	}
}

func TestDaemonLines(t *testing.T) {
	offline := daemonLines(&daemonctl.Snapshot{}, false)
	if len(offline) != 1 || !strings.Contains(offline[0], "Not running") {
		t.Fatalf("unexpected offline lines %q", offline)
	}

	snap := &daemonctl.Snapshot{Daemon: &ipc.StatusResponse{
		Running:    true,
		PID:        42,
		State:      "recording",
		Session:    &api.ActiveSession{Name: "20250101_120000", ElapsedSeconds: 75},
		Detections: 3,
		Encoder:    &api.EncoderStats{PID: 43, CPUPercent: 12.5, RSSBytes: 3 << 20, Nice: 10},
		Latest:     &api.StatusEvent{Message: "Recording started."},
	}}
	lines := strings.Join(daemonLines(snap, false), "\n")
	for _, want := range []string{
		"Running (pid 42)",
		"Recording 20250101_120000 for 1m15s",
		"Detections:",
		"pid 43, 12.5% CPU, 3.0 MiB RSS, nice 10",
		"Recording started.",
	} {
		requireContains(t, lines, want)
	}

	snap.Daemon.State = "stopping"
	snap.Daemon.Encoder = nil
	requireContains(t, strings.Join(daemonLines(snap, false), "\n"), "[INFO] Stopping")
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct{ got, want string }{
		{formatBytes(512), "512 B"},
		{formatBytes(1536), "1.5 KiB"},
		{formatBytes(5 << 30), "5.0 GiB"},
		{formatSeconds(0), "0s"},
		{formatSeconds(3725.4), "1h2m5s"},
		{titleCase("no_highlights"), "No Highlights"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("got %q want %q", tc.got, tc.want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestStatusOffline(t *testing.T) {
	_, configPath := newCLIConfig(t)
	out, _, err := runCLI(t, []string{"status"}, filepath.Join(t.TempDir(), "absent.sock"), configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "No sessions recorded yet")
}

func TestDaemonStopWhenNotRunning(t *testing.T) {
	_, configPath := newCLIConfig(t)
	out, _, err := runCLI(t, []string{"daemon", "stop"}, filepath.Join(t.TempDir(), "absent.sock"), configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}
