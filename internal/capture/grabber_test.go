package capture

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"clipwatch/internal/logging"
	"clipwatch/internal/services"
	"clipwatch/internal/testsupport"
)

func TestGrabberArgs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Capture.VideoSize = "1920x1080"
	g := NewGrabber(cfg, logging.NewNop())

	want := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "x11grab", "-video_size", "1920x1080", "-i", ":0.0",
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "pipe:1",
	}
	if got := g.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args\n got %v\nwant %v", got, want)
	}
}

func TestVideoOnlyInput(t *testing.T) {
	cases := []struct {
		format, input, want string
	}{
		{"avfoundation", "1:0", "1:none"},
		{"avfoundation", "Capture screen 0", "Capture screen 0:none"},
		{"dshow", "video=screen-capture-recorder:audio=virtual-audio-capturer", "video=screen-capture-recorder"},
		{"dshow", "audio=virtual-audio-capturer:video=screen-capture-recorder", "video=screen-capture-recorder"},
		{"x11grab", ":0.0+100,200", ":0.0+100,200"},
		{"gdigrab", "desktop", "desktop"},
	}
	for _, tc := range cases {
		if got := VideoOnlyInput(tc.format, tc.input); got != tc.want {
			t.Fatalf("VideoOnlyInput(%q, %q) = %q, want %q", tc.format, tc.input, got, tc.want)
		}
	}
}

func TestCaptureReturnsStdout(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	if err := os.WriteFile(testsupport.StubFramePath(cfg), []byte("\x89PNG frame"), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	frame, err := NewGrabber(cfg, logging.NewNop()).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(frame) != "\x89PNG frame" {
		t.Fatalf("unexpected frame %q", frame)
	}
	calls := testsupport.ReadLines(t, testsupport.StubCallsPath(cfg))
	if len(calls) != 1 || !strings.Contains(calls[0], "image2pipe") {
		t.Fatalf("unexpected stub calls %v", calls)
	}
}

func TestCaptureEmptyOutputFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())

	_, err := NewGrabber(cfg, logging.NewNop()).Capture(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestCaptureFailureCarriesStderr(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	t.Setenv("CLIPWATCH_STUB_FAIL_MATCH", "image2pipe")

	_, err := NewGrabber(cfg, logging.NewNop()).Capture(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "stub failure") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestCaptureTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Binary = testsupport.WriteExecutable(t, t.TempDir(), "ffmpeg", "#!/bin/sh\nexec sleep 5\n")
	t.Setenv("CLIPWATCH_FFMPEG", "")

	_, err := NewGrabber(cfg, logging.NewNop(), WithTimeout(50*time.Millisecond)).Capture(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestCaptureMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Binary = "/nonexistent/ffmpeg"
	t.Setenv("CLIPWATCH_FFMPEG", "")

	_, err := NewGrabber(cfg, logging.NewNop()).Capture(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
