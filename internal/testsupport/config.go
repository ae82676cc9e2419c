package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Capture settings are pinned to the X11 defaults so argument assertions do not
// depend on the host OS, and niceness is zeroed so tests never need privileges.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfgVal.Paths.MarkersDir = filepath.Join(base, "markers")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Capture = config.Capture{
		VideoFormat: "x11grab",
		VideoInput:  ":0.0",
		AudioFormat: "pulse",
		AudioInput:  "default",
		Framerate:   30,
	}
	cfgVal.Encoder.Niceness = 0
	cfgVal.Encoder.GracefulStopSeconds = 1
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.API.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStubFFmpeg installs the FFmpegStub script as the configured encoder
// binary and clears CLIPWATCH_FFMPEG for the duration of the test.
func WithStubFFmpeg() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Encoder.Binary = WriteExecutable(b.t, binDir, "ffmpeg", FFmpegStub)
		b.t.Setenv("CLIPWATCH_FFMPEG", "")
	}
}

// WithStubbedBinaries writes no-op executables for the provided names and
// prepends their directory to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteExecutable(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RecordingsDir)
}

// StubCallsPath returns the file the ffmpeg stub appends its argument lists to.
func StubCallsPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Encoder.Binary), "ffmpeg.calls")
}

// StubFramePath returns the file the ffmpeg stub prints for frame grabs.
func StubFramePath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Encoder.Binary), "frame.png")
}
