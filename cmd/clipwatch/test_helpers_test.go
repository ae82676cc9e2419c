package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
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

type cliTestEnv struct {
	cfg        *config.Config
	store      *catalog.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

// newCLIConfig writes a stub-backed configuration file under a temp HOME.
func newCLIConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CLIPWATCH_NTFY_TOPIC", "")
	t.Setenv("CLIPWATCH_API_TOKEN", "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	configPath := filepath.Join(homeDir, ".config", "clipwatch", "config.toml")
	writeTestConfig(t, configPath, cfg)
	return cfg, configPath
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg, configPath := newCLIConfig(t)
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

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon Start: %v", err)
	}

	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
