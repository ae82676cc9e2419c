package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"clipwatch/internal/capture"
	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/daemon"
	"clipwatch/internal/daemonctl"
	"clipwatch/internal/deps"
	"clipwatch/internal/detection"
	"clipwatch/internal/encoder"
	"clipwatch/internal/highlights"
	"clipwatch/internal/ipc"
	"clipwatch/internal/logging"
	"clipwatch/internal/preflight"
	"clipwatch/internal/recorder"
	"clipwatch/internal/status"
	"clipwatch/internal/vision"
)

const hubCapacity = 1024

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the clipwatch daemon runtime loop and blocks until a signal or
// a Shutdown request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logPath := logging.RunLogPath(cfg.Paths.LogDir, "daemon", time.Now())
	logger, err := logging.NewWithLogFile(cfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := logging.PointCurrentLog(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.RunLogPattern, Exclude: []string{logPath}},
	)
	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	pidPath := daemonctl.PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open session catalog", logging.Error(err))
		return err
	}

	hub := status.NewHub(hubCapacity)
	d, err := daemon.New(cfg, store, logger, NewRecorderDependencies(cfg, logger, hub))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the other clipwatch daemon or remove a stale lock file"),
			logging.String(logging.FieldImpact, "no recordings can be started"),
		)
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger, ipc.WithShutdown(cancel))
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("clipwatch daemon ready",
		logging.String("socket", cfg.SocketPath()),
		logging.String("log_path", logPath),
		logging.Int("pid", os.Getpid()),
	)

	<-signalCtx.Done()
	logger.Info("clipwatch daemon shutting down")
	// Finish an active recording while IPC still answers status requests.
	d.Stop()
	return nil
}

// NewRecorderDependencies wires the production encoder, capture, detection
// and highlight collaborators. Progress messages from the subprocess stages
// go to hub.
func NewRecorderDependencies(cfg *config.Config, logger *slog.Logger, hub *status.Hub) recorder.Dependencies {
	minGap := time.Duration(cfg.Detection.MinGapSeconds * float64(time.Second))
	backoff := time.Duration(cfg.Detection.BackoffMillis) * time.Millisecond

	loop := detection.NewLoop(
		capture.NewGrabber(cfg, logger),
		vision.NewMatcherFactory(cfg, logger),
		minGap,
		logger,
		detection.WithBackoff(backoff),
		detection.WithObserver(func(ts time.Duration, m detection.Match) {
			hub.Note(fmt.Sprintf("Marker %q detected at %s (score %.2f).", m.Marker, ts.Round(time.Millisecond), m.Score))
		}),
	)

	return recorder.Dependencies{
		Encoder:   recorder.LauncherAdapter{Launcher: encoder.NewLauncher(cfg, logger, encoder.WithNotifier(hub.Note))},
		Detector:  loop,
		Extractor: highlights.NewExtractor(cfg, logger, highlights.WithNotifier(hub.Note)),
		Merger:    highlights.NewMerger(cfg, logger, highlights.WithNotifier(hub.Note)),
		Hub:       hub,
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg, vision.ListMarkerFiles)
	failed := preflight.Failed(results)
	logger.Info("preflight complete",
		logging.Int("checks", len(results)),
		logging.Int("failed", len(failed)),
	)
	for _, result := range failed {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "recordings may fail or produce no highlights"),
		)
	}
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := deps.CheckFFmpeg(cfg.Encoder.Binary)
	ffprobe := cfg.FFprobeBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", ffmpeg.Available),
		logging.String("ffmpeg_binary", ffmpeg.Resolved),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
		logging.String("capture_video", cfg.Capture.VideoFormat+":"+cfg.Capture.VideoInput),
		logging.String("capture_audio", cfg.Capture.AudioFormat+":"+cfg.Capture.AudioInput),
		logging.String("container", cfg.ContainerExt()),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.API.Bind),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
