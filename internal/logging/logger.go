package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipwatch/internal/config"
)

// LogFileName is the daemon log file written inside the configured log directory.
const LogFileName = "clipwatch.log"

// Options selects level, format and destinations. OutputPaths accepts
// "stdout", "stderr" or file paths and defaults to stdout.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
}

// New builds a logger from opts. Debug level adds caller locations.
func New(opts Options) (*slog.Logger, error) {
	handler, err := newHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func newHandler(opts Options) (slog.Handler, error) {
	build, ok := handlerBuilders[strings.ToLower(strings.TrimSpace(opts.Format))]
	if !ok {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	writer, err := openWriters(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	return build(writer, levelVar, levelVar.Level() <= slog.LevelDebug), nil
}

var handlerBuilders = map[string]func(io.Writer, *slog.LevelVar, bool) slog.Handler{
	"":        newPrettyHandler,
	"console": newPrettyHandler,
	"json":    newJSONHandler,
}

// NewFromConfig creates a logger with the configured format on stdout and
// JSON lines in LogFileName under the log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return NewWithLogFile(cfg, "")
	}
	return NewWithLogFile(cfg, filepath.Join(cfg.Paths.LogDir, LogFileName))
}

// NewWithLogFile is NewFromConfig with an explicit JSON log file. An empty
// path logs to stdout only.
func NewWithLogFile(cfg *config.Config, logPath string) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	console, err := newHandler(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(logPath) == "" {
		return slog.New(console), nil
	}

	file, err := newHandler(Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		return nil, err
	}
	return slog.New(TeeHandler(console, file)), nil
}

// RunLogPath names a per-run log file such as clipwatch-daemon-20250102T150405.000Z.log.
func RunLogPath(logDir, kind string, now time.Time) string {
	runID := now.UTC().Format("20060102T150405.000Z")
	return filepath.Join(logDir, fmt.Sprintf("clipwatch-%s-%s.log", kind, runID))
}

// RunLogPattern matches files produced by RunLogPath for retention.
const RunLogPattern = "clipwatch-*.log"

// PointCurrentLog makes LogFileName in logDir refer to target, preferring a
// symlink and falling back to a hard link.
func PointCurrentLog(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openWriters opens each distinct destination once. Parent directories of
// file destinations are created.
func openWriters(paths []string) (io.Writer, error) {
	var writers []io.Writer
	opened := map[string]bool{}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" || opened[path] {
			continue
		}
		opened[path] = true
		w, err := openWriter(path)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openWriter(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: compactJSONAttr,
	})
}

// compactJSONAttr writes "ts" in UTC, lower-case levels and file:line sources.
// logs.ParseLine reads this layout back.
func compactJSONAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
