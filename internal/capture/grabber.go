package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"clipwatch/internal/config"
	"clipwatch/internal/deps"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
)

const defaultTimeout = 5 * time.Second

// Option configures a Grabber.
type Option func(*Grabber)

// WithTimeout bounds a single frame grab.
func WithTimeout(d time.Duration) Option {
	return func(g *Grabber) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// Grabber captures frames with ffmpeg. It is safe for use by one detection
// worker at a time.
type Grabber struct {
	cfg     *config.Config
	logger  *slog.Logger
	timeout time.Duration
	resolve func(string) (string, error)

	once   sync.Once
	binary string
	binErr error
}

// NewGrabber builds a grabber for the configured capture device.
func NewGrabber(cfg *config.Config, logger *slog.Logger, opts ...Option) *Grabber {
	g := &Grabber{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "capture"),
		timeout: defaultTimeout,
		resolve: deps.ResolveFFmpeg,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Args returns the ffmpeg arguments for one PNG frame on stdout.
func (g *Grabber) Args() []string {
	capture := g.cfg.Capture
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-f", capture.VideoFormat}
	if size := strings.TrimSpace(capture.VideoSize); size != "" {
		args = append(args, "-video_size", size)
	}
	args = append(args,
		"-i", VideoOnlyInput(capture.VideoFormat, capture.VideoInput),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	return args
}

// Capture grabs one frame. Cancelling ctx aborts the grab.
func (g *Grabber) Capture(ctx context.Context) ([]byte, error) {
	binary, err := g.ffmpeg()
	if err != nil {
		return nil, err
	}

	grabCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(grabCtx, binary, g.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(grabCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "capture", "grab frame",
				fmt.Sprintf("no frame within %s", g.timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "capture", "grab frame", lastLine(stderr.String()), err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "capture", "grab frame", "ffmpeg produced no image data", nil)
	}
	return stdout.Bytes(), nil
}

func (g *Grabber) ffmpeg() (string, error) {
	g.once.Do(func() {
		g.binary, g.binErr = g.resolve(g.cfg.Encoder.Binary)
		if g.binErr != nil {
			g.binErr = services.Wrap(services.ErrConfiguration, "capture", "resolve ffmpeg", "", g.binErr)
			return
		}
		g.logger.Debug("frame grabber ready", logging.String("ffmpeg", g.binary), logging.String("input", g.cfg.Capture.VideoInput))
	})
	return g.binary, g.binErr
}

// VideoOnlyInput strips the audio part from an input string naming both devices.
// avfoundation "1:0" becomes "1:none"; dshow "video=x:audio=y" becomes "video=x".
func VideoOnlyInput(format, input string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "avfoundation":
		screen, _, _ := strings.Cut(input, ":")
		return screen + ":none"
	case "dshow":
		parts := strings.Split(input, ":")
		kept := parts[:0]
		for _, part := range parts {
			if strings.HasPrefix(strings.TrimSpace(part), "audio=") {
				continue
			}
			kept = append(kept, part)
		}
		return strings.Join(kept, ":")
	default:
		return input
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
