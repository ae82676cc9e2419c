package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"clipwatch/internal/config"
	"clipwatch/internal/deps"
	"clipwatch/internal/logging"
	"clipwatch/internal/services"
)

const defaultStartupGrace = 500 * time.Millisecond

// reapTimeout bounds the wait for the process to be reaped after a kill.
const reapTimeout = 5 * time.Second

// Option configures a Launcher.
type Option func(*Launcher)

// WithStartupGrace sets how long Start waits for an early exit before
// declaring the encoder running.
func WithStartupGrace(d time.Duration) Option {
	return func(l *Launcher) {
		if d >= 0 {
			l.startupGrace = d
		}
	}
}

// WithNotifier registers a callback for user-facing progress messages.
func WithNotifier(fn func(message string)) Option {
	return func(l *Launcher) {
		l.notify = fn
	}
}

// Launcher starts encoder processes using configuration captured at construction.
type Launcher struct {
	cfg          *config.Config
	logger       *slog.Logger
	startupGrace time.Duration
	notify       func(string)
	resolve      func(string) (string, error)
}

// NewLauncher constructs a Launcher.
func NewLauncher(cfg *config.Config, logger *slog.Logger, opts ...Option) *Launcher {
	l := &Launcher{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "encoder"),
		startupGrace: defaultStartupGrace,
		resolve:      deps.ResolveFFmpeg,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Binary resolves the ffmpeg executable the launcher would use.
func (l *Launcher) Binary() (string, error) {
	binary, err := l.resolve(l.cfg.Encoder.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoderNotFound, err)
	}
	return binary, nil
}

// Start launches ffmpeg recording into outputPath. The process is not bound to
// ctx; it runs until Stop. On any error nothing is left running.
func (l *Launcher) Start(ctx context.Context, outputPath string) (*Process, error) {
	logger := logging.WithContext(ctx, l.logger)
	l.emit("Locating FFmpeg executable...")
	binary, err := l.Binary()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := BuildArgs(l.cfg, outputPath)
	cmd := exec.Command(binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, startFailed("stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, startFailed("stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, startFailed("stderr pipe", err)
	}

	logger.Debug("launching encoder", logging.String("binary", binary), logging.String("args", strings.Join(args, " ")))
	if err := cmd.Start(); err != nil {
		return nil, startFailed("launch "+binary, err)
	}

	proc := &Process{
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		stdin:    stdin,
		output:   outputPath,
		started:  time.Now(),
		graceful: time.Duration(l.cfg.Encoder.GracefulStopSeconds) * time.Second,
		reapWait: reapTimeout,
		kill:     cmd.Process.Kill,
		ring:     newLineRing(l.cfg.Encoder.DiagnosticLines),
		logger:   logger.With(logging.Int("pid", cmd.Process.Pid)),
		notify:   l.emit,
		done:     make(chan struct{}),
	}
	proc.pump(stdout, stderr)

	if l.startupGrace > 0 {
		select {
		case <-proc.done:
			proc.release()
			tail := proc.Diagnostics()
			detail := "exited during startup"
			if len(tail) > 0 {
				detail = fmt.Sprintf("%s: %s", detail, tail[len(tail)-1])
			}
			return nil, startFailed(detail, proc.waitErr)
		case <-time.After(l.startupGrace):
		}
	}

	if err := setPriority(cmd.Process.Pid, l.cfg.Encoder.Niceness); err != nil {
		logging.WarnWithContext(proc.logger, "encoder priority not applied", "encoder_priority_failed",
			logging.Int("niceness", l.cfg.Encoder.Niceness),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "grant CAP_SYS_NICE or set encoder.niceness = 0"),
			logging.String(logging.FieldImpact, "recording may drop frames under load"),
		)
	}

	proc.logger.Info("encoder started", logging.String("output", outputPath))
	return proc, nil
}

func (l *Launcher) emit(message string) {
	if l.notify != nil {
		l.notify(message)
	}
}

func startFailed(detail string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrEncoderStartFailed, detail)
	}
	return fmt.Errorf("%w: %s: %w", ErrEncoderStartFailed, detail, err)
}

// Process is a running ffmpeg recording.
type Process struct {
	cmd      *exec.Cmd
	pid      int
	stdin    io.WriteCloser
	output   string
	started  time.Time
	graceful time.Duration
	reapWait time.Duration
	kill     func() error
	ring     *lineRing
	logger   *slog.Logger
	notify   func(string)

	done    chan struct{}
	waitErr error

	stopMu      sync.Mutex
	releaseOnce sync.Once
}

// pump drains stdout and stderr into the diagnostics ring, then reaps the process.
func (p *Process) pump(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	drain := func(r io.Reader, stream string) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			p.ring.add(line)
			p.logger.Debug("encoder output", logging.String("stream", stream), logging.String("line", line))
		}
	}
	wg.Add(2)
	go drain(stdout, "stdout")
	go drain(stderr, "stderr")
	go func() {
		wg.Wait()
		p.waitErr = p.cmd.Wait()
		close(p.done)
	}()
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.pid
}

// OutputPath returns the file the encoder is writing.
func (p *Process) OutputPath() string {
	return p.output
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has terminated.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitErr returns the wait error once the process has exited.
func (p *Process) ExitErr() error {
	if !p.Exited() {
		return nil
	}
	return p.waitErr
}

// Diagnostics returns the most recent output lines, oldest first.
func (p *Process) Diagnostics() []string {
	return p.ring.snapshot()
}

// Stats samples CPU, memory and niceness of the running encoder.
func (p *Process) Stats(ctx context.Context) (Stats, error) {
	if p.Exited() {
		return Stats{}, errors.New("encoder has exited")
	}
	return sampleStats(ctx, p.PID(), p.started)
}

// Stop finalizes the recording. An already exited process is a no-op. Otherwise
// "q" is written to stdin and the process gets the graceful timeout to flush the
// container before it is killed and reaped. Stdin is closed in every case.
func (p *Process) Stop() error {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()
	defer p.release()

	if p.Exited() {
		return nil
	}

	p.emit("Sending stop signal to FFmpeg...")
	if _, err := io.WriteString(p.stdin, "q\n"); err != nil {
		p.logger.Debug("write quit command failed", logging.Error(err))
	}
	_ = p.stdin.Close()

	timer := time.NewTimer(p.graceful)
	defer timer.Stop()
	select {
	case <-p.done:
		p.logger.Info("encoder stopped", logging.Duration("uptime", time.Since(p.started).Round(time.Millisecond)))
		return nil
	case <-timer.C:
	}

	p.emit("Forcing FFmpeg termination...")
	logging.WarnWithContext(p.logger, "encoder ignored quit command; killing", "encoder_forced_kill",
		logging.Duration("graceful_timeout", p.graceful),
		logging.String(logging.FieldImpact, "recording container may be missing its trailer"),
	)
	killErr := p.kill()
	if errors.Is(killErr, os.ErrProcessDone) {
		killErr = nil
	}
	reap := time.NewTimer(p.reapWait)
	defer reap.Stop()
	select {
	case <-p.done:
	case <-reap.C:
		if killErr == nil {
			killErr = fmt.Errorf("process not reaped within %s", p.reapWait)
		}
		logging.WarnWithContext(p.logger, "encoder not reaped after kill", "encoder_reap_timeout",
			logging.Duration("reap_timeout", p.reapWait),
			logging.Error(killErr),
		)
	}
	if killErr != nil {
		return services.Wrap(services.ErrExternalTool, "encoder", "kill", "terminate ffmpeg", killErr)
	}
	return nil
}

// StartedAt returns when the encoder process was launched.
func (p *Process) StartedAt() time.Time {
	return p.started
}

func (p *Process) release() {
	p.releaseOnce.Do(func() {
		_ = p.stdin.Close()
	})
}

func (p *Process) emit(message string) {
	if p.notify != nil {
		p.notify(message)
	}
}
