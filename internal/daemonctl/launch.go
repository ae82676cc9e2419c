package daemonctl

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clipwatch/internal/config"
	"clipwatch/internal/ipc"
)

const dialRetryInterval = 200 * time.Millisecond

// LaunchOptions are forwarded to `clipwatch daemon run`.
type LaunchOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
}

func (o LaunchOptions) args() []string {
	args := []string{"daemon", "run"}
	for _, flag := range []struct{ name, value string }{
		{"--config", o.ConfigPath},
		{"--env-file", o.EnvFile},
		{"--log-level", o.LogLevel},
	} {
		if v := strings.TrimSpace(flag.value); v != "" {
			args = append(args, flag.name, v)
		}
	}
	return args
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports what EnsureStarted found or did.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch spawns a detached daemon process and returns without waiting for it.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	proc := exec.Command(executablePath, opts.args()...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient dials socketPath until it answers or timeout passes.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	var client *ipc.Client
	err := pollUntil(timeout, func() (bool, error) {
		c, err := ipc.Dial(socketPath)
		if err != nil {
			return false, err
		}
		client = c
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("daemon failed to start: %w", err)
	}
	return client, nil
}

// EnsureStarted launches the daemon unless one already answers on socketPath.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	result := StartResult{State: StartStateAlreadyRunning}
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if err := Launch(executablePath, opts); err != nil {
			return StartResult{}, err
		}
		if client, err = WaitForClient(socketPath, waitTimeout); err != nil {
			return StartResult{}, err
		}
		result = StartResult{State: StartStateStarted, Launched: true}
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return StartResult{}, err
	}
	if !status.Running {
		return StartResult{}, errors.New("daemon process is up but not running; check the daemon log")
	}
	result.PID = status.PID
	return result, nil
}

// RestartResult combines the stop and start halves of Restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Restart stops a running daemon, if any, then starts a fresh one.
func Restart(socketPath string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	var result RestartResult
	stopped, err := StopAndTerminate(socketPath, cfg, stopGracePeriod)
	switch {
	case err == nil:
		result.WasRunning = true
		result.Stop = stopped
	case !errors.Is(err, ErrDaemonNotRunning):
		return RestartResult{}, err
	}
	if result.Start, err = EnsureStarted(socketPath, executablePath, opts, startWaitTimeout); err != nil {
		return RestartResult{}, err
	}
	return result, nil
}

// pollUntil calls check until it reports done or timeout passes. The last
// check error is returned on timeout.
func pollUntil(timeout time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		done, err := check()
		if done {
			return nil
		}
		lastErr = err
		if !time.Now().Add(dialRetryInterval).Before(deadline) {
			break
		}
		time.Sleep(dialRetryInterval)
	}
	if lastErr == nil {
		lastErr = errors.New("timed out")
	}
	return lastErr
}
