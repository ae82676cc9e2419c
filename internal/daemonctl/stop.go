package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"clipwatch/internal/config"
	"clipwatch/internal/daemon"
	"clipwatch/internal/ipc"
)

// PIDFileName is written to the log directory while the daemon runs.
const PIDFileName = "clipwatch.pid"

// ErrDaemonNotRunning means nothing answers on the daemon socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// PIDPath returns the daemon pid file location for cfg.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, PIDFileName)
}

// StopResult reports how the daemon went away.
type StopResult struct {
	ShutdownAcknowledged bool
	ForcedKill           bool
	PID                  int
}

// StopAndTerminate requests a shutdown and kills the process if it still
// answers after gracePeriod. The daemon finishes an active recording,
// highlights included, before exiting.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if unavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var result StopResult
	var lockPath string
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
		lockPath = status.LockFilePath
	}
	ack, err := client.Shutdown()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result.ShutdownAcknowledged = ack.Accepted

	if WaitForShutdown(socketPath, gracePeriod) == nil {
		return result, nil
	}
	alive, pid, err := ProcessInfo(socketPath)
	if err != nil || !alive {
		return result, nil
	}
	if pid == 0 {
		pid = result.PID
	}
	if cfg == nil {
		return result, errors.New("unable to determine daemon log directory")
	}
	if lockPath == "" {
		lockPath = filepath.Join(cfg.Paths.LogDir, daemon.LockFileName)
	}
	killed, err := ForceKillProcess(PIDPath(cfg), lockPath, pid)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killed
	return result, nil
}

// WaitForShutdown returns once the socket stops answering or the daemon
// reports it is no longer running.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	err := pollUntil(timeout, func() (bool, error) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return unavailable(err), err
		}
		defer client.Close()
		status, err := client.Status()
		if err != nil {
			return false, err
		}
		if status.Running {
			return false, errors.New("daemon still running")
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("daemon did not stop: %w", err)
	}
	return nil
}

// ProcessInfo reports whether the daemon answers and, if so, its pid.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if unavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return true, 0, err
	}
	return true, status.PID, nil
}

// ForceKillProcess sends SIGKILL to the pid recorded in pidPath (or
// fallbackPID) and removes the pid and lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid, err := readPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid <= 0 {
		pid = fallbackPID
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// readPID returns zero for a missing or unparsable pid file.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, nil
	}
	return pid, nil
}

func unavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
