//go:build unix

package encoder

import "golang.org/x/sys/unix"

func setPriority(pid, niceness int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, pid, niceness)
}
