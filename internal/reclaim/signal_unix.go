//go:build linux || darwin

package reclaim

import (
	"golang.org/x/sys/unix"
)

// SystemSignaler delivers real signals.
type SystemSignaler struct{}

func (SystemSignaler) Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func (SystemSignaler) Kill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// Alive probes with signal 0. ESRCH means gone; EPERM means the process
// exists but belongs to someone else, which still counts as alive.
func (SystemSignaler) Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
