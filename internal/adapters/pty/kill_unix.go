//go:build !windows

package pty

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminate sends SIGKILL to the child's process group so shell children
// die with the shell.
func terminate(p *os.Process) error {
	if pgid, err := unix.Getpgid(p.Pid); err == nil && pgid == p.Pid {
		return unix.Kill(-pgid, unix.SIGKILL)
	}
	return p.Kill()
}
