//go:build windows

package pty

import "os"

func terminate(p *os.Process) error {
	return p.Kill()
}
