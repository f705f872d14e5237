// Package pty owns child processes attached to pseudoterminals and funnels
// their output into a single serialized handler.
package pty

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
)

const (
	defaultCols = 120
	defaultRows = 30
	maxCols     = 500
	maxRows     = 200
)

type handle struct {
	ptmx *os.File
	cmd  *exec.Cmd
}

// Manager is the creack/pty implementation of ports.PtyManager
type Manager struct {
	handler ports.OutputHandler

	mu      sync.Mutex
	handles map[string]*handle

	// emitMu serializes all Data/Exit deliveries so handlers never run
	// concurrently with each other
	emitMu sync.Mutex
}

// Compile-time interface verification
var _ ports.PtyManager = (*Manager)(nil)

// NewManager creates a Manager delivering output to handler
func NewManager(handler ports.OutputHandler) *Manager {
	return &Manager{
		handler: handler,
		handles: make(map[string]*handle),
	}
}

// Spawn starts spec's command under a fresh pseudoterminal and returns the
// opaque ptyID. The child's environment is sanitized to the allow-list.
func (m *Manager) Spawn(spec ports.SpawnSpec) (string, error) {
	cols := spec.Cols
	if cols <= 0 {
		cols = defaultCols
	}
	rows := spec.Rows
	if rows <= 0 {
		rows = defaultRows
	}

	env := spec.Env
	if env == nil {
		env = os.Environ()
	}

	cmd := exec.Command(spec.Cmd, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Env = SanitizeEnv(env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrSpawnFailed, err)
	}

	ptyID := uuid.New().String()

	m.mu.Lock()
	m.handles[ptyID] = &handle{ptmx: ptmx, cmd: cmd}
	m.mu.Unlock()

	logging.Logger.Info("PTY spawned",
		"pty_id", ptyID, "cmd", spec.Cmd, "cwd", spec.Cwd)

	go m.readLoop(ptyID, ptmx, cmd)

	return ptyID, nil
}

// readLoop pumps output chunks until the child terminates, then emits the
// single Exit event.
func (m *Manager) readLoop(ptyID string, ptmx *os.File, cmd *exec.Cmd) {
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.emitMu.Lock()
			m.handler.Data(ptyID, chunk)
			m.emitMu.Unlock()
		}
		if err != nil {
			// EIO is the normal end-of-stream on Linux PTYs
			if err != io.EOF {
				logging.Logger.Debug("PTY read ended", "pty_id", ptyID, "error", err)
			}
			break
		}
	}

	code := 0
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	// Remove the handle if it is still registered (natural exit path)
	m.mu.Lock()
	if h, ok := m.handles[ptyID]; ok {
		delete(m.handles, ptyID)
		h.ptmx.Close()
	}
	m.mu.Unlock()

	m.emitMu.Lock()
	m.handler.Exit(ptyID, code)
	m.emitMu.Unlock()

	logging.Logger.Info("PTY exited", "pty_id", ptyID, "code", code)
}

// Write delivers input to the child; it silently drops when the handle is
// gone.
func (m *Manager) Write(ptyID string, data []byte) {
	m.mu.Lock()
	h, ok := m.handles[ptyID]
	m.mu.Unlock()
	if !ok {
		return
	}

	if _, err := h.ptmx.Write(data); err != nil {
		logging.Logger.Debug("PTY write dropped", "pty_id", ptyID, "error", err)
	}
}

// Resize applies new dimensions after bounds-checking them
func (m *Manager) Resize(ptyID string, cols, rows int) error {
	if cols < 1 || cols > maxCols || rows < 1 || rows > maxRows {
		return ports.ErrResizeBounds
	}

	m.mu.Lock()
	h, ok := m.handles[ptyID]
	m.mu.Unlock()
	if !ok {
		return ports.ErrPtyNotFound
	}

	return pty.Setsize(h.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Kill removes the handle first, then terminates the child. A second call
// for the same ptyID is a no-op; the Exit event still fires exactly once,
// from the read loop.
func (m *Manager) Kill(ptyID string) {
	m.mu.Lock()
	h, ok := m.handles[ptyID]
	if ok {
		delete(m.handles, ptyID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	h.ptmx.Close()
	if h.cmd.Process != nil {
		if err := terminate(h.cmd.Process); err != nil {
			logging.Logger.Debug("PTY kill", "pty_id", ptyID, "error", err)
		}
	}
}

// Alive reports whether the handle is still registered
func (m *Manager) Alive(ptyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handles[ptyID]
	return ok
}
