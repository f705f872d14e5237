package ports

import "errors"

var (
	ErrPtyNotFound   = errors.New("pty not found")
	ErrSpawnFailed   = errors.New("spawn failed")
	ErrResizeBounds  = errors.New("resize out of bounds")
	ErrAlreadyClosed = errors.New("pty already closed")
)

// SpawnSpec describes a child process to attach to a pseudoterminal.
type SpawnSpec struct {
	Cmd  string
	Args []string
	Cwd  string
	Cols int // default 120
	Rows int // default 30
	Env  []string
}

// OutputHandler receives serialized PTY output. For one ptyID, every Data
// call precedes the single Exit call.
type OutputHandler interface {
	Data(ptyID string, chunk []byte)
	Exit(ptyID string, code int)
}

// PtyManager owns child processes attached to pseudoterminals.
type PtyManager interface {
	// Spawn starts the child and returns its opaque ptyID.
	Spawn(spec SpawnSpec) (string, error)
	// Write delivers input; it silently drops if the handle is gone.
	Write(ptyID string, data []byte)
	// Resize applies new dimensions; cols must be in [1,500], rows in [1,200].
	Resize(ptyID string, cols, rows int) error
	// Kill terminates the child; idempotent.
	Kill(ptyID string)
	// Alive reports whether the handle is still registered.
	Alive(ptyID string) bool
}
