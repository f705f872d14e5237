// Package supervisor is the top-level coordinator: it owns the live session
// map, wires PTY output into the continuation engine and the event sink,
// and exposes the command surface consumed by the UI collaborator.
package supervisor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/renato0307/forge/internal/continuation"
	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
	"github.com/renato0307/forge/internal/router"
	"github.com/renato0307/forge/internal/synthesis"
)

const (
	goalWriteDelay  = 1500 * time.Millisecond
	idleNotifyDelay = 5 * time.Second
)

// sessionHandle is the in-memory record of one live PTY session. It is
// exclusively owned by the Supervisor.
type sessionHandle struct {
	ptyID          string
	sessionID      string
	cliType        domain.CLIType
	workspaceID    string
	workspacePath  string
	goal           string
	mode           domain.SpawnMode
	oneShotCommand string
	sentinel       string
	hadOutput      bool
	exitNotified   bool
	startedAt      time.Time
}

// Supervisor coordinates the PTY manager, the continuation engine, the
// synthesis orchestrator, and the store.
type Supervisor struct {
	ctx      context.Context
	store    ports.Store
	engine   *continuation.Engine
	synth    *synthesis.Orchestrator
	sink     ports.EventSink
	notifier ports.Notifier

	ptys ports.PtyManager

	mu         sync.Mutex
	sessions   map[string]*sessionHandle
	goalTimers map[string]*time.Timer
	idleTimers map[string]*time.Timer

	focused atomic.Bool
}

// Compile-time check: the Supervisor is the PTY output funnel
var _ ports.OutputHandler = (*Supervisor)(nil)

// New creates a Supervisor. The PTY manager is attached afterwards with
// SetPtyManager since it needs the Supervisor as its output handler.
func New(ctx context.Context, store ports.Store, sink ports.EventSink, notifier ports.Notifier, runner ports.OneShotRunner, backupDir string) *Supervisor {
	s := &Supervisor{
		ctx:        ctx,
		store:      store,
		sink:       sink,
		notifier:   notifier,
		sessions:   make(map[string]*sessionHandle),
		goalTimers: make(map[string]*time.Timer),
		idleTimers: make(map[string]*time.Timer),
	}
	s.engine = continuation.NewEngine(ctx, sink)
	s.synth = synthesis.NewOrchestrator(runner, sink, backupDir)
	s.focused.Store(true)
	return s
}

// SetPtyManager attaches the PTY manager; must be called before any spawn.
func (s *Supervisor) SetPtyManager(ptys ports.PtyManager) {
	s.ptys = ptys
}

// SetFocused records whether the UI window currently has focus; idle and
// exit notifications only fire while unfocused.
func (s *Supervisor) SetFocused(focused bool) {
	s.focused.Store(focused)
}

// Data is the PTY output funnel: update the session, feed the continuation
// engine, and forward (sentinel-stripped) output to the UI.
func (s *Supervisor) Data(ptyID string, chunk []byte) {
	s.mu.Lock()
	h, ok := s.sessions[ptyID]
	var forward []byte
	if ok {
		h.hadOutput = true
		s.armIdleTimerLocked(h)
		forward = chunk
		if h.sentinel != "" {
			forward = stripSentinelLines(chunk, h.sentinel)
		}
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	s.engine.HandleOutput(ptyID, chunk)
	if len(forward) > 0 {
		s.sink.ShellData(ptyID, forward)
	}
}

// Exit tears the session down and reports the child's exit code verbatim.
func (s *Supervisor) Exit(ptyID string, code int) {
	s.mu.Lock()
	h, ok := s.sessions[ptyID]
	if ok {
		delete(s.sessions, ptyID)
		s.cancelTimersLocked(ptyID)
	}
	s.mu.Unlock()

	s.engine.Stop(ptyID)

	if ok {
		if err := s.store.EndAgentSession(s.ctx, h.sessionID); err != nil {
			logging.Logger.Warn("Failed to end agent session",
				"session_id", h.sessionID, "error", err)
		}
		if !h.exitNotified && !s.focused.Load() {
			h.exitNotified = true
			s.notify("Agent exited", string(h.cliType)+" session ended")
		}
	}

	s.sink.ShellExit(ptyID, code)
}

// Write forwards input to the PTY; silently dropped when the session is
// gone.
func (s *Supervisor) Write(ptyID string, data []byte) {
	s.ptys.Write(ptyID, data)
}

// Resize forwards a resize after the manager's bounds check.
func (s *Supervisor) Resize(ptyID string, cols, rows int) error {
	return s.ptys.Resize(ptyID, cols, rows)
}

// Kill tears down a session: handle removal first, then continuation stop,
// child termination, and the durable session end. Idempotent.
func (s *Supervisor) Kill(ptyID string) {
	s.mu.Lock()
	h, ok := s.sessions[ptyID]
	if ok {
		delete(s.sessions, ptyID)
	}
	s.cancelTimersLocked(ptyID)
	s.mu.Unlock()

	s.engine.Stop(ptyID)
	s.ptys.Kill(ptyID)

	if ok {
		if err := s.store.EndAgentSession(s.ctx, h.sessionID); err != nil {
			logging.Logger.Warn("Failed to end agent session",
				"session_id", h.sessionID, "error", err)
		}
	}
}

// ListSessions snapshots the live session map.
func (s *Supervisor) ListSessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionInfo, 0, len(s.sessions))
	for _, h := range s.sessions {
		out = append(out, SessionInfo{
			PtyID:       h.ptyID,
			SessionID:   h.sessionID,
			CLIType:     h.cliType,
			WorkspaceID: h.workspaceID,
			Goal:        h.goal,
			Mode:        h.mode,
			StartedAt:   h.startedAt,
		})
	}
	return out
}

// SessionInfo is the UI-facing view of a live session.
type SessionInfo struct {
	PtyID       string           `json:"ptyId"`
	SessionID   string           `json:"sessionId"`
	CLIType     domain.CLIType   `json:"cliType"`
	WorkspaceID string           `json:"workspaceId"`
	Goal        string           `json:"goal"`
	Mode        domain.SpawnMode `json:"mode"`
	StartedAt   time.Time        `json:"startedAt"`
}

// Route runs the task router.
func (s *Supervisor) Route(description string, preferred domain.CLIType) router.Decision {
	return router.RouteTask(description, preferred)
}

// Synthesize runs a best-of-N job; it blocks until the job completes.
func (s *Supervisor) Synthesize(ctx context.Context, workspaceID, workspacePath, goal string, n int) (synthesis.Result, error) {
	return s.synth.Synthesize(ctx, workspaceID, workspacePath, goal, n)
}

// ContinuationOptions mirror continuation.Options at the command boundary.
type ContinuationOptions struct {
	MaxIterations int  `json:"maxIterations"`
	QuietDelayMs  int  `json:"quietDelayMs"`
	RequirePrompt bool `json:"requirePrompt"`
	KickOff       bool `json:"kickOff"`
}

// StartContinuation starts (or restarts) the continuation loop for a live
// session and checkpoints it.
func (s *Supervisor) StartContinuation(ptyID, goal string, opts ContinuationOptions) error {
	s.mu.Lock()
	h, ok := s.sessions[ptyID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	// Stop any previous loop first: its terminal hook deletes the
	// checkpoint row, which must not outlive the save below
	s.engine.Stop(ptyID)

	max := domain.ClampIterations(opts.MaxIterations)
	if err := s.store.SaveContinuationState(s.ctx, domain.ContinuationCheckpoint{
		PtyID:         ptyID,
		WorkspaceID:   h.workspaceID,
		Goal:          goal,
		MaxIterations: max,
		Status:        "active",
	}); err != nil {
		return err
	}

	sessionID := h.sessionID
	hooks := continuation.Hooks{
		OnIteration: func(ptyID string, iteration int) {
			if err := s.store.UpdateContinuationIteration(s.ctx, ptyID, iteration); err != nil {
				logging.Logger.Warn("Failed to checkpoint iteration",
					"pty_id", ptyID, "error", err)
			}
			if err := s.store.IncrementSessionIteration(s.ctx, sessionID); err != nil {
				logging.Logger.Warn("Failed to bump session iteration",
					"session_id", sessionID, "error", err)
			}
		},
		OnTerminal: func(ptyID string, status domain.ContinuationStatus) {
			if err := s.store.DeleteContinuationState(s.ctx, ptyID); err != nil {
				logging.Logger.Warn("Failed to delete continuation checkpoint",
					"pty_id", ptyID, "error", err)
			}
		},
	}

	s.engine.Start(ptyID, goal, s.continueSession, hooks, continuation.Options{
		WorkspaceID:   h.workspaceID,
		MaxIterations: max,
		QuietDelayMs:  opts.QuietDelayMs,
		RequirePrompt: opts.RequirePrompt,
		KickOff:       opts.KickOff,
		Sentinel:      h.sentinel,
	})
	return nil
}

// StopContinuation cancels the loop only; the session stays alive.
func (s *Supervisor) StopContinuation(ptyID string) {
	s.engine.Stop(ptyID)
}

// ContinuationState reports the loop's progress, if one is running.
func (s *Supervisor) ContinuationState(ptyID string) (continuation.Snapshot, bool) {
	return s.engine.State(ptyID)
}

// continueSession is the re-engagement write: the one-shot command for
// loop sessions, a bare continue for interactive ones.
func (s *Supervisor) continueSession(ptyID string) {
	s.mu.Lock()
	h, ok := s.sessions[ptyID]
	s.mu.Unlock()
	if !ok {
		return
	}

	if h.oneShotCommand != "" {
		s.ptys.Write(ptyID, []byte(h.oneShotCommand+"\n"))
		return
	}
	s.ptys.Write(ptyID, []byte("continue\n"))
}

// stripSentinelLines removes whole lines containing the one-shot-done
// marker before output reaches the UI.
func stripSentinelLines(chunk []byte, sentinel string) []byte {
	if !strings.Contains(string(chunk), sentinel) {
		return chunk
	}

	lines := strings.Split(string(chunk), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, sentinel) {
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}

func (s *Supervisor) notify(title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(title, body); err != nil {
		logging.Logger.Debug("Notification failed", "error", err)
	}
}
