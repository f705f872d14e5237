// Package continuation drives idle assistant sessions forward: it watches
// PTY output, waits for quiet, and re-engages the assistant until a
// completion marker appears or the iteration cap is hit.
package continuation

import (
	"context"
	"sync"
	"time"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
)

const (
	bufferCap  = 50000
	bufferTrim = 20000
)

// Hooks receive engine lifecycle callbacks, used by the supervisor to
// checkpoint progress.
type Hooks struct {
	// OnIteration fires after iteration i was emitted, before reschedule.
	OnIteration func(ptyID string, iteration int)
	// OnTerminal fires exactly once per state, for done, max_reached, and
	// cancelled alike.
	OnTerminal func(ptyID string, status domain.ContinuationStatus)
}

// Options tune one continuation loop.
type Options struct {
	WorkspaceID   string
	MaxIterations int  // clamped into [1,100], default 20
	QuietDelayMs  int  // floor 250, default 12000
	RequirePrompt bool // only re-engage at an idle prompt
	KickOff       bool // run the first iteration immediately
	Sentinel      string
}

// Snapshot is a read-only view of one loop's progress.
type Snapshot struct {
	PtyID            string                    `json:"ptyId"`
	WorkspaceID      string                    `json:"workspaceId"`
	Goal             string                    `json:"goal"`
	MaxIterations    int                       `json:"maxIterations"`
	CurrentIteration int                       `json:"currentIteration"`
	Status           domain.ContinuationStatus `json:"status"`
}

type state struct {
	ptyID            string
	workspaceID      string
	goal             string
	maxIterations    int
	currentIteration int
	status           domain.ContinuationStatus
	requirePrompt    bool
	quietDelay       time.Duration
	sentinel         string
	buffer           string
	timer            *time.Timer
	gen              uint64
	onContinue       func(ptyID string)
	hooks            Hooks
}

// Engine owns at most one continuation state per ptyId.
type Engine struct {
	ctx  context.Context
	sink ports.EventSink

	mu     sync.Mutex
	states map[string]*state
}

// NewEngine creates an Engine. ctx is the application lifetime: once it is
// cancelled, pending ticks stop their loops without emitting events.
func NewEngine(ctx context.Context, sink ports.EventSink) *Engine {
	return &Engine{
		ctx:    ctx,
		sink:   sink,
		states: make(map[string]*state),
	}
}

// Start seeds a fresh state for ptyID, cancelling any previous one first.
// onContinue performs the actual re-engagement write into the PTY.
func (e *Engine) Start(ptyID, goal string, onContinue func(ptyID string), hooks Hooks, opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, ok := e.states[ptyID]; ok {
		e.finishLocked(prev, domain.ContinuationCancelled, false)
	}

	st := &state{
		ptyID:         ptyID,
		workspaceID:   opts.WorkspaceID,
		goal:          goal,
		maxIterations: domain.ClampIterations(opts.MaxIterations),
		status:        domain.ContinuationRunning,
		requirePrompt: opts.RequirePrompt,
		quietDelay:    time.Duration(domain.ClampQuietDelay(opts.QuietDelayMs)) * time.Millisecond,
		sentinel:      opts.Sentinel,
		onContinue:    onContinue,
		hooks:         hooks,
	}
	e.states[ptyID] = st

	logging.Logger.Info("Continuation started",
		"pty_id", ptyID,
		"max_iterations", st.maxIterations,
		"quiet_delay", st.quietDelay,
		"kick_off", opts.KickOff)

	if opts.KickOff {
		// First step bypasses the quiet timer and the prompt check
		e.runIterationLocked(st)
		return
	}
	e.rearmLocked(st)
}

// HandleOutput feeds one PTY output chunk into the loop: buffer, trim,
// reset the quiet timer.
func (e *Engine) HandleOutput(ptyID string, chunk []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[ptyID]
	if !ok || st.status != domain.ContinuationRunning {
		return
	}

	st.buffer += string(chunk)
	if len(st.buffer) > bufferCap {
		st.buffer = st.buffer[len(st.buffer)-bufferTrim:]
	}
	e.rearmLocked(st)
}

// Stop cancels the loop for ptyID immediately. Safe to call for unknown
// ids.
func (e *Engine) Stop(ptyID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[ptyID]
	if !ok {
		return
	}
	e.finishLocked(st, domain.ContinuationCancelled, false)
}

// State returns a snapshot of the loop for ptyID.
func (e *Engine) State(ptyID string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[ptyID]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		PtyID:            st.ptyID,
		WorkspaceID:      st.workspaceID,
		Goal:             st.goal,
		MaxIterations:    st.maxIterations,
		CurrentIteration: st.currentIteration,
		Status:           st.status,
	}, true
}

// rearmLocked (re)starts the quiet timer. A generation counter guards
// against stale timer fires.
func (e *Engine) rearmLocked(st *state) {
	if st.timer != nil {
		st.timer.Stop()
	}
	st.gen++
	gen := st.gen
	ptyID := st.ptyID
	st.timer = time.AfterFunc(st.quietDelay, func() {
		e.tick(ptyID, gen)
	})
}

// tick evaluates one quiet period: completion, then prompt idleness, then
// the iteration budget.
func (e *Engine) tick(ptyID string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[ptyID]
	if !ok || st.gen != gen || st.status != domain.ContinuationRunning {
		return
	}

	// Application shut down: stop quietly, no events
	if e.ctx.Err() != nil {
		e.finishLocked(st, domain.ContinuationCancelled, false)
		return
	}

	if detectCompletion(st.buffer) {
		e.finishLocked(st, domain.ContinuationDone, true)
		return
	}

	if st.requirePrompt && !detectPromptIdle(st.buffer, st.sentinel) {
		e.rearmLocked(st)
		return
	}

	e.runIterationLocked(st)
}

// runIterationLocked emits iteration i, performs the re-engagement write,
// and reschedules, or ends the loop when the budget is spent. The
// iteration event always precedes the onContinue write.
func (e *Engine) runIterationLocked(st *state) {
	if st.currentIteration >= st.maxIterations {
		e.finishLocked(st, domain.ContinuationMaxReached, true)
		return
	}

	st.currentIteration++
	st.buffer = ""

	e.sink.ContinuationIteration(ports.ContinuationIteration{
		PtyID:     st.ptyID,
		Iteration: st.currentIteration,
		Max:       st.maxIterations,
	})
	if st.hooks.OnIteration != nil {
		st.hooks.OnIteration(st.ptyID, st.currentIteration)
	}
	if st.onContinue != nil {
		st.onContinue(st.ptyID)
	}

	e.rearmLocked(st)
}

// finishLocked moves st to a terminal status, emits the matching event
// (unless silent), and drops the state.
func (e *Engine) finishLocked(st *state, status domain.ContinuationStatus, emit bool) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.gen++ // invalidate in-flight timer fires
	st.status = status
	delete(e.states, st.ptyID)

	if emit {
		switch status {
		case domain.ContinuationDone:
			e.sink.ContinuationDone(ports.ContinuationDone{
				PtyID:      st.ptyID,
				Iterations: st.currentIteration,
			})
		case domain.ContinuationMaxReached:
			e.sink.ContinuationMaxReached(ports.ContinuationMaxReached{
				PtyID:      st.ptyID,
				Iterations: st.currentIteration,
				Goal:       st.goal,
			})
		}
	}

	if st.hooks.OnTerminal != nil {
		st.hooks.OnTerminal(st.ptyID, status)
	}

	logging.Logger.Info("Continuation finished",
		"pty_id", st.ptyID,
		"status", status,
		"iterations", st.currentIteration)
}
