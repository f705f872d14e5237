// Package synthesis runs a goal N times against isolated homes and merges
// the answers with one final run bound to a fresh session id, so the user
// can resume the synthesized conversation.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
)

const runTimeout = 10 * time.Minute

// Result is returned to the caller when a job completes.
type Result struct {
	OK        bool   `json:"ok"`
	Count     int    `json:"count"`
	SessionID string `json:"sessionId"`
	JobID     string `json:"jobId"`
}

// Orchestrator fans out hidden runs and synthesizes their outputs.
type Orchestrator struct {
	runner    ports.OneShotRunner
	sink      ports.EventSink
	backupDir string
}

// NewOrchestrator creates an Orchestrator. backupDir is searched for
// parseable ~/.claude.json backups before each job.
func NewOrchestrator(runner ports.OneShotRunner, sink ports.EventSink, backupDir string) *Orchestrator {
	return &Orchestrator{
		runner:    runner,
		sink:      sink,
		backupDir: backupDir,
	}
}

// Synthesize runs the goal n times in parallel and once more to merge. It
// blocks until every child finished or timed out. Individual run failures
// land in their output slot; only a failure of the final merge run is an
// error.
func (o *Orchestrator) Synthesize(ctx context.Context, workspaceID, workspacePath, goal string, n int) (Result, error) {
	n = domain.ClampSynthesisRuns(n)
	jobID := uuid.New().String()

	logging.Logger.Info("Synthesis started",
		"job_id", jobID, "workspace_id", workspaceID, "n", n)

	sanitizeClaudeConfig(o.backupDir)

	var mu sync.Mutex
	completed := 0
	results := make([]string, n)

	emitProgress := func() {
		o.sink.EnsembleProgress(ports.EnsembleProgress{
			JobID:       jobID,
			WorkspaceID: workspaceID,
			Goal:        goal,
			Completed:   completed,
			Total:       n,
		})
	}
	emitProgress()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = o.hiddenRun(gctx, workspacePath, goal)
			mu.Lock()
			completed++
			emitProgress()
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var combined strings.Builder
	for i, text := range results {
		if i > 0 {
			combined.WriteString("\n\n")
		}
		fmt.Fprintf(&combined, "=== Claude %d/%d ===\n%s", i+1, n, text)
	}

	prompt := fmt.Sprintf(
		"You are a world-class synthesizer. Here are %d independent answers to the same request:\n\n%s\n\nProduce one final, concise, high-quality answer that combines the best of all of them.",
		n, combined.String())

	sessionID := uuid.New().String()
	finalCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, err := o.runner.Run(finalCtx, ports.OneShotSpec{
		Args:  []string{"-p", "--session-id", sessionID},
		Stdin: prompt,
		Dir:   workspacePath,
	})
	if err != nil {
		return Result{}, fmt.Errorf("synthesis run failed: %w", err)
	}
	logging.Logger.Info("Synthesis finished",
		"job_id", jobID, "session_id", sessionID, "exit_code", res.ExitCode)

	o.sink.EnsembleDone(ports.EnsembleDone{
		JobID:       jobID,
		WorkspaceID: workspaceID,
		Goal:        goal,
		SessionID:   sessionID,
		Total:       n,
	})

	return Result{OK: true, Count: n, SessionID: sessionID, JobID: jobID}, nil
}

// hiddenRun performs one isolated single-shot run. Failures never abort the
// job; they are rendered into the run's output slot.
func (o *Orchestrator) hiddenRun(ctx context.Context, workspacePath, goal string) string {
	root, home, err := buildIsolatedHome()
	if err != nil {
		return fmt.Sprintf("(runner error: %v)", err)
	}
	defer os.RemoveAll(root)

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, err := o.runner.Run(runCtx, ports.OneShotSpec{
		Args:  []string{"-p", "--no-session-persistence"},
		Stdin: goal,
		Dir:   workspacePath,
		Home:  home,
	})
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "(timed out)"
	}
	if err != nil {
		return fmt.Sprintf("(runner error: %v)", err)
	}
	if res.ExitCode != 0 {
		return fmt.Sprintf("(exit code %d)", res.ExitCode)
	}

	return cleanRunOutput(res.Output)
}
