package synthesis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/forge/internal/ports"
)

// stubRunner scripts hidden-run outputs and records every invocation
type stubRunner struct {
	mu      sync.Mutex
	specs   []ports.OneShotSpec
	outputs []ports.OneShotResult
	errs    []error
	calls   int
}

func (s *stubRunner) Run(ctx context.Context, spec ports.OneShotSpec) (ports.OneShotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = append(s.specs, spec)
	idx := s.calls
	s.calls++

	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	var res ports.OneShotResult
	if idx < len(s.outputs) {
		res = s.outputs[idx]
	}
	return res, err
}

// recordingSink captures ensemble events
type recordingSink struct {
	mu       sync.Mutex
	progress []ports.EnsembleProgress
	done     []ports.EnsembleDone
}

func (r *recordingSink) ShellData(string, []byte)                            {}
func (r *recordingSink) ShellExit(string, int)                               {}
func (r *recordingSink) ContinuationIteration(ports.ContinuationIteration)   {}
func (r *recordingSink) ContinuationDone(ports.ContinuationDone)             {}
func (r *recordingSink) ContinuationMaxReached(ports.ContinuationMaxReached) {}

func (r *recordingSink) EnsembleProgress(ev ports.EnsembleProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, ev)
}

func (r *recordingSink) EnsembleDone(ev ports.EnsembleDone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, ev)
}

func TestSynthesize_EndToEnd(t *testing.T) {
	runner := &stubRunner{
		outputs: []ports.OneShotResult{
			{Output: "A1"},
			{Output: "A2"},
			{Output: "synthesized"},
		},
	}
	sink := &recordingSink{}
	orch := NewOrchestrator(runner, sink, t.TempDir())

	result, err := orch.Synthesize(context.Background(), "ws1", "/tmp/ws", "answer the question", 2)
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Count)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.JobID)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	// progress 0, 1, 2: non-decreasing, bounded by total
	require.Len(t, sink.progress, 3)
	completed := []int{sink.progress[0].Completed, sink.progress[1].Completed, sink.progress[2].Completed}
	assert.ElementsMatch(t, []int{0, 1, 2}, completed)
	for i := 1; i < len(sink.progress); i++ {
		assert.GreaterOrEqual(t, sink.progress[i].Completed, sink.progress[i-1].Completed)
		assert.Equal(t, 2, sink.progress[i].Total)
	}

	// Exactly one done, carrying the chosen session id
	require.Len(t, sink.done, 1)
	assert.Equal(t, result.SessionID, sink.done[0].SessionID)
	assert.Equal(t, result.JobID, sink.done[0].JobID)
	assert.Equal(t, 2, sink.done[0].Total)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.specs, 3)

	// Hidden runs: goal on stdin, never argv; isolated home set
	for _, spec := range runner.specs[:2] {
		assert.Equal(t, []string{"-p", "--no-session-persistence"}, spec.Args)
		assert.Equal(t, "answer the question", spec.Stdin)
		assert.NotEmpty(t, spec.Home)
		assert.NotContains(t, spec.Args, "answer the question")
	}

	// Final run: bound to the session id, no isolated home, combined
	// answers in the prompt
	final := runner.specs[2]
	assert.Equal(t, []string{"-p", "--session-id", result.SessionID}, final.Args)
	assert.Empty(t, final.Home)
	// Each run fills the slot of its run index, but which stub output a run
	// receives depends on scheduling; both answers and both headers must be
	// present
	assert.Contains(t, final.Stdin, "=== Claude 1/2 ===")
	assert.Contains(t, final.Stdin, "=== Claude 2/2 ===")
	assert.Contains(t, final.Stdin, "A1")
	assert.Contains(t, final.Stdin, "A2")
	assert.Contains(t, final.Stdin, "world-class synthesizer")

	// Isolation roots were removed after the job
	for _, spec := range runner.specs[:2] {
		_, err := os.Stat(spec.Home)
		assert.True(t, os.IsNotExist(err), "isolated home %s should be gone", spec.Home)
	}
}

func TestSynthesize_RunFailuresFillSlots(t *testing.T) {
	runner := &stubRunner{
		outputs: []ports.OneShotResult{
			{Output: "ignored", ExitCode: 3},
			{},
			{Output: "final"},
		},
		errs: []error{nil, fmt.Errorf("spawn exploded"), nil},
	}
	sink := &recordingSink{}
	orch := NewOrchestrator(runner, sink, t.TempDir())

	result, err := orch.Synthesize(context.Background(), "ws1", "/tmp/ws", "goal", 2)
	require.NoError(t, err)
	assert.True(t, result.OK)

	runner.mu.Lock()
	final := runner.specs[2]
	runner.mu.Unlock()

	assert.Contains(t, final.Stdin, "(exit code 3)")
	assert.Contains(t, final.Stdin, "(runner error: spawn exploded)")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.done, 1)
}

func TestSynthesize_FinalRunFailureIsError(t *testing.T) {
	runner := &stubRunner{
		outputs: []ports.OneShotResult{{Output: "A1"}, {}},
		errs:    []error{nil, fmt.Errorf("claude not found")},
	}
	sink := &recordingSink{}
	orch := NewOrchestrator(runner, sink, t.TempDir())

	_, err := orch.Synthesize(context.Background(), "ws1", "/tmp/ws", "goal", 1)
	require.Error(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.done)
}

func TestSynthesize_ClampsN(t *testing.T) {
	outputs := make([]ports.OneShotResult, 13)
	runner := &stubRunner{outputs: outputs}
	sink := &recordingSink{}
	orch := NewOrchestrator(runner, sink, t.TempDir())

	result, err := orch.Synthesize(context.Background(), "ws1", "/tmp/ws", "goal", 40)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Count)

	result, err = orch.Synthesize(context.Background(), "ws1", "/tmp/ws", "goal", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Count)
}

func TestCleanRunOutput(t *testing.T) {
	in := "answer line\n" +
		"Warning: failed to parse config, falling back\n" +
		"\n\n\n\n" +
		"more answer\n"
	out := cleanRunOutput(in)

	assert.NotContains(t, out, "Warning: failed to parse config")
	assert.NotContains(t, out, "\n\n\n\n")
	assert.Contains(t, out, "answer line")
	assert.Contains(t, out, "more answer")
}

func TestBuildIsolatedHome(t *testing.T) {
	root, home, err := buildIsolatedHome()
	require.NoError(t, err)
	defer os.RemoveAll(root)

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
