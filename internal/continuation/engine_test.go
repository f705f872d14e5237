package continuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/ports"
)

// recordingSink captures emitted events for assertions
type recordingSink struct {
	mu         sync.Mutex
	iterations []ports.ContinuationIteration
	done       []ports.ContinuationDone
	maxReached []ports.ContinuationMaxReached
}

func (r *recordingSink) ShellData(string, []byte) {}
func (r *recordingSink) ShellExit(string, int)    {}

func (r *recordingSink) ContinuationIteration(ev ports.ContinuationIteration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iterations = append(r.iterations, ev)
}

func (r *recordingSink) ContinuationDone(ev ports.ContinuationDone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, ev)
}

func (r *recordingSink) ContinuationMaxReached(ev ports.ContinuationMaxReached) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxReached = append(r.maxReached, ev)
}

func (r *recordingSink) EnsembleProgress(ports.EnsembleProgress) {}
func (r *recordingSink) EnsembleDone(ports.EnsembleDone)         {}

func (r *recordingSink) iterationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.iterations)
}

func (r *recordingSink) doneCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.done)
}

func (r *recordingSink) maxReachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.maxReached)
}

// continueRecorder counts re-engagement writes
type continueRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (c *continueRecorder) record(ptyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ptyID)
}

func (c *continueRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestEngine_HappyPath(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)
	writes := &continueRecorder{}

	engine.Start("pty-1", "x", writes.record, Hooks{}, Options{
		MaxIterations: 3,
		QuietDelayMs:  250,
	})

	// Session prints output ending at an idle prompt, then goes quiet
	engine.HandleOutput("pty-1", []byte("hello\n❯ "))

	require.Eventually(t, func() bool { return sink.iterationCount() >= 1 },
		2*time.Second, 10*time.Millisecond)

	// Assistant replies, works, and idles again; repeat until the cap
	engine.HandleOutput("pty-1", []byte("still working…"))
	engine.HandleOutput("pty-1", []byte("\n❯ "))

	require.Eventually(t, func() bool { return sink.maxReachedCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	// Strictly monotonic 1..3, every iteration before its write
	require.Len(t, sink.iterations, 3)
	for i, ev := range sink.iterations {
		assert.Equal(t, i+1, ev.Iteration)
		assert.Equal(t, 3, ev.Max)
		assert.Equal(t, "pty-1", ev.PtyID)
	}
	assert.Equal(t, 3, writes.count())
	assert.Empty(t, sink.done)
	assert.Equal(t, 3, sink.maxReached[0].Iterations)
	assert.Equal(t, "x", sink.maxReached[0].Goal)

	// State is dropped on terminal status
	_, ok := engine.State("pty-1")
	assert.False(t, ok)
}

func TestEngine_CompletionStopsLoop(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)
	writes := &continueRecorder{}

	engine.Start("pty-2", "x", writes.record, Hooks{}, Options{
		MaxIterations: 3,
		QuietDelayMs:  250,
	})

	engine.HandleOutput("pty-2", []byte("hello\n❯ "))

	require.Eventually(t, func() bool { return sink.iterationCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	engine.HandleOutput("pty-2", []byte("all tasks completed\n❯ "))

	require.Eventually(t, func() bool { return sink.doneCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	assert.Equal(t, 1, sink.done[0].Iterations)
	// No iterations after done
	assert.Len(t, sink.iterations, 1)
	assert.Empty(t, sink.maxReached)
}

func TestEngine_RequirePromptDefersIteration(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)
	writes := &continueRecorder{}

	engine.Start("pty-3", "x", writes.record, Hooks{}, Options{
		MaxIterations: 3,
		QuietDelayMs:  250,
		RequirePrompt: true,
	})

	// Quiet but not at a prompt: the engine must keep waiting
	engine.HandleOutput("pty-3", []byte("compiling mid-stream"))
	time.Sleep(700 * time.Millisecond)

	assert.Equal(t, 0, sink.iterationCount())
	assert.Equal(t, 0, writes.count())

	engine.Stop("pty-3")
}

func TestEngine_KickOffBypassesTimerAndPrompt(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)
	writes := &continueRecorder{}

	engine.Start("pty-4", "x", writes.record, Hooks{}, Options{
		MaxIterations: 5,
		QuietDelayMs:  60000,
		RequirePrompt: true,
		KickOff:       true,
	})

	// First iteration ran synchronously, no quiet period needed
	assert.Equal(t, 1, sink.iterationCount())
	assert.Equal(t, 1, writes.count())
}

func TestEngine_StopIsImmediateAndSilent(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)

	var terminal []domain.ContinuationStatus
	var mu sync.Mutex
	hooks := Hooks{
		OnTerminal: func(_ string, status domain.ContinuationStatus) {
			mu.Lock()
			terminal = append(terminal, status)
			mu.Unlock()
		},
	}

	engine.Start("pty-5", "x", func(string) {}, hooks, Options{
		MaxIterations: 3,
		QuietDelayMs:  250,
	})
	engine.Stop("pty-5")

	_, ok := engine.State("pty-5")
	assert.False(t, ok)

	mu.Lock()
	require.Len(t, terminal, 1)
	assert.Equal(t, domain.ContinuationCancelled, terminal[0])
	mu.Unlock()

	// No events leak after the stop
	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, 0, sink.iterationCount())
	assert.Equal(t, 0, sink.doneCount())
	assert.Equal(t, 0, sink.maxReachedCount())
}

func TestEngine_StartCancelsPrevious(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)

	var mu sync.Mutex
	var statuses []domain.ContinuationStatus
	hooks := Hooks{
		OnTerminal: func(_ string, status domain.ContinuationStatus) {
			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
		},
	}

	engine.Start("pty-6", "first", func(string) {}, hooks, Options{MaxIterations: 3, QuietDelayMs: 250})
	engine.Start("pty-6", "second", func(string) {}, Hooks{}, Options{MaxIterations: 3, QuietDelayMs: 250})

	mu.Lock()
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.ContinuationCancelled, statuses[0])
	mu.Unlock()

	snapshot, ok := engine.State("pty-6")
	require.True(t, ok)
	assert.Equal(t, "second", snapshot.Goal)

	engine.Stop("pty-6")
}

func TestEngine_IterationHookCheckpoints(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)

	var mu sync.Mutex
	var checkpoints []int
	hooks := Hooks{
		OnIteration: func(_ string, iteration int) {
			mu.Lock()
			checkpoints = append(checkpoints, iteration)
			mu.Unlock()
		},
	}

	engine.Start("pty-7", "x", func(string) {}, hooks, Options{
		MaxIterations: 2,
		QuietDelayMs:  250,
		KickOff:       true,
	})

	require.Eventually(t, func() bool { return sink.maxReachedCount() == 1 },
		3*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, checkpoints)
}

func TestEngine_ContextCancelStopsQuietly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	engine := NewEngine(ctx, sink)

	engine.Start("pty-8", "x", func(string) {}, Hooks{}, Options{
		MaxIterations: 3,
		QuietDelayMs:  250,
	})

	cancel()

	require.Eventually(t, func() bool {
		_, ok := engine.State("pty-8")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, sink.iterationCount())
	assert.Equal(t, 0, sink.maxReachedCount())
}

func TestEngine_BufferTrim(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(context.Background(), sink)

	engine.Start("pty-9", "x", func(string) {}, Hooks{}, Options{
		MaxIterations: 1,
		QuietDelayMs:  60000,
	})

	big := make([]byte, 30000)
	for i := range big {
		big[i] = 'a'
	}
	engine.HandleOutput("pty-9", big)
	engine.HandleOutput("pty-9", big) // 60000 > cap, trims to last 20000

	engine.mu.Lock()
	st := engine.states["pty-9"]
	assert.Len(t, st.buffer, 20000)
	engine.mu.Unlock()

	engine.Stop("pty-9")
}
