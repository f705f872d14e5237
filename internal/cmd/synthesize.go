package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	adapterclaude "github.com/renato0307/forge/internal/adapters/claude"
	"github.com/renato0307/forge/internal/config"
	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/ports"
	"github.com/renato0307/forge/internal/synthesis"
)

// SynthesizeCmd runs a best-of-N synthesis job from the terminal, printing
// progress as runs finish.
type SynthesizeCmd struct {
	Goal      string `arg:"" help:"The goal to run"`
	Workspace string `help:"Workspace directory" default:"." type:"existingdir"`
	N         int    `help:"Number of independent runs" default:"5"`
}

// consoleSink prints synthesis events to stdout; the other events never
// fire in this one-off mode.
type consoleSink struct{}

func (consoleSink) ShellData(string, []byte)                             {}
func (consoleSink) ShellExit(string, int)                                {}
func (consoleSink) ContinuationIteration(ports.ContinuationIteration)    {}
func (consoleSink) ContinuationDone(ports.ContinuationDone)              {}
func (consoleSink) ContinuationMaxReached(ports.ContinuationMaxReached)  {}
func (consoleSink) EnsembleProgress(ev ports.EnsembleProgress) {
	fmt.Printf("progress: %d/%d\n", ev.Completed, ev.Total)
}
func (consoleSink) EnsembleDone(ev ports.EnsembleDone) {
	fmt.Printf("done: session %s\n", ev.SessionID)
}

// Run executes the job and prints the resume hint
func (s *SynthesizeCmd) Run(cli *CLI) error {
	absPath, err := filepath.Abs(s.Workspace)
	if err != nil {
		return err
	}

	orch := synthesis.NewOrchestrator(
		adapterclaude.NewRunner(),
		consoleSink{},
		config.GetClaudeBackupDir(),
	)

	result, err := orch.Synthesize(context.Background(),
		domain.WorkspaceID(absPath), absPath, s.Goal, s.N)
	if err != nil {
		return err
	}

	fmt.Printf("\nSynthesis complete (%d runs). Resume with:\n  claude --resume %s\n",
		result.Count, result.SessionID)
	return nil
}
