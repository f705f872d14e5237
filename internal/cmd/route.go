package cmd

import (
	"fmt"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/router"
)

// RouteCmd routes a task description once and prints the decision
type RouteCmd struct {
	Description string `arg:"" help:"Task description to route"`
	Prefer      string `help:"Force a specific CLI (claude, gemini, codex, copilot, qwen, llm)"`
}

// Run executes the router
func (r *RouteCmd) Run(cli *CLI) error {
	var preferred domain.CLIType
	if r.Prefer != "" {
		parsed, err := domain.ParseCLIType(r.Prefer)
		if err != nil {
			return fmt.Errorf("%w: %s", err, r.Prefer)
		}
		preferred = parsed
	}

	decision := router.RouteTask(r.Description, preferred)
	fmt.Printf("cli:        %s\n", decision.CLI)
	fmt.Printf("category:   %s\n", decision.Category)
	fmt.Printf("rationale:  %s\n", decision.Rationale)
	fmt.Printf("confidence: %.2f\n", decision.Confidence)
	return nil
}
