package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renato0307/forge/internal/domain"
)

func TestRouteTask_Refactor(t *testing.T) {
	d := RouteTask("help me refactor the auth module", "")

	assert.Equal(t, domain.CLIClaude, d.CLI)
	assert.Equal(t, "deep", d.Category)
	assert.Greater(t, d.Confidence, 0.0)
}

func TestRouteTask_SharedDesignTerm(t *testing.T) {
	// layout(0.9)+design(0.4) in the visual rule beats the deep rule's
	// "design system" pattern, which needs "system" to match at all
	d := RouteTask("design the card layout", "")

	assert.Equal(t, domain.CLIGemini, d.CLI)
	assert.Equal(t, "visual", d.Category)
}

func TestRouteTask_Default(t *testing.T) {
	d := RouteTask("zzzzz qqqqq", "")

	assert.Equal(t, domain.CLIClaude, d.CLI)
	assert.Equal(t, "deep", d.Category)
	assert.Equal(t, "default", d.Rationale)
	assert.Equal(t, 0.5, d.Confidence)
}

func TestRouteTask_PreferredShortCircuits(t *testing.T) {
	tests := []struct {
		preferred domain.CLIType
		category  string
	}{
		{domain.CLIGemini, "visual"},
		{domain.CLICodex, "code"},
		{domain.CLICopilot, "git"},
		{domain.CLILLM, "local"},
		{domain.CLIQwen, "quick"},
		{domain.CLIClaude, "deep"},
	}

	for _, tt := range tests {
		t.Run(string(tt.preferred), func(t *testing.T) {
			d := RouteTask("design the card layout", tt.preferred)
			assert.Equal(t, tt.preferred, d.CLI)
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, 1.0, d.Confidence)
		})
	}
}

func TestRouteTask_Categories(t *testing.T) {
	tests := []struct {
		description string
		cli         domain.CLIType
		category    string
	}{
		{"plan the migration architecture", domain.CLIClaude, "deep"},
		{"fix the css layout in react", domain.CLIGemini, "visual"},
		{"generate boilerplate for a handler", domain.CLICodex, "code"},
		{"open a pr and merge the branch", domain.CLICopilot, "git"},
		{"this data is confidential and must stay offline", domain.CLILLM, "local"},
		{"explain what is a goroutine", domain.CLIClaude, "research"},
		{"debug this stack trace", domain.CLIClaude, "deep"},
		{"write unit tests with good coverage", domain.CLICodex, "code"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			d := RouteTask(tt.description, "")
			assert.Equal(t, tt.cli, d.CLI)
			assert.Equal(t, tt.category, d.Category)
		})
	}
}

func TestRouteTask_Deterministic(t *testing.T) {
	inputs := []string{
		"help me refactor the auth module",
		"design the card layout",
		"random text",
		"",
	}

	for _, input := range inputs {
		first := RouteTask(input, "")
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, RouteTask(input, ""))
		}
	}
}

func TestRouteTask_ConfidenceCapped(t *testing.T) {
	// Stack every deep keyword; confidence must never exceed 1.0
	d := RouteTask("architect a system design, plan and refactor, why, how does it work", "")
	assert.LessOrEqual(t, d.Confidence, 1.0)
	assert.Greater(t, d.Confidence, 0.9)
}
