package domain

import "time"

// CLIType identifies one of the supported assistant CLIs.
type CLIType string

const (
	CLIClaude  CLIType = "claude"
	CLIGemini  CLIType = "gemini"
	CLICodex   CLIType = "codex"
	CLICopilot CLIType = "copilot"
	CLIQwen    CLIType = "qwen"
	CLILLM     CLIType = "llm"
)

// ValidCLITypes is the fixed set accepted at the command boundary.
var ValidCLITypes = map[CLIType]bool{
	CLIClaude:  true,
	CLIGemini:  true,
	CLICodex:   true,
	CLICopilot: true,
	CLIQwen:    true,
	CLILLM:     true,
}

// ParseCLIType validates a raw string against the allowed set.
func ParseCLIType(s string) (CLIType, error) {
	c := CLIType(s)
	if !ValidCLITypes[c] {
		return "", ErrInvalidCLIType
	}
	return c, nil
}

// SessionStatus is the durable status of an agent session row.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// AgentSession is the durable record of one PTY-backed assistant session.
// Status transitions to ended exactly once, when the child exits or is killed.
type AgentSession struct {
	ID             string
	WorkspaceID    string
	CLIType        CLIType
	Goal           string
	Status         SessionStatus
	IterationCount int
	TokenInput     int64
	TokenOutput    int64
	StartedAt      time.Time
	EndedAt        *time.Time
}

// SpawnMode selects how a shell session is started.
type SpawnMode string

const (
	SpawnInteractive SpawnMode = "interactive"
	SpawnResume      SpawnMode = "resume"
	SpawnOneShotLoop SpawnMode = "oneshot"
	SpawnShell       SpawnMode = "shell"
)
