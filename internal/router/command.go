package router

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/renato0307/forge/internal/domain"
)

// SpawnSpec is the command line for an interactive spawn.
type SpawnSpec struct {
	Cmd  string
	Args []string
	Cwd  string
}

// OneShotDoneMarker is appended to one-shot loop commands so the
// continuation engine can recognize that the command finished.
const OneShotDoneMarker = "__FORGE_ONESHOT_DONE__"

// quotePosix single-quotes s for a POSIX shell: ' becomes '"'"'.
func quotePosix(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// quoteWindows single-quotes s for PowerShell: ' becomes ''.
func quoteWindows(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteForShell picks the platform quoter and collapses internal newlines,
// since the command is written as a single line into a shell.
func quoteForShell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if runtime.GOOS == "windows" {
		return quoteWindows(s)
	}
	return quotePosix(s)
}

// BuildOneShotCommand builds a single-line non-interactive invocation of
// the given CLI with the goal as its prompt. Callers writing the command
// into a PTY must terminate it with a newline themselves.
func BuildOneShotCommand(cli domain.CLIType, goal string) string {
	quoted := quoteForShell(goal)
	switch cli {
	case domain.CLIGemini:
		return fmt.Sprintf("gemini -p %s", quoted)
	case domain.CLICodex:
		return fmt.Sprintf("codex exec %s", quoted)
	case domain.CLICopilot:
		return fmt.Sprintf("copilot -p %s", quoted)
	case domain.CLIQwen:
		return fmt.Sprintf("qwen -p %s", quoted)
	case domain.CLILLM:
		return fmt.Sprintf("llm %s", quoted)
	default:
		return fmt.Sprintf("claude -p %s", quoted)
	}
}

// BuildSpawnSpec returns the interactive spawn command for a CLI.
func BuildSpawnSpec(cli domain.CLIType, cwd string) SpawnSpec {
	return SpawnSpec{Cmd: string(cli), Cwd: cwd}
}

// BuildResumeSpawnSpec returns the spawn command resuming a persisted
// Claude session. Resume is only implemented for Claude.
func BuildResumeSpawnSpec(sessionID, cwd string) SpawnSpec {
	return SpawnSpec{
		Cmd:  string(domain.CLIClaude),
		Args: []string{"--resume", sessionID},
		Cwd:  cwd,
	}
}

// BuildShellSpawnSpec returns the platform shell for a plain shell session
// (also used as the host for one-shot loops).
func BuildShellSpawnSpec(cwd string) SpawnSpec {
	if runtime.GOOS == "windows" {
		comspec := os.Getenv("COMSPEC")
		if comspec == "" {
			comspec = "cmd.exe"
		}
		return SpawnSpec{Cmd: comspec, Cwd: cwd}
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return SpawnSpec{Cmd: shell, Cwd: cwd}
}
