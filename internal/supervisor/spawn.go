package supervisor

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
	"github.com/renato0307/forge/internal/router"
)

// SpawnParams are the shell.spawn arguments after boundary validation.
type SpawnParams struct {
	CLIType         string `json:"cliType"`
	WorkspacePath   string `json:"workspacePath"`
	WorkspaceID     string `json:"workspaceId"`
	Goal            string `json:"goal"`
	OneShotLoop     bool   `json:"oneShotLoop"`
	ShellSession    bool   `json:"shellSession"`
	ResumeSessionID string `json:"resumeSessionId"`
}

// SpawnShell validates params, starts the PTY child for the selected mode,
// and records the agent session. On a spawn failure no session row is
// created.
func (s *Supervisor) SpawnShell(params SpawnParams) (string, error) {
	cliType, err := domain.ParseCLIType(params.CLIType)
	if err != nil {
		return "", err
	}

	info, statErr := os.Stat(params.WorkspacePath)
	if statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, params.WorkspacePath)
	}

	mode := domain.SpawnInteractive
	var spec router.SpawnSpec
	var oneShotCommand, sentinel string

	switch {
	case params.ResumeSessionID != "":
		if cliType != domain.CLIClaude {
			return "", domain.ErrResumeNotSupported
		}
		mode = domain.SpawnResume
		spec = router.BuildResumeSpawnSpec(params.ResumeSessionID, params.WorkspacePath)

	case params.OneShotLoop:
		if cliType != domain.CLIClaude {
			return "", domain.ErrOneShotNotSupported
		}
		if params.Goal == "" {
			return "", domain.ErrGoalRequired
		}
		mode = domain.SpawnOneShotLoop
		sentinel = router.OneShotDoneMarker
		oneShotCommand = fmt.Sprintf("%s; echo %s",
			router.BuildOneShotCommand(cliType, params.Goal), sentinel)
		spec = router.BuildShellSpawnSpec(params.WorkspacePath)

	case params.ShellSession:
		mode = domain.SpawnShell
		spec = router.BuildShellSpawnSpec(params.WorkspacePath)

	default:
		spec = router.BuildSpawnSpec(cliType, params.WorkspacePath)
	}

	ptyID, err := s.ptys.Spawn(ports.SpawnSpec{
		Cmd:  spec.Cmd,
		Args: spec.Args,
		Cwd:  spec.Cwd,
	})
	if err != nil {
		return "", err
	}

	sessionID := uuid.New().String()
	now := time.Now().UTC()
	if err := s.store.CreateAgentSession(s.ctx, domain.AgentSession{
		ID:          sessionID,
		WorkspaceID: params.WorkspaceID,
		CLIType:     cliType,
		Goal:        params.Goal,
		Status:      domain.SessionActive,
		StartedAt:   now,
	}); err != nil {
		logging.Logger.Warn("Failed to persist agent session",
			"pty_id", ptyID, "error", err)
	}

	h := &sessionHandle{
		ptyID:          ptyID,
		sessionID:      sessionID,
		cliType:        cliType,
		workspaceID:    params.WorkspaceID,
		workspacePath:  params.WorkspacePath,
		goal:           params.Goal,
		mode:           mode,
		oneShotCommand: oneShotCommand,
		sentinel:       sentinel,
		startedAt:      now,
	}

	s.mu.Lock()
	s.sessions[ptyID] = h

	// An interactive spawn with a goal gets the goal typed in shortly
	// after the CLI has settled. Kill-before-write cancels the timer.
	if mode == domain.SpawnInteractive && params.Goal != "" {
		goal := params.Goal
		s.goalTimers[ptyID] = time.AfterFunc(goalWriteDelay, func() {
			s.mu.Lock()
			delete(s.goalTimers, ptyID)
			_, alive := s.sessions[ptyID]
			s.mu.Unlock()
			if alive {
				s.ptys.Write(ptyID, []byte(goal+"\r"))
			}
		})
	}
	s.mu.Unlock()

	logging.Logger.Info("Shell spawned",
		"pty_id", ptyID, "cli", cliType, "mode", mode,
		"workspace_id", params.WorkspaceID)

	return ptyID, nil
}
