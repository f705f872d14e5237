package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/renato0307/forge/internal/config"
	"github.com/renato0307/forge/internal/domain"
)

// WorkspaceInfo is the result of opening a workspace: the durable record
// plus the context loaded from its file tree.
type WorkspaceInfo struct {
	Workspace domain.Workspace `json:"workspace"`
	Skills    []domain.Skill   `json:"skills"`
	AgentsMd  string           `json:"agentsMd"`
}

// OpenWorkspace resolves and validates the directory, upserts the
// workspace record, and loads skills and the agents context file.
func (s *Supervisor) OpenWorkspace(ctx context.Context, path string) (*WorkspaceInfo, error) {
	absPath, err := filepath.Abs(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, absPath)
	}

	id := domain.WorkspaceID(absPath)
	name := filepath.Base(absPath)

	if err := s.store.UpsertWorkspace(ctx, id, absPath, name); err != nil {
		return nil, err
	}

	ws, err := s.store.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}

	return &WorkspaceInfo{
		Workspace: *ws,
		Skills:    LoadSkills(absPath, config.GetGlobalSkillsPath()),
		AgentsMd:  LoadAgentsFile(absPath),
	}, nil
}
