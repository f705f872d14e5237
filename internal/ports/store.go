package ports

import (
	"context"

	"github.com/renato0307/forge/internal/domain"
)

// WorkspaceStore persists workspaces.
type WorkspaceStore interface {
	UpsertWorkspace(ctx context.Context, id, path, name string) error
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	SetWorkspacePinned(ctx context.Context, id string, pinned bool) error
}

// MemoryStore persists workspace memories and their full-text index.
type MemoryStore interface {
	StoreMemory(ctx context.Context, workspaceID, key, content string, category domain.MemoryCategory) error
	SearchMemory(ctx context.Context, workspaceID, query string) ([]domain.Memory, error)
	ListMemories(ctx context.Context, workspaceID string, category domain.MemoryCategory) ([]domain.Memory, error)
	DeleteMemory(ctx context.Context, workspaceID, key string) error
}

// SessionStore persists agent session rows.
type SessionStore interface {
	CreateAgentSession(ctx context.Context, session domain.AgentSession) error
	EndAgentSession(ctx context.Context, id string) error
	IncrementSessionIteration(ctx context.Context, id string) error
	ListActiveSessions(ctx context.Context, workspaceID string) ([]domain.AgentSession, error)
}

// ContinuationStore checkpoints continuation progress.
type ContinuationStore interface {
	SaveContinuationState(ctx context.Context, cp domain.ContinuationCheckpoint) error
	UpdateContinuationIteration(ctx context.Context, ptyID string, iteration int) error
	DeleteContinuationState(ctx context.Context, ptyID string) error
	GetContinuationState(ctx context.Context, ptyID string) (*domain.ContinuationCheckpoint, error)
}

// Store is the composite persistence interface.
type Store interface {
	WorkspaceStore
	MemoryStore
	SessionStore
	ContinuationStore
	Close() error
}
