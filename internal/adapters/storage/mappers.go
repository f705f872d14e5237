package storage

import (
	"github.com/renato0307/forge/internal/domain"
)

func toWorkspace(m WorkspaceModel) domain.Workspace {
	return domain.Workspace{
		ID:         m.ID,
		Path:       m.Path,
		Name:       m.Name,
		LastOpened: m.LastOpened,
		Pinned:     m.Pinned,
		Config:     m.Config,
	}
}

func toAgentSession(m AgentSessionModel) domain.AgentSession {
	return domain.AgentSession{
		ID:             m.ID,
		WorkspaceID:    m.WorkspaceID,
		CLIType:        domain.CLIType(m.CLIType),
		Goal:           m.Goal,
		Status:         domain.SessionStatus(m.Status),
		IterationCount: m.IterationCount,
		TokenInput:     m.TokenInput,
		TokenOutput:    m.TokenOutput,
		StartedAt:      m.StartedAt,
		EndedAt:        m.EndedAt,
	}
}

func toMemory(m WorkspaceMemoryModel) domain.Memory {
	return domain.Memory{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		Key:         m.Key,
		Content:     m.Content,
		Category:    domain.MemoryCategory(m.Category),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCheckpoint(m ContinuationStateModel) domain.ContinuationCheckpoint {
	return domain.ContinuationCheckpoint{
		PtyID:            m.PtyID,
		WorkspaceID:      m.WorkspaceID,
		Goal:             m.Goal,
		MaxIterations:    m.MaxIterations,
		CurrentIteration: m.CurrentIteration,
		Status:           m.Status,
	}
}
