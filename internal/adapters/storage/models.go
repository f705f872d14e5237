package storage

import "time"

// WorkspaceModel is the GORM model for the workspaces table
type WorkspaceModel struct {
	ID         string    `gorm:"primaryKey"`
	Path       string    `gorm:"not null;uniqueIndex:idx_workspace_path"`
	Name       string    `gorm:"not null;default:''"`
	LastOpened time.Time `gorm:"not null;index:idx_last_opened"`
	Pinned     bool      `gorm:"not null;default:false"`
	Config     string    `gorm:"default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (WorkspaceModel) TableName() string { return "workspaces" }

// AgentSessionModel is the GORM model for the agent_sessions table
type AgentSessionModel struct {
	ID             string `gorm:"primaryKey"`
	WorkspaceID    string `gorm:"not null;index:idx_session_workspace"`
	CLIType        string `gorm:"column:cli_type;not null"`
	Goal           string `gorm:"default:''"`
	Status         string `gorm:"not null;default:'active';check:status IN ('active','ended')"`
	IterationCount int    `gorm:"not null;default:0"`
	TokenInput     int64  `gorm:"not null;default:0"`
	TokenOutput    int64  `gorm:"not null;default:0"`
	StartedAt      time.Time
	EndedAt        *time.Time `gorm:"default:null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (AgentSessionModel) TableName() string { return "agent_sessions" }

// WorkspaceMemoryModel is the GORM model for the workspace_memories table
type WorkspaceMemoryModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	WorkspaceID string `gorm:"not null;uniqueIndex:idx_memory_workspace_key,priority:1"`
	Key         string `gorm:"not null;uniqueIndex:idx_memory_workspace_key,priority:2"`
	Content     string `gorm:"not null;default:''"`
	Category    string `gorm:"not null;default:'core';check:category IN ('core','daily','conversation')"`
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index:idx_memory_updated"`
}

// TableName specifies the table name for GORM
func (WorkspaceMemoryModel) TableName() string { return "workspace_memories" }

// ContinuationStateModel is the GORM model for the continuation_state table
type ContinuationStateModel struct {
	PtyID            string `gorm:"column:pty_id;primaryKey"`
	WorkspaceID      string `gorm:"not null;index:idx_continuation_workspace"`
	Goal             string `gorm:"default:''"`
	MaxIterations    int    `gorm:"not null;default:20"`
	CurrentIteration int    `gorm:"not null;default:0"`
	Status           string `gorm:"not null;default:'active'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM
func (ContinuationStateModel) TableName() string { return "continuation_state" }

// ScheduledTaskModel is reserved for a future scheduled-task runner; the
// table is created but nothing writes to it.
type ScheduledTaskModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	WorkspaceID string `gorm:"index"`
	Spec        string `gorm:"default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (ScheduledTaskModel) TableName() string { return "scheduled_tasks" }
