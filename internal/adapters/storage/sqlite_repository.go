package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
)

// SQLiteRepository implements ports.Store using GORM over mattn/go-sqlite3
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.Store = (*SQLiteRepository)(nil)

// gormLogger wraps the forge logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("FORGE_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository opens (and migrates) the forge database at dbPath.
// Schema errors here are fatal to startup.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL for concurrent access; ~8 MB page cache
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")
	db.Exec("PRAGMA cache_size=-8000")

	if err := db.AutoMigrate(
		&WorkspaceModel{},
		&AgentSessionModel{},
		&WorkspaceMemoryModel{},
		&ContinuationStateModel{},
		&ScheduledTaskModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := migrateMemoryFTS(db); err != nil {
		return nil, fmt.Errorf("failed to migrate memory fts: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateMemoryFTS creates the memories_fts virtual table shadowing
// workspace_memories(key, content) plus the three triggers that keep it
// coherent with every insert, update, and delete.
func migrateMemoryFTS(db *gorm.DB) error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			key, content,
			content='workspace_memories',
			content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS workspace_memories_ai AFTER INSERT ON workspace_memories BEGIN
			INSERT INTO memories_fts(rowid, key, content)
			VALUES (new.id, new.key, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS workspace_memories_ad AFTER DELETE ON workspace_memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, key, content)
			VALUES ('delete', old.id, old.key, old.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS workspace_memories_au AFTER UPDATE ON workspace_memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, key, content)
			VALUES ('delete', old.id, old.key, old.content);
			INSERT INTO memories_fts(rowid, key, content)
			VALUES (new.id, new.key, new.content);
		END`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertWorkspace inserts a workspace or, on path conflict, refreshes its
// lastOpened, id, and name.
func (r *SQLiteRepository) UpsertWorkspace(ctx context.Context, id, path, name string) error {
	now := time.Now().UTC()
	model := WorkspaceModel{
		ID:         id,
		Path:       path,
		Name:       name,
		LastOpened: now,
	}

	// A reopened path conflicts on the unique path index; the existing row
	// takes the new id, name and lastOpened
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"id":          id,
			"name":        name,
			"last_opened": now,
			"updated_at":  now,
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert workspace: %w", err)
	}
	return nil
}

// GetWorkspace loads one workspace by id
func (r *SQLiteRepository) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	var model WorkspaceModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	ws := toWorkspace(model)
	return &ws, nil
}

// ListWorkspaces returns up to 20 workspaces, pinned first, then most
// recently opened.
func (r *SQLiteRepository) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var models []WorkspaceModel
	err := r.db.WithContext(ctx).
		Order("pinned DESC, last_opened DESC").
		Limit(20).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	workspaces := make([]domain.Workspace, 0, len(models))
	for _, m := range models {
		workspaces = append(workspaces, toWorkspace(m))
	}
	return workspaces, nil
}

// SetWorkspacePinned toggles the pinned flag
func (r *SQLiteRepository) SetWorkspacePinned(ctx context.Context, id string, pinned bool) error {
	result := r.db.WithContext(ctx).
		Model(&WorkspaceModel{}).
		Where("id = ?", id).
		Update("pinned", pinned)
	if result.Error != nil {
		return fmt.Errorf("failed to pin workspace: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}

// CreateAgentSession inserts a new agent session row
func (r *SQLiteRepository) CreateAgentSession(ctx context.Context, session domain.AgentSession) error {
	model := AgentSessionModel{
		ID:          session.ID,
		WorkspaceID: session.WorkspaceID,
		CLIType:     string(session.CLIType),
		Goal:        session.Goal,
		Status:      string(domain.SessionActive),
		StartedAt:   session.StartedAt,
	}
	if model.StartedAt.IsZero() {
		model.StartedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create agent session: %w", err)
	}
	return nil
}

// EndAgentSession marks a session ended. The ended status and endedAt are
// set at most once; a second call is a no-op.
func (r *SQLiteRepository) EndAgentSession(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&AgentSessionModel{}).
		Where("id = ? AND status = ?", id, string(domain.SessionActive)).
		Updates(map[string]any{
			"status":   string(domain.SessionEnded),
			"ended_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to end agent session: %w", err)
	}
	return nil
}

// IncrementSessionIteration bumps the iteration counter on a session row
func (r *SQLiteRepository) IncrementSessionIteration(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&AgentSessionModel{}).
		Where("id = ?", id).
		UpdateColumn("iteration_count", gorm.Expr("iteration_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment session iteration: %w", err)
	}
	return nil
}

// ListActiveSessions lists sessions with status=active, optionally scoped
// to a workspace.
func (r *SQLiteRepository) ListActiveSessions(ctx context.Context, workspaceID string) ([]domain.AgentSession, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(domain.SessionActive)).
		Order("started_at DESC")
	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}

	var models []AgentSessionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	sessions := make([]domain.AgentSession, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, toAgentSession(m))
	}
	return sessions, nil
}

// SaveContinuationState checkpoints a continuation loop
func (r *SQLiteRepository) SaveContinuationState(ctx context.Context, cp domain.ContinuationCheckpoint) error {
	model := ContinuationStateModel{
		PtyID:            cp.PtyID,
		WorkspaceID:      cp.WorkspaceID,
		Goal:             cp.Goal,
		MaxIterations:    cp.MaxIterations,
		CurrentIteration: cp.CurrentIteration,
		Status:           cp.Status,
	}
	if model.Status == "" {
		model.Status = "active"
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pty_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"workspace_id":      model.WorkspaceID,
			"goal":              model.Goal,
			"max_iterations":    model.MaxIterations,
			"current_iteration": model.CurrentIteration,
			"status":            model.Status,
			"updated_at":        time.Now().UTC(),
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save continuation state: %w", err)
	}
	return nil
}

// UpdateContinuationIteration records the latest iteration number
func (r *SQLiteRepository) UpdateContinuationIteration(ctx context.Context, ptyID string, iteration int) error {
	err := r.db.WithContext(ctx).
		Model(&ContinuationStateModel{}).
		Where("pty_id = ?", ptyID).
		Update("current_iteration", iteration).Error
	if err != nil {
		return fmt.Errorf("failed to update continuation iteration: %w", err)
	}
	return nil
}

// DeleteContinuationState removes the checkpoint row; missing rows are fine
func (r *SQLiteRepository) DeleteContinuationState(ctx context.Context, ptyID string) error {
	err := r.db.WithContext(ctx).
		Delete(&ContinuationStateModel{}, "pty_id = ?", ptyID).Error
	if err != nil {
		return fmt.Errorf("failed to delete continuation state: %w", err)
	}
	return nil
}

// GetContinuationState loads one checkpoint row
func (r *SQLiteRepository) GetContinuationState(ctx context.Context, ptyID string) (*domain.ContinuationCheckpoint, error) {
	var model ContinuationStateModel
	err := r.db.WithContext(ctx).First(&model, "pty_id = ?", ptyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get continuation state: %w", err)
	}
	cp := toCheckpoint(model)
	return &cp, nil
}
