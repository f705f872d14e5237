package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm/clause"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
)

const memorySearchLimit = 10

// StoreMemory upserts one (workspaceId, key) memory. The FTS index follows
// through the triggers in the same transaction.
func (r *SQLiteRepository) StoreMemory(ctx context.Context, workspaceID, key, content string, category domain.MemoryCategory) error {
	if category == "" {
		category = domain.MemoryCore
	}
	if !domain.ValidMemoryCategory(category) {
		return fmt.Errorf("unknown memory category %q", category)
	}

	now := time.Now().UTC()
	model := WorkspaceMemoryModel{
		WorkspaceID: workspaceID,
		Key:         key,
		Content:     content,
		Category:    string(category),
		UpdatedAt:   now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"content":    content,
			"category":   string(category),
			"updated_at": now,
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}
	return nil
}

// SearchMemory ranks memories for a workspace with FTS5/BM25. An FTS query
// syntax error downgrades to a LIKE search; any other error propagates.
func (r *SQLiteRepository) SearchMemory(ctx context.Context, workspaceID, query string) ([]domain.Memory, error) {
	var models []WorkspaceMemoryModel
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id, m.workspace_id, m.key, m.content, m.category, m.created_at, m.updated_at
		FROM workspace_memories m
		JOIN memories_fts ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ? AND m.workspace_id = ?
		ORDER BY bm25(memories_fts)
		LIMIT ?`,
		query, workspaceID, memorySearchLimit,
	).Scan(&models).Error

	if err != nil {
		if !isFTSSyntaxError(err) {
			return nil, fmt.Errorf("failed to search memories: %w", err)
		}
		logging.Logger.Debug("FTS query rejected, using LIKE fallback",
			"query", query, "error", err)
		return r.searchMemoryLike(ctx, workspaceID, query)
	}

	memories := make([]domain.Memory, 0, len(models))
	for _, m := range models {
		memories = append(memories, toMemory(m))
	}
	return memories, nil
}

// isFTSSyntaxError recognizes the specific class of errors FTS5 raises for
// malformed MATCH expressions. Everything else (missing table, I/O, schema)
// must propagate.
func isFTSSyntaxError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code != sqlite3.ErrError {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "unterminated string")
}

// escapeLike escapes \, % and _ so user input can never act as a wildcard.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// searchMemoryLike is the degraded search path for queries FTS5 rejects:
// each whitespace-separated token becomes a wildcarded LIKE condition.
func (r *SQLiteRepository) searchMemoryLike(ctx context.Context, workspaceID, query string) ([]domain.Memory, error) {
	var conditions []string
	var args []any
	for _, token := range strings.Fields(query) {
		// Quotes are what usually broke the FTS parse; they carry no
		// meaning for a substring match either
		token = strings.Trim(token, `"'`)
		if token == "" {
			continue
		}
		pattern := "%" + escapeLike(token) + "%"
		conditions = append(conditions, `(key LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if len(conditions) == 0 {
		return []domain.Memory{}, nil
	}

	var models []WorkspaceMemoryModel
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Where("("+strings.Join(conditions, " OR ")+")", args...).
		Order("updated_at DESC").
		Limit(memorySearchLimit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}

	memories := make([]domain.Memory, 0, len(models))
	for _, m := range models {
		memories = append(memories, toMemory(m))
	}
	return memories, nil
}

// ListMemories returns a workspace's memories newest-first, optionally
// filtered by category.
func (r *SQLiteRepository) ListMemories(ctx context.Context, workspaceID string, category domain.MemoryCategory) ([]domain.Memory, error) {
	query := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("updated_at DESC")
	if category != "" {
		query = query.Where("category = ?", string(category))
	}

	var models []WorkspaceMemoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	memories := make([]domain.Memory, 0, len(models))
	for _, m := range models {
		memories = append(memories, toMemory(m))
	}
	return memories, nil
}

// DeleteMemory removes one (workspaceId, key) memory
func (r *SQLiteRepository) DeleteMemory(ctx context.Context, workspaceID, key string) error {
	result := r.db.WithContext(ctx).
		Delete(&WorkspaceMemoryModel{}, "workspace_id = ? AND key = ?", workspaceID, key)
	if result.Error != nil {
		return fmt.Errorf("failed to delete memory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMemoryNotFound
	}
	return nil
}
