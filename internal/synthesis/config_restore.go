package synthesis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/renato0307/forge/internal/logging"
)

// sanitizeClaudeConfig checks that ~/.claude.json parses and, when it does
// not, restores the newest parseable file from backupDir. Everything here
// is best-effort: when no valid backup exists the job proceeds and the
// child's own error surfaces in its output slot.
func sanitizeClaudeConfig(backupDir string) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(homeDir, ".claude.json")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return // nothing to sanitize
	}
	if json.Valid(data) {
		return
	}

	logging.Logger.Warn("~/.claude.json is corrupted, looking for a backup",
		"backup_dir", backupDir)

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(backupDir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}

	// Newest first
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	for _, c := range candidates {
		backup, err := os.ReadFile(c.path)
		if err != nil || !json.Valid(backup) {
			continue
		}
		if err := os.WriteFile(configPath, backup, 0600); err != nil {
			logging.Logger.Warn("Failed to restore config backup",
				"backup", c.path, "error", err)
			return
		}
		logging.Logger.Info("Restored ~/.claude.json from backup", "backup", c.path)
		return
	}
}
