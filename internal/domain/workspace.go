package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Workspace represents a project directory known to forge. It is created on
// first open and refreshed on every subsequent open; it is never deleted.
type Workspace struct {
	ID         string
	Path       string
	Name       string
	LastOpened time.Time
	Pinned     bool
	Config     string
}

// WorkspaceID derives the stable workspace identifier from an absolute path:
// the first 16 hex characters of its SHA-256.
func WorkspaceID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])[:16]
}

// Skill is one SKILL.md discovered in a workspace or the global skills dir.
type Skill struct {
	Name        string
	Description string
	Path        string
	Source      string // "workspace" or "global"
	Body        string
}
