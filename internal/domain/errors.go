package domain

import "errors"

var (
	ErrInvalidCLIType      = errors.New("invalid cli type")
	ErrSessionNotFound     = errors.New("session not found")
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrMemoryNotFound      = errors.New("memory not found")
	ErrDirectoryNotFound   = errors.New("directory does not exist")
	ErrResumeNotSupported  = errors.New("resume is only supported for claude")
	ErrOneShotNotSupported = errors.New("one-shot loop is only supported for claude")
	ErrGoalRequired        = errors.New("goal is required")
	ErrResizeOutOfRange    = errors.New("resize dimensions out of range")
)
