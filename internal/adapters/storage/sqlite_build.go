//go:build !sqlite_omit_load_extension
// +build !sqlite_omit_load_extension

package storage

// This file holds no code. memories_fts needs FTS5, which mattn/go-sqlite3
// provides only when built with the sqlite_fts5 build tag.
