package synthesis

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// seedFiles are the only files copied from the user's real home into an
// isolated one: just enough for the CLI to authenticate.
var seedFiles = []string{
	".claude.json",
	filepath.Join(".claude", ".credentials.json"),
	filepath.Join(".claude", "settings.json"),
	filepath.Join(".claude", "settings.local.json"),
	filepath.Join(".claude", "CLAUDE.md"),
}

// buildIsolatedHome creates a fresh temp root with a home subtree seeded
// with the credential and settings files. The caller must remove root when
// the run ends. The user's real home is only ever read.
func buildIsolatedHome() (root, home string, err error) {
	root, err = os.MkdirTemp("", "forge-synth-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create isolation root: %w", err)
	}

	home = filepath.Join(root, "home")
	if err := os.MkdirAll(home, 0700); err != nil {
		os.RemoveAll(root)
		return "", "", fmt.Errorf("failed to create isolated home: %w", err)
	}

	if runtime.GOOS == "windows" {
		for _, sub := range []string{
			filepath.Join("AppData", "Roaming"),
			filepath.Join("AppData", "Local"),
		} {
			if err := os.MkdirAll(filepath.Join(home, sub), 0700); err != nil {
				os.RemoveAll(root)
				return "", "", fmt.Errorf("failed to create %s: %w", sub, err)
			}
		}
	}

	realHome, err := os.UserHomeDir()
	if err != nil {
		// No real home to seed from; the child will just be unauthenticated
		return root, home, nil
	}

	for _, rel := range seedFiles {
		copyIfExists(filepath.Join(realHome, rel), filepath.Join(home, rel))
	}

	return root, home, nil
}

// copyIfExists copies src to dst when src is a regular file; missing files
// are skipped silently.
func copyIfExists(src, dst string) {
	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return
	}

	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer out.Close()

	io.Copy(out, in)
}
