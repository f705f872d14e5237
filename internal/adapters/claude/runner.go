// Package claude adapts the Claude CLI for hidden one-shot runs.
package claude

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/renato0307/forge/internal/ports"
)

// Runner executes the claude binary as a piped (non-PTY) child.
type Runner struct {
	Bin string
}

// Compile-time interface verification
var _ ports.OneShotRunner = (*Runner)(nil)

// NewRunner creates a Runner invoking "claude" from PATH.
func NewRunner() *Runner {
	return &Runner{Bin: "claude"}
}

// Run launches the CLI with the prompt on stdin and collects combined
// stdout and stderr. Cancellation of ctx kills the child.
func (r *Runner) Run(ctx context.Context, spec ports.OneShotSpec) (ports.OneShotResult, error) {
	cmd := exec.CommandContext(ctx, r.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = runEnv(os.Environ(), spec.Home)
	cmd.Stdin = strings.NewReader(spec.Stdin)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := ports.OneShotResult{Output: out.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// runEnv copies env, redirecting the home-pointing variables when an
// isolated home is requested.
func runEnv(env []string, home string) []string {
	if home == "" {
		return env
	}

	redirected := map[string]string{"HOME": home}
	if runtime.GOOS == "windows" {
		redirected["USERPROFILE"] = home
		redirected["HOMEDRIVE"] = filepath.VolumeName(home)
		redirected["HOMEPATH"] = strings.TrimPrefix(home, filepath.VolumeName(home))
		redirected["APPDATA"] = filepath.Join(home, "AppData", "Roaming")
		redirected["LOCALAPPDATA"] = filepath.Join(home, "AppData", "Local")
	}

	out := make([]string, 0, len(env)+len(redirected))
	for _, kv := range env {
		eq := strings.IndexByte(kv, '=')
		if eq > 0 {
			if _, ok := redirected[kv[:eq]]; ok {
				continue
			}
		}
		out = append(out, kv)
	}
	for k, v := range redirected {
		out = append(out, k+"="+v)
	}
	return out
}
