//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

func show(title, body string) error {
	// osascript strings are double-quoted; escape embedded quotes
	esc := func(s string) string {
		return strings.ReplaceAll(s, `"`, `\"`)
	}
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, esc(body), esc(title))
	return exec.Command("osascript", "-e", script).Run()
}
