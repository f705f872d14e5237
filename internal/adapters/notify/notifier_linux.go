//go:build linux

package notify

import "os/exec"

func show(title, body string) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return terminalBell()
	}
	return exec.Command("notify-send", "--app-name=forge", title, body).Run()
}
