package continuation

import (
	"regexp"
	"strings"
)

// promptWindowLines is how many trailing output lines are scanned for an
// idle prompt.
const promptWindowLines = 5

// ansiRe strips CSI and OSC escape sequences so prompt regexes can anchor
// to the visible end of line.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

// promptRes match a terminal sitting at an idle prompt, anchored to the end
// of a line.
var promptRes = []*regexp.Regexp{
	regexp.MustCompile(`❯\s*$`),                       // Claude-style
	regexp.MustCompile(`\$\s+$`),                      // POSIX
	regexp.MustCompile(`^[A-Za-z]:\\\S*>\s*$`),        // Windows drive prompt
	regexp.MustCompile(`(claude|gemini|codex)>\s*$`),  // CLI REPLs
	regexp.MustCompile(`^\s*>\s*$`),                   // bare continuation prompt
}

// completionMarkers end the loop regardless of iteration budget. Matching
// is case-insensitive.
var completionMarkers = []string{
	"<promise>done</promise>",
	"all tasks completed",
	"task complete",
	"finished successfully",
	"completed successfully",
}

// stripANSI removes terminal escape sequences from s
func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// detectPromptIdle reports whether the last few lines of buffer end at an
// idle prompt. sentinel, when non-empty, is the one-shot-done marker and
// also counts as idle.
func detectPromptIdle(buffer, sentinel string) bool {
	clean := stripANSI(buffer)

	lines := strings.Split(clean, "\n")
	start := len(lines) - promptWindowLines
	if start < 0 {
		start = 0
	}
	window := lines[start:]

	if sentinel != "" {
		for _, line := range window {
			if strings.Contains(line, sentinel) {
				return true
			}
		}
	}

	for _, line := range window {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			continue
		}
		// Keep one trailing space so `$ `-style prompts still match
		probe := trimmed + " "
		for _, re := range promptRes {
			if re.MatchString(probe) || re.MatchString(line) {
				return true
			}
		}
	}
	return false
}

// detectCompletion reports whether buffer contains any completion marker
func detectCompletion(buffer string) bool {
	lower := strings.ToLower(buffer)
	for _, marker := range completionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
