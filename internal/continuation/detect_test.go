package continuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPromptIdle(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		want   bool
	}{
		{"claude prompt", "hello\n❯ ", true},
		{"claude prompt no space", "doing things\n❯", true},
		{"posix prompt", "output\nuser@host:~/proj$ ", true},
		{"windows prompt", "output\r\nC:\\Users\\dev> ", true},
		{"cli repl prompt", "thinking\nclaude> ", true},
		{"gemini repl prompt", "thinking\ngemini> ", true},
		{"bare prompt", "done\n> ", true},
		{"mid output", "downloading 42%...", false},
		{"prose ending", "I will now continue with the task.", false},
		{"prompt buried too deep", "❯ \na\nb\nc\nd\ne\nf", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectPromptIdle(tt.buffer, ""))
		})
	}
}

func TestDetectPromptIdle_ANSIStripped(t *testing.T) {
	// Colored prompt with a cursor-position sequence after it
	buffer := "task output\n\x1b[32m❯\x1b[0m \x1b[6n"
	assert.True(t, detectPromptIdle(buffer, ""))
}

func TestDetectPromptIdle_Sentinel(t *testing.T) {
	assert.True(t, detectPromptIdle("work done\n__MARKER__\n", "__MARKER__"))
	assert.False(t, detectPromptIdle("work in progress", "__MARKER__"))
}

func TestDetectCompletion(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		want   bool
	}{
		{"promise marker", "blah <promise>DONE</promise> blah", true},
		{"all tasks completed", "Great news: All tasks completed!", true},
		{"task complete", "the task complete signal", true},
		{"finished successfully", "Build finished successfully.", true},
		{"completed successfully", "Migration completed successfully", true},
		{"case insensitive", "ALL TASKS COMPLETED", true},
		{"no marker", "still working on it", false},
		{"near miss", "tasks completed: 3 of 9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectCompletion(tt.buffer))
		})
	}
}
