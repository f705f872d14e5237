package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0644))
}

func TestLoadSkills(t *testing.T) {
	ws := t.TempDir()
	global := t.TempDir()

	writeSkill(t, filepath.Join(ws, ".forge", "skills"), "deploy",
		"---\nname: deploy\ndescription: Ship it safely\n---\nStep one: build.\n")
	writeSkill(t, filepath.Join(ws, ".claude", "skills"), "review",
		"---\nname: review\ndescription: Review checklist\n---\nRead the diff.\n")
	writeSkill(t, global, "global-notes",
		"---\nname: notes\ndescription: Global notes\n---\nBody here.\n")

	skills := LoadSkills(ws, global)
	require.Len(t, skills, 3)

	byName := make(map[string]string)
	sources := make(map[string]string)
	for _, s := range skills {
		byName[s.Name] = s.Description
		sources[s.Name] = s.Source
	}

	assert.Equal(t, "Ship it safely", byName["deploy"])
	assert.Equal(t, "Review checklist", byName["review"])
	assert.Equal(t, "Global notes", byName["notes"])
	assert.Equal(t, "workspace", sources["deploy"])
	assert.Equal(t, "global", sources["notes"])
}

func TestLoadSkills_BadFilesDoNotBreakScan(t *testing.T) {
	ws := t.TempDir()

	writeSkill(t, filepath.Join(ws, ".forge", "skills"), "good",
		"---\nname: good\ndescription: Works\n---\nbody\n")
	// Malformed frontmatter must not break the scan
	writeSkill(t, filepath.Join(ws, ".forge", "skills"), "bad",
		"---\nname: [unclosed\n---\nbody\n")

	skills := LoadSkills(ws, "")
	require.Len(t, skills, 2)

	var good, bad int
	for _, s := range skills {
		switch s.Name {
		case "good":
			good++
		case "bad": // falls back to the directory name
			bad++
		}
	}
	assert.Equal(t, 1, good)
	assert.Equal(t, 1, bad)
}

func TestLoadSkills_MissingDirsAreFine(t *testing.T) {
	skills := LoadSkills(t.TempDir(), "")
	assert.Empty(t, skills)
}

func TestParseSkill(t *testing.T) {
	skill := parseSkill("---\nname: x\ndescription: Why\n---\nThe body.\nMore body.\n")
	assert.Equal(t, "x", skill.Name)
	assert.Equal(t, "Why", skill.Description)
	assert.Equal(t, "The body.\nMore body.\n", skill.Body)
}

func TestParseSkill_NoFrontmatter(t *testing.T) {
	skill := parseSkill("Just a body, no fences.\n")
	assert.Empty(t, skill.Name)
	assert.Equal(t, "Just a body, no fences.\n", skill.Body)
}

func TestLoadAgentsFile_Order(t *testing.T) {
	ws := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".forge"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".forge", "AGENTS.md"), []byte("forge agents"), 0644))
	assert.Equal(t, "forge agents", LoadAgentsFile(ws))

	require.NoError(t, os.WriteFile(filepath.Join(ws, "CLAUDE.md"), []byte("claude context"), 0644))
	assert.Equal(t, "claude context", LoadAgentsFile(ws))

	require.NoError(t, os.WriteFile(filepath.Join(ws, "AGENTS.md"), []byte("agents wins"), 0644))
	assert.Equal(t, "agents wins", LoadAgentsFile(ws))
}

func TestLoadAgentsFile_Missing(t *testing.T) {
	assert.Empty(t, LoadAgentsFile(t.TempDir()))
}
