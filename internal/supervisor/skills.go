package supervisor

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/logging"
)

// workspaceSkillDirs are scanned (in order) relative to the workspace root.
var workspaceSkillDirs = []string{
	filepath.Join(".forge", "skills"),
	filepath.Join(".claude", "skills"),
	filepath.Join(".opencode", "skills"),
}

// agentsFiles is checked in order; the first existing file wins.
var agentsFiles = []string{
	"AGENTS.md",
	"CLAUDE.md",
	filepath.Join(".forge", "AGENTS.md"),
}

type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadSkills scans the workspace and global skill directories. One bad
// SKILL.md never breaks the scan: an unreadable one is skipped, and one
// whose frontmatter does not parse is kept under its directory name.
func LoadSkills(workspacePath, globalSkillsDir string) []domain.Skill {
	var skills []domain.Skill

	for _, dir := range workspaceSkillDirs {
		skills = append(skills, scanSkillDir(filepath.Join(workspacePath, dir), "workspace")...)
	}
	if globalSkillsDir != "" {
		skills = append(skills, scanSkillDir(globalSkillsDir, "global")...)
	}
	return skills
}

// scanSkillDir reads <dir>/*/SKILL.md entries.
func scanSkillDir(dir, source string) []domain.Skill {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var skills []domain.Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), "SKILL.md")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		skill := parseSkill(string(data))
		skill.Path = path
		skill.Source = source
		if skill.Name == "" {
			skill.Name = entry.Name()
		}
		skills = append(skills, skill)
	}
	return skills
}

// parseSkill extracts the fenced frontmatter's name and description; the
// body after the fence is returned verbatim.
func parseSkill(content string) domain.Skill {
	var skill domain.Skill
	skill.Body = content

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return skill
	}
	front, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return skill
	}

	var fm skillFrontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		logging.Logger.Debug("Skipping malformed skill frontmatter", "error", err)
		return skill
	}

	skill.Name = fm.Name
	skill.Description = fm.Description
	skill.Body = strings.TrimPrefix(strings.TrimPrefix(body, "\n"), "\n")
	return skill
}

// LoadAgentsFile returns the first existing agents context file's content,
// or empty when none exists.
func LoadAgentsFile(workspacePath string) string {
	for _, rel := range agentsFiles {
		data, err := os.ReadFile(filepath.Join(workspacePath, rel))
		if err == nil {
			return string(data)
		}
	}
	return ""
}
