package task

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads and decodes a task file from disk.
func Parse(path string) (*Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(path, raw)
}

// ParseBytes decodes an in-memory task file; split out from Parse so tests
// can exercise it without touching disk.
func ParseBytes(path string, raw []byte) (*Task, error) {
	content := string(raw)
	if !strings.HasPrefix(content, "---\n") {
		return nil, fmt.Errorf("task file %s: missing frontmatter delimiter", path)
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return nil, fmt.Errorf("task file %s: unterminated frontmatter", path)
	}
	yamlBlock := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, fmt.Errorf("task file %s: parse frontmatter: %w", path, err)
	}

	t := &Task{Path: path, Frontmatter: fm}
	t.ProcessLog, t.EvalLog = splitSections(body)
	return t, nil
}

// splitSections pulls the bullet lines out from under the "## Process Log"
// and "## Evaluation Log" headings.
func splitSections(body string) (processLog, evalLog []string) {
	lines := strings.Split(body, "\n")
	var target *[]string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == processLogHeading:
			target = &processLog
			continue
		case trimmed == evalLogHeading:
			target = &evalLog
			continue
		case strings.HasPrefix(trimmed, "## "):
			target = nil
			continue
		}
		if target != nil && trimmed != "" {
			*target = append(*target, trimmed)
		}
	}
	return processLog, evalLog
}
