package task

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const processLogHeading = "## Process Log"
const evalLogHeading = "## Evaluation Log"

// Render serializes a Task back into the on-disk markdown representation:
// a YAML frontmatter block followed by the Process Log (and, if present,
// Evaluation Log) sections.
func Render(t *Task) (string, error) {
	fm, err := yaml.Marshal(t.Frontmatter)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fm)
	sb.WriteString("---\n\n")
	sb.WriteString(processLogHeading)
	sb.WriteString("\n\n")
	for _, line := range t.ProcessLog {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(t.EvalLog) > 0 {
		sb.WriteString("\n")
		sb.WriteString(evalLogHeading)
		sb.WriteString("\n\n")
		for _, line := range t.EvalLog {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
