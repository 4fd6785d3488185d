package execution

import (
	"fmt"
	"os"
)

// buildPromptContract concatenates the agent's prompt file with an
// injected "Output contract" preamble telling the
// executor exactly where to write its result and how to report back.
func buildPromptContract(ec Context, taskPath string) (string, error) {
	body, err := os.ReadFile(ec.PromptPath)
	if err != nil {
		return "", fmt.Errorf("read prompt file %s: %w", ec.PromptPath, err)
	}

	preamble := fmt.Sprintf(`## Output contract

- Task file: %s
- Output kind: %s
- Output path: %s
- When you finish, update the task file's frontmatter "status" field to one
  of PROCESSED, FAILED, or NEEDS_INPUT, and append a summary line to its
  "## Process Log" section.
- %s

---

`, taskPath, ec.Agent.OutputKind, ec.OutputPath, outputInstruction(ec))

	return preamble + string(body), nil
}

func outputInstruction(ec Context) string {
	if ec.Agent.OutputKind == "update_file" {
		return fmt.Sprintf("Modify the input file in place: %s", ec.TriggerPath)
	}
	return fmt.Sprintf("Write at least one new file under: %s", ec.OutputPath)
}
