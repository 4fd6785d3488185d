package execution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveTriggerContent_RemovesMatchedRegion(t *testing.T) {
	vault := t.TempDir()
	notePath := filepath.Join(vault, "note1.md")
	require.NoError(t, os.WriteFile(notePath, []byte("before\n%% #ai %%\nafter\n"), 0o644))

	agent := baseAgent()
	agent.TriggerContentRegex = `%%\s*#ai\b[^%]*%%`
	agent.PostProcess = config.PostProcessRemoveTriggerContent

	require.NoError(t, runPostProcess(Context{Agent: agent, TriggerPath: notePath}))

	raw, err := os.ReadFile(notePath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "#ai")
	assert.Contains(t, string(raw), "before")
	assert.Contains(t, string(raw), "after")
}

func TestRemoveTriggerContent_NoMatchLeavesFileUntouched(t *testing.T) {
	vault := t.TempDir()
	notePath := filepath.Join(vault, "note2.md")
	original := "nothing to strip here\n"
	require.NoError(t, os.WriteFile(notePath, []byte(original), 0o644))

	agent := baseAgent()
	agent.TriggerContentRegex = `%%\s*#ai\b[^%]*%%`
	agent.PostProcess = config.PostProcessRemoveTriggerContent

	require.NoError(t, runPostProcess(Context{Agent: agent, TriggerPath: notePath}))

	raw, err := os.ReadFile(notePath)
	require.NoError(t, err)
	assert.Equal(t, original, string(raw))
}

func TestRunPostProcess_NoopWithoutConfiguration(t *testing.T) {
	agent := baseAgent()
	assert.NoError(t, runPostProcess(Context{Agent: agent}))
}

func TestBuildPromptContract_InjectsOutputContract(t *testing.T) {
	vault := t.TempDir()
	promptPath := filepath.Join(vault, "prompt.md")
	require.NoError(t, os.WriteFile(promptPath, []byte("---\ntitle: x\n---\nSummarize the note."), 0o644))

	agent := baseAgent()
	agent.OutputKind = config.OutputKindNewFile
	ec := Context{
		Agent:      agent,
		PromptPath: promptPath,
		OutputPath: filepath.Join(vault, "AI", "Articles"),
	}

	prompt, err := buildPromptContract(ec, filepath.Join(vault, "Tasks", "task.md"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "## Output contract"))
	assert.Contains(t, prompt, "task.md")
	assert.Contains(t, prompt, "new_file")
	assert.Contains(t, prompt, "Process Log")
	assert.True(t, strings.HasSuffix(prompt, "Summarize the note."), "agent prompt body rides verbatim after the preamble")
}
