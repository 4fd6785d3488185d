package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeVaultFixture lays out a minimal vault with one custom_script agent
// ("Echo Agent (ECA)") watching Ingest/ and writing into Output/, backed by
// a fake-executor shell script standing in for a real AI CLI.
func writeVaultFixture(t *testing.T, extraYAML string) string {
	t.Helper()
	vault := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Prompts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Ingest"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vault, "Prompts", "Echo Agent (ECA).md"), []byte("---\ntitle: Echo Agent\nabbreviation: ECA\n---\nEcho the input."), 0o644))

	scriptPath := filepath.Join(vault, "fake-executor.sh")
	outDir := filepath.Join(vault, "Output")
	script := "#!/bin/sh\nsleep 0.05\necho done > \"" + outDir + "/result-$(date +%s%N).md\"\n"
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))

	yaml := fmt.Sprintf(`orchestrator:
  prompts_dir: Prompts
  tasks_dir: Tasks
  logs_dir: .orchestrator/logs
  max_concurrent: 2
  poll_interval: 1
  orphan_grace: 300
  shutdown_grace: 2
  executors:
    custom_script:
      command: %s

nodes:
  - type: agent
    name: Echo Agent (ECA)
    input_path: ["Ingest"]
    output_path: Output
    output_kind: new_file
    executor: custom_script
    timeout_seconds: 5
    max_parallel: 2
    priority: medium
%s`, scriptPath, extraYAML)
	require.NoError(t, os.WriteFile(filepath.Join(vault, config.ConfigFileName), []byte(yaml), 0o644))
	return vault
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestOrchestrator_SingleAgentHappyPath(t *testing.T) {
	vault := writeVaultFixture(t, "")
	cfg, err := config.Load(vault, "")
	require.NoError(t, err)

	orc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = orc.Run(ctx)
		close(runDone)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(vault, "Ingest", "note.md"), []byte("hello"), 0o644))

	var tasks []task.QueuedTask
	waitFor(t, 5*time.Second, func() bool {
		qt, err := orc.tasks.ListByStatus(task.StatusProcessed)
		if err != nil {
			return false
		}
		tasks = qt
		return len(tasks) == 1
	})
	assert.Equal(t, task.StatusProcessed, tasks[0].Task.Frontmatter.Status)
	assert.NotEmpty(t, tasks[0].Task.Frontmatter.OutputFile)

	cancel()
	<-runDone
}

func TestOrchestrator_OverloadQueuesThenDrains(t *testing.T) {
	vault := writeVaultFixture(t, "")
	cfg, err := config.Load(vault, "")
	require.NoError(t, err)
	cfg.MaxConcurrent = 1
	cfg.Agents[0].MaxParallel = 1

	orc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = orc.Run(ctx) }()

	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(vault, "Ingest", fmt.Sprintf("note-%d.md", i)), []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 5*time.Second, func() bool {
		processed, err := orc.tasks.ListByStatus(task.StatusProcessed)
		return err == nil && len(processed) == 2
	})
}

func TestOrchestrator_TriggerDispatchesManualEvent(t *testing.T) {
	vault := writeVaultFixture(t, "")
	cfg, err := config.Load(vault, "")
	require.NoError(t, err)

	orc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = orc.Run(ctx) }()

	require.NoError(t, orc.Trigger("ECA", ""))

	waitFor(t, 5*time.Second, func() bool {
		processed, err := orc.tasks.ListByStatus(task.StatusProcessed)
		return err == nil && len(processed) == 1
	})
}

func TestOrchestrator_RecoversOrphanedTaskOnStartup(t *testing.T) {
	vault := writeVaultFixture(t, "")
	cfg, err := config.Load(vault, "")
	require.NoError(t, err)
	cfg.OrphanGrace = 0

	tasksDir := cfg.TasksDir
	require.NoError(t, os.MkdirAll(tasksDir, 0o755))
	stale := fmt.Sprintf("---\nagent: Echo Agent (ECA)\nstatus: IN_PROGRESS\npriority: medium\ncreated: %s\n---\n\n## Process Log\n", time.Now().Add(-time.Hour).Format(time.RFC3339))
	require.NoError(t, os.WriteFile(filepath.Join(tasksDir, "2026-01-01-ECA-stale.md"), []byte(stale), 0o644))

	orc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = orc.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool {
		failed, err := orc.tasks.ListByStatus(task.StatusFailed)
		return err == nil && len(failed) == 1
	})
	cancel()
}
