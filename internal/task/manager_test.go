package task

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgent() *config.AgentDefinition {
	return &config.AgentDefinition{
		Name:         "Email Ingest (EIC)",
		Abbreviation: "EIC",
		Priority:     config.PriorityMedium,
		Executor:     config.ExecutorClaude,
	}
}

func TestCreateUpdateReadRoundTrip(t *testing.T) {
	vault := t.TempDir()
	tasksDir := filepath.Join(vault, "Tasks")
	m := NewManager(vault, tasksDir, nil)

	trig := Trigger{Path: filepath.Join(vault, "Ingest", "hello.md"), EventKind: "created", Worker: "claude_code", Created: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	path, err := m.CreateTask(testAgent(), trig, StatusInProgress)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "2026-01-02 EIC - hello.md")

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Frontmatter.Status)
	assert.Equal(t, "Email Ingest (EIC)", got.Frontmatter.Agent)
	assert.Equal(t, "[[Ingest/hello]]", got.Frontmatter.InputFile)

	err = m.UpdateStatus(path, StatusProcessed, func(fm *Frontmatter) {
		fm.OutputFile = "[[AI/Articles/hello]]"
	})
	require.NoError(t, err)

	got, err = Parse(path)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, got.Frontmatter.Status)
	assert.Equal(t, "[[AI/Articles/hello]]", got.Frontmatter.OutputFile)
}

func TestUpdateStatus_RefusesIllegalTransition(t *testing.T) {
	vault := t.TempDir()
	m := NewManager(vault, filepath.Join(vault, "Tasks"), nil)

	trig := Trigger{Created: time.Now()}
	path, err := m.CreateTask(testAgent(), trig, StatusProcessed)
	require.NoError(t, err)

	err = m.UpdateStatus(path, StatusInProgress, nil)
	require.Error(t, err)
	var transErr *ErrIllegalTransition
	assert.ErrorAs(t, err, &transErr)
}

func TestCreateTask_CollisionSuffix(t *testing.T) {
	vault := t.TempDir()
	m := NewManager(vault, filepath.Join(vault, "Tasks"), nil)
	created := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	p1, err := m.CreateTask(testAgent(), Trigger{Path: "/vault/note.md", Created: created}, StatusQueued)
	require.NoError(t, err)
	p2, err := m.CreateTask(testAgent(), Trigger{Path: "/vault/note.md", Created: created}, StatusQueued)
	require.NoError(t, err)
	p3, err := m.CreateTask(testAgent(), Trigger{Path: "/vault/note.md", Created: created}, StatusQueued)
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Contains(t, p2, "-2.md")
	assert.Contains(t, p3, "-3.md")
}

func TestAppendProcessLog(t *testing.T) {
	vault := t.TempDir()
	m := NewManager(vault, filepath.Join(vault, "Tasks"), nil)
	path, err := m.CreateTask(testAgent(), Trigger{Created: time.Now()}, StatusInProgress)
	require.NoError(t, err)

	require.NoError(t, m.AppendProcessLog(path, "starting execution"))
	require.NoError(t, m.AppendProcessLog(path, "done"))

	got, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, got.ProcessLog, 2)
	assert.Contains(t, got.ProcessLog[0], "starting execution")
	assert.Contains(t, got.ProcessLog[1], "done")
}

func TestListQueued_FIFOOrder(t *testing.T) {
	vault := t.TempDir()
	m := NewManager(vault, filepath.Join(vault, "Tasks"), nil)

	older := Trigger{Path: "/vault/a.md", Created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := Trigger{Path: "/vault/b.md", Created: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	_, err := m.CreateTask(testAgent(), newer, StatusQueued)
	require.NoError(t, err)
	_, err = m.CreateTask(testAgent(), older, StatusQueued)
	require.NoError(t, err)

	queued, err := m.ListQueued()
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.True(t, queued[0].Task.Frontmatter.Created.Before(queued[1].Task.Frontmatter.Created))
}

func TestRecoverOrphans(t *testing.T) {
	vault := t.TempDir()
	m := NewManager(vault, filepath.Join(vault, "Tasks"), nil)

	staleRunning := Trigger{Created: time.Now().Add(-2 * time.Hour)}
	staleQueued := Trigger{Path: "/vault/queued.md", Created: time.Now().Add(-3 * time.Hour)}
	freshRunning := Trigger{Path: "/vault/fresh.md", Created: time.Now()}
	freshQueued := Trigger{Path: "/vault/fresh-queued.md", Created: time.Now()}
	staleRunningPath, err := m.CreateTask(testAgent(), staleRunning, StatusInProgress)
	require.NoError(t, err)
	staleQueuedPath, err := m.CreateTask(testAgent(), staleQueued, StatusQueued)
	require.NoError(t, err)
	freshRunningPath, err := m.CreateTask(testAgent(), freshRunning, StatusInProgress)
	require.NoError(t, err)
	freshQueuedPath, err := m.CreateTask(testAgent(), freshQueued, StatusQueued)
	require.NoError(t, err)

	recovered, err := m.RecoverOrphans(time.Hour, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{staleRunningPath, staleQueuedPath}, recovered)

	for _, path := range []string{staleRunningPath, staleQueuedPath} {
		got, err := Parse(path)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, got.Frontmatter.Status)
		assert.Contains(t, got.ProcessLog[0], "orphaned on restart")
	}

	untouched, err := Parse(freshRunningPath)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, untouched.Frontmatter.Status)

	// A fresh QUEUED task survives recovery and stays drainable.
	drainable, err := m.ListQueued()
	require.NoError(t, err)
	require.Len(t, drainable, 1)
	assert.Equal(t, freshQueuedPath, drainable[0].Path)
}
