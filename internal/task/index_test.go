package task

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_ReconcileMatchesDirectoryScan(t *testing.T) {
	vault := t.TempDir()
	tasksDir := filepath.Join(vault, "Tasks")

	idx, err := OpenIndex(filepath.Join(vault, ".orchestrator", "index.db"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	m := NewManager(vault, tasksDir, idx)
	created := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	_, err = m.CreateTask(testAgent(), Trigger{Path: "/vault/a.md", Created: created}, StatusQueued)
	require.NoError(t, err)
	_, err = m.CreateTask(testAgent(), Trigger{Path: "/vault/b.md", Created: created.Add(time.Hour)}, StatusQueued)
	require.NoError(t, err)

	fromIndex, err := m.ListQueued()
	require.NoError(t, err)
	require.Len(t, fromIndex, 2)

	// Simulate a stale/rebuilt index: wipe and reconcile from disk.
	require.NoError(t, idx.Reconcile(tasksDir))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	afterReconcile, err := m.ListQueued()
	require.NoError(t, err)
	assert.Len(t, afterReconcile, len(fromIndex))
}
