package poller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryDropPoller_MovesMatchingFiles(t *testing.T) {
	staging := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staging, "photo.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "notes.txt"), []byte("x"), 0o644))

	p, err := NewDirectoryDropPoller("photos", staging, target, "*.jpg")
	require.NoError(t, err)

	require.NoError(t, p.Poll(context.Background()))

	_, err = os.Stat(filepath.Join(target, "photo.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(staging, "photo.jpg"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(staging, "notes.txt"))
	assert.NoError(t, err, "non-matching files are left in place")
}

func TestDirectoryDropPoller_RejectsBadGlob(t *testing.T) {
	_, err := NewDirectoryDropPoller("bad", t.TempDir(), t.TempDir(), "[")
	require.Error(t, err)
}

func TestManager_RunsRegisteredPollersOnTheirOwnInterval(t *testing.T) {
	stub := &StubPoller{PollerName: "stub"}
	m := NewManager()
	m.Register(stub, 10*time.Millisecond)
	assert.Equal(t, 1, m.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	m.Start(ctx)
	<-ctx.Done()

	assert.GreaterOrEqual(t, stub.Calls, 2)
}
