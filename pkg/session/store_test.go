package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/console"
)

func TestStore_GetCreatesEmptySurface(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	vm, err := store.Get("agent", "playground")
	require.NoError(t, err)
	assert.Empty(t, vm.Bubbles)
	assert.Equal(t, console.ModeStream, vm.Mode)
}

func TestStore_SaveThenRestore(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)

	vm, err := store.Get("agent", "playground")
	require.NoError(t, err)
	vm.TaskID = "T1"
	vm.LastState = a2a.TaskStateWorking
	vm.AppendUser("hi")
	require.NoError(t, store.Save("agent", "playground", vm))

	// A fresh store over the same backend simulates a process restart.
	restored, err := NewStore(backend).Get("agent", "playground")
	require.NoError(t, err)
	assert.Equal(t, "T1", restored.TaskID)
	assert.Equal(t, a2a.TaskStateWorking, restored.LastState)
	require.Len(t, restored.Bubbles, 1)
	assert.Equal(t, "hi", restored.Bubbles[0].Text)
}

func TestStore_CacheIsAuthoritative(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)

	vm, err := store.Get("agent", "playground")
	require.NoError(t, err)
	vm.TaskID = "T1"

	// A stale write landing in the backend does not leak into the live
	// surface.
	require.NoError(t, backend.Save("agent", "playground", []byte(`{"msgs":null,"taskId":"STALE","mode":"stream"}`)))

	again, err := store.Get("agent", "playground")
	require.NoError(t, err)
	assert.Same(t, vm, again)
	assert.Equal(t, "T1", again.TaskID)
}

func TestStore_CorruptBlobFallsBackToEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save("agent", "playground", []byte("not json")))

	vm, err := NewStore(backend).Get("agent", "playground")
	require.NoError(t, err)
	assert.Empty(t, vm.Bubbles)
	assert.Equal(t, console.ModeStream, vm.Mode)
}

func TestStore_ClearRemovesBothCopies(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)

	vm, err := store.Get("agent", "playground")
	require.NoError(t, err)
	vm.TaskID = "T1"
	require.NoError(t, store.Save("agent", "playground", vm))
	require.NoError(t, store.Clear("agent", "playground"))

	fresh, err := store.Get("agent", "playground")
	require.NoError(t, err)
	assert.Empty(t, fresh.TaskID)

	_, ok, err := backend.Load("agent", "playground")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SurfacesAreIsolated(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	first, err := store.Get("agent-a", "playground")
	require.NoError(t, err)
	first.TaskID = "T1"

	second, err := store.Get("agent-b", "playground")
	require.NoError(t, err)
	assert.Empty(t, second.TaskID)
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "agentdeck.db"))
	require.NoError(t, err)

	backend, err := NewSQLiteBackend(db)
	require.NoError(t, err)
	defer backend.Close()

	_, ok, err := backend.Load("agent", "playground")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Save("agent", "playground", []byte(`{"taskId":"T1"}`)))
	require.NoError(t, backend.Save("agent", "playground", []byte(`{"taskId":"T2"}`)))

	raw, ok, err := backend.Load("agent", "playground")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"taskId":"T2"}`, string(raw))

	require.NoError(t, backend.Delete("agent", "playground"))
	_, ok, err = backend.Load("agent", "playground")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_OverSQLite(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "agentdeck.db"))
	require.NoError(t, err)

	backend, err := NewSQLiteBackend(db)
	require.NoError(t, err)
	defer backend.Close()

	store := NewStore(backend)
	vm, err := store.Get("agent", "playground")
	require.NoError(t, err)
	vm.Mode = console.ModeBlocking
	vm.AppendUser("persisted")
	require.NoError(t, store.Save("agent", "playground", vm))

	restored, err := NewStore(backend).Get("agent", "playground")
	require.NoError(t, err)
	assert.Equal(t, console.ModeBlocking, restored.Mode)
	require.Len(t, restored.Bubbles, 1)
	assert.Equal(t, "persisted", restored.Bubbles[0].Text)
}
