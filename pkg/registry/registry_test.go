package registry

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardServer(t *testing.T, transport string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"protocolVersion": "0.3.0",
			"name": "demo-agent",
			"url": "%s/rest/",
			"preferredTransport": "%s",
			"version": "1.4.0",
			"capabilities": {"streaming": true}
		}`, "http://agent.example", transport)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRegistry_AddActivatesAgent(t *testing.T) {
	server := cardServer(t, "HTTP+JSON")
	reg := New()

	record, err := reg.Add(context.Background(), server.URL, "Bearer secret-token")
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "demo-agent", record.Name)
	assert.Equal(t, "1.4.0", record.Version)
	assert.Equal(t, "http://agent.example/rest", record.RESTBase)

	active, ok := reg.Active()
	require.True(t, ok)
	assert.Equal(t, record.ID, active.ID)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_AddRejectsNonRESTAgent(t *testing.T) {
	server := cardServer(t, "JSONRPC")
	reg := New()

	_, err := reg.Add(context.Background(), server.URL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP+JSON")
	assert.Equal(t, 0, reg.Count())
}

func TestRegistry_RemoveClearsActive(t *testing.T) {
	server := cardServer(t, "HTTP+JSON")
	reg := New()

	record, err := reg.Add(context.Background(), server.URL, "")
	require.NoError(t, err)
	require.NoError(t, reg.Remove(record.ID))

	_, ok := reg.Active()
	assert.False(t, ok)
	assert.Error(t, reg.Remove(record.ID))
}

func TestRegistry_SetActiveUnknownAgent(t *testing.T) {
	reg := New()
	assert.Error(t, reg.SetActive("nope"))
}

func TestRecord_AuthLabel(t *testing.T) {
	tests := []struct {
		bearer string
		want   string
	}{
		{"", "none"},
		{"Bearer abc", "bearer ****"},
		{"Bearer secret-token-1234", "bearer ****1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Record{Bearer: tt.bearer}.AuthLabel())
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(openTestDB(t))
	require.NoError(t, err)

	first := Record{
		ID: "a1", Name: "alpha", Version: "1.0.0",
		CardURL: "https://a/.well-known/agent-card.json", RESTBase: "https://a/rest",
		Bearer: "Bearer tok", AddedAt: time.Now().Truncate(time.Second),
	}
	second := Record{
		ID: "a2", Name: "beta",
		CardURL: "https://b/card.json", RESTBase: "https://b",
		AddedAt: time.Now().Truncate(time.Second).Add(time.Second),
	}
	require.NoError(t, store.Put(first))
	require.NoError(t, store.Put(second))
	require.NoError(t, store.SetActive("a2"))

	records, active, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "Bearer tok", records[0].Bearer)
	assert.Equal(t, "a2", active)

	// Switching active is exclusive.
	require.NoError(t, store.SetActive("a1"))
	_, active, err = store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "a1", active)

	require.NoError(t, store.Delete("a1"))
	records, _, err = store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a2", records[0].ID)
}

func TestRegistry_RestoreFromStore(t *testing.T) {
	db := openTestDB(t)
	store, err := NewSQLiteStore(db)
	require.NoError(t, err)

	server := cardServer(t, "HTTP+JSON")
	reg := New(WithStore(store))
	record, err := reg.Add(context.Background(), server.URL, "Bearer tok")
	require.NoError(t, err)

	// A fresh registry over the same store simulates a restart.
	restored := New(WithStore(store))
	require.NoError(t, restored.Restore())

	active, ok := restored.Active()
	require.True(t, ok)
	assert.Equal(t, record.ID, active.ID)
	assert.Equal(t, "demo-agent", active.Name)
	require.NotNil(t, active.Card)
	assert.True(t, active.Card.IsRESTCapable())
}
