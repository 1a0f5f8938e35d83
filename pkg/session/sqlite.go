// Copyright 2025 Agentdeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createSurfacesSchemaSQL = `
CREATE TABLE IF NOT EXISTS surfaces (
    agent_id VARCHAR(255) NOT NULL,
    surface VARCHAR(255) NOT NULL,
    state_json TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (agent_id, surface)
)`

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite tolerates exactly one writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// SQLiteBackend stores surface state in a SQLite table keyed by
// (agent_id, surface).
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates the backend and its schema.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, createSurfacesSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Load(agentID, surface string) ([]byte, bool, error) {
	var stateJSON string
	err := b.db.QueryRow(
		`SELECT state_json FROM surfaces WHERE agent_id = ? AND surface = ?`,
		agentID, surface,
	).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load surface: %w", err)
	}
	return []byte(stateJSON), true, nil
}

func (b *SQLiteBackend) Save(agentID, surface string, state []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO surfaces (agent_id, surface, state_json, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (agent_id, surface) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		agentID, surface, string(state), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save surface: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(agentID, surface string) error {
	_, err := b.db.Exec(
		`DELETE FROM surfaces WHERE agent_id = ? AND surface = ?`,
		agentID, surface,
	)
	if err != nil {
		return fmt.Errorf("failed to delete surface: %w", err)
	}
	return nil
}

// Compile-time interface check
var _ Backend = (*SQLiteBackend)(nil)
var _ Backend = (*MemoryBackend)(nil)
