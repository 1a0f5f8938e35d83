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

package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentdeck/agentdeck/pkg/a2a"
)

const createAgentsSchemaSQL = `
CREATE TABLE IF NOT EXISTS agents (
    id VARCHAR(255) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    version VARCHAR(100),
    card_url TEXT NOT NULL,
    rest_base TEXT NOT NULL,
    bearer TEXT,
    card_json TEXT,
    active BOOLEAN NOT NULL DEFAULT FALSE,
    added_at TIMESTAMP NOT NULL
)`

// SQLiteStore persists registry records in the agents table. The active
// selection is a flag on the row so the whole registry round-trips
// through one table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the store and its schema. The db is shared with
// other backends; the store does not own its lifecycle.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, createAgentsSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LoadAll() ([]Record, string, error) {
	rows, err := s.db.Query(
		`SELECT id, name, version, card_url, rest_base, bearer, card_json, active, added_at
         FROM agents ORDER BY added_at ASC`)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var records []Record
	var active string
	for rows.Next() {
		var record Record
		var cardJSON string
		var isActive bool
		if err := rows.Scan(&record.ID, &record.Name, &record.Version, &record.CardURL,
			&record.RESTBase, &record.Bearer, &cardJSON, &isActive, &record.AddedAt); err != nil {
			return nil, "", fmt.Errorf("failed to scan agent: %w", err)
		}
		if cardJSON != "" {
			var card a2a.AgentCard
			if err := json.Unmarshal([]byte(cardJSON), &card); err == nil {
				record.Card = &card
			}
		}
		if isActive {
			active = record.ID
		}
		records = append(records, record)
	}
	return records, active, rows.Err()
}

func (s *SQLiteStore) Put(record Record) error {
	var cardJSON string
	if record.Card != nil {
		raw, err := json.Marshal(record.Card)
		if err != nil {
			return fmt.Errorf("failed to marshal agent card: %w", err)
		}
		cardJSON = string(raw)
	}

	_, err := s.db.Exec(
		`INSERT INTO agents (id, name, version, card_url, rest_base, bearer, card_json, active, added_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?)
         ON CONFLICT (id) DO UPDATE SET
             name = excluded.name, version = excluded.version, card_url = excluded.card_url,
             rest_base = excluded.rest_base, bearer = excluded.bearer, card_json = excluded.card_json`,
		record.ID, record.Name, record.Version, record.CardURL,
		record.RESTBase, record.Bearer, cardJSON, record.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM agents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetActive(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE agents SET active = FALSE WHERE active`); err != nil {
		return fmt.Errorf("failed to clear active agent: %w", err)
	}
	if _, err := tx.Exec(`UPDATE agents SET active = TRUE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to set active agent: %w", err)
	}
	return tx.Commit()
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)
