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

// Package registry tracks the agents known to the control plane. An agent
// is registered by its card URL; the card is resolved once at add time
// and the REST base URL cached from it.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/a2a"
)

// Record is one registered agent connection. Bearer is the raw
// authorization string attached by the proxy; callers that render a
// record use AuthLabel instead.
type Record struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Version  string         `json:"version,omitempty"`
	CardURL  string         `json:"cardUrl"`
	RESTBase string         `json:"restBase"`
	Bearer   string         `json:"-"`
	Card     *a2a.AgentCard `json:"card,omitempty"`
	AddedAt  time.Time      `json:"addedAt"`
}

// AuthLabel returns a display-only description of the record's
// authorization, never the credential itself.
func (r Record) AuthLabel() string {
	if r.Bearer == "" {
		return "none"
	}
	token := strings.TrimSpace(strings.TrimPrefix(r.Bearer, "Bearer "))
	if len(token) <= 4 {
		return "bearer ****"
	}
	return "bearer ****" + token[len(token)-4:]
}

// Store persists registry records.
type Store interface {
	LoadAll() ([]Record, string, error)
	Put(record Record) error
	Delete(id string) error
	SetActive(id string) error
}

// Registry is the in-memory agent directory, write-through to an
// optional store.
type Registry struct {
	httpClient *http.Client
	store      Store

	mu      sync.RWMutex
	records map[string]*Record
	active  string
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient overrides the client used to fetch agent cards.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) { r.httpClient = client }
}

// WithStore attaches a persistence backend. Existing records are loaded
// by Restore.
func WithStore(store Store) Option {
	return func(r *Registry) { r.store = store }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		records:    make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore loads persisted records from the store.
func (r *Registry) Restore() error {
	if r.store == nil {
		return nil
	}
	records, active, err := r.store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range records {
		record := records[i]
		r.records[record.ID] = &record
	}
	if _, ok := r.records[active]; ok {
		r.active = active
	}
	return nil
}

// Add resolves the agent card at cardURL, validates that the agent
// exposes an HTTP+JSON interface, and registers it as the active agent.
// bearer may be empty or a full authorization header value.
func (r *Registry) Add(ctx context.Context, cardURL, bearer string) (*Record, error) {
	card, err := a2a.FetchAgentCard(ctx, r.httpClient, cardURL, bearer)
	if err != nil {
		return nil, err
	}

	rest := card.RESTInterface()
	if rest == nil {
		return nil, fmt.Errorf("agent %q does not expose an HTTP+JSON interface (preferred transport: %s)",
			card.Name, card.PreferredTransport)
	}

	record := &Record{
		ID:       uuid.NewString(),
		Name:     card.Name,
		Version:  card.Version,
		CardURL:  cardURL,
		RESTBase: strings.TrimRight(rest.URL, "/"),
		Bearer:   bearer,
		Card:     card,
		AddedAt:  time.Now(),
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.active = record.ID
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Put(*record); err != nil {
			return nil, fmt.Errorf("failed to persist agent: %w", err)
		}
		if err := r.store.SetActive(record.ID); err != nil {
			return nil, fmt.Errorf("failed to persist active agent: %w", err)
		}
	}
	return record, nil
}

// Get returns the record by id.
func (r *Registry) Get(id string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, false
	}
	copied := *record
	return &copied, true
}

// List returns all records ordered by add time.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].AddedAt.Before(records[j].AddedAt)
	})
	return records
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Active returns the currently selected agent.
func (r *Registry) Active() (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[r.active]
	if !ok {
		return nil, false
	}
	copied := *record
	return &copied, true
}

// SetActive selects the agent by id.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	if _, ok := r.records[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown agent: %s", id)
	}
	r.active = id
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SetActive(id); err != nil {
			return fmt.Errorf("failed to persist active agent: %w", err)
		}
	}
	return nil
}

// Remove deletes the record. Removing the active agent leaves no agent
// selected.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	if _, ok := r.records[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown agent: %s", id)
	}
	delete(r.records, id)
	if r.active == id {
		r.active = ""
	}
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(id); err != nil {
			return fmt.Errorf("failed to delete agent: %w", err)
		}
	}
	return nil
}
