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

// Package session persists conversation-surface state across process
// restarts. The in-memory store is authoritative while the process runs;
// the backend is a write-through copy read only on a cache miss.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentdeck/agentdeck/pkg/console"
)

// Backend stores one serialized view model per (agent, surface) key.
type Backend interface {
	Load(agentID, surface string) ([]byte, bool, error)
	Save(agentID, surface string, state []byte) error
	Delete(agentID, surface string) error
}

// Store caches view models in memory and writes them through to the
// backend on every save. Reads hit the backend only when the key has not
// been seen since the process started, so a concurrent writer elsewhere
// never silently overwrites live in-memory state.
type Store struct {
	backend Backend

	mu    sync.Mutex
	cache map[string]*console.ViewModel
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		cache:   make(map[string]*console.ViewModel),
	}
}

func storeKey(agentID, surface string) string {
	return agentID + "|" + surface
}

// Get returns the surface's view model, restoring it from the backend on
// first access and creating an empty one when nothing is stored.
func (s *Store) Get(agentID, surface string) (*console.ViewModel, error) {
	key := storeKey(agentID, surface)

	s.mu.Lock()
	defer s.mu.Unlock()

	if vm, ok := s.cache[key]; ok {
		return vm, nil
	}

	raw, ok, err := s.backend.Load(agentID, surface)
	if err != nil {
		return nil, fmt.Errorf("failed to load surface state: %w", err)
	}

	vm := console.NewViewModel()
	if ok {
		// A corrupt stored blob falls back to a fresh surface rather
		// than wedging the agent.
		if err := json.Unmarshal(raw, vm); err != nil {
			vm = console.NewViewModel()
		}
		if vm.Mode == "" {
			vm.Mode = console.ModeStream
		}
	}
	s.cache[key] = vm
	return vm, nil
}

// Save writes the view model through to the backend and keeps it cached.
func (s *Store) Save(agentID, surface string, vm *console.ViewModel) error {
	raw, err := json.Marshal(vm)
	if err != nil {
		return fmt.Errorf("failed to marshal surface state: %w", err)
	}

	s.mu.Lock()
	s.cache[storeKey(agentID, surface)] = vm
	s.mu.Unlock()

	if err := s.backend.Save(agentID, surface, raw); err != nil {
		return fmt.Errorf("failed to save surface state: %w", err)
	}
	return nil
}

// Clear removes the surface from the cache and the backend.
func (s *Store) Clear(agentID, surface string) error {
	s.mu.Lock()
	delete(s.cache, storeKey(agentID, surface))
	s.mu.Unlock()

	if err := s.backend.Delete(agentID, surface); err != nil {
		return fmt.Errorf("failed to delete surface state: %w", err)
	}
	return nil
}

// Compile-time interface check
var _ console.Persister = (*Store)(nil)

// MemoryBackend keeps serialized state in a map. Used when no data
// directory is configured, and by tests.
type MemoryBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(agentID, surface string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.blobs[storeKey(agentID, surface)]
	return raw, ok, nil
}

func (m *MemoryBackend) Save(agentID, surface string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[storeKey(agentID, surface)] = append([]byte(nil), state...)
	return nil
}

func (m *MemoryBackend) Delete(agentID, surface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, storeKey(agentID, surface))
	return nil
}
