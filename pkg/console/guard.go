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

package console

import (
	"sync"
	"time"
)

// TriggerReason identifies why a resubscription is being attempted.
type TriggerReason string

const (
	ReasonMountRestore TriggerReason = "mount-restore"
	ReasonVisibility   TriggerReason = "visibility"
	ReasonFocus        TriggerReason = "focus"
)

// DefaultDebounce suppresses repeat attempts for the same (agent, task)
// key: focus and visibility triggers tend to fire together on one tick.
const DefaultDebounce = 800 * time.Millisecond

// Guard enforces at most one live subscription per (agent, task) key
// across the whole process, with a short debounce on repeat attempts. It
// is an explicit registry rather than package state so tests construct a
// fresh one.
type Guard struct {
	mu       sync.Mutex
	cooldown map[string]time.Time
	inflight map[string]bool
	debounce time.Duration
	now      func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) GuardOption {
	return func(g *Guard) { g.debounce = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a subscription guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		cooldown: make(map[string]time.Time),
		inflight: make(map[string]bool),
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func guardKey(agentID, taskID string) string {
	return agentID + "|" + taskID
}

// Acquire reports whether a new subscription for the key may start. It
// returns false when the previous attempt started within the debounce
// interval or another subscription for the key is still in flight.
func (g *Guard) Acquire(agentID, taskID string) bool {
	key := guardKey(agentID, taskID)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.cooldown[key]; ok && now.Sub(last) < g.debounce {
		return false
	}
	g.cooldown[key] = now

	if g.inflight[key] {
		return false
	}
	g.inflight[key] = true
	return true
}

// Release clears the in-flight flag for the key. Called unconditionally
// when a stream ends, whether by terminal event or error, so a future
// trigger can retry.
func (g *Guard) Release(agentID, taskID string) {
	key := guardKey(agentID, taskID)

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key)
}

// InFlight reports whether a subscription for the key is currently live.
func (g *Guard) InFlight(agentID, taskID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight[guardKey(agentID, taskID)]
}
