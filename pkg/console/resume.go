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
	"context"
	"fmt"
	"log/slog"

	"github.com/agentdeck/agentdeck/pkg/a2a"
)

// Subscriber reopens the event stream of an existing task. *a2a.Client
// satisfies it.
type Subscriber interface {
	Resubscribe(ctx context.Context, taskID string) (<-chan a2a.Event, error)
}

// Resumer reattaches a restored surface to its in-flight task. Triggers
// arrive from surface lifecycle events (restore on mount, focus or
// visibility regained); the Guard decides which of them actually open a
// stream.
type Resumer struct {
	client  Subscriber
	guard   *Guard
	persist Persister
}

// NewResumer creates a resumer sharing the process-wide guard. persist
// may be nil.
func NewResumer(client Subscriber, guard *Guard, persist Persister) *Resumer {
	return &Resumer{client: client, guard: guard, persist: persist}
}

// Resume checks the preconditions and, if they hold, reopens the task's
// event stream and folds it into the view model until a terminal event or
// stream end. It returns true when a subscription was actually opened.
// Preconditions: a task id is known and the last observed state is still
// active; otherwise the call is a no-op. Duplicate triggers inside the
// debounce window and triggers racing a live subscription are dropped
// silently.
func (r *Resumer) Resume(ctx context.Context, reason TriggerReason, agentID, surface string, vm *ViewModel) (bool, error) {
	if vm.TaskID == "" || !vm.LastState.Active() {
		return false, nil
	}
	if !r.guard.Acquire(agentID, vm.TaskID) {
		slog.Debug("Resubscription suppressed", "reason", reason, "agent", agentID, "task", vm.TaskID)
		return false, nil
	}
	defer r.guard.Release(agentID, vm.TaskID)

	slog.Debug("Resubscribing to task", "reason", reason, "agent", agentID, "task", vm.TaskID)

	events, err := r.client.Resubscribe(ctx, vm.TaskID)
	if err != nil {
		// Local and recoverable: a later focus event or manual resend
		// retries. Lifecycle state stays as it was.
		if bubble := vm.PendingAgentBubble(); bubble != nil {
			if bubble.Text != "" {
				bubble.Text += "\n"
			}
			bubble.Text += fmt.Sprintf("Error: %v", err)
			bubble.Pending = false
		}
		r.save(agentID, surface, vm)
		return false, err
	}

	for event := range events {
		outcome := Apply(vm, event)
		r.save(agentID, surface, vm)
		if outcome.Final {
			break
		}
	}
	return true, nil
}

func (r *Resumer) save(agentID, surface string, vm *ViewModel) {
	if r.persist == nil {
		return
	}
	if err := r.persist.Save(agentID, surface, vm); err != nil {
		slog.Warn("Failed to persist surface state", "agent", agentID, "surface", surface, "error", err)
	}
}
