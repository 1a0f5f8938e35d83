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
	"github.com/agentdeck/agentdeck/pkg/a2a"
)

// completedPlaceholder stands in for an agent reply that produced no text.
const completedPlaceholder = "(completed)"

// Outcome reports what a fold changed.
type Outcome struct {
	// Final means no further events are expected for this task; the
	// caller must release any subscription resources.
	Final bool
}

// Apply folds one protocol event into the view model. It is pure with
// respect to I/O: persistence and transport are the caller's concern.
// Nil events (malformed or unknown wire data) are ignored.
func Apply(vm *ViewModel, event a2a.Event) Outcome {
	switch ev := event.(type) {
	case *a2a.Task:
		applyTask(vm, ev)
	case *a2a.StatusUpdateEvent:
		return applyStatusUpdate(vm, ev)
	case *a2a.Message:
		applyMessage(vm, ev)
	case *a2a.ArtifactUpdateEvent:
		applyArtifactUpdate(vm, ev)
	}
	return Outcome{}
}

// applyTask handles a full snapshot: it is authoritative, so ids and the
// artifact set are overwritten wholesale.
func applyTask(vm *ViewModel, task *a2a.Task) {
	if task.ID != "" {
		vm.TaskID = task.ID
	}
	if task.ContextID != "" {
		vm.ContextID = task.ContextID
	}
	if task.Status.State != "" {
		vm.LastState = task.Status.State
	}
	if task.Artifacts != nil {
		vm.Artifacts = append([]a2a.Artifact(nil), task.Artifacts...)
	}
	if task.Status.Message != nil {
		if note := a2a.TextFromParts(task.Status.Message.Parts); note != "" {
			vm.StatusNote = note
		}
	}
}

func applyStatusUpdate(vm *ViewModel, ev *a2a.StatusUpdateEvent) Outcome {
	// First-writer-wins: a resumed subscription may deliver ids before
	// the original send's task-id echo, and must not clobber them.
	if vm.TaskID == "" && ev.TaskID != "" {
		vm.TaskID = ev.TaskID
	}
	if vm.ContextID == "" && ev.ContextID != "" {
		vm.ContextID = ev.ContextID
	}
	if ev.Status.State != "" {
		vm.LastState = ev.Status.State
	}

	if ev.Status.Message != nil {
		if text := a2a.TextFromParts(ev.Status.Message.Parts); text != "" {
			bubble := vm.OpenAgentBubble()
			if bubble.Text == "" {
				bubble.Text = text
			} else {
				bubble.Text += "\n" + text
			}
			vm.StatusNote = text
		}
	}

	if ev.Final || ev.Status.State.Terminal() {
		if bubble := vm.PendingAgentBubble(); bubble != nil {
			if bubble.Text == "" {
				bubble.Text = completedPlaceholder
			}
			bubble.Pending = false
		}
		return Outcome{Final: true}
	}
	return Outcome{}
}

// applyMessage concatenates an agent chunk onto the open bubble. Streamed
// fragments carry no separator; they are pieces of one logical message.
func applyMessage(vm *ViewModel, msg *a2a.Message) {
	if msg.Role != a2a.RoleAgent {
		return
	}
	text := a2a.ConcatTextParts(msg.Parts)
	if text == "" {
		return
	}
	bubble := vm.OpenAgentBubble()
	bubble.Text += text
	vm.StatusNote = text
}

// applyArtifactUpdate upserts the artifact and mirrors its text parts into
// the open bubble: the surface has no separate affordance for silent
// artifact production, so artifacts double as chat content.
func applyArtifactUpdate(vm *ViewModel, ev *a2a.ArtifactUpdateEvent) {
	vm.UpsertArtifact(ev.Artifact, ev.Append)

	if text := a2a.ConcatTextParts(ev.Artifact.Parts); text != "" {
		bubble := vm.OpenAgentBubble()
		bubble.Text += text
	}
}
