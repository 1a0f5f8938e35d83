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

// Package console holds the conversation-surface state of the control
// plane: a reconciled view model per (agent, surface), the event
// reconciler that folds protocol events into it, the resubscription guard,
// and the send orchestration.
package console

import (
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/a2a"
)

// Mode selects how a message is sent.
type Mode string

const (
	ModeBlocking Mode = "blocking"
	ModeStream   Mode = "stream"
)

// Bubble is one display-ready transcript entry. Agent bubbles stay pending
// while streamed fragments are still being accumulated into them.
type Bubble struct {
	ID        string    `json:"id"`
	Role      a2a.Role  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
	Pending   bool      `json:"pending,omitempty"`
}

// ViewModel is the reconciled, persisted projection of one conversation
// surface. It is owned exclusively by that surface; cross-surface sharing
// goes through the persistence layer only.
type ViewModel struct {
	Bubbles    []Bubble       `json:"msgs"`
	TaskID     string         `json:"taskId,omitempty"`
	ContextID  string         `json:"contextId,omitempty"`
	Mode       Mode           `json:"mode"`
	LastState  a2a.TaskState  `json:"lastState,omitempty"`
	StatusNote string         `json:"statusText,omitempty"`
	Artifacts  []a2a.Artifact `json:"artifacts,omitempty"`
}

// NewViewModel returns an empty surface in streaming mode.
func NewViewModel() *ViewModel {
	return &ViewModel{Mode: ModeStream}
}

// Reset clears the conversation but keeps the selected send mode.
func (vm *ViewModel) Reset() {
	mode := vm.Mode
	*vm = ViewModel{Mode: mode}
}

// AppendUser appends a complete user bubble.
func (vm *ViewModel) AppendUser(text string) *Bubble {
	vm.Bubbles = append(vm.Bubbles, Bubble{
		ID:        uuid.NewString(),
		Role:      a2a.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	})
	return &vm.Bubbles[len(vm.Bubbles)-1]
}

// PendingAgentBubble returns the most recent agent bubble still marked
// pending. A resumed subscription continues this bubble so output carries
// on in the same logical message.
func (vm *ViewModel) PendingAgentBubble() *Bubble {
	for i := len(vm.Bubbles) - 1; i >= 0; i-- {
		if vm.Bubbles[i].Role == a2a.RoleAgent && vm.Bubbles[i].Pending {
			return &vm.Bubbles[i]
		}
	}
	return nil
}

// OpenAgentBubble returns the pending agent bubble, creating an empty one
// when none is open.
func (vm *ViewModel) OpenAgentBubble() *Bubble {
	if bubble := vm.PendingAgentBubble(); bubble != nil {
		return bubble
	}
	vm.Bubbles = append(vm.Bubbles, Bubble{
		ID:        uuid.NewString(),
		Role:      a2a.RoleAgent,
		Timestamp: time.Now(),
		Pending:   true,
	})
	return &vm.Bubbles[len(vm.Bubbles)-1]
}

// TranscriptLength returns the total accumulated transcript text length.
func (vm *ViewModel) TranscriptLength() int {
	var n int
	for _, bubble := range vm.Bubbles {
		n += len(bubble.Text)
	}
	return n
}

func (vm *ViewModel) artifactIndex(artifactID string) int {
	for i := range vm.Artifacts {
		if vm.Artifacts[i].ArtifactID == artifactID {
			return i
		}
	}
	return -1
}

// UpsertArtifact inserts or replaces an artifact by id; with append set it
// concatenates the parts onto the existing artifact instead.
func (vm *ViewModel) UpsertArtifact(artifact a2a.Artifact, appendParts bool) {
	idx := vm.artifactIndex(artifact.ArtifactID)
	if idx < 0 {
		vm.Artifacts = append(vm.Artifacts, artifact)
		return
	}
	if appendParts {
		vm.Artifacts[idx].Parts = append(vm.Artifacts[idx].Parts, artifact.Parts...)
		return
	}
	vm.Artifacts[idx] = artifact
}
