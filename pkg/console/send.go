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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/pkg/a2a"
)

// DefaultHistoryLength is how much task history a send asks the agent to
// return. Enough to recover the latest reply without hauling the whole
// conversation back on every exchange.
const DefaultHistoryLength = 12

// ErrBusy is returned when a send is attempted on a surface that already
// has one outstanding.
var ErrBusy = errors.New("send already in progress for this surface")

// MessageSender is the transport surface a Sender needs. *a2a.Client
// satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, params a2a.SendParams) (a2a.Event, error)
	StreamMessage(ctx context.Context, params a2a.SendParams) (<-chan a2a.Event, error)
}

// Persister writes a surface's view model through to storage. It is
// called after every reconciled mutation so an interrupted session can be
// restored mid-task.
type Persister interface {
	Save(agentID, surface string, vm *ViewModel) error
}

// Sender orchestrates one message exchange per conversation surface. A
// surface is identified by (agentID, surface name); at most one send may
// be outstanding per surface at a time.
type Sender struct {
	client  MessageSender
	persist Persister

	mu      sync.Mutex
	sending map[string]bool
}

// NewSender creates a send orchestrator. persist may be nil for
// throwaway surfaces.
func NewSender(client MessageSender, persist Persister) *Sender {
	return &Sender{
		client:  client,
		persist: persist,
		sending: make(map[string]bool),
	}
}

// Sending reports whether the surface has a send outstanding.
func (s *Sender) Sending(agentID, surface string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending[agentID+"|"+surface]
}

func (s *Sender) begin(agentID, surface string) bool {
	key := agentID + "|" + surface
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending[key] {
		return false
	}
	s.sending[key] = true
	return true
}

func (s *Sender) end(agentID, surface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sending, agentID+"|"+surface)
}

func (s *Sender) save(agentID, surface string, vm *ViewModel) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(agentID, surface, vm); err != nil {
		slog.Warn("Failed to persist surface state", "agent", agentID, "surface", surface, "error", err)
	}
}

// Send submits text to the agent and folds the response into the view
// model according to its selected mode. It blocks until the exchange is
// complete (or the stream ends), so callers drive it from their own
// goroutine when they need a live surface in the meantime.
func (s *Sender) Send(ctx context.Context, agentID, surface string, vm *ViewModel, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.begin(agentID, surface) {
		return ErrBusy
	}
	defer s.end(agentID, surface)

	vm.AppendUser(text)
	s.save(agentID, surface, vm)

	params := a2a.SendParams{
		Message: a2a.NewUserMessage(uuid.NewString(), text, vm.TaskID, vm.ContextID),
		Configuration: &a2a.SendConfiguration{
			Blocking:      vm.Mode == ModeBlocking,
			HistoryLength: DefaultHistoryLength,
		},
	}

	if vm.Mode == ModeBlocking {
		return s.sendBlocking(ctx, agentID, surface, vm, params)
	}
	return s.sendStreaming(ctx, agentID, surface, vm, params)
}

func (s *Sender) sendBlocking(ctx context.Context, agentID, surface string, vm *ViewModel, params a2a.SendParams) error {
	result, err := s.client.SendMessage(ctx, params)
	if err != nil {
		failBubble(vm, err)
		s.save(agentID, surface, vm)
		return err
	}

	bubble := vm.OpenAgentBubble()

	switch res := result.(type) {
	case *a2a.Task:
		Apply(vm, res)
		bubble.Text = blockingReplyText(res)
	case *a2a.Message:
		// A bare message carries no task lifecycle; the exchange is
		// complete the moment it arrives.
		if res.TaskID != "" {
			vm.TaskID = res.TaskID
		}
		vm.LastState = a2a.TaskStateCompleted
		reply := joinTextParts(res.Parts, "\n\n")
		if reply == "" {
			reply = completedPlaceholder
		}
		bubble.Text = reply
		vm.StatusNote = reply
	}
	bubble.Pending = false

	s.save(agentID, surface, vm)
	return nil
}

func (s *Sender) sendStreaming(ctx context.Context, agentID, surface string, vm *ViewModel, params a2a.SendParams) error {
	// Optimistic: the guard and the surface should agree a task is in
	// flight before the protocol confirms it.
	vm.OpenAgentBubble()
	vm.LastState = a2a.TaskStateWorking
	s.save(agentID, surface, vm)

	events, err := s.client.StreamMessage(ctx, params)
	if err != nil {
		failBubble(vm, err)
		s.save(agentID, surface, vm)
		return err
	}

	for event := range events {
		outcome := Apply(vm, event)
		s.save(agentID, surface, vm)
		if outcome.Final {
			break
		}
	}
	return nil
}

// blockingReplyText extracts the displayable reply from a blocking task
// result: the text parts of the newest agent message in history, or a
// placeholder when the task finished without saying anything.
func blockingReplyText(task *a2a.Task) string {
	if msg, ok := a2a.LastAgentMessage(task.History); ok && a2a.HasTextContent(msg) {
		return joinTextParts(msg.Parts, "\n\n")
	}
	return completedPlaceholder
}

func joinTextParts(parts []a2a.Part, sep string) string {
	var texts []string
	for _, part := range parts {
		if part.Kind == a2a.PartKindText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, sep)
}

// failBubble closes the open agent bubble with a visible error line.
func failBubble(vm *ViewModel, err error) {
	bubble := vm.OpenAgentBubble()
	bubble.Text = fmt.Sprintf("Error: %v", err)
	bubble.Pending = false
}
