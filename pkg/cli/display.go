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

// Package cli renders agents, tasks, and transcripts for terminal output.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/console"
	"github.com/agentdeck/agentdeck/pkg/registry"
)

// StateGlyph returns a one-character marker for a task state.
func StateGlyph(state a2a.TaskState) string {
	switch state {
	case a2a.TaskStateCompleted:
		return "✓"
	case a2a.TaskStateFailed, a2a.TaskStateRejected:
		return "✗"
	case a2a.TaskStateCanceled:
		return "⊘"
	case a2a.TaskStateInputRequired, a2a.TaskStateAuthRequired:
		return "?"
	case a2a.TaskStateSubmitted, a2a.TaskStateWorking:
		return "…"
	default:
		return "·"
	}
}

// WriteAgentList prints the registered agents.
func WriteAgentList(w io.Writer, records []registry.Record, activeID string) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No agents registered. Use 'agentdeck agents add <card-url>' to connect one.")
		return
	}

	fmt.Fprintf(w, "\n📋 Registered Agents (%d)\n\n", len(records))
	for _, record := range records {
		marker := " "
		if record.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s", marker, record.Name)
		if record.Version != "" {
			fmt.Fprintf(w, " v%s", record.Version)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  ID: %s\n", record.ID)
		fmt.Fprintf(w, "  Endpoint: %s\n", record.RESTBase)
		fmt.Fprintf(w, "  Auth: %s\n", record.AuthLabel())
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "💡 The agent marked * receives proxied requests")
}

// WriteTaskList prints tasks with their lifecycle states.
func WriteTaskList(w io.Writer, tasks []a2a.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	fmt.Fprintf(w, "\n📋 Tasks (%d)\n\n", len(tasks))
	for _, task := range tasks {
		fmt.Fprintf(w, "%s %s  %s\n", StateGlyph(task.Status.State), task.ID, task.Status.State)
		if task.ContextID != "" {
			fmt.Fprintf(w, "  Context: %s\n", task.ContextID)
		}
		if task.Status.Message != nil {
			if note := a2a.TextFromParts(task.Status.Message.Parts); note != "" {
				fmt.Fprintf(w, "  Note: %s\n", firstLine(note))
			}
		}
		if len(task.Artifacts) > 0 {
			fmt.Fprintf(w, "  Artifacts: %d\n", len(task.Artifacts))
		}
	}
}

// WriteTask prints one task in detail.
func WriteTask(w io.Writer, task *a2a.Task) {
	fmt.Fprintf(w, "\nTask %s\n", task.ID)
	fmt.Fprintf(w, "  State: %s %s\n", StateGlyph(task.Status.State), task.Status.State)
	if task.ContextID != "" {
		fmt.Fprintf(w, "  Context: %s\n", task.ContextID)
	}
	if task.Status.Timestamp != "" {
		fmt.Fprintf(w, "  Updated: %s\n", task.Status.Timestamp)
	}
	for _, artifact := range task.Artifacts {
		name := artifact.Name
		if name == "" {
			name = artifact.ArtifactID
		}
		fmt.Fprintf(w, "  Artifact: %s (%d parts)\n", name, len(artifact.Parts))
	}
	if len(task.History) > 0 {
		fmt.Fprintf(w, "  History: %d messages\n", len(task.History))
	}
}

// WriteTranscript prints a conversation surface's bubbles.
func WriteTranscript(w io.Writer, vm *console.ViewModel) {
	for _, bubble := range vm.Bubbles {
		label := "You"
		if bubble.Role == a2a.RoleAgent {
			label = "Agent"
		}
		suffix := ""
		if bubble.Pending {
			suffix = " …"
		}
		fmt.Fprintf(w, "%s: %s%s\n", label, bubble.Text, suffix)
	}
}

// WriteError prints an error message.
func WriteError(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ Error: %v\n", err)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
