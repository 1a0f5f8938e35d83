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

// Package a2a implements the Agent-to-Agent (A2A) protocol vocabulary and
// its HTTP+JSON transport client.
// Specification: https://a2a-protocol.org/latest/specification/
package a2a

import (
	"encoding/json"
	"strings"
)

// ============================================================================
// TASK STATE - Lifecycle Enumeration
// Spec Section 6.3
// ============================================================================

// TaskState represents the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateUnknown       TaskState = "unknown"
)

// Terminal reports whether no further events are expected for a task in
// this state.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCanceled:
		return true
	}
	return false
}

// Active reports whether a task in this state may still produce events.
// These are exactly the states for which reconnection-on-focus is attempted.
func (s TaskState) Active() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired, TaskStateAuthRequired:
		return true
	}
	return false
}

// ============================================================================
// PART - Message Content Parts
// Spec Section 6.5: Part Union Type
// ============================================================================

// PartKind discriminates the Part union.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// FileContent carries either inline base64 bytes or a URI reference.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Part is one payload unit of a message or artifact (union by kind).
type Part struct {
	Kind PartKind `json:"kind"`

	// Text part
	Text string `json:"text,omitempty"`

	// File part
	File *FileContent `json:"file,omitempty"`

	// Data part
	Data map[string]any `json:"data,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// TrivialTextMarkers lists literal strings treated as placeholder text.
// Upstream example/mock payloads populate text parts with the literal word
// "string"; such parts carry no content worth displaying. The set is a
// package variable so deployments talking to well-behaved agents can empty
// it.
var TrivialTextMarkers = map[string]bool{
	"string": true,
}

// TrivialDataKeys lists object keys that mark a data part as mock filler.
var TrivialDataKeys = map[string]bool{
	"additionalProp1": true,
	"additionalProp2": true,
	"additionalProp3": true,
}

// Meaningful reports whether the part is worth displaying. Empty text,
// placeholder literals, placeholder-shaped data objects, and file
// descriptors with neither bytes nor URI nor name are filtered out.
func (p Part) Meaningful() bool {
	switch p.Kind {
	case PartKindText:
		text := strings.TrimSpace(p.Text)
		return text != "" && !TrivialTextMarkers[text]
	case PartKindFile:
		if p.File == nil {
			return false
		}
		return p.File.Bytes != "" || p.File.URI != "" || p.File.Name != ""
	case PartKindData:
		if len(p.Data) == 0 {
			return false
		}
		for key := range p.Data {
			if !TrivialDataKeys[key] {
				return true
			}
		}
		return false
	}
	return false
}

// ============================================================================
// MESSAGE - Conversation Messages
// Spec Section 6.4
// ============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one exchange unit. Users produce a message in a single step;
// agents may produce one incrementally as multiple streamed fragments that
// are concatenated in arrival order.
type Message struct {
	Kind             string         `json:"kind"`
	Role             Role           `json:"role"`
	Parts            []Part         `json:"parts"`
	MessageID        string         `json:"messageId"`
	TaskID           string         `json:"taskId,omitempty"`
	ContextID        string         `json:"contextId,omitempty"`
	ReferenceTaskIDs []string       `json:"referenceTaskIds,omitempty"`
	Extensions       []string       `json:"extensions,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// ARTIFACT - Task Output Artifacts
// Spec Section 6.7
// ============================================================================

// Artifact is a named output bundle produced by the agent, addressable by
// id and appendable through artifact-update events.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Extensions  []string       `json:"extensions,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// TASK - Unit of Work
// Spec Section 6.1
// ============================================================================

// TaskStatus carries the lifecycle state plus an optional agent note.
type TaskStatus struct {
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitempty"`
	// Timestamp is RFC 3339 when present; left as a string because
	// third-party agents emit loose values here.
	Timestamp string `json:"timestamp,omitempty"`
}

// Task is a unit of long-running agent work. The peer owns it; clients hold
// a read-mostly cached copy.
type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// STREAMING EVENTS
// Spec Section 7.2
// ============================================================================

// Event kinds carried in the "kind" discriminator of streamed JSON values.
const (
	KindTask           = "task"
	KindMessage        = "message"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// StatusUpdateEvent is a partial update: new state and/or an attached
// status message. Final marks the last event of a stream.
type StatusUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ArtifactUpdateEvent introduces a new artifact or, with Append set,
// extends an existing one referenced by the same artifact id.
type ArtifactUpdateEvent struct {
	Kind      string         `json:"kind"`
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Artifact  Artifact       `json:"artifact"`
	Append    bool           `json:"append,omitempty"`
	LastChunk bool           `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Event is one unit of a live event feed: a *Task snapshot, an agent
// *Message chunk, a *StatusUpdateEvent, or an *ArtifactUpdateEvent.
type Event interface {
	eventKind() string
}

func (t *Task) eventKind() string                { return KindTask }
func (m *Message) eventKind() string             { return KindMessage }
func (e *StatusUpdateEvent) eventKind() string   { return KindStatusUpdate }
func (e *ArtifactUpdateEvent) eventKind() string { return KindArtifactUpdate }

// DecodeEvent parses one streamed JSON value into its concrete event type.
// Values with a missing or unknown kind, and values that fail to decode,
// yield nil: the wire carries loose JSON from third-party agents and a bad
// event must never take the consumer down.
func DecodeEvent(raw []byte) Event {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}

	switch probe.Kind {
	case KindTask:
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil
		}
		return &task
	case KindMessage:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil
		}
		return &msg
	case KindStatusUpdate:
		var ev StatusUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil
		}
		return &ev
	case KindArtifactUpdate:
		var ev ArtifactUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil
		}
		return &ev
	}
	return nil
}

// ============================================================================
// RPC METHOD PARAMETERS
// Spec Section 7.1
// ============================================================================

// SendConfiguration tunes a message:send / message:stream request.
type SendConfiguration struct {
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	Blocking            bool     `json:"blocking,omitempty"`
	HistoryLength       int      `json:"historyLength,omitempty"`
}

// SendParams is the request body for message:send and message:stream.
type SendParams struct {
	Message       Message            `json:"message"`
	Configuration *SendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
}
