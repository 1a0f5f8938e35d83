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

package a2a

import "strings"

// ============================================================================
// MESSAGE HELPER FUNCTIONS
// ============================================================================

// TextFromParts joins the meaningful text parts with newlines. Placeholder
// and non-text parts are skipped.
func TextFromParts(parts []Part) string {
	var texts []string
	for _, part := range parts {
		if part.Kind == PartKindText && part.Meaningful() {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ConcatTextParts joins the meaningful text parts without a separator.
// Streamed fragments of one logical message are concatenated this way.
func ConcatTextParts(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		if part.Kind == PartKindText && part.Meaningful() {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// NewUserMessage creates a user text message linked to an existing task and
// context when their ids are known.
func NewUserMessage(messageID, text, taskID, contextID string) Message {
	return Message{
		Kind:      KindMessage,
		Role:      RoleUser,
		MessageID: messageID,
		Parts:     []Part{TextPart(text)},
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// LastAgentMessage returns the most recent agent message of a history.
func LastAgentMessage(history []Message) (Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAgent {
			return history[i], true
		}
	}
	return Message{}, false
}

// HasTextContent reports whether any part of the message carries
// displayable text.
func HasTextContent(msg Message) bool {
	for _, part := range msg.Parts {
		if part.Kind == PartKindText && part.Meaningful() {
			return true
		}
	}
	return false
}
