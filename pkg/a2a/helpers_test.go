package a2a

import "testing"

func TestTextFromParts(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
		want  string
	}{
		{"nil parts", nil, ""},
		{"single text", []Part{TextPart("hello")}, "hello"},
		{"joined with newlines", []Part{TextPart("one"), TextPart("two")}, "one\ntwo"},
		{"skips placeholders", []Part{TextPart("string"), TextPart("ok"), TextPart("")}, "ok"},
		{"skips non-text", []Part{{Kind: PartKindData, Data: map[string]any{"x": 1}}, TextPart("tail")}, "tail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TextFromParts(tt.parts); got != tt.want {
				t.Errorf("TextFromParts() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConcatTextParts(t *testing.T) {
	parts := []Part{TextPart("Thin"), TextPart("king"), {Kind: PartKindFile, File: &FileContent{Name: "x"}}}
	if got := ConcatTextParts(parts); got != "Thinking" {
		t.Errorf("ConcatTextParts() = %q, want %q", got, "Thinking")
	}
}

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("m1", "hi", "T1", "C1")
	if msg.Kind != KindMessage || msg.Role != RoleUser {
		t.Errorf("kind/role = %q/%q", msg.Kind, msg.Role)
	}
	if msg.TaskID != "T1" || msg.ContextID != "C1" || msg.MessageID != "m1" {
		t.Errorf("ids = %q/%q/%q", msg.TaskID, msg.ContextID, msg.MessageID)
	}
	if len(msg.Parts) != 1 || msg.Parts[0].Text != "hi" {
		t.Errorf("parts = %+v", msg.Parts)
	}

	fresh := NewUserMessage("m2", "hi", "", "")
	if fresh.TaskID != "" || fresh.ContextID != "" {
		t.Errorf("fresh message should not carry task/context ids")
	}
}

func TestLastAgentMessage(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Parts: []Part{TextPart("q1")}},
		{Role: RoleAgent, Parts: []Part{TextPart("a1")}},
		{Role: RoleUser, Parts: []Part{TextPart("q2")}},
		{Role: RoleAgent, Parts: []Part{TextPart("a2")}},
		{Role: RoleUser, Parts: []Part{TextPart("q3")}},
	}

	msg, ok := LastAgentMessage(history)
	if !ok {
		t.Fatal("LastAgentMessage() not found")
	}
	if got := TextFromParts(msg.Parts); got != "a2" {
		t.Errorf("last agent text = %q, want a2", got)
	}

	if _, ok := LastAgentMessage([]Message{{Role: RoleUser}}); ok {
		t.Error("LastAgentMessage() found agent message in user-only history")
	}
}
