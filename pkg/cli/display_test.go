package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentdeck/agentdeck/pkg/a2a"
	"github.com/agentdeck/agentdeck/pkg/console"
	"github.com/agentdeck/agentdeck/pkg/registry"
)

func TestStateGlyph(t *testing.T) {
	tests := []struct {
		state a2a.TaskState
		want  string
	}{
		{a2a.TaskStateCompleted, "✓"},
		{a2a.TaskStateFailed, "✗"},
		{a2a.TaskStateRejected, "✗"},
		{a2a.TaskStateCanceled, "⊘"},
		{a2a.TaskStateInputRequired, "?"},
		{a2a.TaskStateWorking, "…"},
		{a2a.TaskState("mystery"), "·"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StateGlyph(tt.state), "state %s", tt.state)
	}
}

func TestWriteAgentList(t *testing.T) {
	var buf strings.Builder
	WriteAgentList(&buf, []registry.Record{
		{ID: "a1", Name: "alpha", Version: "1.0.0", RESTBase: "https://a/rest", Bearer: "Bearer tok-5678"},
		{ID: "a2", Name: "beta", RESTBase: "https://b"},
	}, "a2")

	out := buf.String()
	assert.Contains(t, out, "alpha v1.0.0")
	assert.Contains(t, out, "* beta")
	assert.Contains(t, out, "bearer ****5678")
	assert.NotContains(t, out, "tok-5678\n")
}

func TestWriteAgentList_Empty(t *testing.T) {
	var buf strings.Builder
	WriteAgentList(&buf, nil, "")
	assert.Contains(t, buf.String(), "No agents registered")
}

func TestWriteTaskList(t *testing.T) {
	var buf strings.Builder
	WriteTaskList(&buf, []a2a.Task{
		{Kind: a2a.KindTask, ID: "T1", ContextID: "C1", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}},
		{Kind: a2a.KindTask, ID: "T2", Status: a2a.TaskStatus{
			State:   a2a.TaskStateCompleted,
			Message: &a2a.Message{Parts: []a2a.Part{a2a.TextPart("all done\nsecond line")}},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "… T1  working")
	assert.Contains(t, out, "✓ T2  completed")
	assert.Contains(t, out, "Note: all done")
	assert.NotContains(t, out, "second line")
}

func TestWriteTranscript(t *testing.T) {
	vm := console.NewViewModel()
	vm.AppendUser("hello")
	vm.OpenAgentBubble().Text = "thinking"

	var buf strings.Builder
	WriteTranscript(&buf, vm)

	out := buf.String()
	assert.Contains(t, out, "You: hello")
	assert.Contains(t, out, "Agent: thinking …")
}

func TestWriteError(t *testing.T) {
	var buf strings.Builder
	WriteError(&buf, errors.New("boom"))
	assert.Equal(t, "❌ Error: boom\n", buf.String())
}
