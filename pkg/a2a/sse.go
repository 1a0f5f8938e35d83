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

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
)

// readEventStream consumes a text/event-stream body and delivers decoded
// events until EOF, a final status update, or context cancellation. The
// channel is closed when the stream ends for any reason.
//
// Framing: blocks are separated by a blank line; all "data:" lines of one
// block are joined with newlines and parsed as a single JSON value. Blocks
// without data lines (comments, bare "event:" lines) and blocks that fail
// to decode are skipped.
func readEventStream(ctx context.Context, body io.ReadCloser, out chan<- Event) {
	defer close(out)
	defer body.Close()

	// ReadBytes instead of Scanner: Scanner's default 64KB line limit
	// fails on large payloads such as base64-encoded file parts.
	reader := bufio.NewReader(body)

	var dataLines []string

	flush := func() bool {
		if len(dataLines) == 0 {
			return true
		}
		payload := strings.Join(dataLines, "\n")
		dataLines = dataLines[:0]

		event := DecodeEvent([]byte(payload))
		if event == nil {
			return true
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return false
		}

		// A final status update is the last event of the stream; stop
		// reading so the connection is released promptly.
		if status, ok := event.(*StatusUpdateEvent); ok {
			if status.Final || status.Status.State.Terminal() {
				return false
			}
		}
		return true
	}

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := reader.ReadBytes('\n')
		text := strings.TrimRight(string(line), "\r\n")

		switch {
		case strings.HasPrefix(text, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(text, "data:")))
		case text == "":
			if !flush() {
				return
			}
		}

		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				slog.Debug("event stream read error", "error", err)
			}
			flush()
			return
		}
	}
}
