package client

import (
	"encoding/json"
	"time"
)

// Thread is a conversation thread on the agent service.
type Thread struct {
	ThreadID  string         `json:"thread_id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RunInput is the body of a streamed run request.
type RunInput struct {
	AssistantID string         `json:"assistant_id"`
	Input       map[string]any `json:"input"`
	StreamMode  []string       `json:"stream_mode,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ThreadEvent is one server-sent event from a streamed run. Type is the SSE
// event name (metadata, messages, values, updates, error, end).
type ThreadEvent struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is the subset of a chat message the dashboard renders.
type Message struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// Messages decodes a "messages" event payload. The service sends either a
// single message, a list, or a [message, metadata] tuple; all non-message
// entries are skipped.
func (e ThreadEvent) Messages() []Message {
	if len(e.Data) == 0 {
		return nil
	}
	var one Message
	if err := json.Unmarshal(e.Data, &one); err == nil && one.Type != "" {
		return []Message{one}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(e.Data, &raw); err != nil {
		return nil
	}
	var out []Message
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal(r, &m); err == nil && m.Type != "" {
			out = append(out, m)
		}
	}
	return out
}
