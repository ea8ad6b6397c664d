package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestThreadClient(t *testing.T, baseURL string) *ThreadClient {
	t.Helper()
	c, err := NewThreadClient(Config{BaseURL: baseURL, RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewThreadClient: %v", err)
	}
	return c
}

func TestCreateThread(t *testing.T) {
	var gotBody map[string]any
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/threads" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"thread_id":"th-1","created_at":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := newTestThreadClient(t, srv.URL)
	th, err := c.CreateThread(context.Background(), map[string]any{"source": "qinsight"})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if th.ThreadID != "th-1" {
		t.Errorf("ThreadID = %q, want th-1", th.ThreadID)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", gotRequestID, err)
	}
	meta, _ := gotBody["metadata"].(map[string]any)
	if meta["source"] != "qinsight" {
		t.Errorf("metadata = %v, want source=qinsight", gotBody["metadata"])
	}
}

func TestCreateThread_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestThreadClient(t, srv.URL)
	if _, err := c.CreateThread(context.Background(), nil); err == nil {
		t.Error("expected error for response without thread_id, got nil")
	}
}

func TestRun_StreamsUntilEnd(t *testing.T) {
	var gotInput RunInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/th-1/runs/stream" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotInput)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": keepalive\n\n"+
			"event: metadata\ndata: {\"run_id\":\"r-1\"}\n\n"+
			"event: messages\nid: 2\ndata: [{\"type\":\"ai\",\"content\":\"node n3 is slow\"},{\"langgraph_node\":\"agent\"}]\n\n"+
			"event: end\n\n"+
			"event: messages\ndata: {\"type\":\"ai\",\"content\":\"ignored\"}\n\n")
	}))
	defer srv.Close()

	c := newTestThreadClient(t, srv.URL)
	var events []ThreadEvent
	err := c.Run(context.Background(), "th-1", RunInput{
		AssistantID: "agent",
		Input:       map[string]any{"question": "why is p99 high?"},
	}, func(ev ThreadEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	if events[0].Type != "metadata" || events[2].Type != "end" {
		t.Errorf("event types = %q..%q, want metadata..end", events[0].Type, events[2].Type)
	}
	if events[1].ID != "2" {
		t.Errorf("events[1].ID = %q, want 2", events[1].ID)
	}
	msgs := events[1].Messages()
	if len(msgs) != 1 || msgs[0].Content != "node n3 is slow" {
		t.Errorf("Messages() = %+v, want one ai message", msgs)
	}
	if len(gotInput.StreamMode) == 0 {
		t.Error("StreamMode not defaulted")
	}
	if gotInput.AssistantID != "agent" {
		t.Errorf("AssistantID = %q, want agent", gotInput.AssistantID)
	}
}

func TestRun_ErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: error\ndata: {\"message\":\"boom\"}\n\n")
	}))
	defer srv.Close()

	c := newTestThreadClient(t, srv.URL)
	calls := 0
	err := c.Run(context.Background(), "th-1", RunInput{}, func(ThreadEvent) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("err = %v, want ErrRunFailed", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestRun_CallbackErrorStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "event: values\ndata: {}\n\nevent: values\ndata: {}\n\n")
	}))
	defer srv.Close()

	stop := errors.New("stop")
	c := newTestThreadClient(t, srv.URL)
	calls := 0
	err := c.Run(context.Background(), "th-1", RunInput{}, func(ThreadEvent) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestRun_EmptyThreadID(t *testing.T) {
	c := newTestThreadClient(t, "http://127.0.0.1:1")
	if err := c.Run(context.Background(), "", RunInput{}, func(ThreadEvent) error { return nil }); err == nil {
		t.Error("expected error for empty threadID, got nil")
	}
}

func TestRun_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestThreadClient(t, srv.URL)
	err := c.Run(context.Background(), "missing", RunInput{}, func(ThreadEvent) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want status 404", err)
	}
}

func TestSSEDecoder(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ThreadEvent
		wantErr error
	}{
		{
			name:  "multi-line data is joined",
			input: "event: values\ndata: {\"a\":\ndata: 1}\n\n",
			want:  []ThreadEvent{{Type: "values", Data: json.RawMessage("{\"a\":\n1}")}},
		},
		{
			name:  "default event type and CRLF",
			input: "data: 42\r\n\r\n",
			want:  []ThreadEvent{{Type: "message", Data: json.RawMessage("42")}},
		},
		{
			name:  "trailing event without blank line",
			input: "event: end",
			want:  []ThreadEvent{{Type: "end"}},
		},
		{
			name:  "comments only",
			input: ": ping\n: ping\n\n",
			want:  nil,
		},
		{
			name:    "invalid json",
			input:   "event: values\ndata: {oops\n\n",
			wantErr: ErrInvalidJSON,
		},
		{
			name:  "unknown field is ignored",
			input: "event: metadata\nfoo: bar\ndata: {\"run_id\":\"1\"}\n\n",
			want:  []ThreadEvent{{Type: "metadata", Data: json.RawMessage(`{"run_id":"1"}`)}},
		},
		{
			name:  "unknown field alone still terminates cleanly",
			input: "bogus: 1\n\nevent: end\n\n",
			want:  []ThreadEvent{{Type: "end"}},
		},
		{
			name:  "line without colon is a field with empty value",
			input: "event: values\nevent\ndata: 7\nretry\n\n",
			want:  []ThreadEvent{{Type: "message", Data: json.RawMessage("7")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := newSSEDecoder(strings.NewReader(tt.input))
			var got []ThreadEvent
			for {
				ev, err := dec.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					if tt.wantErr == nil || !errors.Is(err, tt.wantErr) {
						t.Fatalf("Next() err = %v, want %v", err, tt.wantErr)
					}
					return
				}
				got = append(got, ev)
			}
			if tt.wantErr != nil {
				t.Fatalf("expected error %v, got none", tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Type != tt.want[i].Type || string(got[i].Data) != string(tt.want[i].Data) {
					t.Errorf("event %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if _, err := dec.Next(); !errors.Is(err, ErrStreamClosed) {
				t.Errorf("Next() after EOF err = %v, want ErrStreamClosed", err)
			}
		})
	}
}
