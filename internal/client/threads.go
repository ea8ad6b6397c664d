package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunFailed is returned when the agent service reports an error event.
var ErrRunFailed = errors.New("agent run failed")

// ThreadClient talks to the external chat/workflow service through its
// thread protocol: create a thread, then stream a run's events.
type ThreadClient struct {
	http   *http.Client // request/response calls
	stream *http.Client // no client timeout; ctx bounds streams
	config Config
}

// NewThreadClient constructs a ThreadClient. Returns an error if BaseURL is empty.
func NewThreadClient(cfg Config) (*ThreadClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &ThreadClient{
		http:   newHTTPClient(cfg, cfg.RequestTimeout),
		stream: newHTTPClient(cfg, 0),
		config: cfg,
	}, nil
}

func (c *ThreadClient) newRequest(ctx context.Context, path string, body any, accept string) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	u := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", uuid.NewString())
	setBasicAuth(req, c.config)
	return req, nil
}

// CreateThread opens a new thread tagged with metadata.
func (c *ThreadClient) CreateThread(ctx context.Context, metadata map[string]any) (*Thread, error) {
	req, err := c.newRequest(ctx, "/threads", map[string]any{"metadata": metadata}, "application/json")
	if err != nil {
		return nil, fmt.Errorf("CreateThread: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("CreateThread: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("CreateThread: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("CreateThread: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var th Thread
	if err := json.Unmarshal(body, &th); err != nil {
		return nil, fmt.Errorf("CreateThread decode: %w", err)
	}
	if th.ThreadID == "" {
		return nil, fmt.Errorf("CreateThread: response has no thread_id")
	}
	return &th, nil
}

// Run starts a streamed run on threadID and calls fn for every event until
// the stream ends, an "end" event arrives, fn returns an error, or ctx is
// done. An "error" event is delivered to fn and then returned wrapped in
// ErrRunFailed.
func (c *ThreadClient) Run(ctx context.Context, threadID string, in RunInput, fn func(ThreadEvent) error) error {
	if threadID == "" {
		return fmt.Errorf("Run: threadID must not be empty")
	}
	if len(in.StreamMode) == 0 {
		in.StreamMode = []string{"messages", "values"}
	}

	path := "/threads/" + url.PathEscape(threadID) + "/runs/stream"
	req, err := c.newRequest(ctx, path, in, "text/event-stream")
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("Run: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("Run: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	dec := newSSEDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("Run: %w", err)
		}

		if err := fn(ev); err != nil {
			return err
		}
		switch ev.Type {
		case "end":
			return nil
		case "error":
			return fmt.Errorf("%w: %s", ErrRunFailed, truncate(ev.Data, 200))
		}
	}
}
