package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jtsunne/qinsight/internal/model"
)

// Source supplies the raw sample data the dashboard aggregates.
type Source interface {
	Observations(ctx context.Context) ([]model.ShardObservation, error)
	NodeStatus(ctx context.Context) ([]model.NodeStatusSample, error)
	LatencySeries(ctx context.Context) ([]model.SeriesPoint, error)
	Queries(ctx context.Context) ([]model.QueryShape, error)
	Name() string
}

// Config holds configuration for HTTPSource and ThreadClient.
type Config struct {
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

const maxResponseBytes = 32 * 1024 * 1024 // 32 MB

// HTTPSource implements Source by fetching JSON sample datasets from a
// base URL.
type HTTPSource struct {
	http   *http.Client
	config Config
}

// newHTTPClient builds an http.Client honouring TLS skip-verify. A zero
// timeout disables the client-level timeout (used for streaming).
func newHTTPClient(cfg Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewHTTPSource constructs an HTTPSource from the given config.
// Returns an error if BaseURL is empty.
func NewHTTPSource(cfg Config) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &HTTPSource{
		http:   newHTTPClient(cfg, cfg.RequestTimeout),
		config: cfg,
	}, nil
}

// Name returns the configured base URL.
func (c *HTTPSource) Name() string {
	return c.config.BaseURL
}

// doGet performs a GET request to the given path (relative to BaseURL).
// It sets Accept: application/json and Basic Auth if credentials are configured.
// Returns the response body bytes or an error on non-2xx status.
func (c *HTTPSource) doGet(ctx context.Context, path string) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	setBasicAuth(req, c.config)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func setBasicAuth(req *http.Request, cfg Config) {
	if cfg.Username != "" || cfg.Password != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
