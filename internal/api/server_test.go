package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jtsunne/qinsight/internal/mockdata"
	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/telemetry"
)

// failingSource returns errBackend from every endpoint.
type failingSource struct{}

var errBackend = errors.New("backend unavailable")

func (failingSource) Observations(context.Context) ([]model.ShardObservation, error) {
	return nil, errBackend
}
func (failingSource) NodeStatus(context.Context) ([]model.NodeStatusSample, error) {
	return nil, errBackend
}
func (failingSource) LatencySeries(context.Context) ([]model.SeriesPoint, error) {
	return nil, errBackend
}
func (failingSource) Queries(context.Context) ([]model.QueryShape, error) {
	return nil, errBackend
}
func (failingSource) Name() string { return "failing" }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(mockdata.NewSource(1), nil, nil, nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url, body string, out any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mock", body["source"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestShardsNodesIndices(t *testing.T) {
	srv := newTestServer(t)

	var shards []model.ShardAggregate
	resp := getJSON(t, srv.URL+"/api/v1/shards", &shards)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, shards, 12)

	var nodes []model.NodeAggregate
	getJSON(t, srv.URL+"/api/v1/nodes", &nodes)
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		assert.GreaterOrEqual(t, n.AvgLatency, 0.8*n.MaxShardP99, "node %s", n.NodeID)
	}

	var indices []model.IndexAggregate
	getJSON(t, srv.URL+"/api/v1/indices", &indices)
	assert.Len(t, indices, 3)
}

func TestAnomalies(t *testing.T) {
	srv := newTestServer(t)

	var body struct {
		Window    int                 `json:"window"`
		Anomalies []model.SeriesPoint `json:"anomalies"`
		Bands     []model.Band        `json:"bands"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/anomalies?window=20", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, body.Window)
	assert.NotNil(t, body.Anomalies)
	assert.Len(t, body.Bands, 60-20+1)
}

func TestAnomalies_BadWindow(t *testing.T) {
	srv := newTestServer(t)
	for _, w := range []string{"abc", "1", "-4"} {
		var body map[string]string
		resp := getJSON(t, srv.URL+"/api/v1/anomalies?window="+w, &body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "window=%s", w)
		assert.Contains(t, body["error"], "window")
	}
}

func TestInsights(t *testing.T) {
	srv := newTestServer(t)
	var body struct {
		Overview        model.ClusterOverview `json:"overview"`
		Recommendations []json.RawMessage     `json:"recommendations"`
		Queries         []model.QueryInsight  `json:"queries"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/insights", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, body.Overview.ShardCount)
	assert.NotNil(t, body.Recommendations)
	assert.NotEmpty(t, body.Queries)
}

func TestPhases(t *testing.T) {
	srv := newTestServer(t)
	var body struct {
		Signals       model.QueryComplexitySignals `json:"signals"`
		Phases        []model.ExecutionPhase       `json:"phases"`
		BaseFractions map[string]float64           `json:"baseFractions"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/phases",
		`{"id":"q","queryString":"msg:*err","size":10,"shardCount":3,"totalLatencyMs":1000}`, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.ScanFullScan, body.Signals.ScanType)
	require.Len(t, body.Phases, 5)
	var sum float64
	for _, p := range body.Phases {
		sum += p.Duration
	}
	assert.InDelta(t, 1000, sum, 1e-6)
	assert.Equal(t, 0.5, body.BaseFractions["query"])
}

func TestPhases_BadRequest(t *testing.T) {
	srv := newTestServer(t)
	for _, b := range []string{`{`, `{"totalLatencyMs":-1}`, `{"unknown":1}`} {
		var body map[string]string
		resp := postJSON(t, srv.URL+"/api/v1/phases", b, &body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", b)
		assert.NotEmpty(t, body["error"])
	}
}

func TestPercentiles(t *testing.T) {
	srv := newTestServer(t)
	var body struct {
		P       float64             `json:"p"`
		Value   float64             `json:"value"`
		Count   int                 `json:"count"`
		Summary model.PercentileSet `json:"summary"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/percentiles", `{"samples":[50,10,40,20,30],"p":0.9}`, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 46.0, body.Value, 1e-9)
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, 30.0, body.Summary.P50)
	assert.Equal(t, 10.0, body.Summary.Min)
}

func TestPercentiles_Empty(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/percentiles", `{"samples":[]}`, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])
	assert.NotContains(t, body, "value")
}

func TestSourceFailure(t *testing.T) {
	srv := httptest.NewServer(NewServer(failingSource{}, nil, nil, nil).Routes())
	defer srv.Close()

	for _, path := range []string{"/api/v1/nodes", "/api/v1/anomalies", "/api/v1/insights"} {
		var body map[string]string
		resp := getJSON(t, srv.URL+path, &body)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode, path)
		assert.Contains(t, body["error"], "backend unavailable", path)
	}
}

func TestRequestMetricsAndLogging(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.New(context.Background(), &telemetry.Config{
		Enabled:     true,
		ServiceName: "qinsight-test",
		Reader:      reader,
	})
	require.NoError(t, err)
	defer metrics.Shutdown(context.Background())

	logs := &syncBuffer{}
	logger := newJSONLogger(logs)
	srv := httptest.NewServer(NewServer(mockdata.NewSource(2), nil, metrics, logger).Routes())
	defer srv.Close()

	getJSON(t, srv.URL+"/api/v1/nodes", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["qinsight.http.request.duration"])
	assert.True(t, names["qinsight.analysis.latency"])

	// logger runs after the handler returns; give the server goroutine a moment
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), `"route":"/api/v1/nodes"`)
	}, time.Second, 10*time.Millisecond)
}
