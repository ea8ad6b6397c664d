// Package api serves the analysis results over HTTP as JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jtsunne/qinsight/internal/client"
	"github.com/jtsunne/qinsight/internal/engine"
	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/stats"
	"github.com/jtsunne/qinsight/internal/telemetry"
)

const maxBodyBytes = 4 << 20

// Server handles HTTP requests. Every data request fetches a fresh
// snapshot from the source under the request context.
type Server struct {
	src      client.Source
	analyzer *engine.Analyzer
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewServer returns a Server. A nil analyzer uses the default tunables; nil
// metrics and logger disable them.
func NewServer(src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	if analyzer == nil {
		analyzer = engine.DefaultAnalyzer()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		src:      src,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shards", s.handleShards)
		r.Get("/nodes", s.handleNodes)
		r.Get("/indices", s.handleIndices)
		r.Get("/anomalies", s.handleAnomalies)
		r.Get("/insights", s.handleInsights)

		r.Post("/phases", s.handlePhases)
		r.Post("/percentiles", s.handlePercentiles)
	})

	return r
}

// requestLogger logs each request with slog and records its duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		s.logger.Info("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(elapsed)/float64(time.Millisecond),
		)
		s.metrics.RecordRequest(r.Context(), r.Method, route, status, elapsed)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// insights fetches and analyses one snapshot. On failure it has already
// written the error response.
func (s *Server) insights(w http.ResponseWriter, r *http.Request) (model.Insights, bool) {
	snap, err := engine.FetchAll(r.Context(), s.src)
	if err != nil {
		s.logger.Error("fetch snapshot", "source", s.src.Name(), "error", err)
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("fetch from %s: %w", s.src.Name(), err))
		return model.Insights{}, false
	}
	ins := s.analyzer.Analyze(snap)
	s.metrics.RecordInsights(r.Context(), ins)
	return ins, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"source": s.src.Name(),
	})
}

func (s *Server) handleShards(w http.ResponseWriter, r *http.Request) {
	ins, ok := s.insights(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ins.Record.Shards)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	ins, ok := s.insights(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ins.Record.Nodes)
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	ins, ok := s.insights(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ins.Record.Indices)
}

type anomaliesResponse struct {
	Window    int                 `json:"window"`
	Sigma     float64             `json:"sigma"`
	Anomalies []model.SeriesPoint `json:"anomalies"`
	Bands     []model.Band        `json:"bands"`
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	cfg := s.analyzer.Config()
	window := cfg.Anomaly.Window
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("window must be an integer >= 2, got %q", raw))
			return
		}
		window = n
	}

	series, err := s.src.LatencySeries(r.Context())
	if err != nil {
		s.logger.Error("fetch series", "source", s.src.Name(), "error", err)
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("fetch from %s: %w", s.src.Name(), err))
		return
	}

	s.writeJSON(w, http.StatusOK, anomaliesResponse{
		Window:    window,
		Sigma:     cfg.Anomaly.Sigma,
		Anomalies: s.analyzer.DetectAnomalies(series, window),
		Bands:     s.analyzer.AnomalyBands(series, window),
	})
}

type insightsResponse struct {
	Overview        model.ClusterOverview  `json:"overview"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Queries         []model.QueryInsight   `json:"queries"`
	GeneratedAt     time.Time              `json:"generatedAt"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ins, ok := s.insights(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, insightsResponse{
		Overview:        ins.Overview,
		Recommendations: ins.Recommendations,
		Queries:         ins.Queries,
		GeneratedAt:     ins.GeneratedAt,
	})
}

type phasesResponse struct {
	Signals       model.QueryComplexitySignals `json:"signals"`
	Phases        []model.ExecutionPhase       `json:"phases"`
	BaseFractions map[string]float64           `json:"baseFractions"`
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	var shape model.QueryShape
	if err := decodeBody(r, &shape); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if shape.TotalLatencyMs < 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("totalLatencyMs must not be negative"))
		return
	}

	sig := engine.DeriveSignals(shape)
	s.writeJSON(w, http.StatusOK, phasesResponse{
		Signals:       sig,
		Phases:        s.analyzer.AllocatePhases(shape.TotalLatencyMs, sig),
		BaseFractions: s.analyzer.BaseFractions(),
	})
}

type percentileRequest struct {
	Samples []float64 `json:"samples"`
	P       *float64  `json:"p,omitempty"`
}

type percentileResponse struct {
	P       *float64            `json:"p,omitempty"`
	Value   *float64            `json:"value,omitempty"`
	Count   int                 `json:"count"`
	Summary model.PercentileSet `json:"summary"`
}

func (s *Server) handlePercentiles(w http.ResponseWriter, r *http.Request) {
	var req percentileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := percentileResponse{
		Count:   len(req.Samples),
		Summary: stats.Summarize(req.Samples),
	}
	if req.P != nil {
		p := *req.P
		v := stats.Percentile(req.Samples, p)
		resp.P = &p
		resp.Value = &v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
