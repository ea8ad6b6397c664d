// Package telemetry provides OpenTelemetry metrics for qinsight.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jtsunne/qinsight/internal/model"
)

// ExporterType defines where metrics are exported.
type ExporterType string

const (
	// ExporterNone disables export (no-op).
	ExporterNone ExporterType = "none"
	// ExporterStdout writes periodic JSON dumps to Writer.
	ExporterStdout ExporterType = "stdout"
	// ExporterOTLPGRPC pushes to an OTLP collector over gRPC.
	ExporterOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterOTLPHTTP pushes to an OTLP collector over HTTP.
	ExporterOTLPHTTP ExporterType = "otlp-http"
)

// Config holds configuration for Metrics.
type Config struct {
	// Enabled controls whether metrics collection is active. Default: false (no-op).
	Enabled bool

	ServiceName    string
	ServiceVersion string

	ExporterType ExporterType

	// Writer receives stdout exporter output. Defaults to os.Stderr so the
	// dashboard's own output is left alone.
	Writer io.Writer

	// OTLPEndpoint is the collector host:port for OTLP exporters. Empty uses
	// the exporter's default (localhost:4317 or localhost:4318).
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Interval is the periodic export interval. Zero uses the SDK default.
	Interval time.Duration

	// Reader, when set, replaces the exporter. Tests pass a ManualReader.
	Reader sdkmetric.Reader
}

// DefaultConfig returns a configuration with metrics disabled.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		ServiceName:  "qinsight",
		ExporterType: ExporterNone,
	}
}

// Metrics wraps the MeterProvider and the qinsight instruments. All
// recording methods are safe on a nil *Metrics.
type Metrics struct {
	config        *Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error
	mu            sync.Mutex

	analysisLatency metric.Float64Histogram
	anomalyCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// New creates a Metrics instance. A disabled config yields a provider with
// no reader and no instruments, so every Record call is a no-op.
func New(ctx context.Context, cfg *Config) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Metrics{config: cfg}

	if !m.Enabled() {
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	reader := cfg.Reader
	if reader == nil {
		exporter, err := createExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		var opts []sdkmetric.PeriodicReaderOption
		if cfg.Interval > 0 {
			opts = append(opts, sdkmetric.WithInterval(cfg.Interval))
		}
		reader = sdkmetric.NewPeriodicReader(exporter, opts...)
	}

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}
	return m, nil
}

func createExporter(ctx context.Context, cfg *Config) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		return stdoutmetric.New(stdoutmetric.WithWriter(w))
	case ExporterOTLPGRPC:
		var opts []otlpmetricgrpc.Option
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case ExporterOTLPHTTP:
		var opts []otlpmetrichttp.Option
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

func createResource(cfg *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

func (m *Metrics) registerInstruments() error {
	var err error

	m.analysisLatency, err = m.meter.Float64Histogram(
		"qinsight.analysis.latency",
		metric.WithDescription("Reported average latency per node after the shard p99 floor"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis latency histogram: %w", err)
	}

	m.anomalyCounter, err = m.meter.Int64Counter(
		"qinsight.anomalies",
		metric.WithDescription("Count of latency points outside the rolling band"),
	)
	if err != nil {
		return fmt.Errorf("failed to create anomaly counter: %w", err)
	}

	m.requestDuration, err = m.meter.Float64Histogram(
		"qinsight.http.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	return nil
}

// RecordInsights records every node's reported latency and the number of
// anomalies found in one analysis pass.
func (m *Metrics) RecordInsights(ctx context.Context, ins model.Insights) {
	if m == nil || m.analysisLatency == nil {
		return
	}
	for _, n := range ins.Record.Nodes {
		m.analysisLatency.Record(ctx, n.AvgLatency, metric.WithAttributes(
			attribute.String("node.id", n.NodeID),
			attribute.String("node.health", string(n.Health)),
		))
	}
	if len(ins.Anomalies) > 0 {
		m.anomalyCounter.Add(ctx, int64(len(ins.Anomalies)))
	}
}

// RecordRequest records one API request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	))
}

// Enabled reports whether metrics are collected.
func (m *Metrics) Enabled() bool {
	if m == nil || m.config == nil {
		return false
	}
	return m.config.Enabled && (m.config.ExporterType != ExporterNone || m.config.Reader != nil)
}

// Shutdown flushes pending metrics and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// Noop returns a Metrics that records nothing.
func Noop() *Metrics {
	m, _ := New(context.Background(), DefaultConfig())
	return m
}
