// Package config holds the product-tuned constants used by the analysis
// engine. None of them are physical constants; they default to plausible
// dashboard values and can be overridden from a YAML file.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// PhaseWeights is a fraction (or additive adjustment) per execution phase.
type PhaseWeights struct {
	Parse  float64 `yaml:"parse"`
	Plan   float64 `yaml:"plan"`
	Query  float64 `yaml:"query"`
	Fetch  float64 `yaml:"fetch"`
	Reduce float64 `yaml:"reduce"`
}

// Add returns the element-wise sum of w and o.
func (w PhaseWeights) Add(o PhaseWeights) PhaseWeights {
	return PhaseWeights{
		Parse:  w.Parse + o.Parse,
		Plan:   w.Plan + o.Plan,
		Query:  w.Query + o.Query,
		Fetch:  w.Fetch + o.Fetch,
		Reduce: w.Reduce + o.Reduce,
	}
}

// Values returns the weights in phase order: parse, plan, query, fetch, reduce.
func (w PhaseWeights) Values() [5]float64 {
	return [5]float64{w.Parse, w.Plan, w.Query, w.Fetch, w.Reduce}
}

// Sum returns the total of all five weights.
func (w PhaseWeights) Sum() float64 {
	return w.Parse + w.Plan + w.Query + w.Fetch + w.Reduce
}

// Aggregation configures node rollups.
type Aggregation struct {
	// NodeFloorFactor bounds a node's reported latency from below by this
	// fraction of its slowest shard's p99.
	NodeFloorFactor   float64 `yaml:"node_floor_factor"`
	FailedLatencyMs   float64 `yaml:"failed_latency_ms"`
	DegradedLatencyMs float64 `yaml:"degraded_latency_ms"`
	// HealthyFraction is the minimum share of healthy status probes for a
	// node under the latency thresholds to be reported healthy.
	HealthyFraction float64 `yaml:"healthy_fraction"`
	// MinSuccessRate (percent) below which a shard is flagged.
	MinSuccessRate      float64 `yaml:"min_success_rate"`
	CriticalSuccessRate float64 `yaml:"critical_success_rate"`
}

// Phases configures the query-phase allocator.
type Phases struct {
	Base                 PhaseWeights `yaml:"base"`
	ModerateQuery        PhaseWeights `yaml:"moderate_query"`
	ComplexQuery         PhaseWeights `yaml:"complex_query"`
	ShardFanout          PhaseWeights `yaml:"shard_fanout"`
	LargeResult          PhaseWeights `yaml:"large_result"`
	Aggregations         PhaseWeights `yaml:"aggregations"`
	Sort                 PhaseWeights `yaml:"sort"`
	FullScan             PhaseWeights `yaml:"full_scan"`
	ShardFanoutThreshold int          `yaml:"shard_fanout_threshold"`
	LargeResultSize      int          `yaml:"large_result_size"`
	MinFraction          float64      `yaml:"min_fraction"`
}

// Anomaly configures rolling-window anomaly banding.
type Anomaly struct {
	Window int     `yaml:"window"`
	Sigma  float64 `yaml:"sigma"`
}

// Config is the full set of analysis tunables.
type Config struct {
	Aggregation Aggregation `yaml:"aggregation"`
	Phases      Phases      `yaml:"phases"`
	Anomaly     Anomaly     `yaml:"anomaly"`
}

// Default returns the built-in tunables.
func Default() Config {
	return Config{
		Aggregation: Aggregation{
			NodeFloorFactor:     0.8,
			FailedLatencyMs:     8000,
			DegradedLatencyMs:   4000,
			HealthyFraction:     0.8,
			MinSuccessRate:      95,
			CriticalSuccessRate: 80,
		},
		Phases: Phases{
			Base:                 PhaseWeights{Parse: 0.03, Plan: 0.07, Query: 0.50, Fetch: 0.25, Reduce: 0.15},
			ModerateQuery:        PhaseWeights{Parse: 0.01, Plan: 0.02, Query: 0.05},
			ComplexQuery:         PhaseWeights{Parse: 0.02, Plan: 0.05, Query: 0.10},
			ShardFanout:          PhaseWeights{Plan: 0.03, Query: 0.05, Reduce: 0.05},
			LargeResult:          PhaseWeights{Fetch: 0.10, Reduce: 0.05},
			Aggregations:         PhaseWeights{Query: 0.08, Reduce: 0.10},
			Sort:                 PhaseWeights{Reduce: 0.03},
			FullScan:             PhaseWeights{Query: 0.30, Fetch: -0.10},
			ShardFanoutThreshold: 5,
			LargeResultSize:      100,
			MinFraction:          0.005,
		},
		Anomaly: Anomaly{
			Window: 10,
			Sigma:  2,
		},
	}
}

// Parse overlays YAML data on top of Default and validates the result.
// Keys absent from data keep their default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML config file. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(data)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs *multierror.Error

	a := c.Aggregation
	if a.NodeFloorFactor < 0 || a.NodeFloorFactor > 1 {
		errs = multierror.Append(errs, fmt.Errorf("aggregation.node_floor_factor must be within [0, 1], got %v", a.NodeFloorFactor))
	}
	if a.DegradedLatencyMs <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("aggregation.degraded_latency_ms must be positive, got %v", a.DegradedLatencyMs))
	}
	if a.FailedLatencyMs <= a.DegradedLatencyMs {
		errs = multierror.Append(errs, fmt.Errorf("aggregation.failed_latency_ms (%v) must exceed degraded_latency_ms (%v)", a.FailedLatencyMs, a.DegradedLatencyMs))
	}
	if a.HealthyFraction < 0 || a.HealthyFraction > 1 {
		errs = multierror.Append(errs, fmt.Errorf("aggregation.healthy_fraction must be within [0, 1], got %v", a.HealthyFraction))
	}
	if a.CriticalSuccessRate > a.MinSuccessRate {
		errs = multierror.Append(errs, fmt.Errorf("aggregation.critical_success_rate (%v) must not exceed min_success_rate (%v)", a.CriticalSuccessRate, a.MinSuccessRate))
	}

	p := c.Phases
	if sum := p.Base.Sum(); math.Abs(sum-1) > 1e-6 {
		errs = multierror.Append(errs, fmt.Errorf("phases.base must sum to 1, got %v", sum))
	}
	for i, v := range p.Base.Values() {
		if v < 0 {
			errs = multierror.Append(errs, fmt.Errorf("phases.base[%d] must not be negative, got %v", i, v))
		}
	}
	if p.MinFraction <= 0 || p.MinFraction >= 0.2 {
		errs = multierror.Append(errs, fmt.Errorf("phases.min_fraction must be within (0, 0.2), got %v", p.MinFraction))
	}
	if p.ShardFanoutThreshold < 1 {
		errs = multierror.Append(errs, fmt.Errorf("phases.shard_fanout_threshold must be at least 1, got %d", p.ShardFanoutThreshold))
	}
	if p.LargeResultSize < 1 {
		errs = multierror.Append(errs, fmt.Errorf("phases.large_result_size must be at least 1, got %d", p.LargeResultSize))
	}

	if c.Anomaly.Window < 2 {
		errs = multierror.Append(errs, fmt.Errorf("anomaly.window must be at least 2, got %d", c.Anomaly.Window))
	}
	if c.Anomaly.Sigma <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("anomaly.sigma must be positive, got %v", c.Anomaly.Sigma))
	}

	return errs.ErrorOrNil()
}
