package engine

import "github.com/jtsunne/qinsight/internal/config"

// Analyzer runs the aggregation, phase allocation and anomaly functions
// with a fixed set of tunables. It holds no mutable state and is safe for
// concurrent use.
type Analyzer struct {
	cfg config.Config
}

// NewAnalyzer returns an Analyzer using cfg. The caller is expected to
// have validated cfg (config.Load and config.Parse do).
func NewAnalyzer(cfg config.Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Config returns the tunables the analyzer was built with.
func (a *Analyzer) Config() config.Config {
	return a.cfg
}

var defaultAnalyzer = NewAnalyzer(config.Default())

// DefaultAnalyzer returns the analyzer built from config.Default.
func DefaultAnalyzer() *Analyzer {
	return defaultAnalyzer
}

// safeDivide returns a/b, or 0 when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
