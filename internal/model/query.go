package model

import "time"

// QueryShape is the structural description of a search request, as seen
// by the dashboard. TotalLatencyMs is the observed end-to-end latency.
type QueryShape struct {
	ID             string    `json:"id"`
	Index          string    `json:"index,omitempty"`
	QueryString    string    `json:"queryString"`
	HasNested      bool      `json:"hasNested,omitempty"`
	HasScript      bool      `json:"hasScript,omitempty"`
	Aggregations   int       `json:"aggregations,omitempty"`
	Size           int       `json:"size"`
	SortFields     []string  `json:"sortFields,omitempty"`
	ShardCount     int       `json:"shardCount"`
	TotalLatencyMs float64   `json:"totalLatencyMs"`
	StartedAt      time.Time `json:"startedAt"`
	Running        bool      `json:"running,omitempty"`
}

// ComplexityLevel buckets how many expensive query features are present.
type ComplexityLevel string

const (
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityComplex  ComplexityLevel = "complex"
)

// ScanType reports whether the query can be answered from the term index
// or must walk the term dictionary.
type ScanType string

const (
	ScanIndex    ScanType = "index"
	ScanFullScan ScanType = "full_scan"
)

// QueryComplexitySignals are derived from a QueryShape and only used to
// weight phase allocation.
type QueryComplexitySignals struct {
	Level           ComplexityLevel `json:"level"`
	ShardCount      int             `json:"shardCount"`
	ResultSize      int             `json:"resultSize"`
	HasAggregations bool            `json:"hasAggregations"`
	HasSort         bool            `json:"hasSort"`
	HasWildcard     bool            `json:"hasWildcard"`
	HasNested       bool            `json:"hasNested"`
	HasScript       bool            `json:"hasScript"`
	ScanType        ScanType        `json:"scanType"`
}

// ExecutionPhase is one bar of a query waterfall. Times are ms relative to
// the start of the query.
type ExecutionPhase struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Duration    float64 `json:"duration"`
	StartTime   float64 `json:"startTime"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}

// QueryInsight pairs a query with its derived signals and phase estimate.
type QueryInsight struct {
	Query   QueryShape             `json:"query"`
	Signals QueryComplexitySignals `json:"signals"`
	Phases  []ExecutionPhase       `json:"phases"`
}
