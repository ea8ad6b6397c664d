package model

import "time"

// SeriesPoint is one value of a time-ordered latency series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Band is the rolling mean ± kσ envelope at a series point.
type Band struct {
	Timestamp time.Time `json:"timestamp"`
	Mean      float64   `json:"mean"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Snapshot holds the raw inputs gathered by a single poll cycle.
type Snapshot struct {
	Observations []ShardObservation
	NodeStatus   []NodeStatusSample
	Series       []SeriesPoint
	Queries      []QueryShape
	FetchedAt    time.Time
}

// ClusterOverview is the headline view of one snapshot: cluster-wide
// latency percentiles and counts for the overview cards.
type ClusterOverview struct {
	Latency        PercentileSet `json:"latency"`
	SampleCount    int           `json:"sampleCount"`
	SuccessRate    float64       `json:"successRate"` // percent
	ShardCount     int           `json:"shardCount"`
	IndexCount     int           `json:"indexCount"`
	NodeCount      int           `json:"nodeCount"`
	HealthyNodes   int           `json:"healthyNodes"`
	DegradedNodes  int           `json:"degradedNodes"`
	FailedNodes    int           `json:"failedNodes"`
	AnomalyCount   int           `json:"anomalyCount"`
	RunningQueries int           `json:"runningQueries"`
}

// Insights is everything the dashboard renders for one snapshot.
type Insights struct {
	Record          Record           `json:"record"`
	Overview        ClusterOverview  `json:"overview"`
	Anomalies       []SeriesPoint    `json:"anomalies"`
	Bands           []Band           `json:"bands"`
	Queries         []QueryInsight   `json:"queries"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}
