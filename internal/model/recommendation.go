package model

// RecommendationSeverity indicates the urgency level of a recommendation.
type RecommendationSeverity int

const (
	SeverityNormal RecommendationSeverity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the lower-case severity name.
func (s RecommendationSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// MarshalText renders the severity by name in JSON.
func (s RecommendationSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RecommendationCategory groups related recommendations.
type RecommendationCategory int

const (
	CategoryNodeHealth RecommendationCategory = iota
	CategoryShardHealth
	CategoryLatency
	CategoryQueryShape
)

// String returns the category name.
func (c RecommendationCategory) String() string {
	switch c {
	case CategoryShardHealth:
		return "shard-health"
	case CategoryLatency:
		return "latency"
	case CategoryQueryShape:
		return "query-shape"
	default:
		return "node-health"
	}
}

// MarshalText renders the category by name in JSON.
func (c RecommendationCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Recommendation is a single insight derived from the aggregated view.
type Recommendation struct {
	Severity RecommendationSeverity `json:"severity"`
	Category RecommendationCategory `json:"category"`
	Title    string                 `json:"title"`
	Detail   string                 `json:"detail"`
}
