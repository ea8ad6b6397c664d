package model

import "time"

const defaultHistoryCap = 120

// HistoryPoint is one poll's cluster-level latency summary.
type HistoryPoint struct {
	Timestamp time.Time
	P50       float64
	P95       float64
	P99       float64
	Anomalies int
}

// LatencyHistory is a fixed-size ring buffer of HistoryPoints.
// When the buffer is full, new pushes overwrite the oldest entry.
type LatencyHistory struct {
	buf  []HistoryPoint
	head int // index of the next write position
	size int // number of valid entries
}

// NewLatencyHistory creates a LatencyHistory with the given capacity.
// If capacity <= 0, defaultHistoryCap (120) is used.
func NewLatencyHistory(capacity int) *LatencyHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &LatencyHistory{
		buf: make([]HistoryPoint, capacity),
	}
}

// Push appends a new point, overwriting the oldest if full.
func (h *LatencyHistory) Push(p HistoryPoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries.
func (h *LatencyHistory) Len() int {
	return h.size
}

// Clear resets the history to empty.
func (h *LatencyHistory) Clear() {
	h.head = 0
	h.size = 0
}

// Points returns the stored points oldest first.
func (h *LatencyHistory) Points() []HistoryPoint {
	out := make([]HistoryPoint, h.size)
	// oldest entry sits at (head - size + cap) % cap
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// Values returns one field in chronological order. Valid field names:
// "p50", "p95", "p99", "anomalies". Unknown fields yield zeros.
func (h *LatencyHistory) Values(field string) []float64 {
	points := h.Points()
	out := make([]float64, len(points))
	for i, p := range points {
		switch field {
		case "p50":
			out[i] = p.P50
		case "p95":
			out[i] = p.P95
		case "p99":
			out[i] = p.P99
		case "anomalies":
			out[i] = float64(p.Anomalies)
		}
	}
	return out
}

// Series converts the chosen field into a time-ordered series suitable for
// anomaly detection.
func (h *LatencyHistory) Series(field string) []SeriesPoint {
	points := h.Points()
	vals := h.Values(field)
	out := make([]SeriesPoint, len(points))
	for i, p := range points {
		out[i] = SeriesPoint{Timestamp: p.Timestamp, Value: vals[i]}
	}
	return out
}
