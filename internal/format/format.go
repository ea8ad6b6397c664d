package format

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCount formats a document or sample count compactly for narrow
// columns. Thresholds: <1K as is, <1M → K, <1G → M, else G, 1 decimal.
func FormatCount(n int64) string {
	const (
		k = 1000
		m = k * 1000
		g = m * 1000
	)
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < k:
		return strconv.FormatInt(n, 10)
	case abs < m:
		return fmt.Sprintf("%.1fK", float64(n)/k)
	case abs < g:
		return fmt.Sprintf("%.1fM", float64(n)/m)
	default:
		return fmt.Sprintf("%.1fG", float64(n)/g)
	}
}

// FormatLatency formats a latency value in milliseconds.
// Values >= 1000 ms are shown as seconds with 2 decimal places.
// Values < 1000 ms are shown as ms with 2 decimal places.
// Negative values (no data) return "---".
func FormatLatency(ms float64) string {
	if ms < 0 {
		return "---"
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.2f ms", ms)
}

// FormatLatencyShort is FormatLatency without decimals below one second,
// for waterfall bars and sparkline captions.
// Example: 45.7 → "46ms", 1234 → "1.2s".
func FormatLatencyShort(ms float64) string {
	if ms < 0 {
		return "---"
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}

// FormatNumber formats an integer with locale-style comma separators.
// Example: 12345678 → "12,345,678".
// Uses strconv.FormatInt directly to avoid abs64 overflow for math.MinInt64.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		// s starts with "-"; strip it, insert commas, restore sign.
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// FormatPercent formats a percentage with one decimal place.
// Example: 34.5 → "34.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatFraction formats a 0..1 fraction as a whole percentage.
// Example: 0.253 → "25%".
func FormatFraction(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
