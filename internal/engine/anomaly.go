package engine

import (
	"slices"

	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/stats"
)

// DetectAnomalies flags points outside the rolling ±2σ band using the
// default tunables. See Analyzer.DetectAnomalies.
func DetectAnomalies(series []model.SeriesPoint, windowSize int) []model.SeriesPoint {
	return defaultAnalyzer.DetectAnomalies(series, windowSize)
}

// DetectAnomalies returns the points of a time-ordered series whose value
// falls outside [mean - kσ, mean + kσ] of the trailing window ending at
// (and including) that point, with k = Anomaly.Sigma and σ the population
// standard deviation. Points before index windowSize-1 never have a full
// window and are never flagged. windowSize <= 0 uses Anomaly.Window.
// The result keeps the input order and is never nil.
func (a *Analyzer) DetectAnomalies(series []model.SeriesPoint, windowSize int) []model.SeriesPoint {
	out := []model.SeriesPoint{}
	a.walkWindows(series, windowSize, func(i int, mean, sd, lower, upper float64) {
		// a flat window has no spread; rounding in the mean must not flag it
		if sd == 0 {
			return
		}
		v := series[i].Value
		if v < lower || v > upper {
			out = append(out, series[i])
		}
	})
	return out
}

// AnomalyBands returns the rolling band for every point that has a full
// trailing window, for charting alongside DetectAnomalies.
func (a *Analyzer) AnomalyBands(series []model.SeriesPoint, windowSize int) []model.Band {
	out := []model.Band{}
	a.walkWindows(series, windowSize, func(i int, mean, _, lower, upper float64) {
		out = append(out, model.Band{
			Timestamp: series[i].Timestamp,
			Mean:      mean,
			Lower:     lower,
			Upper:     upper,
		})
	})
	return out
}

// walkWindows calls fn for each index with a complete trailing window.
func (a *Analyzer) walkWindows(series []model.SeriesPoint, windowSize int, fn func(i int, mean, sd, lower, upper float64)) {
	if windowSize <= 0 {
		windowSize = a.cfg.Anomaly.Window
	}
	k := a.cfg.Anomaly.Sigma

	window := make([]float64, windowSize)
	for i := windowSize - 1; i < len(series); i++ {
		for j := range window {
			window[j] = series[i-windowSize+1+j].Value
		}
		mean, sd := stats.MeanStdDev(window)
		if slices.Min(window) == slices.Max(window) {
			mean, sd = window[0], 0
		}
		fn(i, mean, sd, mean-k*sd, mean+k*sd)
	}
}
