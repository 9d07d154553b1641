package indicators

import "gonum.org/v1/gonum/stat"

// RollingMean computes the simple moving average of values over window.
// Entries before the window fills are NaN.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		return nanSeries(len(values))
	}
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			continue
		}
		out[i] = stat.Mean(values[i-window+1:i+1], nil)
	}
	mask(out, window-1)
	return out
}
