package indicators

import "math"

// EMA computes the exponential moving average of values for the given span.
// The series is seeded with the first value and uses alpha = 2/(span+1), so a
// span of 1 reproduces the input. Entries before index span-1 are NaN.
func EMA(values []float64, span int) []float64 {
	if span < 1 {
		return nanSeries(len(values))
	}
	out := ewm(values, 2.0/float64(span+1))
	mask(out, span-1)
	return out
}

// ewm is the recursive exponential weighting used by both EMA and Wilder smoothing:
// out[0] = v[0], out[i] = alpha*v[i] + (1-alpha)*out[i-1].
func ewm(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

// mask marks the first n entries of series as undefined.
func mask(series []float64, n int) {
	for i := 0; i < n && i < len(series); i++ {
		series[i] = math.NaN()
	}
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	mask(out, n)
	return out
}

// IsDefined reports whether an indicator value is usable for decisions.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
