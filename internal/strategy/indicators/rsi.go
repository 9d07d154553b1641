package indicators

// WilderRSI computes the Relative Strength Index with Wilder smoothing.
//
// Deltas of consecutive values are split into gain and loss series (the first
// delta counts as zero), each smoothed with alpha = 1/period. When the average
// loss is zero the RSI is exactly 100. Entries before index period-1 are NaN.
func WilderRSI(values []float64, period int) []float64 {
	n := len(values)
	if period < 1 {
		return nanSeries(n)
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	alpha := 1.0 / float64(period)
	avgGain := ewm(gains, alpha)
	avgLoss := ewm(losses, alpha)

	out := make([]float64, n)
	for i := range out {
		out[i] = rsiFromAverages(avgGain[i], avgLoss[i])
	}
	mask(out, period-1)
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	// rs diverges; saturate instead of dividing by zero.
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}
