package indicators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWilderRSI(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected []float64
	}{
		{
			name:   "Mixed gains and losses",
			values: []float64{10, 12, 11, 13},
			period: 2,
			// avgGain 0,1,0.5,1.25 / avgLoss 0,0,0.5,0.25
			expected: []float64{math.NaN(), 100, 50, 100 - 100.0/6},
		},
		{
			name:     "All gains is exactly 100",
			values:   []float64{100, 101, 102, 103, 104},
			period:   3,
			expected: []float64{math.NaN(), math.NaN(), 100, 100, 100},
		},
		{
			name:     "Flat prices is exactly 100",
			values:   []float64{50, 50, 50},
			period:   1,
			expected: []float64{100, 100, 100},
		},
		{
			name:     "All losses approaches 0",
			values:   []float64{104, 103, 102, 101},
			period:   2,
			expected: []float64{math.NaN(), 0, 0, 0},
		},
		{
			name:     "Insufficient data",
			values:   []float64{100, 101, 102, 103, 104},
			period:   14,
			expected: []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WilderRSI(tt.values, tt.period)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				if math.IsNaN(tt.expected[i]) {
					assert.True(t, math.IsNaN(got[i]), "index %d should be undefined, got %f", i, got[i])
					continue
				}
				assert.InDelta(t, tt.expected[i], got[i], 1e-9, "index %d", i)
			}
		})
	}
}

func TestWilderRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 500)
	price := 100.0
	for i := range values {
		price += rng.NormFloat64()
		values[i] = price
	}

	rsi := WilderRSI(values, 14)
	require.Len(t, rsi, len(values))
	for i, v := range rsi {
		if i < 13 {
			assert.True(t, math.IsNaN(v), "index %d", i)
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 100.0, "index %d", i)
	}
}
