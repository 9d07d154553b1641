package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected Symbol
	}{
		{in: "BTC/USDT", expected: Symbol{Base: "BTC", Quote: "USDT"}},
		{in: " eth/usdc ", expected: Symbol{Base: "ETH", Quote: "USDC"}},
		{in: "BTCUSDT", expected: Symbol{Base: "BTC", Quote: "USDT"}},
		{in: "SOLFDUSD", expected: Symbol{Base: "SOL", Quote: "FDUSD"}},
		{in: "ETHBTC", expected: Symbol{Base: "ETH", Quote: "BTC"}},
		{in: "BTC/USDT:USDT", expected: Symbol{Base: "BTC", Quote: "USDT"}},
		{in: "USDT", expected: Symbol{}},
		{in: "", expected: Symbol{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.in))
		})
	}
}

func TestConversions(t *testing.T) {
	assert.Equal(t, "BTCUSDT", ToBinance("btc/usdt"))
	assert.Equal(t, "BTC/USDT", Normalize("BTCUSDT"))
	assert.Equal(t, "", ToBinance("nonsense"))
	assert.True(t, IsValid("ETH/USDT"))
	assert.False(t, IsValid("USDT"))
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"btcusdt", "BTC/USDT", "", "ETH/USDT", "bogus"})
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, got)
	assert.Nil(t, NormalizeList(nil))
}
