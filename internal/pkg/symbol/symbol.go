package symbol

import "strings"

// knownQuotes is checked in order when a pair has no separator; longer codes first.
var knownQuotes = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR"}

// Symbol is a spot trading pair.
type Symbol struct {
	Base  string
	Quote string
}

// Internal returns the pair in BASE/QUOTE form, or "" when incomplete.
func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

// Binance returns the pair in exchange form (BASEQUOTE), or "" when incomplete.
func (s Symbol) Binance() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse accepts "btc/usdt", "BTCUSDT" or "BTC/USDT:USDT".
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}

	for _, quote := range knownQuotes {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{}
}

// ToBinance converts any accepted form to the exchange form.
func ToBinance(s string) string {
	return Parse(s).Binance()
}

// Normalize converts any accepted form to BASE/QUOTE.
func Normalize(s string) string {
	return Parse(s).Internal()
}

// NormalizeList normalizes symbols, dropping blanks, invalid pairs and duplicates.
func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// IsValid reports whether s parses into a base and a quote asset.
func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
