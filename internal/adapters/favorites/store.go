package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"
)

// DefaultMarkets is the market list offered to the operator.
var DefaultMarkets = []string{
	"BTC/USDT", "ETH/USDT", "BNB/USDT", "SOL/USDT", "XRP/USDT",
	"ADA/USDT", "AVAX/USDT", "DOGE/USDT", "DOT/USDT", "MATIC/USDT",
	"LINK/USDT", "SHIB/USDT", "LTC/USDT", "TRX/USDT", "NEAR/USDT",
	"ATOM/USDT", "UNI/USDT", "ICP/USDT", "APT/USDT", "OP/USDT",
}

// Market is a pair with its favorite flag.
type Market struct {
	Pair     string
	Favorite bool
}

// Store persists the favorite pairs as a JSON array of strings.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path. The file is created on first save.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: favorites path is required", ports.ErrConfigurationError)
	}
	return &Store{path: path}, nil
}

// Load returns the saved favorites. A missing file means no favorites.
func (s *Store) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites file '%s': %w", s.path, err)
	}

	var pairs []string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("%w: favorites file '%s' is not a JSON array of pairs: %w", ports.ErrInvalidRequest, s.path, err)
	}
	out := symbol.NormalizeList(pairs)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// save writes pairs atomically.
func (s *Store) save(pairs []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace favorites file: %w", err)
	}
	return nil
}

// Toggle flips the favorite flag of pair and reports whether it is now a favorite.
func (s *Store) Toggle(pair string) (bool, error) {
	norm := symbol.Normalize(pair)
	if norm == "" {
		return false, fmt.Errorf("%w: %q is not a BASE/QUOTE pair", ports.ErrInvalidRequest, pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pairs, err := s.load()
	if err != nil {
		return false, err
	}

	for i, p := range pairs {
		if p == norm {
			pairs = append(pairs[:i], pairs[i+1:]...)
			return false, s.save(pairs)
		}
	}
	return true, s.save(append(pairs, norm))
}

// Set marks or unmarks pair as a favorite.
func (s *Store) Set(pair string, favorite bool) error {
	norm := symbol.Normalize(pair)
	if norm == "" {
		return fmt.Errorf("%w: %q is not a BASE/QUOTE pair", ports.ErrInvalidRequest, pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pairs, err := s.load()
	if err != nil {
		return err
	}

	kept := pairs[:0]
	for _, p := range pairs {
		if p != norm {
			kept = append(kept, p)
		}
	}
	if favorite {
		kept = append(kept, norm)
	}
	return s.save(kept)
}

// Markets merges markets with the saved favorites: favorites first, then
// alphabetical. Favorites missing from markets are included.
func (s *Store) Markets(markets []string) ([]Market, error) {
	favs, err := s.Load()
	if err != nil {
		return nil, err
	}

	isFav := make(map[string]bool, len(favs))
	for _, f := range favs {
		isFav[f] = true
	}

	all := symbol.NormalizeList(append(append([]string{}, markets...), favs...))
	out := make([]Market, 0, len(all))
	for _, p := range all {
		out = append(out, Market{Pair: p, Favorite: isFav[p]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Favorite != out[j].Favorite {
			return out[i].Favorite
		}
		return out[i].Pair < out[j].Pair
	})
	return out, nil
}
