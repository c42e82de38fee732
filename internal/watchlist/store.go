package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// Store reads and writes the dynamic watchlist document on disk
// ⭐ SSOT: watchlist.json 접근은 여기서만
type Store struct {
	path   string
	logger *logger.Logger
}

// NewStore creates a store at the configured watchlist path
func NewStore(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{
		path:   cfg.Screener.WatchlistPath,
		logger: log,
	}
}

// NewStoreAt creates a store at an explicit path
func NewStoreAt(path string, log *logger.Logger) *Store {
	return &Store{path: path, logger: log}
}

// Path returns the document location
func (s *Store) Path() string {
	return s.path
}

// Load returns the current dynamic watchlist. A missing file returns
// (nil, nil); a corrupt file returns an error.
func (s *Store) Load() (*contracts.Watchlist, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	var doc contracts.Watchlist
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist: %w", err)
	}
	return &doc, nil
}

// Save atomically replaces the watchlist document. The document is
// written to a temp file in the same directory and renamed into place
// so readers never observe a partial write.
func (s *Store) Save(doc *contracts.Watchlist) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watchlist dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal watchlist: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watchlist-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp watchlist: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write watchlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp watchlist: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace watchlist: %w", err)
	}
	return nil
}

// DynamicTickers returns the dynamic tickers, or empty when the
// document is absent or unreadable. Load failures are logged, not
// propagated, so a corrupt file never stops a scan.
func (s *Store) DynamicTickers() []string {
	doc, err := s.Load()
	if err != nil {
		s.logger.WithError(err).Warn("Could not load dynamic watchlist")
		return nil
	}
	if doc == nil {
		return nil
	}
	return doc.Tickers
}

// Combined returns fixed ∪ dynamic tickers with duplicates removed.
// Fixed tickers come first so scan order is deterministic.
func (s *Store) Combined() []string {
	fixed := Fixed()
	dynamic := s.DynamicTickers()

	seen := make(map[string]bool, len(fixed)+len(dynamic))
	combined := make([]string, 0, len(fixed)+len(dynamic))
	for _, t := range fixed {
		if !seen[t] {
			seen[t] = true
			combined = append(combined, t)
		}
	}
	for _, t := range dynamic {
		if !seen[t] {
			seen[t] = true
			combined = append(combined, t)
		}
	}

	s.logger.Infof("Watchlist loaded: %d stocks (fixed: %d, dynamic: %d)",
		len(combined), len(fixed), len(dynamic))
	return combined
}
