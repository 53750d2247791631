package dataset

import (
	"sync"

	"github.com/wastestats/wastestats/server/internal/config"
)

// Store holds the table currently served by the API. Readers take the
// *Table once per request and query it without further locking; a reload
// swaps the pointer and never touches the table readers already hold.
type Store struct {
	mu    sync.RWMutex
	table *Table
	cfg   config.DatasetConfig
}

// NewStore creates a Store serving t. cfg is what Reload reads from.
func NewStore(t *Table, cfg config.DatasetConfig) *Store {
	return &Store{table: t, cfg: cfg}
}

// Open loads the table described by cfg and returns a Store serving it.
func Open(cfg config.DatasetConfig) (*Store, error) {
	t, err := Load(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(t, cfg), nil
}

// Current returns the table being served.
func (s *Store) Current() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Replace swaps in t as the table being served.
func (s *Store) Replace(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// Reload reads the dataset file again and replaces the current table.
// On error the previous table stays in place.
func (s *Store) Reload() (*Table, error) {
	t, err := Load(s.cfg)
	if err != nil {
		return nil, err
	}
	s.Replace(t)
	return t, nil
}
