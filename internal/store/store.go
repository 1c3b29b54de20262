// Package store wraps a Badger database holding the short-term feed
// snapshots, the recognition/search history, and the versioned calendar
// view settings. Derived data (deadlines, calendar entries) is never stored
// here; it is recomputed from the cached raw documents on every read.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	appLog "confdash/internal/log"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: not found")

// Store wraps a Badger database instance.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	appLog.Info("store opened", "path", path)
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// get reads a single value, translating badger's not-found error.
func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// set writes a single value.
func (s *Store) set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}
