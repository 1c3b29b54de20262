package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	recognitionPrefix = "history:recognition:"
	searchPrefix      = "history:search:"
)

// RecognitionRecord is one formula-recognition result kept for the history
// panel.
type RecognitionRecord struct {
	ID    string `json:"id"`
	Latex string `json:"latex"`
	// Confidence is a display percentage (0-100).
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchRecord is one ranking-lookup query kept for the history panel.
type SearchRecord struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// AddRecognition appends a recognition record, pruning the oldest entries
// beyond limit.
func (s *Store) AddRecognition(latex string, confidence float64, now time.Time, limit int) (RecognitionRecord, error) {
	rec := RecognitionRecord{
		ID:         uuid.NewString(),
		Latex:      latex,
		Confidence: confidence,
		CreatedAt:  now,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return RecognitionRecord{}, fmt.Errorf("marshal recognition record: %w", err)
	}
	if err := s.appendHistory(recognitionPrefix, rec.CreatedAt, rec.ID, data, limit); err != nil {
		return RecognitionRecord{}, err
	}
	return rec, nil
}

// Recognitions lists recognition records, newest first.
func (s *Store) Recognitions(limit int) ([]RecognitionRecord, error) {
	raw, err := s.listHistory(recognitionPrefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RecognitionRecord, 0, len(raw))
	for _, data := range raw {
		var rec RecognitionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ClearRecognitions drops the whole recognition history.
func (s *Store) ClearRecognitions() error {
	return s.dropPrefix(recognitionPrefix)
}

// AddSearch appends a ranking-lookup query, pruning beyond limit.
func (s *Store) AddSearch(query string, now time.Time, limit int) (SearchRecord, error) {
	rec := SearchRecord{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: now,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return SearchRecord{}, fmt.Errorf("marshal search record: %w", err)
	}
	if err := s.appendHistory(searchPrefix, rec.CreatedAt, rec.ID, data, limit); err != nil {
		return SearchRecord{}, err
	}
	return rec, nil
}

// Searches lists search records, newest first.
func (s *Store) Searches(limit int) ([]SearchRecord, error) {
	raw, err := s.listHistory(searchPrefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchRecord, 0, len(raw))
	for _, data := range raw {
		var rec SearchRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ClearSearches drops the whole search history.
func (s *Store) ClearSearches() error {
	return s.dropPrefix(searchPrefix)
}

// historyKey orders records chronologically within a prefix; the uuid
// suffix keeps same-nanosecond records distinct.
func historyKey(prefix string, at time.Time, id string) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", prefix, at.UnixNano(), id)
}

func (s *Store) appendHistory(prefix string, at time.Time, id string, data []byte, limit int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(historyKey(prefix, at, id), data); err != nil {
			return err
		}
		if limit <= 0 {
			return nil
		}
		// Walk oldest-first and delete whatever exceeds the cap.
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		keys := make([][]byte, 0)
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for i := 0; i < len(keys)-limit; i++ {
			if err := txn.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) listHistory(prefix string, limit int) ([][]byte, error) {
	out := make([][]byte, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every real key of the prefix.
		seek := append([]byte(prefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) dropPrefix(prefix string) error {
	return s.db.DropPrefix([]byte(prefix))
}
