package store

import (
	"encoding/json"
	"fmt"
	"time"
)

const snapshotPrefix = "snapshot:"

// Snapshot is a single timestamped raw-document blob per data kind.
// Overwritten whole on every successful fetch; last writer wins.
type Snapshot struct {
	Kind      string    `json:"kind"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
}

// Fresh reports whether the snapshot is within its TTL at the given time.
func (sn Snapshot) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(sn.Timestamp) < ttl
}

// PutSnapshot stores the payload for a data kind, stamping it with now.
// Writes for different kinds are independent and may partially succeed
// across a refresh; readers must tolerate one kind present without the
// other.
func (s *Store) PutSnapshot(kind string, payload []byte, now time.Time) error {
	sn := Snapshot{
		Kind:      kind,
		Payload:   payload,
		Timestamp: now,
		Size:      len(payload),
	}
	data, err := json.Marshal(&sn)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", kind, err)
	}
	return s.set(snapshotPrefix+kind, data)
}

// GetSnapshot returns the stored snapshot for a kind, or ErrNotFound.
// Freshness is the caller's call: an expired snapshot is still returned so
// it can serve as a last-resort fallback when the remote fetch fails.
func (s *Store) GetSnapshot(kind string) (Snapshot, error) {
	data, err := s.get(snapshotPrefix + kind)
	if err != nil {
		return Snapshot{}, err
	}
	var sn Snapshot
	if err := json.Unmarshal(data, &sn); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal %s snapshot: %w", kind, err)
	}
	return sn, nil
}
