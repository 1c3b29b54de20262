// Package filecache is the server-side persisted feed cache: the raw YAML
// text of both documents plus a metadata file carrying per-document content
// hashes and the last-update timestamp. A refresh only rewrites files and
// metadata when at least one hash changed, so consumers can tell "data
// actually changed" apart from "refresh ran but no-op".
package filecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"confdash/internal/feed"
	appLog "confdash/internal/log"
)

const (
	conferenceFile = "conferences.yml"
	acceptanceFile = "acceptances.yml"
	metaFile       = "meta.json"
)

// Metadata describes the persisted cache state.
type Metadata struct {
	ConferenceHash string `json:"conference_hash"`
	AcceptanceHash string `json:"acceptance_hash"`
	LastUpdate     string `json:"last_update"`
}

// Result reports the outcome of one Store call.
type Result struct {
	Changed  bool     `json:"changed"`
	Message  string   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// Cache persists feed payloads under a single directory.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir. The directory is created lazily on
// the first Store.
func New(dir string) *Cache {
	if dir == "" {
		dir = "./var/feed-cache"
	}
	return &Cache{dir: dir}
}

// Store writes the payload if its content differs from what is already
// persisted. Identical content leaves files and metadata untouched.
func (c *Cache) Store(p feed.Payload, now time.Time) (Result, error) {
	confHash := contentHash(p.Conferences)
	accHash := contentHash(p.Acceptances)

	prev, err := c.ReadMetadata()
	if err == nil && prev.ConferenceHash == confHash && prev.AcceptanceHash == accHash {
		appLog.Info("feed cache unchanged", "conference_hash", confHash[:12], "acceptance_hash", accHash[:12])
		return Result{Changed: false, Message: "skipped, unchanged", Metadata: prev}, nil
	}

	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return Result{}, err
	}

	// Bodies first so metadata never points at missing files.
	if err := writeAtomic(filepath.Join(c.dir, conferenceFile), p.Conferences); err != nil {
		return Result{}, err
	}
	if err := writeAtomic(filepath.Join(c.dir, acceptanceFile), p.Acceptances); err != nil {
		return Result{}, err
	}

	meta := Metadata{
		ConferenceHash: confHash,
		AcceptanceHash: accHash,
		LastUpdate:     now.UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return Result{}, err
	}
	if err := writeAtomic(filepath.Join(c.dir, metaFile), data); err != nil {
		return Result{}, err
	}

	appLog.Info("feed cache updated", "conference_hash", confHash[:12], "acceptance_hash", accHash[:12])
	return Result{Changed: true, Message: "updated", Metadata: meta}, nil
}

// Load reads the persisted payload and metadata. It fails when no cache
// has been written yet.
func (c *Cache) Load() (feed.Payload, Metadata, error) {
	meta, err := c.ReadMetadata()
	if err != nil {
		return feed.Payload{}, Metadata{}, err
	}

	conf, err := os.ReadFile(filepath.Join(c.dir, conferenceFile))
	if err != nil {
		return feed.Payload{}, Metadata{}, err
	}
	acc, err := os.ReadFile(filepath.Join(c.dir, acceptanceFile))
	if err != nil {
		return feed.Payload{}, Metadata{}, err
	}
	return feed.Payload{Conferences: conf, Acceptances: acc}, meta, nil
}

// ReadMetadata reads meta.json if present.
func (c *Cache) ReadMetadata() (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, metaFile))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic writes via temp file + rename so readers never observe a
// half-written file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".confdash-cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
