package filecache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confdash/internal/feed"
	appLog "confdash/internal/log"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	m.Run()
}

func payload(conf, acc string) feed.Payload {
	return feed.Payload{Conferences: []byte(conf), Acceptances: []byte(acc)}
}

func TestStoreAndLoadRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	res, err := c.Store(payload("conf-v1", "acc-v1"), now)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "updated", res.Message)
	assert.Equal(t, "2025-06-01T12:00:00Z", res.Metadata.LastUpdate)
	assert.NotEmpty(t, res.Metadata.ConferenceHash)
	assert.NotEmpty(t, res.Metadata.AcceptanceHash)

	p, meta, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "conf-v1", string(p.Conferences))
	assert.Equal(t, "acc-v1", string(p.Acceptances))
	assert.Equal(t, res.Metadata, meta)
}

func TestStore_UnchangedContentIsNoOp(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	first, err := c.Store(payload("conf-v1", "acc-v1"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, first.Changed)

	metaPath := filepath.Join(dir, "meta.json")
	statBefore, err := os.Stat(metaPath)
	require.NoError(t, err)

	second, err := c.Store(payload("conf-v1", "acc-v1"), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, "skipped, unchanged", second.Message)
	// Timestamp stays at the first write: no file rewrite happened.
	assert.Equal(t, first.Metadata, second.Metadata)

	statAfter, err := os.Stat(metaPath)
	require.NoError(t, err)
	assert.Equal(t, statBefore.ModTime(), statAfter.ModTime())
}

func TestStore_EitherHashChangeRewrites(t *testing.T) {
	c := New(t.TempDir())

	first, err := c.Store(payload("conf-v1", "acc-v1"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	second, err := c.Store(payload("conf-v1", "acc-v2"), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, second.Changed)
	assert.Equal(t, first.Metadata.ConferenceHash, second.Metadata.ConferenceHash)
	assert.NotEqual(t, first.Metadata.AcceptanceHash, second.Metadata.AcceptanceHash)
	assert.Equal(t, "2025-06-02T00:00:00Z", second.Metadata.LastUpdate)

	p, _, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "acc-v2", string(p.Acceptances))
}

func TestLoad_EmptyCacheFails(t *testing.T) {
	c := New(t.TempDir())
	_, _, err := c.Load()
	assert.Error(t, err)
}
