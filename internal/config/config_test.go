package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), conf)

	// The default file was written so operators can edit it.
	_, err = os.Stat(path)
	assert.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, conf, reloaded)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "listen: 0.0.0.0:9000\nsnapshot_ttl_hours:\n  conferences: 24\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", conf.Listen)
	assert.Equal(t, 24, conf.SnapshotTTLHours["conferences"])
	// Unset keys fall back to defaults.
	assert.Equal(t, 7*24, conf.SnapshotTTLHours["acceptances"])
	assert.Equal(t, DefaultConfig().Feeds.ConferenceURL, conf.Feeds.ConferenceURL)
	assert.Equal(t, "info", conf.LogLevel)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSnapshotTTLs(t *testing.T) {
	conf := DefaultConfig()
	conf.SnapshotTTLHours = map[string]int{"conferences": 24, "acceptances": 1}

	ttls := conf.SnapshotTTLs()
	assert.Equal(t, 24*time.Hour, ttls["conferences"])
	assert.Equal(t, time.Hour, ttls["acceptances"])
}
