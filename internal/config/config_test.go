package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewire/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Empty(t, s.Relays())
	assert.Equal(t, uint(config.DefaultAutoLockMinutes), s.AutoLockMinutes())
	assert.Equal(t, config.DefaultSubscriptionTimeoutMs*time.Millisecond, s.SubscriptionTimeout())
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
relays = ["wss://relay-a.example.com", "wss://relay-b.example.com"]
auto_lock_minutes = 5
subscription_timeout_ms = 1500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://relay-a.example.com", "wss://relay-b.example.com"}, s.Relays())
	assert.Equal(t, uint(5), s.AutoLockMinutes())
	assert.Equal(t, 1500*time.Millisecond, s.SubscriptionTimeout())
}

func TestZeroAutoLockIsPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("auto_lock_minutes = 0\n"), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	// Zero means disabled, not "use the default".
	assert.Zero(t, s.AutoLockMinutes())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("relays = not-an-array"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
