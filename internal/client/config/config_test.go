package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8545", c.RPCURL)
	assert.Equal(t, StoragePinata, c.StorageBackend)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs", c.GatewayURL)
	assert.Equal(t, 5*time.Second, c.FetchTimeout)
	assert.Equal(t, 1000, c.PinPageLimit)
	assert.Empty(t, c.PinataJWT)
	assert.Empty(t, c.ContractAddress)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.StorageBackend = "ftp" }},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"page limit too large", func(c *Config) { c.PinPageLimit = 5000 }},
		{"page limit zero", func(c *Config) { c.PinPageLimit = 0 }},
		{"zero chain interval", func(c *Config) { c.ChainCheckInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_LayersEnvUnderFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Chdir(t.TempDir())

	t.Setenv("PINATA_JWT", "env-jwt")
	t.Setenv("FLASHVAULT_RPC_URL", "http://env:8545")
	os.Args = []string{"cmd", "-rpc", "http://flag:8545"}

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "env-jwt", cfg.PinataJWT)
	assert.Equal(t, "http://flag:8545", cfg.RPCURL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}

func TestResolvePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := Config{KeystoreDir: "~/.flashvault/keystore", PasswordFile: "/etc/fv/pass"}
	require.NoError(t, c.ResolvePaths())
	assert.Equal(t, home+"/.flashvault/keystore", c.KeystoreDir)
	assert.Equal(t, "/etc/fv/pass", c.PasswordFile)
}

func TestLoadConfig_JSONSubSecondTimeoutSurvivesFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fetch_timeout":"500ms"}`), 0o600))
	os.Args = []string{"cmd", "-c", path, "-rpc", "http://flag:8545"}

	cfg := LoadConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.FetchTimeout)
	require.NoError(t, cfg.Validate())
}
