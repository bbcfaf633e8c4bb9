package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/filex"
)

const (
	StoragePinata = "pinata"
	StorageS3     = "s3"
)

// Config holds runtime settings for the FlashVault CLI.
//
// Durations are time.Duration values; the JSON loader accepts them as Go
// duration strings ("5s") and the flags as whole seconds.
type Config struct {
	DataDir string

	// Chain / wallet.
	RPCURL             string
	ContractAddress    string
	KeystoreDir        string
	Account            string
	PasswordFile       string
	ChainCheckInterval time.Duration

	// Content storage.
	StorageBackend string
	PinataJWT      string
	PinataAPIURL   string
	GatewayURL     string
	FetchTimeout   time.Duration
	PinPageLimit   int

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	LogBackend string
	LogLevel   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "~/.flashvault"
	c.RPCURL = "http://127.0.0.1:8545"
	c.KeystoreDir = "~/.flashvault/keystore"
	c.ChainCheckInterval = 5 * time.Second

	c.StorageBackend = StoragePinata
	c.PinataAPIURL = "https://api.pinata.cloud"
	c.GatewayURL = "https://gateway.pinata.cloud/ipfs"
	c.FetchTimeout = 5 * time.Second
	c.PinPageLimit = 1000

	c.S3Region = "us-east-1"
	c.S3Endpoint = "https://s3.filebase.com"

	c.LogBackend = "slog"
	c.LogLevel = "info"
}

// Validate reports settings that can never work. Missing credentials are not
// checked here: they only matter to the operation that needs them.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StoragePinata, StorageS3:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.PinPageLimit < 1 || c.PinPageLimit > 1000 {
		return fmt.Errorf("pin page limit must be within 1..1000, got %d", c.PinPageLimit)
	}
	if c.ChainCheckInterval <= 0 {
		return fmt.Errorf("chain check interval must be positive, got %s", c.ChainCheckInterval)
	}
	return nil
}

// ResolvePaths expands a leading "~" in the keystore and password file paths.
func (c *Config) ResolvePaths() error {
	for _, p := range []*string{&c.KeystoreDir, &c.PasswordFile} {
		expanded, err := filex.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment (including a .env file in the working directory), the JSON
// file named by -c/-config and finally command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotEnv(".env")
	parseEnv(cfg, os.LookupEnv)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
