package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// without overriding what is already set. A missing file is not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

type lookupFunc func(key string) (string, bool)

// parseEnv overlays cfg with environment variables. For each field the first
// variable that is set wins, so FLASHVAULT_* names take precedence over the
// bare names shared with other Pinata tooling.
func parseEnv(cfg *Config, lookup lookupFunc) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	secs := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str(&cfg.DataDir, "FLASHVAULT_DATA_DIR")
	str(&cfg.RPCURL, "FLASHVAULT_RPC_URL", "ETH_RPC_URL")
	str(&cfg.ContractAddress, "FLASHVAULT_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")
	str(&cfg.KeystoreDir, "FLASHVAULT_KEYSTORE_DIR")
	str(&cfg.Account, "FLASHVAULT_ACCOUNT")
	str(&cfg.PasswordFile, "FLASHVAULT_PASSWORD_FILE")
	secs(&cfg.ChainCheckInterval, "FLASHVAULT_CHAIN_CHECK_INTERVAL")

	str(&cfg.StorageBackend, "FLASHVAULT_STORAGE")
	str(&cfg.PinataJWT, "FLASHVAULT_PINATA_JWT", "PINATA_JWT")
	str(&cfg.PinataAPIURL, "FLASHVAULT_PINATA_API_URL")
	str(&cfg.GatewayURL, "FLASHVAULT_GATEWAY_URL", "PINATA_GATEWAY_URL")
	secs(&cfg.FetchTimeout, "FLASHVAULT_FETCH_TIMEOUT")
	if v, ok := lookup("FLASHVAULT_PIN_PAGE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		cfg.PinPageLimit = n
	}

	str(&cfg.S3Bucket, "FLASHVAULT_S3_BUCKET")
	str(&cfg.S3Region, "FLASHVAULT_S3_REGION")
	str(&cfg.S3Endpoint, "FLASHVAULT_S3_ENDPOINT")
	str(&cfg.S3AccessKey, "FLASHVAULT_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	str(&cfg.S3SecretKey, "FLASHVAULT_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")

	str(&cfg.LogBackend, "FLASHVAULT_LOG_BACKEND")
	str(&cfg.LogLevel, "FLASHVAULT_LOG_LEVEL")
}
