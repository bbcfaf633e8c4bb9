package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/flashvault/internal/flagx"
	"github.com/dmitrijs2005/flashvault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from "zero", so a partial file only overrides what it names.
type JsonConfig struct {
	DataDir            *string         `json:"data_dir"`
	RPCURL             *string         `json:"rpc_url"`
	ContractAddress    *string         `json:"contract_address"`
	KeystoreDir        *string         `json:"keystore_dir"`
	Account            *string         `json:"account"`
	PasswordFile       *string         `json:"password_file"`
	ChainCheckInterval *timex.Duration `json:"chain_check_interval"`

	StorageBackend *string         `json:"storage_backend"`
	PinataJWT      *string         `json:"pinata_jwt"`
	PinataAPIURL   *string         `json:"pinata_api_url"`
	GatewayURL     *string         `json:"gateway_url"`
	FetchTimeout   *timex.Duration `json:"fetch_timeout"`
	PinPageLimit   *int            `json:"pin_page_limit"`

	S3Bucket    *string `json:"s3_bucket"`
	S3Region    *string `json:"s3_region"`
	S3Endpoint  *string `json:"s3_endpoint"`
	S3AccessKey *string `json:"s3_access_key"`
	S3SecretKey *string `json:"s3_secret_key"`

	LogBackend *string `json:"log_backend"`
	LogLevel   *string `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// It panics on read or decode errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&cfg.DataDir, jc.DataDir)
	setStr(&cfg.RPCURL, jc.RPCURL)
	setStr(&cfg.ContractAddress, jc.ContractAddress)
	setStr(&cfg.KeystoreDir, jc.KeystoreDir)
	setStr(&cfg.Account, jc.Account)
	setStr(&cfg.PasswordFile, jc.PasswordFile)
	if jc.ChainCheckInterval != nil {
		cfg.ChainCheckInterval = jc.ChainCheckInterval.Duration
	}

	setStr(&cfg.StorageBackend, jc.StorageBackend)
	setStr(&cfg.PinataJWT, jc.PinataJWT)
	setStr(&cfg.PinataAPIURL, jc.PinataAPIURL)
	setStr(&cfg.GatewayURL, jc.GatewayURL)
	if jc.FetchTimeout != nil {
		cfg.FetchTimeout = jc.FetchTimeout.Duration
	}
	if jc.PinPageLimit != nil {
		cfg.PinPageLimit = *jc.PinPageLimit
	}

	setStr(&cfg.S3Bucket, jc.S3Bucket)
	setStr(&cfg.S3Region, jc.S3Region)
	setStr(&cfg.S3Endpoint, jc.S3Endpoint)
	setStr(&cfg.S3AccessKey, jc.S3AccessKey)
	setStr(&cfg.S3SecretKey, jc.S3SecretKey)

	setStr(&cfg.LogBackend, jc.LogBackend)
	setStr(&cfg.LogLevel, jc.LogLevel)
}
