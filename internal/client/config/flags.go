package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/flagx"
)

var knownFlags = []string{
	"-d", "-rpc", "-contract", "-keystore", "-account", "-password-file",
	"-storage", "-gateway", "-t", "-log", "-log-level",
}

// parseFlags populates Config fields from command-line flags.
//
//	-d string              data directory (local database)
//	-rpc string            Ethereum JSON-RPC endpoint
//	-contract string       FlashcardVault contract address
//	-keystore string       keystore directory
//	-account string        account address to unlock
//	-password-file string  file holding the keystore passphrase
//	-storage string        pinata or s3
//	-gateway string        IPFS gateway base URL
//	-t int                 gateway fetch timeout (in seconds)
//	-log string            slog or zap
//	-log-level string      debug, info, warn or error
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and any
// unknown flags are left alone.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.RPCURL, "rpc", cfg.RPCURL, "Ethereum JSON-RPC endpoint")
	fs.StringVar(&cfg.ContractAddress, "contract", cfg.ContractAddress, "FlashcardVault contract address")
	fs.StringVar(&cfg.KeystoreDir, "keystore", cfg.KeystoreDir, "keystore directory")
	fs.StringVar(&cfg.Account, "account", cfg.Account, "account address to unlock")
	fs.StringVar(&cfg.PasswordFile, "password-file", cfg.PasswordFile, "file holding the keystore passphrase")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "content storage backend (pinata|s3)")
	fs.StringVar(&cfg.GatewayURL, "gateway", cfg.GatewayURL, "IPFS gateway base URL")
	fetchTimeout := fs.Int("t", int(cfg.FetchTimeout.Seconds()), "gateway fetch timeout (in seconds)")
	fs.StringVar(&cfg.LogBackend, "log", cfg.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only an explicit -t overrides the timeout; seconds would truncate
	// sub-second values loaded earlier.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
		}
	})
}
