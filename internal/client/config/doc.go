// Package config loads runtime configuration for the FlashVault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a .env file in the working directory is exported first
//     (existing variables win), then FLASHVAULT_* variables are read. The
//     Pinata credential is also accepted as PINATA_JWT and the contract
//     address as CONTRACT_ADDRESS.
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "5s" or integer
// nanoseconds:
//
//	{
//	  "rpc_url": "http://127.0.0.1:8545",
//	  "contract_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//	  "keystore_dir": "~/.flashvault/keystore",
//	  "storage_backend": "pinata",
//	  "pinata_jwt": "eyJ...",
//	  "fetch_timeout": "5s",
//	  "chain_check_interval": "5s"
//	}
//
// Secrets (Pinata JWT, S3 keys) are better kept in the environment than in
// the JSON file.
package config
