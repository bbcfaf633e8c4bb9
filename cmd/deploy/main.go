// Command deploy publishes the FlashcardVault contract from a compiled
// artifact using the configured keystore account, then prints its address.
//
//	deploy -artifact FlashcardVault.json -rpc http://127.0.0.1:8545
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/flashvault/internal/buildinfo"
	"github.com/dmitrijs2005/flashvault/internal/client/config"
	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/wallet"
	"github.com/dmitrijs2005/flashvault/internal/flagx"
	"github.com/dmitrijs2005/flashvault/internal/logging"
)

func artifactPath(args []string) string {
	var path string
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "artifact", "FlashcardVault.json", "compiled contract artifact (abi + bytecode)")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-artifact", "--artifact"}))
	return path
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.ResolvePaths(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	artifact, err := ledger.LoadArtifact(artifactPath(os.Args[1:]))
	if err != nil {
		return err
	}

	provider := wallet.NewKeystoreProvider(wallet.KeystoreConfig{
		Dir:          cfg.KeystoreDir,
		Account:      cfg.Account,
		PasswordFile: cfg.PasswordFile,
		RPCURL:       cfg.RPCURL,
	}, logger.With("component", "wallet"))
	defer provider.Close()

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		return err
	}
	backend, err := provider.Backend(ctx)
	if err != nil {
		return err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	signer, err := provider.Transactor(ctx, accounts[0], chainID)
	if err != nil {
		return err
	}

	logger.Info(ctx, "deploying contract", "name", artifact.ContractName, "from", accounts[0].Hex(), "chain", chainID)
	addr, tx, err := ledger.Deploy(ctx, backend, signer, artifact)
	if err != nil {
		return err
	}
	logger.Info(ctx, "contract deployed", "address", addr.Hex(), "tx", tx.Hash().Hex())

	fmt.Println(addr.Hex())
	return nil
}

func main() {
	buildinfo.PrintBuildData(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
