package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Artifact is the compiled contract as emitted by hardhat or foundry
// (only the fields deployment needs).
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.ABI) == 0 {
		return nil, errors.New("artifact has no abi")
	}
	if len(ethcommon.FromHex(a.Bytecode)) == 0 {
		return nil, errors.New("artifact has no bytecode")
	}
	return &a, nil
}

// Deploy sends the creation transaction and waits until the code is live.
func Deploy(ctx context.Context, backend Backend, signer *bind.TransactOpts, a *Artifact) (ethcommon.Address, *types.Transaction, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return ethcommon.Address{}, nil, fmt.Errorf("parse abi: %w", err)
	}
	opts := *signer
	opts.Context = ctx

	_, tx, _, err := bind.DeployContract(&opts, parsed, ethcommon.FromHex(a.Bytecode), backend)
	if err != nil {
		return ethcommon.Address{}, nil, classify("deploy", err)
	}
	addr, err := bind.WaitDeployed(ctx, backend, tx)
	if err != nil {
		return ethcommon.Address{}, tx, classify("wait deployed", err)
	}
	return addr, tx, nil
}
