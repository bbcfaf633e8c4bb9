// Package wallet owns the connection between the client and a wallet
// provider: the authorized account, the chain backend, the signer and the
// contract binding built from them.
package wallet

import (
	"context"
	"math/big"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Backend is a chain connection. *ethclient.Client satisfies it.
type Backend interface {
	ledger.Backend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

type EventKind int

const (
	AccountsChanged EventKind = iota + 1
	ChainChanged
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is a provider notification. Accounts is set for AccountsChanged,
// ChainID for ChainChanged.
type Event struct {
	Kind     EventKind
	Accounts []ethcommon.Address
	ChainID  *big.Int
}

// Provider is a wallet that can authorize accounts and sign transactions.
type Provider interface {
	// RequestAccounts authorizes accounts and may prompt the user.
	RequestAccounts(ctx context.Context) ([]ethcommon.Address, error)

	// Accounts lists already authorized accounts. It never prompts.
	Accounts(ctx context.Context) ([]ethcommon.Address, error)

	Backend(ctx context.Context) (Backend, error)

	Transactor(ctx context.Context, account ethcommon.Address, chainID *big.Int) (*bind.TransactOpts, error)

	// Events delivers notifications until ctx is done, then closes the channel.
	Events(ctx context.Context) <-chan Event
}
