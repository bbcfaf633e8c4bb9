package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/rpc"
)

// codeUserRejected is the EIP-1193 "user rejected request" code, reported by
// signing proxies in front of a node.
const codeUserRejected = 4001

// classify maps a wallet, RPC or contract failure to a sentinel of the shared
// taxonomy, keeping the original error in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kindOf(err), err)
}

func kindOf(err error) error {
	for _, known := range []error{
		common.ErrUserRejected, common.ErrInsufficientFunds, common.ErrContractUnavailable,
		common.ErrNotConnected, common.ErrNetwork,
	} {
		if errors.Is(err, known) {
			return known
		}
	}

	if errors.Is(err, keystore.ErrLocked) || errors.Is(err, keystore.ErrDecrypt) {
		return common.ErrUserRejected
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
		return common.ErrUserRejected
	}
	if errors.Is(err, bind.ErrNoCode) {
		return common.ErrContractUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return common.ErrUserRejected
	case strings.Contains(msg, "insufficient funds"):
		return common.ErrInsufficientFunds
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "method not found"),
		strings.Contains(msg, "no contract code"):
		return common.ErrContractUnavailable
	}

	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.ErrNetwork
	}
	return common.ErrUnknown
}
