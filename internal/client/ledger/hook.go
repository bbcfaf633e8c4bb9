package ledger

import (
	"context"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

type submittedKey struct{}

// WithSubmitted returns a context under which a register call reports the
// transaction hash to fn once the node accepted it, before the receipt wait.
func WithSubmitted(ctx context.Context, fn func(tx ethcommon.Hash)) context.Context {
	return context.WithValue(ctx, submittedKey{}, fn)
}

// NotifySubmitted calls the hook installed by WithSubmitted, if any.
func NotifySubmitted(ctx context.Context, tx ethcommon.Hash) {
	if fn, ok := ctx.Value(submittedKey{}).(func(ethcommon.Hash)); ok && fn != nil {
		fn(tx)
	}
}
