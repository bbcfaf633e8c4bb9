// Package ledger writes flashcard and deck references to the FlashcardVault
// contract and reads them back by owner.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Registry is the ledger as seen by the flows.
type Registry interface {
	// RegisterFlashcard calls addFlashcard and waits for the receipt.
	RegisterFlashcard(ctx context.Context, question, answer, cid string) (*types.Receipt, error)
	// RegisterDeck calls createDeck and waits for the receipt.
	RegisterDeck(ctx context.Context, name, description string, flashcardCids []string, deckCid string) (*types.Receipt, error)

	FlashcardsByOwner(ctx context.Context, owner ethcommon.Address) ([]models.Flashcard, error)
	DecksByOwner(ctx context.Context, owner ethcommon.Address) ([]models.Deck, error)
	FlashcardCount(ctx context.Context) (uint64, error)
	DeckCount(ctx context.Context) (uint64, error)

	// Available checks that contract code exists at the bound address.
	Available(ctx context.Context) error
}

// Backend is what a contract binding needs from the chain connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// contract is the part of *bind.BoundContract the Ledger uses.
type contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

type Ledger struct {
	address   ethcommon.Address
	backend   Backend
	contract  contract
	signer    *bind.TransactOpts
	waitMined func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	log       logging.Logger
}

// New binds the vault at address. signer may be nil for a read-only handle.
func New(address ethcommon.Address, backend Backend, signer *bind.TransactOpts, log logging.Logger) *Ledger {
	return &Ledger{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, VaultABI, backend, backend, backend),
		signer:   signer,
		waitMined: func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
			return bind.WaitMined(ctx, backend, tx)
		},
		log: log,
	}
}

func (l *Ledger) Address() ethcommon.Address {
	return l.address
}

func (l *Ledger) Available(ctx context.Context) error {
	code, err := l.backend.CodeAt(ctx, l.address, nil)
	if err != nil {
		return classify("code at "+l.address.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: no code at %s", common.ErrContractUnavailable, l.address.Hex())
	}
	return nil
}

func (l *Ledger) transact(ctx context.Context, method string, params ...interface{}) (*types.Receipt, error) {
	if l.signer == nil {
		return nil, fmt.Errorf("%s: %w", method, common.ErrNotConnected)
	}
	opts := *l.signer
	opts.Context = ctx

	tx, err := l.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, classify(method, err)
	}
	l.log.Info(ctx, "transaction sent", "method", method, "tx", tx.Hash().Hex())
	NotifySubmitted(ctx, tx.Hash())

	receipt, err := l.waitMined(ctx, tx)
	if err != nil {
		return nil, classify(method+" receipt", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s: %w: transaction %s reverted", method, common.ErrContractUnavailable, tx.Hash().Hex())
	}
	l.log.Info(ctx, "transaction confirmed", "method", method, "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	return receipt, nil
}

func (l *Ledger) RegisterFlashcard(ctx context.Context, question, answer, cid string) (*types.Receipt, error) {
	return l.transact(ctx, methodAddFlashcard, question, answer, cid)
}

func (l *Ledger) RegisterDeck(ctx context.Context, name, description string, flashcardCids []string, deckCid string) (*types.Receipt, error) {
	if flashcardCids == nil {
		flashcardCids = []string{}
	}
	return l.transact(ctx, methodCreateDeck, name, description, flashcardCids, deckCid)
}

func (l *Ledger) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, classify(method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w: empty result", method, common.ErrContractUnavailable)
	}
	return out, nil
}

// Tuple layouts of the vault's getters. Field names follow the ABI
// component names so abi.ConvertType can copy into them.
type flashcardTuple struct {
	Question  string
	Answer    string
	Owner     ethcommon.Address
	Timestamp *big.Int
	IpfsCid   string
}

type deckTuple struct {
	Name          string
	Description   string
	FlashcardCids []string
	DeckCid       string
	Owner         ethcommon.Address
	Timestamp     *big.Int
}

func unixTime(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0)
}

func (l *Ledger) FlashcardsByOwner(ctx context.Context, owner ethcommon.Address) ([]models.Flashcard, error) {
	out, err := l.call(ctx, methodFlashcardsOf, owner)
	if err != nil {
		return nil, err
	}
	rows := *abi.ConvertType(out[0], new([]flashcardTuple)).(*[]flashcardTuple)

	cards := make([]models.Flashcard, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, models.Flashcard{
			Question:  r.Question,
			Answer:    r.Answer,
			Owner:     r.Owner.Hex(),
			Timestamp: unixTime(r.Timestamp),
			IpfsCid:   r.IpfsCid,
			Source:    models.SourceLedger,
		})
	}
	return cards, nil
}

func (l *Ledger) DecksByOwner(ctx context.Context, owner ethcommon.Address) ([]models.Deck, error) {
	out, err := l.call(ctx, methodDecksOf, owner)
	if err != nil {
		return nil, err
	}
	rows := *abi.ConvertType(out[0], new([]deckTuple)).(*[]deckTuple)

	decks := make([]models.Deck, 0, len(rows))
	for _, r := range rows {
		decks = append(decks, models.Deck{
			Name:          r.Name,
			Description:   r.Description,
			FlashcardCids: r.FlashcardCids,
			Timestamp:     unixTime(r.Timestamp),
			Owner:         r.Owner.Hex(),
			DeckCid:       r.DeckCid,
			Source:        models.SourceLedger,
		})
	}
	return decks, nil
}

func (l *Ledger) count(ctx context.Context, method string) (uint64, error) {
	out, err := l.call(ctx, method)
	if err != nil {
		return 0, err
	}
	n := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if n == nil || !n.IsUint64() {
		return 0, fmt.Errorf("%s: %w: count out of range", method, common.ErrUnknown)
	}
	return n.Uint64(), nil
}

func (l *Ledger) FlashcardCount(ctx context.Context) (uint64, error) {
	return l.count(ctx, methodFlashcardCount)
}

func (l *Ledger) DeckCount(ctx context.Context) (uint64, error) {
	return l.count(ctx, methodDeckCount)
}
