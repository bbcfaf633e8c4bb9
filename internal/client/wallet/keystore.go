package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const defaultChainPoll = 15 * time.Second

type KeystoreConfig struct {
	Dir          string
	Account      string // hex address; empty selects the first key in Dir
	PasswordFile string
	RPCURL       string
	ChainPoll    time.Duration

	// Light scrypt parameters are only useful in tests.
	ScryptN, ScryptP int

	Prompt PromptFunc
	Dial   func(ctx context.Context, url string) (Backend, error)
}

// KeystoreProvider is a Provider over a go-ethereum encrypted keystore
// directory and an RPC endpoint.
type KeystoreProvider struct {
	cfg KeystoreConfig
	ks  *keystore.KeyStore
	log logging.Logger

	mu         sync.Mutex
	authorized []ethcommon.Address
	backend    Backend
}

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

func NewKeystoreProvider(cfg KeystoreConfig, log logging.Logger) *KeystoreProvider {
	if cfg.ScryptN == 0 {
		cfg.ScryptN, cfg.ScryptP = keystore.StandardScryptN, keystore.StandardScryptP
	}
	if cfg.ChainPoll <= 0 {
		cfg.ChainPoll = defaultChainPoll
	}
	if cfg.Prompt == nil {
		cfg.Prompt = TerminalPrompt
	}
	if cfg.Dial == nil {
		cfg.Dial = dialEthclient
	}
	return &KeystoreProvider{
		cfg: cfg,
		ks:  keystore.NewKeyStore(cfg.Dir, cfg.ScryptN, cfg.ScryptP),
		log: log,
	}
}

// KeyStore exposes the underlying store, e.g. for deployment signing.
func (p *KeystoreProvider) KeyStore() *keystore.KeyStore {
	return p.ks
}

func (p *KeystoreProvider) selectAccount() (accounts.Account, error) {
	if p.cfg.Account != "" {
		if !ethcommon.IsHexAddress(p.cfg.Account) {
			return accounts.Account{}, fmt.Errorf("%w: invalid account address %q", common.ErrConfiguration, p.cfg.Account)
		}
		acct, err := p.ks.Find(accounts.Account{Address: ethcommon.HexToAddress(p.cfg.Account)})
		if err != nil {
			return accounts.Account{}, fmt.Errorf("%w: account %s: %w", common.ErrNotConnected, p.cfg.Account, err)
		}
		return acct, nil
	}
	all := p.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, fmt.Errorf("%w: no keys in %s", common.ErrNotConnected, p.cfg.Dir)
	}
	return all[0], nil
}

func (p *KeystoreProvider) unlock(acct accounts.Account, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("%w: empty passphrase", common.ErrUserRejected)
	}
	if err := p.ks.Unlock(acct, passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return fmt.Errorf("%w: %w", common.ErrUserRejected, err)
		}
		return fmt.Errorf("unlock %s: %w", acct.Address.Hex(), err)
	}

	p.mu.Lock()
	if !slices.Contains(p.authorized, acct.Address) {
		p.authorized = append(p.authorized, acct.Address)
	}
	p.mu.Unlock()
	return nil
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	acct, err := p.selectAccount()
	if err != nil {
		return nil, err
	}

	var passphrase string
	if p.cfg.PasswordFile != "" {
		passphrase, err = readPasswordFile(p.cfg.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("%w: password file: %w", common.ErrConfiguration, err)
		}
	} else {
		passphrase, err = p.cfg.Prompt(fmt.Sprintf("Passphrase for %s: ", acct.Address.Hex()))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrUserRejected, err)
		}
	}

	if err := p.unlock(acct, passphrase); err != nil {
		return nil, err
	}
	return p.current(), nil
}

func (p *KeystoreProvider) current() []ethcommon.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.authorized)
}

// Accounts returns accounts unlocked by this process. With a password file
// configured the selected account is unlocked silently; the prompt is never
// used here.
func (p *KeystoreProvider) Accounts(ctx context.Context) ([]ethcommon.Address, error) {
	if got := p.current(); len(got) > 0 || p.cfg.PasswordFile == "" {
		return got, nil
	}

	acct, err := p.selectAccount()
	if errors.Is(err, common.ErrNotConnected) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	passphrase, err := readPasswordFile(p.cfg.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("%w: password file: %w", common.ErrConfiguration, err)
	}
	if err := p.unlock(acct, passphrase); err != nil {
		return nil, err
	}
	return p.current(), nil
}

func (p *KeystoreProvider) Backend(ctx context.Context) (Backend, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.backend != nil {
		return p.backend, nil
	}
	if p.cfg.RPCURL == "" {
		return nil, fmt.Errorf("%w: rpc url is not set", common.ErrConfiguration)
	}
	b, err := p.cfg.Dial(ctx, p.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", common.ErrNetwork, p.cfg.RPCURL, err)
	}
	p.backend = b
	return b, nil
}

func (p *KeystoreProvider) Transactor(ctx context.Context, account ethcommon.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: account}, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	return opts, nil
}

// Events reports dropped key files of authorized accounts as AccountsChanged
// and a changed chain id of the RPC endpoint as ChainChanged.
func (p *KeystoreProvider) Events(ctx context.Context) <-chan Event {
	out := make(chan Event)
	walletEvents := make(chan accounts.WalletEvent, 8)
	sub := p.ks.Subscribe(walletEvents)

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		ticker := time.NewTicker(p.cfg.ChainPoll)
		defer ticker.Stop()

		var lastChain *big.Int
		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev := <-walletEvents:
				if ev.Kind != accounts.WalletDropped || !p.drop(ev.Wallet.Accounts()) {
					continue
				}
				if !emit(Event{Kind: AccountsChanged, Accounts: p.current()}) {
					return
				}

			case <-ticker.C:
				id, err := p.chainID(ctx)
				if err != nil {
					p.log.Debug(ctx, "chain id poll failed", "error", err)
					continue
				}
				changed := lastChain != nil && lastChain.Cmp(id) != 0
				lastChain = id
				if changed && !emit(Event{Kind: ChainChanged, ChainID: id}) {
					return
				}

			case err := <-sub.Err():
				if err != nil {
					p.log.Warn(ctx, "keystore subscription ended", "error", err)
				}
				return
			}
		}
	}()
	return out
}

func (p *KeystoreProvider) chainID(ctx context.Context) (*big.Int, error) {
	b, err := p.Backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.ChainID(ctx)
}

// drop forgets the given accounts and reports whether any was authorized.
func (p *KeystoreProvider) drop(gone []accounts.Account) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.authorized)
	p.authorized = slices.DeleteFunc(p.authorized, func(a ethcommon.Address) bool {
		return slices.ContainsFunc(gone, func(g accounts.Account) bool { return g.Address == a })
	})
	return len(p.authorized) != before
}

// Close releases the RPC connection.
func (p *KeystoreProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Close()
		p.backend = nil
	}
}
