package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/logging"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"
)

// KeyConnected is the metadata key of the reconnect flag.
const KeyConnected = "wallet_connected"

// Session is a snapshot of the wallet connection.
type Session struct {
	Account   ethcommon.Address
	Connected bool
	Loading   bool
	Backend   Backend
	Signer    *bind.TransactOpts
	Ledger    ledger.Registry
}

// Owner is the connected account in checksum form, or "" when disconnected.
func (s Session) Owner() string {
	if !s.Connected {
		return ""
	}
	return s.Account.Hex()
}

// BindFunc builds the contract handle for a connected session.
type BindFunc func(address ethcommon.Address, backend Backend, signer *bind.TransactOpts) ledger.Registry

// Manager keeps the single wallet session of the client.
type Manager struct {
	provider Provider
	meta     metadata.Repository
	contract string
	bind     BindFunc
	log      logging.Logger

	flight singleflight.Group

	mu      sync.RWMutex
	session Session
}

func NewManager(provider Provider, meta metadata.Repository, contractAddress string, log logging.Logger) *Manager {
	m := &Manager{
		provider: provider,
		meta:     meta,
		contract: contractAddress,
		log:      log,
		session:  Session{Loading: true},
	}
	m.bind = func(address ethcommon.Address, backend Backend, signer *bind.TransactOpts) ledger.Registry {
		return ledger.New(address, backend, signer, m.log)
	}
	return m
}

// WithBind replaces the contract handle constructor.
func (m *Manager) WithBind(fn BindFunc) *Manager {
	m.bind = fn
	return m
}

func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *Manager) setSession(s Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.session.Loading = v
	m.mu.Unlock()
}

func (m *Manager) contractAddress() (ethcommon.Address, error) {
	if m.contract == "" {
		return ethcommon.Address{}, fmt.Errorf("%w: contract address is not set", common.ErrConfiguration)
	}
	if !ethcommon.IsHexAddress(m.contract) {
		return ethcommon.Address{}, fmt.Errorf("%w: invalid contract address %q", common.ErrConfiguration, m.contract)
	}
	return ethcommon.HexToAddress(m.contract), nil
}

// Connect asks the provider for account access and binds the contract.
// Concurrent calls share one attempt and its outcome.
func (m *Manager) Connect(ctx context.Context) error {
	_, err, _ := m.flight.Do("connect", func() (any, error) {
		addr, err := m.contractAddress()
		if err != nil {
			return nil, err
		}
		accts, err := m.provider.RequestAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("request accounts: %w", err)
		}
		if len(accts) == 0 {
			return nil, fmt.Errorf("request accounts: %w: no account authorized", common.ErrNotConnected)
		}
		return nil, m.establish(ctx, addr, accts[0])
	})
	if err != nil {
		m.log.Warn(ctx, "wallet connect failed", "error", err)
	}
	return err
}

// establish builds backend, signer and contract handle for account and
// stores the connected session together with the reconnect flag.
func (m *Manager) establish(ctx context.Context, contract, account ethcommon.Address) error {
	backend, err := m.provider.Backend(ctx)
	if err != nil {
		return err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: chain id: %w", common.ErrNetwork, err)
	}
	signer, err := m.provider.Transactor(ctx, account, chainID)
	if err != nil {
		return err
	}

	m.setSession(Session{
		Account:   account,
		Connected: true,
		Backend:   backend,
		Signer:    signer,
		Ledger:    m.bind(contract, backend, signer),
	})
	if err := m.meta.Set(ctx, KeyConnected, "true"); err != nil {
		m.log.Warn(ctx, "persist reconnect flag", "error", err)
	}
	m.log.Info(ctx, "wallet connected", "account", account.Hex(), "chain", chainID.String())
	return nil
}

// Disconnect drops the session and the reconnect flag. It makes no remote
// call and is safe to repeat.
func (m *Manager) Disconnect(ctx context.Context) {
	m.setSession(Session{})
	if err := m.meta.Delete(ctx, KeyConnected); err != nil {
		m.log.Warn(ctx, "clear reconnect flag", "error", err)
	}
}

// Init restores a previous session without prompting. Loading is cleared on
// every path.
func (m *Manager) Init(ctx context.Context) {
	m.setLoading(true)
	defer m.setLoading(false)

	v, ok, err := m.meta.Get(ctx, KeyConnected)
	if err != nil {
		m.log.Warn(ctx, "read reconnect flag", "error", err)
		return
	}
	if !ok || v != "true" {
		return
	}

	accts, err := m.provider.Accounts(ctx)
	if err != nil {
		m.log.Warn(ctx, "silent reconnect failed", "error", err)
		m.forget(ctx)
		return
	}
	if len(accts) == 0 {
		m.setSession(Session{Loading: true})
		return
	}
	m.reconnect(ctx, accts[0])
}

func (m *Manager) reconnect(ctx context.Context, account ethcommon.Address) {
	addr, err := m.contractAddress()
	if err == nil {
		err = m.establish(ctx, addr, account)
	}
	if err != nil {
		m.log.Warn(ctx, "silent reconnect failed", "account", account.Hex(), "error", err)
		m.setSession(Session{Loading: m.Session().Loading})
		m.forget(ctx)
	}
}

func (m *Manager) forget(ctx context.Context) {
	if err := m.meta.Delete(ctx, KeyConnected); err != nil {
		m.log.Warn(ctx, "clear reconnect flag", "error", err)
	}
}

// Watch applies provider events to the session until ctx is done.
func (m *Manager) Watch(ctx context.Context) {
	for ev := range m.provider.Events(ctx) {
		m.log.Debug(ctx, "wallet event", "kind", ev.Kind.String())
		m.handle(ctx, ev)
	}
}

func (m *Manager) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case AccountsChanged:
		if len(ev.Accounts) == 0 {
			m.Disconnect(ctx)
			return
		}
		if cur := m.Session(); cur.Connected && cur.Account == ev.Accounts[0] {
			return
		}
		m.reconnect(ctx, ev.Accounts[0])

	case ChainChanged:
		m.log.Info(ctx, "chain changed, reloading session", "chain", ev.ChainID)
		m.setSession(Session{})
		m.Init(ctx)
	}
}

// RequireConnected returns the session or common.ErrNotConnected.
func (m *Manager) RequireConnected() (Session, error) {
	s := m.Session()
	if !s.Connected || s.Ledger == nil {
		return s, common.ErrNotConnected
	}
	return s, nil
}
