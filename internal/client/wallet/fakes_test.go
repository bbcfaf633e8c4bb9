package wallet

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/flashvault/internal/client/ledger"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/metadata"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type fakeMeta struct {
	metadata.Repository
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newFakeMeta() *fakeMeta { return &fakeMeta{values: map[string]string{}} }

func (f *fakeMeta) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeMeta) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeMeta) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

type fakeBackend struct {
	Backend
	chain  atomic.Int64
	closed atomic.Bool
}

func newFakeBackend(chain int64) *fakeBackend {
	b := &fakeBackend{}
	b.chain.Store(chain)
	return b
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(b.chain.Load()), nil
}

func (b *fakeBackend) Close() { b.closed.Store(true) }

type fakeProvider struct {
	mu           sync.Mutex
	requested    int
	listed       int
	accounts     []ethcommon.Address
	requestErr   error
	listErr      error
	requestGate  chan struct{}
	requestEnter chan struct{}
	backend      *fakeBackend
	events       chan Event
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	p.mu.Lock()
	p.requested++
	p.mu.Unlock()
	if p.requestEnter != nil {
		p.requestEnter <- struct{}{}
	}
	if p.requestGate != nil {
		<-p.requestGate
	}
	return p.accounts, p.requestErr
}

func (p *fakeProvider) Accounts(context.Context) ([]ethcommon.Address, error) {
	p.mu.Lock()
	p.listed++
	p.mu.Unlock()
	return p.accounts, p.listErr
}

func (p *fakeProvider) Backend(context.Context) (Backend, error) {
	return p.backend, nil
}

func (p *fakeProvider) Transactor(_ context.Context, account ethcommon.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: account}, nil
}

func (p *fakeProvider) Events(context.Context) <-chan Event {
	return p.events
}

func (p *fakeProvider) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requested, p.listed
}

type fakeRegistry struct {
	ledger.Registry
	address ethcommon.Address
}

func fakeBind(address ethcommon.Address, _ Backend, _ *bind.TransactOpts) ledger.Registry {
	return &fakeRegistry{address: address}
}
