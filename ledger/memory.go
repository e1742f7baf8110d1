package ledger

import (
	"context"
	"sync"
	"time"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// MemoryStore is a concurrency-safe in-memory store. The zero latency makes it
// the store of choice for unit tests; WithLatency reproduces a slow backing
// store so that concurrent commands actually interleave.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[cledger.AccountID]cledger.Account
	latency  time.Duration
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithLatency makes every store operation sleep for d before touching state,
// modeling backing-store I/O.
func WithLatency(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.latency = d }
}

// NewMemoryStore creates a store seeded with the given balances.
func NewMemoryStore(seed map[cledger.AccountID]cledger.Balance, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{accounts: make(map[cledger.AccountID]cledger.Account, len(seed))}
	for id, balance := range seed {
		s.accounts[id] = cledger.Account{ID: id, Balance: balance}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var _ cledger.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Load(ctx context.Context, id cledger.AccountID) (cledger.Account, error) {
	if err := s.wait(ctx); err != nil {
		return cledger.Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return cledger.Account{}, berr.ErrAccountNotFound
	}

	return acc, nil
}

func (s *MemoryStore) Replace(ctx context.Context, id cledger.AccountID, expected, next cledger.Balance) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return berr.ErrAccountNotFound
	}

	if acc.Balance != expected {
		return berr.ErrBalanceConflict
	}

	// whole-snapshot replacement
	s.accounts[id] = cledger.Account{ID: id, Balance: next}

	return nil
}

func (s *MemoryStore) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(s.latency)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
