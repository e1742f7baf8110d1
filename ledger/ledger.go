package ledger

import (
	"context"

	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// Ledger is the authoritative balance view over an injected Store. The Ledger
// does no arithmetic: callers compute the next balance from one they read and
// hand both back, which is what makes UpdateBalance a compare-and-set.
type Ledger struct {
	store cledger.Store
}

// New constructs a Ledger over the given store.
func New(store cledger.Store) *Ledger { return &Ledger{store: store} }

// GetBalance returns the current balance for id, or errors.ErrAccountNotFound.
// It is side-effect free and repeatable.
func (l *Ledger) GetBalance(ctx context.Context, id cledger.AccountID) (cledger.Balance, error) {
	acc, err := l.store.Load(ctx, id)
	if err != nil {
		return 0, err
	}

	return acc.Balance, nil
}

// UpdateBalance replaces the stored balance with next, provided it still
// equals expected. A concurrent writer that got there first surfaces as
// errors.ErrBalanceConflict; callers re-read and retry.
func (l *Ledger) UpdateBalance(ctx context.Context, id cledger.AccountID, expected, next cledger.Balance) error {
	return l.store.Replace(ctx, id, expected, next)
}
