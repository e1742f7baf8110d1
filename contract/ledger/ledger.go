package ledger

import "context"

// AccountID identifies an account. Opaque and immutable once created.
type AccountID string

// Balance is a signed amount. Negative values are rejected by business rules,
// never by the type itself.
type Balance int64

// Account is an immutable snapshot of an account's state. Stores replace the
// whole snapshot on every update; no partial mutation.
type Account struct {
	ID      AccountID
	Balance Balance
}

// Store is the backing storage a ledger reads and writes accounts through.
// Implementations may block to model I/O, but every operation is atomic from
// the caller's perspective: no reader ever observes a half-written account.
//
// Replace is a compare-and-set: it only applies when the stored balance still
// equals expected, and fails with errors.ErrBalanceConflict otherwise. Callers
// that lost the race re-read and retry.
type Store interface {
	// Load returns the account snapshot for id, or errors.ErrAccountNotFound.
	Load(ctx context.Context, id AccountID) (Account, error)

	// Replace swaps the stored balance from expected to next.
	// Returns errors.ErrAccountNotFound or errors.ErrBalanceConflict.
	Replace(ctx context.Context, id AccountID, expected, next Balance) error
}
