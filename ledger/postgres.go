package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	berr "github.com/next-trace/scg-ledger-bus/contract/errors"
	cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"
)

// PostgresStore persists accounts in a single table:
//
//	CREATE TABLE accounts (id TEXT PRIMARY KEY, balance BIGINT NOT NULL);
//
// The compare-and-set rides on a conditional UPDATE, so no explicit row lock
// is required.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore { return &PostgresStore{db: db} }

var _ cledger.Store = (*PostgresStore)(nil)

func (s *PostgresStore) Load(ctx context.Context, id cledger.AccountID) (cledger.Account, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, string(id)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return cledger.Account{}, berr.ErrAccountNotFound
	}

	if err != nil {
		return cledger.Account{}, fmt.Errorf("postgres load %s: %w", id, err)
	}

	return cledger.Account{ID: id, Balance: cledger.Balance(balance)}, nil
}

func (s *PostgresStore) Replace(ctx context.Context, id cledger.AccountID, expected, next cledger.Balance) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2 AND balance = $3`,
		int64(next), string(id), int64(expected),
	)
	if err != nil {
		return fmt.Errorf("postgres replace %s: %w", id, err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	// zero rows: either the account is gone or the balance moved under us
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
		return fmt.Errorf("postgres replace %s: %w", id, err)
	}

	if !exists {
		return berr.ErrAccountNotFound
	}

	return berr.ErrBalanceConflict
}

// Seed upserts the given balances. Intended for wiring and tests, not for the
// command path.
func (s *PostgresStore) Seed(ctx context.Context, seed map[cledger.AccountID]cledger.Balance) error {
	for id, balance := range seed {
		_, err := s.db.Exec(ctx,
			`INSERT INTO accounts (id, balance) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance`,
			string(id), int64(balance),
		)
		if err != nil {
			return fmt.Errorf("postgres seed %s: %w", id, err)
		}
	}

	return nil
}
