package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/paperledger/paperledger/internal/entity"
	"github.com/paperledger/paperledger/internal/storage"
	"github.com/pkg/errors"
)

// Store is a Postgres-backed implementation of storage.BalanceStore.
//
// Mutations run inside a repeatable-read transaction holding a row lock
// (SELECT ... FOR UPDATE) on the account's entry, so concurrent mutations for
// the same account serialize at the database while different accounts proceed
// independently.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the ledger table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS ledger_entries (
		account_id    text PRIMARY KEY,
		quote_balance numeric(32, 12) NOT NULL CHECK (quote_balance >= 0),
		base_balance  numeric(32, 12) NOT NULL CHECK (base_balance >= 0),
		updated_at    timestamptz NOT NULL
	)`

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(storage.ErrStorage, err.Error())
	}
	return nil
}

// Get returns the current entry, or the seeded defaults when no row exists.
// Defaults are not persisted by a read.
func (s *Store) Get(ctx context.Context, accountID string) (entity.LedgerEntry, error) {
	const query = `SELECT account_id, quote_balance, base_balance, updated_at
		FROM ledger_entries WHERE account_id = $1`

	var entry entity.LedgerEntry
	err := s.db.QueryRowContext(ctx, query, accountID).
		Scan(&entry.AccountID, &entry.Quote, &entry.Base, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SeedEntry(accountID), nil
	}
	if err != nil {
		return entity.LedgerEntry{}, errors.Wrap(storage.ErrStorage, err.Error())
	}
	return entry, nil
}

// ApplyMutation executes fn inside a row-locked transaction and upserts the
// entry fn returns. Any error from fn aborts the transaction and passes
// through unchanged; infrastructure failures map to ErrStorage or ErrConflict.
func (s *Store) ApplyMutation(ctx context.Context, accountID string, fn storage.MutationFunc) (entity.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return entity.LedgerEntry{}, errors.Wrap(storage.ErrStorage, err.Error())
	}
	// rollback is a no-op after a successful commit
	defer tx.Rollback()

	const lockQuery = `SELECT account_id, quote_balance, base_balance, updated_at
		FROM ledger_entries WHERE account_id = $1 FOR UPDATE`

	current := storage.SeedEntry(accountID)
	err = tx.QueryRowContext(ctx, lockQuery, accountID).
		Scan(&current.AccountID, &current.Quote, &current.Base, &current.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return entity.LedgerEntry{}, classify(err)
	}

	updated, err := fn(current)
	if err != nil {
		return entity.LedgerEntry{}, err
	}
	updated.AccountID = accountID

	const upsert = `INSERT INTO ledger_entries (account_id, quote_balance, base_balance, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET quote_balance = EXCLUDED.quote_balance,
		    base_balance  = EXCLUDED.base_balance,
		    updated_at    = EXCLUDED.updated_at`

	if _, err := tx.ExecContext(ctx, upsert, updated.AccountID, updated.Quote, updated.Base, updated.UpdatedAt); err != nil {
		return entity.LedgerEntry{}, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return entity.LedgerEntry{}, classify(err)
	}
	return updated, nil
}

// classify maps pq serialization and lock failures to ErrConflict so callers
// can retry; everything else is an ErrStorage.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03": // serialization failure, deadlock, lock not available
			return errors.Wrap(storage.ErrConflict, err.Error())
		}
	}
	return errors.Wrap(storage.ErrStorage, err.Error())
}

var _ storage.BalanceStore = (*Store)(nil)
