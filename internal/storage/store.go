package storage

import (
	"context"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrConflict signals a lock or serialization conflict the store could
	// not resolve on its own. Callers may retry the mutation.
	ErrConflict = errors.New("storage: mutation conflict")
	// ErrStorage signals an infrastructure failure (connection, query, commit).
	ErrStorage = errors.New("storage: unavailable")
)

// SeedQuoteBalance is the quote balance every account starts with before its
// first persisted mutation.
var SeedQuoteBalance = decimal.NewFromInt(10000)

// SeedEntry returns the default ledger entry for an account that has never
// been written.
func SeedEntry(accountID string) entity.LedgerEntry {
	return entity.LedgerEntry{
		AccountID: accountID,
		Quote:     SeedQuoteBalance,
		Base:      decimal.Zero,
	}
}

// MutationFunc computes the next state of a ledger entry. Returning an error
// aborts the mutation; the stored entry stays untouched.
type MutationFunc func(entity.LedgerEntry) (entity.LedgerEntry, error)

// BalanceStore is the persistence contract for ledger entries.
//
// ApplyMutation must serialize concurrent mutations for the same account so
// that no mutation reads a balance another in-flight mutation is about to
// overwrite. Mutations for different accounts must not block each other.
type BalanceStore interface {
	// Get returns the current entry for the account, or the seeded defaults
	// when the account has never been written. It never fails merely because
	// initialization has not happened.
	Get(ctx context.Context, accountID string) (entity.LedgerEntry, error)
	// ApplyMutation runs fn under per-account mutual exclusion and persists
	// the entry it returns. On error nothing is persisted and the error is
	// returned unchanged (domain errors pass through).
	ApplyMutation(ctx context.Context, accountID string, fn MutationFunc) (entity.LedgerEntry, error)
}
