package memory

import (
	"context"
	"sync"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/paperledger/paperledger/internal/storage"
)

// Store is an in-memory implementation of storage.BalanceStore, used by tests
// and single-process runs without a database.
//
// Each account gets its own mutex so mutations for different accounts never
// block each other, while mutations for the same account serialize.
type Store struct {
	mu      sync.Mutex // protects entries and locks maps
	entries map[string]entity.LedgerEntry
	locks   map[string]*sync.Mutex
}

// NewStore creates an empty in-memory balance store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entity.LedgerEntry),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

// Get returns the stored entry or the seeded defaults without persisting them.
func (s *Store) Get(ctx context.Context, accountID string) (entity.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[accountID]
	if !ok {
		return storage.SeedEntry(accountID), nil
	}
	return entry, nil
}

// ApplyMutation serializes mutations per account and persists the result of
// fn. A failed fn leaves the stored entry untouched.
func (s *Store) ApplyMutation(ctx context.Context, accountID string, fn storage.MutationFunc) (entity.LedgerEntry, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return entity.LedgerEntry{}, err
	}

	current, err := s.Get(ctx, accountID)
	if err != nil {
		return entity.LedgerEntry{}, err
	}

	updated, err := fn(current)
	if err != nil {
		return entity.LedgerEntry{}, err
	}
	updated.AccountID = accountID

	s.mu.Lock()
	s.entries[accountID] = updated
	s.mu.Unlock()

	return updated, nil
}

var _ storage.BalanceStore = (*Store)(nil)
