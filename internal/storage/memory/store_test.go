package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get_ReturnsSeedWithoutPersisting(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	entry, err := store.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, entry.Quote.Equal(decimal.NewFromInt(10000)))
	assert.True(t, entry.Base.Equal(decimal.Zero))

	// the read must not have written anything
	store.mu.Lock()
	_, persisted := store.entries["acc-1"]
	store.mu.Unlock()
	assert.False(t, persisted)
}

func TestStore_ApplyMutation_Persists(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	updated, err := store.ApplyMutation(ctx, "acc-1", func(e entity.LedgerEntry) (entity.LedgerEntry, error) {
		e.Quote = e.Quote.Sub(decimal.NewFromInt(100))
		e.Base = e.Base.Add(decimal.NewFromInt(1))
		return e, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Quote.Equal(decimal.NewFromInt(9900)))

	entry, err := store.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, entry.Quote.Equal(decimal.NewFromInt(9900)))
	assert.True(t, entry.Base.Equal(decimal.NewFromInt(1)))
}

func TestStore_ApplyMutation_ErrorLeavesEntryUntouched(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	boom := errors.New("rejected")
	_, err := store.ApplyMutation(ctx, "acc-1", func(e entity.LedgerEntry) (entity.LedgerEntry, error) {
		return entity.LedgerEntry{}, boom
	})
	require.ErrorIs(t, err, boom)

	entry, err := store.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, entry.Quote.Equal(decimal.NewFromInt(10000)))
}

func TestStore_ApplyMutation_SerializesPerAccount(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	// 100 concurrent decrements of 1; any lost update leaves quote above 9900
	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.ApplyMutation(ctx, "acc-1", func(e entity.LedgerEntry) (entity.LedgerEntry, error) {
				e.Quote = e.Quote.Sub(decimal.NewFromInt(1))
				return e, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entry, err := store.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, entry.Quote.Equal(decimal.NewFromInt(9900)), "quote: %s", entry.Quote)
}

func TestStore_ApplyMutation_IndependentAccounts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	accounts := []string{"acc-1", "acc-2", "acc-3"}
	for _, account := range accounts {
		wg.Add(1)
		go func(account string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := store.ApplyMutation(ctx, account, func(e entity.LedgerEntry) (entity.LedgerEntry, error) {
					e.Base = e.Base.Add(decimal.NewFromInt(1))
					return e, nil
				})
				assert.NoError(t, err)
			}
		}(account)
	}
	wg.Wait()

	for _, account := range accounts {
		entry, err := store.Get(ctx, account)
		require.NoError(t, err)
		assert.True(t, entry.Base.Equal(decimal.NewFromInt(50)), "%s base: %s", account, entry.Base)
	}
}

func TestStore_ApplyMutation_CancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ApplyMutation(ctx, "acc-1", func(e entity.LedgerEntry) (entity.LedgerEntry, error) {
		return e, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
