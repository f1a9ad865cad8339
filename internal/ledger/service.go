package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paperledger/paperledger/internal/entity"
	"github.com/paperledger/paperledger/internal/storage"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Journal records executed trades for audit and streaming purposes.
type Journal interface {
	Append(record entity.TradeRecord) error
}

// Publisher emits trade events to external consumers.
type Publisher interface {
	Publish(ctx context.Context, record entity.TradeRecord) error
}

// Service enforces the trading invariants on top of a BalanceStore: balances
// never go negative, and a trade either lands in full or not at all.
type Service struct {
	store     storage.BalanceStore
	pair      entity.Pair
	journal   Journal
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithJournal attaches a trade journal. Journal failures do not fail trades.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithPublisher attaches an event publisher. Publish failures do not fail trades.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger service over the given store.
func NewService(store storage.BalanceStore, pair entity.Pair, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("balance store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:  store,
		pair:   pair,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Pair returns the traded pair this ledger is denominated in.
func (s *Service) Pair() entity.Pair {
	return s.pair
}

// Balance returns the current ledger entry for the account, seeded defaults
// included when the account has never traded.
func (s *Service) Balance(ctx context.Context, accountID string) (entity.LedgerEntry, error) {
	return s.store.Get(ctx, accountID)
}

// Execute applies a BUY or SELL mutation to the account's balances.
//
// The sufficiency check and the write happen inside the store's atomic
// mutation, so no concurrent trade can interleave between them. A failed
// trade leaves the balances exactly as they were.
func (s *Service) Execute(ctx context.Context, accountID string, action entity.Action, price, quantity decimal.Decimal) (entity.LedgerEntry, error) {
	if price.LessThanOrEqual(decimal.Zero) || quantity.LessThanOrEqual(decimal.Zero) {
		return entity.LedgerEntry{}, errors.Wrapf(ErrInvalidInput, "price=%s quantity=%s", price.String(), quantity.String())
	}

	value := price.Mul(quantity)

	mutate := func(current entity.LedgerEntry) (entity.LedgerEntry, error) {
		switch action {
		case entity.ActionBuy:
			if current.Quote.LessThan(value) {
				return entity.LedgerEntry{}, errors.Wrapf(ErrInsufficientFunds,
					"have %s %s, need %s", current.Quote.String(), s.pair.Quote, value.String())
			}
			current.Quote = current.Quote.Sub(value)
			current.Base = current.Base.Add(quantity)
		case entity.ActionSell:
			if current.Base.LessThan(quantity) {
				return entity.LedgerEntry{}, errors.Wrapf(ErrInsufficientHoldings,
					"have %s %s, need %s", current.Base.String(), s.pair.Base, quantity.String())
			}
			current.Quote = current.Quote.Add(value)
			current.Base = current.Base.Sub(quantity)
		default:
			return entity.LedgerEntry{}, errors.Wrapf(ErrInvalidAction, "action=%s", action.String())
		}

		current.UpdatedAt = s.now()
		return current, nil
	}

	entry, err := s.store.ApplyMutation(ctx, accountID, mutate)
	if errors.Is(err, storage.ErrConflict) {
		s.logger.Warn("mutation conflict, retrying once",
			zap.String("account", accountID),
			zap.String("action", action.String()))
		entry, err = s.store.ApplyMutation(ctx, accountID, mutate)
	}
	if err != nil {
		return entity.LedgerEntry{}, err
	}

	record := entity.NewTradeRecord(uuid.New().String(), s.pair, action, price, quantity, entry)
	s.record(ctx, record)

	s.logger.Info("trade executed",
		zap.String("id", record.ID),
		zap.String("account", accountID),
		zap.String("action", action.String()),
		zap.String("price", price.String()),
		zap.String("quantity", quantity.String()),
		zap.String("quote", entry.Quote.String()),
		zap.String("base", entry.Base.String()))

	return entry, nil
}

// record appends the trade to the journal and publishes it. Both are
// best-effort: the trade is already committed, so failures are only logged.
func (s *Service) record(ctx context.Context, record entity.TradeRecord) {
	if s.journal != nil {
		if err := s.journal.Append(record); err != nil {
			s.logger.Warn("failed to journal trade", zap.String("id", record.ID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record); err != nil {
			s.logger.Warn("failed to publish trade event", zap.String("id", record.ID), zap.Error(err))
		}
	}
}
