package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the two-balance record for a single account.
type LedgerEntry struct {
	AccountID string
	Quote     decimal.Decimal
	Base      decimal.Decimal
	UpdatedAt time.Time
}
