package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord describes a single executed trade together with the balances
// it produced. Decimal values are kept as strings in JSON to avoid precision
// loss in consumers.
type TradeRecord struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Pair       string    `json:"pair"`
	Action     Action    `json:"action"`
	Price      string    `json:"price"`
	Quantity   string    `json:"quantity"`
	Value      string    `json:"value"`
	Quote      string    `json:"quote"`
	Base       string    `json:"base"`
	ExecutedAt time.Time `json:"executed_at"`
}

// NewTradeRecord builds a record from the executed trade parameters and the
// resulting ledger entry.
func NewTradeRecord(id string, pair Pair, action Action, price, quantity decimal.Decimal, entry LedgerEntry) TradeRecord {
	return TradeRecord{
		ID:         id,
		AccountID:  entry.AccountID,
		Pair:       pair.String(),
		Action:     action,
		Price:      price.String(),
		Quantity:   quantity.String(),
		Value:      price.Mul(quantity).String(),
		Quote:      entry.Quote.String(),
		Base:       entry.Base.String(),
		ExecutedAt: entry.UpdatedAt,
	}
}

// TradeRecordWithIndex bundles a journal record with the log index it
// originated from.
type TradeRecordWithIndex struct {
	Index  uint64      `json:"index"`
	Record TradeRecord `json:"record"`
}
