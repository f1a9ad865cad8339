package ledger

import "github.com/pkg/errors"

var (
	// ErrInvalidInput rejects trades with a non-positive price or quantity.
	ErrInvalidInput = errors.New("price and quantity must be positive")
	// ErrInvalidAction rejects trades whose action is neither BUY nor SELL.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInsufficientFunds rejects a BUY whose value exceeds the quote balance.
	ErrInsufficientFunds = errors.New("insufficient quote balance")
	// ErrInsufficientHoldings rejects a SELL whose quantity exceeds the base balance.
	ErrInsufficientHoldings = errors.New("insufficient base balance")
)
