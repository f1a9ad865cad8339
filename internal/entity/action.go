package entity

// Action represents the side of a trade applied to the ledger.
type Action string

const (
	// ActionBuy spends quote balance to acquire base asset.
	ActionBuy Action = "BUY"
	// ActionSell releases base asset in exchange for quote balance.
	ActionSell Action = "SELL"
)

func (a Action) String() string {
	return string(a)
}

// Valid reports whether the action is one the ledger knows how to apply.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}
