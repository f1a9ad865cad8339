package entity

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pair names the traded asset (Base) and the funding currency (Quote).
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Quote)
}

// PairFromString parses a pair in BASE_QUOTE form, e.g. "BTC_USDT".
func PairFromString(s string) (Pair, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, errors.Errorf("invalid pair %q, expected BASE_QUOTE", s)
	}
	return Pair{Base: parts[0], Quote: parts[1]}, nil
}
