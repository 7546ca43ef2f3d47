package shared

import (
	"strings"
)

type Currency string

// RON is the reference currency: fee tables, cashback thresholds and plan
// upgrade prices are all expressed in it.
const RON Currency = "RON"

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// ParseCurrency normalises a currency code. Codes are compared
// case-insensitively everywhere in the ledger.
func ParseCurrency(code string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

func (c Currency) Equal(other Currency) bool {
	return strings.EqualFold(string(c), string(other))
}

func (c Currency) String() string {
	return string(c)
}
