package domain

import (
	"fmt"
	"log"
	"strings"
)

type MerchantCategory string

const (
	CategoryFood    MerchantCategory = "food"
	CategoryClothes MerchantCategory = "clothes"
	CategoryTech    MerchantCategory = "tech"
)

func ParseMerchantCategory(category string) (MerchantCategory, error) {
	switch c := MerchantCategory(strings.ToLower(strings.TrimSpace(category))); c {
	case CategoryFood, CategoryClothes, CategoryTech:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

type CashbackStrategy string

const (
	StrategyTransactionCount  CashbackStrategy = "nrOfTransactions"
	StrategySpendingThreshold CashbackStrategy = "spendingThreshold"
)

func ParseCashbackStrategy(strategy string) (CashbackStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "nroftransactions", "numberoftransactions":
		return StrategyTransactionCount, nil
	case "spendingthreshold":
		return StrategySpendingThreshold, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Merchant is the static configuration of a commerciant for the day. Type
// is kept as received; it is resolved to a category when cashback is
// computed.
type Merchant struct {
	ID       int              `json:"id"`
	Name     string           `json:"commerciant"`
	Account  string           `json:"account"`
	Type     string           `json:"type"`
	Strategy CashbackStrategy `json:"cashbackStrategy"`
}

func (m *Merchant) Category() (MerchantCategory, error) {
	return ParseMerchantCategory(m.Type)
}

// MerchantRegistry is the per-day merchant list, looked up by name.
type MerchantRegistry struct {
	merchants []*Merchant
}

func NewMerchantRegistry() *MerchantRegistry {
	return &MerchantRegistry{merchants: make([]*Merchant, 0)}
}

func (r *MerchantRegistry) Register(m *Merchant) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return NewDomainError("merchant name cannot be empty")
	}
	if existing, err := r.Lookup(m.Name); err == nil {
		log.Printf("Warning: merchant %q registered twice (ids %d and %d); keeping the first", m.Name, existing.ID, m.ID)
		return nil
	}
	r.merchants = append(r.merchants, m)
	return nil
}

func (r *MerchantRegistry) Lookup(name string) (*Merchant, error) {
	for _, m := range r.merchants {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMerchantNotFound, name)
}

func (r *MerchantRegistry) Len() int {
	return len(r.merchants)
}

func (r *MerchantRegistry) Reset() {
	r.merchants = make([]*Merchant, 0)
}
