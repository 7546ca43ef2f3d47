package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// MerchantPayment is one successful card payment to a merchant, kept apart
// from the user ledgers for spending reports.
type MerchantPayment struct {
	Account     string          `json:"-"`
	Timestamp   int             `json:"timestamp"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Commerciant string          `json:"commerciant"`
}

type MerchantTotal struct {
	Commerciant string          `json:"commerciant"`
	Total       decimal.Decimal `json:"total"`
}

type PaymentLog interface {
	Record(payment MerchantPayment) error

	Between(account string, start, end int) ([]MerchantPayment, error)
}

type InMemoryPaymentLog struct {
	sync.RWMutex
	payments []MerchantPayment
}

func NewInMemoryPaymentLog() *InMemoryPaymentLog {
	return &InMemoryPaymentLog{
		payments: make([]MerchantPayment, 0),
	}
}

func (s *InMemoryPaymentLog) Record(payment MerchantPayment) error {
	if payment.Account == "" || payment.Commerciant == "" {
		return fmt.Errorf("cannot record merchant payment without account and merchant")
	}
	s.Lock()
	defer s.Unlock()

	s.payments = append(s.payments, payment)
	return nil
}

func (s *InMemoryPaymentLog) Between(account string, start, end int) ([]MerchantPayment, error) {
	s.RLock()
	defer s.RUnlock()

	if start > end {
		return nil, fmt.Errorf("invalid range: start %d is after end %d", start, end)
	}
	result := make([]MerchantPayment, 0)
	for _, p := range s.payments {
		if p.Account == account && p.Timestamp >= start && p.Timestamp <= end {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *InMemoryPaymentLog) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.payments)
}

func (s *InMemoryPaymentLog) Reset() {
	s.Lock()
	defer s.Unlock()
	s.payments = make([]MerchantPayment, 0)
}

// Totals sums payments per merchant, ordered by merchant name.
func Totals(payments []MerchantPayment) []MerchantTotal {
	sums := make(map[string]decimal.Decimal)
	for _, p := range payments {
		sums[p.Commerciant] = sums[p.Commerciant].Add(p.Amount)
	}
	totals := make([]MerchantTotal, 0, len(sums))
	for name, total := range sums {
		totals = append(totals, MerchantTotal{Commerciant: name, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Commerciant < totals[j].Commerciant
	})
	return totals
}
