package cashback

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bank-ledger/domain"
)

// accountState is the per-account cashback bookkeeping for one day.
type accountState struct {
	counts     map[domain.MerchantCategory]int
	used       map[domain.MerchantCategory]bool
	totalSpent decimal.Decimal
}

func newAccountState() *accountState {
	return &accountState{
		counts: make(map[domain.MerchantCategory]int),
		used:   make(map[domain.MerchantCategory]bool),
	}
}

// strategy computes the cashback one purchase earns, given the account's
// state with that purchase already recorded.
type strategy interface {
	Evaluate(state *accountState, plan domain.PlanType, category domain.MerchantCategory, amount decimal.Decimal) decimal.Decimal
}

// Engine keeps cashback state per IBAN. Amounts passed to it are in the
// reference currency.
type Engine struct {
	states     map[string]*accountState
	strategies []strategy
}

func NewEngine() *Engine {
	return &Engine{
		states:     make(map[string]*accountState),
		strategies: []strategy{spendingThreshold{}, transactionCount{}},
	}
}

// Calculate records a purchase and returns the best cashback any strategy
// grants for it. The purchase is counted exactly once per call, before any
// strategy looks at the state.
func (e *Engine) Calculate(iban string, plan domain.PlanType, merchant *domain.Merchant, amount decimal.Decimal) (decimal.Decimal, error) {
	if merchant == nil {
		return decimal.Zero, fmt.Errorf("cashback for %s: %w", iban, domain.ErrMerchantNotFound)
	}
	category, err := merchant.Category()
	if err != nil {
		return decimal.Zero, fmt.Errorf("cashback for %s at %s: %w", iban, merchant.Name, err)
	}

	state, ok := e.states[iban]
	if !ok {
		state = newAccountState()
		e.states[iban] = state
	}
	state.counts[category]++
	state.totalSpent = state.totalSpent.Add(amount)

	best := decimal.Zero
	for _, s := range e.strategies {
		if got := s.Evaluate(state, plan, category, amount); got.GreaterThan(best) {
			best = got
		}
	}
	return best, nil
}

// TotalSpent reports the cumulative reference-currency spend for iban.
func (e *Engine) TotalSpent(iban string) decimal.Decimal {
	if state, ok := e.states[iban]; ok {
		return state.totalSpent
	}
	return decimal.Zero
}

func (e *Engine) TransactionCount(iban string, category domain.MerchantCategory) int {
	if state, ok := e.states[iban]; ok {
		return state.counts[category]
	}
	return 0
}

// Reset drops all state; called once at the start of a day.
func (e *Engine) Reset() {
	e.states = make(map[string]*accountState)
}
