package exchange

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

type Rate struct {
	From shared.Currency `json:"from"`
	To   shared.Currency `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// Rates is the day's exchange-rate graph. Every rate added also stores its
// inverse. Edges keep insertion order, which decides which path wins when
// more than one connects two currencies.
type Rates struct {
	edges []Rate
}

func NewRates() *Rates {
	return &Rates{edges: make([]Rate, 0)}
}

func (r *Rates) Add(from, to string, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("exchange rate %s->%s must be positive, got %s", from, to, rate.String())
	}
	f, t := shared.ParseCurrency(from), shared.ParseCurrency(to)
	if f == "" || t == "" {
		return fmt.Errorf("exchange rate needs both currencies, got %q->%q", from, to)
	}
	r.edges = append(r.edges,
		Rate{From: f, To: t, Rate: rate},
		Rate{From: t, To: f, Rate: decimal.NewFromInt(1).DivRound(rate, 16)},
	)
	return nil
}

func (r *Rates) Len() int {
	return len(r.edges)
}

func (r *Rates) Reset() {
	r.edges = make([]Rate, 0)
}

// Resolve returns the factor that turns an amount in from into to. The
// direct edge is preferred; otherwise the first path found by a depth-first
// walk over the edges in insertion order wins.
func (r *Rates) Resolve(from, to shared.Currency) (decimal.Decimal, bool) {
	from, to = shared.ParseCurrency(from.String()), shared.ParseCurrency(to.String())
	if from == to {
		return decimal.NewFromInt(1), true
	}
	visited := map[shared.Currency]bool{from: true}
	return r.walk(from, to, visited)
}

func (r *Rates) walk(from, to shared.Currency, visited map[shared.Currency]bool) (decimal.Decimal, bool) {
	for _, e := range r.edges {
		if e.From == from && e.To == to {
			return e.Rate, true
		}
	}
	for _, e := range r.edges {
		if e.From != from || visited[e.To] {
			continue
		}
		visited[e.To] = true
		if rest, ok := r.walk(e.To, to, visited); ok {
			return e.Rate.Mul(rest), true
		}
	}
	return decimal.Zero, false
}

// Convert expresses amount in the target currency. Without any path between
// the two currencies the amount is returned unchanged.
func (r *Rates) Convert(amount decimal.Decimal, from, to shared.Currency) decimal.Decimal {
	factor, ok := r.Resolve(from, to)
	if !ok {
		log.Printf("Warning: no exchange path from %s to %s, amount %s left unconverted", from, to, amount.String())
		return amount
	}
	return amount.Mul(factor)
}
