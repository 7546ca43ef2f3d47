package cashback

import (
	"github.com/shopspring/decimal"

	"bank-ledger/domain"
)

type spendingTier struct {
	threshold decimal.Decimal
	rates     map[domain.PlanType]decimal.Decimal
}

func planRates(basic, silver, gold string) map[domain.PlanType]decimal.Decimal {
	return map[domain.PlanType]decimal.Decimal{
		domain.PlanStandard: decimal.RequireFromString(basic),
		domain.PlanStudent:  decimal.RequireFromString(basic),
		domain.PlanSilver:   decimal.RequireFromString(silver),
		domain.PlanGold:     decimal.RequireFromString(gold),
	}
}

// Highest threshold first.
var spendingTiers = []spendingTier{
	{threshold: decimal.NewFromInt(500), rates: planRates("0.0025", "0.005", "0.007")},
	{threshold: decimal.NewFromInt(300), rates: planRates("0.002", "0.004", "0.0055")},
	{threshold: decimal.NewFromInt(100), rates: planRates("0.001", "0.003", "0.005")},
}

// spendingThreshold pays a plan-dependent share of the purchase once the
// account's cumulative spend reaches 100, 300 or 500.
type spendingThreshold struct{}

func (spendingThreshold) Evaluate(state *accountState, plan domain.PlanType, _ domain.MerchantCategory, amount decimal.Decimal) decimal.Decimal {
	for _, tier := range spendingTiers {
		if state.totalSpent.LessThan(tier.threshold) {
			continue
		}
		rate, ok := tier.rates[plan]
		if !ok {
			return decimal.Zero
		}
		return amount.Mul(rate)
	}
	return decimal.Zero
}

type countRule struct {
	threshold int
	rate      decimal.Decimal
}

var countRules = map[domain.MerchantCategory]countRule{
	domain.CategoryFood:    {threshold: 2, rate: decimal.RequireFromString("0.02")},
	domain.CategoryClothes: {threshold: 5, rate: decimal.RequireFromString("0.05")},
	domain.CategoryTech:    {threshold: 10, rate: decimal.RequireFromString("0.10")},
}

// transactionCount pays a one-off category discount when the account's
// purchase count in that category reaches its threshold.
type transactionCount struct{}

func (transactionCount) Evaluate(state *accountState, _ domain.PlanType, category domain.MerchantCategory, amount decimal.Decimal) decimal.Decimal {
	rule, ok := countRules[category]
	if !ok || state.used[category] || state.counts[category] < rule.threshold {
		return decimal.Zero
	}
	state.used[category] = true
	return amount.Mul(rule.rate)
}
