package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PlanType string

const (
	PlanStandard PlanType = "standard"
	PlanStudent  PlanType = "student"
	PlanSilver   PlanType = "silver"
	PlanGold     PlanType = "gold"
)

// PaymentPlan is a value type. Fee rates apply to amounts expressed in the
// reference currency; MinFeeAmount of zero means the fee always applies.
type PaymentPlan struct {
	Type         PlanType        `json:"type"`
	FeeRate      decimal.Decimal `json:"transactionFee"`
	MinFeeAmount decimal.Decimal `json:"minFeeAmount"`
}

var plans = map[PlanType]PaymentPlan{
	PlanStandard: {Type: PlanStandard, FeeRate: decimal.RequireFromString("0.002"), MinFeeAmount: decimal.Zero},
	PlanStudent:  {Type: PlanStudent, FeeRate: decimal.Zero, MinFeeAmount: decimal.Zero},
	PlanSilver:   {Type: PlanSilver, FeeRate: decimal.RequireFromString("0.001"), MinFeeAmount: decimal.NewFromInt(500)},
	PlanGold:     {Type: PlanGold, FeeRate: decimal.Zero, MinFeeAmount: decimal.Zero},
}

type planPair struct {
	from, to PlanType
}

// Upgrade prices in the reference currency. Pairs not listed cost nothing
// and are treated as no-ops.
var upgradeFees = map[planPair]decimal.Decimal{
	{PlanStandard, PlanSilver}: decimal.NewFromInt(100),
	{PlanStudent, PlanSilver}:  decimal.NewFromInt(100),
	{PlanStandard, PlanGold}:   decimal.NewFromInt(350),
	{PlanStudent, PlanGold}:    decimal.NewFromInt(350),
	{PlanSilver, PlanGold}:     decimal.NewFromInt(250),
}

func ParsePlanType(plan string) (PlanType, error) {
	t := PlanType(strings.ToLower(strings.TrimSpace(plan)))
	if _, ok := plans[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	return t, nil
}

func PlanFor(t PlanType) (PaymentPlan, error) {
	p, ok := plans[t]
	if !ok {
		return PaymentPlan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, t)
	}
	return p, nil
}

// DefaultPlanFor picks the starting tier from the user's occupation.
func DefaultPlanFor(occupation string) PaymentPlan {
	if strings.EqualFold(strings.TrimSpace(occupation), string(PlanStudent)) {
		return plans[PlanStudent]
	}
	return plans[PlanStandard]
}

func (p PaymentPlan) FeeApplies(amount decimal.Decimal) bool {
	if !p.FeeRate.IsPositive() {
		return false
	}
	return p.MinFeeAmount.IsZero() || amount.GreaterThanOrEqual(p.MinFeeAmount)
}

// Fee returns the transaction fee for an amount in the reference currency,
// or zero when the plan does not charge for it.
func (p PaymentPlan) Fee(amount decimal.Decimal) decimal.Decimal {
	if !p.FeeApplies(amount) {
		return decimal.Zero
	}
	return amount.Mul(p.FeeRate)
}

func UpgradeFee(from, to PlanType) decimal.Decimal {
	fee, ok := upgradeFees[planPair{from, to}]
	if !ok {
		return decimal.Zero
	}
	return fee
}
