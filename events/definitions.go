package events

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

const (
	DescAccountCreated  = "New account created"
	DescCardCreated     = "New card created"
	DescCardDeleted     = "The card has been destroyed"
	DescNoFunds         = "Insufficient funds"
	DescCardPayment     = "Card payment"
	DescCardFrozen      = "The card is frozen"
	DescCardFreezing    = "You have reached the minimum amount of funds, the card will be frozen"
	DescUpgradePlan     = "Upgrade plan"
	DescInterest        = "Interest rate income"
	DescNoClassic       = "You do not have a classic account."
	DescUnderage        = "You don't have the minimum age required."
	DescSavingsWithdraw = "Savings withdrawal"
)

type AccountCreatedEvent struct {
	BaseEvent
	Account string `json:"-"`
}

func NewAccountCreated(meta Meta, iban string) AccountCreatedEvent {
	return AccountCreatedEvent{
		BaseEvent: NewBaseEvent(meta, AccountCreatedType, DescAccountCreated),
		Account:   iban,
	}
}

// CardLifecycleEvent is shared by card creation and destruction; the Type
// on the base tells them apart.
type CardLifecycleEvent struct {
	BaseEvent
	Account    string `json:"account"`
	Card       string `json:"card"`
	CardHolder string `json:"cardHolder"`
}

func NewCardCreated(meta Meta, iban, cardNumber, holder string) CardLifecycleEvent {
	return CardLifecycleEvent{
		BaseEvent:  NewBaseEvent(meta, CardCreatedType, DescCardCreated),
		Account:    iban,
		Card:       cardNumber,
		CardHolder: holder,
	}
}

func NewCardDeleted(meta Meta, iban, cardNumber, holder string) CardLifecycleEvent {
	return CardLifecycleEvent{
		BaseEvent:  NewBaseEvent(meta, CardDeletedType, DescCardDeleted),
		Account:    iban,
		Card:       cardNumber,
		CardHolder: holder,
	}
}

type Direction string

const (
	Sent     Direction = "sent"
	Received Direction = "received"
)

// TransferEvent is one side of a sendMoney or a savings withdrawal. The
// amount is rendered as "<amount> <currency>" on the wire.
type TransferEvent struct {
	BaseEvent
	SenderIBAN   string          `json:"senderIBAN"`
	ReceiverIBAN string          `json:"receiverIBAN"`
	AmountText   string          `json:"amount"`
	TransferType Direction       `json:"transferType"`
	Amount       decimal.Decimal `json:"-"`
	Currency     shared.Currency `json:"-"`
}

func NewTransfer(meta Meta, description, sender, receiver string, amount decimal.Decimal, currency shared.Currency, direction Direction) TransferEvent {
	return TransferEvent{
		BaseEvent:    NewBaseEvent(meta, TransferType, description),
		SenderIBAN:   sender,
		ReceiverIBAN: receiver,
		AmountText:   amount.String() + " " + currency.String(),
		TransferType: direction,
		Amount:       amount,
		Currency:     currency,
	}
}

type OnlinePaymentEvent struct {
	BaseEvent
	Amount      decimal.Decimal `json:"amount"`
	Commerciant string          `json:"commerciant"`
	Account     string          `json:"-"`
	Currency    shared.Currency `json:"-"`
}

// NewOnlinePayment falls back to "Card payment" when the command carried no
// description.
func NewOnlinePayment(meta Meta, iban, description string, amount decimal.Decimal, currency shared.Currency, merchant string) OnlinePaymentEvent {
	if description == "" {
		description = DescCardPayment
	}
	return OnlinePaymentEvent{
		BaseEvent:   NewBaseEvent(meta, OnlinePaymentType, description),
		Amount:      amount,
		Commerciant: merchant,
		Account:     iban,
		Currency:    currency,
	}
}

type NoFundsEvent struct {
	BaseEvent
	Account string `json:"-"`
}

func NewNoFunds(meta Meta, iban string) NoFundsEvent {
	return NoFundsEvent{
		BaseEvent: NewBaseEvent(meta, NoFundsType, DescNoFunds),
		Account:   iban,
	}
}

type CardStatusEvent struct {
	BaseEvent
	Card string `json:"-"`
}

func NewCardStatus(meta Meta, cardNumber, description string) CardStatusEvent {
	return CardStatusEvent{
		BaseEvent: NewBaseEvent(meta, CardStatusType, description),
		Card:      cardNumber,
	}
}

func splitDescription(total decimal.Decimal, currency shared.Currency) string {
	return fmt.Sprintf("Split payment of %s %s", total.StringFixed(2), currency)
}

// SplitPayEvent records one account's successful share of an equal split.
type SplitPayEvent struct {
	BaseEvent
	Currency         shared.Currency `json:"currency"`
	Amount           decimal.Decimal `json:"amount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	InvolvedAccounts []string        `json:"involvedAccounts"`
}

func NewSplitPay(meta Meta, accounts []string, share, total decimal.Decimal, currency shared.Currency) SplitPayEvent {
	return SplitPayEvent{
		BaseEvent:        NewBaseEvent(meta, SplitPayType, splitDescription(total, currency)),
		Currency:         currency,
		Amount:           share,
		TotalAmount:      total,
		InvolvedAccounts: copyStrings(accounts),
	}
}

type FailedSplitPayEvent struct {
	BaseEvent
	InvolvedAccounts []string        `json:"involvedAccounts"`
	FailedAmount     decimal.Decimal `json:"failedAmount"`
	Currency         shared.Currency `json:"currency"`
	Account          string          `json:"-"`
}

func NewFailedSplitPay(meta Meta, iban string, accounts []string, amount, total decimal.Decimal, currency shared.Currency) FailedSplitPayEvent {
	return FailedSplitPayEvent{
		BaseEvent:        NewBaseEvent(meta, FailedSplitPayType, fmt.Sprintf("Failed split payment of %s %s", total.StringFixed(2), currency)),
		InvolvedAccounts: copyStrings(accounts),
		FailedAmount:     amount,
		Currency:         currency,
		Account:          iban,
	}
}

// NullPaymentEvent announces a custom split; nothing is debited until the
// participants accept their requests.
type NullPaymentEvent struct {
	BaseEvent
	SplitPaymentType string            `json:"splitPaymentType"`
	Currency         shared.Currency   `json:"currency"`
	InvolvedAccounts []string          `json:"involvedAccounts"`
	AmountForUsers   []decimal.Decimal `json:"amountForUsers"`
	SplitID          uuid.UUID         `json:"splitId"`
}

func NewNullPayment(meta Meta, splitID uuid.UUID, accounts []string, amounts []decimal.Decimal, total decimal.Decimal, currency shared.Currency) NullPaymentEvent {
	shares := make([]decimal.Decimal, len(amounts))
	copy(shares, amounts)
	return NullPaymentEvent{
		BaseEvent:        NewBaseEvent(meta, NullPaymentType, splitDescription(total, currency)),
		SplitPaymentType: "custom",
		Currency:         currency,
		InvolvedAccounts: copyStrings(accounts),
		AmountForUsers:   shares,
		SplitID:          splitID,
	}
}

// CustomSplitEvent settles one pending request, either accepted or
// rejected.
type CustomSplitEvent struct {
	BaseEvent
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Currency shared.Currency `json:"currency"`
	Rejected bool            `json:"rejected"`
	SplitID  uuid.UUID       `json:"splitId"`
}

func NewCustomSplit(meta Meta, splitID uuid.UUID, iban string, amount decimal.Decimal, currency shared.Currency, rejected bool) CustomSplitEvent {
	desc := fmt.Sprintf("Custom split share of %s %s", amount.StringFixed(2), currency)
	if rejected {
		desc = "Custom split rejected"
	}
	return CustomSplitEvent{
		BaseEvent: NewBaseEvent(meta, CustomSplitType, desc),
		Account:   iban,
		Amount:    amount,
		Currency:  currency,
		Rejected:  rejected,
		SplitID:   splitID,
	}
}

type UnderageEvent struct {
	BaseEvent
}

func NewUnderage(meta Meta) UnderageEvent {
	return UnderageEvent{BaseEvent: NewBaseEvent(meta, UnderageType, DescUnderage)}
}

type NoClassicEvent struct {
	BaseEvent
}

func NewNoClassic(meta Meta) NoClassicEvent {
	return NoClassicEvent{BaseEvent: NewBaseEvent(meta, NoClassicType, DescNoClassic)}
}

type PlanUpgradedEvent struct {
	BaseEvent
	AccountIBAN string `json:"accountIBAN"`
	NewPlanType string `json:"newPlanType"`
}

func NewPlanUpgraded(meta Meta, iban, plan string) PlanUpgradedEvent {
	return PlanUpgradedEvent{
		BaseEvent:   NewBaseEvent(meta, PlanUpgradedType, DescUpgradePlan),
		AccountIBAN: iban,
		NewPlanType: plan,
	}
}

type WithdrawCashEvent struct {
	BaseEvent
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"-"`
}

func NewWithdrawCash(meta Meta, iban string, amount decimal.Decimal) WithdrawCashEvent {
	return WithdrawCashEvent{
		BaseEvent: NewBaseEvent(meta, WithdrawCashType, "Cash withdrawal of "+amount.String()),
		Amount:    amount,
		Account:   iban,
	}
}

type InterestEvent struct {
	BaseEvent
	Amount   decimal.Decimal `json:"amount"`
	Currency shared.Currency `json:"currency"`
	Account  string          `json:"-"`
}

// NewInterest rounds the credited delta to two decimals.
func NewInterest(meta Meta, iban string, amount decimal.Decimal, currency shared.Currency) InterestEvent {
	return InterestEvent{
		BaseEvent: NewBaseEvent(meta, InterestType, DescInterest),
		Amount:    amount.Round(2),
		Currency:  currency,
		Account:   iban,
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// SavingsWithdrawalEvent moves money between two accounts of the same
// owner, so it is kept apart from transfers.
type SavingsWithdrawalEvent struct {
	BaseEvent
	SavingsIBAN string          `json:"savingsAccountIBAN"`
	ClassicIBAN string          `json:"classicAccountIBAN"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    shared.Currency `json:"currency"`
}

func NewSavingsWithdrawal(meta Meta, savings, classic string, amount decimal.Decimal, currency shared.Currency) SavingsWithdrawalEvent {
	return SavingsWithdrawalEvent{
		BaseEvent:   NewBaseEvent(meta, SavingsWithdrawalType, DescSavingsWithdraw),
		SavingsIBAN: savings,
		ClassicIBAN: classic,
		Amount:      amount,
		Currency:    currency,
	}
}
