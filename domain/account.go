package domain

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

type AccountKind string

const (
	KindClassic AccountKind = "classic"
	KindSavings AccountKind = "savings"
)

func ParseAccountKind(kind string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case string(KindClassic):
		return KindClassic, nil
	case string(KindSavings):
		return KindSavings, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, kind)
	}
}

// SavingsTerms is the payload carried only by savings accounts.
type SavingsTerms struct {
	InterestRate decimal.Decimal `json:"interestRate"`
}

// Account holds a single-currency balance and the cards drawing on it.
// Kind is the variant tag; Savings is non-nil exactly when Kind is
// KindSavings.
type Account struct {
	IBAN       string          `json:"IBAN"`
	Alias      string          `json:"-"`
	Owner      string          `json:"-"`
	Currency   shared.Currency `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	MinBalance decimal.Decimal `json:"-"`
	Kind       AccountKind     `json:"type"`
	Savings    *SavingsTerms   `json:"-"`
	Cards      []*Card         `json:"cards"`
}

func NewClassicAccount(iban, owner string, currency shared.Currency) *Account {
	return &Account{
		IBAN:     iban,
		Owner:    owner,
		Currency: currency,
		Kind:     KindClassic,
		Cards:    make([]*Card, 0),
	}
}

func NewSavingsAccount(iban, owner string, currency shared.Currency, interestRate decimal.Decimal) *Account {
	acc := NewClassicAccount(iban, owner, currency)
	acc.Kind = KindSavings
	acc.Savings = &SavingsTerms{InterestRate: interestRate}
	return acc
}

func (a *Account) IsSavings() bool {
	return a.Kind == KindSavings
}

func (a *Account) IsClassic() bool {
	return a.Kind == KindClassic
}

// Matches reports whether identifier names this account, either by IBAN
// or (case-insensitively) by alias.
func (a *Account) Matches(identifier string) bool {
	if a.IBAN == identifier {
		return true
	}
	return a.Alias != "" && strings.EqualFold(a.Alias, identifier)
}

func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive: %s", ErrInvalidAmount, amount.String())
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw debits amount only when the balance covers it; a zero amount is
// accepted and leaves the balance untouched.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: withdrawal amount cannot be negative: %s", ErrInvalidAmount, amount.String())
	}
	if !a.CanCover(amount) {
		return fmt.Errorf("%w: requested %s %s, available %s %s",
			ErrInsufficientFunds, amount.String(), a.Currency, a.Balance.String(), a.Currency)
	}
	newBalance := a.Balance.Sub(amount)
	if newBalance.IsNegative() {
		log.Printf("CRITICAL: Invariant Violation! Account %s balance negative after debit: %s - %s = %s",
			a.IBAN, a.Balance.String(), amount.String(), newBalance.String())
		return fmt.Errorf("invariant violation: negative balance on account %s", a.IBAN)
	}
	a.Balance = newBalance
	return nil
}

func (a *Account) SetMinimumBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: minimum balance cannot be negative: %s", ErrInvalidAmount, amount.String())
	}
	a.MinBalance = amount
	return nil
}

func (a *Account) SetInterestRate(rate decimal.Decimal) error {
	if !a.IsSavings() {
		return fmt.Errorf("%w: %s", ErrNotSavingsAccount, a.IBAN)
	}
	a.Savings.InterestRate = rate
	return nil
}

// ApplyInterest credits balance*rate and returns the credited delta.
func (a *Account) ApplyInterest() (decimal.Decimal, error) {
	if !a.IsSavings() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotSavingsAccount, a.IBAN)
	}
	delta := a.Balance.Mul(a.Savings.InterestRate)
	a.Balance = a.Balance.Add(delta)
	return delta, nil
}

func (a *Account) AddCard(card *Card) {
	a.Cards = append(a.Cards, card)
}

func (a *Account) FindCard(number string) *Card {
	number = strings.TrimSpace(number)
	for _, card := range a.Cards {
		if card.Number == number {
			return card
		}
	}
	return nil
}

func (a *Account) RemoveCard(number string) (*Card, bool) {
	for i, card := range a.Cards {
		if card.Number == number {
			a.Cards = append(a.Cards[:i], a.Cards[i+1:]...)
			return card, true
		}
	}
	return nil, false
}

// BalanceStatus derives the card status implied by the balance and floor:
// frozen at or below the floor, warning within band above it.
func (a *Account) BalanceStatus(band decimal.Decimal) CardStatus {
	if a.Balance.LessThanOrEqual(a.MinBalance) {
		return CardFrozen
	}
	if a.Balance.Sub(a.MinBalance).LessThanOrEqual(band) {
		return CardWarning
	}
	return CardActive
}

// RefreshCardStatus pushes the derived balance status onto every card and
// returns it.
func (a *Account) RefreshCardStatus(band decimal.Decimal) CardStatus {
	status := a.BalanceStatus(band)
	for _, card := range a.Cards {
		card.transition(status)
	}
	return status
}
