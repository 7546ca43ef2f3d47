package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

// PendingRequest is one account's share of a custom split, waiting for the
// owner to accept or reject it.
type PendingRequest struct {
	SplitID   uuid.UUID       `json:"splitId"`
	IBAN      string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  shared.Currency `json:"currency"`
	Timestamp int             `json:"timestamp"`
}

// User owns its accounts exclusively. Requests are settled strictly in
// arrival order.
type User struct {
	FirstName  string
	LastName   string
	Email      string
	BirthDate  time.Time
	Occupation string
	Accounts   []*Account
	Plan       PaymentPlan

	requests []PendingRequest
}

func NewUser(firstName, lastName, email string, birthDate time.Time, occupation string) *User {
	return &User{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      strings.TrimSpace(email),
		BirthDate:  birthDate,
		Occupation: occupation,
		Accounts:   make([]*Account, 0),
		Plan:       DefaultPlanFor(occupation),
		requests:   make([]PendingRequest, 0),
	}
}

func (u *User) HasEmail(email string) bool {
	return strings.EqualFold(u.Email, strings.TrimSpace(email))
}

func (u *User) AddAccount(acc *Account) {
	if acc == nil {
		return
	}
	acc.Owner = u.Email
	u.Accounts = append(u.Accounts, acc)
}

// FindAccount resolves an IBAN or alias among the user's own accounts.
func (u *User) FindAccount(identifier string) *Account {
	for _, acc := range u.Accounts {
		if acc.Matches(identifier) {
			return acc
		}
	}
	return nil
}

func (u *User) AccountByIBAN(iban string) *Account {
	for _, acc := range u.Accounts {
		if acc.IBAN == iban {
			return acc
		}
	}
	return nil
}

func (u *User) RemoveAccount(iban string) bool {
	for i, acc := range u.Accounts {
		if acc.IBAN == iban {
			u.Accounts = append(u.Accounts[:i], u.Accounts[i+1:]...)
			return true
		}
	}
	return false
}

func (u *User) FindCard(number string) (*Account, *Card) {
	for _, acc := range u.Accounts {
		if card := acc.FindCard(number); card != nil {
			return acc, card
		}
	}
	return nil, nil
}

// ClassicAccountIn returns the first classic account held in currency.
func (u *User) ClassicAccountIn(currency shared.Currency) *Account {
	for _, acc := range u.Accounts {
		if acc.IsClassic() && acc.Currency.Equal(currency) {
			return acc
		}
	}
	return nil
}

// AgeAt returns the user's age in whole years on the given date.
func (u *User) AgeAt(ref time.Time) int {
	if u.BirthDate.IsZero() {
		return 0
	}
	years := ref.Year() - u.BirthDate.Year()
	if !sameMonthDayOrAfter(ref, u.BirthDate) {
		years--
	}
	return years
}

func sameMonthDayOrAfter(ref, birth time.Time) bool {
	if ref.Month() != birth.Month() {
		return ref.Month() > birth.Month()
	}
	return ref.Day() >= birth.Day()
}

func (u *User) SetPlan(t PlanType) error {
	plan, err := PlanFor(t)
	if err != nil {
		return fmt.Errorf("cannot set plan for %s: %w", u.Email, err)
	}
	u.Plan = plan
	return nil
}

func (u *User) EnqueueRequest(req PendingRequest) {
	u.requests = append(u.requests, req)
}

// PopRequest removes and returns the oldest pending request.
func (u *User) PopRequest() (PendingRequest, error) {
	if len(u.requests) == 0 {
		return PendingRequest{}, fmt.Errorf("%w for %s", ErrNoPendingRequest, u.Email)
	}
	req := u.requests[0]
	u.requests = u.requests[1:]
	return req, nil
}

func (u *User) PendingRequests() []PendingRequest {
	out := make([]PendingRequest, len(u.requests))
	copy(out, u.requests)
	return out
}
