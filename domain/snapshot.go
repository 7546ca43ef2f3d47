package domain

import (
	"github.com/shopspring/decimal"

	"bank-ledger/shared"
)

type CardSnapshot struct {
	CardNumber string     `json:"cardNumber"`
	Status     CardStatus `json:"status"`
}

type AccountSnapshot struct {
	IBAN     string          `json:"IBAN"`
	Balance  decimal.Decimal `json:"balance"`
	Currency shared.Currency `json:"currency"`
	Type     AccountKind     `json:"type"`
	Cards    []CardSnapshot  `json:"cards"`
}

// UserSnapshot is a deep copy of a user's visible state at one point in
// the day. Later commands never alter a snapshot already taken.
type UserSnapshot struct {
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Email     string            `json:"email"`
	Accounts  []AccountSnapshot `json:"accounts"`
}

func CreateSnapshot(user *User) UserSnapshot {
	snap := UserSnapshot{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Accounts:  make([]AccountSnapshot, 0, len(user.Accounts)),
	}
	for _, acc := range user.Accounts {
		accSnap := AccountSnapshot{
			IBAN:     acc.IBAN,
			Balance:  acc.Balance,
			Currency: acc.Currency,
			Type:     acc.Kind,
			Cards:    make([]CardSnapshot, 0, len(acc.Cards)),
		}
		for _, card := range acc.Cards {
			accSnap.Cards = append(accSnap.Cards, CardSnapshot{CardNumber: card.Number, Status: card.Status})
		}
		snap.Accounts = append(snap.Accounts, accSnap)
	}
	return snap
}

func CreateSnapshots(users []*User) []UserSnapshot {
	out := make([]UserSnapshot, 0, len(users))
	for _, u := range users {
		out = append(out, CreateSnapshot(u))
	}
	return out
}
