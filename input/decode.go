// Package input turns a JSON day file into the records the bank replays.
package input

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/app"
)

const birthDateLayout = "2006-01-02"

type userJSON struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	BirthDate  string `json:"birthDate"`
	Occupation string `json:"occupation"`
}

type rateJSON struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

type merchantJSON struct {
	Name     string `json:"commerciant"`
	ID       int    `json:"id"`
	Account  string `json:"account"`
	Type     string `json:"type"`
	Strategy string `json:"cashbackStrategy"`
}

type commandJSON struct {
	Command          string            `json:"command"`
	Timestamp        int               `json:"timestamp"`
	Email            string            `json:"email"`
	Account          string            `json:"account"`
	Receiver         string            `json:"receiver"`
	CardNumber       string            `json:"cardNumber"`
	Alias            string            `json:"alias"`
	Description      string            `json:"description"`
	Commerciant      string            `json:"commerciant"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         string            `json:"currency"`
	AccountType      string            `json:"accountType"`
	InterestRate     *decimal.Decimal  `json:"interestRate"`
	NewPlanType      string            `json:"newPlanType"`
	SplitPaymentType string            `json:"splitPaymentType"`
	Accounts         []string          `json:"accounts"`
	AmountForUsers   []decimal.Decimal `json:"amountForUsers"`
	StartTimestamp   int               `json:"startTimestamp"`
	EndTimestamp     int               `json:"endTimestamp"`
}

type dayJSON struct {
	Users         []userJSON     `json:"users"`
	ExchangeRates []rateJSON     `json:"exchangeRates"`
	Commerciants  []merchantJSON `json:"commerciants"`
	Commands      []commandJSON  `json:"commands"`
}

// Decode reads one day. Users with an unreadable birth date are kept with
// a zero date; a command without a name is an error.
func Decode(r io.Reader) (app.Day, error) {
	var raw dayJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return app.Day{}, fmt.Errorf("failed to decode day: %w", err)
	}

	day := app.Day{
		Users:     make([]app.UserRecord, 0, len(raw.Users)),
		Rates:     make([]app.RateRecord, 0, len(raw.ExchangeRates)),
		Merchants: make([]app.MerchantRecord, 0, len(raw.Commerciants)),
		Commands:  make([]app.Command, 0, len(raw.Commands)),
	}

	for _, u := range raw.Users {
		born, err := parseBirthDate(u.BirthDate)
		if err != nil {
			log.Printf("Warning: user %s: %v", u.Email, err)
		}
		day.Users = append(day.Users, app.UserRecord{
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			BirthDate:  born,
			Occupation: u.Occupation,
		})
	}

	for _, rt := range raw.ExchangeRates {
		day.Rates = append(day.Rates, app.RateRecord{From: rt.From, To: rt.To, Rate: rt.Rate})
	}

	for _, m := range raw.Commerciants {
		day.Merchants = append(day.Merchants, app.MerchantRecord{
			ID:       m.ID,
			Name:     m.Name,
			Account:  m.Account,
			Type:     m.Type,
			Strategy: m.Strategy,
		})
	}

	for i, c := range raw.Commands {
		if strings.TrimSpace(c.Command) == "" {
			return app.Day{}, fmt.Errorf("command %d at timestamp %d has no name", i, c.Timestamp)
		}
		day.Commands = append(day.Commands, toCommand(c))
	}
	return day, nil
}

// DecodeCommand reads a single command object, as typed at the REPL.
func DecodeCommand(data []byte) (app.Command, error) {
	var c commandJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return app.Command{}, fmt.Errorf("failed to decode command: %w", err)
	}
	if strings.TrimSpace(c.Command) == "" {
		return app.Command{}, fmt.Errorf("command has no name")
	}
	return toCommand(c), nil
}

func toCommand(c commandJSON) app.Command {
	return app.Command{
		Kind:             c.Command,
		Timestamp:        c.Timestamp,
		Email:            c.Email,
		Account:          c.Account,
		Receiver:         c.Receiver,
		CardNumber:       c.CardNumber,
		Alias:            c.Alias,
		Description:      c.Description,
		Commerciant:      c.Commerciant,
		Amount:           c.Amount,
		Currency:         c.Currency,
		AccountType:      c.AccountType,
		InterestRate:     c.InterestRate,
		NewPlanType:      c.NewPlanType,
		SplitPaymentType: c.SplitPaymentType,
		Accounts:         c.Accounts,
		AmountForUsers:   c.AmountForUsers,
		StartTimestamp:   c.StartTimestamp,
		EndTimestamp:     c.EndTimestamp,
	}
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string) (app.Day, error) {
	f, err := os.Open(path)
	if err != nil {
		return app.Day{}, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

func parseBirthDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("missing birth date")
	}
	t, err := time.Parse(birthDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birth date %q: %w", s, err)
	}
	return t, nil
}
