package app

import (
	"log"

	"bank-ledger/events"
	"bank-ledger/shared"
)

func (b *Bank) addInterest(cmd Command) {
	u, acc := b.findAccount(cmd.Account)
	if acc == nil {
		return
	}
	delta, err := acc.ApplyInterest()
	if err != nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgNotSavings)
		return
	}
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewInterest(m, acc.IBAN, delta, acc.Currency)
	})
}

func (b *Bank) changeInterestRate(cmd Command) {
	_, acc := b.findAccountByIBAN(cmd.Account)
	if acc == nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgAccountNotFound)
		return
	}
	if cmd.InterestRate == nil {
		log.Printf("Warning: changeInterestRate on %s without a rate", acc.IBAN)
		return
	}
	if err := acc.SetInterestRate(*cmd.InterestRate); err != nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgNotSavings)
	}
}

// withdrawSavings moves money from a savings account to the owner's classic
// account in the requested currency. The savings side is debited in its
// own currency; the classic side is credited the requested amount as is.
func (b *Bank) withdrawSavings(cmd Command) {
	u, savings := b.findAccountByIBAN(cmd.Account)
	if savings == nil || !savings.IsSavings() {
		return
	}
	currency := shared.ParseCurrency(cmd.Currency)

	classic := u.ClassicAccountIn(currency)
	if classic == nil {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoClassic(m)
		})
		return
	}
	if u.AgeAt(b.cfg.ReferenceDate()) < b.cfg.Savings.MinimumAge {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewUnderage(m)
		})
		return
	}
	if !cmd.Amount.IsPositive() {
		return
	}

	due := b.convert(cmd.Amount, currency, savings.Currency)
	if !savings.CanCover(due) {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, savings.IBAN)
		})
		return
	}
	if err := savings.Withdraw(due); err != nil {
		log.Printf("ERROR: savings debit on %s failed: %v", savings.IBAN, err)
		return
	}
	if err := classic.Deposit(cmd.Amount); err != nil {
		log.Printf("ERROR: savings credit on %s failed: %v", classic.IBAN, err)
	}
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewSavingsWithdrawal(m, savings.IBAN, classic.IBAN, cmd.Amount, currency)
	})
}
