package app

import (
	"log"

	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/shared"
)

func (b *Bank) printUsers(cmd Command) {
	b.emit(cmd.Kind, cmd.Timestamp, domain.CreateSnapshots(b.users))
}

func (b *Bank) addAccount(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil {
		log.Printf("Warning: addAccount for unknown user %s", cmd.Email)
		return
	}
	kind, err := domain.ParseAccountKind(cmd.AccountType)
	if err != nil {
		log.Printf("Warning: addAccount for %s: %v", u.Email, err)
		return
	}
	currency := shared.ParseCurrency(cmd.Currency)
	if currency == "" {
		log.Printf("Warning: addAccount for %s without currency", u.Email)
		return
	}

	var acc *domain.Account
	switch kind {
	case domain.KindSavings:
		if cmd.InterestRate == nil {
			log.Printf("Warning: savings account for %s requested without interest rate", u.Email)
			return
		}
		acc = domain.NewSavingsAccount(b.numbers.NextIBAN(), u.Email, currency, *cmd.InterestRate)
	default:
		acc = domain.NewClassicAccount(b.numbers.NextIBAN(), u.Email, currency)
	}
	u.AddAccount(acc)

	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewAccountCreated(m, acc.IBAN)
	})
	log.Printf("Account %s (%s, %s) created for %s", acc.IBAN, acc.Kind, acc.Currency, u.Email)
}

func (b *Bank) createCard(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil {
		return
	}
	acc := u.FindAccount(cmd.Account)
	if acc == nil {
		log.Printf("Warning: %s does not own account %s", u.Email, cmd.Account)
		return
	}

	kind := domain.CardClassic
	if cmd.Kind == CmdCreateOneTimeCard {
		kind = domain.CardOneTime
	}
	card, err := domain.NewCard(kind, b.numbers.NextCardNumber())
	if err != nil {
		log.Printf("ERROR: failed to create card for %s: %v", acc.IBAN, err)
		return
	}
	acc.AddCard(card)

	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewCardCreated(m, acc.IBAN, card.Number, u.Email)
	})
}

func (b *Bank) addFunds(cmd Command) {
	_, acc := b.findAccount(cmd.Account)
	if acc == nil {
		return
	}
	if err := acc.Deposit(cmd.Amount); err != nil {
		log.Printf("Warning: addFunds to %s rejected: %v", acc.IBAN, err)
	}
}

func (b *Bank) deleteAccount(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil {
		return
	}
	acc := u.FindAccount(cmd.Account)
	if acc == nil || !acc.Balance.IsZero() {
		b.metrics.ErrorResult(cmd.Kind)
		b.emit(cmd.Kind, cmd.Timestamp, DeleteAccountOutput{Error: MsgAccountNotDeletable, Timestamp: cmd.Timestamp})
		return
	}
	u.RemoveAccount(acc.IBAN)
	b.emit(cmd.Kind, cmd.Timestamp, DeleteAccountOutput{Success: MsgAccountDeleted, Timestamp: cmd.Timestamp})
	log.Printf("Account %s deleted for %s", acc.IBAN, u.Email)
}

func (b *Bank) deleteCard(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil {
		return
	}
	acc, card := u.FindCard(cmd.CardNumber)
	if card == nil {
		return
	}
	acc.RemoveCard(card.Number)
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewCardDeleted(m, acc.IBAN, card.Number, u.Email)
	})
}

func (b *Bank) setMinimumBalance(cmd Command) {
	_, acc := b.findAccount(cmd.Account)
	if acc == nil {
		return
	}
	if err := acc.SetMinimumBalance(cmd.Amount); err != nil {
		log.Printf("Warning: setMinimumBalance on %s rejected: %v", acc.IBAN, err)
	}
}

func (b *Bank) setAlias(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil || cmd.Alias == "" {
		return
	}
	acc := u.AccountByIBAN(cmd.Account)
	if acc == nil {
		return
	}
	acc.Alias = cmd.Alias
}

// checkCardStatus pushes the balance-derived status onto the card's
// account. A card that freezes here gets a ledger note.
func (b *Bank) checkCardStatus(cmd Command) {
	u, acc, card, err := b.lookupCard(cmd.CardNumber)
	if err != nil {
		log.Printf("Warning: card status: %v", err)
		b.emitError(cmd.Kind, cmd.Timestamp, MsgCardNotFound)
		return
	}
	before := card.Status
	acc.RefreshCardStatus(b.band)
	if before != domain.CardFrozen && card.IsFrozen() {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewCardStatus(m, card.Number, events.DescCardFreezing)
		})
	}
}
