package app

import (
	"log"

	"bank-ledger/events"
	"bank-ledger/store"
)

// reportKinds are the ledger entries a classic report lists.
var reportKinds = []events.EventType{
	events.AccountCreatedType,
	events.TransferType,
	events.CardCreatedType,
	events.OnlinePaymentType,
}

func (b *Bank) printTransactions(cmd Command) {
	u := b.findUser(cmd.Email)
	if u == nil {
		return
	}
	entries, err := b.ledger.GetEvents(u.Email)
	if err != nil {
		log.Printf("ERROR: failed to read ledger for %s: %v", u.Email, err)
		return
	}
	b.emit(cmd.Kind, cmd.Timestamp, entries)
}

func (b *Bank) report(cmd Command) {
	u, acc, err := b.lookupAccount(cmd.Account)
	if err != nil {
		log.Printf("Warning: report: %v", err)
		b.emitError(cmd.Kind, cmd.Timestamp, MsgAccountNotFound)
		return
	}
	entries, err := b.ledger.GetEventsBetween(u.Email, cmd.StartTimestamp, cmd.EndTimestamp, reportKinds...)
	if err != nil {
		log.Printf("Warning: report for %s: %v", acc.IBAN, err)
		entries = []events.Event{}
	}
	b.emit(cmd.Kind, cmd.Timestamp, ReportOutput{
		IBAN:         acc.IBAN,
		Balance:      acc.Balance,
		Currency:     acc.Currency,
		Transactions: entries,
	})
}

func (b *Bank) spendingsReport(cmd Command) {
	_, acc, err := b.lookupAccount(cmd.Account)
	if err != nil {
		log.Printf("Warning: spendings report: %v", err)
		b.emitError(cmd.Kind, cmd.Timestamp, MsgAccountNotFound)
		return
	}
	if acc.IsSavings() {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgSavingsReport)
		return
	}
	payments, err := b.payments.Between(acc.IBAN, cmd.StartTimestamp, cmd.EndTimestamp)
	if err != nil {
		log.Printf("Warning: spendings report for %s: %v", acc.IBAN, err)
		payments = []store.MerchantPayment{}
	}
	b.emit(cmd.Kind, cmd.Timestamp, SpendingsReportOutput{
		IBAN:         acc.IBAN,
		Balance:      acc.Balance,
		Currency:     acc.Currency,
		Transactions: payments,
		Commerciants: store.Totals(payments),
	})
}
