package app

import (
	"log"

	"github.com/shopspring/decimal"

	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/shared"
	"bank-ledger/store"
)

func (b *Bank) payOnline(cmd Command) {
	if !cmd.Amount.IsPositive() {
		return
	}
	u := b.findUser(cmd.Email)
	var (
		acc  *domain.Account
		card *domain.Card
	)
	if u != nil {
		acc, card = u.FindCard(cmd.CardNumber)
	}
	if card == nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgCardNotFound)
		return
	}
	if err := card.CheckUsable(); err != nil {
		log.Printf("Warning: %s refused: %v", cmd.Kind, err)
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewCardStatus(m, card.Number, events.DescCardFrozen)
		})
		return
	}

	amount := b.convert(cmd.Amount, shared.ParseCurrency(cmd.Currency), acc.Currency)
	amountRef := b.toReference(amount, acc.Currency)

	// Cashback state moves with the attempt, whether or not the debit
	// goes through.
	cashbackRef := decimal.Zero
	if merchant, err := b.merchants.Lookup(cmd.Commerciant); err == nil && merchant.Strategy != "" {
		cashbackRef, err = b.cashback.Calculate(acc.IBAN, u.Plan.Type, merchant, amountRef)
		if err != nil {
			log.Printf("Warning: no cashback for %s: %v", acc.IBAN, err)
			cashbackRef = decimal.Zero
		}
	}

	feeRef := u.Plan.Fee(amountRef)
	fee := b.fromReference(feeRef, acc.Currency)
	total := amount.Add(fee)

	if !acc.CanCover(total) {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, acc.IBAN)
		})
		return
	}
	if err := acc.Withdraw(total); err != nil {
		log.Printf("ERROR: payOnline debit on %s failed: %v", acc.IBAN, err)
		return
	}
	b.metrics.FeeCharged(feeRef)
	if cashbackRef.IsPositive() {
		if err := acc.Deposit(b.fromReference(cashbackRef, acc.Currency)); err == nil {
			b.metrics.CashbackPaid(cashbackRef)
		}
	}

	description := cmd.Description
	if description == "" {
		description = events.DescCardPayment
	}
	if err := b.payments.Record(store.MerchantPayment{
		Account:     acc.IBAN,
		Timestamp:   cmd.Timestamp,
		Description: description,
		Amount:      amount,
		Commerciant: cmd.Commerciant,
	}); err != nil {
		log.Printf("Warning: merchant payment not logged: %v", err)
	}

	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewOnlinePayment(m, acc.IBAN, description, amount, acc.Currency, cmd.Commerciant)
	})
	b.checkGoldUpgrade(u, acc, cmd.Timestamp)

	if card.IsOneTime() {
		b.rotateCard(u, acc, card, cmd.Timestamp)
	}
}

// rotateCard retires a used one-time card number and issues a fresh one on
// the same card.
func (b *Bank) rotateCard(u *domain.User, acc *domain.Account, card *domain.Card, timestamp int) {
	old, err := card.Renumber(b.numbers.NextCardNumber())
	if err != nil {
		log.Printf("ERROR: failed to renumber card %s: %v", card.Number, err)
		return
	}
	b.record(u, timestamp, func(m events.Meta) events.Event {
		return events.NewCardDeleted(m, acc.IBAN, old, u.Email)
	})
	b.record(u, timestamp, func(m events.Meta) events.Event {
		return events.NewCardCreated(m, acc.IBAN, card.Number, u.Email)
	})
}

func (b *Bank) sendMoney(cmd Command) {
	sender := b.findUser(cmd.Email)
	if sender == nil {
		return
	}
	src := sender.FindAccount(cmd.Account)
	if src == nil {
		return
	}
	receiver, dst := b.findAccount(cmd.Receiver)
	if dst == nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgUserNotFound)
		return
	}
	if !cmd.Amount.IsPositive() {
		return
	}

	// The fee is charged in the sender's currency; only the threshold test
	// looks at the reference amount.
	fee := decimal.Zero
	if sender.Plan.FeeApplies(b.toReference(cmd.Amount, src.Currency)) {
		fee = cmd.Amount.Mul(sender.Plan.FeeRate)
	}
	total := cmd.Amount.Add(fee)

	if !src.CanCover(total) {
		b.record(sender, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, src.IBAN)
		})
		return
	}
	if err := src.Withdraw(total); err != nil {
		log.Printf("ERROR: sendMoney debit on %s failed: %v", src.IBAN, err)
		return
	}
	credited := b.convert(cmd.Amount, src.Currency, dst.Currency)
	if err := dst.Deposit(credited); err != nil {
		log.Printf("ERROR: sendMoney credit on %s failed: %v", dst.IBAN, err)
	}
	b.metrics.FeeCharged(b.toReference(fee, src.Currency))

	b.record(sender, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewTransfer(m, cmd.Description, src.IBAN, dst.IBAN, cmd.Amount, src.Currency, events.Sent)
	})
	b.record(receiver, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewTransfer(m, cmd.Description, src.IBAN, dst.IBAN, credited, dst.Currency, events.Received)
	})
	b.checkGoldUpgrade(sender, src, cmd.Timestamp)
	b.checkGoldUpgrade(receiver, dst, cmd.Timestamp)
}

// cashWithdrawal takes an amount in the reference currency.
func (b *Bank) cashWithdrawal(cmd Command) {
	u := b.findUser(cmd.Email)
	var (
		acc  *domain.Account
		card *domain.Card
	)
	if u != nil {
		acc, card = u.FindCard(cmd.CardNumber)
	}
	if card == nil {
		b.emitError(cmd.Kind, cmd.Timestamp, MsgCardNotFound)
		return
	}
	if !cmd.Amount.IsPositive() {
		return
	}
	if err := card.CheckUsable(); err != nil {
		log.Printf("Warning: %s refused: %v", cmd.Kind, err)
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewCardStatus(m, card.Number, events.DescCardFrozen)
		})
		return
	}

	feeRef := u.Plan.Fee(cmd.Amount)
	total := b.fromReference(cmd.Amount.Add(feeRef), acc.Currency)
	if !acc.CanCover(total) {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, acc.IBAN)
		})
		return
	}
	if err := acc.Withdraw(total); err != nil {
		log.Printf("ERROR: cash withdrawal on %s failed: %v", acc.IBAN, err)
		return
	}
	b.metrics.FeeCharged(feeRef)
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewWithdrawCash(m, acc.IBAN, cmd.Amount)
	})
}

func (b *Bank) upgradePlan(cmd Command) {
	u, acc := b.findAccount(cmd.Account)
	if acc == nil {
		log.Printf("Warning: upgradePlan for unknown account %s", cmd.Account)
		return
	}
	target, err := domain.ParsePlanType(cmd.NewPlanType)
	if err != nil {
		log.Printf("Warning: upgradePlan for %s: %v", u.Email, err)
		return
	}
	feeRef := domain.UpgradeFee(u.Plan.Type, target)
	if feeRef.IsZero() {
		return
	}
	fee := b.fromReference(feeRef, acc.Currency)
	if !acc.CanCover(fee) {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, acc.IBAN)
		})
		return
	}
	if err := acc.Withdraw(fee); err != nil {
		log.Printf("ERROR: upgrade fee on %s failed: %v", acc.IBAN, err)
		return
	}
	if err := u.SetPlan(target); err != nil {
		log.Printf("ERROR: %v", err)
		return
	}
	b.metrics.FeeCharged(feeRef)
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewPlanUpgraded(m, acc.IBAN, string(target))
	})
	log.Printf("User %s upgraded to %s", u.Email, target)
}

// checkGoldUpgrade moves a user to gold once enough large entries sit in
// their ledger. Every entry is measured in the reference currency.
func (b *Bank) checkGoldUpgrade(u *domain.User, acc *domain.Account, timestamp int) {
	if u.Plan.Type == domain.PlanGold {
		return
	}
	entries, err := b.ledger.GetEvents(u.Email)
	if err != nil {
		log.Printf("ERROR: gold check for %s: %v", u.Email, err)
		return
	}
	threshold := b.cfg.GoldThreshold()
	qualifying := 0
	for _, ev := range entries {
		var amount decimal.Decimal
		var currency shared.Currency
		switch e := ev.(type) {
		case events.OnlinePaymentEvent:
			amount, currency = e.Amount, e.Currency
		case events.SplitPayEvent:
			amount, currency = e.TotalAmount, e.Currency
		case events.TransferEvent:
			amount, currency = e.Amount, e.Currency
		default:
			continue
		}
		if b.toReference(amount, currency).GreaterThanOrEqual(threshold) {
			qualifying++
		}
	}
	if qualifying < b.cfg.Plans.GoldUpgradeCount {
		return
	}
	if err := u.SetPlan(domain.PlanGold); err != nil {
		log.Printf("ERROR: %v", err)
		return
	}
	b.record(u, timestamp, func(m events.Meta) events.Event {
		return events.NewPlanUpgraded(m, acc.IBAN, string(domain.PlanGold))
	})
	log.Printf("User %s automatically upgraded to gold", u.Email)
}
