package app

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/shared"
)

const splitPrecision = 16

func (b *Bank) splitPayment(cmd Command) {
	if len(cmd.Accounts) == 0 {
		return
	}
	if strings.EqualFold(cmd.SplitPaymentType, SplitCustom) {
		b.customSplit(cmd)
		return
	}
	b.equalSplit(cmd)
}

// equalSplit debits every listed account for its share on its own. A
// failing account does not undo the ones already charged.
func (b *Bank) equalSplit(cmd Command) {
	if !cmd.Amount.IsPositive() {
		return
	}
	currency := shared.ParseCurrency(cmd.Currency)
	share := cmd.Amount.DivRound(decimal.NewFromInt(int64(len(cmd.Accounts))), splitPrecision)

	for _, id := range cmd.Accounts {
		u, acc := b.findAccount(id)
		if acc == nil {
			b.emitError(cmd.Kind, cmd.Timestamp, MsgAccountNotFound+": "+id)
			continue
		}
		due := b.convert(share, currency, acc.Currency)
		if !acc.CanCover(due) {
			b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
				return events.NewFailedSplitPay(m, acc.IBAN, cmd.Accounts, due, cmd.Amount, currency)
			})
			continue
		}
		if err := acc.Withdraw(due); err != nil {
			log.Printf("ERROR: split debit on %s failed: %v", acc.IBAN, err)
			continue
		}
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewSplitPay(m, cmd.Accounts, share, cmd.Amount, currency)
		})
		b.checkGoldUpgrade(u, acc, cmd.Timestamp)
	}
}

// customSplit only queues requests; nothing is debited until each owner
// accepts. Without explicit per-account amounts every request is zero.
func (b *Bank) customSplit(cmd Command) {
	currency := shared.ParseCurrency(cmd.Currency)
	splitID := uuid.New()
	amounts := make([]decimal.Decimal, len(cmd.Accounts))
	if len(cmd.AmountForUsers) == len(cmd.Accounts) {
		copy(amounts, cmd.AmountForUsers)
	}

	participants := make([]*domain.User, 0, len(cmd.Accounts))
	seen := make(map[*domain.User]bool)
	for i, id := range cmd.Accounts {
		u, acc := b.findAccount(id)
		if acc == nil || !acc.IsClassic() {
			b.emitError(cmd.Kind, cmd.Timestamp, MsgAccountNotFound+": "+id)
			continue
		}
		u.EnqueueRequest(domain.PendingRequest{
			SplitID:   splitID,
			IBAN:      acc.IBAN,
			Amount:    amounts[i],
			Currency:  currency,
			Timestamp: cmd.Timestamp,
		})
		if !seen[u] {
			seen[u] = true
			participants = append(participants, u)
		}
	}

	for _, u := range participants {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNullPayment(m, splitID, cmd.Accounts, amounts, cmd.Amount, currency)
		})
	}
}

func (b *Bank) acceptSplitPayment(cmd Command) {
	u, req, ok := b.popRequest(cmd.Email)
	if !ok {
		return
	}
	acc := u.AccountByIBAN(req.IBAN)
	if acc == nil {
		log.Printf("Warning: split request %s refers to a closed account %s", req.SplitID, req.IBAN)
		return
	}
	due := b.convert(req.Amount, req.Currency, acc.Currency)
	if !acc.CanCover(due) {
		b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
			return events.NewNoFunds(m, acc.IBAN)
		})
		return
	}
	if err := acc.Withdraw(due); err != nil {
		log.Printf("ERROR: split settlement on %s failed: %v", acc.IBAN, err)
		return
	}
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewCustomSplit(m, req.SplitID, acc.IBAN, due, acc.Currency, false)
	})
}

func (b *Bank) rejectSplitPayment(cmd Command) {
	u, req, ok := b.popRequest(cmd.Email)
	if !ok {
		return
	}
	b.record(u, cmd.Timestamp, func(m events.Meta) events.Event {
		return events.NewCustomSplit(m, req.SplitID, req.IBAN, req.Amount, req.Currency, true)
	})
}

func (b *Bank) popRequest(email string) (*domain.User, domain.PendingRequest, bool) {
	u := b.findUser(email)
	if u == nil {
		return nil, domain.PendingRequest{}, false
	}
	req, err := u.PopRequest()
	if err != nil {
		if !errors.Is(err, domain.ErrNoPendingRequest) {
			log.Printf("ERROR: %v", err)
		}
		return nil, domain.PendingRequest{}, false
	}
	return u, req, true
}
