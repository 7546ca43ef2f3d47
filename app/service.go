package app

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"bank-ledger/cashback"
	"bank-ledger/config"
	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/exchange"
	"bank-ledger/metrics"
	"bank-ledger/shared"
	"bank-ledger/store"
)

// Bank is the simulation context for one day. It owns every piece of state
// the handlers read or mutate; nothing lives in package-level variables.
// Commands run strictly one after another.
type Bank struct {
	cfg       config.Config
	reference shared.Currency
	band      decimal.Decimal

	users     []*domain.User
	rates     *exchange.Rates
	merchants *domain.MerchantRegistry
	cashback  *cashback.Engine
	numbers   *domain.NumberGenerator

	ledger   store.Ledger
	payments store.PaymentLog
	metrics  *metrics.Recorder

	results   []Result
	processed int
	handlers  map[string]func(Command)
}

type resetter interface {
	Reset()
}

func NewBank(cfg config.Config, ledger store.Ledger, payments store.PaymentLog, rec *metrics.Recorder) *Bank {
	if ledger == nil || payments == nil {
		log.Fatal("FATAL: Ledger and PaymentLog must not be nil")
	}
	if rec == nil {
		rec = metrics.NewRecorder()
	}
	b := &Bank{
		cfg:       cfg,
		reference: cfg.Reference(),
		band:      cfg.WarningBand(),
		users:     make([]*domain.User, 0),
		rates:     exchange.NewRates(),
		merchants: domain.NewMerchantRegistry(),
		cashback:  cashback.NewEngine(),
		numbers:   domain.NewNumberGenerator(cfg.IDs.Seed),
		ledger:    ledger,
		payments:  payments,
		metrics:   rec,
		results:   make([]Result, 0),
	}
	b.handlers = map[string]func(Command){
		CmdPrintUsers:         b.printUsers,
		CmdAddAccount:         b.addAccount,
		CmdCreateCard:         b.createCard,
		CmdCreateOneTimeCard:  b.createCard,
		CmdAddFunds:           b.addFunds,
		CmdDeleteAccount:      b.deleteAccount,
		CmdDeleteCard:         b.deleteCard,
		CmdSetMinimumBalance:  b.setMinimumBalance,
		CmdSetAlias:           b.setAlias,
		CmdPayOnline:          b.payOnline,
		CmdSendMoney:          b.sendMoney,
		CmdSplitPayment:       b.splitPayment,
		CmdAcceptSplitPayment: b.acceptSplitPayment,
		CmdRejectSplitPayment: b.rejectSplitPayment,
		CmdCheckCardStatus:    b.checkCardStatus,
		CmdPrintTransactions:  b.printTransactions,
		CmdReport:             b.report,
		CmdSpendingsReport:    b.spendingsReport,
		CmdAddInterest:        b.addInterest,
		CmdChangeInterestRate: b.changeInterestRate,
		CmdWithdrawSavings:    b.withdrawSavings,
		CmdUpgradePlan:        b.upgradePlan,
		CmdCashWithdrawal:     b.cashWithdrawal,
	}
	return b
}

// Reset starts a fresh day: merchants, cashback state, rates, users,
// results and the number generator all go back to their initial state, as
// do the stores when they support it.
func (b *Bank) Reset() {
	b.merchants.Reset()
	b.cashback.Reset()
	b.rates.Reset()
	b.numbers.Reset()
	b.users = make([]*domain.User, 0)
	b.results = make([]Result, 0)
	b.processed = 0
	if r, ok := b.ledger.(resetter); ok {
		r.Reset()
	}
	if r, ok := b.payments.(resetter); ok {
		r.Reset()
	}
}

// Load resets the bank and installs the day's users, rates and merchants.
// Bad rates and merchants are skipped with a warning.
func (b *Bank) Load(day Day) error {
	b.Reset()

	for _, rec := range day.Users {
		if strings.TrimSpace(rec.Email) == "" {
			return fmt.Errorf("user %s %s has no email", rec.FirstName, rec.LastName)
		}
		if b.findUser(rec.Email) != nil {
			return fmt.Errorf("duplicate user email %s", rec.Email)
		}
		b.users = append(b.users, domain.NewUser(rec.FirstName, rec.LastName, rec.Email, rec.BirthDate, rec.Occupation))
	}
	b.metrics.SetUsers(len(b.users))

	for _, rec := range day.Rates {
		if err := b.rates.Add(rec.From, rec.To, rec.Rate); err != nil {
			log.Printf("Warning: skipping exchange rate: %v", err)
		}
	}

	for _, rec := range day.Merchants {
		strategy, err := domain.ParseCashbackStrategy(rec.Strategy)
		if err != nil {
			log.Printf("Warning: merchant %s has no usable cashback strategy: %v", rec.Name, err)
		}
		m := &domain.Merchant{ID: rec.ID, Name: rec.Name, Account: rec.Account, Type: rec.Type, Strategy: strategy}
		if err := b.merchants.Register(m); err != nil {
			log.Printf("Warning: skipping merchant %d: %v", rec.ID, err)
		}
	}

	log.Printf("Day loaded: %d users, %d rate edges, %d merchants", len(b.users), b.rates.Len(), b.merchants.Len())
	return nil
}

// StartDay loads the day and replays its commands in order.
func (b *Bank) StartDay(day Day) ([]Result, error) {
	if err := b.Load(day); err != nil {
		return nil, fmt.Errorf("failed to load day: %w", err)
	}
	for _, cmd := range day.Commands {
		b.Dispatch(cmd)
	}
	log.Printf("Day finished: %d commands processed, %d results", b.processed, len(b.results))
	return b.Results(), nil
}

// Dispatch runs the handler for cmd.Kind. Unknown kinds are ignored. No
// error or panic escapes a handler.
func (b *Bank) Dispatch(cmd Command) {
	b.processed++

	handler, ok := b.handlers[cmd.Kind]
	if !ok {
		log.Printf("Warning: ignoring unknown command %q at timestamp %d", cmd.Kind, cmd.Timestamp)
		b.metrics.CommandIgnored()
		return
	}
	b.metrics.CommandDispatched(cmd.Kind)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("CRITICAL: handler %s panicked at timestamp %d: %v", cmd.Kind, cmd.Timestamp, r)
		}
	}()
	handler(cmd)
}

func (b *Bank) Results() []Result {
	out := make([]Result, len(b.results))
	copy(out, b.results)
	return out
}

// Processed is the number of commands dispatched so far, known or not.
func (b *Bank) Processed() int {
	return b.processed
}

func (b *Bank) Users() []*domain.User {
	return b.users
}

func (b *Bank) Rates() *exchange.Rates {
	return b.rates
}

// History returns the ledger of the user with the given email.
func (b *Bank) History(email string) ([]events.Event, error) {
	u := b.findUser(email)
	if u == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, email)
	}
	return b.ledger.GetEvents(u.Email)
}

// Account returns the account with the given IBAN or alias.
func (b *Bank) Account(identifier string) (*domain.Account, error) {
	_, acc, err := b.lookupAccount(identifier)
	return acc, err
}

// Card returns the card with the given number.
func (b *Bank) Card(number string) (*domain.Card, error) {
	_, _, card, err := b.lookupCard(number)
	return card, err
}

// --- Lookups ---

func (b *Bank) lookupAccount(identifier string) (*domain.User, *domain.Account, error) {
	u, acc := b.findAccount(identifier)
	if acc == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, identifier)
	}
	return u, acc, nil
}

func (b *Bank) lookupCard(number string) (*domain.User, *domain.Account, *domain.Card, error) {
	u, acc, card := b.findCard(number)
	if card == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", domain.ErrCardNotFound, number)
	}
	return u, acc, card, nil
}

func (b *Bank) findUser(email string) *domain.User {
	for _, u := range b.users {
		if u.HasEmail(email) {
			return u
		}
	}
	return nil
}

// findAccount resolves an IBAN or alias across every user.
func (b *Bank) findAccount(identifier string) (*domain.User, *domain.Account) {
	for _, u := range b.users {
		if acc := u.FindAccount(identifier); acc != nil {
			return u, acc
		}
	}
	return nil, nil
}

func (b *Bank) findAccountByIBAN(iban string) (*domain.User, *domain.Account) {
	for _, u := range b.users {
		if acc := u.AccountByIBAN(iban); acc != nil {
			return u, acc
		}
	}
	return nil, nil
}

func (b *Bank) findCard(number string) (*domain.User, *domain.Account, *domain.Card) {
	for _, u := range b.users {
		if acc, card := u.FindCard(number); card != nil {
			return u, acc, card
		}
	}
	return nil, nil, nil
}

// --- Output ---

func (b *Bank) emit(command string, timestamp int, output interface{}) {
	b.results = append(b.results, Result{Command: command, Output: output, Timestamp: timestamp})
}

func (b *Bank) emitError(command string, timestamp int, description string) {
	b.metrics.ErrorResult(command)
	b.emit(command, timestamp, ErrorOutput{Description: description, Timestamp: timestamp})
}

// record appends one entry to the user's ledger. build receives the
// position the entry will take.
func (b *Bank) record(u *domain.User, timestamp int, build func(events.Meta) events.Event) {
	version := b.ledger.Version(u.Email)
	ev := build(events.Meta{Owner: u.Email, Version: version + 1, Timestamp: timestamp})
	if err := b.ledger.SaveEvents(u.Email, version, []events.Event{ev}); err != nil {
		log.Printf("ERROR: failed to record %s for %s: %v", ev.GetBase().Type, u.Email, err)
		return
	}
	b.metrics.LedgerEntry(string(ev.GetBase().Type))
}

// --- Currency helpers ---

func (b *Bank) convert(amount decimal.Decimal, from, to shared.Currency) decimal.Decimal {
	if from.Equal(to) {
		return amount
	}
	return b.rates.Convert(amount, from, to)
}

func (b *Bank) toReference(amount decimal.Decimal, from shared.Currency) decimal.Decimal {
	return b.convert(amount, from, b.reference)
}

func (b *Bank) fromReference(amount decimal.Decimal, to shared.Currency) decimal.Decimal {
	return b.convert(amount, b.reference, to)
}
