package app_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-ledger/app"
	"bank-ledger/config"
	"bank-ledger/domain"
	"bank-ledger/events"
	"bank-ledger/metrics"
	"bank-ledger/shared"
	"bank-ledger/store"
)

// Helper to create decimals in tests
func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func person(first, email, occupation, birth string) app.UserRecord {
	born, err := time.Parse("2006-01-02", birth)
	if err != nil {
		panic(err)
	}
	return app.UserRecord{FirstName: first, LastName: "Popescu", Email: email, BirthDate: born, Occupation: occupation}
}

// setup loads the day's users, rates and merchants into a fresh bank.
func setup(t *testing.T, day app.Day) (*app.Bank, *store.InMemoryLedger, *store.InMemoryPaymentLog) {
	t.Helper()
	ledger := store.NewInMemoryLedger()
	payments := store.NewInMemoryPaymentLog()
	bank := app.NewBank(config.DefaultConfig(), ledger, payments, metrics.NewRecorder())
	require.NoError(t, bank.Load(day))
	return bank, ledger, payments
}

func run(bank *app.Bank, cmds ...app.Command) {
	for _, cmd := range cmds {
		bank.Dispatch(cmd)
	}
}

func userOf(t *testing.T, bank *app.Bank, email string) *domain.User {
	t.Helper()
	for _, u := range bank.Users() {
		if u.HasEmail(email) {
			return u
		}
	}
	t.Fatalf("user %s not loaded", email)
	return nil
}

// openAccount adds a funded account and returns it.
func openAccount(t *testing.T, bank *app.Bank, ts int, email, kind, currency string, funds string) *domain.Account {
	t.Helper()
	cmd := app.Command{Kind: app.CmdAddAccount, Timestamp: ts, Email: email, AccountType: kind, Currency: currency}
	if kind == "savings" {
		cmd.InterestRate = decPtr("0.1")
	}
	bank.Dispatch(cmd)
	u := userOf(t, bank, email)
	require.NotEmpty(t, u.Accounts)
	acc := u.Accounts[len(u.Accounts)-1]
	if funds != "" {
		bank.Dispatch(app.Command{Kind: app.CmdAddFunds, Timestamp: ts, Account: acc.IBAN, Amount: dec(funds)})
	}
	return acc
}

func openCard(t *testing.T, bank *app.Bank, ts int, email string, acc *domain.Account, kind string) *domain.Card {
	t.Helper()
	bank.Dispatch(app.Command{Kind: kind, Timestamp: ts, Email: email, Account: acc.IBAN})
	require.NotEmpty(t, acc.Cards)
	return acc.Cards[len(acc.Cards)-1]
}

func entries(t *testing.T, ledger store.Ledger, email string) []events.Event {
	t.Helper()
	evs, err := ledger.GetEvents(email)
	require.NoError(t, err)
	return evs
}

func last(t *testing.T, ledger store.Ledger, email string) events.Event {
	t.Helper()
	evs := entries(t, ledger, email)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func assertBalance(t *testing.T, acc *domain.Account, want string) {
	t.Helper()
	assert.True(t, acc.Balance.Equal(dec(want)), "expected balance %s on %s, got %s", want, acc.IBAN, acc.Balance)
}

func errorOf(t *testing.T, r app.Result) app.ErrorOutput {
	t.Helper()
	out, ok := r.Output.(app.ErrorOutput)
	require.True(t, ok, "expected ErrorOutput, got %T", r.Output)
	return out
}

func TestBank_Scenarios(t *testing.T) {
	t.Run("CashWithdrawalOnStudentPlan", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")}})
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")
		card := openCard(t, bank, 2, "ana@bank.ro", acc, app.CmdCreateCard)
		assertBalance(t, acc, "100")

		run(bank, app.Command{Kind: app.CmdCashWithdrawal, Timestamp: 3, Email: "ana@bank.ro", CardNumber: card.Number, Amount: dec("30")})

		assertBalance(t, acc, "70")
		withdraw, ok := last(t, ledger, "ana@bank.ro").(events.WithdrawCashEvent)
		require.True(t, ok)
		assert.True(t, withdraw.Amount.Equal(dec("30")))
		assert.Equal(t, "Cash withdrawal of 30", withdraw.Description)
		assert.Equal(t, 3, withdraw.Timestamp)
	})

	t.Run("AddInterest", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "engineer", "1990-01-01")}})
		acc := openAccount(t, bank, 1, "ana@bank.ro", "savings", "RON", "200")

		run(bank, app.Command{Kind: app.CmdAddInterest, Timestamp: 2, Account: acc.IBAN})

		assertBalance(t, acc, "220")
		interest, ok := last(t, ledger, "ana@bank.ro").(events.InterestEvent)
		require.True(t, ok)
		assert.Equal(t, "20.00", interest.Amount.StringFixed(2))
		assert.Equal(t, shared.RON, interest.Currency)
	})

	t.Run("PaymentOnFrozenCard", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "engineer", "1990-01-01")}})
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "50")
		card := openCard(t, bank, 2, "ana@bank.ro", acc, app.CmdCreateCard)

		run(bank,
			app.Command{Kind: app.CmdSetMinimumBalance, Timestamp: 3, Account: acc.IBAN, Amount: dec("100")},
			app.Command{Kind: app.CmdCheckCardStatus, Timestamp: 4, CardNumber: card.Number},
		)
		require.True(t, card.IsFrozen())
		freezing, ok := last(t, ledger, "ana@bank.ro").(events.CardStatusEvent)
		require.True(t, ok)
		assert.Equal(t, events.DescCardFreezing, freezing.Description)

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 5, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("50"), Currency: "RON", Commerciant: "Bistro"})

		assertBalance(t, acc, "50")
		frozen, ok := last(t, ledger, "ana@bank.ro").(events.CardStatusEvent)
		require.True(t, ok)
		assert.Equal(t, "The card is frozen", frozen.Description)
		assert.Equal(t, 5, frozen.Timestamp)
	})

	t.Run("EqualSplitAllFail", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{
			person("Ana", "ana@bank.ro", "engineer", "1990-01-01"),
			person("Dan", "dan@bank.ro", "engineer", "1990-01-01"),
			person("Ion", "ion@bank.ro", "engineer", "1990-01-01"),
		}})
		emails := []string{"ana@bank.ro", "dan@bank.ro", "ion@bank.ro"}
		accounts := make([]*domain.Account, 0, 3)
		ibans := make([]string, 0, 3)
		for i, email := range emails {
			acc := openAccount(t, bank, i+1, email, "classic", "RON", "50")
			accounts = append(accounts, acc)
			ibans = append(ibans, acc.IBAN)
		}

		run(bank, app.Command{Kind: app.CmdSplitPayment, Timestamp: 10, SplitPaymentType: app.SplitEqual,
			Accounts: ibans, Amount: dec("300"), Currency: "RON"})

		for i, email := range emails {
			assertBalance(t, accounts[i], "50")
			failed, ok := last(t, ledger, email).(events.FailedSplitPayEvent)
			require.True(t, ok, "expected FailedSplitPayEvent for %s", email)
			assert.True(t, failed.FailedAmount.Equal(dec("100")))
			assert.Equal(t, "Failed split payment of 300.00 RON", failed.Description)
			assert.Equal(t, ibans, failed.InvolvedAccounts)
		}
		assert.Empty(t, bank.Results())
	})

	t.Run("ExchangeRoundTrip", func(t *testing.T) {
		bank, _, _ := setup(t, app.Day{Rates: []app.RateRecord{{From: "RON", To: "EUR", Rate: dec("0.2")}}})

		eur := bank.Rates().Convert(dec("100"), shared.RON, shared.EUR)
		assert.True(t, eur.Equal(dec("20")), "got %s", eur)
		ron := bank.Rates().Convert(eur, shared.EUR, shared.RON)
		assert.True(t, ron.Equal(dec("100")), "got %s", ron)
	})
}

func TestBank_EqualSplit(t *testing.T) {
	bank, ledger, _ := setup(t, app.Day{
		Users: []app.UserRecord{
			person("Ana", "ana@bank.ro", "engineer", "1990-01-01"),
			person("Dan", "dan@bank.ro", "engineer", "1990-01-01"),
		},
		Rates: []app.RateRecord{{From: "RON", To: "EUR", Rate: dec("0.2")}},
	})
	ron1 := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "200")
	ron2 := openAccount(t, bank, 2, "dan@bank.ro", "classic", "RON", "50")
	eur := openAccount(t, bank, 3, "dan@bank.ro", "classic", "EUR", "100")
	ibans := []string{ron1.IBAN, ron2.IBAN, eur.IBAN}

	run(bank, app.Command{Kind: app.CmdSplitPayment, Timestamp: 4, SplitPaymentType: app.SplitEqual,
		Accounts: ibans, Amount: dec("300"), Currency: "RON"})

	t.Run("EachAccountAttemptedIndependently", func(t *testing.T) {
		assertBalance(t, ron1, "100")
		assertBalance(t, ron2, "50")
		assertBalance(t, eur, "80")
	})

	t.Run("LedgerPerAccount", func(t *testing.T) {
		pay, ok := last(t, ledger, "ana@bank.ro").(events.SplitPayEvent)
		require.True(t, ok)
		assert.True(t, pay.Amount.Equal(dec("100")))
		assert.True(t, pay.TotalAmount.Equal(dec("300")))
		assert.Equal(t, "Split payment of 300.00 RON", pay.Description)

		danEntries := entries(t, ledger, "dan@bank.ro")
		var failed, paid int
		for _, ev := range danEntries {
			switch ev.(type) {
			case events.FailedSplitPayEvent:
				failed++
			case events.SplitPayEvent:
				paid++
			}
		}
		assert.Equal(t, 1, failed)
		assert.Equal(t, 1, paid)
	})

	t.Run("SharesAddUpToTotal", func(t *testing.T) {
		bank2, _, _ := setup(t, app.Day{
			Users: []app.UserRecord{person("Ana", "ana@bank.ro", "engineer", "1990-01-01")},
			Rates: []app.RateRecord{{From: "RON", To: "EUR", Rate: dec("0.2")}},
		})
		a := openAccount(t, bank2, 1, "ana@bank.ro", "classic", "RON", "500")
		b := openAccount(t, bank2, 2, "ana@bank.ro", "classic", "RON", "500")
		c := openAccount(t, bank2, 3, "ana@bank.ro", "classic", "EUR", "500")

		run(bank2, app.Command{Kind: app.CmdSplitPayment, Timestamp: 4, SplitPaymentType: app.SplitEqual,
			Accounts: []string{a.IBAN, b.IBAN, c.IBAN}, Amount: dec("300"), Currency: "RON"})

		debited := dec("500").Sub(a.Balance).
			Add(dec("500").Sub(b.Balance)).
			Add(bank2.Rates().Convert(dec("500").Sub(c.Balance), shared.EUR, shared.RON))
		assert.True(t, debited.Equal(dec("300")), "debited %s", debited)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		before := len(bank.Results())
		run(bank, app.Command{Kind: app.CmdSplitPayment, Timestamp: 5, SplitPaymentType: app.SplitEqual,
			Accounts: []string{ron1.IBAN, "RO00MISSING"}, Amount: dec("10"), Currency: "RON"})

		results := bank.Results()
		require.Len(t, results, before+1)
		assert.Equal(t, "Account not found: RO00MISSING", errorOf(t, results[before]).Description)
		assertBalance(t, ron1, "95")
	})

	t.Run("NonPositiveAmountIgnored", func(t *testing.T) {
		before := map[string]int{
			"ana@bank.ro": len(entries(t, ledger, "ana@bank.ro")),
			"dan@bank.ro": len(entries(t, ledger, "dan@bank.ro")),
		}
		balances := []decimal.Decimal{ron1.Balance, ron2.Balance, eur.Balance}

		run(bank,
			app.Command{Kind: app.CmdSplitPayment, Timestamp: 20, SplitPaymentType: app.SplitEqual,
				Accounts: ibans, Amount: dec("-30"), Currency: "RON"},
			app.Command{Kind: app.CmdSplitPayment, Timestamp: 21, SplitPaymentType: app.SplitEqual,
				Accounts: ibans, Amount: decimal.Zero, Currency: "RON"},
		)

		for email, n := range before {
			assert.Len(t, entries(t, ledger, email), n)
		}
		for i, acc := range []*domain.Account{ron1, ron2, eur} {
			assert.True(t, acc.Balance.Equal(balances[i]), "balance of %s changed", acc.IBAN)
		}
	})
}

func TestBank_CustomSplit(t *testing.T) {
	bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{
		person("Ana", "ana@bank.ro", "engineer", "1990-01-01"),
		person("Dan", "dan@bank.ro", "engineer", "1990-01-01"),
	}})
	ana := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")
	dan := openAccount(t, bank, 2, "dan@bank.ro", "classic", "RON", "100")

	run(bank,
		app.Command{Kind: app.CmdSplitPayment, Timestamp: 3, SplitPaymentType: app.SplitCustom,
			Accounts: []string{ana.IBAN, dan.IBAN}, Amount: dec("60"), Currency: "RON",
			AmountForUsers: []decimal.Decimal{dec("10"), dec("50")}},
		app.Command{Kind: app.CmdSplitPayment, Timestamp: 4, SplitPaymentType: app.SplitCustom,
			Accounts: []string{ana.IBAN}, Amount: dec("5"), Currency: "RON",
			AmountForUsers: []decimal.Decimal{dec("5")}},
	)

	t.Run("NothingDebitedUpFront", func(t *testing.T) {
		assertBalance(t, ana, "100")
		assertBalance(t, dan, "100")
		assert.Len(t, userOf(t, bank, "ana@bank.ro").PendingRequests(), 2)
		_, ok := last(t, ledger, "dan@bank.ro").(events.NullPaymentEvent)
		assert.True(t, ok)
	})

	t.Run("AcceptSettlesOldestFirst", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdAcceptSplitPayment, Timestamp: 5, Email: "ana@bank.ro"})

		assertBalance(t, ana, "90")
		settled, ok := last(t, ledger, "ana@bank.ro").(events.CustomSplitEvent)
		require.True(t, ok)
		assert.False(t, settled.Rejected)
		assert.True(t, settled.Amount.Equal(dec("10")))
	})

	t.Run("RejectPopsNext", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdRejectSplitPayment, Timestamp: 6, Email: "ana@bank.ro"})

		assertBalance(t, ana, "90")
		rejected, ok := last(t, ledger, "ana@bank.ro").(events.CustomSplitEvent)
		require.True(t, ok)
		assert.True(t, rejected.Rejected)
		assert.True(t, rejected.Amount.Equal(dec("5")))
		assert.Empty(t, userOf(t, bank, "ana@bank.ro").PendingRequests())
	})

	t.Run("AcceptWithNothingPending", func(t *testing.T) {
		before := len(entries(t, ledger, "ana@bank.ro"))
		run(bank, app.Command{Kind: app.CmdAcceptSplitPayment, Timestamp: 7, Email: "ana@bank.ro"})
		assert.Len(t, entries(t, ledger, "ana@bank.ro"), before)
		assert.Empty(t, bank.Results())
	})

	t.Run("AcceptWithoutFunds", func(t *testing.T) {
		run(bank,
			app.Command{Kind: app.CmdSplitPayment, Timestamp: 8, SplitPaymentType: app.SplitCustom,
				Accounts: []string{dan.IBAN}, Amount: dec("500"), Currency: "RON",
				AmountForUsers: []decimal.Decimal{dec("500")}},
		)
		// dan still has the 50 RON request from the first split queued.
		run(bank, app.Command{Kind: app.CmdAcceptSplitPayment, Timestamp: 9, Email: "dan@bank.ro"})
		assertBalance(t, dan, "50")
		run(bank, app.Command{Kind: app.CmdAcceptSplitPayment, Timestamp: 10, Email: "dan@bank.ro"})
		assertBalance(t, dan, "50")
		_, ok := last(t, ledger, "dan@bank.ro").(events.NoFundsEvent)
		assert.True(t, ok)
	})

	t.Run("NullPaymentOncePerUser", func(t *testing.T) {
		var nulls int
		for _, ev := range entries(t, ledger, "ana@bank.ro") {
			if events.Is(ev, events.NullPaymentType) {
				nulls++
			}
		}
		assert.Equal(t, 2, nulls)
	})
}

func TestBank_PayOnline(t *testing.T) {
	day := app.Day{
		Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")},
		Merchants: []app.MerchantRecord{
			{ID: 1, Name: "Bistro", Account: "RO00BISTRO", Type: "Food", Strategy: "nrOfTransactions"},
		},
	}

	t.Run("CashbackAndSpendingsReport", func(t *testing.T) {
		bank, _, payments := setup(t, day)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "1000")
		card := openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateCard)
		pay := func(ts int, amount, merchant string) app.Command {
			return app.Command{Kind: app.CmdPayOnline, Timestamp: ts, Email: "ana@bank.ro", CardNumber: card.Number,
				Amount: dec(amount), Currency: "RON", Commerciant: merchant, Description: "lunch"}
		}

		run(bank, pay(2, "50", "Bistro"), pay(3, "30", "Bistro"), pay(4, "20", "Tech Shop"))

		// second food purchase earns 2% of 30
		assertBalance(t, acc, "900.6")
		assert.Equal(t, 3, payments.Len())

		run(bank, app.Command{Kind: app.CmdSpendingsReport, Timestamp: 5, Account: acc.IBAN, StartTimestamp: 0, EndTimestamp: 10})
		results := bank.Results()
		require.Len(t, results, 1)
		report, ok := results[0].Output.(app.SpendingsReportOutput)
		require.True(t, ok)
		assert.Len(t, report.Transactions, 3)
		require.Len(t, report.Commerciants, 2)
		assert.Equal(t, "Bistro", report.Commerciants[0].Commerciant)
		assert.True(t, report.Commerciants[0].Total.Equal(dec("80")))
		assert.Equal(t, "Tech Shop", report.Commerciants[1].Commerciant)
		assert.Equal(t, "lunch", report.Transactions[0].Description)
	})

	t.Run("StandardPlanFee", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Dan", "dan@bank.ro", "engineer", "1990-01-01")}})
		acc := openAccount(t, bank, 1, "dan@bank.ro", "classic", "RON", "100")
		card := openCard(t, bank, 1, "dan@bank.ro", acc, app.CmdCreateCard)

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 2, Email: "dan@bank.ro", CardNumber: card.Number,
			Amount: dec("50"), Currency: "RON", Commerciant: "Bistro"})

		assertBalance(t, acc, "49.9")
		payment, ok := last(t, ledger, "dan@bank.ro").(events.OnlinePaymentEvent)
		require.True(t, ok)
		assert.True(t, payment.Amount.Equal(dec("50")))
		assert.Equal(t, "Card payment", payment.Description)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "10")
		card := openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateCard)

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 2, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("50"), Currency: "RON", Commerciant: "Bistro"})

		assertBalance(t, acc, "10")
		noFunds, ok := last(t, ledger, "ana@bank.ro").(events.NoFundsEvent)
		require.True(t, ok)
		assert.Equal(t, "Insufficient funds", noFunds.Description)
	})

	t.Run("ZeroAmountIsNoop", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "10")
		openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateCard)
		before := len(entries(t, ledger, "ana@bank.ro"))

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 2, Email: "ana@bank.ro", CardNumber: "0000", Amount: decimal.Zero})

		assert.Len(t, entries(t, ledger, "ana@bank.ro"), before)
		assert.Empty(t, bank.Results())
	})

	t.Run("OneTimeCardRenumbered", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")
		card := openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateOneTimeCard)
		before := card.Number

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 2, Email: "ana@bank.ro", CardNumber: before,
			Amount: dec("10"), Currency: "RON", Commerciant: "Bistro"})

		assert.NotEqual(t, before, card.Number)
		assert.Len(t, acc.Cards, 1)

		evs := entries(t, ledger, "ana@bank.ro")
		require.GreaterOrEqual(t, len(evs), 3)
		deleted, ok := evs[len(evs)-2].(events.CardLifecycleEvent)
		require.True(t, ok)
		created, ok := evs[len(evs)-1].(events.CardLifecycleEvent)
		require.True(t, ok)
		assert.Equal(t, events.CardDeletedType, deleted.Type)
		assert.Equal(t, before, deleted.Card)
		assert.Equal(t, events.CardCreatedType, created.Type)
		assert.Equal(t, card.Number, created.Card)
		assert.Equal(t, acc.IBAN, deleted.Account)
		assert.Equal(t, deleted.Account, created.Account)
	})

	t.Run("GoldUpgradeOnFifthLargePayment", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "5000")
		card := openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateCard)
		u := userOf(t, bank, "ana@bank.ro")

		for i := 1; i <= 4; i++ {
			run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 1 + i, Email: "ana@bank.ro", CardNumber: card.Number,
				Amount: dec("300"), Currency: "RON", Commerciant: "Mall"})
			require.Equal(t, domain.PlanStudent, u.Plan.Type, "upgraded too early after payment %d", i)
		}
		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 6, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("300"), Currency: "RON", Commerciant: "Mall"})

		assert.Equal(t, domain.PlanGold, u.Plan.Type)
		upgraded, ok := last(t, ledger, "ana@bank.ro").(events.PlanUpgradedEvent)
		require.True(t, ok)
		assert.Equal(t, "gold", upgraded.NewPlanType)
		assert.Equal(t, acc.IBAN, upgraded.AccountIBAN)

		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 7, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("300"), Currency: "RON", Commerciant: "Mall"})
		_, ok = last(t, ledger, "ana@bank.ro").(events.OnlinePaymentEvent)
		assert.True(t, ok, "gold users are not upgraded again")
	})

	t.Run("GoldThresholdInReferenceCurrency", func(t *testing.T) {
		eurDay := day
		eurDay.Rates = []app.RateRecord{{From: "EUR", To: "RON", Rate: dec("5")}}
		bank, _, _ := setup(t, eurDay)
		acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "EUR", "1000")
		card := openCard(t, bank, 1, "ana@bank.ro", acc, app.CmdCreateCard)
		u := userOf(t, bank, "ana@bank.ro")

		// 50 EUR is 250 RON: below the threshold however often it is paid.
		for i := 1; i <= 5; i++ {
			run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 1 + i, Email: "ana@bank.ro", CardNumber: card.Number,
				Amount: dec("50"), Currency: "EUR", Commerciant: "Mall"})
		}
		require.Equal(t, domain.PlanStudent, u.Plan.Type)

		// 100 EUR is 500 RON.
		for i := 1; i <= 4; i++ {
			run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 10 + i, Email: "ana@bank.ro", CardNumber: card.Number,
				Amount: dec("100"), Currency: "EUR", Commerciant: "Mall"})
			require.Equal(t, domain.PlanStudent, u.Plan.Type, "upgraded too early after payment %d", i)
		}
		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 15, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("100"), Currency: "EUR", Commerciant: "Mall"})

		assert.Equal(t, domain.PlanGold, u.Plan.Type)
		assertBalance(t, acc, "250")
	})

	t.Run("CardNotFound", func(t *testing.T) {
		bank, _, _ := setup(t, day)
		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 9, Email: "ana@bank.ro", CardNumber: "4242",
			Amount: dec("10"), Currency: "RON"})

		results := bank.Results()
		require.Len(t, results, 1)
		assert.Equal(t, app.CmdPayOnline, results[0].Command)
		assert.Equal(t, 9, results[0].Timestamp)
		out := errorOf(t, results[0])
		assert.Equal(t, "Card not found", out.Description)
		assert.Equal(t, 9, out.Timestamp)
	})
}

func TestBank_SendMoney(t *testing.T) {
	day := app.Day{
		Users: []app.UserRecord{
			person("Ana", "ana@bank.ro", "engineer", "1990-01-01"),
			person("Dan", "dan@bank.ro", "student", "2001-06-01"),
		},
		Rates: []app.RateRecord{{From: "RON", To: "EUR", Rate: dec("0.2")}},
	}

	t.Run("SuccessWithConversionAndFee", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		src := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "1000")
		dst := openAccount(t, bank, 2, "dan@bank.ro", "classic", "EUR", "")

		run(bank, app.Command{Kind: app.CmdSendMoney, Timestamp: 3, Email: "ana@bank.ro", Account: src.IBAN,
			Receiver: dst.IBAN, Amount: dec("100"), Description: "rent"})

		assertBalance(t, src, "899.8")
		assertBalance(t, dst, "20")

		sent, ok := last(t, ledger, "ana@bank.ro").(events.TransferEvent)
		require.True(t, ok)
		assert.Equal(t, events.Sent, sent.TransferType)
		assert.Equal(t, "100 RON", sent.AmountText)
		assert.Equal(t, "rent", sent.Description)

		received, ok := last(t, ledger, "dan@bank.ro").(events.TransferEvent)
		require.True(t, ok)
		assert.Equal(t, events.Received, received.TransferType)
		assert.Equal(t, "20 EUR", received.AmountText)
	})

	t.Run("ReceiverByAlias", func(t *testing.T) {
		bank, _, _ := setup(t, day)
		src := openAccount(t, bank, 1, "dan@bank.ro", "classic", "RON", "100")
		dst := openAccount(t, bank, 2, "ana@bank.ro", "classic", "RON", "")

		run(bank,
			app.Command{Kind: app.CmdSetAlias, Timestamp: 3, Email: "ana@bank.ro", Account: dst.IBAN, Alias: "savings-pot"},
			app.Command{Kind: app.CmdSendMoney, Timestamp: 4, Email: "dan@bank.ro", Account: src.IBAN,
				Receiver: "savings-pot", Amount: dec("40")},
		)
		// student plan: no fee
		assertBalance(t, src, "60")
		assertBalance(t, dst, "40")
	})

	t.Run("UnknownReceiver", func(t *testing.T) {
		bank, _, _ := setup(t, day)
		src := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")

		run(bank, app.Command{Kind: app.CmdSendMoney, Timestamp: 3, Email: "ana@bank.ro", Account: src.IBAN,
			Receiver: "RO00NOBODY", Amount: dec("10")})

		results := bank.Results()
		require.Len(t, results, 1)
		assert.Equal(t, "User not found", errorOf(t, results[0]).Description)
		assertBalance(t, src, "100")
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		src := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")
		dst := openAccount(t, bank, 2, "dan@bank.ro", "classic", "RON", "")

		run(bank, app.Command{Kind: app.CmdSendMoney, Timestamp: 3, Email: "ana@bank.ro", Account: src.IBAN,
			Receiver: dst.IBAN, Amount: dec("100")})

		assertBalance(t, src, "100")
		_, ok := last(t, ledger, "ana@bank.ro").(events.NoFundsEvent)
		assert.True(t, ok, "fee pushes the total above the balance")
	})
}

func TestBank_Savings(t *testing.T) {
	day := app.Day{Users: []app.UserRecord{
		person("Ana", "ana@bank.ro", "engineer", "1990-01-01"),
		person("Mia", "mia@bank.ro", "student", "2010-05-05"),
	}}

	t.Run("WithdrawSavings", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		savings := openAccount(t, bank, 1, "ana@bank.ro", "savings", "RON", "500")

		run(bank, app.Command{Kind: app.CmdWithdrawSavings, Timestamp: 2, Account: savings.IBAN, Amount: dec("100"), Currency: "RON"})
		_, ok := last(t, ledger, "ana@bank.ro").(events.NoClassicEvent)
		require.True(t, ok)
		assertBalance(t, savings, "500")

		classic := openAccount(t, bank, 3, "ana@bank.ro", "classic", "RON", "")
		run(bank, app.Command{Kind: app.CmdWithdrawSavings, Timestamp: 4, Account: savings.IBAN, Amount: dec("100"), Currency: "RON"})
		assertBalance(t, savings, "400")
		assertBalance(t, classic, "100")
		moved, ok := last(t, ledger, "ana@bank.ro").(events.SavingsWithdrawalEvent)
		require.True(t, ok)
		assert.Equal(t, savings.IBAN, moved.SavingsIBAN)
		assert.Equal(t, classic.IBAN, moved.ClassicIBAN)
		assert.True(t, moved.Amount.Equal(dec("100")))
		assert.Equal(t, "Savings withdrawal", moved.Description)

		run(bank, app.Command{Kind: app.CmdWithdrawSavings, Timestamp: 5, Account: savings.IBAN, Amount: dec("1000"), Currency: "RON"})
		assertBalance(t, savings, "400")
		_, ok = last(t, ledger, "ana@bank.ro").(events.NoFundsEvent)
		assert.True(t, ok)
	})

	t.Run("WithdrawalsStayOutOfReportsAndGoldScan", func(t *testing.T) {
		bank, _, _ := setup(t, day)
		savings := openAccount(t, bank, 1, "ana@bank.ro", "savings", "RON", "5000")
		classic := openAccount(t, bank, 2, "ana@bank.ro", "classic", "RON", "")
		card := openCard(t, bank, 2, "ana@bank.ro", classic, app.CmdCreateCard)
		u := userOf(t, bank, "ana@bank.ro")

		for i := 1; i <= 5; i++ {
			run(bank, app.Command{Kind: app.CmdWithdrawSavings, Timestamp: 2 + i, Account: savings.IBAN, Amount: dec("400"), Currency: "RON"})
		}
		assertBalance(t, savings, "3000")
		assertBalance(t, classic, "2000")

		// A payment runs the gold scan; five large withdrawals must not count.
		run(bank, app.Command{Kind: app.CmdPayOnline, Timestamp: 8, Email: "ana@bank.ro", CardNumber: card.Number,
			Amount: dec("10"), Currency: "RON", Commerciant: "Mall"})
		assert.Equal(t, domain.PlanStandard, u.Plan.Type)

		n := len(bank.Results())
		run(bank, app.Command{Kind: app.CmdReport, Timestamp: 9, Account: classic.IBAN, StartTimestamp: 0, EndTimestamp: 10})
		require.Len(t, bank.Results(), n+1)
		report, ok := bank.Results()[n].Output.(app.ReportOutput)
		require.True(t, ok)
		for _, ev := range report.Transactions {
			assert.False(t, events.Is(ev, events.SavingsWithdrawalType, events.TransferType), "unexpected %s in report", ev.GetBase().Type)
		}
	})

	t.Run("Underage", func(t *testing.T) {
		bank, ledger, _ := setup(t, day)
		savings := openAccount(t, bank, 1, "mia@bank.ro", "savings", "RON", "500")
		openAccount(t, bank, 2, "mia@bank.ro", "classic", "RON", "")

		run(bank, app.Command{Kind: app.CmdWithdrawSavings, Timestamp: 3, Account: savings.IBAN, Amount: dec("100"), Currency: "RON"})

		assertBalance(t, savings, "500")
		underage, ok := last(t, ledger, "mia@bank.ro").(events.UnderageEvent)
		require.True(t, ok)
		assert.Equal(t, "You don't have the minimum age required.", underage.Description)
	})

	t.Run("InterestErrors", func(t *testing.T) {
		bank, _, _ := setup(t, day)
		classic := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "")
		savings := openAccount(t, bank, 2, "ana@bank.ro", "savings", "RON", "")

		run(bank,
			app.Command{Kind: app.CmdAddInterest, Timestamp: 3, Account: classic.IBAN},
			app.Command{Kind: app.CmdChangeInterestRate, Timestamp: 4, Account: classic.IBAN, InterestRate: decPtr("0.2")},
			app.Command{Kind: app.CmdChangeInterestRate, Timestamp: 5, Account: "RO00MISSING", InterestRate: decPtr("0.2")},
			app.Command{Kind: app.CmdChangeInterestRate, Timestamp: 6, Account: savings.IBAN, InterestRate: decPtr("0.2")},
		)

		results := bank.Results()
		require.Len(t, results, 3)
		assert.Equal(t, "This is not a savings account", errorOf(t, results[0]).Description)
		assert.Equal(t, "This is not a savings account", errorOf(t, results[1]).Description)
		assert.Equal(t, "Account not found", errorOf(t, results[2]).Description)
		assert.True(t, savings.Savings.InterestRate.Equal(dec("0.2")))
	})
}

func TestBank_UpgradePlan(t *testing.T) {
	bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "engineer", "1990-01-01")}})
	acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "150")
	u := userOf(t, bank, "ana@bank.ro")

	t.Run("StandardToSilver", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdUpgradePlan, Timestamp: 2, Account: acc.IBAN, NewPlanType: "silver"})

		assertBalance(t, acc, "50")
		assert.Equal(t, domain.PlanSilver, u.Plan.Type)
		upgraded, ok := last(t, ledger, "ana@bank.ro").(events.PlanUpgradedEvent)
		require.True(t, ok)
		assert.Equal(t, "silver", upgraded.NewPlanType)
	})

	t.Run("NoFundsKeepsPlan", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdUpgradePlan, Timestamp: 3, Account: acc.IBAN, NewPlanType: "gold"})

		assertBalance(t, acc, "50")
		assert.Equal(t, domain.PlanSilver, u.Plan.Type)
		_, ok := last(t, ledger, "ana@bank.ro").(events.NoFundsEvent)
		assert.True(t, ok)
	})

	t.Run("DowngradeIsNoop", func(t *testing.T) {
		before := len(entries(t, ledger, "ana@bank.ro"))
		run(bank, app.Command{Kind: app.CmdUpgradePlan, Timestamp: 4, Account: acc.IBAN, NewPlanType: "standard"})

		assert.Equal(t, domain.PlanSilver, u.Plan.Type)
		assert.Len(t, entries(t, ledger, "ana@bank.ro"), before)
	})
}

func TestBank_AccountsAndReports(t *testing.T) {
	bank, ledger, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")}})
	acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "100")
	card := openCard(t, bank, 2, "ana@bank.ro", acc, app.CmdCreateCard)

	t.Run("PrintUsersIsSnapshot", func(t *testing.T) {
		run(bank,
			app.Command{Kind: app.CmdPrintUsers, Timestamp: 3},
			app.Command{Kind: app.CmdAddFunds, Timestamp: 4, Account: acc.IBAN, Amount: dec("20")},
		)
		results := bank.Results()
		require.Len(t, results, 1)
		snaps, ok := results[0].Output.([]domain.UserSnapshot)
		require.True(t, ok)
		require.Len(t, snaps, 1)
		require.Len(t, snaps[0].Accounts, 1)
		assert.True(t, snaps[0].Accounts[0].Balance.Equal(dec("100")))
		assert.Equal(t, card.Number, snaps[0].Accounts[0].Cards[0].CardNumber)
		assertBalance(t, acc, "120")
	})

	t.Run("NonPositiveDepositIgnored", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdAddFunds, Timestamp: 5, Account: acc.IBAN, Amount: dec("-5")})
		assertBalance(t, acc, "120")
	})

	t.Run("Report", func(t *testing.T) {
		n := len(bank.Results())
		run(bank,
			app.Command{Kind: app.CmdPayOnline, Timestamp: 6, Email: "ana@bank.ro", CardNumber: card.Number,
				Amount: dec("20"), Currency: "RON", Commerciant: "Bistro"},
			app.Command{Kind: app.CmdReport, Timestamp: 7, Account: acc.IBAN, StartTimestamp: 2, EndTimestamp: 10},
			app.Command{Kind: app.CmdReport, Timestamp: 8, Account: "RO00MISSING", StartTimestamp: 0, EndTimestamp: 10},
		)
		results := bank.Results()[n:]
		require.Len(t, results, 2)
		report, ok := results[0].Output.(app.ReportOutput)
		require.True(t, ok)
		assert.Equal(t, acc.IBAN, report.IBAN)
		assert.True(t, report.Balance.Equal(dec("100")))
		require.Len(t, report.Transactions, 2)
		assert.True(t, events.Is(report.Transactions[0], events.CardCreatedType))
		assert.True(t, events.Is(report.Transactions[1], events.OnlinePaymentType))
		assert.Equal(t, "Account not found", errorOf(t, results[1]).Description)
	})

	t.Run("PrintTransactions", func(t *testing.T) {
		n := len(bank.Results())
		run(bank, app.Command{Kind: app.CmdPrintTransactions, Timestamp: 9, Email: "ana@bank.ro"})
		results := bank.Results()[n:]
		require.Len(t, results, 1)
		listed, ok := results[0].Output.([]events.Event)
		require.True(t, ok)
		assert.Equal(t, entries(t, ledger, "ana@bank.ro"), listed)
	})

	t.Run("SpendingsReportOnSavings", func(t *testing.T) {
		savings := openAccount(t, bank, 10, "ana@bank.ro", "savings", "RON", "")
		n := len(bank.Results())
		run(bank, app.Command{Kind: app.CmdSpendingsReport, Timestamp: 11, Account: savings.IBAN, StartTimestamp: 0, EndTimestamp: 20})
		results := bank.Results()[n:]
		require.Len(t, results, 1)
		assert.Equal(t, "This kind of report is not supported for a saving account", errorOf(t, results[0]).Description)
	})

	t.Run("DeleteCard", func(t *testing.T) {
		run(bank, app.Command{Kind: app.CmdDeleteCard, Timestamp: 12, Email: "ana@bank.ro", CardNumber: card.Number})
		assert.Empty(t, acc.Cards)
		deleted, ok := last(t, ledger, "ana@bank.ro").(events.CardLifecycleEvent)
		require.True(t, ok)
		assert.Equal(t, events.CardDeletedType, deleted.Type)
		assert.Equal(t, "The card has been destroyed", deleted.Description)
	})

	t.Run("DeleteAccount", func(t *testing.T) {
		n := len(bank.Results())
		empty := openAccount(t, bank, 13, "ana@bank.ro", "classic", "EUR", "")
		run(bank,
			app.Command{Kind: app.CmdDeleteAccount, Timestamp: 14, Email: "ana@bank.ro", Account: acc.IBAN},
			app.Command{Kind: app.CmdDeleteAccount, Timestamp: 15, Email: "ana@bank.ro", Account: empty.IBAN},
		)
		results := bank.Results()[n:]
		require.Len(t, results, 2)

		refused, ok := results[0].Output.(app.DeleteAccountOutput)
		require.True(t, ok)
		assert.Equal(t, "Account couldn't be deleted - see transactions for details", refused.Error)

		deleted, ok := results[1].Output.(app.DeleteAccountOutput)
		require.True(t, ok)
		assert.Equal(t, "Account deleted", deleted.Success)
		assert.Nil(t, userOf(t, bank, "ana@bank.ro").AccountByIBAN(empty.IBAN))
	})

	t.Run("CheckUnknownCard", func(t *testing.T) {
		n := len(bank.Results())
		run(bank, app.Command{Kind: app.CmdCheckCardStatus, Timestamp: 16, CardNumber: "0000"})
		results := bank.Results()[n:]
		require.Len(t, results, 1)
		assert.Equal(t, "Card not found", errorOf(t, results[0]).Description)
	})
}

func TestBank_Dispatch(t *testing.T) {
	t.Run("UnknownCommandIgnored", func(t *testing.T) {
		bank, _, _ := setup(t, app.Day{})
		run(bank, app.Command{Kind: "launchRocket", Timestamp: 1})

		assert.Equal(t, 1, bank.Processed())
		assert.Empty(t, bank.Results())
	})

	t.Run("SilentOnUnknownTargets", func(t *testing.T) {
		bank, _, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")}})
		run(bank,
			app.Command{Kind: app.CmdAddFunds, Timestamp: 1, Account: "RO00MISSING", Amount: dec("10")},
			app.Command{Kind: app.CmdSetAlias, Timestamp: 2, Email: "nobody@bank.ro", Account: "RO00MISSING", Alias: "x"},
			app.Command{Kind: app.CmdSetMinimumBalance, Timestamp: 3, Account: "RO00MISSING", Amount: dec("10")},
			app.Command{Kind: app.CmdAddAccount, Timestamp: 4, Email: "nobody@bank.ro", AccountType: "classic", Currency: "RON"},
		)
		assert.Equal(t, 4, bank.Processed())
		assert.Empty(t, bank.Results())
	})

	t.Run("StartDayResetsState", func(t *testing.T) {
		bank, ledger, _ := setup(t, app.Day{})
		day := app.Day{
			Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")},
			Commands: []app.Command{
				{Kind: app.CmdAddAccount, Timestamp: 1, Email: "ana@bank.ro", AccountType: "classic", Currency: "RON"},
				{Kind: app.CmdPrintUsers, Timestamp: 2},
			},
		}

		first, err := bank.StartDay(day)
		require.NoError(t, err)
		firstIBAN := bank.Users()[0].Accounts[0].IBAN

		second, err := bank.StartDay(day)
		require.NoError(t, err)

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
		assert.Equal(t, 2, bank.Processed())
		assert.Equal(t, firstIBAN, bank.Users()[0].Accounts[0].IBAN, "seeded numbers replay after reset")
		assert.Len(t, entries(t, ledger, "ana@bank.ro"), 1)
	})

	t.Run("DuplicateUserRejected", func(t *testing.T) {
		bank, _, _ := setup(t, app.Day{})
		_, err := bank.StartDay(app.Day{Users: []app.UserRecord{
			person("Ana", "ana@bank.ro", "student", "1999-04-02"),
			person("Ana", "ANA@bank.ro", "student", "1999-04-02"),
		}})
		assert.Error(t, err)
	})
}

func TestBank_Lookups(t *testing.T) {
	bank, _, _ := setup(t, app.Day{Users: []app.UserRecord{person("Ana", "ana@bank.ro", "student", "1999-04-02")}})
	acc := openAccount(t, bank, 1, "ana@bank.ro", "classic", "RON", "")
	card := openCard(t, bank, 2, "ana@bank.ro", acc, app.CmdCreateCard)
	run(bank, app.Command{Kind: app.CmdSetAlias, Timestamp: 3, Email: "ana@bank.ro", Account: acc.IBAN, Alias: "daily"})

	t.Run("AccountByIBANOrAlias", func(t *testing.T) {
		found, err := bank.Account(acc.IBAN)
		require.NoError(t, err)
		assert.Same(t, acc, found)

		found, err = bank.Account("daily")
		require.NoError(t, err)
		assert.Same(t, acc, found)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		_, err := bank.Account("RO00MISSING")
		assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
	})

	t.Run("Card", func(t *testing.T) {
		found, err := bank.Card(card.Number)
		require.NoError(t, err)
		assert.Same(t, card, found)

		_, err = bank.Card("0000")
		assert.True(t, errors.Is(err, domain.ErrCardNotFound))
	})
}
