package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// Command is one already-decoded input record. Kind selects the handler;
// only the fields that kind uses are set.
type Command struct {
	Kind      string
	Timestamp int

	Email       string
	Account     string
	Receiver    string
	CardNumber  string
	Alias       string
	Description string
	Commerciant string

	Amount   decimal.Decimal
	Currency string

	AccountType  string
	InterestRate *decimal.Decimal
	NewPlanType  string

	SplitPaymentType string
	Accounts         []string
	AmountForUsers   []decimal.Decimal

	StartTimestamp int
	EndTimestamp   int
}

const (
	CmdPrintUsers         = "printUsers"
	CmdAddAccount         = "addAccount"
	CmdCreateCard         = "createCard"
	CmdCreateOneTimeCard  = "createOneTimeCard"
	CmdAddFunds           = "addFunds"
	CmdDeleteAccount      = "deleteAccount"
	CmdDeleteCard         = "deleteCard"
	CmdSetMinimumBalance  = "setMinimumBalance"
	CmdSetAlias           = "setAlias"
	CmdPayOnline          = "payOnline"
	CmdSendMoney          = "sendMoney"
	CmdSplitPayment       = "splitPayment"
	CmdAcceptSplitPayment = "acceptSplitPayment"
	CmdRejectSplitPayment = "rejectSplitPayment"
	CmdCheckCardStatus    = "checkCardStatus"
	CmdPrintTransactions  = "printTransactions"
	CmdReport             = "report"
	CmdSpendingsReport    = "spendingsReport"
	CmdAddInterest        = "addInterest"
	CmdChangeInterestRate = "changeInterestRate"
	CmdWithdrawSavings    = "withdrawSavings"
	CmdUpgradePlan        = "upgradePlan"
	CmdCashWithdrawal     = "cashWithdrawal"
)

const (
	SplitEqual  = "equal"
	SplitCustom = "custom"
)

// --- Day input ---

type UserRecord struct {
	FirstName  string
	LastName   string
	Email      string
	BirthDate  time.Time
	Occupation string
}

type RateRecord struct {
	From string
	To   string
	Rate decimal.Decimal
}

type MerchantRecord struct {
	ID       int
	Name     string
	Account  string
	Type     string
	Strategy string
}

// Day is everything one run replays: the initial users, the exchange
// rates, the merchants and the ordered commands.
type Day struct {
	Users     []UserRecord
	Rates     []RateRecord
	Merchants []MerchantRecord
	Commands  []Command
}
