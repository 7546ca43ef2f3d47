package app

import (
	"github.com/shopspring/decimal"

	"bank-ledger/events"
	"bank-ledger/shared"
	"bank-ledger/store"
)

// Result is one record of the output stream. Timestamp always echoes the
// command that produced it.
type Result struct {
	Command   string      `json:"command"`
	Output    interface{} `json:"output"`
	Timestamp int         `json:"timestamp"`
}

type ErrorOutput struct {
	Description string `json:"description"`
	Timestamp   int    `json:"timestamp"`
}

type DeleteAccountOutput struct {
	Success   string `json:"success,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int    `json:"timestamp"`
}

type ReportOutput struct {
	IBAN         string          `json:"IBAN"`
	Balance      decimal.Decimal `json:"balance"`
	Currency     shared.Currency `json:"currency"`
	Transactions []events.Event  `json:"transactions"`
}

type SpendingsReportOutput struct {
	IBAN         string                  `json:"IBAN"`
	Balance      decimal.Decimal         `json:"balance"`
	Currency     shared.Currency         `json:"currency"`
	Transactions []store.MerchantPayment `json:"transactions"`
	Commerciants []store.MerchantTotal   `json:"commerciants"`
}

const (
	MsgCardNotFound        = "Card not found"
	MsgUserNotFound        = "User not found"
	MsgAccountNotFound     = "Account not found"
	MsgNotSavings          = "This is not a savings account"
	MsgSavingsReport       = "This kind of report is not supported for a saving account"
	MsgAccountDeleted      = "Account deleted"
	MsgAccountNotDeletable = "Account couldn't be deleted - see transactions for details"
)
