package domain

import "fmt"

type DomainError struct {
	message string
}

func NewDomainError(format string, args ...interface{}) *DomainError {
	return &DomainError{message: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string {
	return e.message
}

var (
	ErrInsufficientFunds  = NewDomainError("insufficient funds")
	ErrInvalidAmount      = NewDomainError("invalid amount")
	ErrAccountNotFound    = NewDomainError("account not found")
	ErrUserNotFound       = NewDomainError("user not found")
	ErrCardNotFound       = NewDomainError("card not found")
	ErrCardFrozen         = NewDomainError("the card is frozen")
	ErrNotSavingsAccount  = NewDomainError("this is not a savings account")
	ErrUnknownAccountType = NewDomainError("unknown account type")
	ErrUnknownCardType    = NewDomainError("unknown card type")
	ErrUnknownPlan        = NewDomainError("unknown payment plan")
	ErrUnknownCategory    = NewDomainError("unknown merchant category")
	ErrUnknownStrategy    = NewDomainError("unknown cashback strategy")
	ErrMerchantNotFound   = NewDomainError("merchant not found")
	ErrNoPendingRequest   = NewDomainError("no pending split request")
)
