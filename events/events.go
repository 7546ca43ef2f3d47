package events

import (
	"github.com/google/uuid"
)

type EventType string

// BaseEvent is the part every ledger entry shares. Owner is the email of
// the user whose ledger holds the entry; Version is the entry's position
// in that ledger, starting at 1.
type BaseEvent struct {
	EventID     uuid.UUID `json:"-"`
	Owner       string    `json:"-"`
	Version     int       `json:"-"`
	Type        EventType `json:"-"`
	Timestamp   int       `json:"timestamp"`
	Description string    `json:"description"`
}

type Event interface {
	GetBase() BaseEvent
}

func (e BaseEvent) GetBase() BaseEvent {
	return e
}

const (
	AccountCreatedType    EventType = "AccountCreated"
	CardCreatedType       EventType = "CardCreated"
	CardDeletedType       EventType = "CardDeleted"
	TransferType          EventType = "Transfer"
	OnlinePaymentType     EventType = "OnlinePayment"
	NoFundsType           EventType = "NoFunds"
	CardStatusType        EventType = "CardStatus"
	SplitPayType          EventType = "SplitPay"
	FailedSplitPayType    EventType = "FailedSplitPay"
	NullPaymentType       EventType = "NullPayment"
	CustomSplitType       EventType = "CustomSplit"
	UnderageType          EventType = "Underage"
	PlanUpgradedType      EventType = "PlanUpgraded"
	WithdrawCashType      EventType = "WithdrawCash"
	InterestType          EventType = "Interest"
	NoClassicType         EventType = "NoClassic"
	SavingsWithdrawalType EventType = "SavingsWithdrawal"
)

// Meta locates a new entry: whose ledger, at which position, and the
// timestamp of the command that produced it.
type Meta struct {
	Owner     string
	Version   int
	Timestamp int
}

func NewBaseEvent(meta Meta, eventType EventType, description string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New(),
		Owner:       meta.Owner,
		Version:     meta.Version,
		Type:        eventType,
		Timestamp:   meta.Timestamp,
		Description: description,
	}
}

// Is reports whether ev is one of the given kinds.
func Is(ev Event, kinds ...EventType) bool {
	t := ev.GetBase().Type
	for _, k := range kinds {
		if t == k {
			return true
		}
	}
	return false
}
