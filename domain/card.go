package domain

import (
	"fmt"
	"strings"
)

type CardKind string

const (
	CardClassic CardKind = "CLASSIC"
	CardOneTime CardKind = "ONETIME"
)

type CardStatus string

const (
	CardActive  CardStatus = "active"
	CardWarning CardStatus = "warning"
	CardFrozen  CardStatus = "frozen"
)

// Card is a payment card attached to exactly one account. A one-time card
// keeps its identity across payments; only its number changes.
type Card struct {
	Number string     `json:"cardNumber"`
	Status CardStatus `json:"status"`
	Kind   CardKind   `json:"-"`
}

func ParseCardKind(kind string) (CardKind, error) {
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case string(CardClassic):
		return CardClassic, nil
	case string(CardOneTime):
		return CardOneTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCardType, kind)
	}
}

func NewCard(kind CardKind, number string) (*Card, error) {
	if kind != CardClassic && kind != CardOneTime {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCardType, kind)
	}
	if number == "" {
		return nil, NewDomainError("card number cannot be empty")
	}
	return &Card{Number: number, Status: CardActive, Kind: kind}, nil
}

func (c *Card) IsOneTime() bool {
	return c.Kind == CardOneTime
}

func (c *Card) IsFrozen() bool {
	return c.Status == CardFrozen
}

// CheckUsable fails with ErrCardFrozen once the card has been frozen.
func (c *Card) CheckUsable() error {
	if c.IsFrozen() {
		return fmt.Errorf("%w: %s", ErrCardFrozen, c.Number)
	}
	return nil
}

// Renumber swaps the number of a one-time card and returns the retired one.
func (c *Card) Renumber(number string) (string, error) {
	if !c.IsOneTime() {
		return "", NewDomainError("card %s is not a one-time card", c.Number)
	}
	if number == "" || number == c.Number {
		return "", NewDomainError("invalid replacement number for card %s", c.Number)
	}
	old := c.Number
	c.Number = number
	return old, nil
}

// transition moves the card towards target. Cards never go back to active,
// and a frozen card stays frozen.
func (c *Card) transition(target CardStatus) bool {
	switch {
	case c.Status == CardFrozen:
		return false
	case target == CardFrozen:
		c.Status = CardFrozen
		return true
	case target == CardWarning && c.Status == CardActive:
		c.Status = CardWarning
		return true
	}
	return false
}
