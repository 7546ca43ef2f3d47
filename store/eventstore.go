package store

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"bank-ledger/events"
)

var ErrOptimisticLock = errors.New("optimistic lock error: version conflict")

// Ledger is the append-only, per-user record of ledger entries. Entries are
// never removed or rewritten.
type Ledger interface {
	SaveEvents(owner string, expectedVersion int, eventsToSave []events.Event) error

	GetEvents(owner string) ([]events.Event, error)

	GetEventsBetween(owner string, start, end int, kinds ...events.EventType) ([]events.Event, error)

	Version(owner string) int
}

type InMemoryLedger struct {
	sync.RWMutex
	streams map[string][]events.Event
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		streams: make(map[string][]events.Event),
	}
}

func (s *InMemoryLedger) SaveEvents(owner string, expectedVersion int, newEvents []events.Event) error {
	s.Lock()
	defer s.Unlock()

	if len(newEvents) == 0 {
		log.Printf("Warning: SaveEvents called with zero entries for %s", owner)
		return nil
	}

	stream := s.streams[owner]
	currentVersion := len(stream)
	if currentVersion != expectedVersion {
		return fmt.Errorf("%w: expected version %d, but current version is %d for %s",
			ErrOptimisticLock, expectedVersion, currentVersion, owner)
	}

	nextVersion := expectedVersion
	for _, event := range newEvents {
		base := event.GetBase()
		nextVersion++
		if base.Version != nextVersion {
			return fmt.Errorf("ledger sequence error for %s: expected version %d for entry %T (%s), but got %d",
				owner, nextVersion, event, base.EventID, base.Version)
		}
		if base.Owner != owner {
			return fmt.Errorf("ledger owner mismatch: stream is for %s, but entry %T (%s) belongs to %s",
				owner, event, base.EventID, base.Owner)
		}
	}

	s.streams[owner] = append(stream, newEvents...)
	return nil
}

func (s *InMemoryLedger) GetEvents(owner string) ([]events.Event, error) {
	s.RLock()
	defer s.RUnlock()

	stream, ok := s.streams[owner]
	if !ok {
		return []events.Event{}, nil
	}

	copied := make([]events.Event, len(stream))
	copy(copied, stream)
	return copied, nil
}

// GetEventsBetween returns the owner's entries with start <= timestamp <=
// end, restricted to kinds when any are given.
func (s *InMemoryLedger) GetEventsBetween(owner string, start, end int, kinds ...events.EventType) ([]events.Event, error) {
	s.RLock()
	defer s.RUnlock()

	if start > end {
		return nil, fmt.Errorf("invalid range: start %d is after end %d", start, end)
	}

	result := make([]events.Event, 0)
	for _, event := range s.streams[owner] {
		ts := event.GetBase().Timestamp
		if ts < start || ts > end {
			continue
		}
		if len(kinds) > 0 && !events.Is(event, kinds...) {
			continue
		}
		result = append(result, event)
	}
	return result, nil
}

func (s *InMemoryLedger) Version(owner string) int {
	s.RLock()
	defer s.RUnlock()
	return len(s.streams[owner])
}

// Reset forgets every stream.
func (s *InMemoryLedger) Reset() {
	s.Lock()
	defer s.Unlock()
	s.streams = make(map[string][]events.Event)
}
