package store

import (
	"sync"

	"github.com/lfreitas/escrowmarket/internal/domain"
)

// EventLog is a thread-safe append-only store of engine events in
// chronological order.
type EventLog struct {
	mu     sync.RWMutex
	events []*domain.Event
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an event to the log.
func (s *EventLog) Append(ev *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
}

// List returns events in reverse chronological order (newest first),
// optionally filtered by type. Pagination is 1-based. Returns the matching
// events for the requested page and the total count of matches.
func (s *EventLog) List(eventType *string, page, limit int) ([]*domain.Event, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]*domain.Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if eventType != nil && s.events[i].Type != *eventType {
			continue
		}
		filtered = append(filtered, s.events[i])
	}

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Event{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// Len returns the number of events in the log.
func (s *EventLog) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events)
}
