package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/massmirchi/tickets/internal/notify"
	"github.com/massmirchi/tickets/internal/ticket"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// Notifier records sent messages.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Notifier struct {
	mu   sync.Mutex
	Sent []notify.Message

	// FailFor lists recipients whose sends fail with a *notify.DeliveryError.
	FailFor map[string]bool
}

// Send records msg, or fails when msg.To is in FailFor.
func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailFor[msg.To] {
		return &notify.DeliveryError{To: msg.To, Err: ErrInjected}
	}
	n.Sent = append(n.Sent, msg)
	return nil
}

// To returns the messages sent to addr.
func (n *Notifier) To(addr string) []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Message
	for _, m := range n.Sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

// MemoryStore is an in-memory ticket store with failure injection.
//
// Thread-safety: safe for concurrent use via internal mutex.
type MemoryStore struct {
	mu        sync.Mutex
	tickets   map[string]ticket.Ticket
	summaries map[string]*ticket.Summary

	// Saves counts SaveTicket calls, including failed ones.
	Saves int

	FailSave      bool
	FailAnalytics bool
	FailScan      bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:   make(map[string]ticket.Ticket),
		summaries: make(map[string]*ticket.Summary),
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func key(event, id string) string { return event + "\x00" + id }

func (s *MemoryStore) summary(event string) *ticket.Summary {
	sum, ok := s.summaries[event]
	if !ok {
		sum = &ticket.Summary{EventName: event}
		s.summaries[event] = sum
	}
	return sum
}

// SaveTicket stores t keyed by event and id.
func (s *MemoryStore) SaveTicket(ctx context.Context, t ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.FailSave {
		return ErrInjected
	}
	t.Scanned, t.ScannedAt = false, nil
	s.tickets[key(t.EventName, t.ID)] = t
	return nil
}

// IncrementAnalytics bumps the counter and appends r.
func (s *MemoryStore) IncrementAnalytics(ctx context.Context, event string, r ticket.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAnalytics {
		return ErrInjected
	}
	now := s.now()
	sum := s.summary(event)
	sum.TicketsSent++
	r.Timestamp = now
	sum.Recipients = append(sum.Recipients, r)
	sum.LastUpdated = &now
	return nil
}

// GetTicket returns a copy of the stored ticket or an error.
func (s *MemoryStore) GetTicket(ctx context.Context, event, id string) (*ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[key(event, id)]
	if !ok {
		return nil, errors.New("not found")
	}
	return &t, nil
}

// MarkScanned stamps the ticket on first scan.
func (s *MemoryStore) MarkScanned(ctx context.Context, event, id string) (ticket.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailScan {
		return ticket.ScanResult{}, ErrInjected
	}
	sum := s.summary(event)
	t, ok := s.tickets[key(event, id)]
	switch {
	case !ok:
		sum.InvalidScans++
		return ticket.ScanResult{Outcome: ticket.ScanUnknown}, nil
	case t.Scanned:
		sum.InvalidScans++
		return ticket.ScanResult{Outcome: ticket.ScanDuplicate, Ticket: &t}, nil
	}
	now := s.now()
	t.Scanned, t.ScannedAt = true, &now
	s.tickets[key(event, id)] = t
	sum.ValidScans++
	return ticket.ScanResult{Outcome: ticket.ScanValid, Ticket: &t}, nil
}

// Summary returns a copy of the event summary.
func (s *MemoryStore) Summary(ctx context.Context, event string) (ticket.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := *s.summary(event)
	sum.Recipients = append([]ticket.Recipient(nil), sum.Recipients...)
	return sum, nil
}

// Tickets returns all stored tickets for event.
func (s *MemoryStore) Tickets(event string) []ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ticket.Ticket
	for _, t := range s.tickets {
		if t.EventName == event {
			out = append(out, t)
		}
	}
	return out
}
