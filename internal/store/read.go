package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/massmirchi/tickets/internal/ticket"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetTicket returns the ticket id issued for event, or ErrNotFound.
func (s *Store) GetTicket(ctx context.Context, event, id string) (*ticket.Ticket, error) {
	return getTicket(ctx, s.db, event, id)
}

func getTicket(ctx context.Context, q queryer, event, id string) (*ticket.Ticket, error) {
	var (
		t         ticket.Ticket
		scannedAt sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, event_name, email, buyer_name, artifact_path, scanned_at
		FROM tickets
		WHERE id = ? AND event_name = ?
	`, id, event).Scan(&t.ID, &t.EventName, &t.Email, &t.BuyerName, &t.ArtifactPath, &scannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}

	if scannedAt.Valid {
		ts, err := parseTime(scannedAt.String)
		if err != nil {
			return nil, err
		}
		t.Scanned = true
		t.ScannedAt = &ts
	}
	return &t, nil
}

// Summary returns the analytics read model for event.
// An event with no activity yields a zero Summary, not an error.
func (s *Store) Summary(ctx context.Context, event string) (ticket.Summary, error) {
	sum := ticket.Summary{EventName: event}

	var lastUpdated string
	err := s.db.QueryRowContext(ctx, `
		SELECT tickets_sent, last_updated FROM analytics WHERE event_name = ?
	`, event).Scan(&sum.TicketsSent, &lastUpdated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ticket.Summary{}, fmt.Errorf("read analytics %q: %w", event, err)
	default:
		ts, err := parseTime(lastUpdated)
		if err != nil {
			return ticket.Summary{}, err
		}
		sum.LastUpdated = &ts
	}

	recipients, err := s.readRecipients(ctx, event)
	if err != nil {
		return ticket.Summary{}, err
	}
	sum.Recipients = recipients

	if err := s.readScans(ctx, event, &sum); err != nil {
		return ticket.Summary{}, err
	}
	return sum, nil
}

func (s *Store) readRecipients(ctx context.Context, event string) ([]ticket.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, name, recorded_at
		FROM analytics_recipients
		WHERE event_name = ?
		ORDER BY id ASC
	`, event)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var out []ticket.Recipient
	for rows.Next() {
		var (
			r  ticket.Recipient
			ts string
		)
		if err := rows.Scan(&r.Email, &r.Name, &ts); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}
	return out, nil
}

// readScans fills the scan counters and per-hour buckets. Bucketing is done
// here rather than in SQL to keep the stored time format opaque to SQLite.
func (s *Store) readScans(ctx context.Context, event string, sum *ticket.Summary) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, scanned_at
		FROM scans
		WHERE event_name = ?
		ORDER BY scanned_at ASC, id ASC
	`, event)
	if err != nil {
		return fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	valid := newHourBuckets()
	invalid := newHourBuckets()
	for rows.Next() {
		var outcome, ts string
		if err := rows.Scan(&outcome, &ts); err != nil {
			return fmt.Errorf("scan scan row: %w", err)
		}
		at, err := parseTime(ts)
		if err != nil {
			return err
		}
		if ticket.ScanOutcome(outcome) == ticket.ScanValid {
			sum.ValidScans++
			valid.add(at)
		} else {
			sum.InvalidScans++
			invalid.add(at)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate scans: %w", err)
	}

	sum.ScansByHour = valid.list()
	sum.InvalidByHour = invalid.list()
	return nil
}

// hourBuckets counts timestamps per clock hour, preserving first-seen order.
// Input is sorted, so first-seen order is chronological.
type hourBuckets struct {
	order  []time.Time
	counts map[time.Time]int64
}

func newHourBuckets() *hourBuckets {
	return &hourBuckets{counts: make(map[time.Time]int64)}
}

func (b *hourBuckets) add(t time.Time) {
	h := t.Truncate(time.Hour)
	if _, ok := b.counts[h]; !ok {
		b.order = append(b.order, h)
	}
	b.counts[h]++
}

func (b *hourBuckets) list() []ticket.HourCount {
	if len(b.order) == 0 {
		return nil
	}
	out := make([]ticket.HourCount, len(b.order))
	for i, h := range b.order {
		out[i] = ticket.HourCount{Hour: h, Count: b.counts[h]}
	}
	return out
}
