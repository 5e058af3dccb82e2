package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/massmirchi/tickets/internal/ticket"
)

// SaveTicket inserts or replaces the ticket keyed by t.ID.
// Replacing clears any scan stamp: the record is overwritten, not merged.
func (s *Store) SaveTicket(ctx context.Context, t ticket.Ticket) error {
	if t.ID == "" {
		return fmt.Errorf("save ticket: empty id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets
		(id, event_name, email, buyer_name, artifact_path, created_at, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			event_name    = excluded.event_name,
			email         = excluded.email,
			buyer_name    = excluded.buyer_name,
			artifact_path = excluded.artifact_path,
			created_at    = excluded.created_at,
			scanned_at    = NULL
	`,
		t.ID,
		t.EventName,
		t.Email,
		t.BuyerName,
		t.ArtifactPath,
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	return nil
}

// IncrementAnalytics bumps tickets_sent for event, appends r to the
// recipient list and stamps last_updated. r.Timestamp is ignored; the
// store-observed time is recorded instead.
func (s *Store) IncrementAnalytics(ctx context.Context, event string, r ticket.Recipient) error {
	now := s.timestamp()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics (event_name, tickets_sent, last_updated)
			VALUES (?, 1, ?)
			ON CONFLICT(event_name) DO UPDATE SET
				tickets_sent = tickets_sent + 1,
				last_updated = excluded.last_updated
		`, event, now); err != nil {
			return fmt.Errorf("upsert counter: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO analytics_recipients (event_name, email, name, recorded_at)
			VALUES (?, ?, ?, ?)
		`, event, r.Email, r.Name, now); err != nil {
			return fmt.Errorf("append recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("increment analytics for %q: %w", event, err)
	}
	return nil
}

// MarkScanned records a door scan of id for event.
//
// The first scan of an issued ticket stamps scanned_at and returns
// ScanValid. Later scans return ScanDuplicate with the stored ticket. Ids
// never issued for this event return ScanUnknown. Every attempt is logged
// in the scans table.
func (s *Store) MarkScanned(ctx context.Context, event, id string) (ticket.ScanResult, error) {
	now := s.now()
	var result ticket.ScanResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTicket(ctx, tx, event, id)
		switch {
		case errors.Is(err, ErrNotFound):
			result = ticket.ScanResult{Outcome: ticket.ScanUnknown}
		case err != nil:
			return err
		case t.Scanned:
			result = ticket.ScanResult{Outcome: ticket.ScanDuplicate, Ticket: t}
		default:
			if _, err := tx.ExecContext(ctx, `
				UPDATE tickets SET scanned_at = ? WHERE id = ? AND scanned_at IS NULL
			`, formatTime(now), id); err != nil {
				return fmt.Errorf("stamp ticket: %w", err)
			}
			stamped := now.UTC()
			t.Scanned = true
			t.ScannedAt = &stamped
			result = ticket.ScanResult{Outcome: ticket.ScanValid, Ticket: t}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scans (event_name, ticket_id, outcome, scanned_at)
			VALUES (?, ?, ?, ?)
		`, event, id, string(result.Outcome), formatTime(now)); err != nil {
			return fmt.Errorf("log scan: %w", err)
		}
		return nil
	})
	if err != nil {
		return ticket.ScanResult{}, fmt.Errorf("mark scanned %s: %w", id, err)
	}
	return result, nil
}
