// Package firestore stores tickets and analytics in Google Cloud Firestore.
//
// Layout:
//   - <event>/<ticket id>: one document per issued ticket
//   - analytics/<event>: counters, last_updated and the recipients array
//   - analytics/<event>/valid_scans/<hour key>: hourly valid scan counts
//   - analytics/<event>/invalid_scans/<hour key>: hourly invalid scan counts
//
// Analytics writes use set-with-merge together with the Increment,
// ArrayUnion and ServerTimestamp transforms, so no read is needed before an
// update.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/massmirchi/tickets/internal/ticket"
)

// AnalyticsCollection holds one analytics document per event.
const AnalyticsCollection = "analytics"

// hourKeyLayout names the hourly scan documents, e.g. "2025-09-13_19".
const hourKeyLayout = "2006-01-02_15"

// ErrNotFound is returned when a ticket id does not exist for the event.
var ErrNotFound = errors.New("firestore: not found")

// Store is a Firestore-backed ticket store.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// Open connects to the project using a service-account key file. An empty
// credentialsPath falls back to application default credentials, which is
// also how the emulator is reached.
func Open(ctx context.Context, projectID, credentialsPath string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *firestore.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

type ticketDoc struct {
	TicketID   string    `firestore:"ticket_id"`
	Email      string    `firestore:"email_address"`
	EventName  string    `firestore:"event_name"`
	BuyerName  string    `firestore:"buyer_name"`
	QRCodePath string    `firestore:"qr_code_path"`
	Scanned    bool      `firestore:"scanned,omitempty"`
	ScannedAt  time.Time `firestore:"scannedAt,omitempty"`
}

func newTicketDoc(t ticket.Ticket) ticketDoc {
	return ticketDoc{
		TicketID:   t.ID,
		Email:      t.Email,
		EventName:  t.EventName,
		BuyerName:  t.BuyerName,
		QRCodePath: t.ArtifactPath,
	}
}

func (d ticketDoc) ticket() *ticket.Ticket {
	t := &ticket.Ticket{
		ID:           d.TicketID,
		Email:        d.Email,
		EventName:    d.EventName,
		BuyerName:    d.BuyerName,
		ArtifactPath: d.QRCodePath,
		Scanned:      d.Scanned,
	}
	if !d.ScannedAt.IsZero() {
		at := d.ScannedAt.UTC()
		t.ScannedAt = &at
	}
	return t
}

type recipientDoc struct {
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	Timestamp time.Time `firestore:"timestamp"`
}

type analyticsDoc struct {
	EventName    string         `firestore:"event_name"`
	TicketsSent  int64          `firestore:"tickets_sent"`
	ValidScans   int64          `firestore:"valid_scans"`
	InvalidScans int64          `firestore:"invalid_scans"`
	LastUpdated  time.Time      `firestore:"last_updated"`
	Recipients   []recipientDoc `firestore:"recipients"`
}

type hourDoc struct {
	Count     int64     `firestore:"count"`
	Timestamp time.Time `firestore:"timestamp"`
}

// SaveTicket writes the ticket document, replacing any existing one.
func (s *Store) SaveTicket(ctx context.Context, t ticket.Ticket) error {
	if t.ID == "" {
		return fmt.Errorf("save ticket: empty id")
	}
	if _, err := s.client.Collection(t.EventName).Doc(t.ID).Set(ctx, newTicketDoc(t)); err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	return nil
}

// IncrementAnalytics merges into analytics/<event>: tickets_sent += 1,
// recipient appended, last_updated set to the server time.
//
// Server timestamps are not allowed inside arrays, so the recipient entry
// carries the client clock.
func (s *Store) IncrementAnalytics(ctx context.Context, event string, r ticket.Recipient) error {
	_, err := s.analyticsDoc(event).Set(ctx, analyticsUpdate(event, r, s.now()), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("increment analytics for %q: %w", event, err)
	}
	return nil
}

func analyticsUpdate(event string, r ticket.Recipient, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"event_name":   event,
		"tickets_sent": firestore.Increment(1),
		"last_updated": firestore.ServerTimestamp,
		"recipients": firestore.ArrayUnion(map[string]interface{}{
			"email":     r.Email,
			"name":      r.Name,
			"timestamp": now.UTC(),
		}),
	}
}

// GetTicket returns the ticket id issued for event, or ErrNotFound.
func (s *Store) GetTicket(ctx context.Context, event, id string) (*ticket.Ticket, error) {
	snap, err := s.client.Collection(event).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	var d ticketDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	return d.ticket(), nil
}

// MarkScanned stamps the ticket on its first scan inside a transaction and
// bumps the matching valid/invalid counters.
func (s *Store) MarkScanned(ctx context.Context, event, id string) (ticket.ScanResult, error) {
	now := s.now().UTC()
	ref := s.client.Collection(event).Doc(id)

	var result ticket.ScanResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			result = ticket.ScanResult{Outcome: ticket.ScanUnknown}
		case err != nil:
			return err
		default:
			var d ticketDoc
			if err := snap.DataTo(&d); err != nil {
				return fmt.Errorf("decode ticket: %w", err)
			}
			if d.Scanned {
				result = ticket.ScanResult{Outcome: ticket.ScanDuplicate, Ticket: d.ticket()}
				break
			}
			if err := tx.Update(ref, []firestore.Update{
				{Path: "scanned", Value: true},
				{Path: "scannedAt", Value: now},
			}); err != nil {
				return err
			}
			d.Scanned, d.ScannedAt = true, now
			result = ticket.ScanResult{Outcome: ticket.ScanValid, Ticket: d.ticket()}
		}

		counter, sub := "invalid_scans", "invalid_scans"
		if result.Outcome == ticket.ScanValid {
			counter, sub = "valid_scans", "valid_scans"
		}
		if err := tx.Set(s.analyticsDoc(event), map[string]interface{}{
			"event_name": event,
			counter:      firestore.Increment(1),
		}, firestore.MergeAll); err != nil {
			return err
		}
		hour := now.Truncate(time.Hour)
		return tx.Set(s.analyticsDoc(event).Collection(sub).Doc(HourKey(hour)), map[string]interface{}{
			"count":     firestore.Increment(1),
			"timestamp": hour,
		}, firestore.MergeAll)
	})
	if err != nil {
		return ticket.ScanResult{}, fmt.Errorf("mark scanned %s: %w", id, err)
	}
	return result, nil
}

// Summary reads analytics/<event> and its hourly scan subcollections.
func (s *Store) Summary(ctx context.Context, event string) (ticket.Summary, error) {
	sum := ticket.Summary{EventName: event}

	snap, err := s.analyticsDoc(event).Get(ctx)
	switch {
	case status.Code(err) == codes.NotFound:
		return sum, nil
	case err != nil:
		return ticket.Summary{}, fmt.Errorf("read analytics %q: %w", event, err)
	}

	var d analyticsDoc
	if err := snap.DataTo(&d); err != nil {
		return ticket.Summary{}, fmt.Errorf("decode analytics %q: %w", event, err)
	}
	sum.TicketsSent = d.TicketsSent
	sum.ValidScans = d.ValidScans
	sum.InvalidScans = d.InvalidScans
	if !d.LastUpdated.IsZero() {
		lu := d.LastUpdated.UTC()
		sum.LastUpdated = &lu
	}
	for _, r := range d.Recipients {
		sum.Recipients = append(sum.Recipients, ticket.Recipient{Email: r.Email, Name: r.Name, Timestamp: r.Timestamp.UTC()})
	}

	if sum.ScansByHour, err = s.readHours(ctx, event, "valid_scans"); err != nil {
		return ticket.Summary{}, err
	}
	if sum.InvalidByHour, err = s.readHours(ctx, event, "invalid_scans"); err != nil {
		return ticket.Summary{}, err
	}
	return sum, nil
}

func (s *Store) readHours(ctx context.Context, event, sub string) ([]ticket.HourCount, error) {
	// Hour keys sort chronologically, so document id order is time order.
	docs, err := s.analyticsDoc(event).Collection(sub).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("read %s for %q: %w", sub, event, err)
	}
	var out []ticket.HourCount
	for _, doc := range docs {
		var h hourDoc
		if err := doc.DataTo(&h); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", sub, doc.Ref.ID, err)
		}
		out = append(out, ticket.HourCount{Hour: h.Timestamp.UTC(), Count: h.Count})
	}
	return out, nil
}

func (s *Store) analyticsDoc(event string) *firestore.DocumentRef {
	return s.client.Collection(AnalyticsCollection).Doc(event)
}

// HourKey returns the document id for the hour containing t.
func HourKey(t time.Time) string {
	return t.UTC().Format(hourKeyLayout)
}
