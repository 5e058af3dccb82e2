package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/massmirchi/tickets/internal/notify"
	"github.com/massmirchi/tickets/internal/sheet"
	"github.com/massmirchi/tickets/internal/ticket"
)

// SentValue is written to the Sent column once a ticket has been emailed.
const SentValue = "Yes"

// TicketStore persists issued tickets and analytics.
type TicketStore interface {
	SaveTicket(ctx context.Context, t ticket.Ticket) error
	IncrementAnalytics(ctx context.Context, event string, r ticket.Recipient) error
}

// Renderer turns a ticket id into a QR code file and returns its path.
type Renderer interface {
	Render(id string) (string, error)
}

// Messages builds the outgoing emails.
type Messages interface {
	TicketMessage(to string, data notify.Data, png []byte) (notify.Message, error)
	ReminderMessage(to string, data notify.Data) (notify.Message, error)
}

// Config holds the per-run settings.
type Config struct {
	// EventName keys the store (collection / analytics document).
	EventName string

	// EventTitle is the display name used in emails. Defaults to EventName.
	EventTitle string

	// Organizer signs the emails.
	Organizer string

	Headers sheet.HeaderNames

	// DryRun classifies and logs without any side effect.
	DryRun bool
}

// Deps are the collaborators of a Reconciler. All fields except Logger and
// IDs are required; Store may be nil for a dry run.
type Deps struct {
	Source   sheet.Source
	Store    TicketStore
	Renderer Renderer
	Notifier notify.Notifier
	Messages Messages

	// IDs defaults to ticket.UUIDGenerator.
	IDs ticket.IDGenerator

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Reconciler runs reconciliation passes over one sheet for one event.
type Reconciler struct {
	cfg  Config
	deps Deps

	// readFile loads the rendered artifact for attachment.
	readFile func(string) ([]byte, error)
}

// New validates cfg and deps and returns a Reconciler.
func New(cfg Config, deps Deps) (*Reconciler, error) {
	if cfg.EventName == "" {
		return nil, errors.New("reconcile: event name is required")
	}
	if cfg.EventTitle == "" {
		cfg.EventTitle = cfg.EventName
	}
	switch {
	case deps.Source == nil:
		return nil, errors.New("reconcile: source is required")
	case deps.Store == nil && !cfg.DryRun:
		return nil, errors.New("reconcile: store is required")
	case deps.Renderer == nil:
		return nil, errors.New("reconcile: renderer is required")
	case deps.Notifier == nil:
		return nil, errors.New("reconcile: notifier is required")
	case deps.Messages == nil:
		return nil, errors.New("reconcile: messages are required")
	}
	if deps.IDs == nil {
		deps.IDs = ticket.UUIDGenerator{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Reconciler{cfg: cfg, deps: deps, readFile: os.ReadFile}, nil
}

// Run performs one reconciliation pass: read the sheet, discover columns,
// ensure the Sent column exists, then process every row.
//
// The returned error is non-nil only for run-level failures (unreadable
// sheet, missing columns, cancelled context). Row failures are in the Report.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	log := r.deps.Logger

	grid, err := r.deps.Source.Rows(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read rows: %w", err)
	}
	if len(grid) == 0 {
		return Report{}, NewPreconditionError("sheet has no header row", nil)
	}

	cols, err := sheet.DiscoverColumns(grid[0], r.cfg.Headers)
	if err != nil {
		return Report{}, NewPreconditionError("header discovery failed", err)
	}
	log.Debug("columns discovered",
		"email", cols.Email, "name", cols.Name, "verified", cols.Verified,
		"sent", cols.Sent, "sent_missing", cols.SentMissing)

	if cols.SentMissing && !r.cfg.DryRun {
		if err := r.deps.Source.AppendHeaderColumn(ctx, cols.SentHeader); err != nil {
			return Report{}, fmt.Errorf("append %q column: %w", cols.SentHeader, err)
		}
		log.Info("appended completion column", "header", cols.SentHeader, "col", cols.Sent)
	}

	report := r.Process(ctx, sheet.DataRows(grid), cols)
	if report.Interrupted {
		return report, ctx.Err()
	}
	return report, nil
}

// Process classifies and acts on rows in order. It never stops on a row
// failure; it stops early only when ctx is cancelled between rows.
func (r *Reconciler) Process(ctx context.Context, rows []sheet.Row, cols sheet.Columns) Report {
	log := r.deps.Logger
	report := Report{DryRun: r.cfg.DryRun}

	for _, row := range rows {
		if ctx.Err() != nil {
			report.Interrupted = true
			log.Warn("run interrupted", "next_row", row.Index)
			break
		}
		report.Rows++

		action := Classify(row.Cell(cols.Verified), row.Cell(cols.Sent))
		email := ticket.NormalizeEmail(row.Cell(cols.Email))
		rowLog := log.With("row", row.Index, "email", email, "action", action.String())

		if action == ActionNone {
			report.Skipped++
			rowLog.Debug("nothing to do")
			continue
		}
		if r.cfg.DryRun {
			report.count(action)
			rowLog.Info("dry run: would act")
			continue
		}

		var err error
		switch action {
		case ActionIssueTicket:
			err = r.issue(ctx, row, cols, rowLog)
		case ActionSendReminder:
			err = r.remind(ctx, row, cols)
		}
		if err != nil {
			report.fail(row.Index, email, action, err)
			rowLog.Error("row failed", "error", err)
			continue
		}
		report.count(action)
	}
	return report
}

// issue runs the full ticket sequence for one row. The Sent marker is the
// last step that can fail the row.
func (r *Reconciler) issue(ctx context.Context, row sheet.Row, cols sheet.Columns, log *slog.Logger) error {
	email := ticket.NormalizeEmail(row.Cell(cols.Email))
	name := ticket.NormalizeText(row.Cell(cols.Name))
	if email == "" {
		return newRowError(ErrCodeDelivery, row.Index, email, "row has no email address", nil)
	}

	id := r.deps.IDs.Generate()
	log = log.With("ticket_id", id)

	path, err := r.deps.Renderer.Render(id)
	if err != nil {
		return newRowError(ErrCodeArtifact, row.Index, email, "render qr code", err)
	}
	png, err := r.readFile(path)
	if err != nil {
		return newRowError(ErrCodeArtifact, row.Index, email, "read qr code", err)
	}

	t := ticket.Ticket{
		ID:           id,
		Email:        email,
		EventName:    r.cfg.EventName,
		BuyerName:    name,
		ArtifactPath: path,
	}
	if err := r.deps.Store.SaveTicket(ctx, t); err != nil {
		return newRowError(ErrCodeStore, row.Index, email, "save ticket", err)
	}
	log.Debug("ticket saved")

	msg, err := r.deps.Messages.TicketMessage(email, r.mailData(name), png)
	if err != nil {
		return newRowError(ErrCodeDelivery, row.Index, email, "build ticket email", err)
	}
	if err := r.deps.Notifier.Send(ctx, msg); err != nil {
		return newRowError(ErrCodeDelivery, row.Index, email, "send ticket email", err)
	}
	log.Info("ticket emailed")

	// The email is out: finish the row even if the run is being cancelled.
	doneCtx := context.WithoutCancel(ctx)
	markErr := r.deps.Source.WriteCell(doneCtx, row.Index, cols.Sent, SentValue)

	// The ticket is out either way, so it counts toward analytics.
	if err := r.deps.Store.IncrementAnalytics(doneCtx, r.cfg.EventName, ticket.Recipient{Email: email, Name: name}); err != nil {
		aerr := newRowError(ErrCodeAnalytics, row.Index, email, "update analytics", err)
		log.Warn("analytics update failed", "error", aerr)
	}

	if markErr != nil {
		return newRowError(ErrCodeMarker, row.Index, email,
			"ticket sent but completion marker not written; row will be issued again next run", markErr)
	}
	return nil
}

func (r *Reconciler) remind(ctx context.Context, row sheet.Row, cols sheet.Columns) error {
	email := ticket.NormalizeEmail(row.Cell(cols.Email))
	name := ticket.NormalizeText(row.Cell(cols.Name))
	if email == "" {
		return newRowError(ErrCodeDelivery, row.Index, email, "row has no email address", nil)
	}

	msg, err := r.deps.Messages.ReminderMessage(email, r.mailData(name))
	if err != nil {
		return newRowError(ErrCodeDelivery, row.Index, email, "build reminder email", err)
	}
	if err := r.deps.Notifier.Send(ctx, msg); err != nil {
		return newRowError(ErrCodeDelivery, row.Index, email, "send reminder email", err)
	}
	r.deps.Logger.Info("reminder emailed", "row", row.Index, "email", email)
	return nil
}

func (r *Reconciler) mailData(name string) notify.Data {
	return notify.Data{
		BuyerName: name,
		EventName: r.cfg.EventTitle,
		Organizer: r.cfg.Organizer,
	}
}
