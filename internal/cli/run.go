package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/massmirchi/tickets/internal/notify"
	"github.com/massmirchi/tickets/internal/qr"
	"github.com/massmirchi/tickets/internal/reconcile"
	"github.com/massmirchi/tickets/internal/ticket"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DryRun bool
	Event  string
	CSV    string

	// Notifier overrides the SMTP mailer (for testing).
	Notifier notify.Notifier

	// IDs overrides the ticket id generator (for testing).
	// If nil, defaults to ticket.UUIDGenerator.
	IDs ticket.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation pass over the signup sheet",
		Long: `Run one reconciliation pass over the signup sheet.

Every verified row without a Sent marker gets a new ticket: a QR code is
rendered, the ticket is stored, emailed, and the row is marked "Yes".
Rows marked unverified ("no") get a payment reminder on every run.

Row failures are reported and leave the row unmarked so the next run
retries it. The exit code is 1 when any row failed.

Example:
  tickets run --config tickets.yaml
  tickets run --csv signups.csv --event "Gabes 9-13" --dry-run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "classify rows and log the plan without side effects")
	cmd.Flags().StringVar(&opts.Event, "event", "", "event name (overrides config)")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "read rows from a CSV file instead of Google Sheets")

	return cmd
}

func runReconcile(opts *RunOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.Verbose, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Event != "" {
		cfg.Event.Name = opts.Event
	}
	if opts.CSV != "" {
		cfg.Sheet.CSV = opts.CSV
	}
	checks := []func() error{cfg.RequireSheet}
	if !opts.DryRun && opts.Notifier == nil {
		checks = append(checks, cfg.RequireMail)
	}
	if err := validate(cfg, checks...); err != nil {
		return err
	}
	timeout, _ := cfg.MailTimeout()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// Dry runs leave the store unopened so no database file is created.
	var st ticketStore
	if !opts.DryRun {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
	}

	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}

	tmpl, err := notify.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load email templates", err)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.MailUsername(),
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  timeout,
		})
	}

	rec, err := reconcile.New(reconcile.Config{
		EventName:  cfg.Event.Name,
		EventTitle: cfg.EventTitle(),
		Organizer:  cfg.Event.Organizer,
		Headers:    cfg.Sheet.Headers,
		DryRun:     opts.DryRun,
	}, reconcile.Deps{
		Source:   src,
		Store:    st,
		Renderer: qr.NewRenderer(cfg.TicketsDir),
		Notifier: notifier,
		Messages: tmpl,
		IDs:      opts.IDs,
		Logger:   logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build reconciler", err)
	}

	logger.Info("reconciliation starting", "event", cfg.Event.Name, "dry_run", opts.DryRun)
	start := time.Now()
	report, err := rec.Run(ctx)
	logger.Info("reconciliation finished",
		"issued", report.Issued, "reminded", report.Reminded,
		"skipped", report.Skipped, "failed", report.Failed,
		"duration", time.Since(start))

	if err != nil {
		var rerr *reconcile.Error
		if errors.As(err, &rerr) {
			var details interface{}
			if rerr.Err != nil {
				details = rerr.Err.Error()
			}
			_ = formatter.Error(string(rerr.Code), rerr.Message, details)
		}
		if !report.Interrupted {
			return WrapExitError(ExitCommandError, "reconciliation aborted", err)
		}
	}

	if outErr := formatter.Result(report, func(w io.Writer) error {
		return renderReport(w, report)
	}); outErr != nil {
		return outErr
	}

	switch {
	case report.Interrupted:
		return WrapExitError(ExitFailure, "reconciliation interrupted", err)
	case report.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d row(s) failed", report.Failed))
	}
	return nil
}

func renderReport(w io.Writer, r reconcile.Report) error {
	prefix := ""
	if r.DryRun {
		prefix = "[dry run] "
	}
	fmt.Fprintf(w, "%srows: %d  issued: %d  reminded: %d  skipped: %d  failed: %d\n",
		prefix, r.Rows, r.Issued, r.Reminded, r.Skipped, r.Failed)
	if r.Interrupted {
		fmt.Fprintln(w, "interrupted before all rows were processed")
	}
	if len(r.Failures) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ROW", "EMAIL", "ACTION", "CODE", "ERROR"})
	for _, f := range r.Failures {
		t.AppendRow(table.Row{f.Row, f.Email, f.Action, f.Code, f.Error})
	}
	t.Render()
	return nil
}
