package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/massmirchi/tickets/internal/ticket"
	"github.com/massmirchi/tickets/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Event string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <ticket-id>",
		Short: "Scan a ticket at the door",
		Long: `Scan a ticket at the door.

The first scan of an issued ticket is accepted and recorded. Later scans of
the same ticket, and unknown ids, are rejected with exit code 1.

Example:
  tickets verify 0f8fad5b-d9cb-469f-a165-70867728950e --event "Gabes 9-13"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "event name (overrides config)")

	return cmd
}

func runVerify(opts *VerifyOptions, id string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	id = strings.TrimSpace(id)
	if !ticket.ValidID(id) {
		return NewExitError(ExitCommandError, fmt.Sprintf("malformed ticket id %q", id))
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Event != "" {
		cfg.Event.Name = opts.Event
	}
	if err := validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := st.MarkScanned(ctx, cfg.Event.Name, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "scan failed", err)
	}

	resp := verify.Response(res)
	if err := formatter.Result(resp, func(w io.Writer) error {
		return renderScan(w, res)
	}); err != nil {
		return err
	}
	if !res.Valid() {
		return NewExitError(ExitFailure, fmt.Sprintf("ticket rejected: %s", res.Outcome))
	}
	return nil
}

func renderScan(w io.Writer, res ticket.ScanResult) error {
	switch res.Outcome {
	case ticket.ScanValid:
		fmt.Fprintf(w, "VALID: %s <%s>\n", res.Ticket.BuyerName, res.Ticket.Email)
	case ticket.ScanDuplicate:
		when := "earlier"
		if res.Ticket.ScannedAt != nil {
			when = res.Ticket.ScannedAt.Format("2006-01-02 15:04:05 MST")
		}
		fmt.Fprintf(w, "ALREADY SCANNED (%s): %s <%s>\n", when, res.Ticket.BuyerName, res.Ticket.Email)
	default:
		fmt.Fprintln(w, "NOT FOUND")
	}
	return nil
}
