package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/massmirchi/tickets/internal/verify"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Recipients bool
	Local      bool
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats [event]",
		Short: "Show ticket and scan analytics for an event",
		Long: `Show ticket and scan analytics for an event.

Reports tickets sent, valid and invalid scans, tickets not yet scanned,
scan and success rates, the busiest hour, the hour with the most invalid
scans, and scans per hour.

Example:
  tickets stats "Gabes 9-13"
  tickets stats --recipients --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			event := ""
			if len(args) == 1 {
				event = args[0]
			}
			return runStats(opts, event, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Recipients, "recipients", false, "list ticket recipients")
	cmd.Flags().BoolVar(&opts.Local, "local", false, "show hours in local time instead of UTC")

	return cmd
}

func runStats(opts *StatsOptions, event string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if event != "" {
		cfg.Event.Name = event
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

	sum, err := st.Summary(ctx, cfg.Event.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read analytics", err)
	}

	loc := time.UTC
	if opts.Local {
		loc = time.Local
	}
	stats := verify.Compute(sum, loc)
	if !opts.Recipients {
		stats.Recipients = nil
	}

	return formatter.Result(stats, func(w io.Writer) error {
		return renderStats(w, stats, loc)
	})
}

func renderStats(w io.Writer, s verify.Stats, loc *time.Location) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(s.EventName)
	t.AppendRows([]table.Row{
		{"Tickets sent", s.TicketsSent},
		{"Valid scans", s.ValidScans},
		{"Invalid scans", s.InvalidScans},
		{"Not scanned", s.NotScanned},
		{"Scan rate", s.ScanRate},
		{"Success rate", s.SuccessRate},
		{"Busiest hour", busiest(s.BusiestHour)},
		{"Most invalid hour", busiest(s.MostInvalidHour)},
	})
	if s.LastUpdated != nil {
		t.AppendRow(table.Row{"Last updated", s.LastUpdated.In(loc).Format(time.RFC3339)})
	}
	t.Render()

	if len(s.ScansByHour) > 0 || len(s.InvalidByHour) > 0 {
		invalid := make(map[string]int64, len(s.InvalidByHour))
		for _, h := range s.InvalidByHour {
			invalid[h.Hour] = h.Count
		}
		seen := make(map[string]bool, len(s.ScansByHour))

		ht := table.NewWriter()
		ht.SetOutputMirror(w)
		ht.SetStyle(table.StyleRounded)
		ht.AppendHeader(table.Row{"HOUR", "VALID", "INVALID"})
		for _, h := range s.ScansByHour {
			seen[h.Hour] = true
			ht.AppendRow(table.Row{h.Hour, h.Count, invalid[h.Hour]})
		}
		for _, h := range s.InvalidByHour {
			if !seen[h.Hour] {
				ht.AppendRow(table.Row{h.Hour, 0, h.Count})
			}
		}
		ht.SortBy([]table.SortBy{{Name: "HOUR", Mode: table.Asc}})
		ht.Render()
	}

	if len(s.Recipients) > 0 {
		rt := table.NewWriter()
		rt.SetOutputMirror(w)
		rt.SetStyle(table.StyleRounded)
		rt.AppendHeader(table.Row{"EMAIL", "NAME", "SENT AT"})
		for _, r := range s.Recipients {
			rt.AppendRow(table.Row{r.Email, r.Name, r.Timestamp.In(loc).Format(time.RFC3339)})
		}
		rt.Render()
	}
	return nil
}

func busiest(b verify.BusiestHour) string {
	if b.Count == 0 {
		return "--"
	}
	return fmt.Sprintf("%s (%d scans)", b.Hour, b.Count)
}
