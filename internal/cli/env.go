package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/massmirchi/tickets/internal/config"
	"github.com/massmirchi/tickets/internal/reconcile"
	"github.com/massmirchi/tickets/internal/sheet"
	"github.com/massmirchi/tickets/internal/store"
	"github.com/massmirchi/tickets/internal/store/firestore"
	"github.com/massmirchi/tickets/internal/ticket"
	"github.com/massmirchi/tickets/internal/verify"
)

// ticketStore is what every command needs from a store backend.
type ticketStore interface {
	reconcile.TicketStore
	verify.Store
	GetTicket(ctx context.Context, event, id string) (*ticket.Ticket, error)
	Close() error
}

// setupLogging installs a text slog handler on w. --verbose enables debug.
func setupLogging(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads the layered config. Callers apply their own flags and
// then call validate.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:   opts.ConfigFile,
		DotEnv: opts.EnvFile,
		Getenv: opts.Getenv,
	})
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

func validate(cfg config.Config, checks ...func() error) error {
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}
	return nil
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg config.Config) (ticketStore, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		slog.Info("opening firestore", "project", cfg.Store.FirestoreProject)
		st, err := firestore.Open(ctx, cfg.Store.FirestoreProject, cfg.Credentials)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open firestore", err)
		}
		return st, nil
	default:
		slog.Info("opening database", "path", cfg.Store.SQLitePath)
		st, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return st, nil
	}
}

func closeStore(st ticketStore) {
	if err := st.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}

// openSource opens the CSV file when configured, otherwise the Google sheet.
func openSource(ctx context.Context, cfg config.Config) (sheet.Source, error) {
	if cfg.Sheet.CSV != "" {
		slog.Info("reading csv sheet", "path", cfg.Sheet.CSV)
		src, err := sheet.NewCSVFile(cfg.Sheet.CSV)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open csv sheet", err)
		}
		return src, nil
	}
	slog.Info("connecting to google sheet", "id", cfg.Sheet.ID, "tab", cfg.Sheet.Tab)
	src, err := sheet.NewGoogleSheet(ctx, cfg.Credentials, cfg.Sheet.ID, cfg.Sheet.Tab)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open google sheet", err)
	}
	return src, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
