package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/praetorian-inc/guardian/pkg/serve"
	"github.com/praetorian-inc/guardian/pkg/store"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as streaming server for language bindings",
		Long: `Run Guardian as a long-lived streaming server that accepts match requests
via stdin and writes results to stdout using NDJSON format.

The process compiles the catalogs once at startup and processes requests
until stdin closes, a close request arrives, or SIGTERM is received.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := serveCmd.Flags()
	flags.StringSlice("category", []string{"PII"}, "Bundled rule categories: PII, INCLUSION (repeatable)")
	flags.StringSlice("rules", nil, "Path to a custom catalog file (repeatable)")
	flags.String("rules-include", "", "Include rules matching regex pattern (comma-separated)")
	flags.String("rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	flags.String("output", "", "Record match_file and match_batch reports in this database")
	flags.Bool("include-comment", false, "Also scan column comments")

	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sc, err := newScanner(cfg, log)
	if err != nil {
		return err
	}

	opts := []serve.Option{serve.WithLogger(log)}
	if cfg.Output != "" {
		st, err := store.New(store.Config{Path: cfg.Output})
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		scanID := store.NewScanID()
		log = log.WithScanID(scanID)
		log.Info("recording reports", zap.String("path", cfg.Output))
		opts = append(opts, serve.WithStore(st, scanID))
	}

	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create and run server
	srv := serve.NewServer(sc, cmd.InOrStdin(), cmd.OutOrStdout(), opts...)
	return srv.Run(ctx)
}
