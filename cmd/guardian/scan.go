package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/praetorian-inc/guardian/pkg/config"
	"github.com/praetorian-inc/guardian/pkg/enum"
	"github.com/praetorian-inc/guardian/pkg/logger"
	"github.com/praetorian-inc/guardian/pkg/scanner"
	"github.com/praetorian-inc/guardian/pkg/source"
	"github.com/praetorian-inc/guardian/pkg/store"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// scanFunc produces the report of one scan subcommand.
type scanFunc func(ctx context.Context, sc *scanner.Scanner, cfg *config.Config, log *logger.Logger, args []string) (types.Report, error)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan metadata for rule violations",
		Long: `Scan words, text files, directories, or schema files against the selected
rule catalogs and print the results.`,
	}

	flags := cmd.PersistentFlags()
	flags.StringSlice("category", []string{"PII"}, "Bundled rule categories: PII, INCLUSION (repeatable)")
	flags.StringSlice("rules", nil, "Path to a custom catalog file (repeatable)")
	flags.String("rules-include", "", "Include rules matching regex pattern (comma-separated)")
	flags.String("rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	flags.String("format", "human", "Output format: human, json")
	flags.String("color", "auto", "Color output: auto, always, never")
	flags.String("output", "", "Store the report in this database (:memory: for none)")
	flags.Int("concurrency", runtime.NumCPU(), "Number of files or sources scanned at once")
	flags.Bool("include-comment", false, "Also scan column comments")
	flags.Int64("max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	flags.Bool("include-hidden", false, "Include hidden files and directories")
	flags.Bool("fail-on-violation", false, "Exit with a non-zero status when violations are found")

	cmd.AddCommand(&cobra.Command{
		Use:   "words <word>...",
		Short: "Scan words given on the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE:  scanRunner(scanWords),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "file <path>",
		Short: "Scan each line of a text file",
		Args:  cobra.ExactArgs(1),
		RunE:  scanRunner(scanFile),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dir <path>",
		Short: "Scan every text file under a directory",
		Long: `Scan every text file under a directory. Hidden entries, .gitignore'd paths,
symlinks, binary files, and files above --max-file-size are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: scanRunner(scanDir),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "source <kind> <path>...",
		Short: "Scan the columns of schema or data files",
		Long: `Scan the column names of one or more files of the given kind.
Use "guardian sources" to list the kinds, or "auto" to pick one per file
from its extension.`,
		Args: cobra.MinimumNArgs(2),
		RunE: scanRunner(scanSource),
	})

	return cmd
}

// scanRunner wraps a scan subcommand with settings, storage, and output.
func scanRunner(fn scanFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		sc, err := newScanner(cfg, log)
		if err != nil {
			return err
		}

		report, err := fn(cmd.Context(), sc, cfg, log, args)
		if err != nil {
			return err
		}

		if cfg.Output != "" && cfg.Output != ":memory:" {
			scanID, err := saveReport(cfg.Output, report)
			if err != nil {
				return err
			}
			log.Info("report stored", zap.String("scan_id", scanID), zap.String("path", cfg.Output))
			fmt.Fprintf(cmd.ErrOrStderr(), "Results stored in: %s (scan %s)\n", cfg.Output, scanID)
		}

		if err := writeReport(cmd.OutOrStdout(), report, cfg.Format, cfg.Color); err != nil {
			return err
		}

		if cfg.FailOnViolation && report.Violations() > 0 {
			return fmt.Errorf("found %d violations", report.Violations())
		}
		return nil
	}
}

func scanWords(_ context.Context, sc *scanner.Scanner, _ *config.Config, _ *logger.Logger, args []string) (types.Report, error) {
	return sc.ScanWords("words", args), nil
}

func scanFile(_ context.Context, sc *scanner.Scanner, _ *config.Config, _ *logger.Logger, args []string) (types.Report, error) {
	return sc.ScanFile(args[0])
}

func scanDir(ctx context.Context, sc *scanner.Scanner, cfg *config.Config, log *logger.Logger, args []string) (types.Report, error) {
	root := args[0]

	// Validate target exists
	info, err := os.Stat(root)
	if err != nil {
		return types.Report{}, fmt.Errorf("target does not exist: %s", root)
	}
	if !info.IsDir() {
		return types.Report{}, fmt.Errorf("target is not a directory: %s", root)
	}

	report, err := sc.ScanDirectory(ctx, enum.Config{
		Root:          root,
		IncludeHidden: cfg.IncludeHidden,
		MaxFileSize:   cfg.MaxFileSize,
		Concurrency:   cfg.Concurrency,
	})
	if err != nil {
		// A nil result list means the walk itself failed.
		if report.Results == nil {
			return types.Report{}, fmt.Errorf("scanning %s: %w", root, err)
		}
		log.Warn("some files were skipped", zap.Error(err))
	}
	return report, nil
}

func scanSource(ctx context.Context, sc *scanner.Scanner, _ *config.Config, log *logger.Logger, args []string) (types.Report, error) {
	kind := args[0]

	srcs := make([]source.Source, 0, len(args)-1)
	for _, path := range args[1:] {
		k := kind
		if k == "auto" {
			k = source.DetectKind(path)
		}
		src, err := source.New(k, path)
		if err != nil {
			return types.Report{}, err
		}
		srcs = append(srcs, src)
	}

	report, err := sc.ScanSources(ctx, srcs)
	if err != nil {
		// A single source has nothing left to report.
		if len(srcs) == 1 {
			return types.Report{}, err
		}
		log.Warn("some sources failed", zap.Error(err))
	}
	return report, nil
}

// saveReport records report under a fresh scan id.
func saveReport(path string, report types.Report) (string, error) {
	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	scanID := store.NewScanID()
	if err := s.AddReport(scanID, report); err != nil {
		return "", fmt.Errorf("storing report: %w", err)
	}
	return scanID, nil
}
