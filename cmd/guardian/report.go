package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/guardian/pkg/store"
)

var (
	reportDatastore  string
	reportListFormat string
	reportShowFormat string
	reportColor      string
	mergeOutput      string
)

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect stored scan reports",
		Long:  "Read reports recorded with --output from a results database",
	}
	reportCmd.PersistentFlags().StringVar(&reportDatastore, "datastore", "guardian.db", "Path to results database")

	reportListCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scans",
		Args:  cobra.NoArgs,
		RunE:  runReportList,
	}
	reportListCmd.Flags().StringVar(&reportListFormat, "format", "table", "Output format: table, json")

	reportShowCmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Show the report of one scan",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportShow,
	}
	reportShowCmd.Flags().StringVar(&reportShowFormat, "format", "human", "Output format: human, json")
	reportShowCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")

	reportMergeCmd := &cobra.Command{
		Use:   "merge <source1.db> <source2.db> [source3.db...]",
		Short: "Merge multiple results databases",
		Long: `Merge multiple results databases into a single output database.

This is useful for combining reports from distributed scans. Scans already
present in the output database are skipped.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runReportMerge,
	}
	reportMergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")

	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportMergeCmd)
	return reportCmd
}

// openReportStore opens an existing results database.
func openReportStore() (store.Store, error) {
	// Check if it's :memory: (invalid for report)
	if reportDatastore == ":memory:" {
		return nil, fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportDatastore); err != nil {
		return nil, fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return nil, fmt.Errorf("opening datastore: %w", err)
	}
	return s, nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	s, err := openReportStore()
	if err != nil {
		return err
	}
	defer s.Close()

	scans, err := s.ListScans()
	if err != nil {
		return fmt.Errorf("listing scans: %w", err)
	}

	switch reportListFormat {
	case "json":
		if scans == nil {
			scans = []store.ScanInfo{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(scans)
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintf(w, "ID\tCreated\tSources\tViolations\n")
		fmt.Fprintf(w, "--\t-------\t-------\t----------\n")
		for _, scan := range scans {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				scan.ID, scan.CreatedAt.Local().Format(time.RFC3339), scan.Sources, scan.Violations)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", reportListFormat)
	}
}

func runReportShow(cmd *cobra.Command, args []string) error {
	s, err := openReportStore()
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.GetReport(args[0])
	if err != nil {
		return fmt.Errorf("retrieving report: %w", err)
	}
	return writeReport(cmd.OutOrStdout(), report, reportShowFormat, reportColor)
}

func runReportMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merge complete:\n")
	fmt.Fprintf(out, "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(out, "  Scans merged: %d\n", stats.ScansMerged)
	fmt.Fprintf(out, "  Scans skipped: %d\n", stats.ScansSkipped)
	fmt.Fprintf(out, "  Report entries merged: %d\n", stats.EntriesMerged)
	fmt.Fprintf(out, "Output: %s\n", mergeOutput)

	return nil
}
