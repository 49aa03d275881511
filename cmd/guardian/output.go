package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/praetorian-inc/guardian/pkg/types"
)

// styles holds color formatters for human output
type styles struct {
	heading  *color.Color
	category *color.Color
	source   *color.Color
	content  *color.Color
	ruleName *color.Color
	doc      *color.Color
}

// newStyles creates color formatters for human output.
// enabled=false respects --color never and the NO_COLOR env var.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold),
		category: color.New(color.Bold, color.FgHiRed),
		source:   color.New(color.FgHiBlue),
		content:  color.New(color.FgYellow),
		ruleName: color.New(color.Bold, color.FgHiGreen),
		doc:      color.New(color.Faint),
	}

	for _, c := range []*color.Color{s.heading, s.category, s.source, s.content, s.ruleName, s.doc} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// colorEnabled resolves a --color mode for out.
func colorEnabled(mode string, out io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// Color only a TTY, and only when NO_COLOR is not set
		f, ok := out.(*os.File)
		if !ok || os.Getenv("NO_COLOR") != "" {
			return false
		}
		return term.IsTerminal(int(f.Fd()))
	}
}

// writeReport renders report in the requested format.
func writeReport(out io.Writer, report types.Report, format, colorMode string) error {
	switch format {
	case "json":
		return writeReportJSON(out, report)
	case "human":
		return writeReportHuman(out, report, newStyles(colorEnabled(colorMode, out)))
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeReportJSON(out io.Writer, report types.Report) error {
	if report.Results == nil {
		report.Results = []types.ReportResults{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func writeReportHuman(out io.Writer, report types.Report, s *styles) error {
	total := 0
	for _, entry := range report.Results {
		total += len(entry.Results)
	}

	n := 0
	for _, entry := range report.Results {
		for _, result := range entry.Results {
			n++
			fmt.Fprintf(out, "%s (%s %s)\n",
				s.heading.Sprintf("Result %d/%d", n, total),
				s.heading.Sprint("category"),
				s.category.Sprint(result.Category))
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Source:"), s.source.Sprint(entry.Source))
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Content:"), s.content.Sprint(result.Content))
			for _, r := range result.Rules {
				fmt.Fprintf(out, "    %s %s\n", s.heading.Sprint("Rule:"), s.ruleName.Sprint(r.Name))
				fmt.Fprintf(out, "        %s\n", s.doc.Sprint(strings.TrimSpace(r.Documentation)))
			}
			fmt.Fprintln(out)
		}
	}

	if n == 0 {
		fmt.Fprintf(out, "No violations found in %d sources.\n", len(report.Results))
		return nil
	}
	fmt.Fprintf(out, "Scan complete: %d results, %d violations in %d sources\n",
		n, report.Violations(), len(report.Results))
	return nil
}
