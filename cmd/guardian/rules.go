package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/types"
)

var (
	rulesCategories []string
	rulesPaths      []string
	outputFormat    string
)

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rule catalogs",
		Long:  "Commands for listing and checking rule catalogs",
	}

	rulesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List available rules",
		Long:  "Display the rules of the selected catalogs (all bundled catalogs by default)",
		RunE:  runRulesList,
	}
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")

	rulesCheckCmd := &cobra.Command{
		Use:   "check",
		Short: "Check rules against their examples",
		Long: `Verify that every rule matches each of its examples and none of its
negative examples.`,
		RunE: runRulesCheck,
	}

	for _, c := range []*cobra.Command{rulesListCmd, rulesCheckCmd} {
		c.Flags().StringSliceVar(&rulesCategories, "category", nil, "Bundled categories to load (repeatable, default all)")
		c.Flags().StringSliceVar(&rulesPaths, "rules", nil, "Path to a custom catalog file (repeatable)")
		rulesCmd.AddCommand(c)
	}

	return rulesCmd
}

func runRulesList(cmd *cobra.Command, args []string) error {
	catalogs, err := loadCatalogs(rulesCategories, rulesPaths)
	if err != nil {
		return err
	}

	// Output based on format
	switch outputFormat {
	case "json":
		return outputRulesJSON(cmd, catalogs)
	case "table":
		return outputRulesTable(cmd, catalogs)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	catalogs, err := loadCatalogs(rulesCategories, rulesPaths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failures []rule.ExampleFailure
	rules := 0
	for _, c := range catalogs {
		rules += c.Len()
		failures = append(failures, rule.CheckExamples(c)...)
	}

	for _, f := range failures {
		fmt.Fprintln(out, f.String())
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d example checks failed", len(failures))
	}

	fmt.Fprintf(out, "All %d rules in %d catalogs pass their examples\n", rules, len(catalogs))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadCatalogs loads the named categories and files. With neither, every
// bundled catalog is loaded.
func loadCatalogs(categories, paths []string) ([]*rule.Catalog, error) {
	loader := rule.NewLoader()

	if len(categories) == 0 && len(paths) == 0 {
		catalogs, err := loader.LoadBuiltinCatalogs()
		if err != nil {
			return nil, fmt.Errorf("loading builtin catalogs: %w", err)
		}
		return catalogs, nil
	}

	parsed, err := parseCategories(categories)
	if err != nil {
		return nil, err
	}

	var catalogs []*rule.Catalog
	for _, c := range parsed {
		catalog, err := loader.LoadBuiltinCatalog(c)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, catalog)
	}
	for _, path := range paths {
		catalog, err := loader.LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, catalog)
	}
	return catalogs, nil
}

type catalogJSON struct {
	Category string        `json:"category"`
	Rules    []*types.Rule `json:"data_rules"`
}

func outputRulesJSON(cmd *cobra.Command, catalogs []*rule.Catalog) error {
	out := make([]catalogJSON, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, catalogJSON{Category: c.Category(), Rules: c.Rules()})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func outputRulesTable(cmd *cobra.Command, catalogs []*rule.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Category\tName\tDocumentation\n")
	fmt.Fprintf(w, "--------\t----\t-------------\n")

	for _, c := range catalogs {
		for _, r := range c.Rules() {
			doc := strings.TrimSpace(r.Documentation)
			if i := strings.IndexByte(doc, '\n'); i >= 0 {
				doc = doc[:i] + " ..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Category(), r.Name, doc)
		}
	}

	return nil
}
