// Package guardian flags metadata (column names, schema fields, comments,
// free text) that matches named regular-expression rules grouped into
// categories such as PII detection and inclusive-language linting.
//
// # Basic Usage
//
// Match words against the bundled PII catalog:
//
//	g, err := guardian.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, result := range g.MatchMany([]string{"email", "favorite_color"}) {
//	    fmt.Printf("%s: %s %v\n", result.Category, result.Content, result.RuleNames())
//	}
//
// # Several Catalogs
//
// Bundled categories and custom catalog files can be combined. Results are
// reported per catalog, in the order the catalogs were configured:
//
//	g, err := guardian.New(
//	    guardian.WithCategories(guardian.CategoryPII, guardian.CategoryInclusion),
//	    guardian.WithCatalogFiles("rules/internal.yml"),
//	)
package guardian

import (
	"fmt"

	"github.com/praetorian-inc/guardian/pkg/matcher"
	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/guardian" without subpackages.
type (
	// Rule is a named pattern with its documentation.
	Rule = types.Rule

	// MatchResult records the rules one input triggered.
	MatchResult = types.MatchResult

	// Report groups results per scanned source.
	Report = types.Report

	// Catalog is a compiled, ordered set of rules sharing one category.
	Catalog = rule.Catalog

	// Category identifies a bundled catalog.
	Category = rule.Category
)

// Re-export bundled categories.
const (
	CategoryPII       = rule.CategoryPII
	CategoryInclusion = rule.CategoryInclusion
)

// LoadCatalog loads a bundled category by identifier, or a catalog file by path.
func LoadCatalog(ref string) (*Catalog, error) {
	return rule.NewLoader().Load(ref)
}

// LoadCatalogFile loads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	return rule.NewLoader().LoadCatalogFile(path)
}

// LoadBuiltinCatalog loads one of the bundled catalogs.
func LoadBuiltinCatalog(category Category) (*Catalog, error) {
	return rule.NewLoader().LoadBuiltinCatalog(category)
}

// NewCatalog compiles in-memory rule definitions.
func NewCatalog(category string, rules []*Rule) (*Catalog, error) {
	return rule.NewCatalog(category, rules)
}

// Guardian evaluates inputs against one or more catalogs.
// It is safe for concurrent use.
type Guardian struct {
	matchers []*matcher.Matcher
}

type config struct {
	categories []Category
	files      []string
	catalogs   []*Catalog
	filter     rule.FilterConfig
}

// Option configures a Guardian.
type Option func(*config)

// WithCategories selects bundled catalogs.
// If no catalog is configured at all, the PII catalog is used.
func WithCategories(categories ...Category) Option {
	return func(c *config) {
		c.categories = append(c.categories, categories...)
	}
}

// WithCatalogFiles adds catalogs loaded from YAML files.
func WithCatalogFiles(paths ...string) Option {
	return func(c *config) {
		c.files = append(c.files, paths...)
	}
}

// WithCatalogs adds already compiled catalogs.
func WithCatalogs(catalogs ...*Catalog) Option {
	return func(c *config) {
		c.catalogs = append(c.catalogs, catalogs...)
	}
}

// WithRuleFilter narrows every catalog to the rules whose names match the
// include patterns and none of the exclude patterns.
func WithRuleFilter(include, exclude []string) Option {
	return func(c *config) {
		c.filter = rule.FilterConfig{Include: include, Exclude: exclude}
	}
}

// New creates a Guardian. Catalogs are evaluated in this order: bundled
// categories, catalog files, then compiled catalogs.
func New(opts ...Option) (*Guardian, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.categories) == 0 && len(cfg.files) == 0 && len(cfg.catalogs) == 0 {
		cfg.categories = []Category{CategoryPII}
	}

	loader := rule.NewLoader()
	var catalogs []*Catalog
	for _, category := range cfg.categories {
		c, err := loader.LoadBuiltinCatalog(category)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	for _, path := range cfg.files {
		c, err := loader.LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	catalogs = append(catalogs, cfg.catalogs...)

	g := &Guardian{}
	for _, c := range catalogs {
		filtered, err := rule.Filter(c, cfg.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to filter rules: %w", err)
		}
		m, err := matcher.New(filtered)
		if err != nil {
			return nil, err
		}
		g.matchers = append(g.matchers, m)
	}
	return g, nil
}

// Matchers returns the per-catalog matchers in evaluation order.
func (g *Guardian) Matchers() []*matcher.Matcher {
	out := make([]*matcher.Matcher, len(g.matchers))
	copy(out, g.matchers)
	return out
}

// Categories returns the category of every configured catalog, in evaluation order.
func (g *Guardian) Categories() []string {
	categories := make([]string, len(g.matchers))
	for i, m := range g.matchers {
		categories[i] = m.Category()
	}
	return categories
}

// MatchOne returns one result per catalog that word triggered.
func (g *Guardian) MatchOne(word string) []*MatchResult {
	results := make([]*MatchResult, 0)
	for _, m := range g.matchers {
		if result := m.MatchOne(word); result != nil {
			results = append(results, result)
		}
	}
	return results
}

// MatchMany matches words against every catalog. Results are grouped by
// catalog, and follow input order within a catalog.
func (g *Guardian) MatchMany(words []string) []*MatchResult {
	results := make([]*MatchResult, 0)
	for _, m := range g.matchers {
		results = append(results, m.MatchMany(words)...)
	}
	return results
}

// MatchFile matches each line of a text file against every catalog, with the
// same grouping as MatchMany.
func (g *Guardian) MatchFile(path string) ([]*MatchResult, error) {
	lines, err := matcher.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return g.MatchMany(lines), nil
}
