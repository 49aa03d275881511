package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/guardian/pkg/prefilter"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Catalog is an ordered, compiled set of rules sharing one category.
//
// A Catalog is immutable once built and safe for concurrent use by any number
// of matchers.
type Catalog struct {
	category        string
	caseInsensitive bool
	rules           []*types.Rule
	patterns        []*regexp.Regexp
	prefilter       *prefilter.Prefilter // nil when no rule declares keywords
}

// CatalogOption configures catalog compilation.
type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	source          string
	caseInsensitive bool
}

// WithCaseInsensitive compiles every pattern with the (?i) flag.
func WithCaseInsensitive() CatalogOption {
	return func(c *catalogConfig) {
		c.caseInsensitive = true
	}
}

// withSource names the origin of the definition in load errors.
func withSource(source string) CatalogOption {
	return func(c *catalogConfig) {
		c.source = source
	}
}

// NewCatalog compiles an in-memory list of rules under category.
// Rules are copied, so later changes to the inputs do not affect the catalog.
// Returns a *CatalogLoadError if the definition is invalid or any pattern
// fails to compile.
func NewCatalog(category string, rules []*types.Rule, opts ...CatalogOption) (*Catalog, error) {
	cfg := &catalogConfig{source: "inline"}
	for _, opt := range opts {
		opt(cfg)
	}

	if strings.TrimSpace(category) == "" {
		return nil, loadError(cfg.source, fmt.Errorf("category is required"))
	}
	if len(rules) == 0 {
		return nil, loadError(cfg.source, ErrNoRules)
	}

	c := &Catalog{
		category:        category,
		caseInsensitive: cfg.caseInsensitive,
		rules:           make([]*types.Rule, 0, len(rules)),
		patterns:        make([]*regexp.Regexp, 0, len(rules)),
	}

	seen := make(map[string]bool, len(rules))
	hasKeywords := false
	for i, r := range rules {
		if err := ValidateRule(r); err != nil {
			return nil, loadError(cfg.source, fmt.Errorf("rule %d: %w", i, err))
		}
		if seen[r.Name] {
			return nil, loadError(cfg.source, fmt.Errorf("duplicate rule name %q", r.Name))
		}
		seen[r.Name] = true

		re, err := compilePattern(r.Pattern, cfg.caseInsensitive)
		if err != nil {
			return nil, loadError(cfg.source, fmt.Errorf("invalid pattern for rule %q: %w", r.Name, err))
		}

		owned := cloneRule(r)
		owned.StructuralID = owned.ComputeStructuralID()
		if len(owned.Keywords) > 0 {
			hasKeywords = true
		}

		c.rules = append(c.rules, owned)
		c.patterns = append(c.patterns, re)
	}

	if hasKeywords {
		c.prefilter = prefilter.New(c.rules)
	}

	return c, nil
}

// Category returns the label attached to every result this catalog produces.
func (c *Catalog) Category() string {
	return c.category
}

// CaseInsensitive reports whether patterns were compiled with (?i).
func (c *Catalog) CaseInsensitive() bool {
	return c.caseInsensitive
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Rule returns the i-th rule in declaration order.
func (c *Catalog) Rule(i int) *types.Rule {
	return c.rules[i]
}

// Pattern returns the compiled pattern of the i-th rule.
func (c *Catalog) Pattern(i int) *regexp.Regexp {
	return c.patterns[i]
}

// Rules returns a copy of the rule list. The rules themselves are shared and
// must not be modified.
func (c *Catalog) Rules() []*types.Rule {
	rules := make([]*types.Rule, len(c.rules))
	copy(rules, c.rules)
	return rules
}

// Candidates returns the indices of rules that may match input, in
// declaration order. Without a prefilter every rule is a candidate.
func (c *Catalog) Candidates(input string) []int {
	if c.prefilter == nil {
		all := make([]int, len(c.rules))
		for i := range all {
			all[i] = i
		}
		return all
	}
	return c.prefilter.Filter([]byte(input))
}

// HasPrefilter reports whether keyword prefiltering is active.
func (c *Catalog) HasPrefilter() bool {
	return c.prefilter != nil
}

// compilePattern compiles a rule pattern. Trailing newlines left by YAML block
// scalars are not part of the pattern.
func compilePattern(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	pattern = strings.TrimRight(pattern, "\r\n")
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func cloneRule(r *types.Rule) *types.Rule {
	return &types.Rule{
		Name:             r.Name,
		Pattern:          r.Pattern,
		Documentation:    r.Documentation,
		Keywords:         append([]string(nil), r.Keywords...),
		Examples:         append([]string(nil), r.Examples...),
		NegativeExamples: append([]string(nil), r.NegativeExamples...),
	}
}
