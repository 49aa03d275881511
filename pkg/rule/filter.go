package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/guardian/pkg/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering.
// Patterns are matched against rule names.
type FilterConfig struct {
	Include []string // Regex patterns - only matching rules included
	Exclude []string // Regex patterns - matching rules excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter returns a new catalog holding the rules of c selected by config.
// Include is applied first, then exclude. Empty include means "include all".
// Returns error if any pattern is invalid regex or no rule survives.
func Filter(c *Catalog, config FilterConfig) (*Catalog, error) {
	if len(config.Include) == 0 && len(config.Exclude) == 0 {
		return c, nil
	}

	includeRegexes, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := c.Rules()
	if len(includeRegexes) > 0 {
		filtered = applyInclude(filtered, includeRegexes)
	}
	if len(excludeRegexes) > 0 {
		filtered = applyExclude(filtered, excludeRegexes)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("filtering catalog %s: %w", c.Category(), ErrNoRules)
	}

	var opts []CatalogOption
	if c.CaseInsensitive() {
		opts = append(opts, WithCaseInsensitive())
	}
	return NewCatalog(c.Category(), filtered, opts...)
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	var regexes []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func applyInclude(rules []*types.Rule, regexes []*regexp.Regexp) []*types.Rule {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		if matchesAny(rule.Name, regexes) {
			result = append(result, rule)
		}
	}
	return result
}

func applyExclude(rules []*types.Rule, regexes []*regexp.Regexp) []*types.Rule {
	result := make([]*types.Rule, 0)
	for _, rule := range rules {
		if !matchesAny(rule.Name, regexes) {
			result = append(result, rule)
		}
	}
	return result
}

func matchesAny(name string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
