// Package matcher evaluates input strings against a compiled rule catalog.
//
// A Matcher holds no state besides its catalog, so one Matcher may be shared by
// any number of goroutines. Matching never fails once the catalog is loaded;
// only the file paths can return an error.
package matcher

import (
	"fmt"

	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Matcher scans inputs for rule matches.
type Matcher struct {
	catalog *rule.Catalog
}

// New creates a Matcher bound to catalog.
func New(catalog *rule.Catalog) (*Matcher, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	return &Matcher{catalog: catalog}, nil
}

// Catalog returns the catalog this matcher evaluates.
func (m *Matcher) Catalog() *rule.Catalog {
	return m.catalog
}

// Category returns the category of the underlying catalog.
func (m *Matcher) Category() string {
	return m.catalog.Category()
}

// MatchOne tests word against every rule. A rule matches if its pattern is
// found anywhere in word; patterns must be anchored for whole-word matching.
// Returns nil if no rule matched.
func (m *Matcher) MatchOne(word string) *types.MatchResult {
	fired := m.matchingRules(word)
	if len(fired) == 0 {
		return nil
	}
	return types.NewMatchResult(m.catalog.Category(), word, fired)
}

// MatchMany applies MatchOne to each word and keeps the results in input
// order. Empty strings are skipped.
func (m *Matcher) MatchMany(words []string) []*types.MatchResult {
	results := make([]*types.MatchResult, 0)
	for _, word := range words {
		if word == "" {
			continue
		}
		if result := m.MatchOne(word); result != nil {
			results = append(results, result)
		}
	}
	return results
}

// matchingRules returns the rules whose pattern is found in input, in
// declaration order.
func (m *Matcher) matchingRules(input string) []*types.Rule {
	var fired []*types.Rule

	if !m.catalog.HasPrefilter() {
		for i := 0; i < m.catalog.Len(); i++ {
			if m.catalog.Pattern(i).MatchString(input) {
				fired = append(fired, m.catalog.Rule(i))
			}
		}
		return fired
	}

	for _, i := range m.catalog.Candidates(input) {
		if m.catalog.Pattern(i).MatchString(input) {
			fired = append(fired, m.catalog.Rule(i))
		}
	}
	return fired
}
