package prefilter

import (
	"bytes"
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/guardian/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
//
// Keywords are matched case-insensitively, so a keyword only ever widens the
// candidate set relative to its pattern. Rules without keywords are always
// candidates.
type Prefilter struct {
	matcher        *ahocorasick.Matcher
	keywords       []string         // lowercased keyword at each index
	keywordRules   map[string][]int // keyword -> indices of rules needing it
	noKeywordRules []int            // rules without keywords (always checked)
}

// New creates a prefilter from rules. Indices returned by Filter refer to
// positions in rules.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules:   make(map[string][]int),
		noKeywordRules: make([]int, 0),
	}

	// Collect all keywords and build mapping
	keywordSet := make(map[string]bool)
	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, i)
			continue
		}
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(keyword)
			if keyword == "" {
				// An empty keyword is present in every input.
				pf.noKeywordRules = append(pf.noKeywordRules, i)
				continue
			}
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the indices of rules that might match content (keywords
// found OR no keywords defined), sorted ascending.
// Safe for concurrent use.
func (pf *Prefilter) Filter(content []byte) []int {
	seen := make(map[int]bool, len(pf.noKeywordRules))
	result := make([]int, 0, len(pf.noKeywordRules))
	for _, idx := range pf.noKeywordRules {
		if !seen[idx] {
			seen[idx] = true
			result = append(result, idx)
		}
	}

	if pf.matcher != nil {
		hits := pf.matcher.MatchThreadSafe(bytes.ToLower(content))
		for _, hit := range hits {
			for _, idx := range pf.keywordRules[pf.keywords[hit]] {
				if !seen[idx] {
					seen[idx] = true
					result = append(result, idx)
				}
			}
		}
	}

	sort.Ints(result)
	return result
}

// KeywordCount returns the number of distinct keywords.
func (pf *Prefilter) KeywordCount() int {
	return len(pf.keywords)
}
