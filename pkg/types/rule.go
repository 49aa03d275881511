package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// Rule is a named detection pattern with the documentation shown on a match.
type Rule struct {
	Name             string   `json:"rule_name"`                   // unique within a catalog
	Pattern          string   `json:"pattern"`                     // regex source
	Documentation    string   `json:"documentation"`               // shown to users on match
	StructuralID     string   `json:"structural_id,omitempty"`     // SHA-1 of pattern (computed)
	Keywords         []string `json:"keywords,omitempty"`          // literals for Aho-Corasick prefiltering
	Examples         []string `json:"examples,omitempty"`          // inputs the pattern must match
	NegativeExamples []string `json:"negative_examples,omitempty"` // inputs the pattern must not match
}

// namedGroupRe matches named capture groups like (?P<name>...) so that renaming
// a group does not change the structural ID.
var namedGroupRe = regexp.MustCompile(`\(\?P<[^>]+>`)

// ComputeStructuralID computes SHA-1 of the pattern with named capture groups
// normalized to plain groups.
func (r *Rule) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(r.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// SameAs reports whether two rules carry the same name, pattern and documentation.
func (r *Rule) SameAs(other *Rule) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Name == other.Name &&
		r.Pattern == other.Pattern &&
		r.Documentation == other.Documentation
}
