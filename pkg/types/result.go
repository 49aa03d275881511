package types

// MatchResult records that one input triggered one or more rules of a catalog.
// A MatchResult is only produced when at least one rule matched.
type MatchResult struct {
	Category string  `json:"category"`
	Content  string  `json:"content"`    // the input that matched, not the matched substring
	Rules    []*Rule `json:"data_rules"` // catalog declaration order
}

// NewMatchResult builds a result. The rules slice is shared, not copied.
func NewMatchResult(category, content string, rules []*Rule) *MatchResult {
	return &MatchResult{
		Category: category,
		Content:  content,
		Rules:    rules,
	}
}

// RuleNames returns the names of the rules that fired, in order.
func (m *MatchResult) RuleNames() []string {
	names := make([]string, len(m.Rules))
	for i, r := range m.Rules {
		names[i] = r.Name
	}
	return names
}

// Equal compares two results by value.
func (m *MatchResult) Equal(other *MatchResult) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Category != other.Category || m.Content != other.Content {
		return false
	}
	if len(m.Rules) != len(other.Rules) {
		return false
	}
	for i := range m.Rules {
		if !m.Rules[i].SameAs(other.Rules[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy that no longer shares the rules slice. The rules
// themselves are still shared.
func (m *MatchResult) Clone() *MatchResult {
	rules := make([]*Rule, len(m.Rules))
	copy(rules, m.Rules)
	return NewMatchResult(m.Category, m.Content, rules)
}
