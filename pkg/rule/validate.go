package rule

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/guardian/pkg/types"
)

// ValidateRule checks required fields. Pattern compilation is checked when the
// rule is added to a catalog.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %q: pattern is required", r.Name)
	}
	if r.Documentation == "" {
		return fmt.Errorf("rule %q: documentation is required", r.Name)
	}

	return nil
}

// ExampleFailure describes one example a rule does not honor.
type ExampleFailure struct {
	Category string
	RuleName string
	Example  string
	Negative bool // true if the example should not have matched
}

func (f ExampleFailure) String() string {
	if f.Negative {
		return fmt.Sprintf("%s/%s: negative example %q matched", f.Category, f.RuleName, f.Example)
	}
	return fmt.Sprintf("%s/%s: example %q did not match", f.Category, f.RuleName, f.Example)
}

// CheckExamples verifies every rule matches its examples and none of its
// negative examples.
func CheckExamples(c *Catalog) []ExampleFailure {
	var failures []ExampleFailure
	for i := 0; i < c.Len(); i++ {
		r := c.Rule(i)
		re := c.Pattern(i)
		for _, ex := range r.Examples {
			if !re.MatchString(ex) {
				failures = append(failures, ExampleFailure{Category: c.Category(), RuleName: r.Name, Example: ex})
			}
		}
		for _, ex := range r.NegativeExamples {
			if re.MatchString(ex) {
				failures = append(failures, ExampleFailure{Category: c.Category(), RuleName: r.Name, Example: ex, Negative: true})
			}
		}
	}
	return failures
}
