package rule

import (
	"sort"
	"strings"
)

// Category identifies a bundled catalog.
type Category string

const (
	// CategoryPII flags personally identifiable information.
	CategoryPII Category = "PII"
	// CategoryInclusion flags non-inclusive terminology.
	CategoryInclusion Category = "INCLUSION"
)

// builtinCatalogs maps each bundled category to its embedded resource.
var builtinCatalogs = map[Category]string{
	CategoryPII:       "catalogs/pii.yml",
	CategoryInclusion: "catalogs/inclusion.yml",
}

// String returns the category identifier.
func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a bundled category identifier, ignoring case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := builtinCatalogs[c]; !ok {
		return "", &UnknownCategoryError{Category: s}
	}
	return c, nil
}

// IsBuiltinCategory reports whether s names a bundled category.
func IsBuiltinCategory(s string) bool {
	_, err := ParseCategory(s)
	return err == nil
}

// AvailableCategories returns the bundled categories sorted by identifier.
func AvailableCategories() []Category {
	categories := make([]Category, 0, len(builtinCatalogs))
	for c := range builtinCatalogs {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}
