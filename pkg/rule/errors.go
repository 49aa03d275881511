package rule

import (
	"errors"
	"fmt"
)

// ErrNoRules indicates a catalog definition without any rule.
var ErrNoRules = errors.New("no rules defined")

// CatalogLoadError is returned when a catalog cannot be built: the source is
// missing or unreadable, the definition is malformed, or a pattern does not
// compile. No partial catalog is ever returned alongside it.
type CatalogLoadError struct {
	Source string // file path, bundled resource, or "inline"
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("loading catalog %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// UnknownCategoryError is returned when a bundled category identifier has no
// packaged catalog.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q (available: %v)", e.Category, AvailableCategories())
}

func loadError(source string, err error) error {
	var le *CatalogLoadError
	if errors.As(err, &le) {
		return err
	}
	return &CatalogLoadError{Source: source, Err: err}
}
