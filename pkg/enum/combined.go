package enum

import (
	"context"
	"path/filepath"
	"sync"
)

// CombinedEnumerator runs multiple enumerators sequentially and deduplicates
// paths so each file is yielded at most once, even when roots overlap.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator that wraps the provided
// enumerators. They are run in order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in sequence, passing unique paths to
// callback. Paths are compared after conversion to absolute form.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback func(path string) error) error {
	var mu sync.Mutex
	seen := make(map[string]bool)

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(path string) error {
			key := path
			if abs, err := filepath.Abs(path); err == nil {
				key = abs
			}

			mu.Lock()
			if seen[key] {
				mu.Unlock()
				return nil
			}
			seen[key] = true
			mu.Unlock()

			return callback(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
