// Package source reads column metadata out of local files so it can be
// matched against rule catalogs.
//
// Source kinds are kept in a static registry keyed by name. The built-in
// kinds are text, avro (schema documents), avro-file (object container
// files), and parquet; hosts may register more with Register.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownKind indicates a source kind with no registered factory.
var ErrUnknownKind = errors.New("unknown source kind")

// Column is one metadata entry of a source: a column, a schema field, or a
// line of text.
type Column struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

// Source produces the columns of one local metadata file.
type Source interface {
	// Type returns the registered kind of the source.
	Type() string
	// Path returns the file the source reads.
	Path() string
	// Columns reads the metadata entries in file order.
	Columns(ctx context.Context) ([]Column, error)
}

// Factory builds a source for path.
type Factory func(path string) Source

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		KindText:     func(path string) Source { return NewText(path) },
		KindAvro:     func(path string) Source { return NewAvroSchema(path) },
		KindAvroFile: func(path string) Source { return NewAvroFile(path) },
		KindParquet:  func(path string) Source { return NewParquet(path) },
	}
)

// Register adds or replaces the factory for kind.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(kind)] = factory
}

// New builds a source of the given kind. Kind names are case-insensitive.
func New(kind, path string) (Source, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(kind)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownKind, kind, strings.Join(Available(), ", "))
	}
	return factory(path), nil
}

// Available returns the registered kinds, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DetectKind guesses the kind of a file from its extension. Anything that is
// not an Avro schema, an Avro container, or a Parquet file is read as text.
func DetectKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avsc":
		return KindAvro
	case ".avro":
		return KindAvroFile
	case ".parquet":
		return KindParquet
	default:
		return KindText
	}
}

// Words flattens columns into the strings handed to a matcher: every name,
// and every non-empty comment when includeComment is set.
func Words(cols []Column, includeComment bool) []string {
	words := make([]string, 0, len(cols))
	for _, c := range cols {
		words = append(words, c.Name)
		if includeComment && c.Comment != "" {
			words = append(words, c.Comment)
		}
	}
	return words
}
