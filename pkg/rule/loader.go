package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/guardian/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading catalogs from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for bundled catalogs
}

// NewLoader creates a loader with the bundled catalogs from the embedded filesystem.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinCatalogsFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem for bundled catalogs.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// LoadCatalog parses and compiles a catalog from YAML bytes.
// source names the definition in errors.
func (l *Loader) LoadCatalog(data []byte, source string) (*Catalog, error) {
	var yamlFile yamlCatalogFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, loadError(source, fmt.Errorf("failed to parse YAML: %w", err))
	}

	if yamlFile.Category == "" {
		return nil, loadError(source, fmt.Errorf("category is required"))
	}
	if len(yamlFile.DataRules) == 0 {
		return nil, loadError(source, ErrNoRules)
	}

	rules := make([]*types.Rule, 0, len(yamlFile.DataRules))
	for _, yr := range yamlFile.DataRules {
		rules = append(rules, convertYAMLRule(yr))
	}

	opts := []CatalogOption{withSource(source)}
	if yamlFile.CaseInsensitive {
		opts = append(opts, WithCaseInsensitive())
	}
	return NewCatalog(yamlFile.Category, rules, opts...)
}

// LoadCatalogFile loads a catalog from a YAML file path.
func (l *Loader) LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, fmt.Errorf("failed to read file: %w", err))
	}
	return l.LoadCatalog(data, path)
}

// LoadBuiltinCatalog loads one bundled catalog.
func (l *Loader) LoadBuiltinCatalog(category Category) (*Catalog, error) {
	resource, ok := builtinCatalogs[category]
	if !ok {
		return nil, &UnknownCategoryError{Category: string(category)}
	}

	data, err := fs.ReadFile(l.fs, resource)
	if err != nil {
		return nil, loadError(resource, fmt.Errorf("failed to read bundled catalog: %w", err))
	}
	return l.LoadCatalog(data, resource)
}

// LoadBuiltinCatalogs loads every bundled catalog, sorted by category.
func (l *Loader) LoadBuiltinCatalogs() ([]*Catalog, error) {
	categories := AvailableCategories()
	catalogs := make([]*Catalog, 0, len(categories))
	for _, c := range categories {
		catalog, err := l.LoadBuiltinCatalog(c)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, catalog)
	}
	return catalogs, nil
}

// Load resolves ref as a bundled category identifier first and falls back to
// treating it as a path to a catalog file. A bare identifier (no path
// separator, no extension) that names neither fails with
// *UnknownCategoryError; anything else is loaded as a file, so a missing
// path fails with *CatalogLoadError.
func (l *Loader) Load(ref string) (*Catalog, error) {
	if category, err := ParseCategory(ref); err == nil {
		return l.LoadBuiltinCatalog(category)
	}
	if isBareIdentifier(ref) {
		if _, err := os.Stat(ref); err != nil {
			return nil, &UnknownCategoryError{Category: ref}
		}
	}
	return l.LoadCatalogFile(ref)
}

func isBareIdentifier(ref string) bool {
	return !strings.ContainsAny(ref, `/\`) && filepath.Ext(ref) == ""
}

// convertYAMLRule converts yamlRule to types.Rule.
func convertYAMLRule(yr yamlRule) *types.Rule {
	return &types.Rule{
		Name:             yr.Name,
		Pattern:          yr.Pattern,
		Documentation:    yr.Documentation,
		Keywords:         yr.Keywords,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
	}
}
