package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/segmentio/parquet-go"
)

// KindParquet reads the leaf column paths of a Parquet file.
const KindParquet = "parquet"

// Parquet is a local Parquet file. Only the footer schema is read.
type Parquet struct {
	path string
}

// NewParquet creates a Parquet source.
func NewParquet(path string) *Parquet {
	return &Parquet{path: path}
}

func (p *Parquet) Type() string { return KindParquet }
func (p *Parquet) Path() string { return p.path }

// Columns returns the leaf columns of the schema. Nested columns are reported
// with dotted paths.
func (p *Parquet) Columns(ctx context.Context) ([]Column, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat Parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet file %s: %w", p.path, err)
	}

	paths := pf.Schema().Columns()
	cols := make([]Column, 0, len(paths))
	for _, path := range paths {
		cols = append(cols, Column{Name: strings.Join(path, ".")})
	}
	return cols, nil
}
