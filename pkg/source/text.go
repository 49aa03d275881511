package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// KindText reads each non-blank line of a file as a column name.
const KindText = "text"

const maxLineSize = 1024 * 1024

// Text is a plain text file listing one entry per line.
type Text struct {
	path string
}

// NewText creates a text source.
func NewText(path string) *Text {
	return &Text{path: path}
}

func (t *Text) Type() string { return KindText }
func (t *Text) Path() string { return t.path }

// Columns returns the lines of the file without trailing whitespace.
// Blank lines are skipped.
func (t *Text) Columns(ctx context.Context) ([]Column, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open text source: %w", err)
	}
	defer f.Close()

	var cols []Column
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		cols = append(cols, Column{Name: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text source %s: %w", t.path, err)
	}
	return cols, nil
}
