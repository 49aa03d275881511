package matcher

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/praetorian-inc/guardian/pkg/types"
)

const (
	// binarySniffSize is how much of a file is checked for NUL bytes up front.
	binarySniffSize = 8192
	readBufferSize  = 64 * 1024
)

// MatchFile reads the text file at path line by line and applies MatchOne to
// each line. Reported content is the line without trailing whitespace; blank
// lines are skipped. Unreadable or binary files fail with *IOError.
func (m *Matcher) MatchFile(path string) ([]*types.MatchResult, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return m.MatchMany(lines), nil
}

// MatchReader is MatchFile over an arbitrary reader. name identifies the
// input in errors.
func (m *Matcher) MatchReader(r io.Reader, name string) ([]*types.MatchResult, error) {
	lines, err := ReadLinesFrom(r, name)
	if err != nil {
		return nil, err
	}
	return m.MatchMany(lines), nil
}

// ReadLines returns the non-blank lines of the text file at path with
// trailing whitespace removed. Callers running several matchers over one
// file read it once and hand the lines to MatchMany.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	return ReadLinesFrom(f, path)
}

// ReadLinesFrom is ReadLines over an arbitrary reader.
func ReadLinesFrom(r io.Reader, name string) ([]string, error) {
	br := bufio.NewReaderSize(r, readBufferSize)

	head, err := br.Peek(binarySniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, &IOError{Path: name, Err: err}
	}
	if bytes.IndexByte(head, 0) != -1 {
		return nil, &IOError{Path: name, Err: ErrBinaryContent}
	}

	lines := make([]string, 0)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			if strings.IndexByte(line, 0) != -1 {
				return nil, &IOError{Path: name, Line: lineNo, Err: ErrBinaryContent}
			}
			if !utf8.ValidString(line) {
				return nil, &IOError{Path: name, Line: lineNo, Err: ErrInvalidEncoding}
			}

			if content := strings.TrimRightFunc(line, unicode.IsSpace); content != "" {
				lines = append(lines, content)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &IOError{Path: name, Line: lineNo + 1, Err: err}
		}
	}

	return lines, nil
}
