package enum

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEnumerator is a simple Enumerator that yields a fixed set of paths.
type mockEnumerator struct {
	paths []string
}

func (m *mockEnumerator) Enumerate(ctx context.Context, callback func(path string) error) error {
	for _, p := range m.paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := callback(p); err != nil {
			return err
		}
	}
	return nil
}

func TestCombinedEnumerator_Empty(t *testing.T) {
	combined := NewCombinedEnumerator()

	var yielded int
	err := combined.Enumerate(context.Background(), func(string) error {
		yielded++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, yielded, "empty CombinedEnumerator should yield no paths")
}

func TestCombinedEnumerator_Deduplicates(t *testing.T) {
	combined := NewCombinedEnumerator(
		&mockEnumerator{paths: []string{"/data/a.txt", "/data/b.txt"}},
		&mockEnumerator{paths: []string{"/data/b.txt", "/data/c.txt"}},
	)

	var got []string
	err := combined.Enumerate(context.Background(), func(p string) error {
		got = append(got, p)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt", "/data/c.txt"}, got)
}

func TestCombinedEnumerator_OverlappingRoots(t *testing.T) {
	tmpDir := t.TempDir()
	sub := filepath.Join(tmpDir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "top.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.txt"), []byte("y"), 0o644))

	combined := NewCombinedEnumerator(
		NewFilesystemEnumerator(Config{Root: tmpDir, Concurrency: 1}),
		NewFilesystemEnumerator(Config{Root: sub, Concurrency: 1}),
	)

	var got []string
	err := combined.Enumerate(context.Background(), func(p string) error {
		got = append(got, filepath.Base(p))
		return nil
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top.txt", "nested.txt"}, got)
}

func TestCombinedEnumerator_CallbackError(t *testing.T) {
	sentinel := errors.New("stop")
	combined := NewCombinedEnumerator(
		&mockEnumerator{paths: []string{"a", "b"}},
		&mockEnumerator{paths: []string{"c"}},
	)

	var calls int
	err := combined.Enumerate(context.Background(), func(string) error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}
