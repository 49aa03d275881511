package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Columns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.txt")
	require.NoError(t, os.WriteFile(path, []byte("first_name\r\n\n  \nemail  \nid"), 0o644))

	src := NewText(path)
	cols, err := src.Columns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Column{{Name: "first_name"}, {Name: "email"}, {Name: "id"}}, cols)
	assert.Equal(t, KindText, src.Type())
}

func TestText_Missing(t *testing.T) {
	_, err := NewText(filepath.Join(t.TempDir(), "missing.txt")).Columns(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestText_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewText(path).Columns(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
