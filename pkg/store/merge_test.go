package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/guardian/pkg/types"
)

func seedDB(t *testing.T, path string, reports map[string]types.Report) {
	t.Helper()
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	for id, r := range reports {
		require.NoError(t, s.AddReport(id, r))
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	src1 := filepath.Join(dir, "a.db")
	src2 := filepath.Join(dir, "b.db")
	dest := filepath.Join(dir, "merged.db")

	seedDB(t, src1, map[string]types.Report{"scan-1": testReport()})
	seedDB(t, src2, map[string]types.Report{
		"scan-1": types.NewReport("conflict", nil),
		"scan-2": types.NewReport("b.txt", nil),
	})

	stats, err := Merge(MergeConfig{SourcePaths: []string{src1, src2}, DestPath: dest})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SourcesProcessed)
	assert.Equal(t, 2, stats.ScansMerged)
	assert.Equal(t, 1, stats.ScansSkipped)
	assert.Equal(t, 3, stats.EntriesMerged)

	merged, err := NewSQLite(dest)
	require.NoError(t, err)
	defer merged.Close()

	got, err := merged.GetReport("scan-1")
	require.NoError(t, err)
	assertReportsEqual(t, testReport(), got)

	scans, err := merged.ListScans()
	require.NoError(t, err)
	assert.Len(t, scans, 2)
}

func TestMerge_Idempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.db")
	dest := filepath.Join(dir, "merged.db")
	seedDB(t, src, map[string]types.Report{"scan-1": testReport()})

	_, err := Merge(MergeConfig{SourcePaths: []string{src}, DestPath: dest})
	require.NoError(t, err)
	stats, err := Merge(MergeConfig{SourcePaths: []string{src}, DestPath: dest})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ScansMerged)
	assert.Equal(t, 1, stats.ScansSkipped)
}

func TestMerge_Validation(t *testing.T) {
	_, err := Merge(MergeConfig{DestPath: "x.db"})
	assert.Error(t, err)

	_, err = Merge(MergeConfig{SourcePaths: []string{"a.db"}})
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = Merge(MergeConfig{
		SourcePaths: []string{filepath.Join(dir, "missing.db")},
		DestPath:    filepath.Join(dir, "merged.db"),
	})
	assert.Error(t, err)
}

func TestMerge_LeavesSourceUntouched(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "other.db")
	dest := filepath.Join(dir, "merged.db")

	db, err := sql.Open("sqlite", src)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE other (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	_, err = Merge(MergeConfig{SourcePaths: []string{src}, DestPath: dest})
	require.Error(t, err, "a database without guardian tables cannot be merged")

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	db, err = sql.Open("sqlite", src)
	require.NoError(t, err)
	defer db.Close()
	var tables int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'scans'").Scan(&tables))
	assert.Zero(t, tables)
}
