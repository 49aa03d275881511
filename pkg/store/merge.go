package store

import (
	"errors"
	"fmt"
	"os"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	ScansMerged      int
	ScansSkipped     int
	EntriesMerged    int
	SourcesProcessed int
}

// Merge combines multiple guardian databases into one.
// Scans already present in the destination (same id) are skipped, so merging
// the same source twice is a no-op. Scan creation times are preserved.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	// Open/create destination database
	dest, err := NewSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(dest, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.ScansMerged += sourceStats.ScansMerged
		stats.ScansSkipped += sourceStats.ScansSkipped
		stats.EntriesMerged += sourceStats.EntriesMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies scans from a source database to the destination. The
// source is opened read-only and is never modified.
func mergeFrom(dest *SQLiteStore, sourcePath string) (*MergeStats, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, err
	}

	src, err := openSQLiteReadOnly(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer src.Close()

	scans, err := src.ListScans()
	if err != nil {
		return nil, err
	}

	stats := &MergeStats{}
	for _, scan := range scans {
		if _, err := dest.GetReport(scan.ID); err == nil {
			stats.ScansSkipped++
			continue
		} else if !errors.Is(err, ErrScanNotFound) {
			return stats, err
		}

		report, err := src.GetReport(scan.ID)
		if err != nil {
			return stats, err
		}
		createdAt, err := src.scanCreatedAt(scan.ID)
		if err != nil {
			return stats, fmt.Errorf("reading scan %s: %w", scan.ID, err)
		}
		if err := dest.addReportAt(scan.ID, createdAt, report); err != nil {
			return stats, err
		}
		stats.ScansMerged++
		stats.EntriesMerged += len(report.Results)
	}
	return stats, nil
}
