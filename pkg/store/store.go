package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praetorian-inc/guardian/pkg/types"
)

// ErrScanNotFound indicates a scan id with no stored report.
var ErrScanNotFound = errors.New("scan not found")

// Store provides persistence for scan reports.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddReport appends the entries of r to the report of scanID,
	// creating the scan on first use.
	AddReport(scanID string, r types.Report) error

	// GetReport retrieves the full report of a scan, entries in insertion order.
	GetReport(scanID string) (types.Report, error)

	// ListScans returns every stored scan, oldest first.
	ListScans() ([]ScanInfo, error)

	// Close closes the database connection.
	Close() error
}

// ScanInfo summarizes one stored scan.
type ScanInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Sources    int       `json:"sources"`
	Violations int       `json:"violations"`
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-process store (useful for testing).
	Path string
}

// New creates a Store: a MemoryStore for ":memory:", SQLite otherwise.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}

// NewScanID returns a fresh random scan id.
func NewScanID() string {
	return uuid.NewString()
}
