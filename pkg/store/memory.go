package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/praetorian-inc/guardian/pkg/types"
)

// scanRecord stores one scan.
type scanRecord struct {
	createdAt time.Time
	entries   []types.ReportResults
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu    sync.RWMutex
	scans map[string]*scanRecord
	now   func() time.Time
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		scans: make(map[string]*scanRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// AddReport appends the entries of r to the report of scanID.
func (m *MemoryStore) AddReport(scanID string, r types.Report) error {
	if scanID == "" {
		return fmt.Errorf("scan id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.scans[scanID]
	if !ok {
		rec = &scanRecord{createdAt: m.now()}
		m.scans[scanID] = rec
	}
	rec.entries = append(rec.entries, copyEntries(r.Results)...)
	return nil
}

// GetReport retrieves the report of a scan.
func (m *MemoryStore) GetReport(scanID string) (types.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scans[scanID]
	if !ok {
		return types.Report{}, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
	}
	return types.Report{Results: copyEntries(rec.entries)}, nil
}

// ListScans returns every stored scan, oldest first.
func (m *MemoryStore) ListScans() ([]ScanInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scans := make([]ScanInfo, 0, len(m.scans))
	for id, rec := range m.scans {
		report := types.Report{Results: rec.entries}
		scans = append(scans, ScanInfo{
			ID:         id,
			CreatedAt:  rec.createdAt,
			Sources:    len(rec.entries),
			Violations: report.Violations(),
		})
	}
	sortScans(scans)
	return scans, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyEntries(entries []types.ReportResults) []types.ReportResults {
	out := make([]types.ReportResults, len(entries))
	for i, e := range entries {
		results := make([]*types.MatchResult, len(e.Results))
		for j, r := range e.Results {
			results[j] = r.Clone()
		}
		out[i] = types.ReportResults{Source: e.Source, Results: results}
	}
	return out
}

func sortScans(scans []ScanInfo) {
	sort.Slice(scans, func(i, j int) bool {
		if !scans[i].CreatedAt.Equal(scans[j].CreatedAt) {
			return scans[i].CreatedAt.Before(scans[j].CreatedAt)
		}
		return scans[i].ID < scans[j].ID
	})
}
