package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/praetorian-inc/guardian/pkg/types"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// openSQLiteReadOnly opens an existing database without creating or altering
// its schema. Writes through the returned store fail.
func openSQLiteReadOnly(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// AddReport appends the entries of r to the report of scanID.
func (s *SQLiteStore) AddReport(scanID string, r types.Report) error {
	return s.addReportAt(scanID, s.now(), r)
}

func (s *SQLiteStore) addReportAt(scanID string, createdAt time.Time, r types.Report) error {
	if scanID == "" {
		return fmt.Errorf("scan id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT OR IGNORE INTO scans (id, created_at) VALUES (?, ?)",
		scanID, createdAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}

	var next int
	err = tx.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM report_entries WHERE scan_id = ?", scanID).Scan(&next)
	if err != nil {
		return fmt.Errorf("querying entry position: %w", err)
	}

	for i, entry := range r.Results {
		res, err := tx.Exec("INSERT INTO report_entries (scan_id, position, source) VALUES (?, ?, ?)",
			scanID, next+i, entry.Source)
		if err != nil {
			return fmt.Errorf("inserting report entry: %w", err)
		}
		entryID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading entry id: %w", err)
		}

		for j, result := range entry.Results {
			if err := insertResult(tx, entryID, j, result); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertResult(tx *sql.Tx, entryID int64, position int, result *types.MatchResult) error {
	res, err := tx.Exec("INSERT INTO results (entry_id, position, category, content) VALUES (?, ?, ?, ?)",
		entryID, position, result.Category, result.Content)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	resultID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading result id: %w", err)
	}

	for k, r := range result.Rules {
		structuralID := r.StructuralID
		if structuralID == "" {
			structuralID = r.ComputeStructuralID()
		}
		_, err := tx.Exec(`
			INSERT INTO result_rules (result_id, position, rule_name, pattern, documentation, structural_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			resultID,
			k,
			r.Name,
			r.Pattern,
			r.Documentation,
			structuralID,
		)
		if err != nil {
			return fmt.Errorf("inserting result rule: %w", err)
		}
	}
	return nil
}

// GetReport retrieves the report of a scan.
func (s *SQLiteStore) GetReport(scanID string) (types.Report, error) {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM scans WHERE id = ?", scanID).Scan(&exists)
	if err != nil {
		return types.Report{}, fmt.Errorf("querying scan: %w", err)
	}
	if exists == 0 {
		return types.Report{}, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
	}

	rows, err := s.db.Query(`
		SELECT e.id, e.source, r.id, r.category, r.content,
		       rr.rule_name, rr.pattern, rr.documentation, rr.structural_id
		FROM report_entries e
		LEFT JOIN results r ON r.entry_id = e.id
		LEFT JOIN result_rules rr ON rr.result_id = r.id
		WHERE e.scan_id = ?
		ORDER BY e.position, r.position, rr.position
	`, scanID)
	if err != nil {
		return types.Report{}, fmt.Errorf("querying report: %w", err)
	}
	defer rows.Close()

	report := types.Report{Results: []types.ReportResults{}}
	var (
		lastEntry  int64 = -1
		lastResult int64 = -1
	)
	for rows.Next() {
		var (
			entryID                              int64
			source                               string
			resultID                             sql.NullInt64
			category, content                    sql.NullString
			ruleName, pattern, doc, structuralID sql.NullString
		)
		err := rows.Scan(&entryID, &source, &resultID, &category, &content,
			&ruleName, &pattern, &doc, &structuralID)
		if err != nil {
			return types.Report{}, fmt.Errorf("scanning report row: %w", err)
		}

		if entryID != lastEntry {
			report.Results = append(report.Results, types.ReportResults{
				Source:  source,
				Results: []*types.MatchResult{},
			})
			lastEntry = entryID
		}
		if !resultID.Valid {
			continue
		}

		entry := &report.Results[len(report.Results)-1]
		if resultID.Int64 != lastResult {
			entry.Results = append(entry.Results, types.NewMatchResult(category.String, content.String, nil))
			lastResult = resultID.Int64
		}
		if ruleName.Valid {
			result := entry.Results[len(entry.Results)-1]
			result.Rules = append(result.Rules, &types.Rule{
				Name:          ruleName.String,
				Pattern:       pattern.String,
				Documentation: doc.String,
				StructuralID:  structuralID.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return types.Report{}, fmt.Errorf("iterating report: %w", err)
	}

	return report, nil
}

// ListScans returns every stored scan, oldest first.
func (s *SQLiteStore) ListScans() ([]ScanInfo, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.created_at,
		       (SELECT COUNT(*) FROM report_entries e WHERE e.scan_id = s.id),
		       (SELECT COUNT(*) FROM result_rules rr
		          JOIN results r ON rr.result_id = r.id
		          JOIN report_entries e ON r.entry_id = e.id
		         WHERE e.scan_id = s.id)
		FROM scans s
		ORDER BY s.created_at, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	scans := make([]ScanInfo, 0)
	for rows.Next() {
		var info ScanInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &createdAt, &info.Sources, &info.Violations); err != nil {
			return nil, fmt.Errorf("scanning scan: %w", err)
		}
		info.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing scan time: %w", err)
		}
		scans = append(scans, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scans: %w", err)
	}

	return scans, nil
}

// scanCreatedAt returns the creation time of a stored scan.
func (s *SQLiteStore) scanCreatedAt(scanID string) (time.Time, error) {
	var createdAt string
	err := s.db.QueryRow("SELECT created_at FROM scans WHERE id = ?", scanID).Scan(&createdAt)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(timeLayout, createdAt)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
