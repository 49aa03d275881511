package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	// Create schema_version table
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	// Create main tables
	if err := createScansTable(db); err != nil {
		return fmt.Errorf("creating scans table: %w", err)
	}

	if err := createEntriesTable(db); err != nil {
		return fmt.Errorf("creating report_entries table: %w", err)
	}

	if err := createResultsTable(db); err != nil {
		return fmt.Errorf("creating results table: %w", err)
	}

	if err := createResultRulesTable(db); err != nil {
		return fmt.Errorf("creating result_rules table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	return nil
}

func createScansTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func createEntriesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS report_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL REFERENCES scans(id),
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			UNIQUE(scan_id, position)
		)
	`)
	return err
}

func createResultsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id INTEGER NOT NULL REFERENCES report_entries(id),
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			content TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_results_entry_id ON results(entry_id)
	`)
	return err
}

func createResultRulesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS result_rules (
			result_id INTEGER NOT NULL REFERENCES results(id),
			position INTEGER NOT NULL,
			rule_name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			documentation TEXT NOT NULL,
			structural_id TEXT NOT NULL,
			PRIMARY KEY (result_id, position)
		)
	`)
	return err
}
