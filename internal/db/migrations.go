package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_sessions_and_cases",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_case_comments_and_timeline",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_case_assignee_and_resolved_at",
		Up:      migrationV3,
	},
}

const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// RunMigrations applies every migration newer than the recorded schema
// version. Each migration runs in its own transaction.
func RunMigrations(database *sql.DB) error {
	if _, err := database.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := CurrentVersion(database)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(database, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or 0.
func CurrentVersion(database *sql.DB) (int, error) {
	var version sql.NullInt64
	err := database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// LatestVersion is the version a fully migrated database reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

func applyMigration(database *sql.DB, m Migration) error {
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
		return err
	}
	return tx.Commit()
}

func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL CHECK (state IN ('awaiting_intent', 'offer_presented', 'accepted', 'escalated')),
			customer_email TEXT,
			case_id TEXT,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_customer_email ON sessions(customer_email);

		CREATE TABLE IF NOT EXISTS cases (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL UNIQUE,
			case_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'resolved', 'closed')),
			customer_email TEXT NOT NULL,
			customer_name TEXT,
			order_id TEXT,
			order_number TEXT,
			order_total_cents INTEGER NOT NULL DEFAULT 0,
			selected_item_ids TEXT NOT NULL DEFAULT '[]',
			intent TEXT,
			resolution_type TEXT NOT NULL,
			refund_amount_cents INTEGER,
			refund_percentage INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
		CREATE INDEX IF NOT EXISTS idx_cases_customer_email ON cases(customer_email);
		CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at);
	`)
	return err
}

func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS case_comments (
			id TEXT PRIMARY KEY,
			case_id TEXT NOT NULL,
			author TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_case_comments_case ON case_comments(case_id);

		CREATE TABLE IF NOT EXISTS case_timeline (
			id TEXT PRIMARY KEY,
			case_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL CHECK (action IN ('create', 'update', 'comment')),
			field_name TEXT,
			old_value TEXT,
			new_value TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_case_timeline_case ON case_timeline(case_id, created_at);
	`)
	return err
}

func migrationV3(tx *sql.Tx) error {
	for _, col := range []string{"assignee TEXT", "resolved_at DATETIME"} {
		if _, err := tx.Exec("ALTER TABLE cases ADD COLUMN " + col); err != nil {
			return err
		}
	}
	return nil
}
