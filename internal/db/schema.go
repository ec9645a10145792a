package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs. It reflects the state
// after all migrations.
//
// This is the single source of truth for the schema: repository tests load it
// through GetSchemaSQL() instead of declaring their own tables, so a column a
// repository references but the schema lacks fails the tests with
// "no such column".
//
// When adding a column or table:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Conversations between a customer and the resolution flow
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

-- Support cases emitted by finished negotiations
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
	assignee TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_customer_email ON cases(customer_email);
CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at);

-- Staff notes on a case
CREATE TABLE IF NOT EXISTS case_comments (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	author TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (case_id) REFERENCES cases(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_case_comments_case ON case_comments(case_id);

-- Audit trail of case changes
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
`

// InitSchema creates the schema on a fresh database, or runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	var existing int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('sessions', 'cases')").Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		// Tables from before versioning: upgrade through the migrations.
		return RunMigrations(database)
	}

	// Fresh install: create the modern schema and mark every migration applied.
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionSQL); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
