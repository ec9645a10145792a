// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the single point where the database schema is loaded for
// tests. All setup goes through db.GetSchemaSQL() so tests run against the
// authoritative schema.
//
// Do not hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/resolvd/internal/adapters/sqlite"
	"github.com/example/resolvd/internal/db"
	"github.com/example/resolvd/internal/ports/secondary"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedCase inserts a refund case for sessionID and returns it.
func seedCase(t *testing.T, database *sql.DB, id, sessionID string) *secondary.CaseRecord {
	t.Helper()
	cents := int64(2000)
	record := &secondary.CaseRecord{
		ID:                id,
		SessionID:         sessionID,
		CaseType:          "refund",
		Status:            "open",
		CustomerEmail:     "jane@example.com",
		CustomerName:      "Jane",
		OrderID:           "gid-1001",
		OrderNumber:       "#1001",
		OrderTotalCents:   10000,
		SelectedItemIDs:   []string{"li-1", "li-2"},
		Intent:            "not_working",
		ResolutionType:    "partial_refund",
		RefundAmountCents: &cents,
		RefundPercentage:  20,
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
	if err := sqlite.NewCaseRepository(database).Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}
	return record
}
