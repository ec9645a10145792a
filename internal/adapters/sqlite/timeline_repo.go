package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/resolvd/internal/ports/secondary"
)

// TimelineRepository implements secondary.TimelineRepository with SQLite.
type TimelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository creates a new SQLite timeline repository.
func NewTimelineRepository(db *sql.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Create persists a new timeline entry.
func (r *TimelineRepository) Create(ctx context.Context, record *secondary.TimelineRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO case_timeline (id, case_id, actor, action, field_name, old_value, new_value, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CaseID,
		record.Actor,
		record.Action,
		nullString(record.FieldName),
		nullString(record.OldValue),
		nullString(record.NewValue),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create timeline entry: %w", err)
	}
	return nil
}

// ListByCase returns a case's entries, oldest first.
func (r *TimelineRepository) ListByCase(ctx context.Context, caseID string) ([]*secondary.TimelineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_id, actor, action, field_name, old_value, new_value, created_at FROM case_timeline WHERE case_id = ? ORDER BY created_at ASC, rowid ASC`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.TimelineRecord
	for rows.Next() {
		var fieldName, oldValue, newValue sql.NullString
		record := &secondary.TimelineRecord{}
		if err := rows.Scan(&record.ID, &record.CaseID, &record.Actor, &record.Action, &fieldName, &oldValue, &newValue, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		record.FieldName = fieldName.String
		record.OldValue = oldValue.String
		record.NewValue = newValue.String
		entries = append(entries, record)
	}
	return entries, rows.Err()
}

var _ secondary.TimelineRepository = (*TimelineRepository)(nil)
