package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/resolvd/internal/ports/secondary"
)

// CommentRepository implements secondary.CommentRepository with SQLite.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create persists a new comment.
func (r *CommentRepository) Create(ctx context.Context, record *secondary.CommentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO case_comments (id, case_id, author, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.CaseID, record.Author, record.Body, record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByCase returns a case's comments, oldest first.
func (r *CommentRepository) ListByCase(ctx context.Context, caseID string) ([]*secondary.CommentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_id, author, body, created_at FROM case_comments WHERE case_id = ? ORDER BY created_at ASC, rowid ASC`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*secondary.CommentRecord
	for rows.Next() {
		record := &secondary.CommentRecord{}
		if err := rows.Scan(&record.ID, &record.CaseID, &record.Author, &record.Body, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, record)
	}
	return comments, rows.Err()
}

var _ secondary.CommentRepository = (*CommentRepository)(nil)
