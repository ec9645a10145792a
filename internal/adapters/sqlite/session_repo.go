package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/ports/secondary"
)

// SessionRepository implements secondary.SessionRepository with SQLite.
// The session is stored as a JSON document; state, email and case id are
// copied into columns for querying.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session *ladder.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, customer_email, case_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		string(session.State),
		nullString(session.Customer.Email),
		nullString(session.CaseID),
		string(data),
		session.CreatedAt.UTC(),
		session.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return secondary.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*ladder.Session, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session ladder.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, nil
}

// Update replaces a stored session.
func (r *SessionRepository) Update(ctx context.Context, session *ladder.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, customer_email = ?, case_id = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(session.State),
		nullString(session.Customer.Email),
		nullString(session.CaseID),
		string(data),
		session.UpdatedAt.UTC(),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// nullString converts an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ secondary.SessionRepository = (*SessionRepository)(nil)
