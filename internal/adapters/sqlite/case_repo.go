package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/resolvd/internal/ports/secondary"
)

const caseColumns = `id, session_id, case_type, status, customer_email, customer_name, order_id, order_number,
	order_total_cents, selected_item_ids, intent, resolution_type, refund_amount_cents, refund_percentage,
	assignee, created_at, updated_at, resolved_at`

// CaseRepository implements secondary.CaseRepository with SQLite.
type CaseRepository struct {
	db *sql.DB
}

// NewCaseRepository creates a new SQLite case repository.
func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create persists a new case. A taken id or session id yields secondary.ErrDuplicate.
func (r *CaseRepository) Create(ctx context.Context, record *secondary.CaseRecord) error {
	items, err := json.Marshal(nonNil(record.SelectedItemIDs))
	if err != nil {
		return fmt.Errorf("failed to encode selected items: %w", err)
	}

	var refund sql.NullInt64
	if record.RefundAmountCents != nil {
		refund = sql.NullInt64{Int64: *record.RefundAmountCents, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SessionID,
		record.CaseType,
		record.Status,
		record.CustomerEmail,
		nullString(record.CustomerName),
		nullString(record.OrderID),
		nullString(record.OrderNumber),
		record.OrderTotalCents,
		string(items),
		nullString(record.Intent),
		record.ResolutionType,
		refund,
		record.RefundPercentage,
		nullString(record.Assignee),
		record.CreatedAt.UTC(),
		record.UpdatedAt.UTC(),
		nullTime(record.ResolvedAt),
	)
	if isUniqueViolation(err) {
		return secondary.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetByID retrieves a case by its ID.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*secondary.CaseRecord, error) {
	return r.getOne(ctx, "id", id)
}

// GetBySessionID retrieves the case emitted for a session.
func (r *CaseRepository) GetBySessionID(ctx context.Context, sessionID string) (*secondary.CaseRecord, error) {
	return r.getOne(ctx, "session_id", sessionID)
}

func (r *CaseRepository) getOne(ctx context.Context, column, value string) (*secondary.CaseRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE `+column+` = ?`, value)
	record, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return record, nil
}

// List retrieves cases matching the given filters, newest first.
func (r *CaseRepository) List(ctx context.Context, filters secondary.CaseFilters) ([]*secondary.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if len(filters.Statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(", ?", len(filters.Statuses)-1) + ")"
		for _, s := range filters.Statuses {
			args = append(args, s)
		}
	}
	if filters.CaseType != "" {
		query += " AND case_type = ?"
		args = append(args, filters.CaseType)
	}
	if filters.ResolutionType != "" {
		query += " AND resolution_type = ?"
		args = append(args, filters.ResolutionType)
	}
	if filters.CustomerEmail != "" {
		query += " AND customer_email = ?"
		args = append(args, filters.CustomerEmail)
	}
	if filters.Assignee != "" {
		query += " AND assignee = ?"
		args = append(args, filters.Assignee)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*secondary.CaseRecord
	for rows.Next() {
		record, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, record)
	}
	return cases, rows.Err()
}

// Update updates status, assignee and resolution timestamp of a case.
func (r *CaseRepository) Update(ctx context.Context, record *secondary.CaseRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = ?, assignee = ?, resolved_at = ?, updated_at = ? WHERE id = ?`,
		record.Status,
		nullString(record.Assignee),
		nullTime(record.ResolvedAt),
		record.UpdatedAt.UTC(),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return secondary.ErrNotFound
	}
	return nil
}

// Stats aggregates counts and refund totals.
func (r *CaseRepository) Stats(ctx context.Context) (*secondary.CaseStatsRecord, error) {
	stats := &secondary.CaseStatsRecord{
		ByStatus:         map[string]int{},
		ByCaseType:       map[string]int{},
		ByResolutionType: map[string]int{},
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(refund_amount_cents), 0) FROM cases`,
	).Scan(&stats.Total, &stats.TotalRefundedCents)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cases: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"status", stats.ByStatus},
		{"case_type", stats.ByCaseType},
		{"resolution_type", stats.ByResolutionType},
	}
	for _, g := range groups {
		if err := r.countBy(ctx, g.column, g.into); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *CaseRepository) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM cases GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("failed to count cases by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*secondary.CaseRecord, error) {
	var (
		customerName sql.NullString
		orderID      sql.NullString
		orderNumber  sql.NullString
		items        string
		intent       sql.NullString
		refund       sql.NullInt64
		assignee     sql.NullString
		resolvedAt   sql.NullTime
	)

	record := &secondary.CaseRecord{}
	err := row.Scan(
		&record.ID, &record.SessionID, &record.CaseType, &record.Status, &record.CustomerEmail,
		&customerName, &orderID, &orderNumber, &record.OrderTotalCents, &items, &intent,
		&record.ResolutionType, &refund, &record.RefundPercentage, &assignee,
		&record.CreatedAt, &record.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CustomerName = customerName.String
	record.OrderID = orderID.String
	record.OrderNumber = orderNumber.String
	record.Intent = intent.String
	record.Assignee = assignee.String
	if refund.Valid {
		cents := refund.Int64
		record.RefundAmountCents = &cents
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		record.ResolvedAt = &t
	}
	if err := json.Unmarshal([]byte(items), &record.SelectedItemIDs); err != nil {
		return nil, fmt.Errorf("failed to decode selected items of %s: %w", record.ID, err)
	}
	return record, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ secondary.CaseRepository = (*CaseRepository)(nil)
