package secondary

import (
	"context"
	"time"
)

// CaseRepository defines the secondary port for case persistence.
type CaseRepository interface {
	// Create persists a new case. Returns ErrDuplicate if the id or the
	// session id is already taken.
	Create(ctx context.Context, record *CaseRecord) error

	// GetByID retrieves a case by its ID. Returns ErrNotFound if missing.
	GetByID(ctx context.Context, id string) (*CaseRecord, error)

	// GetBySessionID retrieves the case emitted for a session. Returns ErrNotFound if missing.
	GetBySessionID(ctx context.Context, sessionID string) (*CaseRecord, error)

	// List retrieves cases matching the given filters, newest first.
	List(ctx context.Context, filters CaseFilters) ([]*CaseRecord, error)

	// Update updates status, assignee and resolution timestamp of a case.
	Update(ctx context.Context, record *CaseRecord) error

	// Stats aggregates counts and refund totals.
	Stats(ctx context.Context) (*CaseStatsRecord, error)
}

// CaseRecord represents a case as stored in persistence.
type CaseRecord struct {
	ID                string
	SessionID         string
	CaseType          string
	Status            string
	CustomerEmail     string
	CustomerName      string
	OrderID           string // Empty string means null
	OrderNumber       string // Empty string means null
	OrderTotalCents   int64
	SelectedItemIDs   []string
	Intent            string
	ResolutionType    string
	RefundAmountCents *int64 // nil means no refund (escalated)
	RefundPercentage  int
	Assignee          string // Empty string means null
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
}

// CaseFilters contains filter options for querying cases.
type CaseFilters struct {
	Status         string
	Statuses       []string
	CaseType       string
	ResolutionType string
	CustomerEmail  string
	Assignee       string
	Limit          int
	Offset         int
}

// CaseStatsRecord is the aggregate view of the case table.
type CaseStatsRecord struct {
	Total              int
	ByStatus           map[string]int
	ByCaseType         map[string]int
	ByResolutionType   map[string]int
	TotalRefundedCents int64
}

// CommentRepository defines the secondary port for case comments.
type CommentRepository interface {
	// Create persists a new comment.
	Create(ctx context.Context, record *CommentRecord) error

	// ListByCase returns a case's comments, oldest first.
	ListByCase(ctx context.Context, caseID string) ([]*CommentRecord, error)
}

// CommentRecord represents a comment as stored in persistence.
type CommentRecord struct {
	ID        string
	CaseID    string
	Author    string
	Body      string
	CreatedAt time.Time
}

// TimelineRepository defines the secondary port for the case audit trail.
// Entries are immutable - no Update operations.
type TimelineRepository interface {
	// Create persists a new timeline entry.
	Create(ctx context.Context, record *TimelineRecord) error

	// ListByCase returns a case's entries, oldest first.
	ListByCase(ctx context.Context, caseID string) ([]*TimelineRecord, error)
}

// TimelineRecord represents an audit entry as stored in persistence.
type TimelineRecord struct {
	ID        string
	CaseID    string
	Actor     string
	Action    string // 'create', 'update', 'comment'
	FieldName string // Empty string means null
	OldValue  string // Empty string means null
	NewValue  string // Empty string means null
	CreatedAt time.Time
}

// StaffIdentity is a verified hub user.
type StaffIdentity struct {
	UserID   string
	Username string
}

// IdentityVerifier verifies hub bearer tokens.
type IdentityVerifier interface {
	// Verify returns the staff identity behind token, or an error if the
	// token is invalid or expired.
	Verify(ctx context.Context, token string) (*StaffIdentity, error)
}
