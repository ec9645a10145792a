package primary

import (
	"context"
	"time"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/supportcase"
)

// CaseService defines the primary port for case storage and the staff hub.
// Mutating calls record the context actor on the case timeline.
type CaseService interface {
	// CreateCase stores a case for a finished negotiation. A second request
	// for the same session returns the existing case id.
	CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error)

	// GetCase retrieves a case by ID.
	GetCase(ctx context.Context, caseID string) (*Case, error)

	// ListCases lists cases with optional filters, newest first.
	ListCases(ctx context.Context, filters CaseFilters) ([]*Case, error)

	// UpdateStatus moves a case through the hub workflow.
	UpdateStatus(ctx context.Context, caseID string, status supportcase.Status) (*Case, error)

	// Assign sets (or clears, with "") the staff member owning a case.
	Assign(ctx context.Context, caseID, assignee string) (*Case, error)

	// AddComment adds a staff note to a case.
	AddComment(ctx context.Context, caseID, body string) (*Comment, error)

	// ListComments returns a case's comments, oldest first.
	ListComments(ctx context.Context, caseID string) ([]*Comment, error)

	// Timeline returns a case's audit trail, oldest first.
	Timeline(ctx context.Context, caseID string) ([]*TimelineEntry, error)

	// Stats aggregates the case table for the hub dashboard.
	Stats(ctx context.Context) (*CaseStats, error)
}

// Case represents a case at the port boundary.
type Case struct {
	ID               string                  `json:"id"`
	SessionID        string                  `json:"sessionId"`
	CaseType         casefile.CaseType       `json:"caseType"`
	Status           supportcase.Status      `json:"status"`
	CustomerEmail    string                  `json:"customerEmail"`
	CustomerName     string                  `json:"customerName"`
	OrderID          string                  `json:"orderId"`
	OrderNumber      string                  `json:"orderNumber"`
	OrderTotal       money.Amount            `json:"orderTotal"`
	SelectedItemIDs  []string                `json:"selectedItemIds"`
	Intent           string                  `json:"intent"`
	ResolutionType   casefile.ResolutionType `json:"resolutionType"`
	RefundAmount     *money.Amount           `json:"refundAmount"`
	RefundPercentage int                     `json:"refundPercentage"`
	Assignee         string                  `json:"assignee,omitempty"`
	SLA              supportcase.SLAState    `json:"sla"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
	ResolvedAt       *time.Time              `json:"resolvedAt,omitempty"`
}

// CaseFilters contains filter options for listing cases.
type CaseFilters struct {
	Status         string
	CaseType       string
	ResolutionType string
	CustomerEmail  string
	Assignee       string
	Limit          int
	Offset         int
}

// Comment is a staff note on a case.
type Comment struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"caseId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimelineEntry is one audit record for a case.
type TimelineEntry struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"caseId"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Field     string    `json:"field,omitempty"`
	OldValue  string    `json:"oldValue,omitempty"`
	NewValue  string    `json:"newValue,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CaseStats is the hub dashboard summary.
type CaseStats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	ByCaseType       map[string]int `json:"byCaseType"`
	ByResolutionType map[string]int `json:"byResolutionType"`
	TotalRefunded    money.Amount   `json:"totalRefunded"`
	SLAWarning       int            `json:"slaWarning"`
	SLABreached      int            `json:"slaBreached"`
}
