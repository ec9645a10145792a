package primary

import (
	"context"

	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/core/policy"
)

// ResolutionService defines the primary port for the customer-facing
// resolution conversation. Every call is serialised per session id.
type ResolutionService interface {
	// StartSession opens a new conversation.
	StartSession(ctx context.Context) (*SessionView, error)

	// GetSession returns the current state of a conversation.
	GetSession(ctx context.Context, sessionID string) (*SessionView, error)

	// Identify validates the customer's identification and looks up their orders.
	// Returns *customer.ValidationError before any lookup on malformed input and
	// *LookupFailure when the order system fails or finds nothing.
	Identify(ctx context.Context, req IdentifyRequest) (*SessionView, error)

	// SelectOrder picks one of the candidate orders and reports guarantee eligibility.
	SelectOrder(ctx context.Context, sessionID, orderID string) (*SessionView, error)

	// SelectItems sets the items the issue is about. Changing items while an
	// offer is open restarts the ladder.
	SelectItems(ctx context.Context, sessionID string, itemIDs []string) (*SessionView, error)

	// SelectIntent starts the offer ladder for the declared issue.
	SelectIntent(ctx context.Context, sessionID, intent string) (*SessionView, error)

	// Accept takes the current offer and emits the case.
	// On *EmissionFailure the returned view still carries the preserved outcome.
	Accept(ctx context.Context, sessionID string) (*SessionView, error)

	// Decline rejects the current offer; declining the last one escalates and emits the case.
	// On *EmissionFailure the returned view still carries the preserved outcome.
	Decline(ctx context.Context, sessionID string) (*SessionView, error)

	// RetryEmission re-sends the preserved outcome to the case store without
	// re-running the ladder. Returns the existing case id when one is already set.
	RetryEmission(ctx context.Context, sessionID string) (*SessionView, error)

	// Intents lists the issue categories a customer can choose from.
	Intents() []policy.IntentOption
}

// IdentifyRequest contains what the customer typed to identify themselves.
type IdentifyRequest struct {
	SessionID   string
	Email       string
	Phone       string
	Name        string
	OrderNumber string
}

// SessionView is a session as returned to the conversation UI.
type SessionView struct {
	Session         ladder.Session `json:"session"`
	Message         string         `json:"message"`
	Offer           *ladder.Offer  `json:"offer,omitempty"`
	Eligibility     *Eligibility   `json:"eligibility,omitempty"`
	EmissionPending bool           `json:"emissionPending"`
}

// Eligibility reports whether the selected order is inside the guarantee window.
type Eligibility struct {
	Eligible       bool `json:"eligible"`
	DaysSinceOrder int  `json:"daysSinceOrder"`
	WindowDays     int  `json:"windowDays"`
}
