package casefile

import (
	"fmt"
	"strings"

	"github.com/example/resolvd/internal/core/customer"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// EmitContext provides context for case emission guards.
type EmitContext struct {
	SessionID     string
	CustomerEmail string
	HasOutcome    bool
}

// CanEmit evaluates whether a case may be emitted for a session.
// Rules:
// - the negotiation must have produced an outcome
// - the customer identity must include a valid email
func CanEmit(ctx EmitContext) GuardResult {
	if !ctx.HasOutcome {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("session %s has no negotiation outcome to emit", ctx.SessionID),
		}
	}
	if ctx.CustomerEmail == "" || !customer.IsEmail(ctx.CustomerEmail) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("session %s has no valid customer email", ctx.SessionID),
		}
	}
	return GuardResult{Allowed: true}
}

// AlreadyEmitted reports whether a session already owns a case. Emission must
// then return the existing id instead of creating another case.
func AlreadyEmitted(existingCaseID string) bool {
	return existingCaseID != ""
}

// ValidateCreateRequest checks a case-creation request before it reaches the
// store. An empty case type is allowed and stored as manual. Escalated cases
// carry no refund amount; every other resolution carries one.
func ValidateCreateRequest(req CreateRequest) error {
	switch {
	case strings.TrimSpace(req.SessionID) == "":
		return &customer.ValidationError{Field: "sessionId", Reason: "is required"}
	case !customer.IsEmail(req.CustomerEmail):
		return &customer.ValidationError{Field: "customerEmail", Reason: fmt.Sprintf("%q is not a valid email address", req.CustomerEmail)}
	case req.CaseType != "" && !req.CaseType.Valid():
		return &customer.ValidationError{Field: "caseType", Reason: fmt.Sprintf("unknown case type %q", req.CaseType)}
	case !req.ResolutionType.Valid():
		return &customer.ValidationError{Field: "resolutionType", Reason: fmt.Sprintf("unknown resolution type %q", req.ResolutionType)}
	case req.RefundPercentage < 0 || req.RefundPercentage > 100:
		return &customer.ValidationError{Field: "refundPercentage", Reason: fmt.Sprintf("%d is outside 0-100", req.RefundPercentage)}
	}

	escalated := req.ResolutionType == ResolutionEscalated
	switch {
	case escalated && req.RefundAmount != nil:
		return &customer.ValidationError{Field: "refundAmount", Reason: "must be empty for an escalated case"}
	case !escalated && req.RefundAmount == nil:
		return &customer.ValidationError{Field: "refundAmount", Reason: fmt.Sprintf("is required for a %s case", req.ResolutionType)}
	case req.RefundAmount != nil && req.RefundAmount.Minor() < 0:
		return &customer.ValidationError{Field: "refundAmount", Reason: "must not be negative"}
	}
	return nil
}
