package secondary

import "context"

// TimelineWriter defines the interface for writing case audit entries.
// Implementations extract the actor from context.
type TimelineWriter interface {
	// LogCreate records that a case was created.
	LogCreate(ctx context.Context, caseID string) error

	// LogUpdate records a change to one case field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, caseID, fieldName, oldValue, newValue string) error

	// LogComment records that a comment was added.
	LogComment(ctx context.Context, caseID, commentID string) error
}
