package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/resolvd/internal/ctxutil"
	"github.com/example/resolvd/internal/ports/secondary"
)

// TimelineWriterAdapter implements secondary.TimelineWriter using TimelineRepository.
type TimelineWriterAdapter struct {
	repo  secondary.TimelineRepository
	nowFn func() time.Time
}

// NewTimelineWriterAdapter creates a new TimelineWriterAdapter.
func NewTimelineWriterAdapter(repo secondary.TimelineRepository) *TimelineWriterAdapter {
	return &TimelineWriterAdapter{
		repo:  repo,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// LogCreate logs the creation of a case.
func (w *TimelineWriterAdapter) LogCreate(ctx context.Context, caseID string) error {
	return w.write(ctx, caseID, "create", "", "", "")
}

// LogUpdate logs an update of a case field.
func (w *TimelineWriterAdapter) LogUpdate(ctx context.Context, caseID, fieldName, oldValue, newValue string) error {
	return w.write(ctx, caseID, "update", fieldName, oldValue, newValue)
}

// LogComment logs a new comment; the comment id is the new value.
func (w *TimelineWriterAdapter) LogComment(ctx context.Context, caseID, commentID string) error {
	return w.write(ctx, caseID, "comment", "", "", commentID)
}

// write writes a timeline entry attributed to the actor in ctx.
func (w *TimelineWriterAdapter) write(ctx context.Context, caseID, action, fieldName, oldValue, newValue string) error {
	return w.repo.Create(ctx, &secondary.TimelineRecord{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Actor:     ctxutil.ActorOrSystem(ctx),
		Action:    action,
		FieldName: fieldName,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: w.nowFn(),
	})
}

// Ensure TimelineWriterAdapter implements the interface
var _ secondary.TimelineWriter = (*TimelineWriterAdapter)(nil)
