package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/policy"
	"github.com/example/resolvd/internal/core/supportcase"
	"github.com/example/resolvd/internal/ctxutil"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
)

const (
	maxCaseIDAttempts = 5
	defaultListLimit  = 50
	maxListLimit      = 200
)

// CaseServiceImpl implements the CaseService interface.
type CaseServiceImpl struct {
	policy       *policy.Policy
	caseRepo     secondary.CaseRepository
	commentRepo  secondary.CommentRepository
	timelineRepo secondary.TimelineRepository
	timeline     secondary.TimelineWriter
	nowFn        func() time.Time
	suffixFn     func() int
	newID        func() string
}

// NewCaseService creates a new CaseService with injected dependencies.
func NewCaseService(
	pol *policy.Policy,
	caseRepo secondary.CaseRepository,
	commentRepo secondary.CommentRepository,
	timelineRepo secondary.TimelineRepository,
	timeline secondary.TimelineWriter,
) *CaseServiceImpl {
	return &CaseServiceImpl{
		policy:       pol,
		caseRepo:     caseRepo,
		commentRepo:  commentRepo,
		timelineRepo: timelineRepo,
		timeline:     timeline,
		nowFn:        func() time.Time { return time.Now().UTC() },
		suffixFn:     randomSuffix,
		newID:        uuid.NewString,
	}
}

// CreateCase stores a case for a finished negotiation, once per session.
func (s *CaseServiceImpl) CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	if err := casefile.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	if existing, err := s.caseRepo.GetBySessionID(ctx, req.SessionID); err == nil {
		return &casefile.CreateResponse{CaseID: existing.ID}, nil
	} else if !errors.Is(err, secondary.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing case: %w", err)
	}

	caseType := req.CaseType
	if caseType == "" {
		caseType = casefile.CaseManual
	}
	prefix := s.policy.CasePrefix(string(caseType))
	now := s.nowFn()

	record := &secondary.CaseRecord{
		SessionID:        req.SessionID,
		CaseType:         string(caseType),
		Status:           string(supportcase.InitialStatus()),
		CustomerEmail:    customer.NormalizeEmail(req.CustomerEmail),
		CustomerName:     req.CustomerName,
		OrderID:          req.OrderID,
		OrderNumber:      req.OrderNumber,
		OrderTotalCents:  req.OrderTotal.Minor(),
		SelectedItemIDs:  req.SelectedItemIDs,
		Intent:           req.Intent,
		ResolutionType:   string(req.ResolutionType),
		RefundPercentage: req.RefundPercentage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.RefundAmount != nil {
		cents := req.RefundAmount.Minor()
		record.RefundAmountCents = &cents
	}

	for attempt := 0; attempt < maxCaseIDAttempts; attempt++ {
		record.ID = casefile.GenerateCaseID(prefix, now, s.suffixFn())
		err := s.caseRepo.Create(ctx, record)
		if err == nil {
			if terr := s.timeline.LogCreate(ctx, record.ID); terr != nil {
				logging.Warn(ctx).Err(terr).Str("case_id", record.ID).Msg("failed to write timeline")
			}
			logging.Info(ctx).
				Str("case_id", record.ID).
				Str("session_id", record.SessionID).
				Str("resolution_type", record.ResolutionType).
				Msg("case created")
			return &casefile.CreateResponse{CaseID: record.ID}, nil
		}
		if !errors.Is(err, secondary.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create case: %w", err)
		}
		// Either another request stored this session first or the id collided.
		if existing, gerr := s.caseRepo.GetBySessionID(ctx, req.SessionID); gerr == nil {
			return &casefile.CreateResponse{CaseID: existing.ID}, nil
		}
	}
	return nil, fmt.Errorf("failed to allocate a unique case id after %d attempts", maxCaseIDAttempts)
}

// GetCase retrieves a case by ID.
func (s *CaseServiceImpl) GetCase(ctx context.Context, caseID string) (*primary.Case, error) {
	record, err := s.getRecord(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.recordToCase(record), nil
}

// ListCases lists cases with optional filters.
func (s *CaseServiceImpl) ListCases(ctx context.Context, filters primary.CaseFilters) ([]*primary.Case, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := s.caseRepo.List(ctx, secondary.CaseFilters{
		Status:         filters.Status,
		CaseType:       filters.CaseType,
		ResolutionType: filters.ResolutionType,
		CustomerEmail:  customer.NormalizeEmail(filters.CustomerEmail),
		Assignee:       filters.Assignee,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	cases := make([]*primary.Case, len(records))
	for i, r := range records {
		cases[i] = s.recordToCase(r)
	}
	return cases, nil
}

// UpdateStatus moves a case through the hub workflow.
func (s *CaseServiceImpl) UpdateStatus(ctx context.Context, caseID string, status supportcase.Status) (*primary.Case, error) {
	record, err := s.getRecord(ctx, caseID)
	if err != nil {
		return nil, err
	}

	from := supportcase.Status(record.Status)
	guard := supportcase.CanTransition(supportcase.TransitionContext{CaseID: caseID, From: from, To: status})
	if !guard.Allowed {
		return nil, fmt.Errorf("%w: %s", primary.ErrInvalidCaseTransition, guard.Reason)
	}

	now := s.nowFn()
	result := supportcase.ApplyStatusTransition(status, now)
	record.Status = string(result.NewStatus)
	if result.ResolvedAt != nil {
		record.ResolvedAt = result.ResolvedAt
	}
	if result.ClearResolved {
		record.ResolvedAt = nil
	}
	record.UpdatedAt = now

	if err := s.caseRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}
	s.logUpdate(ctx, caseID, "status", string(from), record.Status)
	return s.recordToCase(record), nil
}

// Assign sets the staff member owning a case.
func (s *CaseServiceImpl) Assign(ctx context.Context, caseID, assignee string) (*primary.Case, error) {
	record, err := s.getRecord(ctx, caseID)
	if err != nil {
		return nil, err
	}

	guard := supportcase.CanAssign(supportcase.AssignContext{
		CaseID:   caseID,
		Status:   supportcase.Status(record.Status),
		Assignee: assignee,
	})
	if !guard.Allowed {
		return nil, fmt.Errorf("%w: %s", primary.ErrInvalidCaseTransition, guard.Reason)
	}

	assignee = strings.TrimSpace(assignee)
	if record.Assignee == assignee {
		return s.recordToCase(record), nil
	}
	old := record.Assignee
	record.Assignee = assignee
	record.UpdatedAt = s.nowFn()

	if err := s.caseRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to assign case: %w", err)
	}
	s.logUpdate(ctx, caseID, "assignee", old, assignee)
	return s.recordToCase(record), nil
}

// AddComment adds a staff note to a case.
func (s *CaseServiceImpl) AddComment(ctx context.Context, caseID, body string) (*primary.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &customer.ValidationError{Field: "body", Reason: "comment cannot be empty"}
	}
	if _, err := s.getRecord(ctx, caseID); err != nil {
		return nil, err
	}

	record := &secondary.CommentRecord{
		ID:        s.newID(),
		CaseID:    caseID,
		Author:    ctxutil.ActorOrSystem(ctx),
		Body:      body,
		CreatedAt: s.nowFn(),
	}
	if err := s.commentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	if err := s.timeline.LogComment(ctx, caseID, record.ID); err != nil {
		logging.Warn(ctx).Err(err).Str("case_id", caseID).Msg("failed to write timeline")
	}
	return recordToComment(record), nil
}

// ListComments returns a case's comments.
func (s *CaseServiceImpl) ListComments(ctx context.Context, caseID string) ([]*primary.Comment, error) {
	if _, err := s.getRecord(ctx, caseID); err != nil {
		return nil, err
	}
	records, err := s.commentRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	comments := make([]*primary.Comment, len(records))
	for i, r := range records {
		comments[i] = recordToComment(r)
	}
	return comments, nil
}

// Timeline returns a case's audit trail.
func (s *CaseServiceImpl) Timeline(ctx context.Context, caseID string) ([]*primary.TimelineEntry, error) {
	if _, err := s.getRecord(ctx, caseID); err != nil {
		return nil, err
	}
	records, err := s.timelineRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	entries := make([]*primary.TimelineEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.TimelineEntry{
			ID:        r.ID,
			CaseID:    r.CaseID,
			Actor:     r.Actor,
			Action:    r.Action,
			Field:     r.FieldName,
			OldValue:  r.OldValue,
			NewValue:  r.NewValue,
			CreatedAt: r.CreatedAt,
		}
	}
	return entries, nil
}

// Stats aggregates the case table and counts SLA problems among active cases.
func (s *CaseServiceImpl) Stats(ctx context.Context) (*primary.CaseStats, error) {
	agg, err := s.caseRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cases: %w", err)
	}
	stats := &primary.CaseStats{
		Total:            agg.Total,
		ByStatus:         agg.ByStatus,
		ByCaseType:       agg.ByCaseType,
		ByResolutionType: agg.ByResolutionType,
		TotalRefunded:    money.FromMinor(agg.TotalRefundedCents),
	}

	active, err := s.caseRepo.List(ctx, secondary.CaseFilters{
		Statuses: []string{string(supportcase.StatusOpen), string(supportcase.StatusInProgress)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active cases: %w", err)
	}
	now := s.nowFn()
	for _, r := range active {
		switch supportcase.EvaluateSLA(r.CreatedAt, now, supportcase.Status(r.Status), s.policy.SLA()) {
		case supportcase.SLAWarning:
			stats.SLAWarning++
		case supportcase.SLABreached:
			stats.SLABreached++
		}
	}
	return stats, nil
}

func (s *CaseServiceImpl) getRecord(ctx context.Context, caseID string) (*secondary.CaseRecord, error) {
	if _, err := casefile.ParseCaseID(caseID); err != nil {
		return nil, &customer.ValidationError{Field: "caseId", Reason: err.Error()}
	}
	record, err := s.caseRepo.GetByID(ctx, caseID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return record, nil
}

func (s *CaseServiceImpl) logUpdate(ctx context.Context, caseID, field, oldValue, newValue string) {
	if err := s.timeline.LogUpdate(ctx, caseID, field, oldValue, newValue); err != nil {
		logging.Warn(ctx).Err(err).Str("case_id", caseID).Msg("failed to write timeline")
	}
}

func (s *CaseServiceImpl) recordToCase(r *secondary.CaseRecord) *primary.Case {
	c := &primary.Case{
		ID:               r.ID,
		SessionID:        r.SessionID,
		CaseType:         casefile.CaseType(r.CaseType),
		Status:           supportcase.Status(r.Status),
		CustomerEmail:    r.CustomerEmail,
		CustomerName:     r.CustomerName,
		OrderID:          r.OrderID,
		OrderNumber:      r.OrderNumber,
		OrderTotal:       money.FromMinor(r.OrderTotalCents),
		SelectedItemIDs:  r.SelectedItemIDs,
		Intent:           r.Intent,
		ResolutionType:   casefile.ResolutionType(r.ResolutionType),
		RefundPercentage: r.RefundPercentage,
		Assignee:         r.Assignee,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		ResolvedAt:       r.ResolvedAt,
	}
	if r.RefundAmountCents != nil {
		amount := money.FromMinor(*r.RefundAmountCents)
		c.RefundAmount = &amount
	}
	c.SLA = supportcase.EvaluateSLA(r.CreatedAt, s.nowFn(), c.Status, s.policy.SLA())
	return c
}

func recordToComment(r *secondary.CommentRecord) *primary.Comment {
	return &primary.Comment{
		ID:        r.ID,
		CaseID:    r.CaseID,
		Author:    r.Author,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

func randomSuffix() int {
	n, err := rand.Int(rand.Reader, big.NewInt(casefile.SuffixSpace))
	if err != nil {
		return int(time.Now().UnixNano() % casefile.SuffixSpace)
	}
	return int(n.Int64())
}

var _ primary.CaseService = (*CaseServiceImpl)(nil)
