package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/effects"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/core/policy"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
)

// ResolutionServiceImpl implements the ResolutionService interface.
type ResolutionServiceImpl struct {
	policy   *policy.Policy
	sessions secondary.SessionRepository
	orders   secondary.OrderLookup
	locker   secondary.SessionLocker
	executor EffectExecutor
	metrics  secondary.Metrics
	nowFn    func() time.Time
	newID    func() string
}

// NewResolutionService creates a new ResolutionService with injected dependencies.
func NewResolutionService(
	pol *policy.Policy,
	sessions secondary.SessionRepository,
	orders secondary.OrderLookup,
	locker secondary.SessionLocker,
	executor EffectExecutor,
	metrics secondary.Metrics,
) *ResolutionServiceImpl {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ResolutionServiceImpl{
		policy:   pol,
		sessions: sessions,
		orders:   orders,
		locker:   locker,
		executor: executor,
		metrics:  metrics,
		nowFn:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// StartSession opens a new conversation.
func (s *ResolutionServiceImpl) StartSession(ctx context.Context) (*primary.SessionView, error) {
	session := ladder.NewSession(s.newID(), s.nowFn())
	if err := s.sessions.Create(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logging.Info(ctx).Str("session_id", session.ID).Msg("session started")
	return s.view(&session, greetingMessage), nil
}

// GetSession returns the current state of a conversation.
func (s *ResolutionServiceImpl) GetSession(ctx context.Context, sessionID string) (*primary.SessionView, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session, s.resumeMessage(session)), nil
}

// Identify validates identification input, then looks up the customer's orders.
func (s *ResolutionServiceImpl) Identify(ctx context.Context, req primary.IdentifyRequest) (*primary.SessionView, error) {
	identity, err := customer.Normalize(customer.Identity{
		Email:       req.Email,
		Phone:       req.Phone,
		Name:        req.Name,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	return s.withSession(ctx, req.SessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		if session.HasLadder() || session.State.IsTerminal() {
			return nil, &ladder.InvalidStateError{Op: "identify", State: session.State, Reason: "negotiation already started"}
		}

		session.Customer = identity
		session.Candidates = nil
		session.SelectedOrder = nil
		session.SelectedItems = nil
		session.UpdatedAt = s.nowFn()

		candidates, err := s.orders.Lookup(ctx, identity)
		if err != nil {
			s.lookupResult("error")
			logging.Warn(ctx).Err(err).Str("session_id", session.ID).Msg("order lookup failed")
			if uerr := s.sessions.Update(ctx, session); uerr != nil {
				return nil, fmt.Errorf("failed to update session: %w", uerr)
			}
			return nil, &primary.LookupFailure{Reason: lookupErrorReason, Err: err}
		}
		if len(candidates) == 0 {
			s.lookupResult("not_found")
			if uerr := s.sessions.Update(ctx, session); uerr != nil {
				return nil, fmt.Errorf("failed to update session: %w", uerr)
			}
			return nil, &primary.LookupFailure{Reason: lookupNotFoundReason}
		}
		s.lookupResult("found")

		session.Candidates = candidates
		msg := foundOrdersMessage(len(candidates))
		if snap, ok := order.Find(candidates, identity.OrderNumber); ok {
			session.SelectedOrder = &snap
			msg = pickItemsMessage
		} else if len(candidates) == 1 {
			snap := candidates[0]
			session.SelectedOrder = &snap
		}

		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		return s.view(session, msg), nil
	})
}

// SelectOrder picks one of the candidate orders.
func (s *ResolutionServiceImpl) SelectOrder(ctx context.Context, sessionID, orderID string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		if session.HasLadder() || session.State.IsTerminal() {
			return nil, &ladder.InvalidStateError{Op: "select order", State: session.State, Reason: "negotiation already started"}
		}
		snap, ok := order.Find(session.Candidates, orderID)
		if !ok {
			return nil, &customer.ValidationError{Field: "orderId", Reason: fmt.Sprintf("%q is not one of the customer's orders", orderID)}
		}

		session.SelectedOrder = &snap
		session.SelectedItems = nil
		session.UpdatedAt = s.nowFn()
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}

		msg := pickItemsMessage
		if elig := s.eligibility(session); elig != nil && !elig.Eligible {
			msg = outsideGuaranteeMessage(elig.DaysSinceOrder, elig.WindowDays)
		}
		return s.view(session, msg), nil
	})
}

// SelectItems sets the items the issue is about.
func (s *ResolutionServiceImpl) SelectItems(ctx context.Context, sessionID string, itemIDs []string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		if session.SelectedOrder == nil {
			return nil, &ladder.InvalidStateError{Op: "select items", State: session.State, Reason: "no order selected"}
		}
		items, err := order.PickItems(*session.SelectedOrder, itemIDs)
		if err != nil {
			return nil, &customer.ValidationError{Field: "itemIds", Reason: err.Error()}
		}
		tr, err := ladder.ChangeItems(*session, items, s.policy, s.nowFn())
		if err != nil {
			return nil, err
		}
		return s.apply(ctx, tr)
	})
}

// SelectIntent starts the offer ladder. Orders outside the guarantee window
// get an alternate message and no ladder.
func (s *ResolutionServiceImpl) SelectIntent(ctx context.Context, sessionID, intent string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		if session.Customer.Email == "" {
			return nil, &ladder.InvalidStateError{Op: "select intent", State: session.State, Reason: "customer not identified"}
		}
		if session.SelectedOrder == nil {
			return nil, &ladder.InvalidStateError{Op: "select intent", State: session.State, Reason: "no order selected"}
		}
		if elig := s.eligibility(session); elig != nil && !elig.Eligible {
			logging.Info(ctx).
				Str("session_id", session.ID).
				Int("days_since_order", elig.DaysSinceOrder).
				Msg("order outside guarantee window, ladder not offered")
			return s.view(session, outsideGuaranteeMessage(elig.DaysSinceOrder, elig.WindowDays)), nil
		}

		current := *session
		if len(current.SelectedItems) == 0 {
			current.SelectedItems = order.SelectableItems(*current.SelectedOrder)
			if len(current.SelectedItems) == 0 {
				return nil, &ladder.InvalidStateError{Op: "select intent", State: session.State, Reason: "order has no selectable items"}
			}
		}

		tr, err := ladder.SelectIntent(current, intent, s.policy, s.nowFn())
		if err != nil {
			return nil, err
		}
		return s.apply(ctx, tr)
	})
}

// Accept takes the current offer.
func (s *ResolutionServiceImpl) Accept(ctx context.Context, sessionID string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		tr, err := ladder.Accept(*session, s.policy, s.nowFn())
		if err != nil {
			return nil, err
		}
		return s.apply(ctx, tr)
	})
}

// Decline rejects the current offer.
func (s *ResolutionServiceImpl) Decline(ctx context.Context, sessionID string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		tr, err := ladder.Decline(*session, s.policy, s.nowFn())
		if err != nil {
			return nil, err
		}
		return s.apply(ctx, tr)
	})
}

// RetryEmission re-sends the preserved outcome without touching the ladder.
func (s *ResolutionServiceImpl) RetryEmission(ctx context.Context, sessionID string) (*primary.SessionView, error) {
	return s.withSession(ctx, sessionID, func(session *ladder.Session) (*primary.SessionView, error) {
		if casefile.AlreadyEmitted(session.CaseID) {
			return s.view(session, caseReferenceMessage(session.CaseID)), nil
		}
		if session.Outcome == nil {
			return nil, &ladder.InvalidStateError{Op: "retry emission", State: session.State, Reason: "no outcome to emit"}
		}

		tr := ladder.Transition{
			Session: *session,
			Message: finishedMessage(session),
			Outcome: session.Outcome,
			Effects: []effects.Effect{
				effects.EmitCaseEffect{
					SessionID: session.ID,
					Request:   casefile.BuildCreateRequest(session.EmitInput()),
				},
			},
		}
		return s.apply(ctx, tr)
	})
}

// Intents lists the issue categories.
func (s *ResolutionServiceImpl) Intents() []policy.IntentOption {
	return s.policy.Intents()
}

// apply executes a transition's effects and builds the view from what was
// stored. An emission failure still returns the view so the preserved outcome
// can be shown alongside the error.
func (s *ResolutionServiceImpl) apply(ctx context.Context, tr ladder.Transition) (*primary.SessionView, error) {
	execErr := s.executor.Execute(ctx, tr.Effects)
	var emitErr *primary.EmissionFailure
	if execErr != nil && !errors.As(execErr, &emitErr) {
		return nil, execErr
	}

	stored, err := s.load(ctx, tr.Session.ID)
	if err != nil {
		return nil, err
	}
	if emitErr != nil {
		return s.view(stored, emissionFailedMessage), emitErr
	}

	msg := tr.Message
	if tr.Outcome != nil && stored.CaseID != "" {
		msg += " " + caseReferenceMessage(stored.CaseID)
	}
	return s.view(stored, msg), nil
}

func (s *ResolutionServiceImpl) withSession(ctx context.Context, sessionID string, fn func(*ladder.Session) (*primary.SessionView, error)) (*primary.SessionView, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return fn(session)
}

func (s *ResolutionServiceImpl) load(ctx context.Context, sessionID string) (*ladder.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, primary.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := ladder.Validate(*session, s.policy); err != nil {
		logging.Error(ctx).Err(err).Str("session_id", sessionID).Msg("stored session breaks ladder invariants")
		return nil, err
	}
	return session, nil
}

func (s *ResolutionServiceImpl) view(session *ladder.Session, msg string) *primary.SessionView {
	v := &primary.SessionView{
		Session:         *session,
		Message:         msg,
		Eligibility:     s.eligibility(session),
		EmissionPending: session.AwaitingEmission(),
	}
	if offer, ok := ladder.CurrentOffer(*session, s.policy); ok {
		v.Offer = &offer
	}
	return v
}

func (s *ResolutionServiceImpl) eligibility(session *ladder.Session) *primary.Eligibility {
	if session.SelectedOrder == nil {
		return nil
	}
	now := s.nowFn()
	return &primary.Eligibility{
		Eligible:       order.WithinGuarantee(*session.SelectedOrder, now, s.policy.GuaranteeWindow()),
		DaysSinceOrder: order.DaysSince(*session.SelectedOrder, now),
		WindowDays:     s.policy.GuaranteeDays(),
	}
}

func (s *ResolutionServiceImpl) resumeMessage(session *ladder.Session) string {
	switch {
	case session.AwaitingEmission():
		return emissionFailedMessage
	case session.State.IsTerminal():
		msg := finishedMessage(session)
		if session.CaseID != "" {
			msg += " " + caseReferenceMessage(session.CaseID)
		}
		return msg
	}
	if offer, ok := ladder.CurrentOffer(*session, s.policy); ok {
		return ladder.OfferMessage(session.LadderType, offer)
	}
	if session.Customer.Email == "" {
		return greetingMessage
	}
	return ""
}

func (s *ResolutionServiceImpl) lookupResult(result string) {
	s.metrics.Inc(effects.MetricOrderLookup, map[string]string{"result": result})
}

func finishedMessage(session *ladder.Session) string {
	if session.State == ladder.StateEscalated || session.Outcome == nil {
		return ladder.EscalationMessage()
	}
	return ladder.AcceptedMessage(*session.Outcome)
}

var _ primary.ResolutionService = (*ResolutionServiceImpl)(nil)
