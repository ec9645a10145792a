package ladder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/effects"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/core/policy"
)

// Offer is the rung currently in front of the customer, priced against the
// live item selection.
type Offer struct {
	Step           int          `json:"step"`
	Percentage     int          `json:"percentage"`
	IncludesReship bool         `json:"includesReship"`
	Amount         money.Amount `json:"amount"`
	LastStep       bool         `json:"lastStep"`
}

// Transition is the result of applying one customer action. Session is the new
// state; Effects describe the I/O the shell must carry out.
type Transition struct {
	Session Session
	Message string
	Offer   *Offer
	Outcome *Outcome
	Effects []effects.Effect
}

// State returns the session state after the transition.
func (t Transition) State() State {
	return t.Session.State
}

// SelectIntent maps intent to its ladder and presents the first rung.
// Choosing a new intent while an offer is open restarts at step 0.
func SelectIntent(s Session, intent string, pol *policy.Policy, now time.Time) (Transition, error) {
	const op = "select intent"
	if s.State.IsTerminal() {
		return Transition{}, invalid(op, s, "negotiation already finished")
	}
	key := policy.NormalizeIntent(intent)
	if key == "" {
		return Transition{}, invalid(op, s, "intent is required")
	}
	lt := pol.LadderFor(key)
	lad, ok := pol.Ladder(lt)
	if !ok || lad.Len() == 0 {
		return Transition{}, invalid(op, s, fmt.Sprintf("no %s ladder configured", lt))
	}

	next := s.Clone()
	next.Intent = key
	next.LadderType = lt
	next.LadderStep = 0
	next.RefundAmount = 0
	next.RefundPercentage = 0
	next.State = StateOfferPresented
	next.UpdatedAt = now

	return present(next, lad, "intent selected"), nil
}

// Accept takes the current rung. The refund is recomputed from the selected
// items at this moment, never carried over from an earlier step.
func Accept(s Session, pol *policy.Policy, now time.Time) (Transition, error) {
	const op = "accept"
	lad, rung, err := activeRung(op, s, pol)
	if err != nil {
		return Transition{}, err
	}

	outcome := acceptedOutcome(s.LadderType, rung, s.ItemsTotal())

	next := s.Clone()
	next.RefundAmount = *outcome.RefundAmount
	next.RefundPercentage = outcome.RefundPercentage
	next.Outcome = &outcome
	next.State = StateAccepted
	next.UpdatedAt = now

	return finish(next, lad, AcceptedMessage(outcome), "offer accepted"), nil
}

// Decline rejects the current rung. Declining the last rung escalates to a
// person with no refund attached; otherwise the next rung is presented.
func Decline(s Session, pol *policy.Policy, now time.Time) (Transition, error) {
	const op = "decline"
	lad, _, err := activeRung(op, s, pol)
	if err != nil {
		return Transition{}, err
	}

	next := s.Clone()
	next.UpdatedAt = now

	if lad.IsLastStep(s.LadderStep) {
		outcome := escalatedOutcome(s.LadderType)
		next.RefundAmount = 0
		next.RefundPercentage = 0
		next.Outcome = &outcome
		next.State = StateEscalated
		return finish(next, lad, EscalationMessage(), "ladder escalated"), nil
	}

	next.LadderStep = s.LadderStep + 1
	return present(next, lad, "offer declined"), nil
}

// ChangeItems replaces the item selection. If a ladder is running the
// negotiation restarts at step 0 so no offer is priced against a stale total.
func ChangeItems(s Session, items []order.LineItem, pol *policy.Policy, now time.Time) (Transition, error) {
	const op = "change items"
	if s.State.IsTerminal() {
		return Transition{}, invalid(op, s, "negotiation already finished")
	}
	if len(items) == 0 {
		return Transition{}, invalid(op, s, "at least one item must be selected")
	}

	next := s.Clone()
	next.SelectedItems = append([]order.LineItem(nil), items...)
	next.UpdatedAt = now

	if !next.HasLadder() {
		return Transition{
			Session: next,
			Message: ItemsUpdatedMessage(len(items)),
			Effects: []effects.Effect{
				persistSession(next),
				logEffect("info", "items selected", next),
			},
		}, nil
	}

	lad, ok := pol.Ladder(next.LadderType)
	if !ok || lad.Len() == 0 {
		return Transition{}, invalid(op, s, fmt.Sprintf("no %s ladder configured", next.LadderType))
	}
	next.LadderStep = 0
	next.RefundAmount = 0
	next.RefundPercentage = 0
	next.State = StateOfferPresented
	return present(next, lad, "items changed, ladder restarted"), nil
}

// CurrentOffer prices the rung the session is on. ok is false when no offer is open.
func CurrentOffer(s Session, pol *policy.Policy) (Offer, bool) {
	if s.State != StateOfferPresented || !s.HasLadder() {
		return Offer{}, false
	}
	lad, ok := pol.Ladder(s.LadderType)
	if !ok {
		return Offer{}, false
	}
	return offerAt(s, lad)
}

// Validate checks the session invariants against the policy. A stored session
// can break them when the policy shrinks a ladder between requests.
func Validate(s Session, pol *policy.Policy) error {
	const op = "resume session"
	if !s.HasLadder() {
		if s.State == StateOfferPresented {
			return invalid(op, s, "an offer is open without a ladder")
		}
		return nil
	}
	lad, ok := pol.Ladder(s.LadderType)
	if !ok {
		return invalid(op, s, fmt.Sprintf("unknown ladder %q", s.LadderType))
	}
	if s.LadderStep < 0 || s.LadderStep >= lad.Len() {
		return invalid(op, s, fmt.Sprintf("step %d is outside the %s ladder of %d rungs", s.LadderStep, s.LadderType, lad.Len()))
	}
	if s.State.IsTerminal() && s.Outcome == nil {
		return invalid(op, s, "finished without an outcome")
	}
	return nil
}

func activeRung(op string, s Session, pol *policy.Policy) (policy.Ladder, policy.Rung, error) {
	if !s.HasLadder() {
		return policy.Ladder{}, policy.Rung{}, invalid(op, s, "no active ladder")
	}
	if s.State != StateOfferPresented {
		return policy.Ladder{}, policy.Rung{}, invalid(op, s, "no offer is open")
	}
	lad, ok := pol.Ladder(s.LadderType)
	if !ok {
		return policy.Ladder{}, policy.Rung{}, invalid(op, s, fmt.Sprintf("unknown ladder %q", s.LadderType))
	}
	rung, ok := lad.Rung(s.LadderStep)
	if !ok {
		return policy.Ladder{}, policy.Rung{}, invalid(op, s, fmt.Sprintf("step %d is not on the %s ladder", s.LadderStep, s.LadderType))
	}
	return lad, rung, nil
}

func offerAt(s Session, lad policy.Ladder) (Offer, bool) {
	rung, ok := lad.Rung(s.LadderStep)
	if !ok {
		return Offer{}, false
	}
	return Offer{
		Step:           s.LadderStep,
		Percentage:     rung.Percentage,
		IncludesReship: rung.IncludesReship,
		Amount:         OfferAmount(s.ItemsTotal(), rung.Percentage),
		LastStep:       lad.IsLastStep(s.LadderStep),
	}, true
}

func present(next Session, lad policy.Ladder, event string) Transition {
	offer, _ := offerAt(next, lad)
	return Transition{
		Session: next,
		Message: OfferMessage(next.LadderType, offer),
		Offer:   &offer,
		Effects: []effects.Effect{
			persistSession(next),
			logEffect("info", event, next),
			effects.MetricEffect{
				Name: effects.MetricOfferPresented,
				Labels: map[string]string{
					"ladder": string(next.LadderType),
					"step":   strconv.Itoa(next.LadderStep),
				},
			},
		},
	}
}

func finish(next Session, lad policy.Ladder, message, event string) Transition {
	outcome := *next.Outcome
	return Transition{
		Session: next,
		Message: message,
		Outcome: &outcome,
		Effects: []effects.Effect{
			persistSession(next),
			// Recorded before emission: a failed emission is retried on its own.
			effects.CompositeEffect{Effects: []effects.Effect{
				logEffect("info", event, next),
				effects.MetricEffect{
					Name: effects.MetricLadderOutcome,
					Labels: map[string]string{
						"ladder":          string(lad.Type),
						"resolution_type": string(outcome.ResolutionType),
					},
				},
			}},
			effects.EmitCaseEffect{
				SessionID: next.ID,
				Request:   casefile.BuildCreateRequest(next.EmitInput()),
			},
		},
	}
}

func persistSession(s Session) effects.PersistEffect {
	return effects.PersistEffect{Entity: "session", Operation: "update", Data: s}
}

func logEffect(level, msg string, s Session) effects.LogEffect {
	fields := map[string]any{
		"session_id": s.ID,
		"state":      string(s.State),
	}
	if s.HasLadder() {
		fields["ladder"] = string(s.LadderType)
		fields["step"] = s.LadderStep
	}
	if s.Outcome != nil {
		fields["resolution_type"] = string(s.Outcome.ResolutionType)
	}
	return effects.LogEffect{Level: level, Message: msg, Fields: fields}
}
