// Package ladder is the escalating-offer negotiation engine. It owns the
// resolution session state and the pure transitions that walk a customer
// through a ladder of offers until they accept or the case is escalated.
// This is part of the Functional Core - no I/O, only pure functions.
package ladder

import (
	"time"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/core/policy"
)

// State is where a session sits in the negotiation.
type State string

const (
	StateAwaitingIntent State = "awaiting_intent"
	StateOfferPresented State = "offer_presented"
	StateAccepted       State = "accepted"
	StateEscalated      State = "escalated"
)

// IsTerminal reports whether no further negotiation is possible.
func (s State) IsTerminal() bool {
	return s == StateAccepted || s == StateEscalated
}

// Outcome is the negotiation result, fixed at accept or escalation time.
type Outcome struct {
	ResolutionType   casefile.ResolutionType `json:"resolutionType"`
	CaseType         casefile.CaseType       `json:"caseType"`
	RefundAmount     *money.Amount           `json:"refundAmount"`
	RefundPercentage int                     `json:"refundPercentage"`
}

// Session is one customer's resolution attempt.
type Session struct {
	ID               string            `json:"sessionId"`
	Customer         customer.Identity `json:"customer"`
	Candidates       []order.Snapshot  `json:"candidates,omitempty"`
	SelectedOrder    *order.Snapshot   `json:"selectedOrder"`
	SelectedItems    []order.LineItem  `json:"selectedItems"`
	Intent           string            `json:"intent"`
	LadderType       policy.LadderType `json:"ladderType"`
	LadderStep       int               `json:"ladderStep"`
	RefundAmount     money.Amount      `json:"refundAmount"`
	RefundPercentage int               `json:"refundPercentage"`
	CaseID           string            `json:"caseId"`
	State            State             `json:"state"`
	Outcome          *Outcome          `json:"outcome,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewSession starts a session waiting for the customer to pick an issue.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		State:     StateAwaitingIntent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasLadder reports whether a ladder is active.
func (s Session) HasLadder() bool {
	return s.LadderType != ""
}

// ItemsTotal is the live total of the selected items.
func (s Session) ItemsTotal() money.Amount {
	return order.ItemsTotal(s.SelectedItems)
}

// AwaitingEmission reports whether the session holds an outcome that has not
// yet been turned into a case.
func (s Session) AwaitingEmission() bool {
	return s.Outcome != nil && s.CaseID == ""
}

// EmitInput collects what case emission needs from the session.
func (s Session) EmitInput() casefile.EmitInput {
	in := casefile.EmitInput{
		SessionID: s.ID,
		Customer:  s.Customer,
		Order:     s.SelectedOrder,
		Items:     s.SelectedItems,
		Intent:    s.Intent,
		CaseType:  casefile.CaseTypeFor(s.LadderType),
	}
	if s.Outcome != nil {
		in.CaseType = s.Outcome.CaseType
		in.ResolutionType = s.Outcome.ResolutionType
		in.RefundAmount = s.Outcome.RefundAmount
		in.RefundPercentage = s.Outcome.RefundPercentage
	}
	return in
}

// Clone returns a copy that shares no slices or pointers with s.
func (s Session) Clone() Session {
	out := s
	if s.Candidates != nil {
		out.Candidates = make([]order.Snapshot, len(s.Candidates))
		for i, c := range s.Candidates {
			c.Items = append([]order.LineItem(nil), c.Items...)
			out.Candidates[i] = c
		}
	}
	if s.SelectedOrder != nil {
		o := *s.SelectedOrder
		o.Items = append([]order.LineItem(nil), o.Items...)
		out.SelectedOrder = &o
	}
	if s.SelectedItems != nil {
		out.SelectedItems = append([]order.LineItem(nil), s.SelectedItems...)
	}
	if s.Outcome != nil {
		oc := *s.Outcome
		if oc.RefundAmount != nil {
			amt := *oc.RefundAmount
			oc.RefundAmount = &amt
		}
		out.Outcome = &oc
	}
	return out
}
