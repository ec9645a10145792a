// Package casefile translates a finished negotiation into a case-creation
// request. This is part of the functional core - no I/O, only pure functions.
package casefile

import (
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/core/policy"
)

// CaseType classifies a case for the hub and selects its id prefix.
type CaseType string

const (
	CaseRefund       CaseType = "refund"
	CaseShipping     CaseType = "shipping"
	CaseSubscription CaseType = "subscription"
	CaseReturn       CaseType = "return"
	CaseManual       CaseType = "manual"
	CaseHelp         CaseType = "help"
)

// Valid reports whether t is a known case type.
func (t CaseType) Valid() bool {
	switch t {
	case CaseRefund, CaseShipping, CaseSubscription, CaseReturn, CaseManual, CaseHelp:
		return true
	}
	return false
}

// CaseTypeFor maps the ladder a negotiation ran on to its case type.
func CaseTypeFor(lt policy.LadderType) CaseType {
	switch lt {
	case policy.LadderRefund:
		return CaseRefund
	case policy.LadderShipping:
		return CaseShipping
	case policy.LadderSubscription:
		return CaseSubscription
	default:
		return CaseManual
	}
}

// ResolutionType is the auditable label describing how a case was settled.
type ResolutionType string

const (
	ResolutionFullRefund           ResolutionType = "full_refund"
	ResolutionPartialRefund        ResolutionType = "partial_refund"
	ResolutionPartialRefundReship  ResolutionType = "partial_refund_reship"
	ResolutionSubscriptionDiscount ResolutionType = "subscription_discount"
	ResolutionEscalated            ResolutionType = "escalated"
)

// Valid reports whether r is one of the known resolution types.
func (r ResolutionType) Valid() bool {
	switch r {
	case ResolutionFullRefund, ResolutionPartialRefund, ResolutionPartialRefundReship,
		ResolutionSubscriptionDiscount, ResolutionEscalated:
		return true
	}
	return false
}

// CreateRequest is the case-creation payload. Field names are canonical for
// the persistence and reporting collaborators.
type CreateRequest struct {
	SessionID        string         `json:"sessionId"`
	CaseType         CaseType       `json:"caseType"`
	CustomerEmail    string         `json:"customerEmail"`
	CustomerName     string         `json:"customerName"`
	OrderID          string         `json:"orderId"`
	OrderNumber      string         `json:"orderNumber"`
	OrderTotal       money.Amount   `json:"orderTotal"`
	SelectedItemIDs  []string       `json:"selectedItemIds"`
	Intent           string         `json:"intent"`
	ResolutionType   ResolutionType `json:"resolutionType"`
	RefundAmount     *money.Amount  `json:"refundAmount"`
	RefundPercentage int            `json:"refundPercentage"`
}

// CreateResponse is what the case store hands back.
type CreateResponse struct {
	CaseID string `json:"caseId"`
}

// EmitInput carries everything BuildCreateRequest needs, pre-fetched by the caller.
type EmitInput struct {
	SessionID        string
	CaseType         CaseType
	Customer         customer.Identity
	Order            *order.Snapshot
	Items            []order.LineItem
	Intent           string
	ResolutionType   ResolutionType
	RefundAmount     *money.Amount
	RefundPercentage int
}

// BuildCreateRequest translates an emission input into the wire request.
func BuildCreateRequest(in EmitInput) CreateRequest {
	req := CreateRequest{
		SessionID:        in.SessionID,
		CaseType:         in.CaseType,
		CustomerEmail:    in.Customer.Email,
		CustomerName:     in.Customer.Name,
		SelectedItemIDs:  order.ItemIDs(in.Items),
		Intent:           in.Intent,
		ResolutionType:   in.ResolutionType,
		RefundPercentage: in.RefundPercentage,
	}
	if in.Order != nil {
		req.OrderID = in.Order.ID
		req.OrderNumber = in.Order.OrderNumber
		req.OrderTotal = in.Order.TotalPrice
	}
	if in.RefundAmount != nil {
		amount := *in.RefundAmount
		req.RefundAmount = &amount
	}
	return req
}
