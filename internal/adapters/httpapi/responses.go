package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/ctxutil"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/primary"
)

// Meta correlates a response with its trace and request.
type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Response is the envelope every endpoint returns.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Meta      *Meta  `json:"meta,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

const (
	msgInternal        = "Sorry, something went wrong on our side. Please try again."
	msgLookupNotFound  = "We couldn't find any orders with those details. Please check them and try again."
	msgLookupFailed    = "We couldn't reach our order system just now. Please try again in a moment."
	msgEmissionFailed  = "Your choice has been kept but we couldn't save your case yet. Please retry."
	msgUnauthorized    = "A valid staff token is required."
	msgRateLimited     = "Too many requests. Please slow down."
	msgSessionNotFound = "That conversation could not be found. Please start a new one."
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{RequestID: ctxutil.RequestIDFromContext(ctx)}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		meta.TraceID = sc.TraceID().String()
	}
	return meta
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

// writeServiceError maps a service error onto a status code and a message
// the customer or staff member can act on. data, when non-nil, is returned
// alongside the error (a session view with a preserved outcome).
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, data any) {
	resp := Response{Data: data, Meta: extractMeta(ctx)}
	status := http.StatusInternalServerError

	var (
		validationErr *customer.ValidationError
		stateErr      *ladder.InvalidStateError
		lookupErr     *primary.LookupFailure
		emissionErr   *primary.EmissionFailure
	)
	switch {
	case errors.As(err, &validationErr):
		status, resp.Error = http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, primary.ErrSessionNotFound):
		status, resp.Error = http.StatusNotFound, msgSessionNotFound
	case errors.Is(err, primary.ErrCaseNotFound):
		status, resp.Error = http.StatusNotFound, err.Error()
	case errors.As(err, &stateErr):
		status, resp.Error = http.StatusConflict, stateErr.Error()
	case errors.Is(err, primary.ErrInvalidCaseTransition):
		status, resp.Error = http.StatusConflict, err.Error()
	case errors.Is(err, primary.ErrUnauthorized):
		status, resp.Error = http.StatusUnauthorized, msgUnauthorized
	case errors.As(err, &lookupErr):
		if lookupErr.Err == nil {
			status, resp.Error = http.StatusNotFound, msgLookupNotFound
		} else {
			status, resp.Error, resp.Retryable = http.StatusBadGateway, msgLookupFailed, true
		}
	case errors.As(err, &emissionErr):
		status, resp.Error, resp.Retryable = http.StatusBadGateway, msgEmissionFailed, emissionErr.Retryable()
	default:
		resp.Error = msgInternal
	}

	if status >= http.StatusInternalServerError {
		logging.Error(ctx).Err(err).Int("status", status).Msg("request failed")
	} else {
		logging.Debug(ctx).Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, resp)
}
