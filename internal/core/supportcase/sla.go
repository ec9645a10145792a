package supportcase

import (
	"time"

	"github.com/example/resolvd/internal/core/policy"
)

// SLAState is how an active case is doing against the response thresholds.
type SLAState string

const (
	SLAOk       SLAState = "ok"
	SLAWarning  SLAState = "warning"
	SLABreached SLAState = "breached"
)

// EvaluateSLA compares a case's age with the thresholds. Resolved and closed
// cases are always ok.
func EvaluateSLA(createdAt, now time.Time, status Status, sla policy.SLA) SLAState {
	if !status.IsActive() {
		return SLAOk
	}
	age := now.Sub(createdAt)
	switch {
	case sla.Breach > 0 && age >= sla.Breach:
		return SLABreached
	case sla.Warning > 0 && age >= sla.Warning:
		return SLAWarning
	default:
		return SLAOk
	}
}
