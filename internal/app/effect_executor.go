// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/effects"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor against the session store,
// the case store and the metrics sink.
type DefaultEffectExecutor struct {
	sessions secondary.SessionRepository
	cases    secondary.CaseCreator
	metrics  secondary.Metrics
}

// NewEffectExecutor creates a new DefaultEffectExecutor. metrics may be nil.
func NewEffectExecutor(sessions secondary.SessionRepository, cases secondary.CaseCreator, metrics secondary.Metrics) *DefaultEffectExecutor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DefaultEffectExecutor{
		sessions: sessions,
		cases:    cases,
		metrics:  metrics,
	}
}

// Execute processes a slice of effects, executing each in sequence. The
// first failure stops execution.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.PersistEffect:
		return e.executePersist(ctx, typed)
	case effects.EmitCaseEffect:
		return e.executeEmit(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.LogEffect:
		logging.Level(ctx, typed.Level).Fields(typed.Fields).Msg(typed.Message)
		return nil
	case effects.MetricEffect:
		e.metrics.Inc(typed.Name, typed.Labels)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Entity {
	case "session":
		return e.executeSessionOp(ctx, eff)
	default:
		return fmt.Errorf("unknown entity: %s", eff.Entity)
	}
}

func (e *DefaultEffectExecutor) executeSessionOp(ctx context.Context, eff effects.PersistEffect) error {
	session, ok := eff.Data.(ladder.Session)
	if !ok {
		return fmt.Errorf("invalid session data type: %T", eff.Data)
	}
	switch eff.Operation {
	case "create":
		return e.sessions.Create(ctx, &session)
	case "update":
		return e.sessions.Update(ctx, &session)
	default:
		return fmt.Errorf("unknown session operation: %s", eff.Operation)
	}
}

// executeEmit hands a finished negotiation to the case store. A session that
// already owns a case is never emitted twice. Failures come back as
// *primary.EmissionFailure with the stored session untouched.
func (e *DefaultEffectExecutor) executeEmit(ctx context.Context, eff effects.EmitCaseEffect) error {
	session, err := e.sessions.GetByID(ctx, eff.SessionID)
	if err != nil {
		e.emission("failed")
		return &primary.EmissionFailure{SessionID: eff.SessionID, Err: fmt.Errorf("failed to load session: %w", err)}
	}

	if casefile.AlreadyEmitted(session.CaseID) {
		e.emission("deduplicated")
		logging.Info(ctx).
			Str("session_id", session.ID).
			Str("case_id", session.CaseID).
			Msg("case already emitted")
		return nil
	}

	guard := casefile.CanEmit(casefile.EmitContext{
		SessionID:     session.ID,
		CustomerEmail: session.Customer.Email,
		HasOutcome:    session.Outcome != nil,
	})
	if !guard.Allowed {
		e.emission("failed")
		return &primary.EmissionFailure{SessionID: session.ID, Err: guard.Error()}
	}

	resp, err := e.cases.CreateCase(ctx, eff.Request)
	if err != nil {
		e.emission("failed")
		logging.Error(ctx).Err(err).Str("session_id", session.ID).Msg("case emission failed")
		return &primary.EmissionFailure{SessionID: session.ID, Err: err}
	}

	session.CaseID = resp.CaseID
	if err := e.sessions.Update(ctx, session); err != nil {
		e.emission("failed")
		return &primary.EmissionFailure{
			SessionID: session.ID,
			Err:       fmt.Errorf("case %s created but session not updated: %w", resp.CaseID, err),
		}
	}

	e.emission("created")
	logging.Info(ctx).
		Str("session_id", session.ID).
		Str("case_id", resp.CaseID).
		Str("resolution_type", string(eff.Request.ResolutionType)).
		Msg("case emitted")
	return nil
}

func (e *DefaultEffectExecutor) emission(result string) {
	e.metrics.Inc(effects.MetricCaseEmission, map[string]string{"result": result})
}

type noopMetrics struct{}

func (noopMetrics) Inc(string, map[string]string) {}

var _ EffectExecutor = (*DefaultEffectExecutor)(nil)
