// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "github.com/example/resolvd/internal/core/casefile"

// Metric names understood by the executor.
const (
	MetricOfferPresented = "offer_presented"
	MetricLadderOutcome  = "ladder_outcome"
	MetricCaseEmission   = "case_emission"
	MetricOrderLookup    = "order_lookup"
)

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a database persistence operation.
type PersistEffect struct {
	Entity    string // e.g., "session"
	Operation string // e.g., "create", "update"
	Data      any    // The entity data
}

func (e PersistEffect) EffectType() string { return "persist" }

// EmitCaseEffect asks the shell to hand a finished negotiation to the case store.
type EmitCaseEffect struct {
	SessionID string
	Request   casefile.CreateRequest
}

func (e EmitCaseEffect) EffectType() string { return "emit_case" }

// MetricEffect increments a named counter.
type MetricEffect struct {
	Name   string
	Labels map[string]string
}

func (e MetricEffect) EffectType() string { return "metric" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }
