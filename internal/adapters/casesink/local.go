// Package casesink implements secondary.CaseCreator: in-process against the
// hub's case service, or remotely against another resolvd hub over HTTP.
package casesink

import (
	"context"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
)

// Local hands case requests straight to a CaseService in this process.
type Local struct {
	cases primary.CaseService
}

// NewLocal creates a Local sink.
func NewLocal(cases primary.CaseService) *Local {
	return &Local{cases: cases}
}

// CreateCase implements secondary.CaseCreator.
func (l *Local) CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	return l.cases.CreateCase(ctx, req)
}

var _ secondary.CaseCreator = (*Local)(nil)
