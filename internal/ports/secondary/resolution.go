package secondary

import (
	"context"
	"errors"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/core/order"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// SessionRepository defines the secondary port for resolution session persistence.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *ladder.Session) error

	// GetByID retrieves a session by its ID. Returns ErrNotFound if missing.
	GetByID(ctx context.Context, id string) (*ladder.Session, error)

	// Update replaces a stored session.
	Update(ctx context.Context, session *ladder.Session) error
}

// OrderLookup is the external order system.
type OrderLookup interface {
	// Lookup returns the customer's candidate orders, possibly none.
	Lookup(ctx context.Context, identity customer.Identity) ([]order.Snapshot, error)
}

// CaseCreator is the case persistence collaborator the conversation emits to.
type CaseCreator interface {
	// CreateCase stores a case and returns its id.
	CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error)
}

// SessionLocker serialises work on one session id.
type SessionLocker interface {
	// Lock blocks until the session is free or ctx is done. The returned
	// function releases the lock.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// Metrics records counters for the conversation and case flows.
type Metrics interface {
	// Inc increments the counter called name with the given labels.
	Inc(name string, labels map[string]string)
}
