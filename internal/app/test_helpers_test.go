package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/core/policy"
	"github.com/example/resolvd/internal/ports/secondary"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// Ensure mocks implement the interfaces
var (
	_ secondary.SessionRepository  = (*mockSessionRepository)(nil)
	_ secondary.OrderLookup        = (*mockOrderLookup)(nil)
	_ secondary.CaseCreator        = (*mockCaseCreator)(nil)
	_ secondary.Metrics            = (*mockMetrics)(nil)
	_ secondary.CaseRepository     = (*mockCaseRepository)(nil)
	_ secondary.CommentRepository  = (*mockCommentRepository)(nil)
	_ secondary.TimelineRepository = (*mockTimelineRepository)(nil)
	_ secondary.TimelineWriter     = (*mockTimelineWriter)(nil)
)

// mockSessionRepository implements secondary.SessionRepository for testing.
type mockSessionRepository struct {
	mu        sync.Mutex
	sessions  map[string]ladder.Session
	updateErr error
	updates   int
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]ladder.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *ladder.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *mockSessionRepository) GetByID(ctx context.Context, id string) (*ladder.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	c := s.Clone()
	return &c, nil
}

func (m *mockSessionRepository) Update(ctx context.Context, session *ladder.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.sessions[session.ID]; !ok {
		return secondary.ErrNotFound
	}
	m.updates++
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *mockSessionRepository) get(id string) ladder.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].Clone()
}

func (m *mockSessionRepository) put(session ladder.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
}

// mockOrderLookup implements secondary.OrderLookup for testing.
type mockOrderLookup struct {
	orders []order.Snapshot
	err    error
	calls  int
}

func (m *mockOrderLookup) Lookup(ctx context.Context, identity customer.Identity) ([]order.Snapshot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

// mockCaseCreator implements secondary.CaseCreator for testing.
type mockCaseCreator struct {
	mu       sync.Mutex
	requests []casefile.CreateRequest
	err      error
	nextID   string
}

func (m *mockCaseCreator) CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	id := m.nextID
	if id == "" {
		id = fmt.Sprintf("REF-TEST-%03d", len(m.requests))
	}
	return &casefile.CreateResponse{CaseID: id}, nil
}

func (m *mockCaseCreator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockMetrics implements secondary.Metrics for testing.
type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{counts: make(map[string]int)}
}

func (m *mockMetrics) Inc(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := name
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key += "," + k + "=" + labels[k]
	}
	m.counts[key]++
}

func (m *mockMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

// mockCaseRepository implements secondary.CaseRepository for testing.
type mockCaseRepository struct {
	cases     map[string]*secondary.CaseRecord
	createErr error
}

func newMockCaseRepository() *mockCaseRepository {
	return &mockCaseRepository{cases: make(map[string]*secondary.CaseRecord)}
}

func (m *mockCaseRepository) Create(ctx context.Context, record *secondary.CaseRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.cases[record.ID]; ok {
		return secondary.ErrDuplicate
	}
	for _, c := range m.cases {
		if c.SessionID == record.SessionID {
			return secondary.ErrDuplicate
		}
	}
	copied := *record
	m.cases[record.ID] = &copied
	return nil
}

func (m *mockCaseRepository) GetByID(ctx context.Context, id string) (*secondary.CaseRecord, error) {
	if c, ok := m.cases[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockCaseRepository) GetBySessionID(ctx context.Context, sessionID string) (*secondary.CaseRecord, error) {
	for _, c := range m.cases {
		if c.SessionID == sessionID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, secondary.ErrNotFound
}

func (m *mockCaseRepository) List(ctx context.Context, filters secondary.CaseFilters) ([]*secondary.CaseRecord, error) {
	var result []*secondary.CaseRecord
	for _, c := range m.cases {
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		if len(filters.Statuses) > 0 && !contains(filters.Statuses, c.Status) {
			continue
		}
		if filters.CaseType != "" && c.CaseType != filters.CaseType {
			continue
		}
		if filters.CustomerEmail != "" && c.CustomerEmail != filters.CustomerEmail {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockCaseRepository) Update(ctx context.Context, record *secondary.CaseRecord) error {
	if _, ok := m.cases[record.ID]; !ok {
		return secondary.ErrNotFound
	}
	copied := *record
	m.cases[record.ID] = &copied
	return nil
}

func (m *mockCaseRepository) Stats(ctx context.Context) (*secondary.CaseStatsRecord, error) {
	stats := &secondary.CaseStatsRecord{
		ByStatus:         map[string]int{},
		ByCaseType:       map[string]int{},
		ByResolutionType: map[string]int{},
	}
	for _, c := range m.cases {
		stats.Total++
		stats.ByStatus[c.Status]++
		stats.ByCaseType[c.CaseType]++
		stats.ByResolutionType[c.ResolutionType]++
		if c.RefundAmountCents != nil {
			stats.TotalRefundedCents += *c.RefundAmountCents
		}
	}
	return stats, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// mockCommentRepository implements secondary.CommentRepository for testing.
type mockCommentRepository struct {
	comments []*secondary.CommentRecord
}

func (m *mockCommentRepository) Create(ctx context.Context, record *secondary.CommentRecord) error {
	m.comments = append(m.comments, record)
	return nil
}

func (m *mockCommentRepository) ListByCase(ctx context.Context, caseID string) ([]*secondary.CommentRecord, error) {
	var out []*secondary.CommentRecord
	for _, c := range m.comments {
		if c.CaseID == caseID {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockTimelineRepository implements secondary.TimelineRepository for testing.
type mockTimelineRepository struct {
	entries []*secondary.TimelineRecord
}

func (m *mockTimelineRepository) Create(ctx context.Context, record *secondary.TimelineRecord) error {
	m.entries = append(m.entries, record)
	return nil
}

func (m *mockTimelineRepository) ListByCase(ctx context.Context, caseID string) ([]*secondary.TimelineRecord, error) {
	var out []*secondary.TimelineRecord
	for _, e := range m.entries {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockTimelineWriter implements secondary.TimelineWriter by appending to a mockTimelineRepository.
type mockTimelineWriter struct {
	repo *mockTimelineRepository
	err  error
}

func (w *mockTimelineWriter) LogCreate(ctx context.Context, caseID string) error {
	return w.write(caseID, "create", "", "", "")
}

func (w *mockTimelineWriter) LogUpdate(ctx context.Context, caseID, fieldName, oldValue, newValue string) error {
	return w.write(caseID, "update", fieldName, oldValue, newValue)
}

func (w *mockTimelineWriter) LogComment(ctx context.Context, caseID, commentID string) error {
	return w.write(caseID, "comment", "", "", commentID)
}

func (w *mockTimelineWriter) write(caseID, action, field, oldValue, newValue string) error {
	if w.err != nil {
		return w.err
	}
	w.repo.entries = append(w.repo.entries, &secondary.TimelineRecord{
		ID:        fmt.Sprintf("TL-%d", len(w.repo.entries)+1),
		CaseID:    caseID,
		Action:    action,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: testNow,
	})
	return nil
}

// testOrder is a recent order with $100.00 of selectable items.
func testOrder() order.Snapshot {
	return order.Snapshot{
		ID:          "gid-1001",
		OrderNumber: "#1001",
		TotalPrice:  money.MustParse("107.00"),
		CreatedAt:   testNow.AddDate(0, 0, -10),
		Items: []order.LineItem{
			{ID: "li-1", Title: "Blender", Quantity: 1, UnitPrice: money.MustParse("60.00"), IsSelectable: true},
			{ID: "li-2", Title: "Cup", Quantity: 4, UnitPrice: money.MustParse("10.00"), IsSelectable: true},
			{ID: "li-3", Title: "Shipping protection", Quantity: 1, UnitPrice: money.MustParse("7.00"), IsSelectable: false},
		},
	}
}

var errBoom = errors.New("boom")

func mustPolicy() *policy.Policy {
	return policy.Default()
}
