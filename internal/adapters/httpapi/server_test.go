package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/ladder"
	"github.com/example/resolvd/internal/core/policy"
	"github.com/example/resolvd/internal/core/supportcase"
	"github.com/example/resolvd/internal/ctxutil"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
	"github.com/example/resolvd/internal/telemetry"
)

// ============================================================================
// Stubs
// ============================================================================

type stubResolution struct {
	primary.ResolutionService
	view *primary.SessionView
	err  error

	gotActor    string
	gotIdentify primary.IdentifyRequest
	gotItems    []string
}

func (s *stubResolution) StartSession(ctx context.Context) (*primary.SessionView, error) {
	s.gotActor = ctxutil.ActorFromContext(ctx)
	return s.view, s.err
}

func (s *stubResolution) GetSession(context.Context, string) (*primary.SessionView, error) {
	return s.view, s.err
}

func (s *stubResolution) Identify(_ context.Context, req primary.IdentifyRequest) (*primary.SessionView, error) {
	s.gotIdentify = req
	return s.view, s.err
}

func (s *stubResolution) SelectItems(_ context.Context, _ string, itemIDs []string) (*primary.SessionView, error) {
	s.gotItems = itemIDs
	return s.view, s.err
}

func (s *stubResolution) Accept(context.Context, string) (*primary.SessionView, error) {
	return s.view, s.err
}

func (s *stubResolution) Intents() []policy.IntentOption {
	return []policy.IntentOption{{Key: "damaged", Label: "It arrived damaged", Ladder: policy.LadderShipping}}
}

type stubCases struct {
	primary.CaseService
	err error

	gotActor   string
	gotFilters primary.CaseFilters
	gotStatus  supportcase.Status
	gotCreate  casefile.CreateRequest
}

func (s *stubCases) ListCases(ctx context.Context, filters primary.CaseFilters) ([]*primary.Case, error) {
	s.gotActor = ctxutil.ActorFromContext(ctx)
	s.gotFilters = filters
	return []*primary.Case{{ID: "REF-A-001"}}, s.err
}

func (s *stubCases) UpdateStatus(ctx context.Context, caseID string, status supportcase.Status) (*primary.Case, error) {
	s.gotActor = ctxutil.ActorFromContext(ctx)
	s.gotStatus = status
	if s.err != nil {
		return nil, s.err
	}
	return &primary.Case{ID: caseID, Status: status}, nil
}

func (s *stubCases) CreateCase(_ context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	s.gotCreate = req
	return &casefile.CreateResponse{CaseID: "REF-A-002"}, s.err
}

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*secondary.StaffIdentity, error) {
	if token != "good" {
		return nil, primary.ErrUnauthorized
	}
	return &secondary.StaffIdentity{UserID: "u-1", Username: "alex"}, nil
}

func testView() *primary.SessionView {
	return &primary.SessionView{
		Session: ladder.Session{ID: "sess-1", State: ladder.StateAwaitingIntent},
		Message: "Hi! What can we help you with?",
	}
}

func newTestServer(res *stubResolution, cases *stubCases, opts Options) (*Server, *telemetry.Metrics) {
	metrics := telemetry.NewMetrics()
	return NewServer(res, cases, stubVerifier{}, metrics, opts), metrics
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// ============================================================================
// Tests
// ============================================================================

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{}, &stubCases{}, Options{ServiceName: "resolvd-test"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "resolvd-test", health.Service)
}

func TestStartSession(t *testing.T) {
	res := &stubResolution{view: testView()}
	srv, _ := newTestServer(res, &stubCases{}, Options{})

	w, resp := do(t, srv.Router(), http.MethodPost, "/api/chat/sessions", "", map[string]string{requestIDHeader: "req-42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Hi! What can we help you with?", resp.Message)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	assert.Equal(t, "customer", res.gotActor)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, "req-42", resp.Meta.RequestID)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	session, ok := data["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sess-1", session["sessionId"])
}

func TestRequestIDGenerated(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{view: testView()}, &stubCases{}, Options{})

	w, resp := do(t, srv.Router(), http.MethodGet, "/api/chat/sessions/sess-1", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, w.Header().Get(requestIDHeader), resp.Meta.RequestID)
}

func TestIdentifyPassesBody(t *testing.T) {
	res := &stubResolution{view: testView()}
	srv, _ := newTestServer(res, &stubCases{}, Options{})

	w, _ := do(t, srv.Router(), http.MethodPost, "/api/chat/sessions/sess-1/identify",
		`{"email":"jane@example.com","orderNumber":"#1001"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", res.gotIdentify.SessionID)
	assert.Equal(t, "jane@example.com", res.gotIdentify.Email)
	assert.Equal(t, "#1001", res.gotIdentify.OrderNumber)
}

func TestBadBodies(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{view: testView()}, &stubCases{}, Options{})

	tests := []struct {
		name string
		path string
		body string
	}{
		{"empty", "/api/chat/sessions/sess-1/identify", ""},
		{"not json", "/api/chat/sessions/sess-1/items", "item-1"},
		{"wrong type", "/api/chat/sessions/sess-1/items", `{"itemIds":"li-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, srv.Router(), http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSelectItems(t *testing.T) {
	res := &stubResolution{view: testView()}
	srv, _ := newTestServer(res, &stubCases{}, Options{})

	w, _ := do(t, srv.Router(), http.MethodPost, "/api/chat/sessions/sess-1/items", `{"itemIds":["li-1","li-2"]}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"li-1", "li-2"}, res.gotItems)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"validation", &customer.ValidationError{Field: "email", Reason: "bad"}, http.StatusBadRequest, false},
		{"session not found", primary.ErrSessionNotFound, http.StatusNotFound, false},
		{"invalid state", &ladder.InvalidStateError{Op: "accept", State: ladder.StateAwaitingIntent, Reason: "no offer"}, http.StatusConflict, false},
		{"lookup empty", &primary.LookupFailure{Reason: "no orders found"}, http.StatusNotFound, false},
		{"lookup error", &primary.LookupFailure{Reason: "down", Err: errors.New("timeout")}, http.StatusBadGateway, true},
		{"wrapped emission", &primary.EmissionFailure{SessionID: "sess-1", Err: errors.New("boom")}, http.StatusBadGateway, true},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&stubResolution{err: tt.err}, &stubCases{}, Options{})

			w, resp := do(t, srv.Router(), http.MethodPost, "/api/chat/sessions/sess-1/accept", "", nil)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.retryable, resp.Retryable)
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Error, "disk full")
		})
	}
}

func TestEmissionFailureKeepsView(t *testing.T) {
	view := testView()
	view.Session.State = ladder.StateAccepted
	view.EmissionPending = true
	res := &stubResolution{view: view, err: &primary.EmissionFailure{SessionID: "sess-1", Err: errors.New("hub down")}}
	srv, _ := newTestServer(res, &stubCases{}, Options{})

	w, resp := do(t, srv.Router(), http.MethodPost, "/api/chat/sessions/sess-1/accept", "", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, resp.Retryable)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["emissionPending"])
}

func TestIntents(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{}, &stubCases{}, Options{})

	w, resp := do(t, srv.Router(), http.MethodGet, "/api/chat/intents", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "damaged", items[0].(map[string]any)["key"])
}

func TestHubRequiresStaffToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"good token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases := &stubCases{}
			srv, _ := newTestServer(&stubResolution{}, cases, Options{})

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w, _ := do(t, srv.Router(), http.MethodGet, "/api/hub/cases", "", headers)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "alex", cases.gotActor)
			}
		})
	}
}

func TestListCasesFilters(t *testing.T) {
	cases := &stubCases{}
	srv, _ := newTestServer(&stubResolution{}, cases, Options{})
	auth := map[string]string{"Authorization": "Bearer good"}

	w, _ := do(t, srv.Router(), http.MethodGet,
		"/api/hub/cases?status=open&caseType=refund&email=jane@example.com&assignee=alex&limit=10&offset=20", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, primary.CaseFilters{
		Status:        "open",
		CaseType:      "refund",
		CustomerEmail: "jane@example.com",
		Assignee:      "alex",
		Limit:         10,
		Offset:        20,
	}, cases.gotFilters)

	w, _ = do(t, srv.Router(), http.MethodGet, "/api/hub/cases?limit=-1", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	auth := map[string]string{"Authorization": "Bearer good"}

	cases := &stubCases{}
	srv, _ := newTestServer(&stubResolution{}, cases, Options{})
	w, resp := do(t, srv.Router(), http.MethodPatch, "/api/hub/cases/REF-A-001/status", `{"status":"resolved"}`, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, supportcase.StatusResolved, cases.gotStatus)

	cases = &stubCases{err: primary.ErrInvalidCaseTransition}
	srv, _ = newTestServer(&stubResolution{}, cases, Options{})
	w, _ = do(t, srv.Router(), http.MethodPatch, "/api/hub/cases/REF-A-001/status", `{"status":"closed"}`, auth)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateCaseEndpoint(t *testing.T) {
	cases := &stubCases{}
	srv, _ := newTestServer(&stubResolution{}, cases, Options{})

	w, resp := do(t, srv.Router(), http.MethodPost, "/api/hub/cases",
		`{"sessionId":"sess-9","caseType":"refund","customerEmail":"jane@example.com","refundAmount":20.00,"refundPercentage":20}`,
		map[string]string{"Authorization": "Bearer good"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "REF-A-002", resp.Data.(map[string]any)["caseId"])
	assert.Equal(t, "sess-9", cases.gotCreate.SessionID)
	require.NotNil(t, cases.gotCreate.RefundAmount)
	assert.Equal(t, "20.00", cases.gotCreate.RefundAmount.String())
}

func TestRateLimitedWidget(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	srv, _ := newTestServer(&stubResolution{view: testView()}, &stubCases{}, Options{RateLimiter: limiter})
	h := srv.Router()

	w, _ := do(t, h, http.MethodGet, "/api/chat/sessions/sess-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := do(t, h, http.MethodGet, "/api/chat/sessions/sess-1", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, msgRateLimited, resp.Error)

	// Health is never limited.
	w, _ = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.nowFn = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(5 * time.Minute)
	rl.Sweep()
	assert.Empty(t, rl.visitors)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{view: testView()}, &stubCases{}, Options{})
	h := srv.Router()

	do(t, h, http.MethodGet, "/api/chat/sessions/sess-1", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `resolvd_http_request_duration_seconds_count{method="GET",route="/api/chat/sessions/{sessionID}`)
}

func TestRecoverer(t *testing.T) {
	h := requestID(recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	w, resp := do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternal, resp.Error)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(&stubResolution{}, &stubCases{}, Options{})
	w, resp := do(t, srv.Router(), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}
