package casesink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/ports/primary"
)

func testRequest() casefile.CreateRequest {
	amount := money.MustParse("20.00")
	return casefile.CreateRequest{
		SessionID:        "sess-1",
		CaseType:         casefile.CaseRefund,
		CustomerEmail:    "jane@example.com",
		OrderTotal:       money.MustParse("100.00"),
		SelectedItemIDs:  []string{"li-1"},
		Intent:           "not_working",
		ResolutionType:   casefile.ResolutionPartialRefund,
		RefundAmount:     &amount,
		RefundPercentage: 20,
	}
}

func newTestRemote(url string) *Remote {
	r := NewRemote(url, "hub-token", time.Second)
	r.initialGap = time.Millisecond
	return r
}

func TestRemote_CreateCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, createCasePath, r.URL.Path)
		assert.Equal(t, "Bearer hub-token", r.Header.Get("Authorization"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "sess-1", raw["sessionId"])
		assert.Equal(t, "partial_refund", raw["resolutionType"])
		assert.Equal(t, 20.0, raw["refundAmount"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"caseId":"REF-LOYW3V28-ABC"}}`))
	}))
	defer srv.Close()

	resp, err := newTestRemote(srv.URL).CreateCase(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "REF-LOYW3V28-ABC", resp.CaseID)
}

func TestRemote_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"caseId":"REF-A-001"}}`))
	}))
	defer srv.Close()

	resp, err := newTestRemote(srv.URL).CreateCase(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "REF-A-001", resp.CaseID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRemote_ValidationErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid customerEmail"}`))
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).CreateCase(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid customerEmail")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRemote_MissingCaseID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).CreateCase(context.Background(), testRequest())
	assert.Error(t, err)
}

type recordingCaseService struct {
	primary.CaseService
	got casefile.CreateRequest
}

func (s *recordingCaseService) CreateCase(_ context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	s.got = req
	return &casefile.CreateResponse{CaseID: "REF-LOCAL-001"}, nil
}

func TestLocal_Delegates(t *testing.T) {
	svc := &recordingCaseService{}
	resp, err := NewLocal(svc).CreateCase(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "REF-LOCAL-001", resp.CaseID)
	assert.Equal(t, "sess-1", svc.got.SessionID)
}
