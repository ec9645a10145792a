package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resolvd/internal/core/effects"
)

func TestIncRoutesToCounters(t *testing.T) {
	m := NewMetrics()

	m.Inc(effects.MetricOfferPresented, map[string]string{"ladder": "refund", "step": "0"})
	m.Inc(effects.MetricOfferPresented, map[string]string{"ladder": "refund", "step": "0"})
	m.Inc(effects.MetricLadderOutcome, map[string]string{"ladder": "shipping", "resolution_type": "partial_refund_reship"})
	m.Inc(effects.MetricCaseEmission, map[string]string{"result": "created"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.offersPresented.WithLabelValues("refund", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ladderOutcomes.WithLabelValues("shipping", "partial_refund_reship")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.caseEmissions.WithLabelValues("created")))
}

func TestIncIgnoresUnknown(t *testing.T) {
	m := NewMetrics()
	assert.NotPanics(t, func() {
		m.Inc("nope", nil)
		m.Inc(effects.MetricCaseEmission, map[string]string{"wrong": "label"})
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP("/api/chat/sessions", http.MethodPost, 201, 20*time.Millisecond)
	m.Inc(effects.MetricOrderLookup, map[string]string{"result": "found"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "resolvd_order_lookups_total")
	assert.Contains(t, body, "resolvd_http_request_duration_seconds")
}
