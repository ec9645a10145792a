package orders

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

	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/money"
	"github.com/example/resolvd/internal/core/order"
)

func TestDemoCatalogue(t *testing.T) {
	lookup, err := LoadFixtureLookup("")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	lookup.nowFn = func() time.Time { return now }

	snaps, err := lookup.Lookup(context.Background(), customer.Identity{Email: "Jane@Example.com"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	recent := snaps[0]
	assert.Equal(t, "#1001", recent.OrderNumber)
	assert.Equal(t, 12, order.DaysSince(recent, now))
	assert.Equal(t, "120.99", recent.TotalPrice.String(), "total defaults to the sum of items")
	assert.Equal(t, "118.00", order.ItemsTotal(order.SelectableItems(recent)).String())

	old := snaps[1]
	assert.False(t, order.WithinGuarantee(old, now, 90*24*time.Hour))
}

func TestFixtureLookup_Matching(t *testing.T) {
	lookup, err := NewFixtureLookup([]byte(`
customers:
  - email: a@example.com
    phone: "+44 20 7946 0000"
    orders:
      - id: o1
        order_number: "#1"
        total_price: "10.00"
        created_at: 2026-01-01T00:00:00Z
        items:
          - {id: i1, title: Thing, quantity: 1, unit_price: "10.00", selectable: true}
`))
	require.NoError(t, err)

	byPhone, err := lookup.Lookup(context.Background(), customer.Identity{Email: "other@example.com", Phone: "+442079460000"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, money.MustParse("10.00"), byPhone[0].TotalPrice)
	assert.Equal(t, 2026, byPhone[0].CreatedAt.Year())

	none, err := lookup.Lookup(context.Background(), customer.Identity{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFixtureLookup_InvalidCatalogue(t *testing.T) {
	_, err := NewFixtureLookup([]byte("customers:\n  - email: nope\n"))
	assert.Error(t, err)

	_, err = NewFixtureLookup([]byte("customers: [\n"))
	assert.Error(t, err)
}

func newTestHTTPLookup(url string) *HTTPLookup {
	l := NewHTTPLookup(url, "key-1", time.Second)
	l.initialGap = time.Millisecond
	return l
}

func TestHTTPLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "jane@example.com", r.URL.Query().Get("email"))
		assert.Equal(t, "#1001", r.URL.Query().Get("order_number"))
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(lookupResponse{Orders: []order.Snapshot{
			{ID: "o1", OrderNumber: "#1001", TotalPrice: money.MustParse("5.00")},
		}})
	}))
	defer srv.Close()

	snaps, err := newTestHTTPLookup(srv.URL).Lookup(context.Background(), customer.Identity{Email: "jane@example.com", OrderNumber: "#1001"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "5.00", snaps[0].TotalPrice.String())
}

func TestHTTPLookup_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	snaps, err := newTestHTTPLookup(srv.URL).Lookup(context.Background(), customer.Identity{Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestHTTPLookup_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(lookupResponse{Orders: []order.Snapshot{{ID: "o1"}}})
	}))
	defer srv.Close()

	snaps, err := newTestHTTPLookup(srv.URL).Lookup(context.Background(), customer.Identity{Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPLookup_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestHTTPLookup(srv.URL).Lookup(context.Background(), customer.Identity{Email: "jane@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPLookup_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestHTTPLookup(srv.URL).Lookup(context.Background(), customer.Identity{Email: "jane@example.com"})
	require.Error(t, err)
	assert.Equal(t, int32(maxLookupTries), atomic.LoadInt32(&calls))
}
