package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/resolvd/internal/core/customer"
	"github.com/example/resolvd/internal/core/order"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/secondary"
)

const maxLookupTries = 3

// lookupResponse is the order system's reply to GET /orders.
type lookupResponse struct {
	Orders []order.Snapshot `json:"orders"`
}

// HTTPLookup queries the order system over HTTP. Transient failures (network
// errors, 429 and 5xx) are retried with exponential backoff.
type HTTPLookup struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	initialGap time.Duration
}

// NewHTTPLookup creates a lookup against baseURL.
func NewHTTPLookup(baseURL, apiKey string, timeout time.Duration) *HTTPLookup {
	return &HTTPLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		initialGap: 200 * time.Millisecond,
	}
}

// Lookup calls GET {baseURL}/orders?email=&phone=&order_number=. A 404 means
// the customer has no orders.
func (l *HTTPLookup) Lookup(ctx context.Context, identity customer.Identity) ([]order.Snapshot, error) {
	q := url.Values{}
	q.Set("email", identity.Email)
	if identity.Phone != "" {
		q.Set("phone", identity.Phone)
	}
	if identity.OrderNumber != "" {
		q.Set("order_number", identity.OrderNumber)
	}
	endpoint := l.baseURL + "/orders?" + q.Encode()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.initialGap
	bo.MaxInterval = 2 * time.Second

	attempt := 0
	snapshots, err := backoff.Retry(ctx, func() ([]order.Snapshot, error) {
		attempt++
		snapshots, err := l.fetch(ctx, endpoint)
		if err != nil {
			logging.Debug(ctx).Err(err).Int("attempt", attempt).Msg("order lookup attempt failed")
		}
		return snapshots, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxLookupTries),
	)
	if err != nil {
		return nil, fmt.Errorf("order lookup failed after %d attempts: %w", attempt, err)
	}
	return snapshots, nil
}

func (l *HTTPLookup) fetch(ctx context.Context, endpoint string) ([]order.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("order system returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, backoff.Permanent(fmt.Errorf("order system returned %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode order system response: %w", err))
	}
	return body.Orders, nil
}

var _ secondary.OrderLookup = (*HTTPLookup)(nil)
