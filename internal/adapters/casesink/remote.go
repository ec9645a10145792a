package casesink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/resolvd/internal/core/casefile"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/ports/secondary"
)

const (
	createCasePath     = "/api/hub/cases"
	maxCreateCaseTries = 3
)

// envelope is the hub's response wrapper.
type envelope struct {
	Success bool                     `json:"success"`
	Data    *casefile.CreateResponse `json:"data"`
	Error   string                   `json:"error"`
}

// Remote POSTs case requests as JSON to a resolvd hub. The hub returns the
// existing id for a session it has already stored, so retries are safe.
type Remote struct {
	endpoint   string
	token      string
	client     *http.Client
	initialGap time.Duration
}

// NewRemote creates a Remote sink for the hub at baseURL.
func NewRemote(baseURL, token string, timeout time.Duration) *Remote {
	return &Remote{
		endpoint: strings.TrimRight(baseURL, "/") + createCasePath,
		token:    token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		initialGap: 250 * time.Millisecond,
	}
}

// CreateCase implements secondary.CaseCreator.
func (r *Remote) CreateCase(ctx context.Context, req casefile.CreateRequest) (*casefile.CreateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode case request: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialGap
	bo.MaxInterval = 2 * time.Second

	resp, err := backoff.Retry(ctx, func() (*casefile.CreateResponse, error) {
		resp, err := r.post(ctx, payload)
		if err != nil {
			logging.Warn(ctx).Err(err).Str("session_id", req.SessionID).Msg("case emission attempt failed")
		}
		return resp, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxCreateCaseTries),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}
	return resp, nil
}

func (r *Remote) post(ctx context.Context, payload []byte) (*casefile.CreateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("case hub returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, backoff.Permanent(fmt.Errorf("case hub returned %s: %s", resp.Status, msg))
	case decodeErr != nil:
		return nil, backoff.Permanent(fmt.Errorf("failed to decode case hub response: %w", decodeErr))
	case env.Data == nil || env.Data.CaseID == "":
		return nil, backoff.Permanent(errors.New("case hub response has no case id"))
	}
	return env.Data, nil
}

var _ secondary.CaseCreator = (*Remote)(nil)
