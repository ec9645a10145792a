package wire

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resolvd/internal/config"
	"github.com/example/resolvd/internal/ports/primary"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "resolvd.db")
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestBuild_DemoFlowCreatesLocalCase(t *testing.T) {
	c, err := Build(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	view, err := c.Resolution.StartSession(ctx)
	require.NoError(t, err)
	id := view.Session.ID

	view, err = c.Resolution.Identify(ctx, primary.IdentifyRequest{SessionID: id, Email: "jane@example.com", OrderNumber: "#1001"})
	require.NoError(t, err)
	require.NotNil(t, view.Session.SelectedOrder)

	view, err = c.Resolution.SelectIntent(ctx, id, "not_working")
	require.NoError(t, err)
	require.NotNil(t, view.Offer)
	assert.Equal(t, 20, view.Offer.Percentage)

	view, err = c.Resolution.Accept(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, view.Session.CaseID)

	got, err := c.Cases.GetCase(ctx, view.Session.CaseID)
	require.NoError(t, err)
	assert.Equal(t, id, got.SessionID)
	assert.Equal(t, "jane@example.com", got.CustomerEmail)
	require.NotNil(t, got.RefundAmount)
	assert.Equal(t, "23.60", got.RefundAmount.String())
}

func TestBuild_InvalidPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy.GuaranteeDays = 0
	_, err := Build(cfg)
	assert.ErrorContains(t, err, "invalid policy")
}

func TestBuild_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionLock.Backend = config.LockRedis
	cfg.SessionLock.RedisAddr = "127.0.0.1:1"
	_, err := Build(cfg)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestHTTPServerUsesRateLimiter(t *testing.T) {
	cfg := testConfig(t)
	c, err := Build(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.RateLimiter)
	assert.NotNil(t, c.HTTPServer().Router())
}
