package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/resolvd/internal/ctxutil"
)

func TestWithContextAddsRequestAndActor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(&buf, "debug", false))

	ctx := ctxutil.WithRequestID(context.Background(), "req-42")
	ctx = ctxutil.WithActorID(ctx, "staff-1")
	Info(ctx).Str("session_id", "s1").Msg("offer presented")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["requestId"])
	assert.Equal(t, "staff-1", entry["actor"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "info", entry["level"])
	assert.NotContains(t, entry, "traceId")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(&buf, "warn", false))

	Level(context.Background(), "info").Msg("dropped")
	assert.Zero(t, buf.Len())

	Level(context.Background(), "error").Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitWithWriter(&bytes.Buffer{}, "loud", false))
}
