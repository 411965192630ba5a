package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "info")
	t.Cleanup(func() { Setup(os.Stdout, "") })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, ServiceKey, "bnb-api")
	ctx = WithUserID(ctx, "user-1")
	InfoContext(ctx, "Booking created", "booking_id", "b-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Booking created", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "bnb-api", entry["service"])
	assert.Equal(t, "b-1", entry["booking_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestSetup_Level(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "warn")
	t.Cleanup(func() { Setup(os.Stdout, "") })

	Info("hidden")
	Debug("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
