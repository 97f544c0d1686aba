package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithContextAddsRequestAndActor(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter(&Config{Level: "info", Format: "json"}, &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, ActorIDKey, int64(42))
	ctx = context.WithValue(ctx, RoleKey, "admin")
	Info(ctx, "transition applied", "op", "cancel")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "transition applied", entry["msg"])
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, float64(42), entry["actor_id"])
	require.Equal(t, "admin", entry["role"])
	require.Equal(t, "cancel", entry["op"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter(&Config{Level: "info", Format: "text"}, &buf)
	Debug(context.Background(), "hidden")
	require.Empty(t, buf.String())

	Warn(context.Background(), "shown")
	require.Contains(t, buf.String(), "shown")
}
