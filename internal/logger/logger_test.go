package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" ERROR ": zapcore.ErrorLevel,
		"panic":   zapcore.PanicLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal checks that a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
}

// TestWithKV_AddsFieldsToEveryLine verifies scoped fields and names reach the encoder.
func TestWithKV_AddsFieldsToEveryLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := ToContext(context.Background(), NewJSON(&buf, zapcore.DebugLevel))
	ctx = WithName(ctx, "build")
	ctx = WithKV(ctx, "build_id", "b-1")

	InfoKV(ctx, "step finished", "step", "layout")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "build", line["logger"])
	require.Equal(t, "b-1", line["build_id"])
	require.Equal(t, "layout", line["step"])
	require.Equal(t, "step finished", line["message"])
}

// TestWithLevel_RaisesThreshold ensures the option filters entries below the pinned level.
func TestWithLevel_RaisesThreshold(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := NewJSON(&buf, zapcore.DebugLevel, WithLevel(zapcore.WarnLevel))
	l.Info("hidden")
	require.Zero(t, buf.Len())

	l.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}
