package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ragcontext.log")
	logger := NewFileLogger(LoggerConfig{Level: "debug", Format: "json", File: file})
	logger.Debug("written to file", "key", "value")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
	assert.Contains(t, string(data), `"key":"value"`)

	assert.NotNil(t, NewFileLogger(LoggerConfig{}))
}

func TestRequestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LoggerConfig{Level: "debug", Format: "json"})

	reqCtx := NewRequestContextWithID(logger, "req-1", OperationAnswer, "session-a")
	reqCtx.Info("answered", slog.Int(LogFieldMessageLen, 12))
	reqCtx.Error("generation failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"operation":"answer"`)
	assert.Contains(t, out, `"session_id":"session-a"`)
	assert.Contains(t, out, `"message_length":12`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestRequestContextGeneratesID(t *testing.T) {
	a := NewRequestContext(nil, OperationSearch, "")
	b := NewRequestContext(nil, OperationSearch, "")
	assert.Len(t, a.RequestID, 36)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.NotNil(t, a.Logger)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	reqCtx := NewRequestContext(nil, OperationAnswer, "s")
	ctx := WithRequestContext(context.Background(), reqCtx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)
	assert.NotNil(t, LoggerFromContext(ctx))
	assert.Equal(t, slog.Default(), LoggerFromContext(context.Background()))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(3)

	m.RecordRequest(OperationAnswer)
	m.RecordRequest(OperationAnswer)
	m.RecordFailure(OperationAnswer)
	m.RecordRequest(OperationClear)
	for _, d := range []time.Duration{10, 20, 30, 40} {
		m.RecordDuration(OperationAnswer, d*time.Millisecond)
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.RequestTotal)
	assert.Equal(t, int64(1), snap.RequestFailed)
	assert.Equal(t, 3, snap.DurationCount)
	assert.Equal(t, int64(2), snap.Operations[OperationAnswer].ExecutionCount)
	assert.Equal(t, int64(1), snap.Operations[OperationAnswer].ErrorCount)
	assert.Equal(t, int64(100), snap.Operations[OperationAnswer].TotalDuration)
	assert.Equal(t, int64(50), snap.Operations[OperationAnswer].AverageDuration)
	assert.Equal(t, int64(30), snap.P50LatencyMs)
	assert.Equal(t, int64(40), snap.P95LatencyMs)

	m.Reset()
	snap = m.Snapshot()
	assert.Zero(t, snap.RequestTotal)
	assert.Empty(t, snap.Operations)
}
