package logger

import (
	"context"
	"net/http/httptest"
	"testing"
	"vetlms_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, Level(&config.Config{Server: config.ServerConfig{Mode: "debug"}}))
	assert.Equal(t, zap.InfoLevel, Level(&config.Config{Server: config.ServerConfig{Mode: "release"}}))
	assert.Equal(t, zap.WarnLevel, Level(&config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Log:    config.LogConfig{Level: "warn"},
	}))
	assert.Equal(t, zap.InfoLevel, Level(&config.Config{Log: config.LogConfig{Level: "loud"}}))
}

func withObserved(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })
	return logs
}

func TestFromGinAddsRequestAndTraceIDs(t *testing.T) {
	logs := withObserved(t)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/profile", nil).
		WithContext(trace.ContextWithSpanContext(context.Background(), sc))
	c.Set("request_id", "req-1")

	FromGin(c).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
		assert.Equal(t, sc.SpanID().String(), fields["span_id"])
	}
}

func TestWithContextWithoutSpan(t *testing.T) {
	logs := withObserved(t)
	WithContext(context.Background()).Info("plain")
	assert.Empty(t, logs.All()[0].ContextMap())
}
