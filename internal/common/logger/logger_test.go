package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapAdapter(zap.New(core)), logs
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "XXXXXXXX9012", Redact("aadhaar", "123456789012"))
	assert.Equal(t, "XXXXXX234F", Redact("PAN", "ABCDE1234F"))
	assert.Equal(t, "XXX", Redact("pan", "ABC"))
	assert.Equal(t, redacted, Redact("otp", "123456"))
	assert.Equal(t, redacted, Redact("Authorization", "Bearer abc"))
	assert.Equal(t, "s-1", Redact("sessionId", "s-1"))
	assert.Equal(t, 42, Redact("riskScore", 42))
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	log, logs := observed()

	log.WithFields(map[string]interface{}{"pan": "ABCDE1234F"}).Info("kyc", map[string]interface{}{
		"aadhaar":   "123456789012",
		"otp":       "123456",
		"sessionId": "s-1",
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "XXXXXX234F", fields["pan"])
	assert.Equal(t, "XXXXXXXX9012", fields["aadhaar"])
	assert.Equal(t, redacted, fields["otp"])
	assert.Equal(t, "s-1", fields["sessionId"])
}

func TestLogger_LevelsAndErrors(t *testing.T) {
	log, logs := observed()

	log.Debug("d", nil)
	log.Warn("w", nil)
	log.WithError(errors.New("boom")).Error("e", map[string]interface{}{"cause": errors.New("inner")})

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
	assert.Equal(t, "inner", entries[2].ContextMap()["cause"])
}

func TestNew_Levels(t *testing.T) {
	assert.True(t, New("debug", "json").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "console").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, New("bogus", "json").Core().Enabled(zapcore.InfoLevel))
	assert.False(t, New("bogus", "json").Core().Enabled(zapcore.DebugLevel))
}

func TestContextLogger(t *testing.T) {
	fallback := NewNoOpLogger()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped, logs := observed()
	ctx := IntoContext(context.Background(), scoped)
	FromContext(ctx, fallback).Info("scoped", nil)
	assert.Equal(t, 1, logs.Len())
}
