package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(verbosity int) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoggerFromZap(zap.New(core), verbosity), logs
}

func TestLogger_Levels(t *testing.T) {
	l, logs := observed(3)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)

	wantLevels := []zapcore.Level{
		zapcore.ErrorLevel, zapcore.WarnLevel, zapcore.InfoLevel,
		zapcore.InfoLevel, zapcore.DebugLevel,
	}
	for i, lvl := range wantLevels {
		assert.Equal(t, lvl, entries[i].Level, "entry %d", i)
	}
}

func TestLogger_QuietMode(t *testing.T) {
	l, logs := observed(0)

	l.Info("should not appear")
	l.Verbose("should not appear")
	l.Debug("should not appear")
	l.Error("always appears")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "always appears", logs.All()[0].Message)
}

func TestLogger_NormalHidesVerbose(t *testing.T) {
	l, logs := observed(1)

	l.Warn("warning message")
	l.Verbose("hidden")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestLogger_WithFields(t *testing.T) {
	l, logs := observed(1)

	l.With("session", uint64(7), "remote", "10.0.0.1:5000").Info("hello %s", "there")

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "hello there", e.Message)
	assert.Equal(t, uint64(7), e.ContextMap()["session"])
	assert.Equal(t, "10.0.0.1:5000", e.ContextMap()["remote"])
}

func TestLogger_FormatVerbsWithoutArgs(t *testing.T) {
	l, logs := observed(1)
	l.Info("100% done")
	assert.Equal(t, "100% done", logs.All()[0].Message)
}

func TestLogger_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions(LogOptions{Verbosity: 1, Output: &buf})
	l.Info("test")
	_ = l.Sync()

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "test"), out)
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions(LogOptions{Verbosity: 1, Format: "json", Output: &buf})
	l.With("session", 3).Warn("careful")
	_ = l.Sync()

	out := buf.String()
	assert.Contains(t, out, `"msg":"careful"`)
	assert.Contains(t, out, `"session":3`)
}

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf()
	require.NotNil(t, buf)
	assert.Len(t, *buf, DefaultBufSize)

	(*buf)[0] = 0xFF
	PutBuf(buf)

	buf2 := GetBuf()
	require.NotNil(t, buf2)
	PutBuf(buf2)
}

func TestPutBuf_Nil(t *testing.T) {
	// Should not panic.
	PutBuf(nil)
}
