package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Init replaces slog's default logger, so these tests do not run in parallel.

func TestState_InitIsIdempotent(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var first, second bytes.Buffer
	s := NewState()
	assert.False(t, s.Initialized())

	l1 := s.Init(Options{Level: "warn", Output: &first})
	l2 := s.Init(Options{Level: "debug", Output: &second})

	assert.True(t, s.Initialized())
	assert.Same(t, l1, l2)
	assert.Equal(t, slog.LevelWarn, s.Level())

	s.Logger().Info("hidden")
	s.Logger().Warn("shown")
	assert.NotContains(t, first.String(), "hidden")
	assert.Contains(t, first.String(), "shown")
	assert.Empty(t, second.String())
}

func TestState_DebugFlagWins(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	s := NewState()
	s.Init(Options{Level: "error", Debug: true, Output: &buf, Format: "json"})

	assert.Equal(t, slog.LevelDebug, s.Level())
	assert.Contains(t, buf.String(), `"msg":"Logger initialized"`)
}

func TestState_LoggerBeforeInit(t *testing.T) {
	assert.Same(t, slog.Default(), NewState().Logger())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestContextLoggers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ForAgent(base, "researcher", "a-1").Info("thinking")
	assert.Contains(t, buf.String(), "agent_name=researcher")
	assert.Contains(t, buf.String(), "agent_id=a-1")

	buf.Reset()
	ForAgent(base, "judge", "").Info("scoring")
	assert.NotContains(t, buf.String(), "agent_id")

	buf.Reset()
	ForTool(base, "search").Info("calling")
	assert.Contains(t, buf.String(), "tool_name=search")
}
