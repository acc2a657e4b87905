// Package logging owns process logger setup.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"
)

// Options configures the process logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text (colored) or json
	Debug  bool   // forces debug level
	Output io.Writer
}

// State records whether the process logger has been set up. It is owned by the process
// runtime and passed where needed; Init is safe to call more than once.
type State struct {
	mu     sync.Mutex
	logger *slog.Logger
	level  slog.Level
}

// NewState returns an uninitialized logger state.
func NewState() *State {
	return &State{}
}

// Initialized reports whether Init has run.
func (s *State) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger != nil
}

// Init installs the process logger once. Later calls keep the first logger and return it.
func (s *State) Init(opts Options) *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("Logger already initialized, keeping existing setup")
		return s.logger
	}

	level := ParseLevel(opts.Level)
	if opts.Debug {
		level = slog.LevelDebug
	}

	switch {
	case strings.EqualFold(opts.Format, "json"):
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		s.logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(s.logger)
	case opts.Output != nil:
		s.logger = slog.New(tint.NewHandler(opts.Output, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}))
		slog.SetDefault(s.logger)
	default:
		stylelog.InitDefault(&tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
		s.logger = slog.Default()
	}

	s.level = level
	s.logger.Debug("Logger initialized", "level", level.String())
	return s.logger
}

// Logger returns the installed logger, or slog.Default() before Init.
func (s *State) Logger() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// Level returns the level chosen by Init.
func (s *State) Level() slog.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForAgent returns a logger tagged with an agent's name and id.
func ForAgent(l *slog.Logger, name, id string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	attrs := []any{"agent_name", name}
	if id != "" {
		attrs = append(attrs, "agent_id", id)
	}
	return l.With(attrs...)
}

// ForTool returns a logger tagged with a tool's name.
func ForTool(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("tool_name", name)
}
