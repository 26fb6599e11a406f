// Package observability provides structured logging for the phone advisor.
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const defaultService = "phone-advisor"

// Logger is a zerolog logger scoped to a service and, optionally, a
// component and a request trace.
type Logger struct {
	zl zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

// NewLogger builds a Logger from cfg. Unknown levels fall back to info.
func NewLogger(cfg LogConfig) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultService
	}

	zl := zerolog.New(out).
		Level(levelFor(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{zl: zl}
}

// NewNopLogger returns a logger that discards everything. Tests use it.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) event(level zerolog.Level) *LogEvent {
	return &LogEvent{evt: l.zl.WithLevel(level)}
}

// Debug starts a debug event.
func (l *Logger) Debug() *LogEvent { return l.event(zerolog.DebugLevel) }

// Info starts an info event.
func (l *Logger) Info() *LogEvent { return l.event(zerolog.InfoLevel) }

// Warn starts a warning event.
func (l *Logger) Warn() *LogEvent { return l.event(zerolog.WarnLevel) }

// Error starts an error event.
func (l *Logger) Error() *LogEvent { return l.event(zerolog.ErrorLevel) }

// Fatal starts a fatal event. Sending it exits the process.
func (l *Logger) Fatal() *LogEvent {
	return &LogEvent{evt: l.zl.Fatal()}
}

// WithContext tags the logger with the trace id carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return l.withStr("trace_id", traceID)
}

// WithComponent tags the logger with the name of the emitting component
// (parser, recommend, chat_handler, ...).
func (l *Logger) WithComponent(name string) *Logger {
	return l.withStr("component", name)
}

func (l *Logger) withStr(key, val string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, val).Logger()}
}

// LogEvent is a single log line under construction. Call Msg to emit it.
type LogEvent struct {
	evt *zerolog.Event
}

// Str adds a string field.
func (e *LogEvent) Str(key, val string) *LogEvent {
	e.evt = e.evt.Str(key, val)
	return e
}

// Strs adds a string slice field.
func (e *LogEvent) Strs(key string, vals []string) *LogEvent {
	e.evt = e.evt.Strs(key, vals)
	return e
}

// Int adds an int field.
func (e *LogEvent) Int(key string, val int) *LogEvent {
	e.evt = e.evt.Int(key, val)
	return e
}

// Float64 adds a float field.
func (e *LogEvent) Float64(key string, val float64) *LogEvent {
	e.evt = e.evt.Float64(key, val)
	return e
}

// Bool adds a bool field.
func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	e.evt = e.evt.Bool(key, val)
	return e
}

// Dur adds a duration field.
func (e *LogEvent) Dur(key string, val time.Duration) *LogEvent {
	e.evt = e.evt.Dur(key, val)
	return e
}

// Err attaches err under the "error" key.
func (e *LogEvent) Err(err error) *LogEvent {
	e.evt = e.evt.Err(err)
	return e
}

// Msg emits the event.
func (e *LogEvent) Msg(msg string) {
	e.evt.Msg(msg)
}

var levelAliases = map[string]zerolog.Level{
	"warning": zerolog.WarnLevel,
	"off":     zerolog.Disabled,
}

func levelFor(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if lvl, ok := levelAliases[name]; ok {
		return lvl
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

type traceKey struct{}

// NewTraceID returns a fresh random trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// ContextWithTraceID stores traceID in ctx.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext returns the trace id stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
