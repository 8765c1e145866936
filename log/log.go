// Package log provides scoped structured logging built on zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with a leveled, scope-aware API.
type Logger struct {
	lg zerolog.Logger
}

//nolint:gochecknoglobals
var global = &Logger{zerolog.Nop()}

// InitGlobals configures the process-wide logger and returns it. All loggers
// created by [New] afterward derive from it.
func InitGlobals(level zerolog.Level, jsonOutput, noColor bool) *Logger {
	var out io.Writer = os.Stderr
	if !jsonOutput {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    noColor,
			TimeFormat: time.RFC3339,
		}
	}

	lg := zerolog.New(out).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &lg
	global = &Logger{lg}

	return global
}

// New returns a logger for the given scope.
func New(scope string) *Logger {
	return &Logger{global.lg.With().Str("s", scope).Logger()}
}

// Ctx returns the logger attached to ctx, or the default logger.
func Ctx(ctx context.Context) *Logger {
	return &Logger{*zerolog.Ctx(ctx)}
}

// WithContext returns a copy of ctx with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.lg.WithContext(ctx)
}

// Attr is a structured log field.
type Attr struct {
	key   string
	value any
}

// Field creates a generic log field.
func Field(key string, value any) Attr {
	return Attr{key, value}
}

// Coll creates a collection name field.
func Coll(name string) Attr {
	return Attr{"coll", name}
}

// Count creates a document count field.
func Count(n int64) Attr {
	return Attr{"count", n}
}

// Elapsed creates an elapsed time field.
func Elapsed(d time.Duration) Attr {
	return Attr{"elapsed", d.String()}
}

// With returns a logger that attaches the fields to every message.
func (l *Logger) With(attrs ...Attr) *Logger {
	c := l.lg.With()
	for _, a := range attrs {
		c = c.Interface(a.key, a.value)
	}

	return &Logger{c.Logger()}
}

func (l *Logger) Trace(msg string) {
	l.lg.Trace().Msg(msg)
}

func (l *Logger) Debug(msg string) {
	l.lg.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, vals ...any) {
	l.lg.Debug().Msgf(format, vals...)
}

func (l *Logger) Info(msg string) {
	l.lg.Info().Msg(msg)
}

func (l *Logger) Infof(format string, vals ...any) {
	l.lg.Info().Msgf(format, vals...)
}

func (l *Logger) Warn(msg string) {
	l.lg.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, vals ...any) {
	l.lg.Warn().Msgf(format, vals...)
}

func (l *Logger) Error(err error, msg string) {
	l.lg.Error().Err(err).Msg(msg)
}

func (l *Logger) Errorf(err error, format string, vals ...any) {
	l.lg.Error().Err(err).Msg(fmt.Sprintf(format, vals...))
}
