package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr for package callers.
type Attr = slog.Attr

// Common attribute keys used across components.
const (
	FieldComponent = "component"
	FieldTrackID   = "track_id"
	FieldPerformer = "performer"
	FieldSource    = "source"
	FieldDuration  = "duration"
)

// Any builds an attribute with an arbitrary value.
func Any(key string, value any) Attr { return slog.Any(key, value) }

// Bool builds a boolean attribute.
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

// Duration builds a duration attribute.
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Float64 builds a float attribute.
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

// Int builds an int attribute.
func Int(key string, value int) Attr { return slog.Int(key, value) }

// Int64 builds an int64 attribute.
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

// String builds a string attribute.
func String(key, value string) Attr { return slog.String(key, value) }

// Group builds a grouped attribute.
func Group(key string, args ...any) Attr { return slog.Group(key, args...) }

// Error builds a standard error attribute.
func Error(err error) Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Args converts a list of attributes into slog variadic arguments.
func Args(attrs ...Attr) []any {
	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// NewComponentLogger tags a logger with a component field.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (noopHandler) WithAttrs([]slog.Attr) slog.Handler        { return noopHandler{} }
func (noopHandler) WithGroup(string) slog.Handler             { return noopHandler{} }
