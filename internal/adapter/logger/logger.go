package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type slogLogger struct {
	log *slog.Logger
}

// New returns a JSON logger writing to stdout, tagged with the service name
// and hostname.
func New(service string) Logger {
	return NewWithWriter(service, os.Stdout, slog.LevelDebug)
}

func NewWithWriter(service string, w io.Writer, level slog.Level) Logger {
	hostname, _ := os.Hostname()
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{
		log: slog.New(handler).With(
			slog.String(KeyService, service),
			slog.String(KeyHostname, hostname),
		),
	}
}

// Discard is used by tests that do not inspect log output.
func Discard() Logger {
	return &slogLogger{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *slogLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.emit(slog.LevelInfo, action, message, requestID, details, nil)
}

func (l *slogLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.emit(slog.LevelDebug, action, message, requestID, details, nil)
}

func (l *slogLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.emit(slog.LevelError, action, message, requestID, details, err)
}

func (l *slogLogger) emit(level slog.Level, action, message, requestID string, details map[string]interface{}, err error) {
	attrs := []slog.Attr{
		slog.String(KeyAction, action),
		slog.String(KeyRequestID, requestID),
	}
	if len(details) > 0 {
		attrs = append(attrs, slog.Any(KeyDetails, details))
	}
	if err != nil {
		attrs = append(attrs, slog.Group(KeyError,
			slog.String("msg", err.Error()),
		))
	}
	l.log.LogAttrs(context.Background(), level, message, attrs...)
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
