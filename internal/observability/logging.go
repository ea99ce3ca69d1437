// Package observability provides logging, metrics, and tracing for the client.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Stderr, "warn", false)
}

// NewLogger builds a logger writing to w. JSON output is used in production,
// text output otherwise.
func NewLogger(w io.Writer, level string, jsonOutput bool) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(&ctxHandler{handler})}
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name onto slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key carrying the id of one user action.
const CorrelationID LogContextKey = "correlation_id"

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := ExtractCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// EnsureCorrelationID returns ctx unchanged when it already carries an id and
// a child context with a fresh one otherwise.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if ExtractCorrelationID(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, GenerateCorrelationID())
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", name))}
}

// MutationLogger provides structured logging for optimistic mutations.
type MutationLogger struct {
	logger *Logger
}

// NewMutationLogger creates a MutationLogger on top of l.
func NewMutationLogger(l *Logger) *MutationLogger {
	if l == nil {
		l = GlobalLogger
	}
	return &MutationLogger{logger: l.Component("mutation")}
}

// LogApplied logs a local state change applied ahead of the remote call.
func (l *MutationLogger) LogApplied(ctx context.Context, action, postID string) {
	l.logger.DebugContext(ctx, "optimistic change applied",
		slog.String("action", action),
		slog.String("post_id", postID),
	)
}

// LogCommitted logs a mutation confirmed by the remote.
func (l *MutationLogger) LogCommitted(ctx context.Context, action, postID string) {
	l.logger.InfoContext(ctx, "mutation committed",
		slog.String("action", action),
		slog.String("post_id", postID),
	)
}

// LogCompensated logs a mutation rolled back after a remote failure.
func (l *MutationLogger) LogCompensated(ctx context.Context, action, postID string, err error) {
	l.logger.WarnContext(ctx, "mutation rolled back",
		slog.String("action", action),
		slog.String("post_id", postID),
		slog.String("error", err.Error()),
	)
}
