package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	Actor        string            `json:"actor"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	Status       string            `json:"status"` // "success" or "denied"
	Details      map[string]string `json:"details,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
)

// Logger records account and event mutations, including refused ownership
// checks that clients only ever see as "not found".
type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("log_type", "audit").Logger()}
}

// Nop returns a logger that discards entries.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Log writes entry, tagged with the request id when ctx carries a request logger.
func (l *Logger) Log(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.logger.Info()
	if entry.Status == StatusDenied {
		event = l.logger.Warn()
	}
	if ctx != nil {
		if id := requestID(ctx); id != "" {
			event = event.Str("request_id", id)
		}
	}
	event.Interface("audit", entry).Msg(entry.Action)
}

func (l *Logger) LogSuccess(ctx context.Context, action, actor, resourceType, resourceID string, details map[string]string) {
	l.Log(ctx, Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       StatusSuccess,
		Details:      details,
	})
}

func (l *Logger) LogDenied(ctx context.Context, action, actor, resourceType, resourceID string, details map[string]string) {
	l.Log(ctx, Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       StatusDenied,
		Details:      details,
	})
}

type contextKey string

// RequestIDKey lets the correlation middleware hand its id to audit entries
// without this package depending on the HTTP layer.
const RequestIDKey contextKey = "audit_request_id"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
