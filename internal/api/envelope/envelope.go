// Package envelope writes every API response in one JSON shape:
// {"success": bool, "response": payload, "message": text}.
package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/rs/zerolog"
)

const contentType = "application/json"

// RetryAfterSeconds is sent with responses for transient store failures.
const RetryAfterSeconds = 1

type Response struct {
	Success  bool   `json:"success"`
	Response any    `json:"response"`
	Message  string `json:"message,omitempty"`
}

type Option func(*Response)

// WithPayload attaches a response body to an error envelope, e.g. field
// validation errors.
func WithPayload(payload any) Option {
	return func(r *Response) {
		r.Response = payload
	}
}

// Success writes a successful envelope.
func Success(w http.ResponseWriter, status int, payload any, message string) {
	Write(w, status, Response{Success: true, Response: payload, Message: message})
}

// Error writes a failed envelope. err is logged, and in development or test
// environments it replaces a generic 5xx message so callers can debug.
// Store unavailability is counted and answered with Retry-After.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error, env string, opts ...Option) {
	resp := Response{Success: false, Message: message}
	for _, opt := range opts {
		opt(&resp)
	}

	if status >= 500 && err != nil && config.IsDevelopment(env) {
		resp.Message = message + ": " + err.Error()
	}
	if err != nil && errors.Is(err, storage.ErrUnavailable) {
		metrics.StoreUnavailableTotal.Inc()
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}

	if r != nil && err != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		if status >= 500 {
			event = logger.Error()
		} else {
			event = logger.Warn()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	Write(w, status, resp)
}

func Write(w http.ResponseWriter, status int, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"response":null,"message":"` + http.StatusText(http.StatusInternalServerError) + `"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
