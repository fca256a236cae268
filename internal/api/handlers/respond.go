package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
)

// Client-facing messages.
const (
	msgAttendeeAdded      = "Attendee added"
	msgAttendeeRemoved    = "Attendee removed"
	msgEventDeleted       = "Event deleted"
	msgAlreadyJoined      = "already joined"
	msgNoSuchAttendee     = "no such attendee"
	msgNotFound           = "not found"
	msgForbidden          = "forbidden"
	msgInvalidCredentials = "Invalid username or password"
	msgUsernameTaken      = "Username already exists"
	msgEmailTaken         = "Email address already exists"
	msgValidation         = "validation failed"
	msgInvalidBody        = "invalid request body"
	msgBodyTooLarge       = "request body too large"
	msgUnauthorized       = "invalid access token"
	msgStoreUnavailable   = "store unavailable"
	msgServerError        = "server error"
)

var errEmptyBody = errors.New("request body is empty")

// writeError maps a service error onto the response envelope. Not-found and
// ownership failures share one status and body.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxBytes *http.MaxBytesError
	var fieldErrs validation.Errors

	switch {
	case errors.As(err, &maxBytes):
		envelope.Error(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err, env)
	case errors.Is(err, users.ErrValidation), errors.Is(err, events.ErrValidation):
		var opts []envelope.Option
		if errors.As(err, &fieldErrs) {
			opts = append(opts, envelope.WithPayload(fieldErrs))
		}
		envelope.Error(w, r, http.StatusBadRequest, msgValidation, err, env, opts...)
	case errors.Is(err, users.ErrUsernameTaken):
		envelope.Error(w, r, http.StatusBadRequest, msgUsernameTaken, err, env)
	case errors.Is(err, users.ErrEmailTaken):
		envelope.Error(w, r, http.StatusBadRequest, msgEmailTaken, err, env)
	case errors.Is(err, users.ErrInvalidCredentials):
		envelope.Error(w, r, http.StatusUnauthorized, msgInvalidCredentials, err, env)
	case errors.Is(err, users.ErrUnauthenticated):
		envelope.Error(w, r, http.StatusUnauthorized, msgUnauthorized, err, env)
	case errors.Is(err, users.ErrNotFound), errors.Is(err, events.ErrNotFound):
		envelope.Error(w, r, http.StatusBadRequest, msgNotFound, err, env)
	case errors.Is(err, events.ErrAlreadyJoined):
		envelope.Error(w, r, http.StatusBadRequest, msgAlreadyJoined, err, env)
	case errors.Is(err, events.ErrNoSuchAttendee):
		envelope.Error(w, r, http.StatusBadRequest, msgNoSuchAttendee, err, env)
	case errors.Is(err, events.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		envelope.Error(w, r, http.StatusBadRequest, msgForbidden, err, env)
	case errors.Is(err, storage.ErrUnavailable):
		envelope.Error(w, r, http.StatusInternalServerError, msgStoreUnavailable, err, env)
	default:
		envelope.Error(w, r, http.StatusInternalServerError, msgServerError, err, env)
	}
}

// decodeJSON reads one JSON object from the body. Unknown fields are
// ignored so clients cannot smuggle server-owned fields but are not
// rejected for sending them.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		envelope.Error(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err, env)
		return
	}
	envelope.Error(w, r, http.StatusBadRequest, msgInvalidBody, err, env)
}

// outcome names a result for metrics labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, storage.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, events.ErrAlreadyJoined), errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrNotFound), errors.Is(err, events.ErrNoSuchAttendee):
		return "not_found"
	case errors.Is(err, events.ErrValidation), errors.Is(err, users.ErrValidation):
		return "invalid"
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, events.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		return "rejected"
	default:
		return "error"
	}
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}
