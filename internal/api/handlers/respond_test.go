package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type envelopeBody struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response"`
	Message  string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"username taken", users.ErrUsernameTaken, http.StatusBadRequest, msgUsernameTaken},
		{"email taken", fmt.Errorf("create: %w", users.ErrEmailTaken), http.StatusBadRequest, msgEmailTaken},
		{"bad credentials", users.ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidCredentials},
		{"unauthenticated", users.ErrUnauthenticated, http.StatusUnauthorized, msgUnauthorized},
		{"account not found", users.ErrNotFound, http.StatusBadRequest, msgNotFound},
		{"event not found", events.ErrNotFound, http.StatusBadRequest, msgNotFound},
		{"already joined", events.ErrAlreadyJoined, http.StatusBadRequest, msgAlreadyJoined},
		{"no such attendee", events.ErrNoSuchAttendee, http.StatusBadRequest, msgNoSuchAttendee},
		{"leave someone else", events.ErrForbidden, http.StatusBadRequest, msgForbidden},
		{"no principal", auth.ErrForbidden, http.StatusBadRequest, msgForbidden},
		{"store down", storage.Unavailable(errors.New("dial tcp: refused")), http.StatusInternalServerError, msgStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, msgServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "production")

			require.Equal(t, tt.status, rec.Code)
			body := decodeEnvelope(t, rec)
			require.False(t, body.Success)
			require.Equal(t, tt.message, body.Message)
		})
	}
}

func TestWriteError_StoreUnavailableSetsRetryAfter(t *testing.T) {
	before := testutil.ToFloat64(metrics.StoreUnavailableTotal)

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), storage.Unavailable(errors.New("timeout")), "production")
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.StoreUnavailableTotal), "counted exactly once")
	require.NotContains(t, rec.Body.String(), "timeout")
}

func TestWriteError_ValidationCarriesFields(t *testing.T) {
	err := fmt.Errorf("%w: %w", events.ErrValidation, validation.Errors{{Field: "eventName", Message: "is required"}})

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodPost, "/events", nil), err, "production")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	require.Equal(t, msgValidation, body.Message)

	var fields []validation.FieldError
	require.NoError(t, json.Unmarshal(body.Response, &fields))
	require.Equal(t, []validation.FieldError{{Field: "eventName", Message: "is required"}}, fields)
}

func TestDecodeJSON(t *testing.T) {
	var dst loginRequest

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
	require.ErrorIs(t, decodeJSON(r, &dst), errEmptyBody)

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
	require.Error(t, decodeJSON(r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"pw","extra":1}`))
	require.NoError(t, decodeJSON(r, &dst))
	require.Equal(t, "alice", dst.Username)
}

func TestWriteDecodeError_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDecodeError(rec, httptest.NewRequest(http.MethodPost, "/", nil), &http.MaxBytesError{Limit: 10}, "test")
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
