package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/rs/zerolog"
)

// Recover turns a panicking handler into a 500 envelope and logs the stack.
// The server keeps serving other requests.
func Recover(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				reqLogger := zerolog.Ctx(r.Context())
				if reqLogger.GetLevel() == zerolog.Disabled {
					reqLogger = &logger
				}
				reqLogger.Error().
					Interface("panic", p).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("uri", r.RequestURI).
					Msg("request panic")
				envelope.Write(w, http.StatusInternalServerError, envelope.Response{
					Success: false,
					Message: http.StatusText(http.StatusInternalServerError),
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
