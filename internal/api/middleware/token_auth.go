package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
)

const accountKey contextKey = "account"

// TokenVerifier resolves an access token to its account.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*users.Account, error)
}

// TokenAuth requires a valid access token in the Authorization header. On
// success the request context carries the auth.Principal and the account.
func TokenAuth(verifier TokenVerifier, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				envelope.Error(w, r, http.StatusUnauthorized, err.Error(), err, env)
				return
			}

			account, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, users.ErrUnauthenticated):
					envelope.Error(w, r, http.StatusUnauthorized, auth.ErrInvalidToken.Error(), err, env)
				case errors.Is(err, storage.ErrUnavailable):
					envelope.Error(w, r, http.StatusInternalServerError, "store unavailable", err, env)
				default:
					envelope.Error(w, r, http.StatusInternalServerError, "server error", err, env)
				}
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{ID: account.ID, Username: account.Username})
			ctx = context.WithValue(ctx, accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext returns the account attached by TokenAuth.
func AccountFromContext(ctx context.Context) (*users.Account, bool) {
	account, ok := ctx.Value(accountKey).(*users.Account)
	return account, ok && account != nil
}
