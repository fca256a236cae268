package auth

import (
	"context"
	"errors"
)

// ErrForbidden is returned by ownership checks. Callers translate it to their
// own not-found error before it reaches a client.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated account behind a request.
type Principal struct {
	ID       string
	Username string
}

func (p Principal) IsZero() bool {
	return p.ID == "" || p.Username == ""
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// AuthorizeOwner allows the principal to act on a resource owned by owner.
func AuthorizeOwner(p Principal, owner string) error {
	if p.IsZero() || owner == "" {
		return ErrForbidden
	}
	if p.Username != owner {
		return ErrForbidden
	}
	return nil
}

// AuthorizeSelf allows the principal to act on its own account id.
func AuthorizeSelf(p Principal, accountID string) error {
	if p.IsZero() || accountID == "" || p.ID != accountID {
		return ErrForbidden
	}
	return nil
}
