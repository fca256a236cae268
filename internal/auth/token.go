package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// AccessTokenBytes is the entropy of an access token (256 bits).
const AccessTokenBytes = 32

var (
	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// GenerateAccessToken returns a random opaque token, hex encoded.
func GenerateAccessToken() (string, error) {
	b := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func TokenFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingToken
	}
	return TokenFromHeader(r.Header.Get("Authorization"))
}

// TokenFromHeader accepts the raw token as the whole header value. A
// "Bearer " scheme prefix is tolerated.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	var token string
	switch {
	case len(parts) == 1:
		token = parts[0]
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		token = parts[1]
	case len(parts) == 0:
		return "", ErrMissingToken
	default:
		return "", ErrInvalidToken
	}
	if strings.EqualFold(token, "bearer") {
		return "", ErrMissingToken
	}
	if !utf8.ValidString(token) {
		return "", ErrInvalidToken
	}
	return token, nil
}

// TokensEqual compares two tokens in constant time.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
