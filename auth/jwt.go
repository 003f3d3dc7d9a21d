package auth

import (
	"fmt"
	"net/url"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens against the auth provider's JWKS.
// The key set is fetched once and refreshed in the background by
// keyfunc.
type Verifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
}

// NewVerifier builds a Verifier for the auth base URL (e.g. from
// AUTH_BASE_URL). Returns (nil, nil) when baseURL is empty, in which
// case only anonymous identities are accepted.
func NewVerifier(baseURL string) (*Verifier, error) {
	if baseURL == "" {
		return nil, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth base URL: %w", err)
	}
	jwks, err := keyfunc.NewDefault([]string{baseURL + "/.well-known/jwks.json"})
	if err != nil {
		return nil, err
	}
	return &Verifier{
		jwks:   jwks,
		issuer: u.Scheme + "://" + u.Host,
	}, nil
}

// Validate parses and verifies a token and returns its claims.
func (v *Verifier) Validate(tokenString string) (jwt.MapClaims, error) {
	if v == nil {
		return nil, fmt.Errorf("authentication is not configured")
	}
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA", "RS256", "ES256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
