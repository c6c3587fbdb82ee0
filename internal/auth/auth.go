// Package auth resolves the caller identity from HS256 bearer tokens.
// Tokens are issued elsewhere; this package only verifies them.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"curriculum-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims carries the identity inside a token; the user id is the subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Sign creates a token for identity valid for ttl.
func (a *Authenticator) Sign(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse verifies a token and returns its identity.
func (a *Authenticator) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return Identity{ID: claims.Subject, Role: claims.Role}, nil
}

// FromRequest reads the token from the Authorization header, or from the
// token query parameter for websocket clients that cannot set headers.
func (a *Authenticator) FromRequest(r *http.Request) (Identity, error) {
	raw := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		var ok bool
		raw, ok = strings.CutPrefix(header, "Bearer ")
		if !ok {
			return Identity{}, fmt.Errorf("%w: malformed authorization header", domain.ErrUnauthenticated)
		}
	}
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	return a.Parse(strings.TrimSpace(raw))
}
