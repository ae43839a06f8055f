// Package session tracks the authenticated user derived from the backend's
// access token. The token is decoded, not verified: the client has no
// signing key, and the backend re-checks the signature on every request.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the typed view of a decoded access token.
type Session struct {
	UserID    int
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool
	ExpiresAt time.Time
}

// FullName returns the user's display name.
func (s Session) FullName() string {
	return s.FirstName + " " + s.LastName
}

// accessClaims mirrors the backend's access token payload. The email rides
// in the registered subject claim.
type accessClaims struct {
	UserID    int    `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Admin     bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Decode parses an access token without signature verification and returns
// the session it carries. A token already expired at decode time is an
// error: holding on to it would only produce a 401 on first use.
func Decode(token string) (*Session, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("decode access token: missing expiry")
	}
	if claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("decode access token: already expired")
	}

	return &Session{
		UserID:    claims.UserID,
		Email:     claims.Subject,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		IsAdmin:   claims.Admin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
