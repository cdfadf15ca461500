package claims

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	TokenContextKey contextKey = "token"
	RawContextKey   contextKey = "raw_token"
)

const (
	// SessionCookie carries the bearer token issued by the remote API.
	SessionCookie = "session"
	// SessionIDCookie carries the id of the dashboard session row created at sign-in.
	SessionIDCookie = "session_id"
)

var ErrNoSubject = errors.New("token has no user id")

// Claims is the payload of a token issued by the scholaRSerbisyo API.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

// Parse decodes a token without checking its signature. The remote API is
// the only party that verifies tokens; the dashboard reads them to know who
// is signed in and until when.
func Parse(token string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, c); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if c.UserID == "" {
		c.UserID = c.Subject
	}
	if c.UserID == "" {
		return nil, ErrNoSubject
	}
	return c, nil
}

// Expiry returns the token expiry, or fallback from now when the token has none.
func (c *Claims) Expiry(now time.Time, fallback time.Duration) time.Time {
	if c.ExpiresAt > 0 {
		return time.Unix(c.ExpiresAt, 0)
	}
	return now.Add(fallback)
}

// Expired reports whether the token is past its exp claim at now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() > c.ExpiresAt
}
