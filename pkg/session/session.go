package session

import (
	"context"
	"time"
)

// Session records one dashboard sign-in. Its random ID travels in its own
// cookie next to the token; a request is admitted only when both the ID and
// the token's user match a live row. Signing out deletes that row, which
// revokes the dashboard's cookies even while the token itself is still valid
// at the remote API.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, userID, sessionID string, expiresAt time.Time) (string, error)
	IsValid(ctx context.Context, sessionID, userID string) (bool, error)
	Invalidate(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
