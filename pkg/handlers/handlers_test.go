package handlers_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholarserbisyo/pkg/claims"
)

var (
	logger       = slog.New(slog.DiscardHandler)
	nowTime      = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rawToken     = "header.payload.sig"
	defaultClaim = &claims.Claims{UserID: "user123", Role: "admin"}
)

func fixedNow() time.Time { return nowTime }

func withSession(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), claims.TokenContextKey, defaultClaim)
	ctx = context.WithValue(ctx, claims.RawContextKey, rawToken)
	return r.WithContext(ctx)
}

func signToken(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Create(ctx context.Context, userID, sessionID string, expiresAt time.Time) (string, error) {
	args := m.Called(userID, sessionID, expiresAt)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) IsValid(ctx context.Context, sessionID, userID string) (bool, error) {
	args := m.Called(sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessions) Invalidate(ctx context.Context, sessionID string) error {
	return m.Called(sessionID).Error(0)
}

func (m *mockSessions) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
