package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/chronolog/server/internal/errors"
	"github.com/hrygo/chronolog/server/internal/observability"
)

const testSecret = "test-secret"

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	// Keys are independent.
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Prune(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(0, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(10 * time.Minute)
	rl.Allow("new")

	assert.Equal(t, 1, rl.Prune(5*time.Minute))
	assert.Equal(t, 1, rl.Len())
}

func TestAccessToken(t *testing.T) {
	now := time.Now()
	token, err := GenerateAccessToken(testSecret, 42, time.Hour, now)
	require.NoError(t, err)

	userID, err := ParseAccessToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)

	_, err = ParseAccessToken("other-secret", token)
	assert.Error(t, err)

	expired, err := GenerateAccessToken(testSecret, 42, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, expired)
	assert.Error(t, err)

	_, err = GenerateAccessToken("", 42, time.Hour, now)
	assert.Error(t, err)
}

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if appErr, ok := apperrors.As(err); ok {
			_ = c.JSON(appErr.HTTPStatus(), map[string]string{"code": string(appErr.Code)})
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(mw...)
	handler := func(c echo.Context) error {
		userID, _ := UserIDFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]int32{"user": userID})
	}
	e.GET("/private", handler)
	e.GET("/healthz", handler)
	return e
}

func serve(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	e := newEcho(Auth(testSecret, "/healthz"))
	token, err := GenerateAccessToken(testSecret, 7, time.Hour, time.Now())
	require.NoError(t, err)

	rec := serve(e, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user": 7}`, rec.Body.String())

	rec = serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code": "UNAUTHORIZED"}`, rec.Body.String())

	rec = serve(e, "Bearer nonsense")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Disabled(t *testing.T) {
	rec := serve(newEcho(Auth("")), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user": 1}`, rec.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	e := newEcho(Auth(""), RateLimit(NewRateLimiter(1, 1)))

	assert.Equal(t, http.StatusOK, serve(e, "").Code)
	rec := serve(e, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"code": "RATE_LIMIT_EXCEEDED"}`, rec.Body.String())
}

func TestRateLimitMiddleware_KeysByIPWithoutAuth(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	e := newEcho(Auth(""), RateLimit(rl))

	fromIP := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusOK, fromIP("10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, fromIP("10.0.0.1"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimitMiddleware_KeysByVerifiedUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	e := newEcho(Auth(testSecret), RateLimit(rl))
	token, err := GenerateAccessToken(testSecret, 7, time.Hour, time.Now())
	require.NoError(t, err)

	fromIP := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.RemoteAddr = ip + ":12345"
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	// The same user from another address shares one limiter.
	assert.Equal(t, http.StatusOK, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, fromIP("10.0.0.2"))
	assert.Equal(t, 1, rl.Len())
}

func TestUserContext(t *testing.T) {
	ctx := withDefaultUser(context.Background())
	userID, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, DefaultUserID, userID)
	_, ok = VerifiedUserIDFromContext(ctx)
	assert.False(t, ok)

	userID, ok = VerifiedUserIDFromContext(WithUserID(ctx, 9))
	assert.True(t, ok)
	assert.Equal(t, int32(9), userID)
}

func TestRequestContextMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen *observability.RequestContext
	e := echo.New()
	e.Use(Auth(""), RequestContext(logger))
	e.GET("/private", func(c echo.Context) error {
		seen, _ = observability.FromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "req-123", seen.RequestID)
	assert.Equal(t, int32(1), seen.UserID)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), "request completed")
	assert.Contains(t, buf.String(), "status=204")
}
