package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/chronolog/server/internal/errors"
)

const (
	// Issuer is the issuer of chronolog access tokens.
	Issuer = "chronolog"
	// DefaultUserID is used for every request when auth is disabled.
	DefaultUserID int32 = 1
)

// ClaimsMessage is the JWT claims of an access token.
type ClaimsMessage struct {
	UserID int32 `json:"uid"`
	jwt.RegisteredClaims
}

type principalContextKey struct{}

// principal is the user a request acts as. verified is false when auth is
// disabled and every request acts as DefaultUserID.
type principal struct {
	userID   int32
	verified bool
}

// WithUserID returns a context carrying a user proven by an access token.
func WithUserID(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal{userID: userID, verified: true})
}

func withDefaultUser(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal{userID: DefaultUserID})
}

// UserIDFromContext returns the user the request acts as, if any.
func UserIDFromContext(ctx context.Context) (int32, bool) {
	p, ok := ctx.Value(principalContextKey{}).(principal)
	return p.userID, ok
}

// VerifiedUserIDFromContext returns the user only when an access token proved it.
func VerifiedUserIDFromContext(ctx context.Context) (int32, bool) {
	p, ok := ctx.Value(principalContextKey{}).(principal)
	if !ok || !p.verified {
		return 0, false
	}
	return p.userID, true
}

// GenerateAccessToken signs an HS256 token for userID.
func GenerateAccessToken(secret string, userID int32, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}
	claims := &ClaimsMessage{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.Itoa(int(userID)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return token, nil
}

// ParseAccessToken validates token and returns its user.
func ParseAccessToken(secret, token string) (int32, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "invalid access token")
	}
	if claims.UserID <= 0 {
		return 0, errors.New("access token has no user")
	}
	return claims.UserID, nil
}

// Auth authenticates requests with a bearer token signed with secret. An
// empty secret disables auth and every request acts as DefaultUserID.
// Paths in public skip authentication.
func Auth(secret string, public ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if secret == "" {
				c.SetRequest(req.WithContext(withDefaultUser(req.Context())))
				return next(c)
			}
			for _, p := range public {
				if c.Path() == p {
					return next(c)
				}
			}

			header := req.Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return apperrors.Unauthorized("missing bearer token")
			}
			userID, err := ParseAccessToken(secret, token)
			if err != nil {
				return apperrors.Unauthorized(err.Error())
			}
			c.SetRequest(req.WithContext(WithUserID(req.Context(), userID)))
			return next(c)
		}
	}
}

func itoa(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}
