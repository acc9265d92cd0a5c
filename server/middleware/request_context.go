package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chronolog/server/internal/observability"
)

// HeaderRequestID carries a caller-supplied request id.
const HeaderRequestID = "X-Request-Id"

// RequestContext attaches an observability.RequestContext to every request
// and logs its completion. It must run after Auth so the user is known.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			userID, _ := UserIDFromContext(req.Context())
			operation := req.Method + " " + c.Path()

			var reqCtx *observability.RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				reqCtx = observability.NewRequestContextWithID(logger, id, operation, userID)
			} else {
				reqCtx = observability.NewRequestContext(logger, operation, userID)
			}
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				// Let echo's error handler set the final status before logging.
				c.Error(err)
			}
			reqCtx.Debug("request completed",
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
			return nil
		}
	}
}
