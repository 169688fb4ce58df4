// Package echoauth guards labstack/echo routes with the permission
// engine.
package echoauth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chr1sbest/permauthz/internal/engine"
)

const (
	msgUnauthorized  = "unauthorized"
	msgForbidden     = "forbidden"
	msgMisconfigured = "internal server error"
	msgCancelled     = "request cancelled"
)

// statusClientClosedRequest is returned for requests cancelled before
// authorization ran, following the nginx convention.
const statusClientClosedRequest = 499

// IdentifyFunc returns the principal stored on c by an earlier
// authentication middleware.
type IdentifyFunc[I any] func(c echo.Context) (I, bool)

// ContextIdentity reads the principal stored under key with c.Set.
func ContextIdentity[I any](key string) IdentifyFunc[I] {
	return func(c echo.Context) (I, bool) {
		identity, ok := c.Get(key).(I)
		return identity, ok
	}
}

type Authorizer[I any, P comparable] struct {
	engine   *engine.Engine[I, P]
	identify IdentifyFunc[I]
	logger   *slog.Logger
}

func NewAuthorizer[I any, P comparable](e *engine.Engine[I, P], identify IdentifyFunc[I], logger *slog.Logger) (*Authorizer[I, P], error) {
	if e == nil {
		return nil, errors.New("authorizer requires an engine")
	}
	if identify == nil {
		return nil, errors.New("authorizer requires an identify function")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer[I, P]{engine: e, identify: identify, logger: logger}, nil
}

// Require returns echo middleware enforcing req. Rejections are
// returned as *echo.HTTPError so the application's error handler
// renders them.
func (a *Authorizer[I, P]) Require(req engine.Requirement[P]) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if err := ctx.Err(); err != nil {
				a.logger.Debug("request cancelled before authorization", "path", c.Request().URL.Path, "error", err)
				return echo.NewHTTPError(statusClientClosedRequest, msgCancelled).SetInternal(err)
			}

			identity, ok := a.identify(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
			}

			decision, err := a.engine.Evaluate(ctx, identity, req)
			if err != nil {
				a.logger.Error("authorization misconfigured", "path", c.Request().URL.Path, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, msgMisconfigured).SetInternal(err)
			}

			if !decision.Allowed {
				a.logger.Warn("authorization failed",
					"path", c.Request().URL.Path,
					"route", c.Path(),
					"reason", decision.Reason(),
				)
				return echo.NewHTTPError(http.StatusForbidden, msgForbidden)
			}

			return next(c)
		}
	}
}
