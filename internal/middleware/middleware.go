// Package middleware wires the permission engine into net/http and chi
// routers. It owns the parts the engine leaves to its caller: finding
// the authenticated principal, mapping a denial to 403 and logging the
// reason.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chr1sbest/permauthz/internal/engine"
	"github.com/chr1sbest/permauthz/internal/model"
	"github.com/chr1sbest/permauthz/internal/policy"
)

const principalMissing = "principal missing, is the route wrapped in an authentication middleware?"

// StatusClientClosedRequest is written for requests cancelled before
// authorization ran, following the nginx convention.
const StatusClientClosedRequest = 499

// IdentifyFunc returns the authenticated principal of r, or false when
// the request carries none.
type IdentifyFunc[I any] func(r *http.Request) (I, bool)

// Authorizer guards handlers with permission requirements.
type Authorizer[I any, P comparable] struct {
	engine   *engine.Engine[I, P]
	identify IdentifyFunc[I]
	logger   *slog.Logger
}

// NewAuthorizer returns an Authorizer. A nil logger falls back to
// slog.Default().
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

// Describe renders req the way routes are labelled in logs.
func Describe[P comparable](req engine.Requirement[P]) string {
	return "(authorize " + req.String() + ")"
}

// Require returns middleware that lets a request through only when its
// principal satisfies req.
func (a *Authorizer[I, P]) Require(req engine.Requirement[P]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.authorize(w, r, req) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Policy returns middleware that looks up the requirement for the
// matched chi route pattern in table. It must run after routing, i.e.
// be installed with chi's With or inside a Group, so that the route
// pattern is known. Routes missing from the table, and public routes,
// pass through.
func (a *Authorizer[I, P]) Policy(table map[model.RouteKey]engine.Requirement[P]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := model.RouteKey{Method: r.Method, Path: routePattern(r)}
			req, ok := table[key]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !a.authorize(w, r, req) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Requirements extracts the protected routes of t in the form Policy
// expects.
func Requirements(t *policy.Table) map[model.RouteKey]engine.Requirement[string] {
	out := make(map[model.RouteKey]engine.Requirement[string])
	for _, route := range t.Routes() {
		if route.Public {
			continue
		}
		out[route.Key] = route.Requirement
	}
	return out
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// authorize writes the rejection itself and reports whether the request
// may proceed.
func (a *Authorizer[I, P]) authorize(w http.ResponseWriter, r *http.Request, req engine.Requirement[P]) bool {
	if err := r.Context().Err(); err != nil {
		a.logger.Debug("request cancelled before authorization", "path", r.URL.Path, "error", err)
		http.Error(w, "request cancelled", StatusClientClosedRequest)
		return false
	}

	identity, ok := a.identify(r)
	if !ok {
		a.logger.Warn(principalMissing, "path", r.URL.Path)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}

	decision, err := a.engine.Evaluate(r.Context(), identity, req)
	if err != nil {
		a.logger.Error("authorization misconfigured", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}

	if !decision.Allowed {
		a.logger.Warn("authorization failed",
			"path", r.URL.Path,
			"route", Describe(req),
			"reason", decision.Reason(),
		)
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}
