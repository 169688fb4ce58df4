// Package server builds the demo HTTP server: every operation in a
// policy document becomes a chi route guarded by its requirement.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chr1sbest/permauthz/internal/engine"
	"github.com/chr1sbest/permauthz/internal/middleware"
	"github.com/chr1sbest/permauthz/internal/model"
	"github.com/chr1sbest/permauthz/internal/policy"
	"github.com/chr1sbest/permauthz/internal/session"
)

// TokenPath issues sessions unless the policy document declares its own
// POST operation on it.
const TokenPath = "/token"

// NewRouter returns a handler serving table's routes. Protected routes
// resolve their principal through store.
func NewRouter(table *policy.Table, store *session.Store, logger *slog.Logger) (http.Handler, error) {
	e, err := engine.New(session.Permissions, table.EngineOptions()...)
	if err != nil {
		return nil, err
	}

	authz, err := middleware.NewAuthorizer(e, store.Identify, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	tokenRegistered := false

	for _, route := range table.Routes() {
		if route.Key.Method == http.MethodPost && route.Key.Path == TokenPath {
			tokenRegistered = true
			r.Post(TokenPath, store.IssueHandler)
			continue
		}

		handler := routeHandler(route.Key)
		if route.Public {
			r.Method(route.Key.Method, route.Key.Path, handler)
			continue
		}
		r.With(authz.Require(route.Requirement)).Method(route.Key.Method, route.Key.Path, handler)
	}

	if !tokenRegistered {
		r.Post(TokenPath, store.IssueHandler)
	}

	return r, nil
}

type routeResponse struct {
	Method string `json:"method"`
	Route  string `json:"route"`
	Path   string `json:"path"`
}

func routeHandler(key model.RouteKey) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(routeResponse{Method: key.Method, Route: key.Path, Path: r.URL.Path})
	})
}
