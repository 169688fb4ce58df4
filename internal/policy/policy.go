// Package policy compiles a parsed policy document into engine
// requirements keyed by route.
package policy

import (
	"sort"

	"github.com/chr1sbest/permauthz/internal/engine"
	"github.com/chr1sbest/permauthz/internal/model"
)

// Route is the compiled form of one operation's policy.
type Route struct {
	Key         model.RouteKey
	Public      bool
	Requirement engine.Requirement[string]
}

// Table holds the compiled routes of a document. It is built once at
// startup and only read afterwards.
type Table struct {
	global string
	routes map[model.RouteKey]Route
}

// Compile converts cfg into a Table.
func Compile(cfg *model.Config) *Table {
	t := &Table{routes: make(map[model.RouteKey]Route)}
	if cfg == nil {
		return t
	}
	t.global = cfg.Global
	for key, p := range cfg.Policies {
		t.routes[key] = Route{Key: key, Public: p.Public, Requirement: RequirementFor(p)}
	}
	return t
}

// RequirementFor builds the engine requirement for p. Nil clauses are
// left unconfigured so that they do not contribute deny reasons.
func RequirementFor(p model.RoutePolicy) engine.Requirement[string] {
	var clauses []engine.Clause[string]
	if p.All != nil {
		clauses = append(clauses, engine.All(p.All...))
	}
	if p.Any != nil {
		clauses = append(clauses, engine.Any(p.Any...))
	}
	if p.None != nil {
		clauses = append(clauses, engine.None(p.None...))
	}
	return engine.Require(clauses...)
}

// EngineOptions returns the engine options implied by the document,
// currently only the global permission.
func (t *Table) EngineOptions() []engine.Option[string] {
	if t.global == "" {
		return nil
	}
	return []engine.Option[string]{engine.WithGlobal(t.global)}
}

// Lookup returns the compiled route for key.
func (t *Table) Lookup(key model.RouteKey) (Route, bool) {
	r, ok := t.routes[key]
	return r, ok
}

// Routes returns all routes ordered by path, then method.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Path != out[j].Key.Path {
			return out[i].Key.Path < out[j].Key.Path
		}
		return out[i].Key.Method < out[j].Key.Method
	})
	return out
}
