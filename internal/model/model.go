package model

// RouteKey uniquely identifies an operation by HTTP method and route pattern.
type RouteKey struct {
	Method string
	Path   string
}

// RoutePolicy represents the permission requirements for a single operation.
//
// All, Any and None mirror the engine's clauses. A nil slice means the
// clause is not configured; an empty non-nil slice is configured but
// empty, which matters for Any (an empty any-of can never be satisfied).
// Public operations carry no clauses and skip authorization entirely.
type RoutePolicy struct {
	Public bool
	All    []string
	Any    []string
	None   []string
}

// Config is the in-memory representation of a policy document.
type Config struct {
	Global   string
	Policies map[RouteKey]RoutePolicy
}
