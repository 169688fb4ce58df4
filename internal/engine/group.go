package engine

import (
	"context"
	"fmt"
	"reflect"
)

// Category selects the subset of permissions a custom check applies to.
// Member must return true only for permissions belonging to the
// category. Categories built by hand are identified by Name; those from
// OfType by their type.
type Category[P comparable] struct {
	Name   string
	Member func(P) bool

	typ reflect.Type
}

func (c Category[P]) same(other Category[P]) bool {
	if c.typ != nil || other.typ != nil {
		return c.typ == other.typ
	}
	return c.Name == other.Name
}

// OfType returns a Category matching permissions whose dynamic type is,
// or implements, T. It is intended for permission models built as a
// sealed interface with one concrete type, or sub-interface, per
// category:
//
//	type Permission interface{ permission() }
//	type ProjectAccess struct{ ProjectID string }
//
//	engine.OfType[ProjectAccess, Permission]()
func OfType[T, P comparable]() Category[P] {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return Category[P]{
		Name: typ.String(),
		Member: func(p P) bool {
			_, ok := any(p).(T)
			return ok
		},
		typ: typ,
	}
}

// CheckSpec configures how a single category is verified.
//
// Stub is used only to describe the category in deny reasons. Select,
// when set, narrows the category's candidates before verification and
// receives the context passed to Evaluate, so request-scoped values are
// available to it. Verify is mandatory.
type CheckSpec[P comparable] struct {
	Stub   *P
	Verify func(P) bool
	Select func(ctx context.Context, candidates Set[P]) Set[P]
}

type groupCheck[P comparable] struct {
	category Category[P]
	spec     CheckSpec[P]
}

// Group is an ordered list of alternative category checks. A principal
// satisfies the group when any one category yields a verified
// permission. Categories are evaluated in the order they were added.
type Group[P comparable] struct {
	checks []groupCheck[P]
}

// NewGroup returns an empty Group.
func NewGroup[P comparable]() *Group[P] {
	return &Group[P]{}
}

// Add registers a check for category. Adding a category that is
// already registered replaces its check in place.
func (g *Group[P]) Add(category Category[P], spec CheckSpec[P]) error {
	if category.Member == nil {
		return fmt.Errorf("add category %q: %w", category.Name, ErrMissingCategory)
	}
	if spec.Verify == nil {
		return fmt.Errorf("add category %q: %w", category.Name, ErrMissingVerifier)
	}

	check := groupCheck[P]{category: category, spec: spec}
	for i := range g.checks {
		if g.checks[i].category.same(category) {
			g.checks[i] = check
			return nil
		}
	}
	g.checks = append(g.checks, check)
	return nil
}

// MustAdd is like Add but panics on a configuration error. It is meant
// for route tables built at program start.
func (g *Group[P]) MustAdd(category Category[P], spec CheckSpec[P]) *Group[P] {
	if err := g.Add(category, spec); err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of registered categories.
func (g *Group[P]) Len() int { return len(g.checks) }

func (g *Group[P]) snapshot() []groupCheck[P] {
	out := make([]groupCheck[P], len(g.checks))
	copy(out, g.checks)
	return out
}

func (c groupCheck[P]) stubText() string {
	if c.spec.Stub == nil {
		return "<no stub>"
	}
	return fmt.Sprint(*c.spec.Stub)
}

// verified returns the permissions in granted that pass this check.
func (c groupCheck[P]) verified(ctx context.Context, granted Set[P]) Set[P] {
	candidates := granted.Filter(c.category.Member)
	if c.spec.Select != nil {
		candidates = c.spec.Select(ctx, candidates)
	}
	// Select may hand back values outside the category.
	return candidates.Filter(func(p P) bool {
		return c.category.Member(p) && c.spec.Verify(p)
	})
}
