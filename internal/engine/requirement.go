package engine

import (
	"fmt"
	"strings"
)

// Requirement describes what a protected action needs. It is built
// once when a route is registered and is read-only afterwards, so a
// single value may be evaluated concurrently.
//
// A Requirement is either a combination of all/any/none clauses, which
// must all hold, or a custom group of alternative category checks, of
// which one must hold.
type Requirement[P comparable] struct {
	all    *Set[P]
	any    *Set[P]
	none   *Set[P]
	custom []groupCheck[P]
}

// Clause configures one part of a simple Requirement.
type Clause[P comparable] func(*Requirement[P])

// All requires every one of permissions.
func All[P comparable](permissions ...P) Clause[P] {
	return func(r *Requirement[P]) {
		s := NewSet(permissions...)
		r.all = &s
	}
}

// Any requires at least one of permissions.
func Any[P comparable](permissions ...P) Clause[P] {
	return func(r *Requirement[P]) {
		s := NewSet(permissions...)
		r.any = &s
	}
}

// None requires that none of permissions are held.
func None[P comparable](permissions ...P) Clause[P] {
	return func(r *Requirement[P]) {
		s := NewSet(permissions...)
		r.none = &s
	}
}

// Require combines clauses into one Requirement. Later clauses of the
// same kind replace earlier ones.
func Require[P comparable](clauses ...Clause[P]) Requirement[P] {
	var r Requirement[P]
	for _, apply := range clauses {
		apply(&r)
	}
	return r
}

// RequirePermission requires the single permission.
func RequirePermission[P comparable](permission P) Requirement[P] {
	return Require(All(permission))
}

// RequireAll requires every one of permissions.
func RequireAll[P comparable](permissions ...P) Requirement[P] {
	return Require(All(permissions...))
}

// RequireAny requires at least one of permissions. An empty list
// denies every principal without the global permission.
func RequireAny[P comparable](permissions ...P) Requirement[P] {
	return Require(Any(permissions...))
}

// RequireNone forbids every one of permissions.
func RequireNone[P comparable](permissions ...P) Requirement[P] {
	return Require(None(permissions...))
}

// RequireCustom builds a Requirement from group. The group's checks are
// copied, so later changes to group do not affect the Requirement.
func RequireCustom[P comparable](group *Group[P]) (Requirement[P], error) {
	if group == nil || group.Len() == 0 {
		return Requirement[P]{}, ErrEmptyGroup
	}
	return Requirement[P]{custom: group.snapshot()}, nil
}

// IsCustom reports whether r was built from a custom group.
func (r Requirement[P]) IsCustom() bool {
	return r.custom != nil
}

// String describes the requirement, e.g. "anyOf (A B),noneOf (C)".
func (r Requirement[P]) String() string {
	if r.IsCustom() {
		names := make([]string, len(r.custom))
		for i, c := range r.custom {
			names[i] = c.category.Name
		}
		return fmt.Sprintf("customOf (%s)", strings.Join(names, " "))
	}

	var parts []string
	if r.any != nil {
		parts = append(parts, fmt.Sprintf("anyOf (%s)", r.any.Join(" ")))
	}
	if r.all != nil {
		parts = append(parts, fmt.Sprintf("allOf (%s)", r.all.Join(" ")))
	}
	if r.none != nil {
		parts = append(parts, fmt.Sprintf("noneOf (%s)", r.none.Join(" ")))
	}
	return strings.Join(parts, ",")
}
