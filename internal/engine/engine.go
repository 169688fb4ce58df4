// Package engine decides whether an authenticated principal satisfies a
// route's permission requirement.
//
// The engine is pure decision logic over in-memory sets: it performs no
// I/O, emits no logs and holds no mutable state after construction.
// Callers own authentication and the mapping of a Decision onto their
// transport.
package engine

import (
	"context"
	"fmt"
	"strings"
)

const (
	reasonMissingAll  = "Principal '%v' is missing required permission(s) %s"
	reasonMissingAny  = "Principal '%v' is missing all possible permission(s) %s"
	reasonHasExcluded = "Principal '%v' has excluded permission(s) %s"
)

// Extractor maps an identity to the permissions granted to it. It runs
// on every evaluation and must be cheap and side-effect free; do not
// read from an expensive data source here.
type Extractor[I any, P comparable] func(identity I) []P

// Decision is the outcome of an evaluation. Reasons is empty when
// Allowed is true and lists the failed checks, in evaluation order,
// otherwise.
type Decision struct {
	Allowed bool
	Reasons []string
}

// Reason joins the deny reasons into a single message suitable for
// logging.
func (d Decision) Reason() string {
	return strings.Join(d.Reasons, ". ")
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny: " + d.Reason()
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reasons []string) Decision {
	return Decision{Allowed: false, Reasons: reasons}
}

// Option configures an Engine.
type Option[P comparable] func(*options[P])

type options[P comparable] struct {
	global    P
	hasGlobal bool
}

// WithGlobal sets a permission that satisfies every requirement when
// held by the principal.
func WithGlobal[P comparable](permission P) Option[P] {
	return func(o *options[P]) {
		o.global = permission
		o.hasGlobal = true
	}
}

// Engine evaluates requirements for identities of type I holding
// permissions of type P. An Engine is safe for concurrent use.
type Engine[I any, P comparable] struct {
	extract Extractor[I, P]
	opts    options[P]
}

// New returns an Engine using extract to read an identity's
// permissions. It fails with ErrMissingExtractor when extract is nil.
func New[I any, P comparable](extract Extractor[I, P], opts ...Option[P]) (*Engine[I, P], error) {
	if extract == nil {
		return nil, ErrMissingExtractor
	}
	e := &Engine[I, P]{extract: extract}
	for _, apply := range opts {
		apply(&e.opts)
	}
	return e, nil
}

// Global returns the configured global permission, if any.
func (e *Engine[I, P]) Global() (P, bool) {
	return e.opts.global, e.opts.hasGlobal
}

// Evaluate decides whether identity satisfies req. ctx is handed to
// custom Select functions and is not otherwise consulted. The only
// error returned is a configuration error; a denial is reported through
// the Decision.
func (e *Engine[I, P]) Evaluate(ctx context.Context, identity I, req Requirement[P]) (Decision, error) {
	if e == nil || e.extract == nil {
		return Decision{}, ErrMissingExtractor
	}

	granted := NewSet(e.extract(identity)...)
	if e.opts.hasGlobal && granted.Has(e.opts.global) {
		return allow(), nil
	}

	if req.IsCustom() {
		return evaluateCustom(ctx, identity, req.custom, granted), nil
	}
	return evaluateClauses(identity, req, granted), nil
}

// evaluateClauses runs every configured clause and collects a reason for
// each one that fails, in all, any, none order.
func evaluateClauses[I any, P comparable](identity I, req Requirement[P], granted Set[P]) Decision {
	var reasons []string

	if req.all != nil {
		if missing := req.all.Minus(granted); missing.Len() > 0 {
			reasons = append(reasons, fmt.Sprintf(reasonMissingAll, identity, missing.Join(" and ")))
		}
	}

	if req.any != nil {
		if req.any.Intersect(granted).Len() == 0 {
			reasons = append(reasons, fmt.Sprintf(reasonMissingAny, identity, req.any.Join(" or ")))
		}
	}

	if req.none != nil {
		if excluded := req.none.Intersect(granted); excluded.Len() > 0 {
			reasons = append(reasons, fmt.Sprintf(reasonHasExcluded, identity, excluded.Join(" and ")))
		}
	}

	if len(reasons) > 0 {
		return deny(reasons)
	}
	return allow()
}

// evaluateCustom allows as soon as one category yields a verified
// permission. Categories after the first passing one are not evaluated.
func evaluateCustom[I any, P comparable](ctx context.Context, identity I, checks []groupCheck[P], granted Set[P]) Decision {
	reasons := make([]string, 0, len(checks))
	for _, check := range checks {
		if check.verified(ctx, granted).Len() > 0 {
			return allow()
		}
		reasons = append(reasons, fmt.Sprintf(reasonMissingAll, identity, check.stubText()))
	}
	return deny(reasons)
}
