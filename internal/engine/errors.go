package engine

import "errors"

// Configuration errors. They indicate a setup bug and are returned as
// early as possible: at construction or registration time, and at
// evaluation time only for a zero-value Engine.
var (
	ErrMissingExtractor = errors.New("permission extractor must be defined, ex: engine.New(func(s Session) []Permission { return s.Permissions })")
	ErrMissingVerifier  = errors.New("a custom verifier must be provided for each category")
	ErrMissingCategory  = errors.New("category must define a membership function")
	ErrEmptyGroup       = errors.New("custom requirement must register at least one category")
)
