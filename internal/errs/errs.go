// Package errs defines the sentinel error kinds shared across the
// lexer/parser/graph/solver/truthtable layers, so callers can classify a
// failure with errors.Is regardless of which layer wrapped it.
package errs

import "errors"

var (
	// ErrParse covers lexer/parser failures: bad characters, malformed
	// '='/'?' placement, leftover tokens, missing facts/queries sections.
	ErrParse = errors.New("parse error")

	// ErrInvalidRule marks a rule whose root isn't Imply/Iff or whose RHS
	// isn't a simple expression.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrDuplicateRule marks re-insertion of a rule with an identical
	// canonical identifier.
	ErrDuplicateRule = errors.New("duplicate rule")

	// ErrContradictingFacts marks a fact merge where one side is True and
	// the other False.
	ErrContradictingFacts = errors.New("contradicting facts")

	// ErrFactNotFound marks a variable referenced by an expression that the
	// graph has no entry for - an internal invariant violation.
	ErrFactNotFound = errors.New("fact not found")

	// ErrContradiction marks a propagator or Iff-evaluation conflict
	// discovered while solving a single query.
	ErrContradiction = errors.New("contradiction")

	// ErrUnsupported marks propagate being asked to push a state through a
	// construct it does not handle (Imply/Iff should never reach it).
	ErrUnsupported = errors.New("unsupported construct")
)
