// Package domain holds the value objects the parser hands to the graph
// builder: propositions, tri-state truth values, rules, facts and queries.
package domain

import (
	"fmt"

	"github.com/znichola/expert-system/internal/expr"
)

// Letter is a single proposition identifier, A-Z.
type Letter byte

func (l Letter) String() string { return string(rune(l)) }

// IsValid reports whether l is an uppercase ASCII letter.
func (l Letter) IsValid() bool { return l >= 'A' && l <= 'Z' }

// TriState is the three-valued truth an unresolved proposition carries.
type TriState int

const (
	Undetermined TriState = iota
	True
	False
)

func (s TriState) String() string {
	switch s {
	case True:
		return "True"
	case False:
		return "False"
	case Undetermined:
		return "Undetermined"
	default:
		return "Invalid"
	}
}

// Not is the Kleene negation of s (Undetermined maps to itself).
func (s TriState) Not() TriState {
	switch s {
	case True:
		return False
	case False:
		return True
	default:
		return Undetermined
	}
}

// Rule is a propositional formula whose root is Imply or Iff, together
// with its provenance and the sorted letter lists on each side - populated
// once the rule is installed into a graph.
type Rule struct {
	ID              string
	Expr            *expr.Expr
	Line            int
	Comment         string
	AntecedentFacts []Letter // sorted, de-duplicated letters on the LHS
	ConsequentFacts []Letter // sorted, de-duplicated letters on the RHS
}

// NewRule builds a Rule from a parsed expression, deriving its identity
// from the expression's canonical printed form.
func NewRule(e *expr.Expr, line int, comment string) *Rule {
	return &Rule{
		ID:      expr.CanonicalString(e),
		Expr:    e,
		Line:    line,
		Comment: comment,
	}
}

func (r *Rule) String() string {
	return fmt.Sprintf("Rule{%s, line=%d}", r.ID, r.Line)
}

// Fact is a proposition letter together with its tri-state value and
// provenance: the rules that consume it (AntecedentRules) and the rules
// that could produce it (ConsequentRules).
type Fact struct {
	Letter          Letter
	State           TriState
	Line            int
	Comment         string
	AntecedentRules []string
	ConsequentRules []string
}

// NewFact builds a base fact (one given a truth value directly, as opposed
// to one only discovered via rule installation).
func NewFact(l Letter, state TriState, line int, comment string) *Fact {
	return &Fact{Letter: l, State: state, Line: line, Comment: comment}
}

func (f *Fact) String() string {
	return fmt.Sprintf("Fact{%s=%s, line=%d}", f.Letter, f.State, f.Line)
}

// Query asks for the tri-state value of a letter.
type Query struct {
	Letter  Letter
	Line    int
	Comment string
}
