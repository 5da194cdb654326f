// Package solver implements the backward-chaining reasoner: three mutually
// recursive operations (solve-for-fact, solve-rule, evaluate-expression)
// over a graph.Graph, plus the propagator that writes an implication's
// consequent truth value back into its sub-expressions' variables.
package solver

import (
	"fmt"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/errs"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
)

// Solver runs the backward chainer against a single graph.Graph.
type Solver struct {
	g *graph.Graph
}

// New wraps g for solving. The caller retains ownership of g.
func New(g *graph.Graph) *Solver { return &Solver{g: g} }

// SolveForFact determines the tri-state value of letter, recursing through
// every rule that could conclude it. The graph's solving stack breaks
// cycles: re-entering a letter already being expanded returns its current
// value instead of recursing again.
func (s *Solver) SolveForFact(letter domain.Letter) (domain.TriState, error) {
	f, ok := s.g.Facts[letter]
	if !ok {
		return s.g.ResolveUnknown(letter), nil
	}

	if !s.g.EnterSolving(letter) {
		return f.State, nil
	}
	defer s.g.ExitSolving(letter)

	for _, ruleID := range f.ConsequentRules {
		s.g.Tracef("solveForFact %s: solving %s", letter, ruleID)
		if _, err := s.SolveRule(ruleID); err != nil {
			return domain.Undetermined, err
		}
	}

	return f.State, nil
}

// SolveRule evaluates the rule's formula, which as a side effect may
// propagate a conclusion into still-undetermined facts.
func (s *Solver) SolveRule(ruleID string) (domain.TriState, error) {
	r, ok := s.g.Rules[ruleID]
	if !ok {
		return domain.Undetermined, fmt.Errorf("%w: rule %s", errs.ErrFactNotFound, ruleID)
	}
	res, err := s.EvaluateExpression(r.Expr)
	if err != nil {
		return domain.Undetermined, err
	}
	s.g.Tracef("solveRule %s: result %s", ruleID, res)
	return res, nil
}

// EvaluateExpression computes e's tri-state value under Kleene semantics,
// recursing into SolveForFact for any variable still Undetermined, and
// invoking propagate as a side effect of a True Imply antecedent or a
// partially-determined Iff.
func (s *Solver) EvaluateExpression(e *expr.Expr) (domain.TriState, error) {
	switch e.Kind {
	case expr.KindVar:
		letter := domain.Letter(e.Var)
		f, ok := s.g.Facts[letter]
		if !ok {
			return domain.Undetermined, fmt.Errorf("%w: %s", errs.ErrFactNotFound, letter)
		}
		if f.State != domain.Undetermined {
			return f.State, nil
		}
		return s.SolveForFact(letter)

	case expr.KindNot:
		v, err := s.EvaluateExpression(e.Left)
		if err != nil {
			return domain.Undetermined, err
		}
		return v.Not(), nil

	case expr.KindAnd:
		lhs, err := s.EvaluateExpression(e.Left)
		if err != nil {
			return domain.Undetermined, err
		}
		rhs, err := s.EvaluateExpression(e.Right)
		if err != nil {
			return domain.Undetermined, err
		}
		if lhs == domain.False || rhs == domain.False {
			return domain.False, nil
		}
		if lhs == domain.True && rhs == domain.True {
			return domain.True, nil
		}
		return domain.Undetermined, nil

	case expr.KindOr:
		lhs, err := s.EvaluateExpression(e.Left)
		if err != nil {
			return domain.Undetermined, err
		}
		rhs, err := s.EvaluateExpression(e.Right)
		if err != nil {
			return domain.Undetermined, err
		}
		if lhs == domain.True || rhs == domain.True {
			return domain.True, nil
		}
		if lhs == domain.False && rhs == domain.False {
			return domain.False, nil
		}
		return domain.Undetermined, nil

	case expr.KindXor:
		lhs, err := s.EvaluateExpression(e.Left)
		if err != nil {
			return domain.Undetermined, err
		}
		rhs, err := s.EvaluateExpression(e.Right)
		if err != nil {
			return domain.Undetermined, err
		}
		if lhs == domain.Undetermined || rhs == domain.Undetermined {
			return domain.Undetermined, nil
		}
		if lhs != rhs {
			return domain.True, nil
		}
		return domain.False, nil

	case expr.KindImply:
		return s.evaluateImply(e)

	case expr.KindIff:
		return s.evaluateIff(e)

	default:
		return domain.Undetermined, fmt.Errorf("%w: expr kind %v", errs.ErrUnsupported, e.Kind)
	}
}

// evaluateImply implements lhs => rhs. A True antecedent forces the
// consequent True via propagate; a False antecedent is vacuously True; an
// Undetermined antecedent returns Undetermined directly - the simpler of
// the two forms the reference implementation exhibits across revisions
// (see the solver Open Question in DESIGN.md).
func (s *Solver) evaluateImply(e *expr.Expr) (domain.TriState, error) {
	lhs, err := s.EvaluateExpression(e.Left)
	if err != nil {
		return domain.Undetermined, err
	}
	s.g.Tracef("imply: lhs(%s) = %s", expr.CanonicalString(e.Left), lhs)

	switch lhs {
	case domain.True:
		s.g.Tracef("setting %s to True (antecedent is True)", expr.CanonicalString(e.Right))
		if err := s.propagate(e.Right, domain.True); err != nil {
			return domain.Undetermined, err
		}
		return domain.True, nil
	case domain.False:
		return domain.True, nil
	default:
		return domain.Undetermined, nil
	}
}

// evaluateIff implements lhs <=> rhs. If both sides already agree the
// result is True when they are determined (both True or both False), or
// stays Undetermined when both sides are Undetermined - no propagation
// fires in that case (see the
// third solver Open Question in DESIGN.md). If exactly one side is
// Undetermined, propagate pushes the other's value into it. If both sides
// are determined and disagree, it's a Contradiction.
func (s *Solver) evaluateIff(e *expr.Expr) (domain.TriState, error) {
	lhs, err := s.EvaluateExpression(e.Left)
	if err != nil {
		return domain.Undetermined, err
	}
	rhs, err := s.EvaluateExpression(e.Right)
	if err != nil {
		return domain.Undetermined, err
	}

	if lhs == rhs {
		if lhs == domain.Undetermined {
			return domain.Undetermined, nil
		}
		return domain.True, nil
	}

	if lhs == domain.Undetermined {
		if err := s.propagate(e.Left, rhs); err != nil {
			return domain.Undetermined, err
		}
		return domain.True, nil
	}
	if rhs == domain.Undetermined {
		if err := s.propagate(e.Right, lhs); err != nil {
			return domain.Undetermined, err
		}
		return domain.True, nil
	}

	return domain.Undetermined, fmt.Errorf("%w: %s lhs=%s must equal rhs=%s", errs.ErrContradiction, expr.CanonicalString(e), lhs, rhs)
}

// propagate writes target into the facts of expression e consistent with
// requiring e to hold with that value. It is a distinct operation from
// EvaluateExpression, invoked only as Imply/Iff's side effect.
func (s *Solver) propagate(e *expr.Expr, target domain.TriState) error {
	switch e.Kind {
	case expr.KindVar:
		letter := domain.Letter(e.Var)
		if err := s.g.SetState(letter, target); err != nil {
			return err
		}
		return nil

	case expr.KindNot:
		return s.propagate(e.Left, target.Not())

	case expr.KindAnd:
		if target == domain.True {
			if err := s.propagate(e.Left, domain.True); err != nil {
				return err
			}
			return s.propagate(e.Right, domain.True)
		}
		if target == domain.False {
			if err := s.propagate(e.Left, domain.Undetermined); err != nil {
				return err
			}
			return s.propagate(e.Right, domain.Undetermined)
		}
		return nil

	case expr.KindOr:
		if target == domain.False {
			if err := s.propagate(e.Left, domain.False); err != nil {
				return err
			}
			return s.propagate(e.Right, domain.False)
		}
		if target == domain.True {
			lhs, err := s.EvaluateExpression(e.Left)
			if err != nil {
				return err
			}
			rhs, err := s.EvaluateExpression(e.Right)
			if err != nil {
				return err
			}
			switch {
			case lhs == domain.False:
				return s.propagate(e.Right, domain.True)
			case rhs == domain.False:
				return s.propagate(e.Left, domain.True)
			default:
				if err := s.propagate(e.Left, domain.Undetermined); err != nil {
					return err
				}
				return s.propagate(e.Right, domain.Undetermined)
			}
		}
		return nil

	case expr.KindXor:
		if target == domain.Undetermined {
			return nil
		}
		lhs, err := s.EvaluateExpression(e.Left)
		if err != nil {
			return err
		}
		rhs, err := s.EvaluateExpression(e.Right)
		if err != nil {
			return err
		}
		if lhs == domain.Undetermined && rhs == domain.Undetermined {
			return nil
		}
		if target == domain.True {
			switch {
			case lhs == domain.True:
				return s.propagate(e.Right, domain.False)
			case rhs == domain.True:
				return s.propagate(e.Left, domain.False)
			case lhs == domain.False:
				return s.propagate(e.Right, domain.True)
			case rhs == domain.False:
				return s.propagate(e.Left, domain.True)
			}
			return nil
		}
		// target == domain.False: both operands must end up equal.
		switch {
		case lhs == domain.True:
			return s.propagate(e.Right, domain.True)
		case rhs == domain.True:
			return s.propagate(e.Left, domain.True)
		case lhs == domain.False:
			return s.propagate(e.Right, domain.False)
		case rhs == domain.False:
			return s.propagate(e.Left, domain.False)
		}
		return nil

	default:
		return fmt.Errorf("%w: propagate on %v", errs.ErrUnsupported, e.Kind)
	}
}
