// Package truthtable implements the corroborating brute-force
// cross-checker: for a query letter, compile the transitive closure of
// rules that could prove it into one conjoined formula, enumerate every
// assignment over its undetermined variables, keep the satisfying ones,
// and reconcile the result against the solver's own verdict.
package truthtable

import (
	"sort"
	"strings"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
)

// Table maps a letter to the ordered list of values it took across every
// retained (satisfying) assignment.
type Table map[byte][]bool

// Compile walks query's ConsequentRules transitively, collecting every
// distinct rule expression reachable (and, for facts already determined, a
// literal standing for their fixed value), and conjoins the lot with AND.
// An empty collection (the letter is never concluded and never fixed)
// compiles to the bare variable itself, and hadSource is reported false -
// the brute-force check has no rule material to corroborate the solver
// with, so the caller should take the solver's own verdict as final
// instead of filtering it through a table that would otherwise just read
// back "true" for an entirely unconstrained variable.
func Compile(g *graph.Graph, query domain.Letter) (e *expr.Expr, hadSource bool) {
	seen := make(map[string]bool)
	var collected []*expr.Expr

	var collect func(l domain.Letter)
	collect = func(l domain.Letter) {
		f, ok := g.Facts[l]
		if !ok {
			return
		}

		if f.State == domain.True || f.State == domain.False {
			var lit *expr.Expr
			if f.State == domain.True {
				lit = expr.Var(byte(l))
			} else {
				lit = expr.Not(expr.Var(byte(l)))
			}
			key := expr.CanonicalString(lit)
			if !seen[key] {
				seen[key] = true
				collected = append(collected, lit)
			}
			return
		}

		for _, ruleID := range f.ConsequentRules {
			r, ok := g.Rules[ruleID]
			if !ok || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			collected = append(collected, r.Expr)

			for _, antecedent := range r.AntecedentFacts {
				collect(antecedent)
			}
		}
	}

	collect(query)

	if len(collected) == 0 {
		g.Tracef("empty ruleset when compiling %s", query)
		return expr.Var(byte(query)), false
	}

	mega := collected[0]
	for _, c := range collected[1:] {
		mega = expr.And(mega, c)
	}
	g.Tracef("compiled logic expression for %s using %d rules", query, len(collected))
	return mega, true
}

// Enumerate partitions e's variables into known (determined in g) and
// undetermined, enumerates all 2^k assignments over the undetermined ones
// combined with the fixed known values, and records, per letter, the
// values it took across every assignment under which e evaluated True.
func Enumerate(g *graph.Graph, e *expr.Expr) Table {
	vars := expr.AllVariables(e)

	known := expr.Assignment{}
	var undetermined []byte
	for _, v := range vars {
		f, ok := g.Facts[domain.Letter(v)]
		if !ok {
			undetermined = append(undetermined, v)
			continue
		}
		switch f.State {
		case domain.True:
			known[v] = true
		case domain.False:
			known[v] = false
		default:
			undetermined = append(undetermined, v)
		}
	}

	table := Table{}
	n := uint(len(undetermined))
	total := uint(1) << n

	for mask := uint(0); mask < total; mask++ {
		assignment := make(expr.Assignment, len(known)+len(undetermined))
		for k, v := range known {
			assignment[k] = v
		}
		for i, v := range undetermined {
			assignment[v] = (mask>>uint(i))&1 == 1
		}

		if expr.Evaluate(e, assignment) {
			for letter, v := range assignment {
				table[letter] = append(table[letter], v)
			}
		}
	}

	return table
}

// DetermineFinalState reconciles the solver's own verdict with the
// compiled truth table for letter, per the reconciliation policy: a table
// compiled from no rule material at all (hadSource false) is uninformative
// and the solver's verdict stands unchecked; an empty table signals an
// internal contradiction in the rule set and also defers to the solver;
// otherwise the table's own verdict is all-True, all-False or mixed
// (Undetermined); under the closed-world assumption, a mixed verdict for a
// letter that isn't itself the ambiguous side of an Or/Xor conclusion is
// upgraded to False - mutually-dependent letters in an unbroken cycle
// commonly vary together across every retained row, so requiring this
// letter to be the *sole* one that varies would leave a cycle with no
// external grounding stuck at Undetermined, when closed-world philosophy
// says unproven is false regardless of how many letters share the same
// fate; and finally the solver and table verdicts are reconciled, with the
// solver winning disagreements and the table resolving the solver's own
// Undetermined.
func DetermineFinalState(g *graph.Graph, solverResult domain.TriState, hadSource bool, table Table, letter domain.Letter) domain.TriState {
	if !hadSource {
		g.Tracef("%s: no rule material to compile, trusting the solver", letter)
		return solverResult
	}

	values, ok := table[byte(letter)]
	if !ok || len(values) == 0 {
		g.Tracef("%s: truth table is empty - no combination of variables satisfies all rules; there is a contradiction in the rule set.", letter)
		return solverResult
	}

	allTrue, allFalse := true, true
	for _, v := range values {
		if !v {
			allTrue = false
		} else {
			allFalse = false
		}
	}

	tableResult := domain.Undetermined
	switch {
	case allTrue:
		tableResult = domain.True
	case allFalse:
		tableResult = domain.False
	}

	if tableResult == domain.Undetermined && g.ClosedWorld && !isFactInAmbiguousConclusion(g, letter) {
		g.Tracef("%s: determined False by closed-world assumption (no assignment forces it True)", letter)
		tableResult = domain.False
	}

	if solverResult == tableResult {
		return solverResult
	}
	if solverResult == domain.Undetermined {
		g.Tracef("%s: deferring to truth table evaluation", letter)
		return tableResult
	}
	g.Tracef("%s: solver and truth table disagree, deferring to solver", letter)
	return solverResult
}

// isFactInAmbiguousConclusion reports whether letter is concluded by a
// rule whose RHS is an Or or Xor - a conclusion that, even forced True,
// doesn't uniquely pin down this particular letter. Gates the
// closed-world upgrade above (see the second solver Open Question in
// DESIGN.md).
func isFactInAmbiguousConclusion(g *graph.Graph, letter domain.Letter) bool {
	f, ok := g.Facts[letter]
	if !ok {
		return false
	}
	for _, ruleID := range f.ConsequentRules {
		r, ok := g.Rules[ruleID]
		if !ok || r.Expr.Right == nil {
			continue
		}
		if r.Expr.Right.Kind == expr.KindOr || r.Expr.Right.Kind == expr.KindXor {
			return true
		}
	}
	return false
}

// Signature returns a stable fingerprint of g's rule set, suitable as part
// of a Cache key: the rule set's canonical identifiers, sorted and joined.
func Signature(g *graph.Graph) string {
	ids := make([]string, 0, len(g.Rules))
	for id := range g.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "\n")
}
