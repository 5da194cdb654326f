// Package graph implements the inference graph: a bipartite index mapping
// every proposition letter to the rules that mention it (split into
// antecedent and consequent occurrences) and every rule to the letters on
// each side. It owns the mutable fact state, the recursion guard used to
// break solver cycles, and the append-only explanation buffer.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/errs"
	"github.com/znichola/expert-system/internal/expr"
)

// WorldAssumption selects how an unprovable proposition is treated.
type WorldAssumption int

const (
	// OpenWorld leaves unprovable propositions Undetermined.
	OpenWorld WorldAssumption = iota
	// ClosedWorld resolves an unprovable proposition (no rule can ever
	// conclude it) to False.
	ClosedWorld
)

// Graph is the session's sole mutable piece of state: facts keyed by
// letter, rules keyed by canonical identifier, the solving stack used to
// detect cycles, and the explanation trace.
type Graph struct {
	Facts map[domain.Letter]*domain.Fact
	Rules map[string]*domain.Rule

	Explain     bool
	ClosedWorld bool

	solvingStack map[domain.Letter]struct{}
	explanation  strings.Builder
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Facts:        make(map[domain.Letter]*domain.Fact),
		Rules:        make(map[string]*domain.Rule),
		solvingStack: make(map[domain.Letter]struct{}),
	}
}

// Build installs every fact and rule into a fresh Graph, ensures every
// query letter has a (possibly Undetermined) fact entry, and returns the
// assembled graph. It fails fast with ErrContradictingFacts, ErrDuplicateRule
// or ErrInvalidRule.
func Build(facts []*domain.Fact, rules []*domain.Rule, queries []*domain.Query) (*Graph, error) {
	g := New()

	for _, f := range facts {
		if err := g.AddFact(f); err != nil {
			return nil, err
		}
	}
	for _, q := range queries {
		if err := g.AddFact(domain.NewFact(q.Letter, domain.Undetermined, q.Line, "")); err != nil {
			return nil, err
		}
	}
	for _, r := range rules {
		if err := g.AddRule(r); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Tracef appends a formatted line to the explanation buffer when Explain
// is set; a no-op otherwise.
func (g *Graph) Tracef(format string, args ...any) {
	if !g.Explain {
		return
	}
	fmt.Fprintf(&g.explanation, format, args...)
	g.explanation.WriteByte('\n')
}

// Explanation returns everything written to the trace so far.
func (g *Graph) Explanation() string { return g.explanation.String() }

// AddFact inserts f, or merges it with an existing fact for the same
// letter: identical states are kept as-is, Undetermined is promoted to the
// other state, and True/False merging with its opposite is
// ErrContradictingFacts. Rule-link lists are unioned on merge.
func (g *Graph) AddFact(f *domain.Fact) error {
	existing, ok := g.Facts[f.Letter]
	if !ok {
		cp := *f
		g.Facts[f.Letter] = &cp
		return nil
	}

	switch {
	case existing.State == f.State:
		// agree, nothing to promote
	case existing.State == domain.Undetermined:
		existing.State = f.State
	case f.State == domain.Undetermined:
		// existing already determined, nothing to do
	default:
		return fmt.Errorf("%w: %s is both True and False", errs.ErrContradictingFacts, f.Letter)
	}

	existing.AntecedentRules = unionStrings(existing.AntecedentRules, f.AntecedentRules)
	existing.ConsequentRules = unionStrings(existing.ConsequentRules, f.ConsequentRules)
	return nil
}

// AddRule validates and installs r. An Iff rule is decomposed into its
// forward and backward implications, each installed in turn; installing
// A<=>B therefore has the same effect on the graph as installing A=>B and
// B=>A separately.
func (g *Graph) AddRule(r *domain.Rule) error {
	if _, dup := g.Rules[r.ID]; dup {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateRule, r.ID)
	}
	if !expr.IsValidRule(r.Expr) {
		return fmt.Errorf("%w: %s", errs.ErrInvalidRule, r.ID)
	}

	if r.Expr.Kind == expr.KindIff {
		forward := domain.NewRule(expr.Imply(r.Expr.Left, r.Expr.Right), r.Line, appendComment(r.Comment, "(forward)"))
		backward := domain.NewRule(expr.Imply(r.Expr.Right, r.Expr.Left), r.Line, appendComment(r.Comment, "(backward)"))
		if err := g.installImplication(forward); err != nil {
			return err
		}
		return g.installImplication(backward)
	}

	return g.installImplication(r)
}

func appendComment(comment, suffix string) string {
	if comment == "" {
		return suffix
	}
	return comment + " " + suffix
}

// installImplication wires an Imply-rooted rule's LHS letters as
// antecedents and RHS letters as consequents, ensuring a fact exists for
// each, then inserts the rule.
func (g *Graph) installImplication(r *domain.Rule) error {
	if _, dup := g.Rules[r.ID]; dup {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateRule, r.ID)
	}

	consequentLetters := expr.AllVariables(r.Expr.Right)
	for _, v := range consequentLetters {
		l := domain.Letter(v)
		if err := g.AddFact(&domain.Fact{Letter: l, State: domain.Undetermined, ConsequentRules: []string{r.ID}}); err != nil {
			return err
		}
	}
	r.ConsequentFacts = sortedLetters(consequentLetters)

	antecedentLetters := expr.AllVariables(r.Expr.Left)
	for _, v := range antecedentLetters {
		l := domain.Letter(v)
		if err := g.AddFact(&domain.Fact{Letter: l, State: domain.Undetermined, AntecedentRules: []string{r.ID}}); err != nil {
			return err
		}
	}
	r.AntecedentFacts = sortedLetters(antecedentLetters)

	g.Rules[r.ID] = r
	return nil
}

func sortedLetters(bytes []byte) []domain.Letter {
	out := make([]domain.Letter, len(bytes))
	for i, b := range bytes {
		out[i] = domain.Letter(b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SetState writes state into the fact for letter l, enforcing the
// monotone-transition invariant: Undetermined may become True or False,
// an identical restate is a no-op, and setting a determined fact to its
// opposite is ErrContradiction. Setting a fact to Undetermined is always a
// no-op (there is no "forget" operation).
func (g *Graph) SetState(l domain.Letter, state domain.TriState) error {
	f, ok := g.Facts[l]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrFactNotFound, l)
	}
	if state == domain.Undetermined {
		return nil
	}
	switch f.State {
	case domain.Undetermined:
		f.State = state
	case state:
		// already agrees
	default:
		return fmt.Errorf("%w: can't set %s to %s, it's already %s", errs.ErrContradiction, l, state, f.State)
	}
	return nil
}

// EnterSolving pushes letter onto the solving stack, reporting false (and
// tracing) if it is already present - the cycle short-circuit.
func (g *Graph) EnterSolving(l domain.Letter) bool {
	if _, cyclic := g.solvingStack[l]; cyclic {
		g.Tracef("cycle detected for fact %s, deferring to other rules", l)
		return false
	}
	g.solvingStack[l] = struct{}{}
	return true
}

// ExitSolving pops letter from the solving stack.
func (g *Graph) ExitSolving(l domain.Letter) { delete(g.solvingStack, l) }

// ApplyWorldAssumption runs the world-assumption pass: Open is a no-op;
// Closed resolves every still-Undetermined fact with no consequent rules to
// False.
func (g *Graph) ApplyWorldAssumption(mode WorldAssumption) {
	if mode == OpenWorld {
		g.Tracef("applying open world assumption: facts are Undetermined by default")
		return
	}
	for letter, f := range g.Facts {
		if f.State == domain.Undetermined && len(f.ConsequentRules) == 0 {
			g.Tracef("applying closed world assumption: %s = False (no rules can prove it)", letter)
			f.State = domain.False
		}
	}
	g.ClosedWorld = true
}

// ResolveUnknown reports the tri-state a letter absent from the graph
// resolves to under the current world assumption.
func (g *Graph) ResolveUnknown(l domain.Letter) domain.TriState {
	if g.ClosedWorld {
		g.Tracef("applying closed world assumption: %s = False", l)
		return domain.False
	}
	g.Tracef("applying open world assumption: %s = Undetermined", l)
	return domain.Undetermined
}
