// Package session wires the graph, solver and truth-table cross-checker
// together into the entry point external callers use: SolveEverything runs
// every query, producing a conclusion line and an explanation trace, and
// reports whether any query failed.
package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
	"github.com/znichola/expert-system/internal/solver"
	"github.com/znichola/expert-system/internal/truthtable"
)

// Session runs queries against a single graph.Graph.
type Session struct {
	g      *graph.Graph
	s      *solver.Solver
	cache  *truthtable.Cache
	errors *multierror.Error
}

// New returns a Session over g. cache may be nil, in which case every
// query is compiled fresh - the right choice for a one-shot CLI run; the
// HTTP front-end supplies a shared Cache so repeated evaluations of the
// same submitted ruleset skip recompilation.
func New(g *graph.Graph, cache *truthtable.Cache) *Session {
	return &Session{g: g, s: solver.New(g), cache: cache}
}

// SolveEverything answers every query in order, returning the conclusion
// text, the explanation text (populated only if the graph's Explain flag
// was set), and whether any query failed.
func (sess *Session) SolveEverything(queries []*domain.Query) (conclusion, explanation string, hadError bool) {
	// Pre-compile every query's expression before any query runs, so
	// compilation always sees the facts as they stood at the start of
	// the session - never partway through another query's side effects.
	compiled := make(map[domain.Letter]compiledQuery, len(queries))
	for _, q := range queries {
		e, hadSource := sess.compile(q.Letter)
		compiled[q.Letter] = compiledQuery{expr: e, hadSource: hadSource}
	}

	var conclusionBuf, explanationBuf strings.Builder

	for _, q := range queries {
		res, err := sess.solveOne(q, compiled[q.Letter], &explanationBuf)
		if err != nil {
			fmt.Fprintf(&conclusionBuf, "%s Error: %s\n", q.Letter, err)
			sess.errors = multierror.Append(sess.errors, fmt.Errorf("query %s: %w", q.Letter, err))
			continue
		}
		fmt.Fprintf(&conclusionBuf, "%s is %s\n", q.Letter, res)
	}

	if sess.g.Explain {
		explanationBuf.WriteString("OPERATIONS\n")
		explanationBuf.WriteString(sess.g.Explanation())
	}

	return conclusionBuf.String(), explanationBuf.String(), sess.errors != nil
}

// Errors returns the aggregated per-query failures of the last
// SolveEverything call, or nil if none failed.
func (sess *Session) Errors() error {
	if sess.errors == nil {
		return nil
	}
	return sess.errors
}

// compiledQuery bundles a query's precompiled cross-check expression with
// whether any rule material actually contributed to it.
type compiledQuery struct {
	expr      *expr.Expr
	hadSource bool
}

func (sess *Session) compile(letter domain.Letter) (*expr.Expr, bool) {
	if sess.cache != nil {
		return sess.cache.CompileCached(sess.g, truthtable.Signature(sess.g), letter)
	}
	return truthtable.Compile(sess.g, letter)
}

// solveOne runs the solver and the truth table for a single query,
// reconciles them, and, when the graph's Explain flag is set, appends the
// per-query explanation section. Any
// panic surfaced by the solver (an internal-invariant violation) is turned
// into an error here so the caller's per-query recovery stays uniform.
func (sess *Session) solveOne(q *domain.Query, compiled compiledQuery, explanationBuf *strings.Builder) (res domain.TriState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	solverResult, err := sess.s.SolveForFact(q.Letter)
	if err != nil {
		return domain.Undetermined, err
	}

	table := truthtable.Enumerate(sess.g, compiled.expr)
	res = truthtable.DetermineFinalState(sess.g, solverResult, compiled.hadSource, table, q.Letter)

	if sess.g.Explain {
		fmt.Fprintf(explanationBuf, "%s ⇔ %s\n", q.Letter, expr.FormalString(compiled.expr))
		writeTable(explanationBuf, table)
	}

	return res, nil
}

// writeTable renders a truth table's retained assignments as one row per
// satisfying assignment, letters sorted for determinism.
func writeTable(buf *strings.Builder, table truthtable.Table) {
	if len(table) == 0 {
		buf.WriteString("(no satisfying assignment)\n")
		return
	}

	letters := make([]byte, 0, len(table))
	for l := range table {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	for _, l := range letters {
		buf.WriteByte(l)
		buf.WriteString(": ")
	}
	buf.WriteByte('\n')

	rows := len(table[letters[0]])
	for row := 0; row < rows; row++ {
		for _, l := range letters {
			if table[l][row] {
				buf.WriteString("T ")
			} else {
				buf.WriteString("F ")
			}
		}
		buf.WriteByte('\n')
	}
}
