package truthtable

import (
	"testing"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
)

func buildGraph(t *testing.T, facts []*domain.Fact, rules []*domain.Rule, queries []domain.Letter) *graph.Graph {
	t.Helper()
	var qs []*domain.Query
	for _, l := range queries {
		qs = append(qs, &domain.Query{Letter: l})
	}
	g, err := graph.Build(facts, rules, qs)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	return g
}

func TestCompileUnconstrainedLetterReportsNoSource(t *testing.T) {
	g := buildGraph(t, nil, nil, []domain.Letter{'F'})
	e, hadSource := Compile(g, 'F')
	if hadSource {
		t.Fatal("expected hadSource to be false for an unconstrained letter")
	}
	if expr.CanonicalString(e) != "F" {
		t.Errorf("got %q", expr.CanonicalString(e))
	}
}

func TestCompileCollectsTransitiveRules(t *testing.T) {
	g := buildGraph(t,
		[]*domain.Fact{domain.NewFact('A', domain.True, 0, "")},
		[]*domain.Rule{
			domain.NewRule(expr.Imply(expr.Var('A'), expr.Var('B')), 1, ""),
			domain.NewRule(expr.Imply(expr.Var('B'), expr.Var('C')), 2, ""),
		},
		[]domain.Letter{'C'},
	)
	e, hadSource := Compile(g, 'C')
	if !hadSource {
		t.Fatal("expected hadSource to be true")
	}
	got := expr.CanonicalString(e)
	if got != "(((B=>C)+(A=>B))+A)" {
		t.Errorf("got %q", got)
	}
}

func TestEnumeratePartitionsKnownAndUndetermined(t *testing.T) {
	g := buildGraph(t,
		[]*domain.Fact{domain.NewFact('A', domain.True, 0, "")},
		nil, []domain.Letter{'A', 'B'},
	)
	table := Enumerate(g, expr.And(expr.Var('A'), expr.Var('B')))
	if vals, ok := table['B']; !ok || len(vals) != 1 || vals[0] != true {
		t.Errorf("expected the only retained row to have B=true, got %v", table['B'])
	}
	for _, v := range table['A'] {
		if !v {
			t.Errorf("expected A to stay fixed True across every retained row, got %v", table['A'])
		}
	}
}

func TestDetermineFinalStateSkipsTableWithoutSource(t *testing.T) {
	g := buildGraph(t, nil, nil, []domain.Letter{'F'})
	got := DetermineFinalState(g, domain.Undetermined, false, Table{}, 'F')
	if got != domain.Undetermined {
		t.Errorf("got %s, want Undetermined (solver's verdict trusted outright)", got)
	}
}

func TestDetermineFinalStateEmptyTableDefersToSolver(t *testing.T) {
	g := buildGraph(t, nil, nil, []domain.Letter{'A'})
	got := DetermineFinalState(g, domain.True, true, Table{}, 'A')
	if got != domain.True {
		t.Errorf("got %s, want True (empty table defers to solver)", got)
	}
}

func TestDetermineFinalStateTableResolvesSolverUndetermined(t *testing.T) {
	g := buildGraph(t, nil, nil, []domain.Letter{'A'})
	table := Table{'A': {true, true}}
	got := DetermineFinalState(g, domain.Undetermined, true, table, 'A')
	if got != domain.True {
		t.Errorf("got %s, want True", got)
	}
}

func TestDetermineFinalStateSolverWinsDisagreement(t *testing.T) {
	g := buildGraph(t, nil, nil, []domain.Letter{'A'})
	table := Table{'A': {false, false}}
	got := DetermineFinalState(g, domain.True, true, table, 'A')
	if got != domain.True {
		t.Errorf("got %s, want True (solver wins outright disagreements)", got)
	}
}

func TestDetermineFinalStateClosedWorldUpgradesMixedVerdict(t *testing.T) {
	g := buildGraph(t,
		[]*domain.Fact{},
		[]*domain.Rule{domain.NewRule(expr.Imply(expr.Var('A'), expr.Var('B')), 1, "")},
		[]domain.Letter{'A', 'B'},
	)
	g.ClosedWorld = true
	table := Table{'A': {true, false}}
	got := DetermineFinalState(g, domain.Undetermined, true, table, 'A')
	if got != domain.False {
		t.Errorf("got %s, want False (closed-world upgrade of a mixed verdict)", got)
	}
}

func TestDetermineFinalStateAmbiguousConclusionGuardsUpgrade(t *testing.T) {
	g := buildGraph(t, nil,
		[]*domain.Rule{domain.NewRule(expr.Imply(expr.Var('A'), expr.Or(expr.Var('B'), expr.Var('C'))), 1, "")},
		[]domain.Letter{'A', 'B', 'C'},
	)
	g.ClosedWorld = true
	table := Table{'B': {true, false}}
	got := DetermineFinalState(g, domain.Undetermined, true, table, 'B')
	if got != domain.Undetermined {
		t.Errorf("got %s, want Undetermined (ambiguous Or conclusion guards the upgrade)", got)
	}
}

func TestSignatureIsSortedAndStable(t *testing.T) {
	g := buildGraph(t, nil,
		[]*domain.Rule{
			domain.NewRule(expr.Imply(expr.Var('B'), expr.Var('C')), 2, ""),
			domain.NewRule(expr.Imply(expr.Var('A'), expr.Var('B')), 1, ""),
		},
		[]domain.Letter{'C'},
	)
	got := Signature(g)
	want := "(A=>B)\n(B=>C)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
