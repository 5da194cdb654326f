package session

import (
	"strings"
	"testing"

	"github.com/znichola/expert-system/internal/graph"
	"github.com/znichola/expert-system/internal/lexer"
	"github.com/znichola/expert-system/internal/parser"
)

// run parses input, builds a closed-world graph (unless openWorld is set)
// and returns the conclusion text from SolveEverything.
func run(t *testing.T, input string, openWorld bool) (string, bool) {
	t.Helper()

	tokens, err := lexer.Lex(input)
	if err != nil {
		t.Fatalf("Lex(%q): %v", input, err)
	}
	rules, facts, queries, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	g, err := graph.Build(facts, rules, queries)
	if err != nil {
		t.Fatalf("Build(%q): %v", input, err)
	}

	mode := graph.ClosedWorld
	if openWorld {
		mode = graph.OpenWorld
	}
	g.ApplyWorldAssumption(mode)

	sess := New(g, nil)
	conclusion, _, hadError := sess.SolveEverything(queries)
	return conclusion, hadError
}

func TestScenarioSimpleImplication(t *testing.T) {
	conclusion, _ := run(t, "A=>B\n=A\n?B", false)
	if strings.TrimSpace(conclusion) != "B is True" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioOrInAntecedent(t *testing.T) {
	conclusion, _ := run(t, "A|B=>C\n=A\n?C", false)
	if strings.TrimSpace(conclusion) != "C is True" {
		t.Errorf("got %q", conclusion)
	}

	conclusion, _ = run(t, "A|B=>C\n=B\n?C", false)
	if strings.TrimSpace(conclusion) != "C is True" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioChainedAnd(t *testing.T) {
	conclusion, _ := run(t, "C+E=>F\nH+S=>K\nF=>G\nK=>Y\n=CE\n?G", false)
	if strings.TrimSpace(conclusion) != "G is True" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioOrInConsequentIsAmbiguous(t *testing.T) {
	conclusion, _ := run(t, "A=>B|C\n=A\n?BC", false)
	want := "B is Undetermined\nC is Undetermined\n"
	if conclusion != want {
		t.Errorf("got %q, want %q", conclusion, want)
	}
}

func TestScenarioClosedWorldDefaultFalse(t *testing.T) {
	conclusion, _ := run(t, "A=>B\n=A\n?F", false)
	if strings.TrimSpace(conclusion) != "F is False" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioOpenWorldLeavesUnconstrainedUndetermined(t *testing.T) {
	conclusion, _ := run(t, "A=>B\n=A\n?F", true)
	if strings.TrimSpace(conclusion) != "F is Undetermined" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioXorResolvedByExtraRule(t *testing.T) {
	conclusion, _ := run(t, "A=>B^C\nA=>!B\n=A\n?C", false)
	if strings.TrimSpace(conclusion) != "C is True" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioCycle(t *testing.T) {
	conclusion, _ := run(t, "A=>B\nB=>C\nC=>D\nD=>A\n=Z\n?D", false)
	if strings.TrimSpace(conclusion) != "D is False" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioIffWithKnownSide(t *testing.T) {
	conclusion, _ := run(t, "A=>!B\nB<=>C\n=A\n?C", false)
	if strings.TrimSpace(conclusion) != "C is False" {
		t.Errorf("got %q", conclusion)
	}
}

func TestScenarioContradiction(t *testing.T) {
	conclusion, hadError := run(t, "A=>B\nA=>!B\n=A\n?B", false)
	if !hadError {
		t.Fatalf("expected hadError, got conclusion %q", conclusion)
	}
	if !strings.Contains(conclusion, "B Error:") {
		t.Errorf("expected a B Error line, got %q", conclusion)
	}
}

func TestEmptyWorldOpenAssumptionReportsUndetermined(t *testing.T) {
	conclusion, hadError := run(t, "A=>B\n=A\n?BQ", true)
	if hadError {
		t.Fatalf("did not expect an error, got %q", conclusion)
	}
	want := "B is True\nQ is Undetermined\n"
	if conclusion != want {
		t.Errorf("got %q, want %q", conclusion, want)
	}
}

func TestExplainProducesExplanationSection(t *testing.T) {
	tokens, err := lexer.Lex("A=>B\n=A\n?B")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	rules, facts, queries, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, err := graph.Build(facts, rules, queries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g.Explain = true
	g.ApplyWorldAssumption(graph.ClosedWorld)

	sess := New(g, nil)
	_, explanation, hadError := sess.SolveEverything(queries)
	if hadError {
		t.Fatalf("did not expect an error")
	}
	if !strings.Contains(explanation, "OPERATIONS") {
		t.Errorf("expected an OPERATIONS section, got %q", explanation)
	}
}
