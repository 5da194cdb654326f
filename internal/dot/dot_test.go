package dot

import (
	"strings"
	"testing"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
)

func TestRenderWrapsInStrictDigraph(t *testing.T) {
	g, err := graph.Build(
		[]*domain.Fact{domain.NewFact('A', domain.True, 0, "")},
		[]*domain.Rule{domain.NewRule(expr.Imply(expr.Var('A'), expr.Var('B')), 1, "")},
		[]*domain.Query{{Letter: 'B', Line: 2}},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out := Render(g)
	if !strings.HasPrefix(out, "strict digraph {\n") {
		t.Fatalf("expected strict digraph header, got: %s", out)
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Fatalf("expected trailing closing brace, got: %s", out)
	}
	if !strings.Contains(out, `B -> "(A=>B)"`) {
		t.Errorf("expected an edge from B to its concluding rule, got: %s", out)
	}
	if !strings.Contains(out, `"(A=>B)" -> A`) {
		t.Errorf("expected an edge from the rule to its antecedent A, got: %s", out)
	}
}

func TestRenderIsolatedFact(t *testing.T) {
	g, err := graph.Build(nil, nil, []*domain.Query{{Letter: 'Z', Line: 1}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out := Render(g)
	if !strings.Contains(out, "  Z\n") {
		t.Errorf("expected a bare node for an unconcluded fact, got: %s", out)
	}
}
