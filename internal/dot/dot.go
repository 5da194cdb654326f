// Package dot renders a graph.Graph as Graphviz DOT: one edge per fact's
// link to a consequent rule, and one edge per rule's link to each
// antecedent fact, so a viewer can trace a proof path visually.
package dot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/graph"
)

// Render returns g as a "strict digraph" DOT document. A fact with no
// consequent rules (nothing can conclude it) is emitted as a bare node so
// it still appears in the rendering; otherwise it gets one edge per rule
// that could prove it. Every rule also gets one edge into each antecedent
// fact it depends on. Output is sorted by letter/rule ID for determinism.
func Render(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("strict digraph {\n")

	for _, letter := range sortedFactLetters(g) {
		f := g.Facts[letter]
		if len(f.ConsequentRules) == 0 {
			fmt.Fprintf(&b, "  %s\n", letter)
			continue
		}
		rules := append([]string(nil), f.ConsequentRules...)
		sort.Strings(rules)
		for _, ruleID := range rules {
			fmt.Fprintf(&b, "  %s -> %q\n", letter, ruleID)
		}
	}

	b.WriteString("\n")

	for _, ruleID := range sortedRuleIDs(g) {
		r := g.Rules[ruleID]
		if len(r.AntecedentFacts) == 0 {
			fmt.Fprintf(&b, "  %q\n", ruleID)
			continue
		}
		for _, l := range r.AntecedentFacts {
			fmt.Fprintf(&b, "  %q -> %s\n", ruleID, l)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func sortedFactLetters(g *graph.Graph) []domain.Letter {
	out := make([]domain.Letter, 0, len(g.Facts))
	for l := range g.Facts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedRuleIDs(g *graph.Graph) []string {
	out := make([]string, 0, len(g.Rules))
	for id := range g.Rules {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
