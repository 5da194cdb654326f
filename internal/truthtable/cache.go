package truthtable

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/graph"
)

// compiled bundles Compile's two return values so the LRU cache, which is
// keyed on a single value type, can store them together.
type compiled struct {
	expr      *expr.Expr
	hadSource bool
}

// Cache memoizes Compile's result for a given (rule-set signature, fact
// states, query letter) key, so the HTTP front-end doesn't recompile the same closure
// every time a client resubmits a ruleset it has already evaluated. The CLI
// path has no need for it - a one-shot process compiles each query once
// regardless.
type Cache struct {
	entries *lru.Cache[string, compiled]
}

// NewCache returns a cache holding at most size compiled expressions,
// evicting least-recently-used entries beyond that.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, compiled](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// CompileCached returns the cached compilation for (signature, g's fact
// states, query), computing and storing it on a miss. The fact states are
// part of the key because Compile's result depends on them.
func (c *Cache) CompileCached(g *graph.Graph, signature string, query domain.Letter) (*expr.Expr, bool) {
	letters := make([]domain.Letter, 0, len(g.Facts))
	for l := range g.Facts {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	var b strings.Builder
	b.WriteString(signature)
	for _, l := range letters {
		fmt.Fprintf(&b, "|%s=%s", l, g.Facts[l].State)
	}
	fmt.Fprintf(&b, "|%s", query)
	key := b.String()
	if cached, ok := c.entries.Get(key); ok {
		return cached.expr, cached.hadSource
	}
	e, hadSource := Compile(g, query)
	c.entries.Add(key, compiled{expr: e, hadSource: hadSource})
	return e, hadSource
}
