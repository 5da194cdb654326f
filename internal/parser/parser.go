// Package parser turns a lexer.Token stream into the ordered (rules, facts,
// queries) triple the graph builder consumes: a precedence-climbing parser
// for expressions, plus line-oriented extraction of the single facts line
// and single queries line.
package parser

import (
	"fmt"

	"github.com/znichola/expert-system/internal/domain"
	"github.com/znichola/expert-system/internal/errs"
	"github.com/znichola/expert-system/internal/expr"
	"github.com/znichola/expert-system/internal/lexer"
)

// Parse consumes the full token stream and returns the rules, facts and
// queries it describes, in source order. Exactly one facts line and one
// queries line are required.
func Parse(tokens []lexer.Token) ([]*domain.Rule, []*domain.Fact, []*domain.Query, error) {
	if len(tokens) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty input", errs.ErrParse)
	}

	facts, factsLine, err := parseFacts(tokens)
	if err != nil {
		return nil, nil, nil, err
	}
	queries, queriesLine, err := parseQueries(tokens)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(facts) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no facts line found", errs.ErrParse)
	}
	if len(queries) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no queries line found", errs.ErrParse)
	}

	var rules []*domain.Rule

	for i := 0; i < len(tokens); i++ {
		line := tokens[i].Line
		if line == factsLine || line == queriesLine {
			for i < len(tokens) && tokens[i].Type != lexer.NewLine {
				i++
			}
			continue
		}

		var lineTokens []lexer.Token
		for i < len(tokens) && tokens[i].Type != lexer.NewLine {
			lineTokens = append(lineTokens, tokens[i])
			i++
		}
		if len(lineTokens) == 0 {
			continue
		}

		comment := ""
		if lineTokens[len(lineTokens)-1].Type == lexer.Comment {
			comment = lineTokens[len(lineTokens)-1].Text[1:]
			lineTokens = lineTokens[:len(lineTokens)-1]
		}
		if len(lineTokens) == 0 {
			continue
		}

		p := &exprParser{tokens: lineTokens}
		e, err := p.parse()
		if err != nil {
			return nil, nil, nil, err
		}

		rules = append(rules, domain.NewRule(e, line, comment))
	}

	return rules, facts, queries, nil
}

// parseFacts scans for the (sole) '=' marker and collects the letters on
// its line as base True facts, applying any trailing comment to all of
// them - matching the reference tokenizer's line-wide comment semantics.
func parseFacts(tokens []lexer.Token) ([]*domain.Fact, int, error) {
	var facts []*domain.Fact
	found := false
	line := 0

	for _, tok := range tokens {
		if tok.Type == lexer.FactMarker {
			if found {
				return nil, 0, fmt.Errorf("%w: multiple facts definitions, line %d", errs.ErrParse, tok.Line+1)
			}
			found = true
			line = tok.Line
			continue
		}
		if !found || tok.Line != line {
			continue
		}
		switch {
		case tok.Type == lexer.Variable:
			facts = append(facts, domain.NewFact(domain.Letter(tok.Text[0]), domain.True, tok.Line, ""))
		case tok.Type == lexer.NewLine:
			continue
		case tok.Type == lexer.Comment:
			for _, f := range facts {
				f.Comment = tok.Text[1:]
			}
		default:
			return nil, 0, fmt.Errorf("%w: invalid token %q in facts line %d", errs.ErrParse, tok.Text, tok.Line+1)
		}
	}

	return facts, line, nil
}

// parseQueries scans for the (sole) '?' marker and collects the letters on
// its line as queries, in order.
func parseQueries(tokens []lexer.Token) ([]*domain.Query, int, error) {
	var queries []*domain.Query
	found := false
	line := 0

	for _, tok := range tokens {
		if tok.Type == lexer.QueryMarker {
			if found {
				return nil, 0, fmt.Errorf("%w: multiple queries definitions, line %d", errs.ErrParse, tok.Line+1)
			}
			found = true
			line = tok.Line
			continue
		}
		if !found || tok.Line != line {
			continue
		}
		switch {
		case tok.Type == lexer.Variable:
			queries = append(queries, &domain.Query{Letter: domain.Letter(tok.Text[0]), Line: tok.Line})
		case tok.Type == lexer.NewLine:
			continue
		case tok.Type == lexer.Comment:
			for _, q := range queries {
				q.Comment = tok.Text[1:]
			}
		default:
			return nil, 0, fmt.Errorf("%w: invalid token %q in queries line %d", errs.ErrParse, tok.Text, tok.Line+1)
		}
	}

	return queries, line, nil
}

// associativity of a binary operator.
type assoc int

const (
	leftAssoc assoc = iota
	rightAssoc
)

// exprParser parses a single line's tokens (with NewLine/Comment already
// stripped) into an expr.Expr via precedence climbing.
type exprParser struct {
	tokens []lexer.Token
	pos    int
}

func (p *exprParser) current() (lexer.Token, bool) {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos], true
	}
	return lexer.Token{}, false
}

func (p *exprParser) parse() (*expr.Expr, error) {
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		tok, _ := p.current()
		return nil, fmt.Errorf("%w: unexpected token %q after expression, line %d", errs.ErrParse, tok.Text, tok.Line+1)
	}
	return e, nil
}

// precedence returns (precedence, associativity), tightest binding first:
// ! binds tightest, then + | ^, then => (right) and <=> (right, loosest).
func precedence(tok lexer.Token) (int, assoc, bool) {
	switch tok.Text {
	case "<=>":
		return 1, rightAssoc, true
	case "=>":
		return 2, rightAssoc, true
	case "^":
		return 3, leftAssoc, true
	case "|":
		return 4, leftAssoc, true
	case "+":
		return 5, leftAssoc, true
	default:
		return 0, leftAssoc, false
	}
}

func (p *exprParser) parseExpr(minPrec int) (*expr.Expr, error) {
	lhs, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.current()
		if !ok || tok.Type != lexer.Operator {
			break
		}
		prec, assoc, known := precedence(tok)
		if !known || prec < minPrec {
			break
		}
		p.pos++
		next := prec + 1
		if assoc == rightAssoc {
			next = prec
		}
		rhs, err := p.parseExpr(next)
		if err != nil {
			return nil, err
		}
		lhs, err = makeBinary(tok, lhs, rhs)
		if err != nil {
			return nil, err
		}
	}

	return lhs, nil
}

func makeBinary(tok lexer.Token, lhs, rhs *expr.Expr) (*expr.Expr, error) {
	switch tok.Text {
	case "+":
		return expr.And(lhs, rhs), nil
	case "|":
		return expr.Or(lhs, rhs), nil
	case "^":
		return expr.Xor(lhs, rhs), nil
	case "=>":
		return expr.Imply(lhs, rhs), nil
	case "<=>":
		return expr.Iff(lhs, rhs), nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q, line %d", errs.ErrParse, tok.Text, tok.Line+1)
	}
}

func (p *exprParser) parseFactor() (*expr.Expr, error) {
	tok, ok := p.current()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of expression", errs.ErrParse)
	}

	if tok.Type == lexer.Unary {
		p.pos++
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return expr.Not(operand), nil
	}

	if tok.Type == lexer.Variable {
		p.pos++
		return expr.Var(tok.Text[0]), nil
	}

	if tok.Type == lexer.Paren && tok.Text == "(" {
		p.pos++
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		closing, ok := p.current()
		if !ok || closing.Text != ")" {
			return nil, fmt.Errorf("%w: expected closing parenthesis, line %d", errs.ErrParse, tok.Line+1)
		}
		p.pos++
		return e, nil
	}

	return nil, fmt.Errorf("%w: expected a factor, got %q, line %d", errs.ErrParse, tok.Text, tok.Line+1)
}
