package lexer

import (
	"errors"
	"testing"

	"github.com/znichola/expert-system/internal/errs"
)

func typesOf(tokens []Token) []Type {
	out := make([]Type, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexSimpleRule(t *testing.T) {
	tokens, err := Lex("A=>B\n=A\n?B")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	want := []Type{Variable, Operator, Variable, NewLine, FactMarker, Variable, NewLine, QueryMarker, Variable}
	got := typesOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexOperators(t *testing.T) {
	tokens, err := Lex("A+B|C^D<=>E")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	ops := []string{}
	for _, tok := range tokens {
		if tok.Type == Operator {
			ops = append(ops, tok.Text)
		}
	}
	want := []string{"+", "|", "^", "<=>"}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("got %v, want %v", ops, want)
		}
	}
}

func TestLexComment(t *testing.T) {
	tokens, err := Lex("A=>B # a comment\n")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var comment *Token
	for i := range tokens {
		if tokens[i].Type == Comment {
			comment = &tokens[i]
		}
	}
	if comment == nil {
		t.Fatal("expected a Comment token")
	}
	if comment.Text != "# a comment" {
		t.Errorf("got %q", comment.Text)
	}
}

func TestLexFactMarkerMustStartLine(t *testing.T) {
	_, err := Lex("A=B")
	if !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestLexQueryMarkerMustStartLine(t *testing.T) {
	_, err := Lex("A?B")
	if !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestLexInvalidCharacter(t *testing.T) {
	_, err := Lex("A@B")
	if !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestLexParensAndUnary(t *testing.T) {
	tokens, err := Lex("!(A+B)")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []Type{Unary, Paren, Variable, Operator, Variable, Paren}
	got := typesOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
