package parser

import (
	"fmt"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/syntax/internal/token"
)

type Parser struct {
	tokens      []token.Token
	pos         int
	inGenerator bool
	inFunction  bool
	noIn        bool
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*errors.Error)
			if !ok {
				panic(r)
			}
			err = se
		}
	}()
	var body []ast.Stmt
	for p.peek().Type != token.EOF {
		body = append(body, p.parseStatement())
	}
	return ast.NewProgram(body), nil
}

func (p *Parser) peek() *token.Token {
	return &p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1]
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	t := &p.tokens[p.pos]
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) is(value string) bool {
	t := p.peek()
	return (t.Type == token.Punct || t.Type == token.Name) && t.Value == value
}

func (p *Parser) accept(value string) bool {
	if p.is(value) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(value string) *token.Token {
	t := p.next()
	if (t.Type != token.Punct && t.Type != token.Name) || t.Value != value {
		p.failAt(t, "expected %q, got %s", value, describe(t))
	}
	return t
}

func (p *Parser) expectName() *token.Token {
	t := p.next()
	if t.Type != token.Name || reserved[t.Value] {
		p.failAt(t, "expected identifier, got %s", describe(t))
	}
	return t
}

// semicolon consumes a statement terminator, applying automatic insertion
// before '}', end of input and line breaks.
func (p *Parser) semicolon() {
	if p.accept(";") {
		return
	}
	t := p.peek()
	if t.Type == token.EOF || t.Newline || p.is("}") {
		return
	}
	p.failAt(t, "expected \";\", got %s", describe(t))
}

// canInsertSemicolon reports whether a restricted production ends here.
func (p *Parser) canInsertSemicolon() bool {
	t := p.peek()
	return t.Type == token.EOF || t.Newline || p.is(";") || p.is("}")
}

func (p *Parser) failAt(t *token.Token, format string, args ...any) {
	panic(errors.Syntax(t.Line, fmt.Sprintf(format, args...)))
}

func describe(t *token.Token) string {
	if t.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Value)
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "const": true, "continue": true,
	"default": true, "delete": true, "do": true, "else": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "in": true,
	"instanceof": true, "let": true, "new": true, "null": true, "return": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true,
}
