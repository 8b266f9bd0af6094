package parser

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/syntax/internal/token"
)

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "===": 6, "!==": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7, "instanceof": 7, "in": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true,
	"|=": true, "^=": true,
}

var unaryOps = map[string]bool{
	"!": true, "-": true, "+": true, "~": true,
	"typeof": true, "void": true, "delete": true,
}

func (p *Parser) parseExpression() ast.Expr {
	line := p.peek().Line
	first := p.parseAssign()
	if !p.is(",") {
		return first
	}
	list := []ast.Expr{first}
	for p.accept(",") {
		list = append(list, p.parseAssign())
	}
	return ast.At(ast.NewSeq(list), line)
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect("(")
	saved := p.noIn
	p.noIn = false
	x := p.parseExpression()
	p.noIn = saved
	p.expect(")")
	return x
}

func (p *Parser) parseAssign() ast.Expr {
	t := p.peek()
	if p.inGenerator && t.Type == token.Name && t.Value == "yield" {
		return p.parseYield()
	}

	left := p.parseConditional()
	op := p.peek()
	if op.Type == token.Punct && assignOps[op.Value] {
		if !assignable(left) {
			p.failAt(op, "invalid assignment target")
		}
		p.next()
		return ast.At(ast.NewAssign(op.Value, left, p.parseAssign()), t.Line)
	}
	return left
}

func (p *Parser) parseYield() ast.Expr {
	line := p.next().Line
	delegate := false
	if !p.peek().Newline && p.accept("*") {
		delegate = true
	}
	var arg ast.Expr
	if delegate || !p.yieldEnds() {
		arg = p.parseAssign()
	}
	return ast.At(ast.NewYield(arg, delegate), line)
}

// yieldEnds reports whether a bare yield has no operand.
func (p *Parser) yieldEnds() bool {
	t := p.peek()
	if t.Type == token.EOF || t.Newline {
		return true
	}
	if t.Type != token.Punct {
		return t.Value == "in" || t.Value == "instanceof"
	}
	switch t.Value {
	case ")", "]", "}", ",", ";", ":", "?":
		return true
	}
	_, isBinary := binaryPrec[t.Value]
	return isBinary && !unaryOps[t.Value] || assignOps[t.Value]
}

func (p *Parser) parseConditional() ast.Expr {
	line := p.peek().Line
	test := p.parseBinary(1)
	if !p.accept("?") {
		return test
	}
	saved := p.noIn
	p.noIn = false
	then := p.parseAssign()
	p.noIn = saved
	p.expect(":")
	els := p.parseAssign()
	return ast.At(ast.NewCond(test, then, els), line)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	line := p.peek().Line
	left := p.parseUnary()
	for {
		t := p.peek()
		if t.Type != token.Punct && t.Type != token.Name {
			return left
		}
		prec, ok := binaryPrec[t.Value]
		if !ok || prec < minPrec || (t.Value == "in" && p.noIn) {
			return left
		}
		if t.Type == token.Name && t.Value != "in" && t.Value != "instanceof" {
			return left
		}
		p.next()
		var right ast.Expr
		if t.Value == "**" {
			right = p.parseBinary(prec)
		} else {
			right = p.parseBinary(prec + 1)
		}
		left = ast.At(ast.NewBinary(t.Value, left, right), line)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	t := p.peek()
	if unaryOps[t.Value] && (t.Type == token.Punct || t.Type == token.Name) {
		p.next()
		return ast.At(ast.NewUnary(t.Value, p.parseUnary()), t.Line)
	}
	if t.Type == token.Punct && (t.Value == "++" || t.Value == "--") {
		p.next()
		x := p.parseUnary()
		if !assignable(x) {
			p.failAt(t, "invalid update target")
		}
		return ast.At(ast.NewUpdate(t.Value, true, x), t.Line)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parseLeftHandSide()
	t := p.peek()
	if t.Type == token.Punct && (t.Value == "++" || t.Value == "--") && !t.Newline {
		if !assignable(x) {
			p.failAt(t, "invalid update target")
		}
		p.next()
		return ast.At(ast.NewUpdate(t.Value, false, x), t.Line)
	}
	return x
}

func (p *Parser) parseLeftHandSide() ast.Expr {
	var x ast.Expr
	if p.is("new") {
		x = p.parseNew()
	} else {
		x = p.parsePrimary()
	}
	return p.parseSuffixes(x, true)
}

func (p *Parser) parseNew() ast.Expr {
	line := p.expect("new").Line
	var callee ast.Expr
	if p.is("new") {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseSuffixes(callee, false)
	var args []ast.Expr
	if p.is("(") {
		args = p.parseArgs()
	}
	return ast.At(ast.NewNew(callee, args), line)
}

func (p *Parser) parseSuffixes(x ast.Expr, calls bool) ast.Expr {
	for {
		t := p.peek()
		switch {
		case p.is("."):
			p.next()
			name := p.next()
			if name.Type != token.Name {
				p.failAt(name, "expected property name, got %s", describe(name))
			}
			x = ast.At(ast.NewMember(x, name.Value), t.Line)
		case p.is("["):
			p.next()
			saved := p.noIn
			p.noIn = false
			index := p.parseExpression()
			p.noIn = saved
			p.expect("]")
			x = ast.At(ast.NewIndex(x, index), t.Line)
		case calls && p.is("("):
			x = ast.At(ast.NewCall(x, p.parseArgs()), t.Line)
		default:
			return x
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect("(")
	saved := p.noIn
	p.noIn = false
	var args []ast.Expr
	for !p.accept(")") {
		if len(args) > 0 {
			p.expect(",")
		}
		args = append(args, p.parseAssign())
	}
	p.noIn = saved
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.peek()
	line := t.Line
	switch t.Type {
	case token.Number:
		p.next()
		v, err := token.ParseNumber(t.Value)
		if err != nil {
			p.failAt(t, "invalid number %q", t.Value)
		}
		n := ast.NewNumber(v)
		n.Raw = t.Value
		return ast.At(n, line)
	case token.String:
		p.next()
		return ast.At(ast.NewString(t.Value), line)
	case token.Name:
		switch t.Value {
		case "this":
			p.next()
			return ast.At(ast.NewThis(), line)
		case "true", "false":
			p.next()
			return ast.At(ast.NewBool(t.Value == "true"), line)
		case "null":
			p.next()
			return ast.At(ast.NewNull(), line)
		case "function":
			return ast.At(ast.NewFuncLit(p.parseFunction(false)), line)
		}
		return ast.At(ast.NewIdent(p.expectName().Value), line)
	case token.Punct:
		switch t.Value {
		case "(":
			return p.parseParenExpr()
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	p.failAt(t, "unexpected %s", describe(t))
	return nil
}

func (p *Parser) parseArray() ast.Expr {
	line := p.expect("[").Line
	saved := p.noIn
	p.noIn = false
	var elems []ast.Expr
	for !p.accept("]") {
		if p.is(",") {
			p.next()
			elems = append(elems, nil)
			continue
		}
		elems = append(elems, p.parseAssign())
		if !p.is("]") {
			p.expect(",")
		}
	}
	p.noIn = saved
	return ast.At(ast.NewArray(elems), line)
}

func (p *Parser) parseObject() ast.Expr {
	line := p.expect("{").Line
	saved := p.noIn
	p.noIn = false
	var props []ast.Property
	for !p.accept("}") {
		if len(props) > 0 {
			p.expect(",")
			if p.accept("}") {
				break
			}
		}
		key := p.next()
		switch key.Type {
		case token.Name, token.String:
		case token.Number:
			v, err := token.ParseNumber(key.Value)
			if err != nil {
				p.failAt(key, "invalid number %q", key.Value)
			}
			key = &token.Token{Value: ast.FormatNumber(v), Type: token.String, Line: key.Line}
		default:
			p.failAt(key, "expected property name, got %s", describe(key))
		}
		p.expect(":")
		props = append(props, ast.Property{Key: key.Value, Value: p.parseAssign()})
	}
	p.noIn = saved
	return ast.At(ast.NewObject(props), line)
}

func assignable(x ast.Expr) bool {
	switch x.(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.IndexExpr:
		return true
	}
	return false
}
