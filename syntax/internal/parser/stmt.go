package parser

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/syntax/internal/token"
)

func (p *Parser) parseStatement() ast.Stmt {
	t := p.peek()
	line := t.Line

	if t.Type == token.Name && p.peekAt(1).Value == ":" && p.peekAt(1).Type == token.Punct && !reserved[t.Value] {
		p.next()
		p.next()
		return ast.At(ast.NewLabeled(t.Value, p.parseStatement()), line)
	}

	if t.Type == token.Punct {
		switch t.Value {
		case "{":
			return p.parseBlock()
		case ";":
			p.next()
			return ast.At(ast.NewEmpty(), line)
		}
	}

	if t.Type == token.Name {
		switch t.Value {
		case "var", "let", "const":
			decl := p.parseVarDecl()
			p.semicolon()
			return decl
		case "function":
			fn := p.parseFunction(true)
			return ast.At(ast.NewFuncDecl(fn), line)
		case "if":
			return p.parseIf()
		case "while":
			p.next()
			test := p.parseParenExpr()
			return ast.At(ast.NewWhile(test, p.parseStatement()), line)
		case "do":
			p.next()
			body := p.parseStatement()
			p.expect("while")
			test := p.parseParenExpr()
			p.accept(";")
			return ast.At(ast.NewDoWhile(body, test), line)
		case "for":
			return p.parseFor()
		case "switch":
			return p.parseSwitch()
		case "try":
			return p.parseTry()
		case "with":
			p.next()
			object := p.parseParenExpr()
			return ast.At(ast.NewWith(object, p.parseStatement()), line)
		case "return":
			if !p.inFunction {
				p.failAt(t, "return outside function")
			}
			p.next()
			var x ast.Expr
			if !p.canInsertSemicolon() {
				x = p.parseExpression()
			}
			p.semicolon()
			return ast.At(ast.NewReturn(x), line)
		case "throw":
			p.next()
			if p.peek().Newline {
				p.failAt(p.peek(), "line break after throw")
			}
			x := p.parseExpression()
			p.semicolon()
			return ast.At(ast.NewThrow(x), line)
		case "break", "continue":
			p.next()
			label := ""
			if !p.canInsertSemicolon() && p.peek().Type == token.Name {
				label = p.expectName().Value
			}
			p.semicolon()
			if t.Value == "break" {
				return ast.At(ast.NewBreak(label), line)
			}
			return ast.At(ast.NewContinue(label), line)
		}
	}

	x := p.parseExpression()
	p.semicolon()
	return ast.At(ast.NewExprStmt(x), line)
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	line := p.expect("{").Line
	var list []ast.Stmt
	for !p.is("}") {
		if p.peek().Type == token.EOF {
			p.failAt(p.peek(), "expected \"}\", got end of input")
		}
		list = append(list, p.parseStatement())
	}
	p.next()
	return ast.At(ast.NewBlock(list), line)
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	kw := p.next()
	var decls []ast.Declarator
	for {
		name := p.expectName().Value
		var init ast.Expr
		if p.accept("=") {
			init = p.parseAssign()
		}
		decls = append(decls, ast.Declarator{Name: name, Init: init})
		if !p.accept(",") {
			break
		}
	}
	return ast.At(ast.NewVarDecl(kw.Value, decls), kw.Line)
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.expect("if").Line
	test := p.parseParenExpr()
	then := p.parseStatement()
	var els ast.Stmt
	if p.accept("else") {
		els = p.parseStatement()
	}
	return ast.At(ast.NewIf(test, then, els), line)
}

func (p *Parser) parseFor() ast.Stmt {
	line := p.expect("for").Line
	p.expect("(")

	var init ast.Node
	if !p.is(";") {
		saved := p.noIn
		p.noIn = true
		if p.is("var") || p.is("let") || p.is("const") {
			init = p.parseVarDecl()
		} else {
			init = p.parseExpression()
		}
		p.noIn = saved

		if p.accept("in") {
			if decl, ok := init.(*ast.VarDecl); ok && (len(decl.Decls) != 1 || decl.Decls[0].Init != nil) {
				p.failAt(p.peek(), "for-in declaration must bind one name without initializer")
			}
			if x, ok := init.(ast.Expr); ok && !assignable(x) {
				p.failAt(p.peek(), "invalid for-in target")
			}
			right := p.parseExpression()
			p.expect(")")
			return ast.At(ast.NewForIn(init, right, p.parseStatement()), line)
		}
	}
	p.expect(";")

	var test, update ast.Expr
	if !p.is(";") {
		test = p.parseExpression()
	}
	p.expect(";")
	if !p.is(")") {
		update = p.parseExpression()
	}
	p.expect(")")
	return ast.At(ast.NewFor(init, test, update, p.parseStatement()), line)
}

func (p *Parser) parseSwitch() ast.Stmt {
	line := p.expect("switch").Line
	disc := p.parseParenExpr()
	p.expect("{")
	var cases []*ast.CaseClause
	seenDefault := false
	for !p.accept("}") {
		t := p.peek()
		var test ast.Expr
		switch {
		case p.accept("case"):
			test = p.parseExpression()
		case p.accept("default"):
			if seenDefault {
				p.failAt(t, "multiple default clauses")
			}
			seenDefault = true
		default:
			p.failAt(t, "expected \"case\" or \"default\", got %s", describe(t))
		}
		p.expect(":")
		var body []ast.Stmt
		for !p.is("case") && !p.is("default") && !p.is("}") {
			if p.peek().Type == token.EOF {
				p.failAt(p.peek(), "expected \"}\", got end of input")
			}
			body = append(body, p.parseStatement())
		}
		cases = append(cases, ast.At(ast.NewCase(test, body), t.Line))
	}
	return ast.At(ast.NewSwitch(disc, cases), line)
}

func (p *Parser) parseTry() ast.Stmt {
	line := p.expect("try").Line
	block := p.parseBlock()
	var (
		param     string
		handler   *ast.BlockStmt
		finalizer *ast.BlockStmt
	)
	if p.accept("catch") {
		p.expect("(")
		param = p.expectName().Value
		p.expect(")")
		handler = p.parseBlock()
	}
	if p.accept("finally") {
		finalizer = p.parseBlock()
	}
	if handler == nil && finalizer == nil {
		p.failAt(p.peek(), "try without catch or finally")
	}
	return ast.At(ast.NewTry(block, param, handler, finalizer), line)
}

func (p *Parser) parseFunction(declaration bool) *ast.Function {
	line := p.expect("function").Line
	generator := p.accept("*")
	name := ""
	if declaration || p.peek().Type == token.Name {
		name = p.expectName().Value
	}

	p.expect("(")
	var params []string
	for !p.accept(")") {
		if len(params) > 0 {
			p.expect(",")
		}
		params = append(params, p.expectName().Value)
	}

	savedGen, savedFn, savedNoIn := p.inGenerator, p.inFunction, p.noIn
	p.inGenerator, p.inFunction, p.noIn = generator, true, false
	body := p.parseBlock()
	p.inGenerator, p.inFunction, p.noIn = savedGen, savedFn, savedNoIn

	return ast.At(ast.NewFunction(name, params, body.List, generator), line)
}
