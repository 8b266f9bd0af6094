package printer

import (
	"fmt"
	"strings"

	"github.com/wippyai/genlower/ast"
)

const indentUnit = "    "

// Expression precedence levels, loosest first.
const (
	precSeq = iota
	precAssign
	precCond
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precPostfix
	precCall
	precMember
	precPrimary
)

var binaryPrec = map[string]int{
	"||": precOr, "&&": precAnd, "|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"**": precExponent,
}

type Printer struct {
	buf    strings.Builder
	indent int
}

// Print renders a program, function, statement or expression.
func Print(n ast.Node) string {
	p := &Printer{}
	switch n := n.(type) {
	case *ast.Program:
		p.stmts(n.Body)
	case *ast.Function:
		p.function(n)
		p.buf.WriteByte('\n')
	case ast.Stmt:
		p.stmt(n)
	case ast.Expr:
		p.expr(n, precSeq)
	case *ast.CaseClause:
		p.caseClause(n)
	default:
		panic(fmt.Sprintf("printer: unexpected node %T", n))
	}
	return p.buf.String()
}

func (p *Printer) write(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) line() {
	p.buf.WriteByte('\n')
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString(indentUnit)
	}
}

func (p *Printer) stmts(list []ast.Stmt) {
	for i, s := range list {
		if i > 0 {
			p.line()
		}
		p.stmt(s)
	}
	if len(list) > 0 {
		p.buf.WriteByte('\n')
	}
}

// body prints a braced statement list at the next indentation level.
func (p *Printer) body(list []ast.Stmt) {
	p.write("{")
	if len(list) == 0 {
		p.write("}")
		return
	}
	p.indent++
	for _, s := range list {
		p.line()
		p.stmt(s)
	}
	p.indent--
	p.line()
	p.write("}")
}

// nested prints the body of a compound statement after its header.
func (p *Printer) nested(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		p.write(" ")
		p.body(b.List)
		return
	}
	p.indent++
	p.line()
	p.stmt(s)
	p.indent--
}

func (p *Printer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		p.varDecl(s)
		p.write(";")
	case *ast.FuncDecl:
		p.function(s.Fn)
	case *ast.ExprStmt:
		if startsAmbiguous(s.X) {
			p.write("(")
			p.expr(s.X, precSeq)
			p.write(");")
			return
		}
		p.expr(s.X, precSeq)
		p.write(";")
	case *ast.BlockStmt:
		p.body(s.List)
	case *ast.EmptyStmt:
		p.write(";")
	case *ast.IfStmt:
		p.write("if (")
		p.expr(s.Test, precSeq)
		p.write(")")
		p.nested(s.Then)
		if s.Else != nil {
			if _, ok := s.Then.(*ast.BlockStmt); ok {
				p.write(" ")
			} else {
				p.line()
			}
			p.write("else")
			if elif, ok := s.Else.(*ast.IfStmt); ok {
				p.write(" ")
				p.stmt(elif)
			} else {
				p.nested(s.Else)
			}
		}
	case *ast.WhileStmt:
		p.write("while (")
		p.expr(s.Test, precSeq)
		p.write(")")
		p.nested(s.Body)
	case *ast.DoWhileStmt:
		p.write("do")
		p.nested(s.Body)
		if _, ok := s.Body.(*ast.BlockStmt); ok {
			p.write(" ")
		} else {
			p.line()
		}
		p.write("while (")
		p.expr(s.Test, precSeq)
		p.write(");")
	case *ast.ForStmt:
		p.write("for (")
		p.forInit(s.Init)
		p.write(";")
		if s.Test != nil {
			p.write(" ")
			p.expr(s.Test, precSeq)
		}
		p.write(";")
		if s.Update != nil {
			p.write(" ")
			p.expr(s.Update, precSeq)
		}
		p.write(")")
		p.nested(s.Body)
	case *ast.ForInStmt:
		p.write("for (")
		p.forInit(s.Left)
		p.write(" in ")
		p.expr(s.Right, precSeq)
		p.write(")")
		p.nested(s.Body)
	case *ast.SwitchStmt:
		p.write("switch (")
		p.expr(s.Disc, precSeq)
		p.write(") {")
		p.indent++
		for _, c := range s.Cases {
			p.line()
			p.caseClause(c)
		}
		p.indent--
		p.line()
		p.write("}")
	case *ast.LabeledStmt:
		p.write(s.Label)
		p.write(": ")
		p.stmt(s.Body)
	case *ast.BreakStmt:
		p.jump("break", s.Label)
	case *ast.ContinueStmt:
		p.jump("continue", s.Label)
	case *ast.ReturnStmt:
		p.write("return")
		if s.X != nil {
			p.write(" ")
			p.expr(s.X, precSeq)
		}
		p.write(";")
	case *ast.ThrowStmt:
		p.write("throw ")
		p.expr(s.X, precSeq)
		p.write(";")
	case *ast.TryStmt:
		p.write("try ")
		p.body(s.Block.List)
		if s.Handler != nil {
			p.write(" catch (")
			p.write(s.Param)
			p.write(") ")
			p.body(s.Handler.List)
		}
		if s.Finalizer != nil {
			p.write(" finally ")
			p.body(s.Finalizer.List)
		}
	case *ast.WithStmt:
		p.write("with (")
		p.expr(s.Object, precSeq)
		p.write(")")
		p.nested(s.Body)
	default:
		panic(fmt.Sprintf("printer: unexpected statement %T", s))
	}
}

func (p *Printer) caseClause(c *ast.CaseClause) {
	if c.Test == nil {
		p.write("default:")
	} else {
		p.write("case ")
		p.expr(c.Test, precSeq)
		p.write(":")
	}
	p.indent++
	for _, s := range c.Body {
		p.line()
		p.stmt(s)
	}
	p.indent--
}

func (p *Printer) jump(keyword, label string) {
	p.write(keyword)
	if label != "" {
		p.write(" ")
		p.write(label)
	}
	p.write(";")
}

func (p *Printer) forInit(init ast.Node) {
	switch init := init.(type) {
	case nil:
	case *ast.VarDecl:
		p.varDecl(init)
	case ast.Expr:
		p.expr(init, precSeq)
	}
}

func (p *Printer) varDecl(d *ast.VarDecl) {
	p.write(d.Kind)
	p.write(" ")
	for i, decl := range d.Decls {
		if i > 0 {
			p.write(", ")
		}
		p.write(decl.Name)
		if decl.Init != nil {
			p.write(" = ")
			p.expr(decl.Init, precAssign)
		}
	}
}

func (p *Printer) function(fn *ast.Function) {
	p.write("function")
	if fn.Generator {
		p.write("*")
	}
	if fn.Name != "" {
		p.write(" ")
		p.write(fn.Name)
	} else {
		p.write(" ")
	}
	p.write("(")
	p.write(strings.Join(fn.Params, ", "))
	p.write(") ")
	p.body(fn.Body)
}

// startsAmbiguous reports whether an expression statement would begin with
// "function" or "{" and so needs parentheses.
func startsAmbiguous(x ast.Expr) bool {
	for {
		switch e := x.(type) {
		case *ast.FuncLit, *ast.ObjectLit:
			return true
		case *ast.BinaryExpr:
			x = e.X
		case *ast.AssignExpr:
			x = e.Target
		case *ast.CondExpr:
			x = e.Test
		case *ast.SeqExpr:
			x = e.List[0]
		case *ast.CallExpr:
			x = e.Callee
		case *ast.MemberExpr:
			x = e.X
		case *ast.IndexExpr:
			x = e.X
		case *ast.UpdateExpr:
			if e.Prefix {
				return false
			}
			x = e.X
		default:
			return false
		}
	}
}
