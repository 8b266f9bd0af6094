package printer

import (
	"fmt"
	"strings"

	"github.com/wippyai/genlower/ast"
)

func precOf(x ast.Expr) int {
	switch x := x.(type) {
	case *ast.SeqExpr:
		return precSeq
	case *ast.AssignExpr, *ast.YieldExpr:
		return precAssign
	case *ast.CondExpr:
		return precCond
	case *ast.BinaryExpr:
		return binaryPrec[x.Op]
	case *ast.UnaryExpr:
		return precUnary
	case *ast.UpdateExpr:
		if x.Prefix {
			return precUnary
		}
		return precPostfix
	case *ast.CallExpr:
		return precCall
	case *ast.NewExpr, *ast.MemberExpr, *ast.IndexExpr:
		return precMember
	case *ast.NumberLit:
		if x.Value < 0 {
			return precUnary
		}
	}
	return precPrimary
}

// expr prints x, parenthesized when it binds looser than min.
func (p *Printer) expr(x ast.Expr, min int) {
	if precOf(x) < min {
		p.write("(")
		p.exprInner(x)
		p.write(")")
		return
	}
	p.exprInner(x)
}

func (p *Printer) exprInner(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Ident:
		p.write(x.Name)
	case *ast.NumberLit:
		if x.Raw != "" {
			p.write(x.Raw)
		} else {
			p.write(ast.FormatNumber(x.Value))
		}
		if x.Comment != "" {
			p.write(" /*")
			p.write(x.Comment)
			p.write("*/")
		}
	case *ast.StringLit:
		p.write(Quote(x.Value))
	case *ast.BoolLit:
		if x.Value {
			p.write("true")
		} else {
			p.write("false")
		}
	case *ast.NullLit:
		p.write("null")
	case *ast.ThisExpr:
		p.write("this")
	case *ast.LabelRef:
		p.write(fmt.Sprintf("L%d", x.Label))
	case *ast.ArrayLit:
		p.write("[")
		for i, e := range x.Elements {
			if i > 0 {
				p.write(", ")
			}
			if e != nil {
				p.expr(e, precAssign)
			}
		}
		if n := len(x.Elements); n > 0 && x.Elements[n-1] == nil {
			p.write(",")
		}
		p.write("]")
	case *ast.ObjectLit:
		if len(x.Props) == 0 {
			p.write("{}")
			return
		}
		p.write("{ ")
		for i, prop := range x.Props {
			if i > 0 {
				p.write(", ")
			}
			if isIdentifierName(prop.Key) {
				p.write(prop.Key)
			} else {
				p.write(Quote(prop.Key))
			}
			p.write(": ")
			p.expr(prop.Value, precAssign)
		}
		p.write(" }")
	case *ast.FuncLit:
		p.function(x.Fn)
	case *ast.UnaryExpr:
		p.write(x.Op)
		if isWordOp(x.Op) || startsWithSign(x.X, x.Op) {
			p.write(" ")
		}
		p.expr(x.X, precUnary)
	case *ast.UpdateExpr:
		if x.Prefix {
			p.write(x.Op)
			if startsWithSign(x.X, x.Op) {
				p.write(" ")
			}
			p.expr(x.X, precUnary)
			return
		}
		p.expr(x.X, precCall)
		p.write(x.Op)
	case *ast.BinaryExpr:
		prec := binaryPrec[x.Op]
		left, right := prec, prec+1
		if x.Op == "**" {
			left, right = prec+1, prec
		}
		p.expr(x.X, left)
		p.write(" ")
		p.write(x.Op)
		p.write(" ")
		p.expr(x.Y, right)
	case *ast.AssignExpr:
		p.expr(x.Target, precCall)
		p.write(" ")
		p.write(x.Op)
		p.write(" ")
		p.expr(x.Value, precAssign)
	case *ast.CondExpr:
		p.expr(x.Test, precOr)
		p.write(" ? ")
		p.expr(x.Then, precAssign)
		p.write(" : ")
		p.expr(x.Else, precAssign)
	case *ast.SeqExpr:
		for i, e := range x.List {
			if i > 0 {
				p.write(", ")
			}
			p.expr(e, precAssign)
		}
	case *ast.CallExpr:
		p.expr(x.Callee, precCall)
		p.args(x.Args)
	case *ast.NewExpr:
		p.write("new ")
		p.expr(x.Callee, precMember)
		p.args(x.Args)
	case *ast.MemberExpr:
		if _, ok := x.X.(*ast.NumberLit); ok {
			p.write("(")
			p.exprInner(x.X)
			p.write(")")
		} else {
			p.expr(x.X, precCall)
		}
		p.write(".")
		p.write(x.Name)
	case *ast.IndexExpr:
		p.expr(x.X, precCall)
		p.write("[")
		p.expr(x.Index, precSeq)
		p.write("]")
	case *ast.YieldExpr:
		p.write("yield")
		if x.Delegate {
			p.write("*")
		}
		if x.Arg != nil {
			p.write(" ")
			p.expr(x.Arg, precAssign)
		}
	default:
		panic(fmt.Sprintf("printer: unexpected expression %T", x))
	}
}

func (p *Printer) args(args []ast.Expr) {
	p.write("(")
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.expr(a, precAssign)
	}
	p.write(")")
}

func isWordOp(op string) bool {
	return op == "typeof" || op == "void" || op == "delete"
}

// startsWithSign reports whether printing x right after op would merge
// into a different token, as in "- -a" or "+ ++a".
func startsWithSign(x ast.Expr, op string) bool {
	c := op[0]
	if c != '+' && c != '-' {
		return false
	}
	switch x := x.(type) {
	case *ast.UnaryExpr:
		return x.Op[0] == c
	case *ast.UpdateExpr:
		return x.Prefix && x.Op[0] == c
	case *ast.NumberLit:
		return x.Value < 0 && c == '-'
	}
	return false
}

// Quote renders s as a double-quoted string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
