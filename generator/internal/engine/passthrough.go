package engine

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/generator/internal/ir"
)

// visit is the pass-through visitor for subtrees without a suspension
// point. Such code stays native; only declarations are hoisted and jumps
// or returns that leave it are turned into driver instructions.
func (l *linearizer) visit(n ast.Node) ast.Node {
	switch n := n.(type) {
	case ast.Stmt:
		if s := l.visitStatement(n); s != nil {
			return s
		}
		return nil
	case *ast.CaseClause:
		return ast.RewriteChildren(n, l.visit)
	}
	return n
}

// visitNested visits a statement in a single statement slot.
func (l *linearizer) visitNested(s ast.Stmt) ast.Stmt {
	if s == nil {
		return nil
	}
	if out := l.visitStatement(s); out != nil {
		return out
	}
	return ast.NewEmpty()
}

func (l *linearizer) visitStatement(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.BreakStmt:
		if target := l.breakTarget(s); target != ir.Native {
			return ast.At(l.cg.Break(target), s.Line())
		}
		return s
	case *ast.ContinueStmt:
		if target := l.continueTarget(s); target != ir.Native {
			return ast.At(l.cg.Break(target), s.Line())
		}
		return s
	case *ast.ReturnStmt:
		return ast.At(l.cg.Return(s.X), s.Line())
	case *ast.VarDecl:
		x := l.hoistDecl(s)
		if x == nil {
			return nil
		}
		return ast.At(ast.NewExprStmt(x), s.Line())
	case *ast.FuncDecl:
		l.reg.HoistFunction(s)
		return nil
	case *ast.LabeledStmt:
		return l.visitLabeled(s)
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt, *ast.SwitchStmt:
		return l.visitTarget(s, nil)
	}
	return ast.RewriteChildren(s, l.visit).(ast.Stmt)
}

// hoistDecl hoists the declared names and returns the initializers as
// assignments, or nil when there are none.
func (l *linearizer) hoistDecl(d *ast.VarDecl) ast.Expr {
	var list []ast.Expr
	for _, decl := range d.Decls {
		l.reg.Hoist(decl.Name)
		if decl.Init != nil {
			list = append(list, ast.NewAssign("=", ast.NewIdent(decl.Name), decl.Init))
		}
	}
	if len(list) == 0 {
		return nil
	}
	return sequence(list)
}

func (l *linearizer) visitLabeled(s *ast.LabeledStmt) ast.Stmt {
	names, body := labelChain(s)
	out := l.visitTarget(body, names)
	if out == body {
		return s
	}
	if out == nil {
		out = ast.NewEmpty()
	}
	for i := len(names) - 1; i > 0; i-- {
		out = ast.NewLabeled(names[i], out)
	}
	return ast.At(ast.NewLabeled(names[0], out), s.Line())
}

// visitTarget visits a native break or continue target. Jumps inside it
// that name it stay native.
func (l *linearizer) visitTarget(s ast.Stmt, names []string) ast.Stmt {
	switch s.(type) {
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt:
		l.reg.BeginScriptContinueBlock(names)
		out := l.visitLoop(s)
		l.reg.EndScriptContinueBlock()
		return out
	case *ast.SwitchStmt:
		l.reg.BeginScriptBreakBlock(names, false)
		out := ast.RewriteChildren(s, l.visit).(ast.Stmt)
		l.reg.EndScriptBreakBlock()
		return out
	}
	l.reg.BeginScriptBreakBlock(names, true)
	out := l.visitStatement(s)
	l.reg.EndScriptBreakBlock()
	return out
}

func (l *linearizer) visitLoop(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.ForStmt:
		init := s.Init
		if d, ok := init.(*ast.VarDecl); ok && d != nil {
			if x := l.hoistDecl(d); x != nil {
				init = x
			} else {
				init = nil
			}
		}
		body := l.visitNested(s.Body)
		if init == s.Init && body == s.Body {
			return s
		}
		return ast.At(ast.NewFor(init, s.Test, s.Update, body), s.Line())
	case *ast.ForInStmt:
		left := s.Left
		if d, ok := left.(*ast.VarDecl); ok && d != nil {
			for _, decl := range d.Decls {
				l.reg.Hoist(decl.Name)
			}
			left = ast.NewIdent(d.Decls[0].Name)
		}
		body := l.visitNested(s.Body)
		if left == s.Left && body == s.Body {
			return s
		}
		return ast.At(ast.NewForIn(left, s.Right, body), s.Line())
	}
	return ast.RewriteChildren(s, l.visit).(ast.Stmt)
}
