package engine

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator/internal/codegen"
	"github.com/wippyai/genlower/generator/internal/ir"
)

// linearizer turns one function body into the flat operation list.
// Statements containing a suspension point are broken into operations;
// everything else passes through as Statement operations.
type linearizer struct {
	reg   *ir.Registry
	names *names
	cg    codegen.Builder
}

func newLinearizer(n *names, cg codegen.Builder) *linearizer {
	return &linearizer{reg: ir.NewRegistry(), names: n, cg: cg}
}

func (l *linearizer) linearize(body []ast.Stmt) *ir.Program {
	l.statements(body)
	return l.reg.Finish()
}

// temp declares a fresh hoisted temporary.
func (l *linearizer) temp() *ast.Ident {
	name := l.names.temp()
	l.reg.Hoist(name)
	return ast.NewTemp(name)
}

func (l *linearizer) emit(s ast.Stmt) {
	l.reg.Emit(ir.Statement{Stmt: s})
}

func (l *linearizer) emitAssign(left, right ast.Expr) {
	l.reg.Emit(ir.Assign{Left: left, Right: right})
}

func (l *linearizer) emitExprs(list []ast.Expr) {
	l.emit(ast.NewExprStmt(sequence(list)))
}

func sequence(list []ast.Expr) ast.Expr {
	if len(list) == 1 {
		return list[0]
	}
	return ast.NewSeq(list)
}

func (l *linearizer) statements(list []ast.Stmt) {
	for _, s := range list {
		l.statement(s)
	}
}

func (l *linearizer) statement(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BreakStmt:
		l.jump(s, l.breakTarget(s))
		return
	case *ast.ContinueStmt:
		l.jump(s, l.continueTarget(s))
		return
	case *ast.ReturnStmt:
		l.reg.Emit(ir.Return{Value: l.expr(s.X)})
		return
	case *ast.ThrowStmt:
		l.reg.Emit(ir.Throw{Value: l.expr(s.X)})
		return
	case *ast.BlockStmt:
		l.statements(s.List)
		return
	}

	if !ast.Yields(s) {
		if out := l.visitStatement(s); out != nil {
			l.emit(out)
		}
		return
	}

	switch s := s.(type) {
	case *ast.ExprStmt:
		l.emit(ast.At(ast.NewExprStmt(l.expr(s.X)), s.Line()))
	case *ast.VarDecl:
		l.varDecl(s)
	case *ast.IfStmt:
		l.ifStmt(s)
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt:
		l.loop(s, nil)
	case *ast.SwitchStmt:
		l.switchStmt(s, nil)
	case *ast.LabeledStmt:
		l.labeled(s)
	case *ast.TryStmt:
		l.tryStmt(s)
	case *ast.WithStmt:
		l.withStmt(s)
	default:
		panic(errors.New(errors.PhaseLinearize, errors.KindUnsupported).
			Line(s.Line()).
			Detail("cannot linearize %T", s).
			Build())
	}
}

func (l *linearizer) breakTarget(s *ast.BreakStmt) ir.Label {
	target, ok := l.reg.FindBreakTarget(s.Label)
	if !ok {
		e := errors.UnresolvedTarget(nil, "break", s.Label)
		e.Line = s.Line()
		panic(e)
	}
	return target
}

func (l *linearizer) continueTarget(s *ast.ContinueStmt) ir.Label {
	target, ok := l.reg.FindContinueTarget(s.Label)
	if !ok {
		e := errors.UnresolvedTarget(nil, "continue", s.Label)
		e.Line = s.Line()
		panic(e)
	}
	return target
}

// jump emits a linearized jump, or keeps s when its target is native.
func (l *linearizer) jump(s ast.Stmt, target ir.Label) {
	if target == ir.Native {
		l.emit(s)
		return
	}
	l.reg.Emit(ir.Break{Target: target})
}

func (l *linearizer) varDecl(d *ast.VarDecl) {
	var pending []ast.Expr
	for _, decl := range d.Decls {
		l.reg.Hoist(decl.Name)
		if decl.Init == nil {
			continue
		}
		if ast.Yields(decl.Init) && len(pending) > 0 {
			l.emitExprs(pending)
			pending = nil
		}
		pending = append(pending, ast.NewAssign("=", ast.NewIdent(decl.Name), l.expr(decl.Init)))
	}
	if len(pending) > 0 {
		l.emitExprs(pending)
	}
}

func (l *linearizer) ifStmt(s *ast.IfStmt) {
	if !ast.Yields(s.Then) && !ast.Yields(s.Else) {
		test := l.expr(s.Test)
		l.emit(ast.At(ast.NewIf(test, l.visitNested(s.Then), l.visitNested(s.Else)), s.Line()))
		return
	}
	end := l.reg.DefineLabel()
	target := end
	var els ir.Label
	if s.Else != nil {
		els = l.reg.DefineLabel()
		target = els
	}
	l.reg.Emit(ir.BreakWhenFalse{Target: target, Cond: l.expr(s.Test)})
	l.statement(s.Then)
	if s.Else != nil {
		l.reg.Emit(ir.Break{Target: end})
		l.reg.MarkLabel(els)
		l.statement(s.Else)
	}
	l.reg.MarkLabel(end)
}

func (l *linearizer) labeled(s *ast.LabeledStmt) {
	names, body := labelChain(s)
	switch body := body.(type) {
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt:
		l.loop(body, names)
	case *ast.SwitchStmt:
		l.switchStmt(body, names)
	default:
		l.reg.BeginBreakBlock(names, true)
		l.statement(body)
		l.reg.EndBreakBlock()
	}
}

// labelChain collects `a: b: body` into its names and body.
func labelChain(s *ast.LabeledStmt) ([]string, ast.Stmt) {
	var names []string
	var body ast.Stmt = s
	for {
		ls, ok := body.(*ast.LabeledStmt)
		if !ok {
			return names, body
		}
		names = append(names, ls.Label)
		body = ls.Body
	}
}

func (l *linearizer) loop(s ast.Stmt, names []string) {
	switch s := s.(type) {
	case *ast.DoWhileStmt:
		l.doWhile(s, names)
	case *ast.WhileStmt:
		l.while(s, names)
	case *ast.ForStmt:
		l.forStmt(s, names)
	case *ast.ForInStmt:
		l.forIn(s, names)
	}
}

func (l *linearizer) doWhile(s *ast.DoWhileStmt, names []string) {
	loop := l.reg.DefineLabel()
	cond := l.reg.DefineLabel()
	l.reg.MarkLabel(loop)
	l.reg.BeginContinueBlock(cond, names)
	l.statement(s.Body)
	l.reg.MarkLabel(cond)
	l.reg.Emit(ir.BreakWhenTrue{Target: loop, Cond: l.expr(s.Test)})
	l.reg.EndContinueBlock()
}

func (l *linearizer) while(s *ast.WhileStmt, names []string) {
	loop := l.reg.DefineLabel()
	end := l.reg.BeginContinueBlock(loop, names)
	l.reg.MarkLabel(loop)
	l.reg.Emit(ir.BreakWhenFalse{Target: end, Cond: l.expr(s.Test)})
	l.statement(s.Body)
	l.reg.Emit(ir.Break{Target: loop})
	l.reg.EndContinueBlock()
}

func (l *linearizer) forStmt(s *ast.ForStmt, names []string) {
	cond := l.reg.DefineLabel()
	step := l.reg.DefineLabel()
	end := l.reg.BeginContinueBlock(step, names)
	switch init := s.Init.(type) {
	case *ast.VarDecl:
		if init != nil {
			l.varDecl(init)
		}
	case ast.Expr:
		l.emit(ast.NewExprStmt(l.expr(init)))
	}
	l.reg.MarkLabel(cond)
	if s.Test != nil {
		l.reg.Emit(ir.BreakWhenFalse{Target: end, Cond: l.expr(s.Test)})
	}
	l.statement(s.Body)
	l.reg.MarkLabel(step)
	if s.Update != nil {
		l.emit(ast.NewExprStmt(l.expr(s.Update)))
	}
	l.reg.Emit(ir.Break{Target: cond})
	l.reg.EndContinueBlock()
}

// forIn snapshots the enumerable keys into an array before the first
// iteration and skips keys deleted while the loop was suspended.
func (l *linearizer) forIn(s *ast.ForInStmt, names []string) {
	obj := l.temp()
	l.emitAssign(obj, l.expr(s.Right))
	keys := l.temp()
	l.emitAssign(keys, ast.NewArray(nil))
	key := l.temp()
	push := ast.NewCall(ast.NewMember(keys, "push"), []ast.Expr{key})
	l.emit(ast.NewForIn(key, obj, ast.NewExprStmt(push)))
	index := l.temp()
	l.emitAssign(index, ast.NewNumber(0))

	cond := l.reg.DefineLabel()
	step := l.reg.DefineLabel()
	end := l.reg.BeginContinueBlock(step, names)
	l.reg.MarkLabel(cond)
	l.reg.Emit(ir.BreakWhenFalse{Target: end, Cond: ast.NewBinary("<", index, ast.NewMember(keys, "length"))})
	l.emitAssign(key, ast.NewIndex(keys, index))
	l.reg.Emit(ir.BreakWhenFalse{Target: step, Cond: ast.NewBinary("in", key, obj)})

	var target ast.Expr
	switch left := s.Left.(type) {
	case *ast.VarDecl:
		for _, d := range left.Decls {
			l.reg.Hoist(d.Name)
		}
		target = ast.NewIdent(left.Decls[0].Name)
	case ast.Expr:
		target = l.expr(left)
	}
	l.emitAssign(target, key)
	l.statement(s.Body)

	l.reg.MarkLabel(step)
	l.emit(ast.NewExprStmt(ast.NewUpdate("++", false, index)))
	l.reg.Emit(ir.Break{Target: cond})
	l.reg.EndContinueBlock()
}

// switchStmt dispatches through native switch statements whose cases
// jump to one label per clause. A case test that suspends starts a new
// native switch so earlier tests are evaluated first.
func (l *linearizer) switchStmt(s *ast.SwitchStmt, names []string) {
	end := l.reg.BeginBreakBlock(names, false)
	disc := l.cache(l.expr(s.Disc))

	labels := make([]ir.Label, len(s.Cases))
	def := -1
	for i, c := range s.Cases {
		labels[i] = l.reg.DefineLabel()
		if c.Test == nil && def < 0 {
			def = i
		}
	}

	for written := 0; written < len(s.Cases); {
		var pending []*ast.CaseClause
		skipped := 0
		for i := written; i < len(s.Cases); i++ {
			c := s.Cases[i]
			if c.Test == nil {
				skipped++
				continue
			}
			if ast.Yields(c.Test) && len(pending) > 0 {
				break
			}
			pending = append(pending, ast.NewCase(l.expr(c.Test), []ast.Stmt{l.cg.Break(labels[i])}))
		}
		if len(pending) > 0 {
			l.emit(ast.NewSwitch(disc, pending))
		}
		written += len(pending) + skipped
	}

	if def >= 0 {
		l.reg.Emit(ir.Break{Target: labels[def]})
	} else {
		l.reg.Emit(ir.Break{Target: end})
	}
	for i, c := range s.Cases {
		l.reg.MarkLabel(labels[i])
		l.statements(c.Body)
	}
	l.reg.EndBreakBlock()
}

func (l *linearizer) tryStmt(s *ast.TryStmt) {
	l.reg.BeginExceptionBlock()
	l.statements(s.Block.List)
	if s.Handler != nil {
		// The binding becomes a function-level variable, so it takes a
		// fresh name to keep it from clobbering an outer one.
		param := l.names.unique(s.Param)
		l.reg.Hoist(param)
		if declares(s.Handler.List, s.Param) {
			l.reg.Hoist(s.Param)
		}
		l.reg.BeginCatchBlock(ast.NewIdent(param), l.cg.Error())
		l.statements(rename(s.Handler.List, s.Param, param))
	}
	if s.Finalizer != nil {
		l.reg.BeginFinallyBlock()
		l.statements(s.Finalizer.List)
	}
	l.reg.EndExceptionBlock()
}

func (l *linearizer) withStmt(s *ast.WithStmt) {
	obj := l.cache(l.expr(s.Object))
	l.reg.BeginWithBlock(obj)
	l.statement(s.Body)
	l.reg.EndWithBlock()
}

// rename replaces references to the binding from with to. Nested
// functions and catch clauses that rebind from keep their own.
func rename(list []ast.Stmt, from, to string) []ast.Stmt {
	var visit ast.Visitor
	visit = func(n ast.Node) ast.Node {
		switch n := n.(type) {
		case *ast.Ident:
			if n.Name == from && !n.Generated {
				return ast.At(ast.NewIdent(to), n.Line())
			}
			return n
		case *ast.VarDecl:
			n = ast.RewriteChildren(n, visit).(*ast.VarDecl)
			decls := make([]ast.Declarator, len(n.Decls))
			changed := false
			for i, d := range n.Decls {
				if d.Name == from {
					d.Name = to
					changed = true
				}
				decls[i] = d
			}
			if !changed {
				return n
			}
			return ast.At(ast.NewVarDecl(n.Kind, decls), n.Line())
		case *ast.Function:
			if binds(n, from) {
				return n
			}
		case *ast.TryStmt:
			if n.Param == from && n.Handler != nil {
				block := ast.RewriteChildren(n.Block, visit).(*ast.BlockStmt)
				var finalizer *ast.BlockStmt
				if n.Finalizer != nil {
					finalizer = ast.RewriteChildren(n.Finalizer, visit).(*ast.BlockStmt)
				}
				return ast.At(ast.NewTry(block, n.Param, n.Handler, finalizer), n.Line())
			}
		}
		return ast.RewriteChildren(n, visit)
	}
	out := make([]ast.Stmt, len(list))
	for i, s := range list {
		out[i] = visit(s).(ast.Stmt)
	}
	return out
}

// binds reports whether fn introduces its own binding for name.
func binds(fn *ast.Function, name string) bool {
	if fn.Name == name {
		return true
	}
	for _, p := range fn.Params {
		if p == name {
			return true
		}
	}
	return name == "arguments" || declares(fn.Body, name)
}

// declares reports whether list declares name with var or a function
// declaration, without looking into nested functions.
func declares(list []ast.Stmt, name string) bool {
	found := false
	for _, s := range list {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.VarDecl:
				for _, d := range n.Decls {
					if d.Name == name {
						found = true
					}
				}
			case *ast.FuncDecl:
				if n.Fn.Name == name {
					found = true
				}
				return false
			case *ast.Function:
				return false
			}
			return !found
		})
	}
	return found
}
