package engine

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/generator/internal/ir"
)

// expr rewrites x so that it contains no suspension point. Operations for
// the parts that must run before a suspension are emitted as a side
// effect; the returned expression computes the rest.
func (l *linearizer) expr(x ast.Expr) ast.Expr {
	if x == nil || !ast.Yields(x) {
		return x
	}
	switch x := x.(type) {
	case *ast.YieldExpr:
		return l.yield(x)
	case *ast.BinaryExpr:
		if x.IsLogical() {
			return l.logical(x)
		}
		return l.binary(x)
	case *ast.AssignExpr:
		return l.assign(x)
	case *ast.CondExpr:
		return l.conditional(x)
	case *ast.SeqExpr:
		return l.comma(x)
	case *ast.ArrayLit:
		return l.array(x)
	case *ast.ObjectLit:
		return l.object(x)
	case *ast.IndexExpr:
		return l.index(x)
	case *ast.CallExpr:
		return l.call(x)
	case *ast.NewExpr:
		return l.newExpr(x)
	}
	return ast.RewriteChildren(x, l.visitExpr).(ast.Expr)
}

func (l *linearizer) visitExpr(n ast.Node) ast.Node {
	if x, ok := n.(ast.Expr); ok {
		return l.expr(x)
	}
	return n
}

// cache stores x in a temporary unless re-reading it later is harmless.
func (l *linearizer) cache(x ast.Expr) ast.Expr {
	switch v := x.(type) {
	case *ast.Ident:
		if v.Generated {
			return x
		}
	case *ast.NumberLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit:
		return x
	}
	t := l.temp()
	l.emitAssign(t, x)
	return t
}

func (l *linearizer) yield(x *ast.YieldExpr) ast.Expr {
	value := l.expr(x.Arg)
	if x.Delegate {
		l.reg.Emit(ir.YieldStar{Value: value})
	} else {
		l.reg.Emit(ir.Yield{Value: value})
	}
	resume := l.reg.DefineLabel()
	l.reg.MarkLabel(resume)
	return l.cg.Sent()
}

func (l *linearizer) binary(x *ast.BinaryExpr) ast.Expr {
	if !ast.Yields(x.Y) {
		return ast.NewBinary(x.Op, l.expr(x.X), x.Y)
	}
	left := l.cache(l.expr(x.X))
	return ast.NewBinary(x.Op, left, l.expr(x.Y))
}

// logical lowers `a && b` and `a || b` whose right operand suspends:
//
//	result = a; if (!result) break end; result = b; end:
func (l *linearizer) logical(x *ast.BinaryExpr) ast.Expr {
	if !ast.Yields(x.Y) {
		return ast.NewBinary(x.Op, l.expr(x.X), x.Y)
	}
	end := l.reg.DefineLabel()
	result := l.temp()
	l.emitAssign(result, l.expr(x.X))
	if x.Op == "&&" {
		l.reg.Emit(ir.BreakWhenFalse{Target: end, Cond: result})
	} else {
		l.reg.Emit(ir.BreakWhenTrue{Target: end, Cond: result})
	}
	l.emitAssign(result, l.expr(x.Y))
	l.reg.MarkLabel(end)
	return result
}

func (l *linearizer) conditional(x *ast.CondExpr) ast.Expr {
	if !ast.Yields(x.Then) && !ast.Yields(x.Else) {
		return ast.NewCond(l.expr(x.Test), x.Then, x.Else)
	}
	whenFalse := l.reg.DefineLabel()
	end := l.reg.DefineLabel()
	result := l.temp()
	l.reg.Emit(ir.BreakWhenFalse{Target: whenFalse, Cond: l.expr(x.Test)})
	l.emitAssign(result, l.expr(x.Then))
	l.reg.Emit(ir.Break{Target: end})
	l.reg.MarkLabel(whenFalse)
	l.emitAssign(result, l.expr(x.Else))
	l.reg.MarkLabel(end)
	return result
}

// comma flushes the elements merged so far as a statement before an
// element that suspends.
func (l *linearizer) comma(x *ast.SeqExpr) ast.Expr {
	var pending []ast.Expr
	for _, e := range x.List {
		if ast.Yields(e) && len(pending) > 0 {
			l.emitExprs(pending)
			pending = nil
		}
		pending = append(pending, l.expr(e))
	}
	return sequence(pending)
}

func (l *linearizer) assign(x *ast.AssignExpr) ast.Expr {
	if !ast.Yields(x.Value) {
		return ast.NewAssign(x.Op, l.expr(x.Target), x.Value)
	}
	var target ast.Expr
	switch t := x.Target.(type) {
	case *ast.MemberExpr:
		target = ast.NewMember(l.cache(l.expr(t.X)), t.Name)
	case *ast.IndexExpr:
		obj := l.cache(l.expr(t.X))
		target = ast.NewIndex(obj, l.cache(l.expr(t.Index)))
	default:
		target = x.Target
	}
	if op := x.BinaryOp(); op != "" {
		current := l.cache(target)
		return ast.NewAssign("=", target, ast.NewBinary(op, current, l.expr(x.Value)))
	}
	return ast.NewAssign("=", target, l.expr(x.Value))
}

// array builds the literal up to the first suspending element, then
// appends the rest in batches with concat.
func (l *linearizer) array(x *ast.ArrayLit) ast.Expr {
	first := firstYield(x.Elements)
	result := l.temp()
	l.emitAssign(result, ast.NewArray(x.Elements[:first]))
	var pending []ast.Expr
	for _, e := range x.Elements[first:] {
		if ast.Yields(e) && len(pending) > 0 {
			l.emitAssign(result, concat(result, pending))
			pending = nil
		}
		pending = append(pending, l.expr(e))
	}
	if len(pending) == 0 {
		return result
	}
	return concat(result, pending)
}

func concat(array ast.Expr, elems []ast.Expr) ast.Expr {
	return ast.NewCall(ast.NewMember(array, "concat"), []ast.Expr{ast.NewArray(elems)})
}

func firstYield(list []ast.Expr) int {
	for i, e := range list {
		if ast.Yields(e) {
			return i
		}
	}
	return len(list)
}

func (l *linearizer) object(x *ast.ObjectLit) ast.Expr {
	first := len(x.Props)
	for i, p := range x.Props {
		if ast.Yields(p.Value) {
			first = i
			break
		}
	}
	result := l.temp()
	l.emitAssign(result, ast.NewObject(x.Props[:first]))
	var pending []ast.Expr
	for _, p := range x.Props[first:] {
		if ast.Yields(p.Value) && len(pending) > 0 {
			l.emitExprs(pending)
			pending = nil
		}
		pending = append(pending, ast.NewAssign("=", property(result, p.Key), l.expr(p.Value)))
	}
	pending = append(pending, result)
	return sequence(pending)
}

func property(obj ast.Expr, key string) ast.Expr {
	if isIdentifierName(key) {
		return ast.NewMember(obj, key)
	}
	return ast.NewIndex(obj, ast.NewString(key))
}

func isIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (l *linearizer) index(x *ast.IndexExpr) ast.Expr {
	if !ast.Yields(x.Index) {
		return ast.NewIndex(l.expr(x.X), x.Index)
	}
	obj := l.cache(l.expr(x.X))
	return ast.NewIndex(obj, l.expr(x.Index))
}

// call keeps the receiver of a method call whose arguments suspend by
// calling the cached method through .call.
func (l *linearizer) call(x *ast.CallExpr) ast.Expr {
	if firstYield(x.Args) == len(x.Args) {
		return ast.NewCall(l.expr(x.Callee), x.Args)
	}
	var callee, receiver ast.Expr
	switch c := x.Callee.(type) {
	case *ast.MemberExpr:
		receiver = l.cache(l.expr(c.X))
		callee = l.cache(ast.NewMember(receiver, c.Name))
	case *ast.IndexExpr:
		receiver = l.cache(l.expr(c.X))
		callee = l.cache(ast.NewIndex(receiver, l.cache(l.expr(c.Index))))
	default:
		callee = l.cache(l.expr(x.Callee))
	}
	args := l.arguments(x.Args)
	if receiver == nil {
		return ast.NewCall(callee, args)
	}
	return ast.NewCall(ast.NewMember(callee, "call"), append([]ast.Expr{receiver}, args...))
}

func (l *linearizer) newExpr(x *ast.NewExpr) ast.Expr {
	if firstYield(x.Args) == len(x.Args) {
		return ast.NewNew(l.expr(x.Callee), x.Args)
	}
	callee := l.cache(l.expr(x.Callee))
	return ast.NewNew(callee, l.arguments(x.Args))
}

// arguments caches every argument evaluated before the last one that
// suspends.
func (l *linearizer) arguments(list []ast.Expr) []ast.Expr {
	last := -1
	for i, e := range list {
		if ast.Yields(e) {
			last = i
		}
	}
	out := make([]ast.Expr, len(list))
	for i, e := range list {
		if i < last {
			out[i] = l.cache(l.expr(e))
		} else {
			out[i] = l.expr(e)
		}
	}
	return out
}
