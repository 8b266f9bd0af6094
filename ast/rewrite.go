package ast

import "fmt"

// Visitor maps a child node to its replacement. Returning the argument
// unchanged keeps the parent unchanged. In statement lists a nil result
// removes the statement; in single statement slots it becomes EmptyStmt.
type Visitor func(Node) Node

// RewriteChildren applies visit to every direct child of n in source order
// and rebuilds n through its constructor if any child changed. When no
// child changed, n itself is returned.
func RewriteChildren(n Node, visit Visitor) Node {
	switch n := n.(type) {
	case *Program:
		body, ok := rewriteStmts(n.Body, visit)
		if !ok {
			return n
		}
		return At(NewProgram(body), n.line)

	case *Function:
		body, ok := rewriteStmts(n.Body, visit)
		if !ok {
			return n
		}
		return At(NewFunction(n.Name, n.Params, body, n.Generator), n.line)

	case *Ident, *NumberLit, *StringLit, *BoolLit, *NullLit, *ThisExpr, *LabelRef,
		*EmptyStmt, *BreakStmt, *ContinueStmt:
		return n

	case *ArrayLit:
		elems, ok := rewriteExprs(n.Elements, visit)
		if !ok {
			return n
		}
		return At(NewArray(elems), n.line)

	case *ObjectLit:
		var props []Property
		for i, p := range n.Props {
			v := rewriteExpr(p.Value, visit)
			if v != p.Value && props == nil {
				props = append(make([]Property, 0, len(n.Props)), n.Props[:i]...)
			}
			if props != nil {
				props = append(props, Property{Key: p.Key, Value: v})
			}
		}
		if props == nil {
			return n
		}
		return At(NewObject(props), n.line)

	case *FuncLit:
		fn := rewriteFunction(n.Fn, visit)
		if fn == n.Fn {
			return n
		}
		return At(NewFuncLit(fn), n.line)

	case *UnaryExpr:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewUnary(n.Op, x), n.line)

	case *UpdateExpr:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewUpdate(n.Op, n.Prefix, x), n.line)

	case *BinaryExpr:
		x := rewriteExpr(n.X, visit)
		y := rewriteExpr(n.Y, visit)
		if x == n.X && y == n.Y {
			return n
		}
		return At(NewBinary(n.Op, x, y), n.line)

	case *AssignExpr:
		target := rewriteExpr(n.Target, visit)
		value := rewriteExpr(n.Value, visit)
		if target == n.Target && value == n.Value {
			return n
		}
		return At(NewAssign(n.Op, target, value), n.line)

	case *CondExpr:
		test := rewriteExpr(n.Test, visit)
		then := rewriteExpr(n.Then, visit)
		els := rewriteExpr(n.Else, visit)
		if test == n.Test && then == n.Then && els == n.Else {
			return n
		}
		return At(NewCond(test, then, els), n.line)

	case *SeqExpr:
		list, ok := rewriteExprs(n.List, visit)
		if !ok {
			return n
		}
		return At(NewSeq(list), n.line)

	case *CallExpr:
		callee := rewriteExpr(n.Callee, visit)
		args, ok := rewriteExprs(n.Args, visit)
		if callee == n.Callee && !ok {
			return n
		}
		if !ok {
			args = n.Args
		}
		return At(NewCall(callee, args), n.line)

	case *NewExpr:
		callee := rewriteExpr(n.Callee, visit)
		args, ok := rewriteExprs(n.Args, visit)
		if callee == n.Callee && !ok {
			return n
		}
		if !ok {
			args = n.Args
		}
		return At(NewNew(callee, args), n.line)

	case *MemberExpr:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewMember(x, n.Name), n.line)

	case *IndexExpr:
		x := rewriteExpr(n.X, visit)
		index := rewriteExpr(n.Index, visit)
		if x == n.X && index == n.Index {
			return n
		}
		return At(NewIndex(x, index), n.line)

	case *YieldExpr:
		arg := rewriteExpr(n.Arg, visit)
		if arg == n.Arg {
			return n
		}
		return At(NewYield(arg, n.Delegate), n.line)

	case *VarDecl:
		var decls []Declarator
		for i, d := range n.Decls {
			init := rewriteExpr(d.Init, visit)
			if init != d.Init && decls == nil {
				decls = append(make([]Declarator, 0, len(n.Decls)), n.Decls[:i]...)
			}
			if decls != nil {
				decls = append(decls, Declarator{Name: d.Name, Init: init})
			}
		}
		if decls == nil {
			return n
		}
		return At(NewVarDecl(n.Kind, decls), n.line)

	case *FuncDecl:
		fn := rewriteFunction(n.Fn, visit)
		if fn == n.Fn {
			return n
		}
		return At(NewFuncDecl(fn), n.line)

	case *ExprStmt:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewExprStmt(x), n.line)

	case *BlockStmt:
		list, ok := rewriteStmts(n.List, visit)
		if !ok {
			return n
		}
		return At(NewBlock(list), n.line)

	case *IfStmt:
		test := rewriteExpr(n.Test, visit)
		then := rewriteStmt(n.Then, visit)
		els := rewriteStmt(n.Else, visit)
		if test == n.Test && then == n.Then && els == n.Else {
			return n
		}
		return At(NewIf(test, then, els), n.line)

	case *WhileStmt:
		test := rewriteExpr(n.Test, visit)
		body := rewriteStmt(n.Body, visit)
		if test == n.Test && body == n.Body {
			return n
		}
		return At(NewWhile(test, body), n.line)

	case *DoWhileStmt:
		body := rewriteStmt(n.Body, visit)
		test := rewriteExpr(n.Test, visit)
		if test == n.Test && body == n.Body {
			return n
		}
		return At(NewDoWhile(body, test), n.line)

	case *ForStmt:
		init := rewriteNode(n.Init, visit)
		test := rewriteExpr(n.Test, visit)
		update := rewriteExpr(n.Update, visit)
		body := rewriteStmt(n.Body, visit)
		if init == n.Init && test == n.Test && update == n.Update && body == n.Body {
			return n
		}
		return At(NewFor(init, test, update, body), n.line)

	case *ForInStmt:
		left := rewriteNode(n.Left, visit)
		right := rewriteExpr(n.Right, visit)
		body := rewriteStmt(n.Body, visit)
		if left == n.Left && right == n.Right && body == n.Body {
			return n
		}
		return At(NewForIn(left, right, body), n.line)

	case *CaseClause:
		test := rewriteExpr(n.Test, visit)
		body, ok := rewriteStmts(n.Body, visit)
		if test == n.Test && !ok {
			return n
		}
		if !ok {
			body = n.Body
		}
		return At(NewCase(test, body), n.line)

	case *SwitchStmt:
		disc := rewriteExpr(n.Disc, visit)
		var cases []*CaseClause
		for i, c := range n.Cases {
			nc := visit(c).(*CaseClause)
			if nc != c && cases == nil {
				cases = append(make([]*CaseClause, 0, len(n.Cases)), n.Cases[:i]...)
			}
			if cases != nil {
				cases = append(cases, nc)
			}
		}
		if disc == n.Disc && cases == nil {
			return n
		}
		if cases == nil {
			cases = n.Cases
		}
		return At(NewSwitch(disc, cases), n.line)

	case *LabeledStmt:
		body := rewriteStmt(n.Body, visit)
		if body == n.Body {
			return n
		}
		return At(NewLabeled(n.Label, body), n.line)

	case *ReturnStmt:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewReturn(x), n.line)

	case *ThrowStmt:
		x := rewriteExpr(n.X, visit)
		if x == n.X {
			return n
		}
		return At(NewThrow(x), n.line)

	case *TryStmt:
		block := rewriteBlock(n.Block, visit)
		handler := rewriteBlock(n.Handler, visit)
		finalizer := rewriteBlock(n.Finalizer, visit)
		if block == n.Block && handler == n.Handler && finalizer == n.Finalizer {
			return n
		}
		return At(NewTry(block, n.Param, handler, finalizer), n.line)

	case *WithStmt:
		object := rewriteExpr(n.Object, visit)
		body := rewriteStmt(n.Body, visit)
		if object == n.Object && body == n.Body {
			return n
		}
		return At(NewWith(object, body), n.line)
	}
	panic(fmt.Sprintf("ast: unexpected node %T", n))
}

func rewriteNode(n Node, visit Visitor) Node {
	if isNil(n) {
		return n
	}
	return visit(n)
}

func rewriteExpr(e Expr, visit Visitor) Expr {
	if e == nil {
		return nil
	}
	r := visit(e)
	if r == nil {
		return nil
	}
	return r.(Expr)
}

func rewriteStmt(s Stmt, visit Visitor) Stmt {
	if s == nil {
		return nil
	}
	r := visit(s)
	if r == nil {
		return NewEmpty()
	}
	return r.(Stmt)
}

func rewriteBlock(b *BlockStmt, visit Visitor) *BlockStmt {
	if b == nil {
		return nil
	}
	switch r := visit(b).(type) {
	case *BlockStmt:
		return r
	case nil:
		return NewBlock(nil)
	case Stmt:
		return NewBlock([]Stmt{r})
	}
	panic("ast: block replaced by a non-statement")
}

func rewriteFunction(fn *Function, visit Visitor) *Function {
	return visit(fn).(*Function)
}

func rewriteExprs(list []Expr, visit Visitor) ([]Expr, bool) {
	var out []Expr
	for i, e := range list {
		r := rewriteExpr(e, visit)
		if r != e && out == nil {
			out = append(make([]Expr, 0, len(list)), list[:i]...)
		}
		if out != nil {
			out = append(out, r)
		}
	}
	return out, out != nil
}

func rewriteStmts(list []Stmt, visit Visitor) ([]Stmt, bool) {
	var out []Stmt
	for i, s := range list {
		r := visit(s)
		if r != Node(s) && out == nil {
			out = append(make([]Stmt, 0, len(list)), list[:i]...)
		}
		if out != nil && r != nil {
			out = append(out, r.(Stmt))
		}
	}
	return out, out != nil
}
