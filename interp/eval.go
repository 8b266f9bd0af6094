package interp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/runtime"
)

func throwValue(v any) error {
	return &runtime.Exception{Value: v}
}

func (in *Interpreter) eval(x ast.Expr, sc *scope) (any, error) {
	switch x := x.(type) {
	case nil:
		return Undefined, nil
	case *ast.Ident:
		v, ok := sc.lookup(x.Name)
		if !ok {
			return nil, throwf("ReferenceError: %s is not defined", x.Name)
		}
		return v, nil
	case *ast.NumberLit:
		return x.Value, nil
	case *ast.StringLit:
		return x.Value, nil
	case *ast.BoolLit:
		return x.Value, nil
	case *ast.NullLit:
		return Null, nil
	case *ast.ThisExpr:
		return sc.fn.this, nil
	case *ast.ArrayLit:
		elems := make([]any, len(x.Elements))
		for i, e := range x.Elements {
			if e == nil {
				continue
			}
			v, err := in.eval(e, sc)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil
	case *ast.ObjectLit:
		obj := NewObject()
		for _, p := range x.Props {
			v, err := in.eval(p.Value, sc)
			if err != nil {
				return nil, err
			}
			obj.Set(p.Key, v)
		}
		return obj, nil
	case *ast.FuncLit:
		return in.closure(x.Fn, sc), nil
	case *ast.UnaryExpr:
		return in.unary(x, sc)
	case *ast.UpdateExpr:
		return in.update(x, sc)
	case *ast.BinaryExpr:
		if x.IsLogical() {
			left, err := in.eval(x.X, sc)
			if err != nil || truthy(left) == (x.Op == "||") {
				return left, err
			}
			return in.eval(x.Y, sc)
		}
		left, err := in.eval(x.X, sc)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(x.Y, sc)
		if err != nil {
			return nil, err
		}
		return in.binary(x.Op, left, right)
	case *ast.AssignExpr:
		return in.assign(x, sc)
	case *ast.CondExpr:
		test, err := in.eval(x.Test, sc)
		if err != nil {
			return nil, err
		}
		if truthy(test) {
			return in.eval(x.Then, sc)
		}
		return in.eval(x.Else, sc)
	case *ast.SeqExpr:
		var v any = Undefined
		for _, e := range x.List {
			var err error
			if v, err = in.eval(e, sc); err != nil {
				return nil, err
			}
		}
		return v, nil
	case *ast.CallExpr:
		return in.callExpr(x, sc)
	case *ast.NewExpr:
		return in.newExpr(x, sc)
	case *ast.MemberExpr:
		obj, err := in.eval(x.X, sc)
		if err != nil {
			return nil, err
		}
		return in.get(obj, x.Name)
	case *ast.IndexExpr:
		obj, err := in.eval(x.X, sc)
		if err != nil {
			return nil, err
		}
		key, err := in.eval(x.Index, sc)
		if err != nil {
			return nil, err
		}
		return in.get(obj, propertyKey(key))
	case *ast.YieldExpr:
		return in.yield(x, sc)
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("expression %T", x))
}

func propertyKey(v any) string {
	return toString(v)
}

func arrayIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

func (in *Interpreter) unary(x *ast.UnaryExpr, sc *scope) (any, error) {
	switch x.Op {
	case "typeof":
		if id, ok := x.X.(*ast.Ident); ok {
			v, found := sc.lookup(id.Name)
			if !found {
				return "undefined", nil
			}
			return typeOf(v), nil
		}
	case "delete":
		switch t := x.X.(type) {
		case *ast.MemberExpr, *ast.IndexExpr:
			obj, key, err := in.reference(t, sc)
			if err != nil {
				return nil, err
			}
			if o, ok := obj.(*Object); ok {
				return o.Delete(key), nil
			}
			if a, ok := obj.(*Array); ok {
				if i, ok := arrayIndex(key); ok && i < len(a.Elements) {
					a.Elements[i] = nil
				}
			}
			return true, nil
		}
		return true, nil
	}

	v, err := in.eval(x.X, sc)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "typeof":
		return typeOf(v), nil
	case "!":
		return !truthy(v), nil
	case "-":
		return -toNumber(v), nil
	case "+":
		return toNumber(v), nil
	case "~":
		return float64(^toInt32(v)), nil
	case "void":
		return Undefined, nil
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, "unary "+x.Op)
}

func (in *Interpreter) update(x *ast.UpdateExpr, sc *scope) (any, error) {
	var obj any
	var key string
	var old any
	var err error
	id, isIdent := x.X.(*ast.Ident)
	if isIdent {
		old, err = in.eval(id, sc)
	} else if obj, key, err = in.reference(x.X, sc); err == nil {
		old, err = in.get(obj, key)
	}
	if err != nil {
		return nil, err
	}
	n := toNumber(old)
	next := n + 1
	if x.Op == "--" {
		next = n - 1
	}
	if isIdent {
		sc.assign(id.Name, next)
	} else if err := in.set(obj, key, next); err != nil {
		return nil, err
	}
	if x.Prefix {
		return next, nil
	}
	return n, nil
}

// reference evaluates the object and key of a property target.
func (in *Interpreter) reference(x ast.Expr, sc *scope) (any, string, error) {
	switch t := x.(type) {
	case *ast.MemberExpr:
		obj, err := in.eval(t.X, sc)
		return obj, t.Name, err
	case *ast.IndexExpr:
		obj, err := in.eval(t.X, sc)
		if err != nil {
			return nil, "", err
		}
		key, err := in.eval(t.Index, sc)
		if err != nil {
			return nil, "", err
		}
		return obj, propertyKey(key), nil
	}
	return nil, "", throwf("SyntaxError: invalid assignment target")
}

// store assigns v to the target x, evaluating the target's parts.
func (in *Interpreter) store(x ast.Expr, v any, sc *scope) error {
	if id, ok := x.(*ast.Ident); ok {
		sc.assign(id.Name, v)
		return nil
	}
	obj, key, err := in.reference(x, sc)
	if err != nil {
		return err
	}
	return in.set(obj, key, v)
}

func (in *Interpreter) assign(x *ast.AssignExpr, sc *scope) (any, error) {
	op := x.BinaryOp()
	if id, ok := x.Target.(*ast.Ident); ok {
		var old any
		if op != "" {
			var err error
			if old, err = in.eval(id, sc); err != nil {
				return nil, err
			}
		}
		v, err := in.eval(x.Value, sc)
		if err != nil {
			return nil, err
		}
		if op != "" {
			if v, err = in.binary(op, old, v); err != nil {
				return nil, err
			}
		}
		sc.assign(id.Name, v)
		return v, nil
	}

	obj, key, err := in.reference(x.Target, sc)
	if err != nil {
		return nil, err
	}
	var old any
	if op != "" {
		if old, err = in.get(obj, key); err != nil {
			return nil, err
		}
	}
	v, err := in.eval(x.Value, sc)
	if err != nil {
		return nil, err
	}
	if op != "" {
		if v, err = in.binary(op, old, v); err != nil {
			return nil, err
		}
	}
	return v, in.set(obj, key, v)
}

func (in *Interpreter) binary(op string, a, b any) (any, error) {
	switch op {
	case "+":
		pa, pb := toPrimitive(a), toPrimitive(b)
		_, sa := pa.(string)
		_, sb := pb.(string)
		if sa || sb {
			return toString(pa) + toString(pb), nil
		}
		return toNumber(pa) + toNumber(pb), nil
	case "-":
		return toNumber(a) - toNumber(b), nil
	case "*":
		return toNumber(a) * toNumber(b), nil
	case "/":
		return toNumber(a) / toNumber(b), nil
	case "%":
		return math.Mod(toNumber(a), toNumber(b)), nil
	case "**":
		return math.Pow(toNumber(a), toNumber(b)), nil
	case "==":
		return looseEquals(a, b), nil
	case "!=":
		return !looseEquals(a, b), nil
	case "===":
		return strictEquals(a, b), nil
	case "!==":
		return !strictEquals(a, b), nil
	case "<", ">", "<=", ">=":
		return compare(op, toPrimitive(a), toPrimitive(b)), nil
	case "&":
		return float64(toInt32(a) & toInt32(b)), nil
	case "|":
		return float64(toInt32(a) | toInt32(b)), nil
	case "^":
		return float64(toInt32(a) ^ toInt32(b)), nil
	case "<<":
		return float64(toInt32(a) << (uint32(toInt32(b)) & 31)), nil
	case ">>":
		return float64(toInt32(a) >> (uint32(toInt32(b)) & 31)), nil
	case ">>>":
		return float64(uint32(toInt32(a)) >> (uint32(toInt32(b)) & 31)), nil
	case "in":
		switch b.(type) {
		case *Object, *Array:
			return hasKey(b, propertyKey(a)), nil
		}
		return nil, throwf("TypeError: cannot use 'in' on %s", typeOf(b))
	case "instanceof":
		c, ok := b.(*Closure)
		if !ok {
			return nil, throwf("TypeError: right-hand side of instanceof is not callable")
		}
		o, ok := a.(*Object)
		return ok && o.ctor == c, nil
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, "binary "+op)
}

func compare(op string, a, b any) bool {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch op {
			case "<":
				return sa < sb
			case ">":
				return sa > sb
			case "<=":
				return sa <= sb
			}
			return sa >= sb
		}
	}
	x, y := toNumber(a), toNumber(b)
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	}
	return x >= y
}

func (in *Interpreter) callExpr(x *ast.CallExpr, sc *scope) (any, error) {
	var fn any
	this := Undefined
	switch c := x.Callee.(type) {
	case *ast.MemberExpr, *ast.IndexExpr:
		obj, key, err := in.reference(c, sc)
		if err != nil {
			return nil, err
		}
		if fn, err = in.get(obj, key); err != nil {
			return nil, err
		}
		this = obj
	default:
		var err error
		if fn, err = in.eval(x.Callee, sc); err != nil {
			return nil, err
		}
	}
	args, err := in.args(x.Args, sc)
	if err != nil {
		return nil, err
	}
	return in.call(fn, this, args)
}

func (in *Interpreter) args(list []ast.Expr, sc *scope) ([]any, error) {
	args := make([]any, len(list))
	for i, a := range list {
		v, err := in.eval(a, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (in *Interpreter) newExpr(x *ast.NewExpr, sc *scope) (any, error) {
	fn, err := in.eval(x.Callee, sc)
	if err != nil {
		return nil, err
	}
	args, err := in.args(x.Args, sc)
	if err != nil {
		return nil, err
	}
	c, ok := fn.(*Closure)
	if !ok || c.Fn.Generator {
		if b, ok := fn.(*Builtin); ok {
			return b.Fn(Undefined, args)
		}
		return nil, throwf("TypeError: %s is not a constructor", Format(fn))
	}
	obj := NewObject()
	obj.ctor = c
	v, err := in.invoke(c, obj, args, nil)
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case *Object, *Array, *Closure:
		return v, nil
	}
	return obj, nil
}

func (in *Interpreter) yield(x *ast.YieldExpr, sc *scope) (any, error) {
	co := sc.fn.co
	if co == nil {
		return nil, errors.Unsupported(errors.PhaseRuntime, "yield outside a generator")
	}
	v, err := in.eval(x.Arg, sc)
	if err != nil {
		return nil, err
	}
	if !x.Delegate {
		return co.yield(v)
	}
	it, err := in.iterate(v)
	if err != nil {
		return nil, err
	}
	return co.delegate(it)
}
