package interp

import (
	"fmt"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
)

type ctrl int

const (
	normal ctrl = iota
	brk
	cont
	ret
)

// completion is the outcome of a statement other than a throw.
type completion struct {
	ctrl  ctrl
	label string
	value any
}

var done = completion{}

func (in *Interpreter) execList(list []ast.Stmt, sc *scope) (completion, error) {
	for _, s := range list {
		c, err := in.exec(s, sc)
		if err != nil || c.ctrl != normal {
			return c, err
		}
	}
	return done, nil
}

func (in *Interpreter) exec(s ast.Stmt, sc *scope) (completion, error) {
	switch s := s.(type) {
	case nil, *ast.EmptyStmt, *ast.FuncDecl:
		return done, nil
	case *ast.ExprStmt:
		_, err := in.eval(s.X, sc)
		return done, err
	case *ast.VarDecl:
		for _, d := range s.Decls {
			if d.Init == nil {
				continue
			}
			v, err := in.eval(d.Init, sc)
			if err != nil {
				return done, err
			}
			sc.assign(d.Name, v)
		}
		return done, nil
	case *ast.BlockStmt:
		return in.execList(s.List, sc)
	case *ast.ReturnStmt:
		v := Undefined
		if s.X != nil {
			var err error
			if v, err = in.eval(s.X, sc); err != nil {
				return done, err
			}
		}
		return completion{ctrl: ret, value: v}, nil
	case *ast.ThrowStmt:
		v, err := in.eval(s.X, sc)
		if err != nil {
			return done, err
		}
		return done, throwValue(v)
	case *ast.BreakStmt:
		return completion{ctrl: brk, label: s.Label}, nil
	case *ast.ContinueStmt:
		return completion{ctrl: cont, label: s.Label}, nil
	case *ast.IfStmt:
		v, err := in.eval(s.Test, sc)
		if err != nil {
			return done, err
		}
		if truthy(v) {
			return in.exec(s.Then, sc)
		}
		return in.exec(s.Else, sc)
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt:
		return in.loop(s, nil, sc)
	case *ast.SwitchStmt:
		c, err := in.switchStmt(s, sc)
		if err == nil && c.ctrl == brk && c.label == "" {
			return done, nil
		}
		return c, err
	case *ast.LabeledStmt:
		return in.labeled(s, sc)
	case *ast.TryStmt:
		return in.tryStmt(s, sc)
	case *ast.WithStmt:
		v, err := in.eval(s.Object, sc)
		if err != nil {
			return done, err
		}
		obj, ok := v.(*Object)
		if !ok {
			return done, throwf("TypeError: with requires an object")
		}
		return in.exec(s.Body, sc.withObject(obj))
	}
	return done, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("statement %T", s))
}

func (in *Interpreter) labeled(s *ast.LabeledStmt, sc *scope) (completion, error) {
	var labels []string
	var body ast.Stmt = s
	for {
		l, ok := body.(*ast.LabeledStmt)
		if !ok {
			break
		}
		labels = append(labels, l.Label)
		body = l.Body
	}
	var c completion
	var err error
	switch body.(type) {
	case *ast.WhileStmt, *ast.DoWhileStmt, *ast.ForStmt, *ast.ForInStmt:
		c, err = in.loop(body, labels, sc)
	default:
		c, err = in.exec(body, sc)
	}
	if err == nil && c.ctrl == brk && contains(labels, c.label) {
		return done, nil
	}
	return c, err
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// iteration reports how a loop proceeds after its body completed with c.
// stop is set when the loop must end with the returned completion.
func iteration(c completion, labels []string) (out completion, stop bool) {
	switch c.ctrl {
	case brk:
		if c.label == "" || contains(labels, c.label) {
			return done, true
		}
		return c, true
	case cont:
		if c.label == "" || contains(labels, c.label) {
			return done, false
		}
		return c, true
	case ret:
		return c, true
	}
	return done, false
}

func (in *Interpreter) loop(s ast.Stmt, labels []string, sc *scope) (completion, error) {
	var test func() (bool, error)
	var body ast.Stmt
	var update ast.Expr
	first := false

	switch s := s.(type) {
	case *ast.ForInStmt:
		return in.forIn(s, labels, sc)
	case *ast.WhileStmt:
		body = s.Body
		test = in.condition(s.Test, sc)
	case *ast.DoWhileStmt:
		body = s.Body
		test = in.condition(s.Test, sc)
		first = true
	case *ast.ForStmt:
		switch init := s.Init.(type) {
		case nil:
		case ast.Stmt:
			if _, err := in.exec(init, sc); err != nil {
				return done, err
			}
		case ast.Expr:
			if _, err := in.eval(init, sc); err != nil {
				return done, err
			}
		}
		body = s.Body
		test = in.condition(s.Test, sc)
		update = s.Update
	}

	for {
		if err := in.checkContext(); err != nil {
			return done, err
		}
		if !first {
			ok, err := test()
			if err != nil || !ok {
				return done, err
			}
		}
		first = false
		c, err := in.exec(body, sc)
		if err != nil {
			return done, err
		}
		if out, stop := iteration(c, labels); stop {
			return out, nil
		}
		if update != nil {
			if _, err := in.eval(update, sc); err != nil {
				return done, err
			}
		}
	}
}

func (in *Interpreter) condition(x ast.Expr, sc *scope) func() (bool, error) {
	return func() (bool, error) {
		if x == nil {
			return true, nil
		}
		v, err := in.eval(x, sc)
		return truthy(v), err
	}
}

// forIn iterates a snapshot of the keys, skipping keys deleted during the
// loop.
func (in *Interpreter) forIn(s *ast.ForInStmt, labels []string, sc *scope) (completion, error) {
	obj, err := in.eval(s.Right, sc)
	if err != nil {
		return done, err
	}
	for _, key := range keysOf(obj) {
		if err := in.checkContext(); err != nil {
			return done, err
		}
		if !hasKey(obj, key) {
			continue
		}
		switch left := s.Left.(type) {
		case *ast.VarDecl:
			sc.assign(left.Decls[0].Name, key)
		case ast.Expr:
			if err := in.store(left, key, sc); err != nil {
				return done, err
			}
		}
		c, err := in.exec(s.Body, sc)
		if err != nil {
			return done, err
		}
		if out, stop := iteration(c, labels); stop {
			return out, nil
		}
	}
	return done, nil
}

func (in *Interpreter) switchStmt(s *ast.SwitchStmt, sc *scope) (completion, error) {
	disc, err := in.eval(s.Disc, sc)
	if err != nil {
		return done, err
	}
	start := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		v, err := in.eval(c.Test, sc)
		if err != nil {
			return done, err
		}
		if strictEquals(disc, v) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range s.Cases {
			if c.Test == nil {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return done, nil
	}
	for _, c := range s.Cases[start:] {
		comp, err := in.execList(c.Body, sc)
		if err != nil || comp.ctrl != normal {
			return comp, err
		}
	}
	return done, nil
}

func (in *Interpreter) tryStmt(s *ast.TryStmt, sc *scope) (completion, error) {
	c, err := in.execList(s.Block.List, sc)
	if err != nil && s.Handler != nil {
		if ex, ok := catchable(err); ok {
			inner := newScope(sc, sc.fn)
			if s.Param != "" {
				inner.vars[s.Param] = ex.Value
			}
			c, err = in.execList(s.Handler.List, inner)
		}
	}
	if s.Finalizer == nil {
		return c, err
	}
	fc, ferr := in.execList(s.Finalizer.List, sc)
	if ferr != nil || fc.ctrl != normal {
		return fc, ferr
	}
	return c, err
}
