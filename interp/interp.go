package interp

import (
	"context"
	stderrors "errors"
	"math"
	"sync"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/runtime"
)

// Interpreter evaluates programs of the source subset and their lowered
// form. One interpreter runs one program at a time.
type Interpreter struct {
	global *scope
	ctx    context.Context

	mu   sync.Mutex
	live map[*coroutine]struct{}
}

// New creates an interpreter with the standard globals, including the
// generator driver primitive.
func New() *Interpreter {
	in := &Interpreter{live: make(map[*coroutine]struct{}), ctx: context.Background()}
	in.global = newScope(nil, nil)
	in.global.fn = &frame{this: Undefined, vars: in.global}

	in.Define("undefined", Undefined)
	in.Define("NaN", math.NaN())
	in.Define("Infinity", math.Inf(1))

	m := NewObject()
	m.Set("pow", builtin("pow", func(_ any, args []any) (any, error) {
		return math.Pow(toNumber(arg(args, 0)), toNumber(arg(args, 1))), nil
	}))
	m.Set("floor", builtin("floor", func(_ any, args []any) (any, error) {
		return math.Floor(toNumber(arg(args, 0))), nil
	}))
	m.Set("abs", builtin("abs", func(_ any, args []any) (any, error) {
		return math.Abs(toNumber(arg(args, 0))), nil
	}))
	in.Define("Math", m)
	in.Define(generator.DefaultHelperName, builtin(generator.DefaultHelperName, in.driver))
	return in
}

func builtin(name string, fn func(this any, args []any) (any, error)) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

// Define binds a global. Go functions of the Builtin shape are callable
// from scripts.
func (in *Interpreter) Define(name string, v any) {
	in.global.vars[name] = v
}

// Global returns the value of a global binding.
func (in *Interpreter) Global(name string) (any, bool) {
	return in.global.lookup(name)
}

// Run executes prog in the global scope.
func (in *Interpreter) Run(ctx context.Context, prog *ast.Program) error {
	if prog == nil {
		return errors.InvalidInput(errors.PhaseRuntime, "nil program")
	}
	in.ctx = ctx
	hoist(prog.Body, in.global)
	c, err := in.execList(prog.Body, in.global)
	if err != nil {
		return err
	}
	if c.ctrl != normal {
		return errors.Unsupported(errors.PhaseRuntime, "break, continue or return outside a function")
	}
	return nil
}

// Eval executes prog like Run and returns the value of the last top-level
// expression statement, or undefined.
func (in *Interpreter) Eval(ctx context.Context, prog *ast.Program) (any, error) {
	if prog == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil program")
	}
	in.ctx = ctx
	hoist(prog.Body, in.global)
	result := Undefined
	for _, s := range prog.Body {
		if x, ok := s.(*ast.ExprStmt); ok {
			v, err := in.eval(x.X, in.global)
			if err != nil {
				return nil, err
			}
			result = v
			continue
		}
		c, err := in.exec(s, in.global)
		if err != nil {
			return nil, err
		}
		if c.ctrl != normal {
			return nil, errors.Unsupported(errors.PhaseRuntime, "break, continue or return outside a function")
		}
	}
	return result, nil
}

// Call invokes the global function name with args.
func (in *Interpreter) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := in.global.lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	in.ctx = ctx
	return in.call(fn, Undefined, args)
}

// Close returns every suspended native generator so their goroutines
// exit. Pending finally clauses run.
func (in *Interpreter) Close() {
	in.mu.Lock()
	live := make([]*coroutine, 0, len(in.live))
	for co := range in.live {
		live = append(live, co)
	}
	in.mu.Unlock()
	for _, co := range live {
		_, _ = co.Return(Undefined)
	}
}

func (in *Interpreter) track(co *coroutine, alive bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if alive {
		in.live[co] = struct{}{}
	} else {
		delete(in.live, co)
	}
}

// throwf returns a catchable script error.
func throwf(format string, args ...any) error {
	return runtime.Throwf(format, args...)
}

// catchable reports whether a script catch clause may intercept err.
func catchable(err error) (*runtime.Exception, bool) {
	var ex *runtime.Exception
	if stderrors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// scriptError turns a driver failure into a value scripts can catch.
func scriptError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := catchable(err); ok {
		return err
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Phase == errors.PhaseRuntime {
		return &runtime.Exception{Value: "TypeError: " + e.Detail}
	}
	return err
}

func (in *Interpreter) call(fn, this any, args []any) (any, error) {
	switch f := fn.(type) {
	case *Builtin:
		return f.Fn(this, args)
	case *Closure:
		if f.Fn.Generator {
			return in.newCoroutine(f, this, args), nil
		}
		return in.invoke(f, this, args, nil)
	}
	return nil, throwf("TypeError: %s is not a function", Format(fn))
}

// invoke runs the body of c in a fresh call frame.
func (in *Interpreter) invoke(c *Closure, this any, args []any, co *coroutine) (any, error) {
	fr := &frame{this: this, co: co}
	sc := newScope(c.scope, fr)
	fr.vars = sc
	sc.vars["arguments"] = NewArray(append([]any(nil), args...)...)
	for i, p := range c.Fn.Params {
		sc.vars[p] = arg(args, i)
	}
	hoist(c.Fn.Body, sc)

	comp, err := in.execList(c.Fn.Body, sc)
	if err != nil {
		return nil, err
	}
	if comp.ctrl == ret {
		return comp.value, nil
	}
	return Undefined, nil
}

func (in *Interpreter) closure(fn *ast.Function, sc *scope) *Closure {
	c := &Closure{Fn: fn, scope: sc}
	if fn.Name != "" {
		own := newScope(sc, sc.fn)
		own.vars[fn.Name] = c
		c.scope = own
	}
	return c
}

// hoist declares the variables and functions of a function body.
func hoist(body []ast.Stmt, sc *scope) {
	for _, s := range body {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.VarDecl:
				for _, d := range n.Decls {
					sc.declare(d.Name, Undefined)
				}
			case *ast.FuncDecl:
				c := &Closure{Fn: n.Fn, scope: sc}
				sc.vars[n.Fn.Name] = c
				return false
			case *ast.FuncLit, *ast.Function:
				return false
			}
			return true
		})
	}
}

func (in *Interpreter) checkContext() error {
	return in.ctx.Err()
}
