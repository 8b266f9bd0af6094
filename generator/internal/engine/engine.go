package engine

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator/internal/codegen"
	"github.com/wippyai/genlower/generator/internal/ir"
	"go.uber.org/zap"
)

const (
	DefaultHelperName = "__generator"
	DefaultStateName  = "state"
)

// FunctionMatcher determines if a function should be included or excluded.
type FunctionMatcher interface {
	MatchFunction(name string) bool
}

// Config configures the lowering engine.
type Config struct {
	// HelperName is the driver primitive the lowered body calls.
	HelperName string
	// StateName is the preferred name of the driver function's parameter.
	// It is renamed when the function already uses it.
	StateName string
	// Annotate prints instruction names next to instruction codes.
	Annotate bool
}

// Engine lowers generator functions.
//
// The engine holds no state between calls; one Engine may lower many
// functions concurrently.
type Engine struct {
	helper   string
	state    string
	annotate bool
}

// New creates an engine with the given config.
func New(cfg Config) *Engine {
	helper := cfg.HelperName
	if helper == "" {
		helper = DefaultHelperName
	}
	state := cfg.StateName
	if state == "" {
		state = DefaultStateName
	}
	return &Engine{helper: helper, state: state, annotate: cfg.Annotate}
}

// bailout converts a fatal consistency panic into an error carrying the
// function name. Other panics propagate.
func bailout(name string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(*errors.Error)
	if !ok {
		panic(r)
	}
	if len(e.Path) == 0 && name != "" {
		e.Path = []string{name}
	}
	*err = e
}

func functionName(fn *ast.Function) string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}

// Linearize runs the first phase over the body of fn.
func (e *Engine) Linearize(fn *ast.Function) (prog *ir.Program, err error) {
	defer bailout(functionName(fn), &err)

	n := newNames(ast.Names(fn))
	state := n.unique(e.state)
	this := n.unique("_this")
	arguments := n.unique("_arguments")

	l := newLinearizer(n, codegen.Builder{State: state, Annotate: e.annotate})
	prog = l.linearize(fn.Body)
	prog.State = state
	prog.This = this
	prog.Arguments = arguments
	return prog, nil
}

// Assemble runs the second phase and returns the lowered function body.
func (e *Engine) Assemble(prog *ir.Program) (body []ast.Stmt, err error) {
	defer bailout("", &err)
	body, _ = assemble(prog, e.helper, e.annotate)
	return body, nil
}

// Lower returns a plain function equivalent to the generator fn. Functions
// that are not generators are returned unchanged.
func (e *Engine) Lower(fn *ast.Function) (out *ast.Function, err error) {
	if !fn.Generator {
		return fn, nil
	}
	name := functionName(fn)
	prog, err := e.Linearize(fn)
	if err != nil {
		return nil, err
	}

	var body []ast.Stmt
	var clauses int
	func() {
		defer bailout(name, &err)
		body, clauses = assemble(prog, e.helper, e.annotate)
	}()
	if err != nil {
		return nil, err
	}

	Logger().Debug("lowered generator",
		zap.String("func", name),
		zap.Int("operations", len(prog.Ops)),
		zap.Int("labels", len(prog.Labels)-1),
		zap.Int("clauses", clauses),
		zap.Strings("hoisted", prog.Variables),
		zap.Bool("protected", prog.HasProtectedRegions))

	return ast.At(ast.NewFunction(fn.Name, fn.Params, body, false), fn.Line()), nil
}
