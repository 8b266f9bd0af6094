package transform

import (
	"strings"
	"sync"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"go.uber.org/zap"
)

// Scope locates a node by the functions enclosing it.
type Scope struct {
	Path []string
}

// Name joins the enclosing function names with dots.
func (s Scope) Name() string {
	return strings.Join(s.Path, ".")
}

func (s Scope) enter(fn *ast.Function) Scope {
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	path := make([]string, len(s.Path), len(s.Path)+1)
	copy(path, s.Path)
	return Scope{Path: append(path, name)}
}

// Stage is one rewrite in the pipeline.
type Stage interface {
	// Name identifies the stage in logs and errors.
	Name() string
	// PopsAt reports whether the stage is inactive inside fn.
	PopsAt(fn *ast.Function) bool
	// Visit rewrites n after its children. Returning n unchanged is the
	// common case.
	Visit(n ast.Node, scope Scope) (ast.Node, error)
}

// Config configures a pipeline.
type Config struct {
	// Stages run in order on every node.
	Stages []Stage
	// Parallelism bounds how many top-level statements are transformed
	// concurrently. Values below 2 run sequentially.
	Parallelism int
}

// Pipeline applies stages to programs and functions. It holds no state
// between calls.
type Pipeline struct {
	stages      []Stage
	parallelism int
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{stages: cfg.Stages, parallelism: cfg.Parallelism}
}

// Program transforms every statement of prog.
func (p *Pipeline) Program(prog *ast.Program) (*ast.Program, error) {
	if prog == nil {
		return nil, errors.InvalidInput(errors.PhaseTransform, "nil program")
	}
	active := p.active(prog)
	if len(active) == 0 {
		return prog, nil
	}

	body := make([]ast.Stmt, len(prog.Body))
	errs := make([]error, len(prog.Body))
	each := func(i int) {
		w := &walker{active: active}
		body[i] = w.statement(prog.Body[i])
		errs[i] = w.err
	}

	if p.parallelism < 2 || len(prog.Body) < 2 {
		for i := range prog.Body {
			each(i)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, p.parallelism)
		for i := range prog.Body {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				each(i)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	var out []ast.Stmt
	changed := false
	for i, s := range body {
		if s != prog.Body[i] {
			changed = true
		}
		if s != nil {
			out = append(out, s)
		}
	}
	if !changed {
		return prog, nil
	}
	return ast.At(ast.NewProgram(out), prog.Line()), nil
}

// Function transforms a single function, including fn itself.
func (p *Pipeline) Function(fn *ast.Function) (*ast.Function, error) {
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseTransform, "nil function")
	}
	w := &walker{active: p.stages}
	out := w.function(fn)
	if w.err != nil {
		return nil, w.err
	}
	return out.(*ast.Function), nil
}

// active drops the stages a program has no use for.
func (p *Pipeline) active(prog *ast.Program) []Stage {
	probe := ast.NewFunction("", nil, prog.Body, false)
	var out []Stage
	for _, s := range p.stages {
		if !s.PopsAt(probe) {
			out = append(out, s)
		}
	}
	return out
}

type walker struct {
	active []Stage
	scope  Scope
	err    error
}

func (w *walker) statement(s ast.Stmt) ast.Stmt {
	out := w.visit(s)
	if out == nil {
		return nil
	}
	return out.(ast.Stmt)
}

func (w *walker) visit(n ast.Node) ast.Node {
	if w.err != nil {
		return n
	}
	if fn, ok := n.(*ast.Function); ok {
		return w.function(fn)
	}
	return w.apply(ast.RewriteChildren(n, w.visit))
}

func (w *walker) function(fn *ast.Function) ast.Node {
	var active []Stage
	for _, s := range w.active {
		if !s.PopsAt(fn) {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return fn
	}

	inner := &walker{active: active, scope: w.scope.enter(fn)}
	out := inner.apply(ast.RewriteChildren(fn, inner.visit))
	if inner.err != nil {
		w.err = inner.err
		return fn
	}
	return out
}

func (w *walker) apply(n ast.Node) ast.Node {
	for _, s := range w.active {
		if w.err != nil {
			return n
		}
		out, err := s.Visit(n, w.scope)
		if err != nil {
			w.fail(s, err)
			return n
		}
		if out != n {
			if _, ok := n.(*ast.Function); ok {
				Logger().Debug("stage applied",
					zap.String("stage", s.Name()),
					zap.String("func", w.scope.Name()))
			}
		}
		n = out
	}
	return n
}

func (w *walker) fail(s Stage, err error) {
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
		e.Path = w.scope.Path
	}
	Logger().Warn("stage failed",
		zap.String("stage", s.Name()),
		zap.String("func", w.scope.Name()),
		zap.Error(err))
	w.err = err
}
