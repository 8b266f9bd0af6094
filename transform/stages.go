package transform

import (
	"strconv"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator"
)

// DefaultStages returns the exponent and generator stages in the order
// they must run.
func DefaultStages(cfg generator.Config) []Stage {
	return []Stage{Exponent(), Generator(cfg)}
}

type generatorStage struct {
	cfg   generator.Config
	lower generator.Config
}

// Generator returns the stage that lowers generator functions. Functions
// are selected by their dotted path, so "outer.inner" names a generator
// declared inside outer.
func Generator(cfg generator.Config) Stage {
	lower := cfg
	lower.OnlyList = nil
	lower.SkipList = nil
	return &generatorStage{cfg: cfg, lower: lower}
}

func (s *generatorStage) Name() string { return "generator" }

func (s *generatorStage) PopsAt(fn *ast.Function) bool {
	return !ast.FlagsOf(fn).Has(ast.ContainsGenerator)
}

func (s *generatorStage) Visit(n ast.Node, scope Scope) (ast.Node, error) {
	fn, ok := n.(*ast.Function)
	if !ok || !fn.Generator || !s.cfg.Selects(scope.Name()) {
		return n, nil
	}
	out, err := generator.Lower(fn, s.lower)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = scope.Path
		}
		return nil, err
	}
	return out, nil
}

type exponentStage struct{}

// Exponent returns the stage that rewrites ** and **= into Math.pow calls.
func Exponent() Stage {
	return exponentStage{}
}

func (exponentStage) Name() string { return "exponent" }

func (exponentStage) PopsAt(fn *ast.Function) bool {
	return !ast.FlagsOf(fn).Has(ast.ContainsExponent)
}

func (exponentStage) Visit(n ast.Node, scope Scope) (ast.Node, error) {
	switch x := n.(type) {
	case *ast.BinaryExpr:
		if x.Op == "**" {
			return ast.At(pow(x.X, x.Y), x.Line()), nil
		}
	case *ast.AssignExpr:
		if x.Op != "**=" {
			return n, nil
		}
		if repeatable(x.Target) {
			return ast.At(ast.NewAssign("=", x.Target, pow(x.Target, x.Value)), x.Line()), nil
		}
		if len(scope.Path) == 0 {
			return ast.At(exponentCall(x), x.Line()), nil
		}
		// Left for the enclosing function, which declares the temporaries.
		return n, nil
	case *ast.Function:
		return cacheTargets(x), nil
	}
	return n, nil
}

func pow(x, y ast.Expr) ast.Expr {
	return ast.NewCall(ast.NewMember(ast.NewIdent("Math"), "pow"), []ast.Expr{x, y})
}

// repeatable reports whether evaluating x twice has no extra effect.
func repeatable(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.Ident, *ast.ThisExpr, *ast.NumberLit, *ast.StringLit:
		return true
	case *ast.MemberExpr:
		return repeatable(x.X)
	case *ast.IndexExpr:
		return repeatable(x.X) && repeatable(x.Index)
	}
	return false
}

// temps hands out names that fn does not use.
type temps struct {
	used  map[string]bool
	next  int
	taken []string
}

func (t *temps) take() string {
	for {
		name := "_" + string(rune('a'+t.next%26))
		if t.next >= 26 {
			name += strconv.Itoa(t.next / 26)
		}
		t.next++
		if !t.used[name] {
			t.used[name] = true
			t.taken = append(t.taken, name)
			return name
		}
	}
}

// cacheTargets rewrites every **= in fn whose target cannot be read twice.
// The object and key are stored in temporaries declared at the top of fn:
//
//	o[k()] **= v  =>  (_a = o, _b = k(), _a[_b] = Math.pow(_a[_b], v))
func cacheTargets(fn *ast.Function) *ast.Function {
	t := &temps{used: ast.Names(fn)}
	var visit ast.Visitor
	visit = func(n ast.Node) ast.Node {
		if _, ok := n.(*ast.Function); ok {
			return n
		}
		n = ast.RewriteChildren(n, visit)
		x, ok := n.(*ast.AssignExpr)
		if !ok || x.Op != "**=" {
			return n
		}
		target, setup := cacheParts(x.Target, func(ast.Expr) ast.Expr {
			return ast.NewTemp(t.take())
		})
		list := append(setup, ast.NewAssign("=", target, pow(target, x.Value)))
		return ast.At(ast.NewSeq(list), x.Line())
	}
	out := ast.RewriteChildren(fn, visit).(*ast.Function)
	if len(t.taken) == 0 {
		return fn
	}
	decls := make([]ast.Declarator, len(t.taken))
	for i, name := range t.taken {
		decls[i] = ast.Declarator{Name: name}
	}
	body := append([]ast.Stmt{ast.NewVarDecl("var", decls)}, out.Body...)
	return ast.At(ast.NewFunction(fn.Name, fn.Params, body, fn.Generator), fn.Line())
}

// cacheParts returns target with its object and key replaced by the
// names alloc returns, plus the assignments that fill them in order.
func cacheParts(target ast.Expr, alloc func(ast.Expr) ast.Expr) (ast.Expr, []ast.Expr) {
	var setup []ast.Expr
	store := func(e ast.Expr) ast.Expr {
		switch e.(type) {
		case *ast.ThisExpr, *ast.NumberLit, *ast.StringLit:
			return e
		}
		name := alloc(e)
		setup = append(setup, ast.NewAssign("=", name, e))
		return name
	}
	switch x := target.(type) {
	case *ast.MemberExpr:
		return ast.NewMember(store(x.X), x.Name), setup
	case *ast.IndexExpr:
		obj := store(x.X)
		return ast.NewIndex(obj, store(x.Index)), setup
	}
	return target, nil
}

// exponentCall rewrites a top-level **= whose target cannot be read twice
// into a call that receives the object and key as arguments:
//
//	o[k()] **= v  =>  (function (_a, _b) { return _a[_b] = Math.pow(_a[_b], v); }).call(this, o, k())
func exponentCall(x *ast.AssignExpr) ast.Expr {
	t := &temps{used: ast.Names(x)}
	var params []string
	var args []ast.Expr
	target, _ := cacheParts(x.Target, func(e ast.Expr) ast.Expr {
		name := t.take()
		params = append(params, name)
		args = append(args, e)
		return ast.NewIdent(name)
	})
	body := []ast.Stmt{ast.NewReturn(ast.NewAssign("=", target, pow(target, x.Value)))}
	fn := ast.NewFuncLit(ast.NewFunction("", params, body, false))
	return ast.NewCall(ast.NewMember(fn, "call"), append([]ast.Expr{ast.NewThis()}, args...))
}
