package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/interp"
	"github.com/wippyai/genlower/syntax"
)

// namedFunction is a generator function with its dotted path.
type namedFunction struct {
	path string
	fn   *ast.Function
}

// generators lists the generator functions of prog in source order,
// nested ones included.
func generators(prog *ast.Program) []namedFunction {
	var out []namedFunction
	for _, s := range prog.Body {
		collect(s, nil, &out)
	}
	return out
}

func collect(n ast.Node, path []string, out *[]namedFunction) {
	ast.Inspect(n, func(c ast.Node) bool {
		var fn *ast.Function
		switch c := c.(type) {
		case *ast.FuncDecl:
			fn = c.Fn
		case *ast.FuncLit:
			fn = c.Fn
		default:
			return true
		}
		name := fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		p := append(path[:len(path):len(path)], name)
		if fn.Generator {
			*out = append(*out, namedFunction{path: strings.Join(p, "."), fn: fn})
		}
		for _, s := range fn.Body {
			collect(s, p, out)
		}
		return false
	})
}

// functionView holds the renderings of one generator function.
type functionView struct {
	err     error
	path    string
	source  string
	ir      string
	lowered string
}

func describe(g namedFunction, cfg generator.Config) functionView {
	v := functionView{path: g.path, source: syntax.Print(ast.NewFuncDecl(g.fn))}
	prog, err := generator.Linearize(g.fn, cfg)
	if err != nil {
		v.err = err
		return v
	}
	v.ir = prog.String()
	out, err := generator.Lower(g.fn, cfg)
	if err != nil {
		v.err = err
		return v
	}
	v.lowered = syntax.Print(ast.NewFuncDecl(out))
	return v
}

// newInterpreter returns an interpreter with a print builtin writing to w.
func newInterpreter(w io.Writer) *interp.Interpreter {
	in := interp.New()
	in.Define("print", &interp.Builtin{Name: "print", Fn: func(_ any, args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = display(a)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		return interp.Undefined, nil
	}})
	return in
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return interp.Format(v)
}
