package syntax

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/syntax/internal/parser"
	"github.com/wippyai/genlower/syntax/internal/printer"
	"github.com/wippyai/genlower/syntax/internal/token"
)

// Parse parses a source file.
func Parse(source string) (*ast.Program, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		return nil, errors.ParseFailed("source", err)
	}
	return parser.New(tokens).Parse()
}

// ParseFunction parses source holding exactly one function declaration.
func ParseFunction(source string) (*ast.Function, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(prog.Body) != 1 {
		return nil, errors.InvalidInput(errors.PhaseParse, "expected a single function declaration")
	}
	decl, ok := prog.Body[0].(*ast.FuncDecl)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseParse, "expected a single function declaration")
	}
	return decl.Fn, nil
}

// Print renders a node as source text.
func Print(n ast.Node) string {
	return printer.Print(n)
}
