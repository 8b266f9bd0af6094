// Package codegen builds the target statements a lowered body is made of:
// instruction tuples returned to the driver, protected-region pushes, with
// wrappers and the driver call itself.
package codegen

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/generator/internal/ir"
	"github.com/wippyai/genlower/runtime"
)

// Builder creates nodes that reference one state parameter.
type Builder struct {
	// State is the name of the driver function's parameter.
	State string
	// Annotate prints instruction names next to their codes.
	Annotate bool
}

func (b Builder) state() ast.Expr {
	return ast.NewTemp(b.State)
}

func (b Builder) field(name string) ast.Expr {
	return ast.NewMember(b.state(), name)
}

// Instruction returns the literal for code.
func (b Builder) Instruction(code runtime.Instruction) *ast.NumberLit {
	if b.Annotate {
		return ast.NewAnnotated(float64(code), code.String())
	}
	return ast.NewNumber(float64(code))
}

// Label returns a placeholder for l, resolved to a case number after
// assembly.
func Label(l ir.Label) ast.Expr {
	return ast.NewLabelRef(int(l))
}

func (b Builder) tuple(code runtime.Instruction, operands ...ast.Expr) ast.Stmt {
	elems := []ast.Expr{b.Instruction(code)}
	for _, op := range operands {
		if op != nil {
			elems = append(elems, op)
		}
	}
	return ast.NewReturn(ast.NewArray(elems))
}

// Break returns `return [3, L]`.
func (b Builder) Break(l ir.Label) ast.Stmt {
	return b.tuple(runtime.Break, Label(l))
}

// BreakWhen returns `if (cond) return [3, L]`, or the negated guard.
func (b Builder) BreakWhen(l ir.Label, cond ast.Expr, when bool) ast.Stmt {
	if !when {
		cond = ast.NewUnary("!", cond)
	}
	return ast.NewIf(cond, b.Break(l), nil)
}

// Return returns `return [2, x]`; x may be nil.
func (b Builder) Return(x ast.Expr) ast.Stmt {
	return b.tuple(runtime.Return, x)
}

func (b Builder) Yield(x ast.Expr) ast.Stmt {
	return b.tuple(runtime.Yield, x)
}

func (b Builder) YieldStar(x ast.Expr) ast.Stmt {
	return b.tuple(runtime.YieldStar, x)
}

func (b Builder) Endfinally() ast.Stmt {
	return b.tuple(runtime.Endfinally)
}

// Sent reads the resumption value.
func (b Builder) Sent() ast.Expr {
	return ast.NewCall(b.field("sent"), nil)
}

// Error reads the thrown-value slot.
func (b Builder) Error() ast.Expr {
	return b.field("error")
}

// SetLabel returns `state.label = n`.
func (b Builder) SetLabel(n int) ast.Stmt {
	return ast.NewExprStmt(ast.NewAssign("=", b.field("label"), ast.NewNumber(float64(n))))
}

// InitRegions returns `state.trys = []`.
func (b Builder) InitRegions() ast.Stmt {
	return ast.NewExprStmt(ast.NewAssign("=", b.field("trys"), ast.NewArray(nil)))
}

// PushRegion returns `state.trys.push([start, catch, finally, end])`.
// Missing clauses are array holes.
func (b Builder) PushRegion(block *ir.ExceptionBlock) ast.Stmt {
	slot := func(l ir.Label) ast.Expr {
		if l == ir.NoLabel {
			return nil
		}
		return Label(l)
	}
	region := ast.NewArray([]ast.Expr{
		slot(block.Start), slot(block.Catch), slot(block.Finally), slot(block.End),
	})
	push := ast.NewMember(b.field("trys"), "push")
	return ast.NewExprStmt(ast.NewCall(push, []ast.Expr{region}))
}

// With wraps list in `with (object) { ... }`.
func With(object ast.Expr, list []ast.Stmt) ast.Stmt {
	return ast.NewWith(object, ast.NewBlock(list))
}

// Dispatch returns `switch (state.label) { ... }`.
func (b Builder) Dispatch(clauses []*ast.CaseClause) ast.Stmt {
	return ast.NewSwitch(b.field("label"), clauses)
}

// Case returns `case n: list`.
func Case(n int, list []ast.Stmt) *ast.CaseClause {
	return ast.NewCase(ast.NewNumber(float64(n)), list)
}

// Driver returns `return helper(function (state) { body })`.
func (b Builder) Driver(helper string, body []ast.Stmt) ast.Stmt {
	fn := ast.NewFunction("", []string{b.State}, body, false)
	return ast.NewReturn(ast.NewCall(ast.NewIdent(helper), []ast.Expr{ast.NewFuncLit(fn)}))
}

// Hoisted returns `var a, b, c;` for the given names.
func Hoisted(names []string) ast.Stmt {
	decls := make([]ast.Declarator, len(names))
	for i, name := range names {
		decls[i] = ast.Declarator{Name: name}
	}
	return ast.NewVarDecl("var", decls)
}

// Alias returns `var name = x;`.
func Alias(name string, x ast.Expr) ast.Stmt {
	return ast.NewVarDecl("var", []ast.Declarator{{Name: name, Init: x}})
}
