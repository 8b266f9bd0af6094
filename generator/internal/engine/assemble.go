package engine

import (
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator/internal/codegen"
	"github.com/wippyai/genlower/generator/internal/ir"
)

// assembler turns an operation list into the case clauses of the
// dispatch switch in a single forward pass.
type assembler struct {
	prog    *ir.Program
	cg      codegen.Builder
	labels  map[int][]ir.Label
	numbers []int
	action  int

	clauses []*ast.CaseClause
	stmts   []ast.Stmt
	number  int
	// open is set once the current clause has content to flush.
	open bool
	// abrupt is set after an operation that leaves the clause.
	abrupt bool

	region  *ir.ExceptionBlock
	regions []*ir.ExceptionBlock
	withs   []*ir.WithBlock

	usedThis      bool
	usedArguments bool
}

func newAssembler(prog *ir.Program, cg codegen.Builder) *assembler {
	a := &assembler{
		prog:    prog,
		cg:      cg,
		labels:  make(map[int][]ir.Label),
		numbers: make([]int, len(prog.Labels)),
	}
	for l := 1; l < len(prog.Labels); l++ {
		a.numbers[l] = -1
		if off := prog.Labels[l]; off >= 0 {
			a.labels[off] = append(a.labels[off], ir.Label(l))
		}
	}
	return a
}

func (a *assembler) run() []*ast.CaseClause {
	for i, op := range a.prog.Ops {
		a.enterLabels(i)
		a.enterBlocks(i)
		if a.abrupt {
			continue
		}
		a.write(op)
	}
	end := len(a.prog.Ops)
	a.enterLabels(end)
	a.enterBlocks(end)
	if !a.abrupt {
		a.write(ir.Return{})
	}
	a.flush()

	for i, c := range a.clauses {
		a.clauses[i] = ast.RewriteChildren(c, a.resolve).(*ast.CaseClause)
	}
	return a.clauses
}

// enterLabels starts a new clause when labels are marked at offset i.
// Labels marked where the current clause is still empty share its number.
func (a *assembler) enterLabels(i int) {
	labels := a.labels[i]
	if len(labels) == 0 {
		return
	}
	a.flush()
	for _, l := range labels {
		a.numbers[l] = a.number
	}
}

func (a *assembler) enterBlocks(i int) {
	for ; a.action < len(a.prog.Actions); a.action++ {
		act := a.prog.Actions[a.action]
		if act.Offset != i {
			return
		}
		switch b := act.Block.(type) {
		case *ir.ExceptionBlock:
			if act.Open {
				a.regions = append(a.regions, a.region)
				a.region = b
				a.open = true
			} else {
				if len(a.regions) == 0 {
					panic(errors.BlockImbalance(errors.PhaseAssemble, nil, "exception region closed before it was opened"))
				}
				a.region = a.regions[len(a.regions)-1]
				a.regions = a.regions[:len(a.regions)-1]
			}
		case *ir.WithBlock:
			if act.Open {
				a.withs = append(a.withs, b)
			} else {
				if len(a.withs) == 0 {
					panic(errors.BlockImbalance(errors.PhaseAssemble, nil, "with region closed before it was opened"))
				}
				a.withs = a.withs[:len(a.withs)-1]
			}
		}
	}
}

func (a *assembler) flush() {
	if !a.open {
		return
	}
	stmts := a.stmts
	if len(stmts) > 0 {
		for i := len(a.withs) - 1; i >= 0; i-- {
			stmts = []ast.Stmt{codegen.With(a.withs[i].Expr, stmts)}
		}
	}
	var head []ast.Stmt
	if a.number == 0 && a.prog.HasProtectedRegions {
		head = append(head, a.cg.InitRegions())
	}
	if a.region != nil {
		head = append(head, a.cg.PushRegion(a.region))
		a.region = nil
	}
	stmts = append(head, stmts...)
	if !a.abrupt {
		stmts = append(stmts, a.cg.SetLabel(a.number+1))
	}
	a.clauses = append(a.clauses, codegen.Case(a.number, stmts))
	a.number++
	a.stmts = nil
	a.open = false
	a.abrupt = false
}

func (a *assembler) emit(s ast.Stmt) {
	a.stmts = append(a.stmts, s)
	a.open = true
}

func (a *assembler) write(op ir.Operation) {
	switch op := op.(type) {
	case ir.Nop:
	case ir.Statement:
		a.emit(op.Stmt)
		a.abrupt = terminates(op.Stmt)
		return
	case ir.Assign:
		a.emit(ast.NewExprStmt(ast.NewAssign("=", op.Left, op.Right)))
	case ir.Break:
		a.emit(a.cg.Break(op.Target))
	case ir.BreakWhenTrue:
		a.emit(a.cg.BreakWhen(op.Target, op.Cond, true))
	case ir.BreakWhenFalse:
		a.emit(a.cg.BreakWhen(op.Target, op.Cond, false))
	case ir.Yield:
		a.emit(a.cg.Yield(op.Value))
	case ir.YieldStar:
		a.emit(a.cg.YieldStar(op.Value))
	case ir.Return:
		a.emit(a.cg.Return(op.Value))
	case ir.Throw:
		a.emit(ast.NewThrow(op.Value))
	case ir.Endfinally:
		a.emit(a.cg.Endfinally())
	}
	a.abrupt = ir.Abrupt(op)
}

// terminates reports whether control never falls out of s.
func terminates(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.ReturnStmt, *ast.ThrowStmt:
		return true
	case *ast.BlockStmt:
		return len(s.List) > 0 && terminates(s.List[len(s.List)-1])
	case *ast.IfStmt:
		return s.Else != nil && terminates(s.Then) && terminates(s.Else)
	}
	return false
}

// resolve replaces label placeholders with case numbers and redirects
// this and arguments to the aliases taken outside the driver function.
func (a *assembler) resolve(n ast.Node) ast.Node {
	switch x := n.(type) {
	case *ast.LabelRef:
		number := -1
		if x.Label > 0 && x.Label < len(a.numbers) {
			number = a.numbers[x.Label]
		}
		if number < 0 {
			panic(errors.UnmarkedLabel(nil, x.Label))
		}
		return ast.NewNumber(float64(number))
	case *ast.ThisExpr:
		if a.prog.This == "" {
			return x
		}
		a.usedThis = true
		return ast.NewTemp(a.prog.This)
	case *ast.Ident:
		if x.Name == "arguments" && !x.Generated && a.prog.Arguments != "" {
			a.usedArguments = true
			return ast.NewTemp(a.prog.Arguments)
		}
		return x
	case *ast.FuncLit, *ast.FuncDecl:
		return n
	}
	return ast.RewriteChildren(n, a.resolve)
}

// assemble builds the lowered function body for prog and reports the
// number of case clauses.
func assemble(prog *ir.Program, helper string, annotate bool) ([]ast.Stmt, int) {
	cg := codegen.Builder{State: prog.State, Annotate: annotate}
	a := newAssembler(prog, cg)
	clauses := a.run()

	var body []ast.Stmt
	if a.usedThis {
		body = append(body, codegen.Alias(prog.This, ast.NewThis()))
	}
	if a.usedArguments {
		body = append(body, codegen.Alias(prog.Arguments, ast.NewIdent("arguments")))
	}
	if len(prog.Variables) > 0 {
		body = append(body, codegen.Hoisted(prog.Variables))
	}
	for _, fn := range prog.Functions {
		body = append(body, fn)
	}
	body = append(body, cg.Driver(helper, []ast.Stmt{cg.Dispatch(clauses)}))
	return body, len(clauses)
}
