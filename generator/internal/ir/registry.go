package ir

import (
	"fmt"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
)

// Program is the complete result of linearizing one function body.
type Program struct {
	Ops []Operation
	// Labels maps a label to the index it was marked at, or -1. Index 0
	// is unused.
	Labels              []int
	Actions             []BlockAction
	HasProtectedRegions bool
	// Variables lists hoisted local names in first-declaration order.
	Variables []string
	// Functions lists hoisted function declarations in source order.
	Functions []*ast.FuncDecl
	// State, This and Arguments are the names reserved for the driver
	// parameter and the this/arguments aliases.
	State     string
	This      string
	Arguments string
}

// Offset returns the index label l was marked at, or -1.
func (p *Program) Offset(l Label) int {
	if l <= 0 || int(l) >= len(p.Labels) {
		return -1
	}
	return p.Labels[l]
}

// Registry allocates labels, tracks the block stack and records the
// operation list for one linearization pass. Violations of its invariants
// panic with an *errors.Error; the caller recovers them.
type Registry struct {
	ops       []Operation
	labels    []int
	stack     []Block
	actions   []BlockAction
	protected bool
	vars      []string
	varSet    map[string]bool
	funcs     []*ast.FuncDecl
}

func NewRegistry() *Registry {
	return &Registry{
		labels: []int{-1},
		varSet: make(map[string]bool),
	}
}

func fail(err *errors.Error) {
	panic(err)
}

// Len returns the number of operations emitted so far.
func (r *Registry) Len() int {
	return len(r.ops)
}

// Emit appends op.
func (r *Registry) Emit(op Operation) {
	r.ops = append(r.ops, op)
}

// Last returns the most recently emitted operation, or nil.
func (r *Registry) Last() Operation {
	if len(r.ops) == 0 {
		return nil
	}
	return r.ops[len(r.ops)-1]
}

func (r *Registry) DefineLabel() Label {
	r.labels = append(r.labels, -1)
	return Label(len(r.labels) - 1)
}

// MarkLabel binds l to the current end of the operation list.
func (r *Registry) MarkLabel(l Label) {
	if l <= 0 || int(l) >= len(r.labels) {
		fail(errors.New(errors.PhaseLinearize, errors.KindUndefinedLabel).
			Detail("label %d was never defined", int(l)).
			Value(int(l)).
			Build())
	}
	r.labels[l] = len(r.ops)
}

// Hoist records a local variable name once.
func (r *Registry) Hoist(name string) {
	if r.varSet[name] {
		return
	}
	r.varSet[name] = true
	r.vars = append(r.vars, name)
}

// HoistFunction records a nested function declaration.
func (r *Registry) HoistFunction(decl *ast.FuncDecl) {
	r.funcs = append(r.funcs, decl)
}

func (r *Registry) beginBlock(b Block) {
	r.actions = append(r.actions, BlockAction{Offset: len(r.ops), Open: true, Block: b})
	r.stack = append(r.stack, b)
}

func (r *Registry) endBlock(kind BlockKind) Block {
	if len(r.stack) == 0 {
		fail(errors.BlockImbalance(errors.PhaseLinearize, nil,
			fmt.Sprintf("closing %s block with an empty block stack", kind)))
	}
	b := r.stack[len(r.stack)-1]
	if b.Kind() != kind {
		fail(errors.BlockImbalance(errors.PhaseLinearize, nil,
			fmt.Sprintf("closing %s block but innermost is %s", kind, b.Kind())))
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.actions = append(r.actions, BlockAction{Offset: len(r.ops), Open: false, Block: b})
	return b
}

// Peek returns the innermost block, or nil.
func (r *Registry) Peek() Block {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the block stack depth.
func (r *Registry) Depth() int {
	return len(r.stack)
}

func (r *Registry) BeginWithBlock(expr ast.Expr) {
	b := &WithBlock{Expr: expr, Start: r.DefineLabel(), End: r.DefineLabel()}
	r.MarkLabel(b.Start)
	r.beginBlock(b)
}

func (r *Registry) EndWithBlock() {
	b := r.endBlock(KindWith).(*WithBlock)
	r.MarkLabel(b.End)
}

// BeginExceptionBlock opens a try region and returns its end label.
func (r *Registry) BeginExceptionBlock() Label {
	b := &ExceptionBlock{State: StateTry, Start: r.DefineLabel(), End: r.DefineLabel()}
	r.MarkLabel(b.Start)
	r.beginBlock(b)
	r.Emit(Nop{})
	r.protected = true
	return b.End
}

func (r *Registry) peekException(next ExceptionState) *ExceptionBlock {
	b, ok := r.Peek().(*ExceptionBlock)
	if !ok {
		fail(errors.BlockImbalance(errors.PhaseLinearize, nil,
			fmt.Sprintf("%s clause outside an exception block", next)))
	}
	if b.State >= next {
		fail(errors.StateRegression(nil, b.State.String(), next.String()))
	}
	return b
}

// BeginCatchBlock ends the try clause and starts the catch clause, which
// stores the thrown value from errorSlot into variable.
func (r *Registry) BeginCatchBlock(variable, errorSlot ast.Expr) {
	b := r.peekException(StateCatch)
	r.Emit(Break{Target: b.End})
	b.Catch = r.DefineLabel()
	r.MarkLabel(b.Catch)
	b.State = StateCatch
	b.CatchVar = variable
	r.Emit(Statement{Stmt: ast.NewExprStmt(ast.NewAssign("=", variable, errorSlot))})
	r.Emit(Nop{})
}

func (r *Registry) BeginFinallyBlock() {
	b := r.peekException(StateFinally)
	r.Emit(Break{Target: b.End})
	b.Finally = r.DefineLabel()
	r.MarkLabel(b.Finally)
	b.State = StateFinally
}

func (r *Registry) EndExceptionBlock() {
	b := r.peekException(StateDone)
	r.endBlock(KindException)
	if b.State < StateFinally {
		r.Emit(Break{Target: b.End})
	} else {
		r.Emit(Endfinally{})
	}
	r.MarkLabel(b.End)
	b.State = StateDone
}

// BeginBreakBlock opens a linearized break target and returns its label.
func (r *Registry) BeginBreakBlock(names []string, requireLabel bool) Label {
	b := &BreakBlock{BreakLabel: r.DefineLabel(), LabelNames: names, RequireLabel: requireLabel}
	r.beginBlock(b)
	return b.BreakLabel
}

func (r *Registry) EndBreakBlock() {
	b := r.endBlock(KindBreak).(*BreakBlock)
	r.MarkLabel(b.BreakLabel)
}

// BeginContinueBlock opens a linearized loop and returns its break label.
func (r *Registry) BeginContinueBlock(continueLabel Label, names []string) Label {
	b := &ContinueBlock{BreakLabel: r.DefineLabel(), ContinueLabel: continueLabel, LabelNames: names}
	r.beginBlock(b)
	return b.BreakLabel
}

func (r *Registry) EndContinueBlock() {
	b := r.endBlock(KindContinue).(*ContinueBlock)
	r.MarkLabel(b.BreakLabel)
}

// BeginScriptBreakBlock opens a break target left as native control flow.
func (r *Registry) BeginScriptBreakBlock(names []string, requireLabel bool) {
	r.beginBlock(&BreakBlock{Script: true, BreakLabel: Native, LabelNames: names, RequireLabel: requireLabel})
}

func (r *Registry) EndScriptBreakBlock() {
	r.endBlock(KindScriptBreak)
}

// BeginScriptContinueBlock opens a loop left as native control flow.
func (r *Registry) BeginScriptContinueBlock(names []string) {
	r.beginBlock(&ContinueBlock{Script: true, BreakLabel: Native, ContinueLabel: Native, LabelNames: names})
}

func (r *Registry) EndScriptContinueBlock() {
	r.endBlock(KindScriptContinue)
}

// FindBreakTarget returns the label a break with the given name (or ""
// for none) jumps to. Native means the target is native control flow.
func (r *Registry) FindBreakTarget(name string) (Label, bool) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		switch b := r.stack[i].(type) {
		case *BreakBlock:
			if b.matchesBreak(name) {
				return b.BreakLabel, true
			}
		case *ContinueBlock:
			if b.matchesBreak(name) {
				return b.BreakLabel, true
			}
		}
	}
	return NoLabel, false
}

// FindContinueTarget returns the label a continue jumps to.
func (r *Registry) FindContinueTarget(name string) (Label, bool) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if b, ok := r.stack[i].(*ContinueBlock); ok && b.matchesContinue(name) {
			return b.ContinueLabel, true
		}
	}
	return NoLabel, false
}

// Finish returns the built program. The block stack must be empty.
func (r *Registry) Finish() *Program {
	if len(r.stack) != 0 {
		fail(errors.BlockImbalance(errors.PhaseLinearize, nil,
			fmt.Sprintf("%d block(s) left open, innermost %s", len(r.stack), r.Peek().Kind())))
	}
	return &Program{
		Ops:                 r.ops,
		Labels:              r.labels,
		Actions:             r.actions,
		HasProtectedRegions: r.protected,
		Variables:           r.vars,
		Functions:           r.funcs,
	}
}
