package ir

import (
	"fmt"

	"github.com/wippyai/genlower/ast"
)

// Label is an abstract jump target. Valid labels are positive.
type Label int

const (
	// NoLabel marks an absent clause in a protected region.
	NoLabel Label = 0
	// Native is the break/continue target of a block left as native
	// control flow.
	Native Label = -1
)

// Opcode identifies an operation variant.
type Opcode int

// Opcodes, one per operation type.
const (
	OpNop            Opcode = iota // no effect
	OpStatement                    // native statement
	OpAssign                       // left = right
	OpBreak                        // unconditional jump
	OpBreakWhenTrue                // jump when the condition is truthy
	OpBreakWhenFalse               // jump when the condition is falsy
	OpYield                        // suspend with a value
	OpYieldStar                    // delegate to an inner iterator
	OpReturn                       // complete the generator
	OpThrow                        // raise an exception
	OpEndfinally                   // resume the completion pending at a finally
)

var opcodeNames = [...]string{
	OpNop:            "nop",
	OpStatement:      "statement",
	OpAssign:         "assign",
	OpBreak:          "break",
	OpBreakWhenTrue:  "brtrue",
	OpBreakWhenFalse: "brfalse",
	OpYield:          "yield",
	OpYieldStar:      "yield*",
	OpReturn:         "return",
	OpThrow:          "throw",
	OpEndfinally:     "endfinally",
}

// String returns the short mnemonic used in program dumps.
func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Operation is one unit of the linearized form.
type Operation interface {
	Opcode() Opcode
}

// Nop does nothing. Registries use it to pad offsets.
type Nop struct{}

// Statement is emitted verbatim into the current clause.
type Statement struct {
	Stmt ast.Stmt
}

// Assign stores Right into Left.
type Assign struct {
	Left  ast.Expr
	Right ast.Expr
}

// Break jumps to Target.
type Break struct {
	Target Label
}

// BreakWhenTrue jumps to Target when Cond is truthy.
type BreakWhenTrue struct {
	Target Label
	Cond   ast.Expr
}

// BreakWhenFalse jumps to Target when Cond is falsy.
type BreakWhenFalse struct {
	Target Label
	Cond   ast.Expr
}

// Yield suspends with Value, which is nil for a bare yield.
type Yield struct {
	Value ast.Expr
}

// YieldStar delegates to the iterator Value until it completes.
type YieldStar struct {
	Value ast.Expr
}

// Return completes with Value, which is nil for undefined.
type Return struct {
	Value ast.Expr
}

// Throw raises Value at the current point.
type Throw struct {
	Value ast.Expr
}

// Endfinally ends a finally clause, resuming whatever completion was
// pending when it was entered.
type Endfinally struct{}

func (Nop) Opcode() Opcode            { return OpNop }
func (Statement) Opcode() Opcode      { return OpStatement }
func (Assign) Opcode() Opcode         { return OpAssign }
func (Break) Opcode() Opcode          { return OpBreak }
func (BreakWhenTrue) Opcode() Opcode  { return OpBreakWhenTrue }
func (BreakWhenFalse) Opcode() Opcode { return OpBreakWhenFalse }
func (Yield) Opcode() Opcode          { return OpYield }
func (YieldStar) Opcode() Opcode      { return OpYieldStar }
func (Return) Opcode() Opcode         { return OpReturn }
func (Throw) Opcode() Opcode          { return OpThrow }
func (Endfinally) Opcode() Opcode     { return OpEndfinally }

// Abrupt reports whether op unconditionally leaves the current clause.
func Abrupt(op Operation) bool {
	switch op.(type) {
	case Break, Yield, YieldStar, Return, Throw, Endfinally:
		return true
	}
	return false
}

// Completion reports whether op ends the generator or propagates an
// exception out of the current clause.
func Completion(op Operation) bool {
	switch op.(type) {
	case Return, Throw:
		return true
	}
	return false
}

// Targets returns the labels op jumps to.
func Targets(op Operation) []Label {
	switch op := op.(type) {
	case Break:
		return []Label{op.Target}
	case BreakWhenTrue:
		return []Label{op.Target}
	case BreakWhenFalse:
		return []Label{op.Target}
	}
	return nil
}
