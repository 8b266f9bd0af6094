package ir

import (
	"fmt"
	"strings"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/syntax"
)

// String renders the program as a listing: label marks, block actions and
// one operation per line.
func (p *Program) String() string {
	var b strings.Builder
	byOffset := make(map[int][]Label)
	for l := 1; l < len(p.Labels); l++ {
		byOffset[p.Labels[l]] = append(byOffset[p.Labels[l]], Label(l))
	}
	action := 0

	for i := 0; i <= len(p.Ops); i++ {
		for _, l := range byOffset[i] {
			fmt.Fprintf(&b, "L%d:\n", l)
		}
		for ; action < len(p.Actions) && p.Actions[action].Offset == i; action++ {
			a := p.Actions[action]
			verb := "end"
			if a.Open {
				verb = "begin"
			}
			fmt.Fprintf(&b, "    .%s %s\n", verb, a.Block.Kind())
		}
		if i < len(p.Ops) {
			fmt.Fprintf(&b, "    %3d  %s\n", i, FormatOp(p.Ops[i]))
		}
	}
	return b.String()
}

// FormatOp renders a single operation.
func FormatOp(op Operation) string {
	switch op := op.(type) {
	case Nop, Endfinally:
		return op.Opcode().String()
	case Statement:
		return "statement " + oneLine(syntax.Print(op.Stmt))
	case Assign:
		return fmt.Sprintf("assign %s = %s", expr(op.Left), expr(op.Right))
	case Break:
		return fmt.Sprintf("break L%d", op.Target)
	case BreakWhenTrue:
		return fmt.Sprintf("brtrue L%d, %s", op.Target, expr(op.Cond))
	case BreakWhenFalse:
		return fmt.Sprintf("brfalse L%d, %s", op.Target, expr(op.Cond))
	case Yield:
		return withValue("yield", op.Value)
	case YieldStar:
		return withValue("yield*", op.Value)
	case Return:
		return withValue("return", op.Value)
	case Throw:
		return withValue("throw", op.Value)
	}
	return fmt.Sprintf("%T", op)
}

func withValue(name string, x ast.Expr) string {
	if x == nil {
		return name
	}
	return name + " " + expr(x)
}

func expr(x ast.Expr) string {
	return oneLine(syntax.Print(x))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
