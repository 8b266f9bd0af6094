package ir

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
)

// expectFatal runs fn and returns the *errors.Error it panics with.
func expectFatal(t *testing.T, fn func()) *errors.Error {
	t.Helper()
	var got *errors.Error
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(*errors.Error)
			if !ok {
				t.Fatalf("panic value %T, want *errors.Error", r)
			}
			got = err
		}()
		fn()
	}()
	if got == nil {
		t.Fatal("expected fatal error")
	}
	return got
}

func TestRegistry_Labels(t *testing.T) {
	r := NewRegistry()
	a := r.DefineLabel()
	b := r.DefineLabel()
	if a != 1 || b != 2 {
		t.Fatalf("labels = %d, %d; want 1, 2", a, b)
	}
	r.Emit(Nop{})
	r.MarkLabel(b)
	p := r.Finish()
	if p.Offset(a) != -1 {
		t.Errorf("unmarked label offset = %d, want -1", p.Offset(a))
	}
	if p.Offset(b) != 1 {
		t.Errorf("marked label offset = %d, want 1", p.Offset(b))
	}
	if p.Offset(NoLabel) != -1 || p.Offset(99) != -1 {
		t.Error("out of range labels should report -1")
	}
}

func TestRegistry_MarkUndefinedLabel(t *testing.T) {
	r := NewRegistry()
	err := expectFatal(t, func() { r.MarkLabel(5) })
	if err.Kind != errors.KindUndefinedLabel {
		t.Errorf("Kind = %v, want %v", err.Kind, errors.KindUndefinedLabel)
	}
}

func TestRegistry_Hoist(t *testing.T) {
	r := NewRegistry()
	r.Hoist("x")
	r.Hoist("_a")
	r.Hoist("x")
	fn := ast.NewFuncDecl(ast.NewFunction("f", nil, nil, false))
	r.HoistFunction(fn)
	p := r.Finish()
	if diff := cmp.Diff([]string{"x", "_a"}, p.Variables); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}
	if len(p.Functions) != 1 || p.Functions[0] != fn {
		t.Error("function declaration not hoisted")
	}
}

func TestRegistry_ExceptionBlock(t *testing.T) {
	r := NewRegistry()
	state := ast.NewTemp("state")
	end := r.BeginExceptionBlock()
	r.Emit(Statement{Stmt: ast.NewExprStmt(ast.NewIdent("body"))})
	r.BeginCatchBlock(ast.NewIdent("e"), ast.NewMember(state, "error"))
	r.BeginFinallyBlock()
	r.EndExceptionBlock()
	p := r.Finish()

	if !p.HasProtectedRegions {
		t.Error("HasProtectedRegions should be set")
	}
	want := []Opcode{OpNop, OpStatement, OpBreak, OpStatement, OpNop, OpBreak, OpEndfinally}
	var got []Opcode
	for _, op := range p.Ops {
		got = append(got, op.Opcode())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("opcodes mismatch (-want +got):\n%s", diff)
	}
	if p.Offset(end) != len(p.Ops) {
		t.Errorf("end label at %d, want %d", p.Offset(end), len(p.Ops))
	}

	block := p.Actions[0].Block.(*ExceptionBlock)
	if block.State != StateDone {
		t.Errorf("State = %v, want done", block.State)
	}
	if !(p.Offset(block.Start) < p.Offset(block.Catch) && p.Offset(block.Catch) < p.Offset(block.Finally)) {
		t.Error("region labels out of order")
	}
	if len(p.Actions) != 2 || !p.Actions[0].Open || p.Actions[1].Open {
		t.Errorf("unexpected block actions %+v", p.Actions)
	}
	if p.Actions[0].Offset != 0 || p.Actions[1].Offset != 6 {
		t.Errorf("action offsets = %d, %d; want 0, 6", p.Actions[0].Offset, p.Actions[1].Offset)
	}
}

func TestRegistry_TryCatchEndsWithBreak(t *testing.T) {
	r := NewRegistry()
	end := r.BeginExceptionBlock()
	r.BeginCatchBlock(ast.NewIdent("e"), ast.NewIdent("err"))
	r.EndExceptionBlock()
	p := r.Finish()
	last, ok := p.Ops[len(p.Ops)-1].(Break)
	if !ok || last.Target != end {
		t.Errorf("last op = %v, want break to end", p.Ops[len(p.Ops)-1])
	}
}

func TestRegistry_StateRegression(t *testing.T) {
	r := NewRegistry()
	r.BeginExceptionBlock()
	r.BeginFinallyBlock()
	err := expectFatal(t, func() { r.BeginCatchBlock(ast.NewIdent("e"), ast.NewIdent("err")) })
	if err.Kind != errors.KindStateRegression {
		t.Errorf("Kind = %v, want %v", err.Kind, errors.KindStateRegression)
	}
	if !strings.Contains(err.Detail, "finally to catch") {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestRegistry_Imbalance(t *testing.T) {
	t.Run("empty stack", func(t *testing.T) {
		r := NewRegistry()
		err := expectFatal(t, func() { r.EndWithBlock() })
		if err.Kind != errors.KindBlockImbalance {
			t.Errorf("Kind = %v", err.Kind)
		}
	})
	t.Run("wrong kind", func(t *testing.T) {
		r := NewRegistry()
		r.BeginBreakBlock(nil, false)
		err := expectFatal(t, func() { r.EndContinueBlock() })
		if !strings.Contains(err.Detail, "innermost is break") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})
	t.Run("left open", func(t *testing.T) {
		r := NewRegistry()
		r.BeginScriptBreakBlock(nil, false)
		err := expectFatal(t, func() { r.Finish() })
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLinearize, Kind: errors.KindBlockImbalance}) {
			t.Errorf("unexpected error %v", err)
		}
	})
	t.Run("catch outside try", func(t *testing.T) {
		r := NewRegistry()
		err := expectFatal(t, func() { r.BeginFinallyBlock() })
		if err.Kind != errors.KindBlockImbalance {
			t.Errorf("Kind = %v", err.Kind)
		}
	})
}

func TestRegistry_FindTargets(t *testing.T) {
	r := NewRegistry()
	cont := r.DefineLabel()
	loopBreak := r.BeginContinueBlock(cont, []string{"outer"})
	r.BeginScriptBreakBlock([]string{"inner"}, true)
	switchBreak := r.BeginBreakBlock(nil, false)

	tests := []struct {
		name     string
		find     func() (Label, bool)
		want     Label
		wantFind bool
	}{
		{"unlabeled break hits switch", func() (Label, bool) { return r.FindBreakTarget("") }, switchBreak, true},
		{"labeled break hits loop", func() (Label, bool) { return r.FindBreakTarget("outer") }, loopBreak, true},
		{"labeled break hits script block", func() (Label, bool) { return r.FindBreakTarget("inner") }, Native, true},
		{"unknown label", func() (Label, bool) { return r.FindBreakTarget("label1") }, NoLabel, false},
		{"unlabeled continue skips switch", func() (Label, bool) { return r.FindContinueTarget("") }, cont, true},
		{"labeled continue", func() (Label, bool) { return r.FindContinueTarget("outer") }, cont, true},
		{"continue to non-loop label", func() (Label, bool) { return r.FindContinueTarget("inner") }, NoLabel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.find()
			if got != tt.want || ok != tt.wantFind {
				t.Errorf("got (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantFind)
			}
		})
	}

	r.EndBreakBlock()
	r.EndScriptBreakBlock()
	if got, _ := r.FindBreakTarget(""); got != loopBreak {
		t.Errorf("after pops, break target = %d, want %d", got, loopBreak)
	}
	r.EndContinueBlock()
	if r.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", r.Depth())
	}
}

func TestRegistry_RequireLabelSkipsUnlabeled(t *testing.T) {
	r := NewRegistry()
	r.BeginScriptContinueBlock(nil)
	r.BeginBreakBlock([]string{"blk"}, true)
	if got, _ := r.FindBreakTarget(""); got != Native {
		t.Errorf("unlabeled break should skip labeled block, got %d", got)
	}
}

func TestProgram_String(t *testing.T) {
	r := NewRegistry()
	l := r.DefineLabel()
	r.BeginWithBlock(ast.NewTemp("_a"))
	r.Emit(BreakWhenFalse{Target: l, Cond: ast.NewIdent("c")})
	r.Emit(Yield{Value: ast.NewNumber(1)})
	r.EndWithBlock()
	r.MarkLabel(l)
	r.Emit(Return{})
	out := r.Finish().String()

	for _, want := range []string{"L2:", ".begin with", "brfalse L1, c", "yield 1", ".end with", "L1:", "return"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestAbrupt(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{Nop{}, false},
		{Statement{}, false},
		{Assign{}, false},
		{BreakWhenTrue{}, false},
		{BreakWhenFalse{}, false},
		{Break{}, true},
		{Yield{}, true},
		{YieldStar{}, true},
		{Return{}, true},
		{Throw{}, true},
		{Endfinally{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.op.Opcode().String(), func(t *testing.T) {
			if got := Abrupt(tt.op); got != tt.want {
				t.Errorf("Abrupt() = %v, want %v", got, tt.want)
			}
		})
	}
}
