package engine

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator/internal/ir"
	"github.com/wippyai/genlower/syntax"
)

func parseFunction(t *testing.T, src string) *ast.Function {
	t.Helper()
	fn, err := syntax.ParseFunction(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return fn
}

func lower(t *testing.T, src string) string {
	t.Helper()
	out, err := New(Config{Annotate: true}).Lower(parseFunction(t, src))
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	return syntax.Print(out)
}

func TestLower_Golden(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "two yields",
			src:  "function* g() { yield 1; yield 2; }",
			want: `function g() {
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                return [4 /*yield*/, 1];
            case 1:
                state.sent();
                return [4 /*yield*/, 2];
            case 2:
                state.sent();
                return [2 /*return*/];
        }
    });
}
`,
		},
		{
			name: "try finally",
			src:  "function* g() { try { yield 1; } finally { log(); } }",
			want: `function g() {
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                state.trys = [];
                state.trys.push([0, , 2, 3]);
                return [4 /*yield*/, 1];
            case 1:
                state.sent();
                return [3 /*break*/, 3];
            case 2:
                log();
                return [7 /*endfinally*/];
            case 3:
                return [2 /*return*/];
        }
    });
}
`,
		},
		{
			name: "short circuit",
			src:  "function* g() { let x = a() && (yield b()); }",
			want: `function g() {
    var x, _a;
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                _a = a();
                if (!_a)
                    return [3 /*break*/, 2];
                return [4 /*yield*/, b()];
            case 1:
                _a = state.sent();
                state.label = 2;
            case 2:
                x = _a;
                return [2 /*return*/];
        }
    });
}
`,
		},
		{
			name: "try catch",
			src:  "function* g() { try { yield 1; } catch (e) { f(e); } }",
			want: `function g() {
    var e_1;
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                state.trys = [];
                state.trys.push([0, 2, , 3]);
                return [4 /*yield*/, 1];
            case 1:
                state.sent();
                return [3 /*break*/, 3];
            case 2:
                e_1 = state.error;
                f(e_1);
                return [3 /*break*/, 3];
            case 3:
                return [2 /*return*/];
        }
    });
}
`,
		},
		{
			name: "empty generator",
			src:  "function* g() {}",
			want: `function g() {
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                return [2 /*return*/];
        }
    });
}
`,
		},
		{
			name: "return value",
			src:  "function* g(a) { var b = yield a; return b + 1; }",
			want: `function g(a) {
    var b;
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                return [4 /*yield*/, a];
            case 1:
                b = state.sent();
                return [2 /*return*/, b + 1];
        }
    });
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lower(t, tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLower_ReturnInBranchEndsClause(t *testing.T) {
	got := lower(t, "function* g(a) { if (a) { yield 1; return 1; } else { return 2; } }")
	want := `function g(a) {
    return __generator(function (state) {
        switch (state.label) {
            case 0:
                if (!a)
                    return [3 /*break*/, 2];
                return [4 /*yield*/, 1];
            case 1:
                state.sent();
                return [2 /*return*/, 1];
            case 2:
                return [2 /*return*/, 2];
            case 3:
                return [2 /*return*/];
        }
    });
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestLower_CatchBindingIsRenamed(t *testing.T) {
	src := `function* g(e) {
    try { yield 1; } catch (e) { f(e, function (e) { return e; }); }
    return e;
}`
	got := lower(t, src)
	for _, want := range []string{
		"var e_1;",
		"e_1 = state.error;",
		"f(e_1, function (e) {",
		"return [2 /*return*/, e];",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestLinearize_TwoYields(t *testing.T) {
	prog, err := New(Config{}).Linearize(parseFunction(t, "function* g() { yield 1; yield 2; }"))
	if err != nil {
		t.Fatalf("Linearize failed: %v", err)
	}
	var yields int
	for _, op := range prog.Ops {
		if op.Opcode() == ir.OpYield {
			yields++
		}
	}
	if yields != 2 {
		t.Errorf("yield operations = %d, want 2", yields)
	}
	if prog.HasProtectedRegions {
		t.Error("HasProtectedRegions set without try")
	}
}

func TestLinearize_LoopConditionSuspends(t *testing.T) {
	src := "function* g() { for (let i = 0; i < (yield); i++) {} }"
	prog, err := New(Config{}).Linearize(parseFunction(t, src))
	if err != nil {
		t.Fatalf("Linearize failed: %v", err)
	}
	var codes []string
	for _, op := range prog.Ops {
		codes = append(codes, op.Opcode().String())
	}
	want := []string{"statement", "assign", "yield", "brfalse", "statement", "break"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i", "_a"}, prog.Variables); diff != "" {
		t.Errorf("hoisted mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearize_ShortCircuitSkipsYield(t *testing.T) {
	src := "function* g() { let x = a() && (yield b()); }"
	prog, err := New(Config{}).Linearize(parseFunction(t, src))
	if err != nil {
		t.Fatalf("Linearize failed: %v", err)
	}
	// The guard must precede the yield and jump past it.
	guard, yield := -1, -1
	var target ir.Label
	for i, op := range prog.Ops {
		switch op := op.(type) {
		case ir.BreakWhenFalse:
			guard, target = i, op.Target
		case ir.Yield:
			yield = i
		}
	}
	if guard < 0 || yield < 0 || guard > yield {
		t.Fatalf("guard at %d, yield at %d", guard, yield)
	}
	if off := prog.Offset(target); off <= yield {
		t.Errorf("guard target offset %d does not skip the yield at %d", off, yield)
	}
	if _, ok := prog.Ops[0].(ir.Assign); !ok {
		t.Errorf("first operation = %s, want assign caching a()", prog.Ops[0].Opcode())
	}
}

func TestLower_UnresolvedBreak(t *testing.T) {
	fn := parseFunction(t, "function* g() { yield 1; break label1; }")
	_, err := New(Config{}).Lower(fn)
	if err == nil {
		t.Fatal("expected error for undefined break target")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if e.Kind != errors.KindUnresolvedTarget {
		t.Errorf("Kind = %s, want %s", e.Kind, errors.KindUnresolvedTarget)
	}
	if diff := cmp.Diff([]string{"g"}, e.Path); diff != "" {
		t.Errorf("Path mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(e.Error(), "label1") {
		t.Errorf("error %q does not name the label", e.Error())
	}
}

func TestLower_UnresolvedBreakInNativeCode(t *testing.T) {
	fn := parseFunction(t, "function* g() { yield 1; if (x) { break nowhere; } }")
	if _, err := New(Config{}).Lower(fn); err == nil {
		t.Fatal("expected error for undefined break target")
	}
}

func TestLower_NotGenerator(t *testing.T) {
	fn := parseFunction(t, "function f(a) { return a + 1; }")
	out, err := New(Config{}).Lower(fn)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if out != fn {
		t.Error("non-generator function was rebuilt")
	}
}

func TestLower_Deterministic(t *testing.T) {
	sources := []string{
		"function* g() { yield 1; yield 2; }",
		"function* g(o) { for (var k in o) { if (yield k) continue; } }",
		"function* g(a) { switch (a) { case 1: yield 1; case (yield 2): break; default: yield 3; } }",
		"function* g() { try { yield 1; } catch (e) { yield e; } finally { yield 0; } }",
	}
	for _, src := range sources {
		first := lower(t, src)
		second := lower(t, src)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("lowering %q twice differs:\n%s", src, diff)
		}
	}
}

// dispatch returns the case clauses of a lowered function.
func dispatch(t *testing.T, fn *ast.Function) []*ast.CaseClause {
	t.Helper()
	ret, ok := fn.Body[len(fn.Body)-1].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("last statement is %T, want return", fn.Body[len(fn.Body)-1])
	}
	call := ret.X.(*ast.CallExpr)
	driver := call.Args[0].(*ast.FuncLit).Fn
	return driver.Body[0].(*ast.SwitchStmt).Cases
}

var propertySources = []string{
	"function* g() { yield 1; yield 2; }",
	"function* g() { while (a) { yield 1; } }",
	"function* g() { do { yield 1; } while (a); }",
	"function* g() { for (;;) { if (yield) break; } }",
	"function* g() { x: { y: { yield 1; break x; } } }",
	"function* g() { if (a) { yield 1; } else { yield 2; } }",
	"function* g() { if (a) { if (b) { yield 1; } } }",
	"function* g() { try { yield 1; } finally { try { yield 2; } catch (e) {} } }",
	"function* g() { try { try { yield 1; } finally {} } catch (e) {} }",
	"function* g() { a: while (x) { b: while (y) { yield; continue a; } } }",
	"function* g(a) { switch (a) { case 1: case 2: yield 1; break; default: } }",
	"function* g(o) { with (o) { yield x; } }",
	"function* g() { return yield* inner(); }",
	"function* g() { var a = (yield 1) ? (yield 2) : (yield 3); }",
	"function* g() { while (true) { try { yield 1; break; } finally { cleanup(); } } }",
}

func TestLower_NoEmptyClauses(t *testing.T) {
	for _, src := range propertySources {
		t.Run(src, func(t *testing.T) {
			out, err := New(Config{}).Lower(parseFunction(t, src))
			if err != nil {
				t.Fatalf("Lower failed: %v", err)
			}
			for i, c := range dispatch(t, out) {
				n, ok := c.Test.(*ast.NumberLit)
				if !ok || int(n.Value) != i {
					t.Errorf("clause %d has test %s", i, syntax.Print(c.Test))
				}
				if len(c.Body) == 0 {
					t.Errorf("clause %d is empty", i)
				}
			}
		})
	}
}

func TestLinearize_LabelsResolved(t *testing.T) {
	for _, src := range propertySources {
		t.Run(src, func(t *testing.T) {
			prog, err := New(Config{}).Linearize(parseFunction(t, src))
			if err != nil {
				t.Fatalf("Linearize failed: %v", err)
			}
			for i, op := range prog.Ops {
				for _, l := range ir.Targets(op) {
					if prog.Offset(l) < 0 {
						t.Errorf("op %d (%s) targets unmarked label %d", i, op.Opcode(), l)
					}
				}
			}
		})
	}
}

// regions collects the arrays pushed onto state.trys.
func regions(t *testing.T, fn *ast.Function) [][]ast.Expr {
	t.Helper()
	var out [][]ast.Expr
	for _, c := range dispatch(t, fn) {
		ast.Inspect(c, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			m, ok := call.Callee.(*ast.MemberExpr)
			if !ok || m.Name != "push" {
				return true
			}
			if inner, ok := m.X.(*ast.MemberExpr); ok && inner.Name == "trys" {
				out = append(out, call.Args[0].(*ast.ArrayLit).Elements)
			}
			return true
		})
	}
	return out
}

func TestLower_ExceptionTable(t *testing.T) {
	tests := []struct {
		src     string
		present [4]bool
	}{
		{"function* g() { try { yield 1; } catch (e) {} }", [4]bool{true, true, false, true}},
		{"function* g() { try { yield 1; } finally {} }", [4]bool{true, false, true, true}},
		{"function* g() { try { yield 1; } catch (e) {} finally {} }", [4]bool{true, true, true, true}},
		{"function* g() { try {} catch (e) { yield e; } }", [4]bool{true, true, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, err := New(Config{}).Lower(parseFunction(t, tt.src))
			if err != nil {
				t.Fatalf("Lower failed: %v", err)
			}
			found := regions(t, out)
			if len(found) != 1 {
				t.Fatalf("found %d region pushes, want 1", len(found))
			}
			slots := found[0]
			if len(slots) != 4 {
				t.Fatalf("region has %d slots, want 4", len(slots))
			}
			start := slots[0].(*ast.NumberLit).Value
			for i, want := range tt.present {
				if got := slots[i] != nil; got != want {
					t.Errorf("slot %d present = %v, want %v", i, got, want)
					continue
				}
				if i > 0 && slots[i] != nil && slots[i].(*ast.NumberLit).Value <= start {
					t.Errorf("slot %d = %v not after start %v", i, slots[i].(*ast.NumberLit).Value, start)
				}
			}
		})
	}
}

func TestLower_NativeLoopJumps(t *testing.T) {
	src := `function* g() {
    outer: while (x) {
        for (;;) {
            if (a) break;
            if (b) break outer;
            if (c) continue outer;
        }
        yield 1;
    }
}`
	got := lower(t, src)
	if !strings.Contains(got, "break;") {
		t.Errorf("unlabeled break of a native loop was rewritten:\n%s", got)
	}
	if n := strings.Count(got, "return [3 /*break*/, 2];"); n != 2 {
		t.Errorf("jumps to loop end = %d, want 2:\n%s", n, got)
	}
	if n := strings.Count(got, "return [3 /*break*/, 0];"); n != 2 {
		t.Errorf("jumps to loop head = %d, want 2:\n%s", n, got)
	}
}

func TestLower_HoistsDeclarations(t *testing.T) {
	src := `function* g() {
    var a = 1;
    function helper() { return a; }
    yield helper();
}`
	out, err := New(Config{}).Lower(parseFunction(t, src))
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if _, ok := out.Body[0].(*ast.VarDecl); !ok {
		t.Errorf("first statement is %T, want hoisted var", out.Body[0])
	}
	decl, ok := out.Body[1].(*ast.FuncDecl)
	if !ok || decl.Fn.Name != "helper" {
		t.Fatalf("second statement is %T, want hoisted helper", out.Body[1])
	}
	if strings.Contains(syntax.Print(out.Body[2]), "function helper") {
		t.Error("function declaration left inside the driver")
	}
}

func TestLower_RenamesState(t *testing.T) {
	got := lower(t, "function* g(state) { yield state; }")
	if !strings.Contains(got, "function (state_1)") {
		t.Errorf("driver parameter not renamed:\n%s", got)
	}
	if !strings.Contains(got, "return [4 /*yield*/, state];") {
		t.Errorf("user variable was renamed:\n%s", got)
	}
}

func TestLower_ThisAndArguments(t *testing.T) {
	got := lower(t, "function* g() { yield this.x; yield arguments.length; }")
	for _, want := range []string{
		"var _this = this;",
		"var _arguments = arguments;",
		"return [4 /*yield*/, _this.x];",
		"return [4 /*yield*/, _arguments.length];",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestLower_NestedFunctionKeepsThis(t *testing.T) {
	got := lower(t, "function* g() { yield function () { return this; }; }")
	if strings.Contains(got, "_this") {
		t.Errorf("this inside a nested function was aliased:\n%s", got)
	}
}

func TestLower_MethodCallReceiver(t *testing.T) {
	got := lower(t, "function* g(o) { o.m(a, yield 1); }")
	for _, want := range []string{
		"_a = o;",
		"_b = _a.m;",
		"_c = a;",
		"_b.call(_a, _c, state.sent());",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestLower_ForInSnapshot(t *testing.T) {
	got := lower(t, "function* g(o) { for (var k in o) { yield k; } }")
	for _, want := range []string{
		"_a = o;",
		"_b = [];",
		"for (_c in _a)",
		"_b.push(_c);",
		"_d = 0;",
		"_c = _b[_d];",
		"if (!(_c in _a))",
		"k = _c;",
		"_d++;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestLower_SwitchWithSuspendingCase(t *testing.T) {
	got := lower(t, "function* g(a) { switch (a) { case 1: f(); case (yield): g(); break; default: h(); } }")
	if n := strings.Count(got, "switch (_a)"); n != 2 {
		t.Errorf("native switches = %d, want 2:\n%s", n, got)
	}
	if !strings.Contains(got, "case state.sent():") {
		t.Errorf("suspending case test not read from the resumption slot:\n%s", got)
	}
}

func TestLower_WithRegion(t *testing.T) {
	got := lower(t, "function* g(o) { with (o) { a(); yield b; c(); } }")
	if n := strings.Count(got, "with (_a)"); n != 2 {
		t.Errorf("with wrappers = %d, want 2:\n%s", n, got)
	}
}

func TestLower_YieldStar(t *testing.T) {
	got := lower(t, "function* g() { var r = yield* inner(); }")
	if !strings.Contains(got, "return [5 /*yieldstar*/, inner()];") {
		t.Errorf("missing delegation tuple:\n%s", got)
	}
}

func TestLower_NoAnnotations(t *testing.T) {
	out, err := New(Config{HelperName: "gen", StateName: "s"}).Lower(parseFunction(t, "function* g() { yield 1; }"))
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	got := syntax.Print(out)
	for _, want := range []string{"return gen(function (s) {", "return [4, 1];", "switch (s.label)"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestAssemble_UnmarkedLabel(t *testing.T) {
	prog := &ir.Program{
		Ops:    []ir.Operation{ir.Break{Target: 1}},
		Labels: []int{-1, -1},
		State:  "state",
	}
	_, err := New(Config{}).Assemble(prog)
	if err == nil {
		t.Fatal("expected error for unmarked label")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnmarkedLabel {
		t.Errorf("error = %v, want unmarked label", err)
	}
}

func TestAssemble_CollapsesLabels(t *testing.T) {
	// Two labels marked at the same offset share one clause.
	prog := &ir.Program{
		Ops: []ir.Operation{
			ir.Yield{},
			ir.Break{Target: 2},
		},
		Labels: []int{-1, 1, 1},
		State:  "state",
	}
	body, err := New(Config{}).Assemble(prog)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	fn := ast.NewFunction("g", nil, body, false)
	clauses := dispatch(t, fn)
	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(clauses))
	}
}
