package interp

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/runtime"
	"github.com/wippyai/genlower/syntax"
	"github.com/wippyai/genlower/transform"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := syntax.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func lowerProgram(t *testing.T, prog *ast.Program) *ast.Program {
	t.Helper()
	p := transform.New(transform.Config{Stages: transform.DefaultStages(generator.DefaultConfig())})
	out, err := p.Program(prog)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if generator.Contains(out) {
		t.Fatalf("lowered program still has generators:\n%s", syntax.Print(out))
	}
	return out
}

// trace runs prog, calls main and returns what the program logged.
func trace(t *testing.T, prog *ast.Program) []string {
	t.Helper()
	in := New()
	defer in.Close()

	var lines []string
	in.Define("log", &Builtin{Name: "log", Fn: func(_ any, args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Format(a)
		}
		lines = append(lines, strings.Join(parts, " "))
		return arg(args, 0), nil
	}})

	ctx := context.Background()
	if err := in.Run(ctx, prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := in.Call(ctx, "main"); err != nil {
		t.Fatalf("main: %v", err)
	}
	return lines
}

func TestLowering_PreservesBehavior(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "binary operands",
			src: `
function* g() { log("sum", log(1) + (yield log(2)) + log(3)); }
function main() { var it = g(); it.next(); it.next(10); }`,
		},
		{
			name: "short circuit taken",
			src: `
function a(v) { log("a", v); return v; }
function* g(v) { var x = a(v) && (yield log("b")); log("x", x); }
function main() {
    var it = g(0); log(it.next().done);
    it = g(1); it.next(); log(it.next(7).done);
}`,
		},
		{
			name: "conditional",
			src: `
function* g(c) { var r = c ? yield log("then") : log("else"); log("r", r); }
function main() {
    var it = g(true); it.next(); it.next("sent");
    it = g(false); log(it.next().done);
}`,
		},
		{
			name: "method call keeps receiver",
			src: `
var o = { name: "o", m: function (a, b) { log(this.name, a, b); return a + b; } };
function* g() { log("result", o.m(log(1), yield log(2))); }
function main() { var it = g(); it.next(); it.next(5); }`,
		},
		{
			name: "array and object literals",
			src: `
function* g() {
    var a = [log(1), yield log(2), log(3)];
    var b = { x: log("x"), y: yield log("y"), z: log("z") };
    log(a, b);
}
function main() { var it = g(); it.next(); it.next("A"); it.next("B"); }`,
		},
		{
			name: "compound assignment",
			src: `
var o = { k: 1 };
function key() { log("key"); return "k"; }
function* g() { o[key()] += yield log("v"); log(o.k); }
function main() { var it = g(); it.next(); it.next(41); }`,
		},
		{
			name: "loop condition suspends",
			src: `
function* g() { for (var i = 0; i < (yield i); i++) { log("body", i); } log("end", i); }
function main() {
    var it = g();
    log(it.next().value); log(it.next(3).value); log(it.next(3).value);
    log(it.next(3).value); log(it.next(0).done);
}`,
		},
		{
			name: "for in skips deleted keys",
			src: `
function* g(o) { for (var k in o) { log("key", k); yield k; } }
function main() {
    var o = { a: 1, b: 2, c: 3 };
    var it = g(o);
    it.next(); delete o.b; it.next(); it.next(); log(it.next().done);
}`,
		},
		{
			name: "switch with suspending case",
			src: `
function* g(v) {
    switch (v) {
    case log(1): log("one");
    case yield "probe": log("probe"); break;
    case log(3): log("three"); break;
    default: log("default");
    }
    log("after");
}
function main() {
    var it = g(2); it.next(); it.next(2);
    it = g(3); it.next(); it.next(0);
    it = g(9); it.next(); it.next(0);
    it = g(1); it.next(); it.next(0);
}`,
		},
		{
			name: "labeled continue",
			src: `
function* g() {
    outer: for (var i = 0; i < 3; i++) {
        for (var j = 0; j < 3; j++) {
            if (j == 1) continue outer;
            if (i == 2) break outer;
            yield i * 10 + j;
        }
    }
    log("done", i, j);
}
function main() { var it = g(); var r = it.next(); while (!r.done) { log(r.value); r = it.next(); } }`,
		},
		{
			name: "try catch finally",
			src: `
function* g() {
    try {
        log("try");
        yield 1;
        log("not reached");
    } catch (e) {
        log("caught", e);
        yield 2;
    } finally {
        log("finally");
    }
    return "end";
}
function main() {
    var it = g();
    log(it.next().value);
    log(it.throw("boom").value);
    var r = it.next();
    log(r.value, r.done);
}`,
		},
		{
			name: "return runs finally",
			src: `
function* g() {
    try { yield 1; yield 2; } finally { log("cleanup"); }
}
function main() {
    var it = g(); it.next();
    var r = it.return(9);
    log(r.value, r.done);
    log(it.next().done);
}`,
		},
		{
			name: "uncaught throw",
			src: `
function* g() { yield 1; throw "bad"; }
function main() {
    var it = g(); it.next();
    try { it.next(); } catch (e) { log("main caught", e); }
    log(it.next().done);
}`,
		},
		{
			name: "nested try",
			src: `
function* g() {
    try {
        try { yield 1; throw "inner"; } finally { log("inner finally"); }
    } catch (e) {
        log("outer caught", e);
    }
    yield 2;
}
function main() { var it = g(); it.next(); log(it.next().value); log(it.next().done); }`,
		},
		{
			name: "yield star",
			src: `
function* inner() { var x = yield "i1"; log("inner got", x); return "inner done"; }
function* g() { var r = yield* inner(); log("r", r); yield* [1, 2]; }
function main() {
    var it = g(); var r = it.next();
    while (!r.done) { log(r.value); r = it.next("s"); }
}`,
		},
		{
			name: "with statement",
			src: `
function* g(o) { with (o) { x = yield x; log("x", x); } }
function main() { var o = { x: 1 }; var it = g(o); log(it.next().value); it.next(5); log(o.x); }`,
		},
		{
			name: "this and arguments",
			src: `
var o = { name: "obj" };
function* g(a) { yield this.name; yield arguments.length; log(a, arguments[1]); }
function main() {
    var it = g.call(o, "p", "q");
    log(it.next().value); log(it.next().value); log(it.next().done);
}`,
		},
		{
			name: "nested generator function",
			src: `
function* outer() {
    var mk = function* (n) { while (n > 0) { yield n; n--; } };
    yield* mk(2);
    yield "outer";
}
function main() { var it = outer(); var r = it.next(); while (!r.done) { log(r.value); r = it.next(); } }`,
		},
		{
			name: "comma and new",
			src: `
function P(a, b) { this.sum = a + b; }
function* g() { var p = new P(log(1), yield log(2)); var s = (log("a"), yield log("b"), log("c")); log(p.sum, s); }
function main() { var it = g(); it.next(); it.next(10); it.next(); }`,
		},
		{
			name: "catch binding shadows outer variable",
			src: `
function* g() {
    var e = "outer";
    try { yield 1; throw "inner"; } catch (e) { log("caught", e); }
    log("e", e);
}
function main() { var it = g(); it.next(); it.next(); }`,
		},
		{
			name: "update and unary operands suspend",
			src: `
function* g() {
    var o = { k: 1 };
    o[yield "k"]++;
    log(o.k, typeof (yield));
}
function main() { var it = g(); log(it.next().value); it.next("k"); it.next(); }`,
		},
		{
			name: "exponent assignment to computed key",
			src: `
var calls = 0;
function k() { calls++; log("key"); return "a"; }
var top = { a: 2 };
top[k()] **= 3;
function* g() { var o = { a: 3 }; o[k()] **= yield 2; log(o.a, calls); }
function main() { var it = g(); log(top.a); it.next(); it.next(2); }`,
		},
		{
			name: "return in both branches",
			src: `
function* g(a) { if (a) { yield 1; return "then"; } else { return "else"; } }
function main() {
    var it = g(true); it.next(); log(it.next().value);
    log(g(false).next().value);
}`,
		},
		{
			name: "do while with yield in body",
			src: `
function* g() { var i = 0; do { yield i; i++; } while (i < 3); }
function main() { var it = g(); var r = it.next(); while (!r.done) { log(r.value); r = it.next(); } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native := trace(t, parse(t, tt.src))
			lowered := trace(t, lowerProgram(t, parse(t, tt.src)))
			if len(native) == 0 {
				t.Fatal("program logged nothing")
			}
			if diff := cmp.Diff(native, lowered); diff != "" {
				t.Errorf("lowered trace differs (-native +lowered):\n%s", diff)
			}
		})
	}
}

func TestNative_Values(t *testing.T) {
	got := trace(t, parse(t, `
function* g() { var x = yield 1; log("got", x); return x * 2; }
function main() {
    var it = g();
    var r = it.next();
    log(r.value, r.done);
    r = it.next(21);
    log(r.value, r.done);
}`))
	want := []string{"1 false", `"got" 21`, "42 true"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestNative_UpdateEvaluatesTargetOnce(t *testing.T) {
	got := trace(t, parse(t, `
var n = 0;
function k() { n++; return "a"; }
function main() { var o = { a: 1 }; o[k()]++; log(n, o.a); log(o[k()]--, n, o.a); }`))
	want := []string{"1 2", "2 2 1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestLowered_Values(t *testing.T) {
	prog := lowerProgram(t, parse(t, `
function* g() { try { yield 1; } finally { log("finally"); } }
function main() { var it = g(); log(it.next().value); log(it.next().done); }`))
	want := []string{"1", `"finally"`, "true"}
	if diff := cmp.Diff(want, trace(t, prog)); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_AlreadyRunning(t *testing.T) {
	src := `
var it;
function* g() { try { it.next(); } catch (e) { log("caught", typeof e); } }
function main() { it = g(); it.next(); }`
	want := []string{`"caught" "string"`}
	if diff := cmp.Diff(want, trace(t, parse(t, src))); diff != "" {
		t.Errorf("native mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, trace(t, lowerProgram(t, parse(t, src)))); diff != "" {
		t.Errorf("lowered mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
	}{
		{name: "uncaught throw", src: "throw 1;", kind: errors.KindThrown},
		{name: "undefined name", src: "missing();", kind: errors.KindThrown},
		{name: "return outside function", src: "return 1;", kind: errors.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := syntax.Parse(tt.src)
			if err != nil {
				t.Skipf("parser rejects %q: %v", tt.src, err)
			}
			err = New().Run(context.Background(), prog)
			want := &errors.Error{Phase: errors.PhaseRuntime, Kind: tt.kind}
			if !stderrors.Is(err, want) {
				t.Errorf("error = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Run(ctx, parse(t, "while (true) {}"))
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCall_NotFound(t *testing.T) {
	_, err := New().Call(context.Background(), "nope")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotFound}) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestClose_RunsPendingFinally(t *testing.T) {
	in := New()
	var lines []string
	in.Define("log", &Builtin{Name: "log", Fn: func(_ any, args []any) (any, error) {
		lines = append(lines, toString(arg(args, 0)))
		return Undefined, nil
	}})
	prog := parse(t, `
function* g() { try { yield 1; } finally { log("closed"); } }
var it = g();
it.next();`)
	if err := in.Run(context.Background(), prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	in.Close()
	if diff := cmp.Diff([]string{"closed"}, lines); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
	v, _ := in.Global("it")
	if it, ok := v.(runtime.Iterator); ok {
		r, err := it.Next(Undefined)
		if err != nil || !r.Done {
			t.Errorf("closed generator Next = %+v, %v", r, err)
		}
	}
}

func TestFormat(t *testing.T) {
	obj := NewObject()
	obj.Set("a", 1.0)
	obj.Set("b", NewArray("x", nil, true))
	tests := []struct {
		in   any
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{1.5, "1.5"},
		{"s", `"s"`},
		{obj, `{ a: 1, b: ["x", , true] }`},
		{NewObject(), "{}"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEval_LastExpression(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2;", "3"},
		{"var x = 2; x * 21;", "42"},
		{"var y = 1;", "undefined"},
		{"function* g() { yield 7; } g().next().value;", "7"},
		{"[1, 2].concat([3]);", "[1, 2, 3]"},
	}
	for _, tt := range tests {
		in := New()
		v, err := in.Eval(context.Background(), parse(t, tt.src))
		if err != nil {
			t.Errorf("Eval(%q): %v", tt.src, err)
			in.Close()
			continue
		}
		if got := Format(v); got != tt.want {
			t.Errorf("Eval(%q) = %s, want %s", tt.src, got, tt.want)
		}
		in.Close()
	}
}
