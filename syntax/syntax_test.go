package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/genlower/ast"
	gerrors "github.com/wippyai/genlower/errors"
)

func TestParsePrint_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"generator",
			"function* g(a, b) { yield a; yield* b; }",
			"function* g(a, b) {\n    yield a;\n    yield* b;\n}\n",
		},
		{
			"precedence",
			"x = (a + b) * c - d / (e - f);",
			"x = (a + b) * c - d / (e - f);\n",
		},
		{
			"exponent right assoc",
			"x = (a ** b) ** c + a ** b ** c;",
			"x = (a ** b) ** c + a ** b ** c;\n",
		},
		{
			"logical and conditional",
			"r = a && (b || c) ? d : e, f;",
			"r = a && (b || c) ? d : e, f;\n",
		},
		{
			"unary spacing",
			"x = - -a + -(-b) + typeof c + !d;",
			"x = - -a + - -b + typeof c + !d;\n",
		},
		{
			"literals",
			"var a = [1, , 'two', null, true], o = { k: 1, 'x-y': [] };",
			"var a = [1, , \"two\", null, true], o = { k: 1, \"x-y\": [] };\n",
		},
		{
			"member call new",
			"new Foo(1).bar[0](x); new (f())();",
			"new Foo(1).bar[0](x);\nnew (f())();\n",
		},
		{
			"function expression statement",
			"(function () { return 1; })();",
			"(function () {\n    return 1;\n}());\n",
		},
		{
			"control flow",
			"if (a) b(); else if (c) { d(); } else e();",
			"if (a)\n    b();\nelse if (c) {\n    d();\n} else\n    e();\n",
		},
		{
			"loops",
			"for (var i = 0; i < n; i++) { s += i; } for (k in o) {} do x--; while (x)",
			"for (var i = 0; i < n; i++) {\n    s += i;\n}\nfor (k in o) {}\ndo\n    x--;\nwhile (x);\n",
		},
		{
			"switch",
			"switch (x) { case 1: a(); break; default: b(); }",
			"switch (x) {\n    case 1:\n        a();\n        break;\n    default:\n        b();\n}\n",
		},
		{
			"try labeled with",
			"outer: while (1) { try { break outer; } catch (e) { continue; } finally { with (o) f(); } }",
			"outer: while (1) {\n    try {\n        break outer;\n    } catch (e) {\n        continue;\n    } finally {\n        with (o)\n            f();\n    }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if got := Print(prog); got != tt.want {
				t.Errorf("Print() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestParse_ASI(t *testing.T) {
	prog, err := Parse("a = 1\nb = 2\nfunction f() { return\n1 }")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(prog.Body) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Body))
	}
	fn := prog.Body[2].(*ast.FuncDecl).Fn
	if ret := fn.Body[0].(*ast.ReturnStmt); ret.X != nil {
		t.Error("return followed by newline should have no operand")
	}
}

func TestParse_ForIn(t *testing.T) {
	prog, err := Parse("for (var k in o) f(k); for (x.y in o) {}")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	first := prog.Body[0].(*ast.ForInStmt)
	if decl, ok := first.Left.(*ast.VarDecl); !ok || decl.Decls[0].Name != "k" {
		t.Errorf("Left = %T, want var k", first.Left)
	}
	if _, ok := prog.Body[1].(*ast.ForInStmt).Left.(*ast.MemberExpr); !ok {
		t.Error("member for-in target not parsed")
	}
}

func TestParse_YieldForms(t *testing.T) {
	fn, err := ParseFunction("function* g() { x = yield; f(yield a, yield); yield\nb; }")
	if err != nil {
		t.Fatalf("ParseFunction() error: %v", err)
	}
	if !fn.Generator || !fn.BodyFlags().Has(ast.ContainsYield) {
		t.Fatal("expected generator with yield")
	}
	assign := fn.Body[0].(*ast.ExprStmt).X.(*ast.AssignExpr)
	if y := assign.Value.(*ast.YieldExpr); y.Arg != nil {
		t.Error("bare yield should have nil operand")
	}
	call := fn.Body[1].(*ast.ExprStmt).X.(*ast.CallExpr)
	if len(call.Args) != 2 {
		t.Errorf("got %d args, want 2", len(call.Args))
	}
	if y := fn.Body[2].(*ast.ExprStmt).X.(*ast.YieldExpr); y.Arg != nil {
		t.Error("yield before newline should have nil operand")
	}
}

func TestParse_YieldOutsideGenerator(t *testing.T) {
	if _, err := Parse("function f() { yield 1; }"); err == nil {
		t.Error("yield in a plain function should not parse")
	}
}

func TestParse_Lines(t *testing.T) {
	fn, err := ParseFunction("function g() {\n\n  var x = 1;\n}")
	if err != nil {
		t.Fatalf("ParseFunction() error: %v", err)
	}
	if line := fn.Body[0].Line(); line != 3 {
		t.Errorf("Line() = %d, want 3", line)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"missing paren", "if (a { }", `expected ")"`},
		{"bad target", "1 = 2;", "invalid assignment target"},
		{"try alone", "try {}", "try without catch or finally"},
		{"return at top", "return 1;", "return outside function"},
		{"unterminated block", "function f() {", "end of input"},
		{"missing semicolon", "a b", `expected ";"`},
		{"bad token", "a = @;", "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err, tt.contains)
			}
			var se *gerrors.Error
			if !errors.As(err, &se) || se.Phase != gerrors.PhaseParse {
				t.Errorf("expected parse-phase error, got %T", err)
			}
		})
	}
}

func TestParseFunction_NotAFunction(t *testing.T) {
	if _, err := ParseFunction("var x = 1;"); err == nil {
		t.Error("expected error")
	}
}
