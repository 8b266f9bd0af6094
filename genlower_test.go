package genlower

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/generator"
)

func TestCompile(t *testing.T) {
	out, err := Compile("function* g() { yield 1; }\nvar x = 2 ** 3;", DefaultConfig())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, want := range []string{
		"function g() {",
		"return __generator(function (state) {",
		"return [4 /*yield*/, 1];",
		"var x = Math.pow(2, 3);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompile_Deterministic(t *testing.T) {
	src := `
function* a() { try { yield 1; } finally { yield 2; } }
function* b(o) { for (var k in o) yield k; }
function* c() { yield* a(); }
`
	cfg := DefaultConfig()
	cfg.Parallelism = 4
	first, err := Compile(src, cfg)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	second, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("parallel output differs (-parallel +sequential):\n%s", diff)
	}
}

func TestCompile_Config(t *testing.T) {
	cfg := Config{Generator: generator.Config{
		HelperName: "drive",
		StateName:  "s",
		SkipList:   generator.NewWildcardMatcher([]string{"keep*"}),
	}}
	out, err := Compile("function* g() { yield 1; }\nfunction* keepMe() { yield 2; }", cfg)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, want := range []string{"return drive(function (s) {", "return [4, 1];", "function* keepMe() {"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		phase errors.Phase
		kind  errors.Kind
	}{
		{"syntax", "function* g( {", errors.PhaseParse, errors.KindSyntax},
		{"unterminated function", "function* g() { yield 1;", errors.PhaseParse, errors.KindSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src, DefaultConfig())
			if !stderrors.Is(err, &errors.Error{Phase: tt.phase, Kind: tt.kind}) {
				t.Errorf("error = %v, want %s %s", err, tt.phase, tt.kind)
			}
		})
	}
}
