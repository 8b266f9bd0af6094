package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/genlower/syntax"
)

const sample = `
function* outer() {
    var inner = function* () { yield 1; };
    yield* inner();
}
function plain() {
    function* nested() { yield 2; }
    return nested;
}
`

func TestGenerators_Paths(t *testing.T) {
	prog, err := syntax.Parse(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got []string
	for _, g := range generators(prog) {
		got = append(got, g.path)
	}
	want := []string{"outer", "outer.<anonymous>", "plain.nested"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	prog, err := syntax.Parse("function* g(x) { yield x; }")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := generators(prog)[0]
	v := describe(g, options{}.generatorConfig())
	if v.err != nil {
		t.Fatalf("describe: %v", v.err)
	}
	if !strings.Contains(v.source, "yield x") {
		t.Errorf("source = %q", v.source)
	}
	if v.ir == "" {
		t.Error("empty operations dump")
	}
	for _, want := range []string{"__generator(function (state)", "return [4 /*yield*/, x];"} {
		if !strings.Contains(v.lowered, want) {
			t.Errorf("lowered output missing %q:\n%s", want, v.lowered)
		}
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genlower.yaml")
	data := "helper: __gen\nstate: st\nannotate: false\nskip: [\"test*\"]\nparallelism: 4\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := loadOptions(path)
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	cfg := opts.generatorConfig()
	if cfg.HelperName != "__gen" || cfg.StateName != "st" || cfg.Annotate {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Selects("testOne") || !cfg.Selects("run") {
		t.Error("skip list not applied")
	}
	if opts.Parallelism != 4 {
		t.Errorf("parallelism = %d, want 4", opts.Parallelism)
	}
}

func TestLoadOptions_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("parallelism: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	negative := filepath.Join(dir, "negative.yaml")
	if err := os.WriteFile(negative, []byte("parallelism: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{filepath.Join(dir, "missing.yaml"), bad, negative} {
		if _, err := loadOptions(path); err == nil {
			t.Errorf("loadOptions(%s) succeeded", filepath.Base(path))
		}
	}
}

func TestExecute(t *testing.T) {
	prog, err := syntax.Parse(`
function* g() { yield "a"; yield "b"; }
function main() { var it = g(); print(it.next().value, it.next().value); return 3; }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lowered, err := options{}.pipeline().Program(prog)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	var out bytes.Buffer
	in := newInterpreter(&out)
	defer in.Close()
	if err := in.Run(t.Context(), lowered); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := in.Call(t.Context(), "main"); err != nil {
		t.Fatalf("main: %v", err)
	}
	if got := out.String(); got != "a b\n" {
		t.Errorf("output = %q, want %q", got, "a b\n")
	}
}

func TestInteractive_Navigation(t *testing.T) {
	m := newInteractiveModel("sample.js", sample, options{})
	m.Update(m.load())
	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}

	for _, r := range "nest" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if len(m.visible) != 1 || m.current().path != "plain.nested" {
		t.Fatalf("filter kept %v", m.visible)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateShowFunc || m.pane != paneSource {
		t.Fatalf("state = %v, pane = %v", m.state, m.pane)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneIR {
		t.Errorf("pane = %v, want %v", m.pane, paneIR)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.View(), "lowered") {
		t.Error("view does not name the lowered pane")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateSelectFunc {
		t.Errorf("state = %v after esc", m.state)
	}
}
