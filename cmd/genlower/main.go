package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/genlower"
	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/generator"
	"github.com/wippyai/genlower/interp"
	"github.com/wippyai/genlower/syntax"
	"github.com/wippyai/genlower/transform"
)

func main() {
	var (
		configFile  = flag.String("config", "", "YAML config file")
		dumpIR      = flag.Bool("ir", false, "Print the linearized operations of each generator")
		runProgram  = flag.Bool("run", false, "Run the lowered program and call main if it is defined")
		native      = flag.Bool("native", false, "With -run, run the program without lowering it")
		repl        = flag.Bool("repl", false, "Start a read-eval-print loop")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
		helper      = flag.String("helper", "", "Name of the generator driver primitive")
		state       = flag.String("state", "", "Preferred name of the driver state parameter")
		only        = flag.String("only", "", "Lower only these functions (comma-separated, * wildcards)")
		skip        = flag.String("skip", "", "Never lower these functions (comma-separated, * wildcards)")
		annotate    = flag.Bool("annotate", true, "Comment instruction codes with their names")
		parallelism = flag.Int("j", 0, "Lower top-level statements on this many goroutines")
	)
	flag.Usage = usage
	flag.Parse()

	log := newLogger(*verbose)
	generator.SetLogger(log)
	transform.SetLogger(log)
	atexit.Register(func() { _ = log.Sync() })

	opts, err := loadOptions(*configFile)
	if err != nil {
		fatalf("%v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "helper":
			opts.HelperName = *helper
		case "state":
			opts.StateName = *state
		case "only":
			opts.Only = splitList(*only)
		case "skip":
			opts.Skip = splitList(*skip)
		case "annotate":
			opts.Annotate = annotate
		case "j":
			opts.Parallelism = *parallelism
		}
	})

	if *repl {
		if err := runREPL(opts); err != nil {
			fatalf("%v", err)
		}
		atexit.Exit(0)
	}

	if flag.NArg() != 1 {
		usage()
		atexit.Exit(2)
	}
	file := flag.Arg(0)
	data, err := os.ReadFile(file)
	if err != nil {
		fatalf("read file: %v", err)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fatalf("interactive mode needs a terminal")
		}
		if err := runInteractive(file, string(data), opts); err != nil {
			fatalf("%v", err)
		}
		atexit.Exit(0)
	}

	if err := run(string(data), opts, *dumpIR, *runProgram, *native); err != nil {
		fatalf("%v", err)
	}
	atexit.Exit(0)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: genlower [flags] <file.js>")
	fmt.Fprintln(os.Stderr, "       genlower -ir <file.js>    (dump linearized operations)")
	fmt.Fprintln(os.Stderr, "       genlower -run <file.js>   (run the lowered program)")
	fmt.Fprintln(os.Stderr, "       genlower -i <file.js>     (interactive mode)")
	fmt.Fprintln(os.Stderr, "       genlower -repl")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	atexit.Exit(1)
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return l
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(src string, opts options, dumpIR, runProgram, native bool) error {
	if !dumpIR && !runProgram {
		out, err := genlower.Compile(src, opts.config())
		if err != nil {
			return fmt.Errorf("lower: %w", err)
		}
		fmt.Print(out)
		return nil
	}

	prog, err := syntax.Parse(src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if dumpIR {
		cfg := opts.generatorConfig()
		for _, g := range generators(prog) {
			view := describe(g, cfg)
			fmt.Printf("// %s\n", g.path)
			if view.err != nil {
				fmt.Printf("// error: %v\n\n", view.err)
				continue
			}
			fmt.Println(view.ir)
		}
		return nil
	}
	if !native {
		if prog, err = opts.pipeline().Program(prog); err != nil {
			return fmt.Errorf("lower: %w", err)
		}
	}
	return execute(prog)
}

// execute runs prog with a print builtin and calls main when the program
// defines it.
func execute(prog *ast.Program) error {
	ctx := context.Background()
	in := newInterpreter(os.Stdout)
	defer in.Close()

	if err := in.Run(ctx, prog); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if _, ok := in.Global("main"); !ok {
		return nil
	}
	result, err := in.Call(ctx, "main")
	if err != nil {
		return fmt.Errorf("call main: %w", err)
	}
	if result != interp.Undefined {
		fmt.Printf("Result: %s\n", interp.Format(result))
	}
	return nil
}
