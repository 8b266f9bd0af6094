package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/wippyai/genlower/interp"
	"github.com/wippyai/genlower/syntax"
)

const (
	prompt         = "> "
	continuePrompt = "... "
)

// runREPL reads entries, lowers them and evaluates them in one
// interpreter. An entry spans lines until its brackets balance.
func runREPL(opts options) error {
	tty := term.IsTerminal(int(os.Stdin.Fd()))
	cfg := &readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	}
	if !tty {
		cfg.Prompt = ""
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	in := newInterpreter(os.Stdout)
	defer in.Close()
	r := &repl{in: in, opts: opts, out: os.Stdout}

	if tty {
		fmt.Println("genlower REPL. .show toggles printing lowered code, .exit quits.")
	}

	var pending []string
	for {
		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			pending = nil
			if tty {
				rl.SetPrompt(prompt)
			}
			continue
		case err == io.EOF:
			return nil
		case err != nil:
			return fmt.Errorf("readline: %w", err)
		}

		if len(pending) == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ".exit":
				return nil
			case ".show":
				r.show = !r.show
				fmt.Fprintf(r.out, "show lowered code: %v\n", r.show)
				continue
			}
		}

		pending = append(pending, line)
		entry := strings.Join(pending, "\n")
		if depth(entry) > 0 {
			if tty {
				rl.SetPrompt(continuePrompt)
			}
			continue
		}
		pending = nil
		if tty {
			rl.SetPrompt(prompt)
		}
		r.eval(entry)
	}
}

type repl struct {
	in   *interp.Interpreter
	opts options
	out  io.Writer
	show bool
}

func (r *repl) eval(entry string) {
	prog, err := syntax.Parse(entry)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	lowered, err := r.opts.pipeline().Program(prog)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if r.show && lowered != prog {
		fmt.Fprint(r.out, syntax.Print(lowered))
	}
	v, err := r.in.Eval(context.Background(), lowered)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if v != interp.Undefined {
		fmt.Fprintln(r.out, interp.Format(v))
	}
}

// depth returns how many brackets of src are still open. Brackets inside
// string literals and comments are ignored.
func depth(src string) int {
	n := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return n + 1
			}
			i += end + 3
		case c == '{' || c == '(' || c == '[':
			n++
		case c == '}' || c == ')' || c == ']':
			n--
		}
	}
	return n
}
