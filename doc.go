// Package genlower rewrites generator functions into plain functions that
// drive an explicit state machine.
//
// A generator body is flattened into numbered case clauses of a switch on
// a label. Every suspension point returns an instruction tuple to a small
// driver primitive that owns resumption, delegation and protected regions.
//
// # Architecture Overview
//
//	genlower/            Source-to-source facade (Compile)
//	├── ast/             Syntax tree, flags and rewriting helpers
//	├── syntax/          Tokenizer, parser and printer for the source subset
//	├── generator/       Lowering of one function: linearize, then assemble
//	├── transform/       Multi-stage pipeline over whole programs
//	├── runtime/         The generator driver that lowered code calls
//	├── interp/          Interpreter running source and lowered programs
//	├── errors/          Structured error types for debugging
//	└── cmd/genlower/    Command line tool, REPL and TUI
//
// # Quick Start
//
// Lower a source file:
//
//	out, err := genlower.Compile(src, genlower.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(out)
//
// Lower a single function tree:
//
//	fn, err := syntax.ParseFunction("function* g() { yield 1; }")
//	lowered, err := generator.Lower(fn, generator.DefaultConfig())
//
// # Output Shape
//
//	function g() {
//	    return __generator(function (state) {
//	        switch (state.label) {
//	        case 0:
//	            return [4 /*yield*/, 1];
//	        case 1:
//	            state.sent();
//	            return [2 /*return*/];
//	        }
//	    });
//	}
//
// # Error Handling
//
// All errors are *errors.Error values carrying the phase and kind of the
// failure and, for lowering failures, the dotted path of the function:
//
//	var e *errors.Error
//	if stderrors.As(err, &e) && e.Internal() {
//	    // a consistency check in the lowering passes failed
//	}
package genlower
