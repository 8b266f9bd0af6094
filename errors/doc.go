// Package errors provides structured error types for genlower.
//
// Errors are categorized by Phase (which pass produced the error) and Kind
// (error category). The Error type carries the function path, the source
// line when known, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAssemble, errors.KindUnmarkedLabel).
//		Path("outer", "gen").
//		Detail("label %d referenced but never marked", 4).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Syntax(12, "expected ')'")
//	err := errors.UnresolvedTarget([]string{"gen"}, "break", "outer")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
