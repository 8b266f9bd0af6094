package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pass produced the error
type Phase string

const (
	PhaseParse     Phase = "parse"     // source tokenizing and parsing
	PhaseLinearize Phase = "linearize" // statement linearization
	PhaseAssemble  Phase = "assemble"  // state machine assembly
	PhaseTransform Phase = "transform" // stage pipeline
	PhaseRuntime   Phase = "runtime"   // generator driver and interpreter
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax           Kind = "syntax"
	KindUnmarkedLabel    Kind = "unmarked_label"
	KindUndefinedLabel   Kind = "undefined_label"
	KindBlockImbalance   Kind = "block_imbalance"
	KindStateRegression  Kind = "state_regression"
	KindUnresolvedTarget Kind = "unresolved_target"
	KindUnsupported      Kind = "unsupported"
	KindInvalidInput     Kind = "invalid_input"
	KindAlreadyRunning   Kind = "already_running"
	KindNotFound         Kind = "not_found"
	KindThrown           Kind = "thrown"
)

// Error is the structured error type used throughout genlower
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Internal reports whether the error signals a defect in the lowering
// passes rather than a problem with the input.
func (e *Error) Internal() bool {
	switch e.Kind {
	case KindUnmarkedLabel, KindUndefinedLabel, KindBlockImbalance,
		KindStateRegression, KindUnresolvedTarget:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the function path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a parse error at the given line
func Syntax(line int, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Detail: detail,
	}
}

// UnmarkedLabel creates an error for a label referenced but never marked
func UnmarkedLabel(path []string, label int) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindUnmarkedLabel,
		Path:   path,
		Detail: fmt.Sprintf("label %d referenced but never marked", label),
		Value:  label,
	}
}

// BlockImbalance creates an error for a block closed without a matching open
func BlockImbalance(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBlockImbalance,
		Path:   path,
		Detail: detail,
	}
}

// StateRegression creates an error for an exception block moved backwards
func StateRegression(path []string, from, to string) *Error {
	return &Error{
		Phase:  PhaseLinearize,
		Kind:   KindStateRegression,
		Path:   path,
		Detail: fmt.Sprintf("exception block cannot move from %s to %s", from, to),
	}
}

// UnresolvedTarget creates an error for a break or continue with no target
func UnresolvedTarget(path []string, stmt, label string) *Error {
	detail := fmt.Sprintf("no enclosing target for %s", stmt)
	if label != "" {
		detail = fmt.Sprintf("no enclosing target for %s %s", stmt, label)
	}
	return &Error{
		Phase:  PhaseLinearize,
		Kind:   KindUnresolvedTarget,
		Path:   path,
		Detail: detail,
		Value:  label,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AlreadyRunning creates an error for re-entering an executing generator
func AlreadyRunning() *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindAlreadyRunning,
		Detail: "generator is already executing",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
