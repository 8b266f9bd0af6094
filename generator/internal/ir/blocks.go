package ir

import (
	"slices"

	"github.com/wippyai/genlower/ast"
)

// BlockKind identifies a block scope variant.
type BlockKind int

const (
	KindException BlockKind = iota
	KindWith
	KindBreak
	KindScriptBreak
	KindContinue
	KindScriptContinue
)

func (k BlockKind) String() string {
	switch k {
	case KindException:
		return "exception"
	case KindWith:
		return "with"
	case KindBreak:
		return "break"
	case KindScriptBreak:
		return "script-break"
	case KindContinue:
		return "continue"
	case KindScriptContinue:
		return "script-continue"
	}
	return "unknown"
}

// Block is a scope on the registry's block stack.
type Block interface {
	Kind() BlockKind
}

// ExceptionState tracks which clause of a try is being linearized. It only
// moves forward.
type ExceptionState int

const (
	StateTry ExceptionState = iota
	StateCatch
	StateFinally
	StateDone
)

func (s ExceptionState) String() string {
	switch s {
	case StateTry:
		return "try"
	case StateCatch:
		return "catch"
	case StateFinally:
		return "finally"
	case StateDone:
		return "done"
	}
	return "unknown"
}

type ExceptionBlock struct {
	State    ExceptionState
	Start    Label
	Catch    Label
	Finally  Label
	End      Label
	CatchVar ast.Expr
}

// WithBlock is a with region. Expr is the cached object expression.
type WithBlock struct {
	Expr  ast.Expr
	Start Label
	End   Label
}

// BreakBlock is a break target: a linearized switch or labeled statement,
// or with Script set, one left as native control flow.
type BreakBlock struct {
	Script       bool
	BreakLabel   Label
	LabelNames   []string
	RequireLabel bool
}

// ContinueBlock is a loop: linearized, or with Script set, native.
type ContinueBlock struct {
	Script        bool
	BreakLabel    Label
	ContinueLabel Label
	LabelNames    []string
}

func (*ExceptionBlock) Kind() BlockKind { return KindException }
func (*WithBlock) Kind() BlockKind      { return KindWith }

func (b *BreakBlock) Kind() BlockKind {
	if b.Script {
		return KindScriptBreak
	}
	return KindBreak
}

func (b *ContinueBlock) Kind() BlockKind {
	if b.Script {
		return KindScriptContinue
	}
	return KindContinue
}

func (b *BreakBlock) matchesBreak(name string) bool {
	if name == "" {
		return !b.RequireLabel
	}
	return slices.Contains(b.LabelNames, name)
}

func (b *ContinueBlock) matchesBreak(name string) bool {
	return name == "" || slices.Contains(b.LabelNames, name)
}

func (b *ContinueBlock) matchesContinue(name string) bool {
	return name == "" || slices.Contains(b.LabelNames, name)
}

// BlockAction records a block opening or closing at an operation index.
type BlockAction struct {
	Offset int
	Open   bool
	Block  Block
}
