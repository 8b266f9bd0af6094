package ast

import "strings"

// Flags summarize what a subtree contains.
type Flags uint8

const (
	// ContainsYield marks a yield or yield* in the subtree, not counting
	// nested functions.
	ContainsYield Flags = 1 << iota
	// ContainsGenerator marks a generator function in the subtree,
	// including the node itself.
	ContainsGenerator
	// ContainsExponent marks a ** or **= operator in the subtree.
	ContainsExponent
)

// crossesFunction lists the flags a function node passes on to its parent.
const crossesFunction = ContainsGenerator | ContainsExponent

// Has reports whether all bits of x are set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(ContainsYield) {
		parts = append(parts, "yield")
	}
	if f.Has(ContainsGenerator) {
		parts = append(parts, "generator")
	}
	if f.Has(ContainsExponent) {
		parts = append(parts, "exponent")
	}
	return strings.Join(parts, "|")
}

// FlagsOf returns the flags of n, or zero for nil.
func FlagsOf(n Node) Flags {
	if isNil(n) {
		return 0
	}
	return n.Flags()
}

// Yields reports whether n suspends, not counting nested functions.
func Yields(n Node) bool {
	return FlagsOf(n).Has(ContainsYield)
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *BlockStmt:
		return v == nil
	case *Function:
		return v == nil
	case *VarDecl:
		return v == nil
	case *CaseClause:
		return v == nil
	}
	return false
}

func flagsOf(nodes ...Node) Flags {
	var f Flags
	for _, n := range nodes {
		f |= FlagsOf(n)
	}
	return f
}

func exprFlags(list []Expr) Flags {
	var f Flags
	for _, e := range list {
		f |= FlagsOf(e)
	}
	return f
}

func stmtFlags(list []Stmt) Flags {
	var f Flags
	for _, s := range list {
		f |= FlagsOf(s)
	}
	return f
}
