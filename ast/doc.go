// Package ast defines the syntax tree shared by the parser, the generator
// lowering passes and the interpreter.
//
// Nodes must be built with the New* constructors. Each constructor computes
// the node's Flags bottom-up from its children once, so passes can ask
// "does this subtree suspend?" without revisiting it. ContainsYield stops at
// function boundaries; ContainsGenerator and ContainsExponent do not.
//
// RewriteChildren applies a visitor to every child of a node and returns the
// original node, pointer-identical, when no child changed.
package ast
