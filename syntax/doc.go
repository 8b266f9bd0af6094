// Package syntax parses and prints the source language handled by genlower.
//
// The accepted subset covers what generator lowering needs to exercise:
// var/let/const, function declarations and expressions (function* included),
// if, while, do-while, for, for-in, switch, labeled statements, break and
// continue with labels, return, throw, try/catch/finally and with. Expressions
// include literals, array and object literals, calls, new, member and index
// access, unary, update, binary, logical, conditional, assignment, comma,
// yield and yield*.
//
// Basic usage:
//
//	prog, err := syntax.Parse(`function* g() { yield 1; }`)
//	fmt.Print(syntax.Print(prog))
//
// Not supported: regular expression literals, template strings, arrow
// functions, classes, destructuring, spread and getters/setters.
package syntax
