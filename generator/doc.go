// Package generator lowers generator functions into plain functions that
// drive an explicit state machine.
//
// # Overview
//
// A generator body is lowered in two phases that communicate only through
// the operation list returned by Linearize:
//
//  1. Linearize flattens every statement that contains a yield into a list
//     of primitive operations (assign, conditional break, yield, return,
//     throw, endfinally) over abstract labels. Statements without a yield
//     stay native and are carried as single operations.
//  2. Assemble walks the operations once and groups them into the case
//     clauses of a `switch (state.label)` dispatch, resolving labels to
//     case numbers and emitting the protected-region table for try blocks.
//
// The lowered function returns a call to the driver primitive:
//
//	function g() {
//	    var x;
//	    return __generator(function (state) {
//	        switch (state.label) {
//	            case 0:
//	                return [4 /*yield*/, 1];
//	            case 1:
//	                x = state.sent();
//	                return [2 /*return*/, x];
//	        }
//	    });
//	}
//
// The state object carries the whole contract with the driver: label is
// the case to run next, sent() returns the resumption value, trys is the
// stack of protected regions and error holds a caught exception. The
// runtime package implements that driver.
//
// # Usage
//
//	fn, err := syntax.ParseFunction(src)
//	if err != nil {
//	    return err
//	}
//	lowered, err := generator.Lower(fn, generator.DefaultConfig())
//
// Lower handles a single function. Nested generators are not touched; use
// the transform package to lower a whole program bottom-up.
//
// # Errors
//
// Lowering fails only on internal consistency violations: a jump to a
// label that was never marked, an unbalanced block stack, a try clause
// entered out of order, or a break/continue with no enclosing target. The
// returned *errors.Error names the phase and the function. No partially
// lowered output is ever returned.
package generator
