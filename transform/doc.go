// Package transform applies an ordered list of stages to a program.
//
// Each stage rewrites nodes bottom-up: a node is handed to the stages
// after all of its children, including nested functions, have been
// transformed. Nested generators are therefore lowered before the
// functions that contain them.
//
// When the traversal enters a function, every active stage is asked
// whether it pops at that boundary. A popped stage sees nothing inside
// the function and rejoins when the traversal leaves it; a function no
// stage is interested in is skipped without being visited.
//
//	p := transform.New(transform.Config{
//	    Stages:      transform.DefaultStages(generator.DefaultConfig()),
//	    Parallelism: 4,
//	})
//	out, err := p.Program(prog)
//
// Top-level statements share no state and may be transformed
// concurrently; results are assembled in source order.
package transform
