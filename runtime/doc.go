// Package runtime drives lowered generator bodies.
//
// A lowered generator returns a call to the driver primitive with a body
// function of one parameter. Each time the body runs it executes the case
// clause selected by state.label and returns an instruction tuple:
//
//	[0 /*next*/, v]          resume with v
//	[2 /*return*/, v]        complete with v
//	[3 /*break*/, label]     jump to label
//	[4 /*yield*/, v]         suspend, producing v
//	[5 /*yieldstar*/, it]    delegate to the iterator it
//	[7 /*endfinally*/]       leave a finally clause
//
// A value thrown by the body becomes a catch instruction. The driver
// consults the protected-region stack (state.trys) to route break, return
// and catch through the enclosing catch and finally clauses.
//
// # Usage
//
//	g := runtime.New(body, runtime.Config{})
//	for {
//	    r, err := g.Next(nil)
//	    if err != nil {
//	        return err // *runtime.Exception for a thrown value
//	    }
//	    if r.Done {
//	        break
//	    }
//	    use(r.Value)
//	}
//
// The driver is value agnostic: values are carried as any and only the
// caller interprets them. A Generator is safe to share between goroutines
// but, like its source form, cannot be resumed while it is running.
package runtime
