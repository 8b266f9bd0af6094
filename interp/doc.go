// Package interp evaluates programs of the source subset.
//
// The interpreter runs generator functions natively, each on its own
// goroutine that hands control back and forth with its caller, and also
// provides the driver primitive __generator that lowered code calls. The
// same program can therefore be run before and after lowering and the
// observable behavior compared:
//
//	in := interp.New()
//	defer in.Close()
//	in.Define("log", &interp.Builtin{Name: "log", Fn: logFn})
//	if err := in.Run(ctx, prog); err != nil {
//	    return err
//	}
//	result, err := in.Call(ctx, "main")
//
// Thrown script values surface as *runtime.Exception. The value model is
// deliberately small: numbers are float64, objects keep insertion order
// and there are no prototypes beyond what instanceof needs.
package interp
