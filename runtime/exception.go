package runtime

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/genlower/errors"
)

// Exception carries a thrown script value across the driver boundary.
type Exception struct {
	Value any
}

// Throwf returns an exception holding a formatted message.
func Throwf(format string, args ...any) *Exception {
	return &Exception{Value: fmt.Sprintf(format, args...)}
}

func (e *Exception) Error() string {
	if err, ok := e.Value.(error); ok {
		return "uncaught exception: " + err.Error()
	}
	return fmt.Sprintf("uncaught exception: %v", e.Value)
}

// Unwrap returns the thrown value when it is itself an error.
func (e *Exception) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Is matches runtime errors of kind thrown.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Phase == errors.PhaseRuntime && t.Kind == errors.KindThrown
}

// Thrown returns the value an error throws into script code. Errors that
// are not exceptions are thrown as themselves.
func Thrown(err error) any {
	var ex *Exception
	if stderrors.As(err, &ex) {
		return ex.Value
	}
	return err
}
