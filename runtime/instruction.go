package runtime

// Instruction is the first element of the tuple a lowered body returns to
// the driver, and the verb a resumption is delivered with.
type Instruction int

const (
	Next       Instruction = 0
	Throw      Instruction = 1
	Return     Instruction = 2
	Break      Instruction = 3
	Yield      Instruction = 4
	YieldStar  Instruction = 5
	Catch      Instruction = 6
	Endfinally Instruction = 7
)

func (i Instruction) String() string {
	switch i {
	case Next:
		return "next"
	case Throw:
		return "throw"
	case Return:
		return "return"
	case Break:
		return "break"
	case Yield:
		return "yield"
	case YieldStar:
		return "yieldstar"
	case Catch:
		return "catch"
	case Endfinally:
		return "endfinally"
	}
	return "unknown"
}

// Completes reports whether the instruction ends the body when no
// protected region intercepts it.
func (i Instruction) Completes() bool {
	return i == Return || i == Throw || i == Catch
}
