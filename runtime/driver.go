package runtime

import (
	"fmt"
	"sync"

	"github.com/wippyai/genlower/errors"
)

// NoLabel fills the slot of an absent catch or finally clause.
const NoLabel = -1

// Region is one protected region: the labels of a try statement.
type Region struct {
	Start   int
	Catch   int
	Finally int
	End     int
}

// Contains reports whether a jump to label stays inside the region.
func (r Region) Contains(label int) bool {
	return label > r.Start && label < r.End
}

// Op is an instruction tuple returned by a body.
type Op struct {
	Code Instruction
	// Value is the operand of next, throw, return, yield, yieldstar and catch.
	Value any
	// Label is the target of break.
	Label int
}

// Body runs the case clause selected by the state label. A value thrown
// by the clause is returned as an error, normally an *Exception.
type Body func(s *State) (Op, error)

// State is the object lowered code reads and writes.
type State struct {
	// Label is the case clause to run next.
	Label int
	// Error holds the value caught by the innermost catch clause.
	Error any

	last Op
	trys []Region
	ops  []Op
}

// Sent returns the value the body was resumed with, or the thrown value
// as an error when it was resumed with throw.
func (s *State) Sent() (any, error) {
	if s.last.Code == Throw {
		return nil, &Exception{Value: s.last.Value}
	}
	return s.last.Value, nil
}

// InitRegions clears the protected-region stack.
func (s *State) InitRegions() {
	s.trys = s.trys[:0]
}

// PushRegion enters a protected region.
func (s *State) PushRegion(r Region) {
	s.trys = append(s.trys, r)
}

// Regions returns the active protected regions, innermost last.
func (s *State) Regions() []Region {
	return s.trys
}

func (s *State) region() (Region, bool) {
	if len(s.trys) == 0 {
		return Region{}, false
	}
	return s.trys[len(s.trys)-1], true
}

// Config configures a generator.
type Config struct {
	// Delegate converts the operand of yield* into an iterator. The
	// default accepts Iterator and []any values.
	Delegate func(v any) (Iterator, error)
}

// Generator runs a lowered body as an iterator.
type Generator struct {
	body     Body
	delegate func(any) (Iterator, error)

	mu      sync.Mutex
	running bool

	state    *State
	inner    Iterator
	started  bool
	finished bool
}

// New creates a suspended generator. The body first runs on the first
// call to Next.
func New(body Body, cfg Config) *Generator {
	delegate := cfg.Delegate
	if delegate == nil {
		delegate = DefaultDelegate
	}
	return &Generator{body: body, delegate: delegate, state: &State{}}
}

// DefaultDelegate accepts iterators and slices.
func DefaultDelegate(v any) (Iterator, error) {
	switch it := v.(type) {
	case Iterator:
		return it, nil
	case []any:
		return NewSliceIterator(it), nil
	}
	return nil, Throwf("%v is not iterable", v)
}

// Next resumes the generator with v.
func (g *Generator) Next(v any) (Result, error) {
	return g.step(Op{Code: Next, Value: v})
}

// Throw resumes the generator by throwing v at the suspension point.
func (g *Generator) Throw(v any) (Result, error) {
	return g.step(Op{Code: Throw, Value: v})
}

// Return resumes the generator by returning v from the suspension point.
// Enclosing finally clauses run first.
func (g *Generator) Return(v any) (Result, error) {
	return g.step(Op{Code: Return, Value: v})
}

// Done reports whether the generator has completed.
func (g *Generator) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

func (g *Generator) enter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return errors.AlreadyRunning()
	}
	g.running = true
	return nil
}

func (g *Generator) leave() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *Generator) step(op Op) (Result, error) {
	if err := g.enter(); err != nil {
		return Result{}, err
	}
	defer g.leave()

	if !g.started {
		g.started = true
		if op.Code != Next {
			g.finished = true
		}
	}

	s := g.state
	for !g.finished {
		if g.inner != nil {
			r, err := g.resumeInner(op)
			switch {
			case err != nil:
				g.inner = nil
				op = Op{Code: Catch, Value: Thrown(err)}
				continue
			case !r.Done:
				return r, nil
			}
			g.inner = nil
			if op.Code == Return {
				op = Op{Code: Return, Value: r.Value}
			} else {
				op = Op{Code: Next, Value: r.Value}
			}
		}

		switch op.Code {
		case Next, Throw:
			s.last = op
		case Yield:
			s.Label++
			return Result{Value: op.Value}, nil
		case YieldStar:
			s.Label++
			it, err := g.delegate(op.Value)
			if err != nil {
				op = Op{Code: Catch, Value: Thrown(err)}
				continue
			}
			g.inner = it
			op = Op{Code: Next}
			continue
		case Endfinally:
			if len(s.ops) == 0 || len(s.trys) == 0 {
				g.finished = true
				return Result{}, errors.BlockImbalance(errors.PhaseRuntime, nil, "endfinally outside a finally clause")
			}
			op = s.ops[len(s.ops)-1]
			s.ops = s.ops[:len(s.ops)-1]
			s.trys = s.trys[:len(s.trys)-1]
			continue
		default:
			if !g.route(op) {
				continue
			}
		}
		op = g.run()
	}
	return g.complete(op)
}

func (g *Generator) resumeInner(op Op) (Result, error) {
	switch op.Code {
	case Throw:
		return g.inner.Throw(op.Value)
	case Return:
		return g.inner.Return(op.Value)
	}
	return g.inner.Next(op.Value)
}

// route handles return, break and catch against the innermost protected
// region. It reports whether the body should run next; otherwise op must
// be dispatched again, or the generator has finished.
func (g *Generator) route(op Op) bool {
	s := g.state
	r, ok := s.region()
	if !ok {
		if op.Code == Break {
			s.Label = op.Label
			return true
		}
		g.finished = true
		return false
	}
	switch {
	case op.Code == Break && r.Contains(op.Label):
		s.Label = op.Label
		return true
	case op.Code == Catch && s.Label < r.Catch:
		s.Label = r.Catch
		s.Error = op.Value
		s.last = op
		return true
	case s.Label < r.Finally:
		s.Label = r.Finally
		s.ops = append(s.ops, op)
		return true
	}
	if r.Finally != NoLabel && len(s.ops) > 0 {
		s.ops = s.ops[:len(s.ops)-1]
	}
	s.trys = s.trys[:len(s.trys)-1]
	return false
}

func (g *Generator) run() Op {
	op, err := g.body(g.state)
	if err != nil {
		return Op{Code: Catch, Value: Thrown(err)}
	}
	switch op.Code {
	case Return, Break, Yield, YieldStar, Endfinally:
		return op
	}
	return Op{Code: Catch, Value: errors.InvalidInput(errors.PhaseRuntime,
		fmt.Sprintf("body returned instruction %s", op.Code))}
}

func (g *Generator) complete(op Op) (Result, error) {
	g.finished = true
	g.inner = nil
	switch op.Code {
	case Throw, Catch:
		return Result{Done: true}, &Exception{Value: op.Value}
	case Next:
		return Result{Done: true}, nil
	}
	return Result{Value: op.Value, Done: true}, nil
}
