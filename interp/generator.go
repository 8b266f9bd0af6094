package interp

import (
	"sync"

	"github.com/wippyai/genlower/errors"
	"github.com/wippyai/genlower/runtime"
)

type resumeMsg struct {
	op    runtime.Instruction
	value any
}

type yieldMsg struct {
	value any
	done  bool
	err   error
}

// generatorReturn unwinds a native generator resumed with return. Catch
// clauses do not intercept it; finally clauses run.
type generatorReturn struct {
	value any
}

func (r *generatorReturn) Error() string { return "generator return" }

// coroutine runs a native generator body on its own goroutine. Control
// passes back and forth over unbuffered channels, so only one side runs
// at a time.
type coroutine struct {
	in   *Interpreter
	body func(co *coroutine) (any, error)

	resume chan resumeMsg
	out    chan yieldMsg

	mu       sync.Mutex
	started  bool
	finished bool
	running  bool
}

func (in *Interpreter) newCoroutine(c *Closure, this any, args []any) *coroutine {
	return &coroutine{
		in: in,
		body: func(co *coroutine) (any, error) {
			return in.invoke(c, this, args, co)
		},
		resume: make(chan resumeMsg),
		out:    make(chan yieldMsg),
	}
}

func (c *coroutine) Next(v any) (runtime.Result, error) {
	return c.step(resumeMsg{op: runtime.Next, value: v})
}

func (c *coroutine) Throw(v any) (runtime.Result, error) {
	return c.step(resumeMsg{op: runtime.Throw, value: v})
}

func (c *coroutine) Return(v any) (runtime.Result, error) {
	return c.step(resumeMsg{op: runtime.Return, value: v})
}

func (c *coroutine) step(m resumeMsg) (runtime.Result, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return runtime.Result{}, errors.AlreadyRunning()
	}
	if c.finished {
		c.mu.Unlock()
		return closed(m)
	}
	c.running = true
	start := !c.started
	c.started = true
	if start && m.op != runtime.Next {
		c.finished = true
		c.running = false
		c.mu.Unlock()
		return closed(m)
	}
	c.mu.Unlock()

	if start {
		c.in.track(c, true)
		go c.run()
	} else {
		c.resume <- m
	}
	y := <-c.out

	c.mu.Lock()
	c.running = false
	if y.done {
		c.finished = true
	}
	c.mu.Unlock()
	if y.done {
		c.in.track(c, false)
	}
	return runtime.Result{Value: y.value, Done: y.done}, y.err
}

func closed(m resumeMsg) (runtime.Result, error) {
	switch m.op {
	case runtime.Throw:
		return runtime.Result{Done: true}, &runtime.Exception{Value: m.value}
	case runtime.Return:
		return runtime.Result{Value: m.value, Done: true}, nil
	}
	return runtime.Result{Value: Undefined, Done: true}, nil
}

func (c *coroutine) run() {
	v, err := c.body(c)
	if r, ok := err.(*generatorReturn); ok {
		v, err = r.value, nil
	}
	if err != nil {
		v = Undefined
	}
	c.out <- yieldMsg{value: v, done: true, err: err}
}

// yield suspends the body with v and returns the resumption value.
func (c *coroutine) yield(v any) (any, error) {
	c.out <- yieldMsg{value: v}
	return c.receive(<-c.resume)
}

func (c *coroutine) receive(m resumeMsg) (any, error) {
	switch m.op {
	case runtime.Throw:
		return nil, &runtime.Exception{Value: m.value}
	case runtime.Return:
		return nil, &generatorReturn{value: m.value}
	}
	return m.value, nil
}

// delegate forwards resumptions to it until it completes.
func (c *coroutine) delegate(it runtime.Iterator) (any, error) {
	m := resumeMsg{op: runtime.Next, value: Undefined}
	for {
		var r runtime.Result
		var err error
		switch m.op {
		case runtime.Throw:
			r, err = it.Throw(m.value)
		case runtime.Return:
			r, err = it.Return(m.value)
			if err == nil && r.Done {
				return nil, &generatorReturn{value: value(r.Value)}
			}
		default:
			r, err = it.Next(m.value)
		}
		if err != nil {
			return nil, scriptError(err)
		}
		if r.Done {
			return value(r.Value), nil
		}
		c.out <- yieldMsg{value: value(r.Value)}
		m = <-c.resume
	}
}

func value(v any) any {
	if v == nil {
		return Undefined
	}
	return v
}

// iterate converts the operand of yield* into an iterator.
func (in *Interpreter) iterate(v any) (runtime.Iterator, error) {
	switch it := v.(type) {
	case runtime.Iterator:
		return it, nil
	case *Array:
		elems := make([]any, len(it.Elements))
		for i, e := range it.Elements {
			elems[i] = value(e)
		}
		return runtime.NewSliceIterator(elems), nil
	case string:
		elems := make([]any, len(it))
		for i := range it {
			elems[i] = it[i : i+1]
		}
		return runtime.NewSliceIterator(elems), nil
	}
	return nil, throwf("TypeError: %s is not iterable", Format(v))
}

func iteratorMethod(it runtime.Iterator, key string) *Builtin {
	var verb func(any) (runtime.Result, error)
	switch key {
	case "next":
		verb = it.Next
	case "throw":
		verb = it.Throw
	case "return":
		verb = it.Return
	default:
		return nil
	}
	return builtin(key, func(_ any, args []any) (any, error) {
		r, err := verb(arg(args, 0))
		if err != nil {
			return nil, scriptError(err)
		}
		return resultObject(r), nil
	})
}

func resultObject(r runtime.Result) *Object {
	o := NewObject()
	o.Set("value", value(r.Value))
	o.Set("done", r.Done)
	return o
}

// driver is the generator driver primitive called by lowered bodies.
func (in *Interpreter) driver(_ any, args []any) (any, error) {
	body, ok := arg(args, 0).(*Closure)
	if !ok {
		return nil, throwf("TypeError: generator body is not a function")
	}
	state := &stateObject{in: in}
	return runtime.New(func(s *runtime.State) (runtime.Op, error) {
		state.s = s
		v, err := in.invoke(body, Undefined, []any{state}, nil)
		if err != nil {
			return runtime.Op{}, err
		}
		return instruction(v)
	}, runtime.Config{Delegate: in.iterate}), nil
}

func instruction(v any) (runtime.Op, error) {
	tuple, ok := v.(*Array)
	if !ok || len(tuple.Elements) == 0 {
		return runtime.Op{}, throwf("TypeError: generator body returned %s", Format(v))
	}
	op := runtime.Op{
		Code:  runtime.Instruction(int(toNumber(tuple.Elements[0]))),
		Value: Undefined,
	}
	if len(tuple.Elements) > 1 {
		op.Value = value(tuple.Elements[1])
	}
	if op.Code == runtime.Break {
		op.Label = int(toNumber(op.Value))
	}
	return op, nil
}

// stateObject exposes the driver state to lowered code.
type stateObject struct {
	in *Interpreter
	s  *runtime.State
}

func (st *stateObject) get(key string) (any, bool) {
	switch key {
	case "label":
		return float64(st.s.Label), true
	case "error":
		return value(st.s.Error), true
	case "trys":
		return &regionStack{s: st.s}, true
	case "sent":
		return builtin("sent", func(any, []any) (any, error) {
			v, err := st.s.Sent()
			return value(v), err
		}), true
	}
	return nil, false
}

func (st *stateObject) set(key string, v any) error {
	switch key {
	case "label":
		st.s.Label = int(toNumber(v))
	case "error":
		st.s.Error = v
	case "trys":
		if a, ok := v.(*Array); !ok || len(a.Elements) != 0 {
			return throwf("TypeError: state.trys must be reset to an empty array")
		}
		st.s.InitRegions()
	default:
		return throwf("TypeError: cannot set state.%s", key)
	}
	return nil
}

// regionStack is the state.trys array.
type regionStack struct {
	s *runtime.State
}

func (r *regionStack) get(key string) (any, bool) {
	switch key {
	case "length":
		return float64(len(r.s.Regions())), true
	case "push":
		return builtin("push", func(_ any, args []any) (any, error) {
			tuple, ok := arg(args, 0).(*Array)
			if !ok {
				return nil, throwf("TypeError: protected region must be an array")
			}
			r.s.PushRegion(runtime.Region{
				Start:   slot(tuple, 0),
				Catch:   slot(tuple, 1),
				Finally: slot(tuple, 2),
				End:     slot(tuple, 3),
			})
			return float64(len(r.s.Regions())), nil
		}), true
	}
	return nil, false
}

func (r *regionStack) set(key string, _ any) error {
	return throwf("TypeError: cannot set state.trys.%s", key)
}

func slot(tuple *Array, i int) int {
	if i >= len(tuple.Elements) || isNullish(tuple.Elements[i]) {
		return runtime.NoLabel
	}
	return int(toNumber(tuple.Elements[i]))
}
