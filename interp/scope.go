package interp

// scope is one frame of the scope chain. A with statement pushes a frame
// backed by an object; function calls push a frame holding this and
// arguments.
type scope struct {
	vars  map[string]any
	outer *scope
	with  *Object
	fn    *frame
}

// frame is the per-call state shared by the scopes of one function body.
type frame struct {
	this any
	// vars is the scope holding the function's declarations.
	vars *scope
	// co is set while the body runs as a native generator.
	co *coroutine
}

func newScope(outer *scope, fn *frame) *scope {
	return &scope{vars: make(map[string]any), outer: outer, fn: fn}
}

func (s *scope) withObject(obj *Object) *scope {
	return &scope{outer: s, with: obj, fn: s.fn}
}

func (s *scope) lookup(name string) (any, bool) {
	for f := s; f != nil; f = f.outer {
		if f.with != nil {
			if v, ok := f.with.Get(name); ok {
				return v, true
			}
			continue
		}
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// assign writes the nearest binding of name. Unbound names are created in
// the outermost frame.
func (s *scope) assign(name string, v any) {
	var last *scope
	for f := s; f != nil; f = f.outer {
		if f.with != nil {
			if _, ok := f.with.Get(name); ok {
				f.with.Set(name, v)
				return
			}
			continue
		}
		if _, ok := f.vars[name]; ok {
			f.vars[name] = v
			return
		}
		last = f
	}
	if last != nil {
		last.vars[name] = v
	}
}

// declare binds name in this frame unless it is already bound here.
func (s *scope) declare(name string, v any) {
	if _, ok := s.vars[name]; !ok {
		s.vars[name] = v
	}
}
