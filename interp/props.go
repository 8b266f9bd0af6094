package interp

import (
	"strconv"

	"github.com/wippyai/genlower/runtime"
)

// host is an object implemented in Go.
type host interface {
	get(key string) (any, bool)
	set(key string, v any) error
}

func (in *Interpreter) get(obj any, key string) (any, error) {
	switch o := obj.(type) {
	case undefinedType, nullType, nil:
		return nil, throwf("TypeError: cannot read property %q of %s", key, toString(obj))
	case *Object:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
	case *Array:
		if i, ok := arrayIndex(key); ok {
			if i < len(o.Elements) && o.Elements[i] != nil {
				return o.Elements[i], nil
			}
			return Undefined, nil
		}
		if key == "length" {
			return float64(len(o.Elements)), nil
		}
		if m := arrayMethod(o, key); m != nil {
			return m, nil
		}
	case string:
		if key == "length" {
			return float64(len(o)), nil
		}
		if i, ok := arrayIndex(key); ok && i < len(o) {
			return o[i : i+1], nil
		}
	case *Closure, *Builtin:
		if key == "call" {
			fn := obj
			return builtin("call", func(_ any, args []any) (any, error) {
				var rest []any
				if len(args) > 1 {
					rest = args[1:]
				}
				return in.call(fn, arg(args, 0), rest)
			}), nil
		}
	case host:
		if v, ok := o.get(key); ok {
			return v, nil
		}
	case runtime.Iterator:
		if m := iteratorMethod(o, key); m != nil {
			return m, nil
		}
	}
	return Undefined, nil
}

func (in *Interpreter) set(obj any, key string, v any) error {
	switch o := obj.(type) {
	case undefinedType, nullType, nil:
		return throwf("TypeError: cannot set property %q of %s", key, toString(obj))
	case *Object:
		o.Set(key, v)
	case *Array:
		if i, ok := arrayIndex(key); ok {
			for len(o.Elements) <= i {
				o.Elements = append(o.Elements, nil)
			}
			o.Elements[i] = v
		} else if key == "length" {
			n := int(toNumber(v))
			if n >= 0 && n < len(o.Elements) {
				o.Elements = o.Elements[:n]
			}
		}
	case host:
		return o.set(key, v)
	}
	return nil
}

func arrayMethod(a *Array, key string) *Builtin {
	switch key {
	case "push":
		return builtin("push", func(_ any, args []any) (any, error) {
			a.Elements = append(a.Elements, args...)
			return float64(len(a.Elements)), nil
		})
	case "concat":
		return builtin("concat", func(_ any, args []any) (any, error) {
			out := append([]any(nil), a.Elements...)
			for _, x := range args {
				if b, ok := x.(*Array); ok {
					out = append(out, b.Elements...)
				} else {
					out = append(out, x)
				}
			}
			return NewArray(out...), nil
		})
	case "join":
		return builtin("join", func(_ any, args []any) (any, error) {
			sep := ","
			if s, ok := arg(args, 0).(string); ok {
				sep = s
			}
			out := ""
			for i, e := range a.Elements {
				if i > 0 {
					out += sep
				}
				if !isNullish(e) {
					out += toString(e)
				}
			}
			return out, nil
		})
	}
	return nil
}

func keysOf(v any) []string {
	switch o := v.(type) {
	case *Object:
		return o.Keys()
	case *Array:
		var keys []string
		for i, e := range o.Elements {
			if e != nil {
				keys = append(keys, strconv.Itoa(i))
			}
		}
		return keys
	case string:
		keys := make([]string, len(o))
		for i := range o {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

func hasKey(v any, key string) bool {
	switch o := v.(type) {
	case *Object:
		_, ok := o.Get(key)
		return ok
	case *Array:
		if key == "length" {
			return true
		}
		i, ok := arrayIndex(key)
		return ok && i < len(o.Elements) && o.Elements[i] != nil
	case string:
		i, ok := arrayIndex(key)
		return ok && i < len(o)
	}
	return false
}
