package interp

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/genlower/ast"
	"github.com/wippyai/genlower/runtime"
)

// Values are carried as any:
//
//	Undefined, Null, bool, float64, string
//	*Object, *Array, *Closure, *Builtin
//	runtime.Iterator for generator objects
type undefinedType struct{}
type nullType struct{}

var (
	Undefined any = undefinedType{}
	Null      any = nullType{}
)

// Object is a plain object. Keys keep insertion order.
type Object struct {
	keys  []string
	props map[string]any
	// ctor is the function that constructed the object with new.
	ctor *Closure
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: make(map[string]any)}
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.props[key]
	return v, ok
}

func (o *Object) Set(key string, v any) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

func (o *Object) Delete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return true
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Array is an array value. Holes read as undefined.
type Array struct {
	Elements []any
}

// NewArray returns an array holding elems.
func NewArray(elems ...any) *Array {
	return &Array{Elements: elems}
}

// Closure is a script function with its defining scope.
type Closure struct {
	Fn    *ast.Function
	scope *scope
	proto *Object
}

// Builtin is a function implemented in Go.
type Builtin struct {
	Name string
	Fn   func(this any, args []any) (any, error)
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func truthy(v any) bool {
	switch v := v.(type) {
	case undefinedType, nullType:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	}
	return true
}

func toNumber(v any) float64 {
	switch v := v.(type) {
	case undefinedType:
		return math.NaN()
	case nullType:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case *Array:
		switch len(v.Elements) {
		case 0:
			return 0
		case 1:
			return toNumber(toPrimitive(v.Elements[0]))
		}
	}
	return math.NaN()
}

func toInt32(v any) int32 {
	f := toNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toString(v any) string {
	switch v := v.(type) {
	case undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return ast.FormatNumber(v)
	case string:
		return v
	case *Array:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			switch e.(type) {
			case nil, undefinedType, nullType:
			default:
				parts[i] = toString(e)
			}
		}
		return strings.Join(parts, ",")
	case *Closure, *Builtin:
		return "function"
	}
	return "[object Object]"
}

func toPrimitive(v any) any {
	switch v.(type) {
	case *Object, *Array, *Closure, *Builtin, runtime.Iterator:
		return toString(v)
	}
	return v
}

func typeOf(v any) string {
	switch v.(type) {
	case undefinedType, nil:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Closure, *Builtin:
		return "function"
	}
	return "object"
}

func strictEquals(a, b any) bool {
	switch a := a.(type) {
	case float64:
		b, ok := b.(float64)
		return ok && a == b
	case string:
		b, ok := b.(string)
		return ok && a == b
	case bool:
		b, ok := b.(bool)
		return ok && a == b
	case undefinedType, nullType:
		return a == b
	}
	return a == b
}

func looseEquals(a, b any) bool {
	if typeOf(a) == typeOf(b) && isNullish(a) == isNullish(b) {
		return strictEquals(a, b)
	}
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	a, b = toPrimitive(a), toPrimitive(b)
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa == sb
		}
	}
	return toNumber(a) == toNumber(b)
}

func isNullish(v any) bool {
	switch v.(type) {
	case undefinedType, nullType, nil:
		return true
	}
	return false
}

// Format renders a value for display.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(v)
	case *Array:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			if e != nil {
				parts[i] = Format(e)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Object:
		parts := make([]string, 0, len(v.keys))
		for _, k := range v.keys {
			parts = append(parts, k+": "+Format(v.props[k]))
		}
		if len(parts) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *Closure:
		if v.Fn.Name != "" {
			return "[Function: " + v.Fn.Name + "]"
		}
		return "[Function]"
	case *Builtin:
		return "[Function: " + v.Name + "]"
	case runtime.Iterator:
		return "[Generator]"
	}
	return toString(v)
}
