package runtime

import (
	"context"
	"sync"
)

// Result is one step of an iterator.
type Result struct {
	Value any
	Done  bool
}

// Iterator is the protocol yield* delegates to.
type Iterator interface {
	Next(v any) (Result, error)
	Throw(v any) (Result, error)
	Return(v any) (Result, error)
}

// SliceIterator iterates a fixed list of values.
type SliceIterator struct {
	mu     sync.Mutex
	values []any
	pos    int
}

// NewSliceIterator returns an iterator over values.
func NewSliceIterator(values []any) *SliceIterator {
	return &SliceIterator{values: values}
}

func (it *SliceIterator) Next(any) (Result, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.pos >= len(it.values) {
		return Result{Done: true}, nil
	}
	v := it.values[it.pos]
	it.pos++
	return Result{Value: v}, nil
}

// Throw ends the iteration and rethrows v.
func (it *SliceIterator) Throw(v any) (Result, error) {
	it.close()
	return Result{Done: true}, &Exception{Value: v}
}

func (it *SliceIterator) Return(v any) (Result, error) {
	it.close()
	return Result{Value: v, Done: true}, nil
}

func (it *SliceIterator) close() {
	it.mu.Lock()
	it.pos = len(it.values)
	it.mu.Unlock()
}

// Drain resumes it with undefined until it completes and returns the
// produced values followed by the completion value.
func Drain(ctx context.Context, it Iterator) ([]any, any, error) {
	var values []any
	for {
		if err := ctx.Err(); err != nil {
			return values, nil, err
		}
		r, err := it.Next(nil)
		if err != nil {
			return values, nil, err
		}
		if r.Done {
			return values, r.Value, nil
		}
		values = append(values, r.Value)
	}
}
