package engine

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// ProgressFunc is polled once per evaluated node with the running
// operation count. Returning a non-nil value terminates the run with that
// value as the termination token; this is the host's wall-clock
// cancellation mechanism.
type ProgressFunc func(operations uint64) value.Value

// incOperations increments and checks the operation counter before a node
// is evaluated (check-before rule): with limit N, the N+1-th tracked
// operation is the one that fails. The error is fatal and not retried.
func (e *Engine) incOperations(state *GlobalRuntimeState, pos ast.Position) *RuntimeError {
	state.Operations++
	if max := e.limits.MaxOperations; max > 0 && state.Operations > max {
		return newErrorKind(ErrTooManyOperations, pos, "number of operations exceeded limit %d", max)
	}
	if e.progress != nil {
		if token := e.progress(state.Operations); token != nil {
			err := newErrorKind(ErrTerminated, pos, "evaluation terminated by host")
			err.Term = token
			return err
		}
	}
	return nil
}

// checkStringSize verifies a string length against the limit. Called
// after every append during interpolation, not just at the end.
func (e *Engine) checkStringSize(size int, pos ast.Position) *RuntimeError {
	if max := e.limits.MaxStringSize; max > 0 && size > max {
		return newErrorKind(ErrDataTooLarge, pos, "length of string exceeds limit %d", max)
	}
	return nil
}

// dataSizes is the running total used while a literal grows: element
// counts per container family plus nesting depth.
type dataSizes struct {
	arrays  int
	maps    int
	strings int
	depth   int
}

func (d *dataSizes) add(o dataSizes) {
	d.arrays += o.arrays
	d.maps += o.maps
	d.strings += o.strings
	if o.depth+1 > d.depth {
		d.depth = o.depth + 1
	}
}

// measure walks a value and totals its data sizes. Shared cells are
// measured by content.
func measure(v value.Value) dataSizes {
	switch v := v.(type) {
	case *value.String:
		return dataSizes{strings: len(v.Value)}
	case *value.Bytes:
		return dataSizes{strings: len(v.Data)}
	case *value.Array:
		d := dataSizes{arrays: len(v.Elems)}
		for _, el := range v.Elems {
			d.add(measure(el))
		}
		return d
	case *value.Map:
		d := dataSizes{maps: len(v.Pairs)}
		for _, el := range v.Pairs {
			d.add(measure(el))
		}
		return d
	case *value.Shared:
		return measure(v.Cell.Borrow())
	default:
		return dataSizes{}
	}
}

// sizeLimited reports whether any data-size limit is active; when none
// is, literal construction skips the incremental totals entirely.
func (e *Engine) sizeLimited() bool {
	return e.limits.MaxStringSize > 0 || e.limits.MaxArraySize > 0 || e.limits.MaxMapSize > 0
}

// checkSizes validates running totals against the limits.
func (e *Engine) checkSizes(d dataSizes, pos ast.Position) *RuntimeError {
	if max := e.limits.MaxStringSize; max > 0 && d.strings > max {
		return newErrorKind(ErrDataTooLarge, pos, "length of string exceeds limit %d", max)
	}
	if max := e.limits.MaxArraySize; max > 0 && d.arrays > max {
		return newErrorKind(ErrDataTooLarge, pos, "size of array exceeds limit %d", max)
	}
	if max := e.limits.MaxMapSize; max > 0 && d.maps > max {
		return newErrorKind(ErrDataTooLarge, pos, "size of object map exceeds limit %d", max)
	}
	return nil
}

// checkDataSize validates a fully built value, used when a value grows
// through mutation (push, insert, concatenation).
func (e *Engine) checkDataSize(v value.Value, pos ast.Position) *RuntimeError {
	if !e.sizeLimited() {
		return nil
	}
	return e.checkSizes(measure(v), pos)
}
