package engine

import (
	"sort"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/value"
)

// rangeTypeName is the registered type name of the built-in integer range.
const rangeTypeName = "range"

// rangeValue is the payload of a range host value. Iteration steps upward;
// an empty or inverted range yields nothing.
type rangeValue struct {
	from      int64
	to        int64
	inclusive bool
}

// iterate produces the pull iterator driving a for loop. Built-in
// containers iterate directly; any other type goes through a registered
// type iterator, searched in the engine's global modules first and the
// run's imports newest-first after that.
func (e *Engine) iterate(ctx *evalCtx, v value.Value, pos ast.Position) (func() (value.Value, bool), *RuntimeError) {
	flat := value.Flatten(v)
	switch c := flat.(type) {
	case *value.Array:
		// Snapshot: mutating the array inside the loop does not affect
		// the iteration sequence.
		elems := make([]value.Value, len(c.Elems))
		for i, el := range c.Elems {
			elems[i] = el.Clone()
		}
		i := 0
		return func() (value.Value, bool) {
			if i >= len(elems) {
				return nil, false
			}
			el := elems[i]
			i++
			return el, true
		}, nil

	case *value.Map:
		// Maps iterate their keys in sorted order so loops are
		// deterministic run to run.
		keys := make([]string, 0, len(c.Pairs))
		for k := range c.Pairs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		i := 0
		return func() (value.Value, bool) {
			if i >= len(keys) {
				return nil, false
			}
			k := keys[i]
			i++
			return &value.String{Value: k}, true
		}, nil

	case *value.String:
		runes := []rune(c.Value)
		i := 0
		return func() (value.Value, bool) {
			if i >= len(runes) {
				return nil, false
			}
			r := runes[i]
			i++
			return &value.Char{Value: r}, true
		}, nil

	case *value.Bytes:
		data := c.Data
		i := 0
		return func() (value.Value, bool) {
			if i >= len(data) {
				return nil, false
			}
			b := data[i]
			i++
			return &value.Int{Value: int64(b)}, true
		}, nil

	case *value.Host:
		if r, ok := c.Value.(rangeValue); ok {
			return rangeIterator(r), nil
		}
	}

	if next, ok, err := e.registeredIterator(ctx, flat, pos); ok || err != nil {
		return next, err
	}
	return nil, newErrorKind(ErrMismatchedTypes, pos, "type %s is not iterable", v.TypeName())
}

func rangeIterator(r rangeValue) func() (value.Value, bool) {
	cur := r.from
	done := false
	return func() (value.Value, bool) {
		if done || cur > r.to || (!r.inclusive && cur == r.to) {
			return nil, false
		}
		n := cur
		// An inclusive range may end at the largest int64; stepping past
		// it would wrap around, so the last element flags completion.
		if cur == r.to {
			done = true
		} else {
			cur++
		}
		return &value.Int{Value: n}, true
	}
}

// registeredIterator finds a type iterator registered for the value's
// type name and opens it.
func (e *Engine) registeredIterator(ctx *evalCtx, v value.Value, pos ast.Position) (func() (value.Value, bool), bool, *RuntimeError) {
	name := v.TypeName()
	var itFn module.IteratorFunc
	for _, m := range e.globalModules {
		if fn, ok := m.IteratorFor(name); ok {
			itFn = fn
			break
		}
	}
	if itFn == nil {
		ctx.state.forEachImport(func(alias string, m *module.Module) bool {
			if fn, ok := m.IteratorFor(name); ok {
				itFn = fn
				return false
			}
			return true
		})
	}
	if itFn == nil {
		return nil, false, nil
	}
	next, err := itFn(v)
	if err != nil {
		return nil, true, fromGoError(err, pos)
	}
	return next, true, nil
}
