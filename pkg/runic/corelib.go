package runic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/value"
)

// CoreLib builds the small built-in library registered by New: length and
// mutation helpers for the containers, string conversion, function-pointer
// currying and timestamps. It doubles as the reference consumer of the
// module registration API.
func CoreLib() *module.Module {
	m := module.New("core")

	// len is registered per type with a full signature, so resolution
	// exercises the typed (full-hash) lookup path.
	m.SetNativeFn("len", module.AccessGlobal, []string{value.TypeArray}, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			a := value.Flatten(args[0]).(*value.Array)
			return &value.Int{Value: int64(len(a.Elems))}, nil
		})
	m.SetNativeFn("len", module.AccessGlobal, []string{value.TypeMap}, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			mp := value.Flatten(args[0]).(*value.Map)
			return &value.Int{Value: int64(len(mp.Pairs))}, nil
		})
	m.SetNativeFn("len", module.AccessGlobal, []string{value.TypeString}, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			s := value.Flatten(args[0]).(*value.String)
			return &value.Int{Value: int64(len([]rune(s.Value)))}, nil
		})
	m.SetNativeFn("len", module.AccessGlobal, []string{value.TypeBytes}, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			b := value.Flatten(args[0]).(*value.Bytes)
			return &value.Int{Value: int64(len(b.Data))}, nil
		})

	m.SetMethodFn("push", module.AccessGlobal, nil, 2, false,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			a, ok := value.Flatten(args[0]).(*value.Array)
			if !ok {
				return nil, fmt.Errorf("push expects an array receiver, got %s", args[0].TypeName())
			}
			a.Elems = append(a.Elems, args[1])
			return value.UnitVal, nil
		})

	m.SetMethodFn("pop", module.AccessGlobal, nil, 1, false,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			a, ok := value.Flatten(args[0]).(*value.Array)
			if !ok {
				return nil, fmt.Errorf("pop expects an array receiver, got %s", args[0].TypeName())
			}
			if len(a.Elems) == 0 {
				return value.UnitVal, nil
			}
			last := a.Elems[len(a.Elems)-1]
			a.Elems = a.Elems[:len(a.Elems)-1]
			return last, nil
		})

	m.SetMethodFn("clear", module.AccessGlobal, nil, 1, false,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			switch recv := value.Flatten(args[0]).(type) {
			case *value.Array:
				recv.Elems = recv.Elems[:0]
			case *value.Map:
				recv.Pairs = make(map[string]value.Value)
			default:
				return nil, fmt.Errorf("clear expects an array or map receiver, got %s", args[0].TypeName())
			}
			return value.UnitVal, nil
		})

	m.SetMethodFn("contains", module.AccessGlobal, nil, 2, true,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			switch recv := value.Flatten(args[0]).(type) {
			case *value.Array:
				for _, el := range recv.Elems {
					if value.Equal(el, args[1]) {
						return value.TRUE, nil
					}
				}
				return value.FALSE, nil
			case *value.Map:
				key, ok := value.Flatten(args[1]).(*value.String)
				if !ok {
					return nil, fmt.Errorf("contains on a map expects a string key")
				}
				_, found := recv.Pairs[key.Value]
				return value.FromBool(found), nil
			case *value.String:
				sub, ok := value.Flatten(args[1]).(*value.String)
				if !ok {
					return nil, fmt.Errorf("contains on a string expects a string")
				}
				return value.FromBool(strings.Contains(recv.Value, sub.Value)), nil
			}
			return nil, fmt.Errorf("contains expects an array, map or string receiver")
		})

	m.SetMethodFn("keys", module.AccessGlobal, nil, 1, true,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			mp, ok := value.Flatten(args[0]).(*value.Map)
			if !ok {
				return nil, fmt.Errorf("keys expects a map receiver, got %s", args[0].TypeName())
			}
			names := make([]string, 0, len(mp.Pairs))
			for k := range mp.Pairs {
				names = append(names, k)
			}
			sort.Strings(names)
			elems := make([]value.Value, len(names))
			for i, k := range names {
				elems[i] = &value.String{Value: k}
			}
			return &value.Array{Elems: elems}, nil
		})

	m.SetNativeFn("to_string", module.AccessGlobal, nil, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			return &value.String{Value: value.Flatten(args[0]).Inspect()}, nil
		})

	// curry binds leading arguments onto a function pointer. Registered
	// for a few arities; currying is positional and repeatable.
	for arity := 2; arity <= 5; arity++ {
		m.SetMethodFn("curry", module.AccessGlobal, nil, arity, true,
			func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
				fp, ok := value.Flatten(args[0]).(*value.FnPtr)
				if !ok {
					return nil, fmt.Errorf("curry expects a function pointer receiver, got %s", args[0].TypeName())
				}
				bound := fp.Clone().(*value.FnPtr)
				bound.Curry = append(bound.Curry, args[1:]...)
				return bound, nil
			})
	}

	m.SetNativeFn("timestamp", module.AccessGlobal, nil, 0,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			return &value.Timestamp{Time: time.Now()}, nil
		})
	m.SetMethodFn("elapsed", module.AccessGlobal, nil, 1, true,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			ts, ok := value.Flatten(args[0]).(*value.Timestamp)
			if !ok {
				return nil, fmt.Errorf("elapsed expects a timestamp receiver, got %s", args[0].TypeName())
			}
			return &value.Float{Value: time.Since(ts.Time).Seconds()}, nil
		})

	m.BuildIndex()
	return m
}
