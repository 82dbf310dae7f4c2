package engine

import (
	"math"
	"testing"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/value"
)

func TestForOverString(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("n", intLit(0)),
		&ast.For{
			VarName:  "c",
			Iterable: strLit("héllo"),
			Body:     block(assign(id("n"), "+=", intLit(1))),
			Position: pos(1),
		},
		exprStmt(id("n")),
	))
	// Iteration is by rune, not by byte.
	wantInt(t, result, 5)
}

func TestForOverExclusiveRange(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("last", intLit(-1)),
		&ast.For{
			VarName:  "x",
			Iterable: &ast.RangeExpr{From: intLit(0), To: intLit(3), Position: pos(1)},
			Body:     block(assign(id("last"), "=", id("x"))),
			Position: pos(1),
		},
		exprStmt(id("last")),
	))
	wantInt(t, result, 2)
}

func TestForOverInclusiveRangeAtIntBoundary(t *testing.T) {
	// An inclusive range ending at the largest int64 must terminate
	// after its last element instead of wrapping around.
	e := New()
	result := mustEval(t, e, program(
		letStmt("count", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: &ast.RangeExpr{From: intLit(math.MaxInt64 - 2), To: intLit(math.MaxInt64), Inclusive: true, Position: pos(1)},
			Body:     block(assign(id("count"), "+=", intLit(1))),
			Position: pos(1),
		},
		exprStmt(id("count")),
	))
	wantInt(t, result, 3)
}

func TestForOverEmptyRange(t *testing.T) {
	// A descending range is empty, not an error.
	e := New()
	result := mustEval(t, e, program(
		letStmt("n", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: &ast.RangeExpr{From: intLit(5), To: intLit(1), Position: pos(1)},
			Body:     block(assign(id("n"), "+=", intLit(1))),
			Position: pos(1),
		},
		exprStmt(id("n")),
	))
	wantInt(t, result, 0)
}

func TestForMutatingIteratedArrayIsSafe(t *testing.T) {
	// Iteration walks a snapshot: growing the array inside the body must
	// not extend the loop.
	e := New()
	e.RegisterGlobalModule(arrayPushModule())
	result := mustEval(t, e, program(
		letStmt("a", arrayLit(intLit(1), intLit(2))),
		letStmt("n", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: id("a"),
			Body: block(
				exprStmt(methodCall("push", id("a"), intLit(9))),
				assign(id("n"), "+=", intLit(1)),
			),
			Position: pos(1),
		},
		exprStmt(id("n")),
	))
	wantInt(t, result, 2)
}

func arrayPushModule() *module.Module {
	m := module.New("arrays")
	m.SetMethodFn("push", module.AccessGlobal, nil, 2, false,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			arr := args[0].(*value.Array)
			arr.Elems = append(arr.Elems, args[1])
			return value.UnitVal, nil
		})
	m.BuildIndex()
	return m
}

func TestRegisteredHostIterator(t *testing.T) {
	// A host type becomes iterable once a module in the search chain
	// registers an iterator for its type name.
	m := module.New("grids")
	m.SetNativeFn("grid", module.AccessGlobal, nil, 1,
		func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
			n := args[0].(*value.Int)
			return &value.Host{Name: "grid", Value: n.Value}, nil
		})
	m.SetIterator("grid", func(v value.Value) (func() (value.Value, bool), error) {
		n := v.(*value.Host).Value.(int64)
		i := int64(0)
		return func() (value.Value, bool) {
			if i >= n {
				return nil, false
			}
			i++
			return &value.Int{Value: i * i}, true
		}, nil
	})
	m.BuildIndex()

	e := New()
	e.RegisterGlobalModule(m)
	result := mustEval(t, e, program(
		letStmt("sum", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: call("grid", intLit(3)),
			Body:     block(assign(id("sum"), "+=", id("x"))),
			Position: pos(1),
		},
		exprStmt(id("sum")),
	))
	// 1 + 4 + 9
	wantInt(t, result, 14)
}

func TestForOverNonIterableFails(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(
		&ast.For{
			VarName:  "x",
			Iterable: intLit(5),
			Body:     block(),
			Position: pos(1),
		},
	))
	wantErrKind(t, err, ErrMismatchedTypes)
}
