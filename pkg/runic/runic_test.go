package runic

import (
	"testing"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// Front ends produce the AST; tests assemble small trees by hand.

func lit(v int64) *ast.IntLiteral { return &ast.IntLiteral{Value: v} }

func ident(name string) *ast.Ident { return &ast.Ident{Name: name, Slot: -1} }

func stmt(e ast.Expression) ast.Statement { return &ast.ExprStatement{Expr: e} }

func letVar(name string, v ast.Expression) ast.Statement {
	return &ast.VarDecl{Name: name, Value: v}
}

func callFn(name string, args ...ast.Expression) *ast.FnCall {
	return &ast.FnCall{Name: name, Args: args}
}

func callMethod(name string, args ...ast.Expression) *ast.FnCall {
	return &ast.FnCall{Name: name, Args: args, Method: true}
}

func run(t *testing.T, e *Engine, stmts ...ast.Statement) Value {
	t.Helper()
	result, err := e.Eval(&Program{Source: "test", Statements: stmts})
	if err != nil {
		t.Fatalf("eval error: %s", err)
	}
	return result
}

func asInt(t *testing.T, v Value) int64 {
	t.Helper()
	i, ok := value.Flatten(v).(*Int)
	if !ok {
		t.Fatalf("value is not Int. got=%T (%s)", v, v.Inspect())
	}
	return i.Value
}

func TestCoreLenOverloads(t *testing.T) {
	e := New()

	arr := &ast.ArrayLiteral{Elements: []ast.Expression{lit(1), lit(2), lit(3)}}
	if got := asInt(t, run(t, e, stmt(callFn("len", arr)))); got != 3 {
		t.Errorf("len(array) = %d, want 3", got)
	}

	str := &ast.StringLiteral{Value: "héllo"}
	if got := asInt(t, run(t, e, stmt(callFn("len", str)))); got != 5 {
		t.Errorf("len(string) = %d, want 5 (runes, not bytes)", got)
	}

	m := &ast.MapLiteral{Keys: []string{"a", "b"}, Values: []ast.Expression{lit(1), lit(2)}}
	if got := asInt(t, run(t, e, stmt(callFn("len", m)))); got != 2 {
		t.Errorf("len(map) = %d, want 2", got)
	}
}

func TestCorePushPop(t *testing.T) {
	e := New()
	arr := &ast.ArrayLiteral{Elements: []ast.Expression{lit(1)}}

	result := run(t, e,
		letVar("a", arr),
		stmt(callMethod("push", ident("a"), lit(2))),
		stmt(callFn("len", ident("a"))),
	)
	if got := asInt(t, result); got != 2 {
		t.Errorf("len after push = %d, want 2", got)
	}

	result = run(t, e,
		letVar("a", &ast.ArrayLiteral{Elements: []ast.Expression{lit(7), lit(8)}}),
		stmt(callMethod("pop", ident("a"))),
	)
	if got := asInt(t, result); got != 8 {
		t.Errorf("pop = %d, want 8", got)
	}
}

func TestCoreClear(t *testing.T) {
	e := New()
	result := run(t, e,
		letVar("a", &ast.ArrayLiteral{Elements: []ast.Expression{lit(1), lit(2)}}),
		stmt(callMethod("clear", ident("a"))),
		stmt(callFn("len", ident("a"))),
	)
	if got := asInt(t, result); got != 0 {
		t.Errorf("len after clear = %d, want 0", got)
	}
}

func TestCoreContains(t *testing.T) {
	e := New()
	result := run(t, e, stmt(callMethod("contains",
		&ast.ArrayLiteral{Elements: []ast.Expression{lit(1), lit(2)}},
		lit(2))))
	b, ok := value.Flatten(result).(*Bool)
	if !ok || !b.Value {
		t.Errorf("contains = %s, want true", result.Inspect())
	}
}

func TestCoreKeysAreSorted(t *testing.T) {
	e := New()
	result := run(t, e, stmt(callMethod("keys",
		&ast.MapLiteral{Keys: []string{"b", "a"}, Values: []ast.Expression{lit(1), lit(2)}})))
	arr, ok := value.Flatten(result).(*Array)
	if !ok {
		t.Fatalf("keys did not return an array: %T", result)
	}
	if len(arr.Elems) != 2 ||
		arr.Elems[0].(*String).Value != "a" ||
		arr.Elems[1].(*String).Value != "b" {
		t.Errorf("keys = %s, want [a, b]", result.Inspect())
	}
}

func TestCoreToString(t *testing.T) {
	e := New()
	result := run(t, e, stmt(callFn("to_string", lit(42))))
	s, ok := value.Flatten(result).(*String)
	if !ok || s.Value != "42" {
		t.Errorf("to_string(42) = %s", result.Inspect())
	}
}

func TestCoreCurry(t *testing.T) {
	e := New()
	addDef := &ast.FnDef{
		Name:   "add",
		Params: []string{"a", "b"},
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.Return{Value: &ast.BinaryExpr{Op: "+", Left: ident("a"), Right: ident("b")}},
		}},
	}
	p := &Program{
		Source:    "test",
		Functions: []*ast.FnDef{addDef},
		Statements: []ast.Statement{
			letVar("f", &ast.FnLiteral{Def: addDef}),
			letVar("add40", callMethod("curry", ident("f"), lit(40))),
			stmt(callMethod("call", ident("add40"), lit(2))),
		},
	}
	result, err := e.Eval(p)
	if err != nil {
		t.Fatalf("eval error: %s", err)
	}
	if got := asInt(t, result); got != 42 {
		t.Errorf("curried call = %d, want 42", got)
	}
}

func TestCoreCurryDoesNotMutateOriginal(t *testing.T) {
	e := New()
	addDef := &ast.FnDef{
		Name:   "add",
		Params: []string{"a", "b"},
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.Return{Value: &ast.BinaryExpr{Op: "+", Left: ident("a"), Right: ident("b")}},
		}},
	}
	p := &Program{
		Source:    "test",
		Functions: []*ast.FnDef{addDef},
		Statements: []ast.Statement{
			letVar("f", &ast.FnLiteral{Def: addDef}),
			letVar("g", callMethod("curry", ident("f"), lit(1))),
			// The original pointer still wants two arguments.
			stmt(callMethod("call", ident("f"), lit(20), lit(22))),
		},
	}
	result, err := e.Eval(p)
	if err != nil {
		t.Fatalf("eval error: %s", err)
	}
	if got := asInt(t, result); got != 42 {
		t.Errorf("original fn ptr = %d, want 42", got)
	}
}

func TestCoreTimestampElapsed(t *testing.T) {
	e := New()
	result := run(t, e,
		letVar("t0", callFn("timestamp")),
		stmt(callMethod("elapsed", ident("t0"))),
	)
	f, ok := value.Flatten(result).(*Float)
	if !ok {
		t.Fatalf("elapsed did not return a float: %T", result)
	}
	if f.Value < 0 {
		t.Errorf("elapsed = %g, want >= 0", f.Value)
	}
}

func TestNewRawHasNoCoreLib(t *testing.T) {
	e := NewRaw()
	_, err := e.Eval(&Program{Statements: []ast.Statement{
		stmt(callFn("len", &ast.StringLiteral{Value: "x"})),
	}})
	if err == nil {
		t.Fatal("raw engine must not have the core library")
	}
}

func TestLoadConfigAppliesToEngine(t *testing.T) {
	f, err := LoadConfig([]byte("limits:\n  max_call_depth: 4\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	e := New()
	e.SetLimits(f.Limits)
	if e.Limits().MaxCallDepth != 4 {
		t.Errorf("MaxCallDepth = %d, want 4", e.Limits().MaxCallDepth)
	}
}
