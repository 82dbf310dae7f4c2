package engine

import (
	"testing"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// AST builders. The front end is out of scope, so tests assemble trees
// directly; Slot -1 forces name-based variable search unless a test sets
// a cached offset explicitly.

func pos(line int) ast.Position { return ast.Position{Line: line, Column: 1} }

func intLit(v int64) *ast.IntLiteral       { return &ast.IntLiteral{Value: v, Position: pos(1)} }
func floatLit(v float64) *ast.FloatLiteral { return &ast.FloatLiteral{Value: v, Position: pos(1)} }
func boolLit(v bool) *ast.BoolLiteral      { return &ast.BoolLiteral{Value: v, Position: pos(1)} }
func strLit(v string) *ast.StringLiteral   { return &ast.StringLiteral{Value: v, Position: pos(1)} }
func charLit(v rune) *ast.CharLiteral      { return &ast.CharLiteral{Value: v, Position: pos(1)} }
func unitLit() *ast.UnitLiteral            { return &ast.UnitLiteral{Position: pos(1)} }

func id(name string) *ast.Ident {
	return &ast.Ident{Name: name, Slot: -1, Position: pos(1)}
}

func qualID(ns []string, name string) *ast.Ident {
	return &ast.Ident{Name: name, Namespace: ns, Slot: -1, Position: pos(1)}
}

func arrayLit(elems ...ast.Expression) *ast.ArrayLiteral {
	return &ast.ArrayLiteral{Elements: elems, Position: pos(1)}
}

func mapLit(keys []string, values ...ast.Expression) *ast.MapLiteral {
	return &ast.MapLiteral{Keys: keys, Values: values, Position: pos(1)}
}

func binop(op string, l, r ast.Expression) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: op, Left: l, Right: r, Position: pos(1)}
}

func unop(op string, operand ast.Expression) *ast.UnaryExpr {
	return &ast.UnaryExpr{Op: op, Operand: operand, Position: pos(1)}
}

func call(name string, args ...ast.Expression) *ast.FnCall {
	return &ast.FnCall{Name: name, Args: args, Position: pos(1)}
}

func methodCall(name string, args ...ast.Expression) *ast.FnCall {
	return &ast.FnCall{Name: name, Args: args, Method: true, Position: pos(1)}
}

func index(left, idx ast.Expression) *ast.IndexExpr {
	return &ast.IndexExpr{Left: left, Index: idx, Position: pos(1)}
}

func dot(left ast.Expression, field string) *ast.DotExpr {
	return &ast.DotExpr{Left: left, Field: field, Position: pos(1)}
}

func exprStmt(e ast.Expression) *ast.ExprStatement {
	return &ast.ExprStatement{Expr: e, Position: e.Pos()}
}

func letStmt(name string, v ast.Expression) *ast.VarDecl {
	return &ast.VarDecl{Name: name, Value: v, Position: pos(1)}
}

func constStmt(name string, v ast.Expression) *ast.VarDecl {
	return &ast.VarDecl{Name: name, Value: v, Constant: true, Position: pos(1)}
}

func assign(target ast.Expression, op string, v ast.Expression) *ast.Assign {
	return &ast.Assign{Target: target, Op: op, Value: v, Position: pos(1)}
}

func block(stmts ...ast.Statement) *ast.Block {
	return &ast.Block{Statements: stmts, Position: pos(1)}
}

func ret(v ast.Expression) *ast.Return { return &ast.Return{Value: v, Position: pos(1)} }

func ifExpr(cond ast.Expression, then *ast.Block, alt ast.Node) *ast.IfExpr {
	return &ast.IfExpr{Cond: cond, Then: then, Else: alt, Position: pos(1)}
}

func fnDef(name string, params []string, stmts ...ast.Statement) *ast.FnDef {
	return &ast.FnDef{Name: name, Params: params, Body: block(stmts...), Position: pos(1)}
}

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Source: "test", Statements: stmts}
}

func programWithFns(fns []*ast.FnDef, stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Source: "test", Statements: stmts, Functions: fns}
}

// Run helpers.

func mustEval(t *testing.T, e *Engine, p *ast.Program) value.Value {
	t.Helper()
	result, err := e.Eval(p)
	if err != nil {
		t.Fatalf("eval error: %s", err)
	}
	return result
}

func evalErr(t *testing.T, e *Engine, p *ast.Program) *RuntimeError {
	t.Helper()
	_, err := e.Eval(p)
	if err == nil {
		t.Fatal("expected an error, got none")
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T: %s", err, err)
	}
	return re
}

func wantInt(t *testing.T, v value.Value, expected int64) {
	t.Helper()
	i, ok := value.Flatten(v).(*value.Int)
	if !ok {
		t.Fatalf("value is not Int. got=%T (%s)", v, v.Inspect())
	}
	if i.Value != expected {
		t.Errorf("wrong value. got=%d, want=%d", i.Value, expected)
	}
}

func wantFloat(t *testing.T, v value.Value, expected float64) {
	t.Helper()
	f, ok := value.Flatten(v).(*value.Float)
	if !ok {
		t.Fatalf("value is not Float. got=%T (%s)", v, v.Inspect())
	}
	if f.Value != expected {
		t.Errorf("wrong value. got=%g, want=%g", f.Value, expected)
	}
}

func wantBool(t *testing.T, v value.Value, expected bool) {
	t.Helper()
	b, ok := value.Flatten(v).(*value.Bool)
	if !ok {
		t.Fatalf("value is not Bool. got=%T (%s)", v, v.Inspect())
	}
	if b.Value != expected {
		t.Errorf("wrong value. got=%v, want=%v", b.Value, expected)
	}
}

func wantString(t *testing.T, v value.Value, expected string) {
	t.Helper()
	s, ok := value.Flatten(v).(*value.String)
	if !ok {
		t.Fatalf("value is not String. got=%T (%s)", v, v.Inspect())
	}
	if s.Value != expected {
		t.Errorf("wrong value. got=%q, want=%q", s.Value, expected)
	}
}

func wantUnit(t *testing.T, v value.Value) {
	t.Helper()
	if !value.IsUnit(v) {
		t.Fatalf("value is not unit. got=%T (%s)", v, v.Inspect())
	}
}

func wantErrKind(t *testing.T, err *RuntimeError, kind ErrKind) {
	t.Helper()
	if err.ErrKind != kind {
		t.Errorf("wrong error kind. got=%s (%s), want=%s", err.ErrKind, err.Message, kind)
	}
}
