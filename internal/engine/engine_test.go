package engine

import (
	"testing"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/scope"
	"github.com/funvibe/runic/internal/value"
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		expr     ast.Expression
		expected int64
	}{
		{"add", binop("+", intLit(40), intLit(2)), 42},
		{"sub", binop("-", intLit(50), intLit(8)), 42},
		{"mul", binop("*", intLit(6), intLit(7)), 42},
		{"div", binop("/", intLit(84), intLit(2)), 42},
		{"mod", binop("%", intLit(47), intLit(5)), 2},
		{"pow", binop("**", intLit(2), intLit(10)), 1024},
		{"shl", binop("<<", intLit(1), intLit(4)), 16},
		{"shr", binop(">>", intLit(64), intLit(3)), 8},
		{"nested", binop("+", binop("*", intLit(5), intLit(8)), intLit(2)), 42},
		{"negate", unop("-", intLit(-42)), 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			result := mustEval(t, e, program(exprStmt(tt.expr)))
			wantInt(t, result, tt.expected)
		})
	}
}

func TestFloatPromotion(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(exprStmt(binop("+", intLit(1), floatLit(0.5)))))
	wantFloat(t, result, 1.5)

	result = mustEval(t, e, program(exprStmt(binop("<", floatLit(1.5), intLit(2)))))
	wantBool(t, result, true)
}

func TestDivisionByZero(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(exprStmt(binop("/", intLit(1), intLit(0)))))
	wantErrKind(t, err, ErrRuntime)

	err = evalErr(t, e, program(exprStmt(binop("%", intLit(1), intLit(0)))))
	wantErrKind(t, err, ErrRuntime)
}

func TestShiftOutOfRange(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(exprStmt(binop("<<", intLit(1), intLit(64)))))
	wantInt(t, result, 0)

	result = mustEval(t, e, program(exprStmt(binop(">>", intLit(1), intLit(-1)))))
	wantInt(t, result, 0)
}

func TestStringOps(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(exprStmt(binop("+", strLit("foo"), strLit("bar")))))
	wantString(t, result, "foobar")

	result = mustEval(t, e, program(exprStmt(binop("+", charLit('a'), charLit('b')))))
	wantString(t, result, "ab")

	result = mustEval(t, e, program(exprStmt(binop("<", strLit("abc"), strLit("abd")))))
	wantBool(t, result, true)
}

func TestEqualityIsTotal(t *testing.T) {
	// Comparing values of different types is false, not an error.
	e := New()
	result := mustEval(t, e, program(exprStmt(binop("==", intLit(1), strLit("1")))))
	wantBool(t, result, false)

	result = mustEval(t, e, program(exprStmt(binop("!=", intLit(1), strLit("1")))))
	wantBool(t, result, true)
}

func TestVariables(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("x", intLit(40)),
		assign(id("x"), "+=", intLit(2)),
		exprStmt(id("x")),
	))
	wantInt(t, result, 42)
}

func TestShadowing(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("x", intLit(1)),
		letStmt("x", binop("+", id("x"), intLit(1))),
		exprStmt(id("x")),
	))
	wantInt(t, result, 2)
}

func TestConstantAssignmentFails(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(
		constStmt("x", intLit(1)),
		assign(id("x"), "=", intLit(2)),
	))
	wantErrKind(t, err, ErrAssignToConstant)
}

func TestDefVarFilterVetoesDefinitions(t *testing.T) {
	e := New()
	e.OnDefVar(func(name string, constant bool, nestLevel int) bool {
		return name != "secret"
	})

	result := mustEval(t, e, program(
		letStmt("open", intLit(1)),
		exprStmt(id("open")),
	))
	wantInt(t, result, 1)

	err := evalErr(t, e, program(letStmt("secret", intLit(2))))
	wantErrKind(t, err, ErrForbiddenVariable)
}

func TestVariableNotFound(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(exprStmt(id("nope"))))
	wantErrKind(t, err, ErrVariableNotFound)
}

func TestVarResolverGetsFirstRefusal(t *testing.T) {
	e := New()
	e.OnVarResolver(func(name string, ctx *EvalContext) (value.Value, bool, error) {
		if name == "host_only" {
			return &value.Int{Value: 7}, true, nil
		}
		return nil, false, nil
	})

	// The resolver answers names the scope knows nothing about, and a
	// scope binding of the same name never wins over it.
	result := mustEval(t, e, program(
		letStmt("host_only", intLit(1)),
		letStmt("x", intLit(2)),
		exprStmt(binop("+", id("host_only"), id("x"))),
	))
	wantInt(t, result, 9)

	err := evalErr(t, e, program(exprStmt(id("still_missing"))))
	wantErrKind(t, err, ErrVariableNotFound)
}

func TestCustomSyntaxDispatch(t *testing.T) {
	e := New()
	e.RegisterCustomSyntax("twice", func(ctx *EvalContext, inputs []ast.Expression) (value.Value, error) {
		v, err := ctx.EvalExpression(inputs[0])
		if err != nil {
			return nil, err
		}
		i := value.Flatten(v).(*value.Int)
		return &value.Int{Value: 2 * i.Value}, nil
	})

	result := mustEval(t, e, program(exprStmt(
		&ast.CustomExpr{Name: "twice", Inputs: []ast.Expression{intLit(21)}, Position: pos(1)},
	)))
	wantInt(t, result, 42)

	err := evalErr(t, e, program(exprStmt(
		&ast.CustomExpr{Name: "unregistered", Position: pos(1)},
	)))
	wantErrKind(t, err, ErrRuntime)
}

func TestIfExpr(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(exprStmt(
		ifExpr(boolLit(true), block(exprStmt(intLit(1))), block(exprStmt(intLit(2)))),
	)))
	wantInt(t, result, 1)

	result = mustEval(t, e, program(exprStmt(
		ifExpr(boolLit(false), block(exprStmt(intLit(1))), block(exprStmt(intLit(2)))),
	)))
	wantInt(t, result, 2)

	// Missing else on a false condition yields unit.
	result = mustEval(t, e, program(exprStmt(
		ifExpr(boolLit(false), block(exprStmt(intLit(1))), nil),
	)))
	wantUnit(t, result)
}

func TestIfConditionMustBeBool(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(exprStmt(
		ifExpr(intLit(1), block(exprStmt(intLit(1))), nil),
	)))
	wantErrKind(t, err, ErrMismatchedTypes)
}

func TestShortCircuit(t *testing.T) {
	// The right side would fail with a missing variable; short-circuiting
	// must never reach it.
	e := New()
	result := mustEval(t, e, program(exprStmt(
		&ast.AndExpr{Left: boolLit(false), Right: id("boom"), Position: pos(1)},
	)))
	wantBool(t, result, false)

	result = mustEval(t, e, program(exprStmt(
		&ast.OrExpr{Left: boolLit(true), Right: id("boom"), Position: pos(1)},
	)))
	wantBool(t, result, true)
}

func TestCoalesce(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(exprStmt(
		&ast.CoalesceExpr{Left: unitLit(), Right: intLit(42), Position: pos(1)},
	)))
	wantInt(t, result, 42)

	result = mustEval(t, e, program(exprStmt(
		&ast.CoalesceExpr{Left: intLit(1), Right: id("boom"), Position: pos(1)},
	)))
	wantInt(t, result, 1)
}

func TestWhileLoop(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("i", intLit(0)),
		letStmt("sum", intLit(0)),
		&ast.While{
			Cond: binop("<", id("i"), intLit(10)),
			Body: block(
				assign(id("sum"), "+=", id("i")),
				assign(id("i"), "+=", intLit(1)),
			),
			Position: pos(1),
		},
		exprStmt(id("sum")),
	))
	wantInt(t, result, 45)
}

func TestLoopBreakYieldsUnit(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("i", intLit(0)),
		&ast.Loop{
			Body: block(
				assign(id("i"), "+=", intLit(1)),
				exprStmt(ifExpr(binop(">", id("i"), intLit(5)),
					block(&ast.Break{Position: pos(1)}), nil)),
			),
			Position: pos(1),
		},
		exprStmt(id("i")),
	))
	wantInt(t, result, 6)
}

func TestForOverArray(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("sum", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: arrayLit(intLit(1), intLit(2), intLit(3)),
			Body:     block(assign(id("sum"), "+=", id("x"))),
			Position: pos(1),
		},
		exprStmt(id("sum")),
	))
	wantInt(t, result, 6)
}

func TestForOverRange(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("sum", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: &ast.RangeExpr{From: intLit(1), To: intLit(4), Inclusive: true, Position: pos(1)},
			Body:     block(assign(id("sum"), "+=", id("x"))),
			Position: pos(1),
		},
		exprStmt(id("sum")),
	))
	wantInt(t, result, 10)
}

func TestForWithCounter(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("acc", intLit(0)),
		&ast.For{
			VarName:     "x",
			CounterName: "i",
			Iterable:    arrayLit(intLit(10), intLit(20), intLit(30)),
			Body:        block(assign(id("acc"), "+=", binop("*", id("i"), id("x")))),
			Position:    pos(1),
		},
		exprStmt(id("acc")),
	))
	// 0*10 + 1*20 + 2*30
	wantInt(t, result, 80)
}

func TestForOverMapIsSorted(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("keys", strLit("")),
		&ast.For{
			VarName:  "k",
			Iterable: mapLit([]string{"b", "a", "c"}, intLit(1), intLit(2), intLit(3)),
			Body:     block(assign(id("keys"), "+=", id("k"))),
			Position: pos(1),
		},
		exprStmt(id("keys")),
	))
	wantString(t, result, "abc")
}

func TestForContinue(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("sum", intLit(0)),
		&ast.For{
			VarName:  "x",
			Iterable: &ast.RangeExpr{From: intLit(0), To: intLit(10), Position: pos(1)},
			Body: block(
				exprStmt(ifExpr(binop("==", binop("%", id("x"), intLit(2)), intLit(0)),
					block(&ast.Continue{Position: pos(1)}), nil)),
				assign(id("sum"), "+=", id("x")),
			),
			Position: pos(1),
		},
		exprStmt(id("sum")),
	))
	// 1+3+5+7+9
	wantInt(t, result, 25)
}

func TestScriptFunctionCall(t *testing.T) {
	e := New()
	p := programWithFns(
		[]*ast.FnDef{fnDef("add", []string{"a", "b"},
			ret(binop("+", id("a"), id("b"))))},
		exprStmt(call("add", intLit(40), intLit(2))),
	)
	wantInt(t, mustEval(t, e, p), 42)
}

func TestRecursion(t *testing.T) {
	e := New()
	p := programWithFns(
		[]*ast.FnDef{fnDef("fib", []string{"n"},
			exprStmt(ifExpr(binop("<", id("n"), intLit(2)),
				block(ret(id("n"))),
				block(ret(binop("+",
					call("fib", binop("-", id("n"), intLit(1))),
					call("fib", binop("-", id("n"), intLit(2)))))))))},
		exprStmt(call("fib", intLit(10))),
	)
	wantInt(t, mustEval(t, e, p), 55)
}

func TestFunctionsAreArityOverloaded(t *testing.T) {
	e := New()
	p := programWithFns(
		[]*ast.FnDef{
			fnDef("f", []string{"a"}, ret(intLit(1))),
			fnDef("f", []string{"a", "b"}, ret(intLit(2))),
		},
		exprStmt(binop("+",
			call("f", intLit(0)),
			call("f", intLit(0), intLit(0)))),
	)
	wantInt(t, mustEval(t, e, p), 3)
}

func TestFunctionNotFound(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(exprStmt(call("missing", intLit(1)))))
	wantErrKind(t, err, ErrFunctionNotFound)
}

func TestArgumentsPassByValue(t *testing.T) {
	// A plain call must not let the callee mutate the caller's variable.
	e := New()
	p := programWithFns(
		[]*ast.FnDef{fnDef("bump", []string{"x"},
			assign(id("x"), "+=", intLit(1)))},
		letStmt("n", intLit(1)),
		exprStmt(call("bump", id("n"))),
		exprStmt(id("n")),
	)
	wantInt(t, mustEval(t, e, p), 1)
}

func TestNativeFunction(t *testing.T) {
	m := module.New("test")
	m.SetNativeFn("triple", module.AccessGlobal, nil, 1, func(ctx module.NativeCallContext, args []value.Value) (value.Value, error) {
		n := args[0].(*value.Int)
		return &value.Int{Value: n.Value * 3}, nil
	})
	m.BuildIndex()

	e := New()
	e.RegisterGlobalModule(m)
	wantInt(t, mustEval(t, e, program(exprStmt(call("triple", intLit(14))))), 42)
}

func TestIndexing(t *testing.T) {
	e := New()

	result := mustEval(t, e, program(exprStmt(
		index(arrayLit(intLit(10), intLit(20), intLit(30)), intLit(1)))))
	wantInt(t, result, 20)

	// Negative indices address from the end.
	result = mustEval(t, e, program(exprStmt(
		index(arrayLit(intLit(10), intLit(20), intLit(30)), intLit(-1)))))
	wantInt(t, result, 30)

	result = mustEval(t, e, program(exprStmt(
		index(mapLit([]string{"a"}, intLit(42)), strLit("a")))))
	wantInt(t, result, 42)

	// Reading a missing map key yields unit.
	result = mustEval(t, e, program(exprStmt(
		index(mapLit([]string{"a"}, intLit(42)), strLit("b")))))
	wantUnit(t, result)

	result = mustEval(t, e, program(exprStmt(
		index(strLit("hello"), intLit(1)))))
	c, ok := value.Flatten(result).(*value.Char)
	if !ok {
		t.Fatalf("value is not Char. got=%T", result)
	}
	if c.Value != 'e' {
		t.Errorf("wrong char. got=%q", c.Value)
	}
}

func TestIndexingEmptyArrayFails(t *testing.T) {
	e := New()
	err := evalErr(t, e, program(exprStmt(index(arrayLit(), intLit(0)))))
	wantErrKind(t, err, ErrRuntime)
}

func TestIndexAssignment(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("a", arrayLit(intLit(1), intLit(2), intLit(3))),
		assign(index(id("a"), intLit(1)), "=", intLit(42)),
		exprStmt(index(id("a"), intLit(1))),
	))
	wantInt(t, result, 42)
}

func TestMapEntryAssignment(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("m", mapLit([]string{"a"}, intLit(1))),
		assign(index(id("m"), strLit("b")), "=", intLit(2)),
		exprStmt(index(id("m"), strLit("b"))),
	))
	wantInt(t, result, 2)
}

func TestDotAccessOnMap(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("m", mapLit([]string{"x"}, intLit(42))),
		exprStmt(dot(id("m"), "x")),
	))
	wantInt(t, result, 42)

	// A missing field on a map reads as unit.
	result = mustEval(t, e, program(
		letStmt("m", mapLit(nil)),
		exprStmt(dot(id("m"), "x")),
	))
	wantUnit(t, result)
}

func TestDotAssignmentOnMap(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("m", mapLit(nil)),
		assign(dot(id("m"), "x"), "=", intLit(7)),
		exprStmt(dot(id("m"), "x")),
	))
	wantInt(t, result, 7)
}

func TestNullSafeAccess(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("m", unitLit()),
		exprStmt(&ast.DotExpr{Left: id("m"), Field: "x", NullSafe: true, Position: pos(1)}),
	))
	wantUnit(t, result)

	result = mustEval(t, e, program(
		letStmt("a", unitLit()),
		exprStmt(&ast.IndexExpr{Left: id("a"), Index: intLit(0), NullSafe: true, Position: pos(1)}),
	))
	wantUnit(t, result)
}

func TestStringInterpolation(t *testing.T) {
	e := New()
	result := mustEval(t, e, program(
		letStmt("n", intLit(42)),
		exprStmt(&ast.InterpolatedString{
			Segments: []ast.Expression{strLit("n = "), id("n"), strLit("!")},
			Position: pos(1),
		}),
	))
	wantString(t, result, "n = 42!")
}

func TestInOperator(t *testing.T) {
	e := New()
	wantBool(t, mustEval(t, e, program(exprStmt(
		binop("in", intLit(2), arrayLit(intLit(1), intLit(2)))))), true)
	wantBool(t, mustEval(t, e, program(exprStmt(
		binop("in", strLit("k"), mapLit([]string{"k"}, intLit(1)))))), true)
	wantBool(t, mustEval(t, e, program(exprStmt(
		binop("in", strLit("ell"), strLit("hello"))))), true)
	wantBool(t, mustEval(t, e, program(exprStmt(
		binop("in", strLit("z"), strLit("hello"))))), false)
}

func TestClosureSharesCapturedVariable(t *testing.T) {
	// let c = 0; let inc = || c += 1; inc.call(); inc.call(); c == 2
	// The front end hoists the literal's definition into the unit's
	// function namespace, with captures as leading parameters.
	e := New()
	incDef := &ast.FnDef{
		Name:     "anon$0",
		Params:   []string{"c"},
		Body:     block(assign(id("c"), "+=", intLit(1))),
		Position: pos(1),
	}
	p := programWithFns(
		[]*ast.FnDef{incDef},
		letStmt("c", intLit(0)),
		letStmt("inc", &ast.FnLiteral{Def: incDef, Captures: []string{"c"}, Position: pos(1)}),
		exprStmt(methodCall("call", id("inc"))),
		exprStmt(methodCall("call", id("inc"))),
		exprStmt(id("c")),
	)
	wantInt(t, mustEval(t, e, p), 2)
}

func TestCallScriptFnFromHost(t *testing.T) {
	e := New()
	p := programWithFns(
		[]*ast.FnDef{fnDef("mul", []string{"a", "b"},
			ret(binop("*", id("a"), id("b"))))},
	)
	s := scope.New()
	result, err := e.CallScriptFn(s, p, "mul", true, &value.Int{Value: 6}, &value.Int{Value: 7})
	if err != nil {
		t.Fatalf("CallScriptFn: %s", err)
	}
	wantInt(t, result, 42)
	if s.Len() != 0 {
		t.Errorf("scope not rewound, len=%d", s.Len())
	}
}

func TestCallScriptFnKeepsScopeWhenNotRewinding(t *testing.T) {
	// rewindScope=false strips the parameters but keeps variables the
	// function body declared, so successive calls can accumulate state.
	e := New()
	p := programWithFns(
		[]*ast.FnDef{fnDef("setup", []string{"n"},
			letStmt("kept", id("n")))},
	)
	s := scope.New()
	_, err := e.CallScriptFn(s, p, "setup", false, &value.Int{Value: 5})
	if err != nil {
		t.Fatalf("CallScriptFn: %s", err)
	}
	idx := s.Search("kept")
	if idx < 0 {
		t.Fatal("variable declared by the function was stripped")
	}
	wantInt(t, s.GetByIndex(idx), 5)
	if s.Search("n") >= 0 {
		t.Error("parameter leaked into the caller scope")
	}
}

func TestErrorCarriesCallFrames(t *testing.T) {
	e := New()
	p := programWithFns(
		[]*ast.FnDef{
			fnDef("inner", nil, exprStmt(binop("/", intLit(1), intLit(0)))),
			fnDef("outer", nil, exprStmt(call("inner"))),
		},
		exprStmt(call("outer")),
	)
	err := evalErr(t, e, p)
	if len(err.Frames) != 2 {
		t.Fatalf("expected 2 call frames, got %d", len(err.Frames))
	}
	if err.Frames[0].FnName != "inner" || err.Frames[1].FnName != "outer" {
		t.Errorf("wrong frame order: %s, %s", err.Frames[0].FnName, err.Frames[1].FnName)
	}
}

func TestEvalWithScopePreservesState(t *testing.T) {
	e := New()
	s := scope.New()
	mustEval2 := func(p *ast.Program) value.Value {
		t.Helper()
		v, err := e.EvalWithScope(s, p)
		if err != nil {
			t.Fatalf("eval error: %s", err)
		}
		return v
	}
	mustEval2(program(letStmt("x", intLit(40))))
	wantInt(t, mustEval2(program(exprStmt(binop("+", id("x"), intLit(2))))), 42)
}
