package engine

import (
	"strings"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/config"
	"github.com/funvibe/runic/internal/value"
)

// evalExpr evaluates one expression. Like statements, every node costs
// one operation (check-before) and is offered to the debugger at
// expression granularity.
func (e *Engine) evalExpr(ctx *evalCtx, node ast.Expression) value.Value {
	if err := e.incOperations(ctx.state, node.Pos()); err != nil {
		return err
	}
	if ctx.state.debugger != nil {
		restore, err := e.runDebugger(ctx, node, false)
		if err != nil {
			return err
		}
		if restore != nil {
			defer func() { ctx.state.debugger.status = *restore }()
		}
	}

	switch node := node.(type) {
	case *ast.UnitLiteral:
		return value.UnitVal
	case *ast.BoolLiteral:
		return value.FromBool(node.Value)
	case *ast.IntLiteral:
		return &value.Int{Value: node.Value}
	case *ast.FloatLiteral:
		return &value.Float{Value: node.Value}
	case *ast.CharLiteral:
		return &value.Char{Value: node.Value}
	case *ast.StringLiteral:
		return &value.String{Value: node.Value}
	case *ast.InterpolatedString:
		return e.evalInterpolatedString(ctx, node)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(ctx, node)
	case *ast.MapLiteral:
		return e.evalMapLiteral(ctx, node)
	case *ast.Ident:
		return e.evalIdent(ctx, node)
	case *ast.ThisExpr:
		if ctx.this == nil {
			return newErrorKind(ErrUnboundThis, node.Pos(), "'this' is not bound in this context")
		}
		return *ctx.this
	case *ast.FnCall:
		return e.evalFnCall(ctx, node)
	case *ast.UnaryExpr:
		return e.evalUnaryExpr(ctx, node)
	case *ast.BinaryExpr:
		left := e.evalExpr(ctx, node.Left)
		if isAbort(left) {
			return left
		}
		right := e.evalExpr(ctx, node.Right)
		if isAbort(right) {
			return right
		}
		return e.applyBinaryOp(ctx, node.Op, left, right, node.Pos())
	case *ast.AndExpr:
		// Short-circuit: the right operand is not evaluated when the
		// left already determines the result.
		left := e.evalExpr(ctx, node.Left)
		if isAbort(left) {
			return left
		}
		lb, ok := value.Flatten(left).(*value.Bool)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, node.Left.Pos(), "&& requires bool operands, got %s", left.TypeName())
		}
		if !lb.Value {
			return value.FALSE
		}
		return e.evalBoolOperand(ctx, node.Right, "&&")
	case *ast.OrExpr:
		left := e.evalExpr(ctx, node.Left)
		if isAbort(left) {
			return left
		}
		lb, ok := value.Flatten(left).(*value.Bool)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, node.Left.Pos(), "|| requires bool operands, got %s", left.TypeName())
		}
		if lb.Value {
			return value.TRUE
		}
		return e.evalBoolOperand(ctx, node.Right, "||")
	case *ast.CoalesceExpr:
		// The right operand evaluates only when the left is unit.
		left := e.evalExpr(ctx, node.Left)
		if isAbort(left) {
			return left
		}
		if value.IsUnit(left) {
			return e.evalExpr(ctx, node.Right)
		}
		return left
	case *ast.IfExpr:
		return e.evalIfExpr(ctx, node)
	case *ast.IndexExpr:
		return e.evalIndexExpr(ctx, node)
	case *ast.DotExpr:
		return e.evalDotExpr(ctx, node)
	case *ast.FnLiteral:
		return e.evalFnLiteral(ctx, node)
	case *ast.RangeExpr:
		return e.evalRangeExpr(ctx, node)
	case *ast.CustomExpr:
		return e.evalCustomExpr(ctx, node)
	}
	return newError(node.Pos(), "unknown expression node")
}

func (e *Engine) evalBoolOperand(ctx *evalCtx, node ast.Expression, op string) value.Value {
	v := e.evalExpr(ctx, node)
	if isAbort(v) {
		return v
	}
	b, ok := value.Flatten(v).(*value.Bool)
	if !ok {
		return newErrorKind(ErrMismatchedTypes, node.Pos(), "%s requires bool operands, got %s", op, v.TypeName())
	}
	return value.FromBool(b.Value)
}

func (e *Engine) evalIfExpr(ctx *evalCtx, node *ast.IfExpr) value.Value {
	cond := e.evalExpr(ctx, node.Cond)
	if isAbort(cond) {
		return cond
	}
	b, ok := value.Flatten(cond).(*value.Bool)
	if !ok {
		return newErrorKind(ErrMismatchedTypes, node.Cond.Pos(), "if condition must be bool, got %s", cond.TypeName())
	}
	if b.Value {
		return e.evalBlock(ctx, node.Then)
	}
	switch alt := node.Else.(type) {
	case nil:
		return value.UnitVal
	case *ast.Block:
		return e.evalBlock(ctx, alt)
	case *ast.IfExpr:
		return e.evalExpr(ctx, alt)
	}
	return newError(node.Pos(), "malformed else branch")
}

// evalInterpolatedString concatenates segments, converting non-string
// results through the to_string function lookup (falling back to the
// generic formatter) and checking the string-size limit after every
// append, not just at the end.
func (e *Engine) evalInterpolatedString(ctx *evalCtx, node *ast.InterpolatedString) value.Value {
	var b strings.Builder
	for _, seg := range node.Segments {
		v := e.evalExpr(ctx, seg)
		if isAbort(v) {
			return v
		}
		s, err := e.valueToString(ctx, v, seg.Pos())
		if err != nil {
			return err
		}
		b.WriteString(s)
		if err := e.checkStringSize(b.Len(), seg.Pos()); err != nil {
			return err
		}
	}
	return &value.String{Value: b.String()}
}

// valueToString converts a value for interpolation via the registered
// to_string overload when one exists.
func (e *Engine) valueToString(ctx *evalCtx, v value.Value, pos ast.Position) (string, *RuntimeError) {
	flat := value.Flatten(v)
	if s, ok := flat.(*value.String); ok {
		return s.Value, nil
	}
	entry, _ := e.resolveFn(ctx, config.ToStringFuncName, nil, []value.Value{flat}, pos)
	if entry != nil && entry.fn != nil {
		result := e.execFn(ctx, entry, config.ToStringFuncName, nil, []value.Value{flat}, pos)
		if err, ok := result.(*RuntimeError); ok {
			return "", err
		}
		s, ok := value.Flatten(result).(*value.String)
		if !ok {
			return "", newErrorKind(ErrMismatchedOutputType, pos, "to_string must return a string, got %s", result.TypeName())
		}
		return s.Value, nil
	}
	return flat.Inspect(), nil
}

// evalArrayLiteral evaluates elements left to right. With data-size
// limiting enabled, the running totals are checked after each element so
// oversized structures abort early instead of being built whole.
func (e *Engine) evalArrayLiteral(ctx *evalCtx, node *ast.ArrayLiteral) value.Value {
	limited := e.sizeLimited()
	totals := dataSizes{arrays: len(node.Elements)}
	elems := make([]value.Value, 0, len(node.Elements))
	for _, el := range node.Elements {
		v := e.evalExpr(ctx, el)
		if isAbort(v) {
			return v
		}
		elems = append(elems, v)
		if limited {
			totals.add(measure(v))
			if err := e.checkSizes(totals, el.Pos()); err != nil {
				return err
			}
		}
	}
	return &value.Array{Elems: elems}
}

func (e *Engine) evalMapLiteral(ctx *evalCtx, node *ast.MapLiteral) value.Value {
	limited := e.sizeLimited()
	totals := dataSizes{maps: len(node.Keys)}
	m := value.NewMap()
	for i, key := range node.Keys {
		v := e.evalExpr(ctx, node.Values[i])
		if isAbort(v) {
			return v
		}
		m.Pairs[key] = v
		if limited {
			totals.add(measure(v))
			if err := e.checkSizes(totals, node.Values[i].Pos()); err != nil {
				return err
			}
		}
	}
	return m
}

// evalFnLiteral materializes an anonymous function: the definition was
// hoisted into the unit's function namespace by the front end; listed
// free variables are converted to shared cells in the defining scope and
// curried onto the function pointer.
func (e *Engine) evalFnLiteral(ctx *evalCtx, node *ast.FnLiteral) value.Value {
	if e.options.DisableClosures && len(node.Captures) > 0 {
		return newError(node.Pos(), "closures are disabled")
	}
	fp := &value.FnPtr{Name: node.Def.Name}
	for _, name := range node.Captures {
		idx := ctx.scope.Search(name)
		if idx < 0 {
			return newErrorKind(ErrVariableNotFound, node.Pos(), "variable not found: %s", name)
		}
		// Capture by shared cell: promote the binding in place so the
		// closure and the original alias the same cell.
		cur := ctx.scope.GetByIndex(idx)
		shared, ok := cur.(*value.Shared)
		if !ok {
			shared = value.Share(cur)
			ctx.scope.SetByIndex(idx, shared)
		}
		fp.Curry = append(fp.Curry, shared.Clone())
	}
	return fp
}

func (e *Engine) evalRangeExpr(ctx *evalCtx, node *ast.RangeExpr) value.Value {
	from := e.evalExpr(ctx, node.From)
	if isAbort(from) {
		return from
	}
	to := e.evalExpr(ctx, node.To)
	if isAbort(to) {
		return to
	}
	fi, ok1 := value.Flatten(from).(*value.Int)
	ti, ok2 := value.Flatten(to).(*value.Int)
	if !ok1 || !ok2 {
		return newErrorKind(ErrMismatchedTypes, node.Pos(), "range bounds must be integers")
	}
	return &value.Host{
		Name:  rangeTypeName,
		Value: rangeValue{from: fi.Value, to: ti.Value, inclusive: node.Inclusive},
	}
}

func (e *Engine) evalCustomExpr(ctx *evalCtx, node *ast.CustomExpr) value.Value {
	handler, ok := e.customSyntax[node.Name]
	if !ok {
		return newError(node.Pos(), "unknown custom syntax: %s", node.Name)
	}
	ec := &EvalContext{engine: e, ctx: ctx, position: node.Pos()}
	v, err := handler(ec, node.Inputs)
	if err != nil {
		return fromGoError(err, node.Pos())
	}
	if v == nil {
		return value.UnitVal
	}
	return v
}
