package engine

import (
	"math"
	"strings"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// applyBinaryOp evaluates a binary operator: the built-in table first,
// then registered overloads under the operator's own name. Built-ins are
// never shadowed by overloads for the exact primitive type pairs below.
func (e *Engine) applyBinaryOp(ctx *evalCtx, op string, left, right value.Value, pos ast.Position) value.Value {
	l := value.Flatten(left)
	r := value.Flatten(right)

	if v, done := e.builtinBinaryOp(op, l, r, pos); done {
		return v
	}

	args := []value.Value{l, r}
	entry, rerr := e.resolveFn(ctx, op, nil, args, pos)
	if rerr != nil {
		return rerr
	}
	if entry != nil && entry.fn != nil {
		return e.execFn(ctx, entry, op, nil, args, pos)
	}
	return newErrorKind(ErrFunctionNotFound, pos, "function not found: %s (%s, %s)", op, l.TypeName(), r.TypeName())
}

// builtinBinaryOp handles the primitive operator table. done=false means
// the pair is not built in and dispatch should fall through to overloads.
func (e *Engine) builtinBinaryOp(op string, l, r value.Value, pos ast.Position) (value.Value, bool) {
	// Equality is total: any two values compare, differing types are
	// simply unequal.
	switch op {
	case "==":
		return value.FromBool(value.Equal(l, r)), true
	case "!=":
		return value.FromBool(!value.Equal(l, r)), true
	case "in":
		return e.containsOp(l, r, pos), true
	}

	switch lv := l.(type) {
	case *value.Int:
		switch rv := r.(type) {
		case *value.Int:
			return intBinaryOp(op, lv.Value, rv.Value, pos)
		case *value.Float:
			return floatBinaryOp(op, float64(lv.Value), rv.Value, pos)
		}
	case *value.Float:
		switch rv := r.(type) {
		case *value.Int:
			return floatBinaryOp(op, lv.Value, float64(rv.Value), pos)
		case *value.Float:
			return floatBinaryOp(op, lv.Value, rv.Value, pos)
		}
	case *value.String:
		switch rv := r.(type) {
		case *value.String:
			return e.stringBinaryOp(op, lv.Value, rv.Value, pos)
		case *value.Char:
			if op == "+" {
				return e.stringConcat(lv.Value, string(rv.Value), pos)
			}
		}
	case *value.Char:
		switch rv := r.(type) {
		case *value.Char:
			return charBinaryOp(op, lv.Value, rv.Value)
		case *value.String:
			if op == "+" {
				return e.stringConcat(string(lv.Value), rv.Value, pos)
			}
		}
	case *value.Bool:
		if rv, ok := r.(*value.Bool); ok {
			switch op {
			case "&":
				return value.FromBool(lv.Value && rv.Value), true
			case "|":
				return value.FromBool(lv.Value || rv.Value), true
			case "^":
				return value.FromBool(lv.Value != rv.Value), true
			}
		}
	case *value.Array:
		if rv, ok := r.(*value.Array); ok && op == "+" {
			elems := make([]value.Value, 0, len(lv.Elems)+len(rv.Elems))
			elems = append(elems, lv.Elems...)
			elems = append(elems, rv.Elems...)
			out := &value.Array{Elems: elems}
			if err := e.checkDataSize(out, pos); err != nil {
				return err, true
			}
			return out, true
		}
	case *value.Bytes:
		if rv, ok := r.(*value.Bytes); ok && op == "+" {
			data := make([]byte, 0, len(lv.Data)+len(rv.Data))
			data = append(data, lv.Data...)
			data = append(data, rv.Data...)
			out := &value.Bytes{Data: data}
			if err := e.checkDataSize(out, pos); err != nil {
				return err, true
			}
			return out, true
		}
	}
	return nil, false
}

func intBinaryOp(op string, a, b int64, pos ast.Position) (value.Value, bool) {
	switch op {
	case "+":
		return &value.Int{Value: a + b}, true
	case "-":
		return &value.Int{Value: a - b}, true
	case "*":
		return &value.Int{Value: a * b}, true
	case "/":
		if b == 0 {
			return newError(pos, "division by zero"), true
		}
		return &value.Int{Value: a / b}, true
	case "%":
		if b == 0 {
			return newError(pos, "modulo by zero"), true
		}
		return &value.Int{Value: a % b}, true
	case "**":
		return &value.Int{Value: intPow(a, b)}, true
	case "<<":
		if b < 0 || b > 63 {
			return &value.Int{Value: 0}, true
		}
		return &value.Int{Value: a << uint(b)}, true
	case ">>":
		if b < 0 || b > 63 {
			return &value.Int{Value: 0}, true
		}
		return &value.Int{Value: a >> uint(b)}, true
	case "&":
		return &value.Int{Value: a & b}, true
	case "|":
		return &value.Int{Value: a | b}, true
	case "^":
		return &value.Int{Value: a ^ b}, true
	case "<":
		return value.FromBool(a < b), true
	case "<=":
		return value.FromBool(a <= b), true
	case ">":
		return value.FromBool(a > b), true
	case ">=":
		return value.FromBool(a >= b), true
	}
	return nil, false
}

func intPow(a, b int64) int64 {
	if b < 0 {
		return 0
	}
	result := int64(1)
	for ; b > 0; b-- {
		result *= a
	}
	return result
}

func floatBinaryOp(op string, a, b float64, pos ast.Position) (value.Value, bool) {
	switch op {
	case "+":
		return &value.Float{Value: a + b}, true
	case "-":
		return &value.Float{Value: a - b}, true
	case "*":
		return &value.Float{Value: a * b}, true
	case "/":
		return &value.Float{Value: a / b}, true
	case "%":
		return &value.Float{Value: math.Mod(a, b)}, true
	case "**":
		return &value.Float{Value: math.Pow(a, b)}, true
	case "<":
		return value.FromBool(a < b), true
	case "<=":
		return value.FromBool(a <= b), true
	case ">":
		return value.FromBool(a > b), true
	case ">=":
		return value.FromBool(a >= b), true
	}
	return nil, false
}

func (e *Engine) stringBinaryOp(op string, a, b string, pos ast.Position) (value.Value, bool) {
	switch op {
	case "+":
		return e.stringConcat(a, b, pos)
	case "<":
		return value.FromBool(a < b), true
	case "<=":
		return value.FromBool(a <= b), true
	case ">":
		return value.FromBool(a > b), true
	case ">=":
		return value.FromBool(a >= b), true
	}
	return nil, false
}

func (e *Engine) stringConcat(a, b string, pos ast.Position) (value.Value, bool) {
	if err := e.checkStringSize(len(a)+len(b), pos); err != nil {
		return err, true
	}
	return &value.String{Value: a + b}, true
}

func charBinaryOp(op string, a, b rune) (value.Value, bool) {
	switch op {
	case "+":
		return &value.String{Value: string(a) + string(b)}, true
	case "<":
		return value.FromBool(a < b), true
	case "<=":
		return value.FromBool(a <= b), true
	case ">":
		return value.FromBool(a > b), true
	case ">=":
		return value.FromBool(a >= b), true
	}
	return nil, false
}

// containsOp implements membership: key in map, element in array,
// substring or char in string.
func (e *Engine) containsOp(needle, haystack value.Value, pos ast.Position) value.Value {
	switch h := haystack.(type) {
	case *value.Map:
		key, ok := needle.(*value.String)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "object map membership requires a string key, got %s", needle.TypeName())
		}
		_, found := h.Pairs[key.Value]
		return value.FromBool(found)
	case *value.Array:
		for _, el := range h.Elems {
			if value.Equal(needle, el) {
				return value.TRUE
			}
		}
		return value.FALSE
	case *value.String:
		switch n := needle.(type) {
		case *value.String:
			return value.FromBool(strings.Contains(h.Value, n.Value))
		case *value.Char:
			return value.FromBool(strings.ContainsRune(h.Value, n.Value))
		}
		return newErrorKind(ErrMismatchedTypes, pos, "string membership requires a string or char, got %s", needle.TypeName())
	}
	return newErrorKind(ErrMismatchedTypes, pos, "type %s does not support membership", haystack.TypeName())
}

// evalUnaryExpr evaluates a prefix operator: built-ins for the numeric
// and boolean cases, then registered single-argument overloads.
func (e *Engine) evalUnaryExpr(ctx *evalCtx, node *ast.UnaryExpr) value.Value {
	operand := e.evalExpr(ctx, node.Operand)
	if isAbort(operand) {
		return operand
	}
	flat := value.Flatten(operand)

	switch node.Op {
	case "-":
		switch v := flat.(type) {
		case *value.Int:
			return &value.Int{Value: -v.Value}
		case *value.Float:
			return &value.Float{Value: -v.Value}
		}
	case "+":
		switch flat.(type) {
		case *value.Int, *value.Float:
			return flat
		}
	case "!":
		if v, ok := flat.(*value.Bool); ok {
			return value.FromBool(!v.Value)
		}
	}

	args := []value.Value{flat}
	entry, rerr := e.resolveFn(ctx, node.Op, nil, args, node.Pos())
	if rerr != nil {
		return rerr
	}
	if entry != nil && entry.fn != nil {
		return e.execFn(ctx, entry, node.Op, nil, args, node.Pos())
	}
	return newErrorKind(ErrFunctionNotFound, node.Pos(), "function not found: %s (%s)", node.Op, flat.TypeName())
}
