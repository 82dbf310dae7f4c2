package engine

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/config"
	"github.com/funvibe/runic/internal/value"
)

// Property accessor function names follow the get$/set$ convention so
// registered host-type accessors live in the ordinary function table.
const (
	propertyGetPrefix = "get$"
	propertySetPrefix = "set$"
)

// evalIdent resolves a variable access. The variable resolver gets first
// refusal; qualified names resolve read-only through the import chain;
// unqualified names use the front end's cached scope offset when it is
// still trustworthy, falling back to a name search.
func (e *Engine) evalIdent(ctx *evalCtx, node *ast.Ident) value.Value {
	if len(node.Namespace) > 0 {
		return e.evalQualifiedIdent(ctx, node)
	}

	if e.varResolver != nil {
		before := ctx.scope.Len()
		ec := &EvalContext{engine: e, ctx: ctx, position: node.Position}
		v, ok, err := e.varResolver(node.Name, ec)
		if ctx.scope.Len() != before {
			// The resolver changed the scope shape: cached offsets are
			// stale for the rest of the run.
			ctx.state.alwaysSearchScope = true
		}
		if err != nil {
			return fromGoError(err, node.Position)
		}
		if ok {
			if v == nil {
				v = value.UnitVal
			}
			return v
		}
	}

	idx := e.scopeIndex(ctx, node)
	if idx < 0 {
		return newErrorKind(ErrVariableNotFound, node.Position, "variable not found: %s", node.Name)
	}
	return ctx.scope.GetByIndex(idx).Clone()
}

// scopeIndex locates the scope slot for an identifier, honoring the
// cached offset only while it still names the same variable.
func (e *Engine) scopeIndex(ctx *evalCtx, node *ast.Ident) int {
	if !ctx.state.alwaysSearchScope && node.Slot >= 0 && node.Slot < ctx.scope.Len() &&
		ctx.scope.NameByIndex(node.Slot) == node.Name {
		return node.Slot
	}
	return ctx.scope.Search(node.Name)
}

func (e *Engine) evalQualifiedIdent(ctx *evalCtx, node *ast.Ident) value.Value {
	// global:: reads the run's constants cache, not an imported module.
	if len(node.Namespace) == 1 && node.Namespace[0] == config.GlobalNamespace {
		if v, ok := ctx.state.GlobalConstant(node.Name); ok {
			return v.Clone()
		}
		return newErrorKind(ErrVariableNotFound, node.Position, "variable not found: %s::%s", config.GlobalNamespace, node.Name)
	}

	mod, ok := ctx.state.FindImport(node.Namespace[0])
	if !ok {
		return newErrorKind(ErrModuleNotFound, node.Position, "module not found: %s", node.Namespace[0])
	}
	v, ok := mod.QualifiedVar(node.Namespace[1:], node.Name)
	if !ok {
		return newErrorKind(ErrVariableNotFound, node.Position, "variable not found: %s", qualifiedName(node.Namespace, node.Name))
	}
	return v.Clone()
}

func qualifiedName(path []string, name string) string {
	out := ""
	for _, p := range path {
		out += p + "::"
	}
	return out + name
}

// evalIndexExpr reads container[index]. Negative indices count from the
// end and clamp; integers additionally support bit and bit-range
// indexing; unknown container types fall back to a registered indexer.
func (e *Engine) evalIndexExpr(ctx *evalCtx, node *ast.IndexExpr) value.Value {
	left := e.evalExpr(ctx, node.Left)
	if isAbort(left) {
		return left
	}
	if node.NullSafe && value.IsUnit(left) {
		return value.UnitVal
	}
	idx := e.evalExpr(ctx, node.Index)
	if isAbort(idx) {
		return idx
	}
	return e.indexRead(ctx, left, idx, node.Pos())
}

func (e *Engine) indexRead(ctx *evalCtx, container, idx value.Value, pos ast.Position) value.Value {
	flat := value.Flatten(container)
	switch c := flat.(type) {
	case *value.Array:
		i, err := intIndex(idx, pos)
		if err != nil {
			return err
		}
		if len(c.Elems) == 0 {
			return newError(pos, "array index %d out of bounds (empty array)", i)
		}
		return c.Get(int(i)).Clone()
	case *value.Map:
		key, ok := value.Flatten(idx).(*value.String)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "object map index must be a string, got %s", idx.TypeName())
		}
		if v, ok := c.Pairs[key.Value]; ok {
			return v.Clone()
		}
		return value.UnitVal
	case *value.String:
		i, err := intIndex(idx, pos)
		if err != nil {
			return err
		}
		runes := []rune(c.Value)
		if len(runes) == 0 {
			return newError(pos, "character index %d out of bounds (empty string)", i)
		}
		return &value.Char{Value: runes[value.ClampIndex(int(i), len(runes))]}
	case *value.Bytes:
		i, err := intIndex(idx, pos)
		if err != nil {
			return err
		}
		if len(c.Data) == 0 {
			return newError(pos, "byte index %d out of bounds (empty byte array)", i)
		}
		return &value.Int{Value: int64(c.Data[value.ClampIndex(int(i), len(c.Data))])}
	case *value.Int:
		base := targetFromValue(flat)
		t, err := e.intBitAccess(base, idx, pos)
		if err != nil {
			return err
		}
		return t.Value()
	}

	// Registered indexer getter.
	args := []value.Value{flat, value.Flatten(idx)}
	entry, rerr := e.resolveFn(ctx, config.IndexerGetName, nil, args, pos)
	if rerr != nil {
		return rerr
	}
	if entry != nil && entry.fn != nil {
		return e.execFn(ctx, entry, config.IndexerGetName, nil, args, pos)
	}
	return newErrorKind(ErrMismatchedTypes, pos, "type %s cannot be indexed", container.TypeName())
}

// intBitAccess builds the synthesized bit or bit-range target addressing
// into an integer, depending on the index shape.
func (e *Engine) intBitAccess(base *Target, idx value.Value, pos ast.Position) (*Target, *RuntimeError) {
	switch i := value.Flatten(idx).(type) {
	case *value.Int:
		return bitTarget(base, int(i.Value), pos)
	case *value.Host:
		if r, ok := i.Value.(rangeValue); ok {
			start := int(r.from)
			length := int(r.to - r.from)
			if r.inclusive {
				length++
			}
			return bitRangeTarget(base, start, length, pos)
		}
	}
	return nil, newErrorKind(ErrMismatchedTypes, pos, "bit index must be an integer or a range, got %s", idx.TypeName())
}

func intIndex(idx value.Value, pos ast.Position) (int64, *RuntimeError) {
	i, ok := value.Flatten(idx).(*value.Int)
	if !ok {
		return 0, newErrorKind(ErrMismatchedTypes, pos, "index must be an integer, got %s", idx.TypeName())
	}
	return i.Value, nil
}

// evalDotExpr reads a property: a direct map entry, or a registered
// get$<field> accessor for any other type.
func (e *Engine) evalDotExpr(ctx *evalCtx, node *ast.DotExpr) value.Value {
	left := e.evalExpr(ctx, node.Left)
	if isAbort(left) {
		return left
	}
	if node.NullSafe && value.IsUnit(left) {
		return value.UnitVal
	}
	flat := value.Flatten(left)
	if m, ok := flat.(*value.Map); ok {
		if v, ok := m.Pairs[node.Field]; ok {
			return v.Clone()
		}
		return value.UnitVal
	}

	getter := propertyGetPrefix + node.Field
	args := []value.Value{flat}
	entry, rerr := e.resolveFn(ctx, getter, nil, args, node.Pos())
	if rerr != nil {
		return rerr
	}
	if entry == nil || entry.fn == nil {
		return newErrorKind(ErrFunctionNotFound, node.Pos(), "property not found: %s on %s", node.Field, left.TypeName())
	}
	return e.execFn(ctx, entry, getter, nil, args, node.Pos())
}

// evalTarget resolves an assignable expression into a Target. Chained
// access recurses so the write-back of a synthesized sub-value reaches
// the outermost container.
func (e *Engine) evalTarget(ctx *evalCtx, node ast.Expression) (*Target, *RuntimeError) {
	switch node := node.(type) {
	case *ast.Ident:
		if len(node.Namespace) > 0 {
			return nil, newErrorKind(ErrAssignToConstant, node.Position, "cannot assign to module variable %s", qualifiedName(node.Namespace, node.Name))
		}
		idx := e.scopeIndex(ctx, node)
		if idx < 0 {
			return nil, newErrorKind(ErrVariableNotFound, node.Position, "variable not found: %s", node.Name)
		}
		if ctx.scope.IsConstant(idx) {
			return nil, newErrorKind(ErrAssignToConstant, node.Position, "cannot assign to constant %s", node.Name)
		}
		return targetFromSlot(ctx.scope.ValuePtr(idx)), nil

	case *ast.ThisExpr:
		if ctx.this == nil {
			return nil, newErrorKind(ErrUnboundThis, node.Position, "'this' is not bound in this context")
		}
		return targetFromSlot(ctx.this), nil

	case *ast.IndexExpr:
		base, err := e.evalTarget(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		idx := e.evalExpr(ctx, node.Index)
		if abort, ok := idx.(*RuntimeError); ok {
			return nil, abort
		}
		return e.indexTarget(ctx, base, idx, node.Pos())

	case *ast.DotExpr:
		base, err := e.evalTarget(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		return e.propertyTarget(ctx, base, node.Field, node.Pos())
	}

	// Any other expression yields a temporary: mutations vanish with it
	// unless the value is pointer-shaped or shared.
	v := e.evalExpr(ctx, node)
	if abort, ok := v.(*RuntimeError); ok {
		return nil, abort
	}
	if isControl(v) {
		return nil, newError(node.Pos(), "control flow in assignment target")
	}
	return targetFromValue(v), nil
}

// indexTarget builds the write-back target for container[index].
func (e *Engine) indexTarget(ctx *evalCtx, base *Target, idx value.Value, pos ast.Position) (*Target, *RuntimeError) {
	flat := value.Flatten(base.Value())
	switch c := flat.(type) {
	case *value.Array:
		i, err := intIndex(idx, pos)
		if err != nil {
			return nil, err
		}
		if len(c.Elems) == 0 {
			return nil, newError(pos, "array index %d out of bounds (empty array)", i)
		}
		// Arrays are pointer-shaped: the element slot is addressable in
		// place and stays valid for the single assignment.
		return targetFromSlot(&c.Elems[value.ClampIndex(int(i), len(c.Elems))]), nil
	case *value.Map:
		key, ok := value.Flatten(idx).(*value.String)
		if !ok {
			return nil, newErrorKind(ErrMismatchedTypes, pos, "object map index must be a string, got %s", idx.TypeName())
		}
		return mapEntryTarget(c, key.Value), nil
	case *value.String:
		i, err := intIndex(idx, pos)
		if err != nil {
			return nil, err
		}
		return stringCharTarget(base, int(i), pos)
	case *value.Bytes:
		i, err := intIndex(idx, pos)
		if err != nil {
			return nil, err
		}
		return blobByteTarget(base, int(i), pos)
	case *value.Int:
		return e.intBitAccess(base, idx, pos)
	}

	// Registered indexer pair: reads go through index$get now, writes
	// through index$set at assignment time.
	recv := flat
	index := value.Flatten(idx)
	current := value.Value(value.UnitVal)
	getArgs := []value.Value{recv, index}
	if entry, rerr := e.resolveFn(ctx, config.IndexerGetName, nil, getArgs, pos); rerr != nil {
		return nil, rerr
	} else if entry != nil && entry.fn != nil {
		v := e.execFn(ctx, entry, config.IndexerGetName, nil, getArgs, pos)
		if abort, ok := v.(*RuntimeError); ok {
			return nil, abort
		}
		current = v
	}
	write := func(v value.Value, wpos ast.Position) *RuntimeError {
		setArgs := []value.Value{recv, index, v}
		entry, rerr := e.resolveFn(ctx, config.IndexerSetName, nil, setArgs, wpos)
		if rerr != nil {
			return rerr
		}
		if entry == nil || entry.fn == nil {
			return newErrorKind(ErrFunctionNotFound, wpos, "type %s has no indexer setter", recv.TypeName())
		}
		result := e.execFn(ctx, entry, config.IndexerSetName, nil, setArgs, wpos)
		if abort, ok := result.(*RuntimeError); ok {
			return abort
		}
		return nil
	}
	return customTarget(current, write), nil
}

// propertyTarget builds the write-back target for container.field.
func (e *Engine) propertyTarget(ctx *evalCtx, base *Target, field string, pos ast.Position) (*Target, *RuntimeError) {
	flat := value.Flatten(base.Value())
	if m, ok := flat.(*value.Map); ok {
		return mapEntryTarget(m, field), nil
	}

	getter := propertyGetPrefix + field
	setter := propertySetPrefix + field
	recv := flat
	current := value.Value(value.UnitVal)
	getArgs := []value.Value{recv}
	if entry, rerr := e.resolveFn(ctx, getter, nil, getArgs, pos); rerr != nil {
		return nil, rerr
	} else if entry != nil && entry.fn != nil {
		v := e.execFn(ctx, entry, getter, nil, getArgs, pos)
		if abort, ok := v.(*RuntimeError); ok {
			return nil, abort
		}
		current = v
	}
	write := func(v value.Value, wpos ast.Position) *RuntimeError {
		setArgs := []value.Value{recv, v}
		entry, rerr := e.resolveFn(ctx, setter, nil, setArgs, wpos)
		if rerr != nil {
			return rerr
		}
		if entry == nil || entry.fn == nil {
			return newErrorKind(ErrFunctionNotFound, wpos, "property not found: %s on %s", field, recv.TypeName())
		}
		result := e.execFn(ctx, entry, setter, nil, setArgs, wpos)
		if abort, ok := result.(*RuntimeError); ok {
			return abort
		}
		return nil
	}
	return customTarget(current, write), nil
}
