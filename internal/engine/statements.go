package engine

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// evalStmt evaluates one statement. The operation counter is checked
// before the node (check-before rule) and the debugger hook is offered
// the node at statement granularity.
func (e *Engine) evalStmt(ctx *evalCtx, node ast.Statement) value.Value {
	if err := e.incOperations(ctx.state, node.Pos()); err != nil {
		return err
	}
	if ctx.state.debugger != nil {
		restore, err := e.runDebugger(ctx, node, true)
		if err != nil {
			return err
		}
		if restore != nil {
			defer func() { ctx.state.debugger.status = *restore }()
		}
	}

	switch node := node.(type) {
	case *ast.ExprStatement:
		return e.evalExpr(ctx, node.Expr)
	case *ast.Block:
		return e.evalBlock(ctx, node)
	case *ast.VarDecl:
		return e.evalVarDecl(ctx, node)
	case *ast.Assign:
		return e.evalAssign(ctx, node)
	case *ast.While:
		return e.evalWhile(ctx, node)
	case *ast.Loop:
		return e.evalLoop(ctx, node)
	case *ast.For:
		return e.evalFor(ctx, node)
	case *ast.Return:
		if node.Value == nil {
			return &returnSignal{value: value.UnitVal}
		}
		v := e.evalExpr(ctx, node.Value)
		if isAbort(v) {
			return v
		}
		return &returnSignal{value: v}
	case *ast.Break:
		return breakSig
	case *ast.Continue:
		return continueSig
	case *ast.Import:
		return e.evalImport(ctx, node)
	}
	return newError(node.Pos(), "unknown statement node")
}

// evalBlock runs a block in the current scope, rewinding to the saved
// length on exit.
func (e *Engine) evalBlock(ctx *evalCtx, block *ast.Block) value.Value {
	mark := ctx.scope.Len()
	cachesMark := ctx.caches.len()
	result := e.evalStatements(ctx, block.Statements)
	ctx.scope.Rewind(mark)
	ctx.caches.rewindFnResolution(cachesMark)
	return result
}

func (e *Engine) evalVarDecl(ctx *evalCtx, node *ast.VarDecl) value.Value {
	if e.defVarFilter != nil && !e.defVarFilter(node.Name, node.Constant, ctx.state.Level) {
		return newErrorKind(ErrForbiddenVariable, node.Pos(), "definition of variable %q is forbidden", node.Name)
	}
	v := e.evalExpr(ctx, node.Value)
	if isAbort(v) {
		return v
	}
	if node.Constant {
		ctx.scope.PushConstant(node.Name, v)
		// Top-level constants feed the run's global constants cache.
		if ctx.state.Level == 0 {
			ctx.state.SetGlobalConstant(node.Name, v)
		}
	} else {
		ctx.scope.Push(node.Name, v)
	}
	return value.UnitVal
}

func (e *Engine) evalAssign(ctx *evalCtx, node *ast.Assign) value.Value {
	rhs := e.evalExpr(ctx, node.Value)
	if isAbort(rhs) {
		return rhs
	}

	target, terr := e.evalTarget(ctx, node.Target)
	if terr != nil {
		return terr
	}
	if !target.IsMutable() {
		return newError(node.Pos(), "cannot assign to this expression")
	}

	if node.Op != "=" {
		// Compound assignment desugars to the plain binary operator on
		// the current target value.
		op := node.Op[:len(node.Op)-1]
		current := target.Value()
		combined := e.applyBinaryOp(ctx, op, current, rhs, node.Pos())
		if isAbort(combined) {
			return combined
		}
		rhs = combined
	}

	if err := e.checkDataSize(rhs, node.Pos()); err != nil {
		return err
	}
	if err := target.SetValue(value.Flatten(rhs), node.Pos()); err != nil {
		return err
	}
	return value.UnitVal
}

func (e *Engine) evalWhile(ctx *evalCtx, node *ast.While) value.Value {
	for {
		cond := e.evalExpr(ctx, node.Cond)
		if isAbort(cond) {
			return cond
		}
		b, ok := value.Flatten(cond).(*value.Bool)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, node.Cond.Pos(), "while condition must be bool, got %s", cond.TypeName())
		}
		if !b.Value {
			return value.UnitVal
		}
		if stop, result := e.runLoopBody(ctx, node.Body); stop {
			return result
		}
	}
}

func (e *Engine) evalLoop(ctx *evalCtx, node *ast.Loop) value.Value {
	for {
		if stop, result := e.runLoopBody(ctx, node.Body); stop {
			return result
		}
	}
}

// runLoopBody executes one iteration, consuming the loop signals it owns.
// Break stops the loop; continue starts the next iteration; everything
// else propagates.
func (e *Engine) runLoopBody(ctx *evalCtx, body *ast.Block) (stop bool, result value.Value) {
	v := e.evalBlock(ctx, body)
	switch v.(type) {
	case *breakSignal:
		return true, value.UnitVal
	case *continueSignal:
		return false, nil
	case *RuntimeError, *returnSignal:
		return true, v
	}
	return false, nil
}

func (e *Engine) evalFor(ctx *evalCtx, node *ast.For) value.Value {
	iterable := e.evalExpr(ctx, node.Iterable)
	if isAbort(iterable) {
		return iterable
	}
	next, err := e.iterate(ctx, iterable, node.Iterable.Pos())
	if err != nil {
		return err
	}

	mark := ctx.scope.Len()
	defer ctx.scope.Rewind(mark)

	counterIdx := -1
	if node.CounterName != "" {
		counterIdx = ctx.scope.Push(node.CounterName, &value.Int{Value: 0})
	}
	varIdx := ctx.scope.Push(node.VarName, value.UnitVal)

	for i := 0; ; i++ {
		item, ok := next()
		if !ok {
			return value.UnitVal
		}
		if err := e.incOperations(ctx.state, node.Pos()); err != nil {
			return err
		}
		if counterIdx >= 0 {
			ctx.scope.SetByIndex(counterIdx, &value.Int{Value: int64(i)})
		}
		ctx.scope.SetByIndex(varIdx, item)

		if stop, result := e.runLoopBody(ctx, node.Body); stop {
			return result
		}
	}
}

func (e *Engine) evalImport(ctx *evalCtx, node *ast.Import) value.Value {
	if e.options.DisableModules {
		return newErrorKind(ErrModuleNotFound, node.Pos(), "modules are disabled")
	}
	pathVal := e.evalExpr(ctx, node.Path)
	if isAbort(pathVal) {
		return pathVal
	}
	path, ok := value.Flatten(pathVal).(*value.String)
	if !ok {
		return newErrorKind(ErrMismatchedTypes, node.Path.Pos(), "import path must be a string, got %s", pathVal.TypeName())
	}

	if max := e.limits.MaxModules; max > 0 && ctx.state.numModules >= max {
		return newErrorKind(ErrTooManyModules, node.Pos(), "number of modules exceeds limit %d", max)
	}
	if e.resolver == nil {
		return newErrorKind(ErrModuleNotFound, node.Pos(), "module not found: %s (no module resolver)", path.Value)
	}

	mod, err := e.resolver.Resolve(e, ctx.state.Source, path.Value, node.Pos())
	if err != nil {
		// The engine treats resolver failures opaquely: "not found"
		// becomes module-not-found, anything else "error inside module".
		if errorsIsNotFound(err) {
			return newErrorKind(ErrModuleNotFound, node.Pos(), "module not found: %s", path.Value)
		}
		return newErrorKind(ErrInModule, node.Pos(), "error in module %s: %s", path.Value, err.Error())
	}
	if !mod.Indexed() {
		mod.BuildIndex()
	}

	alias := node.Alias
	if alias == "" {
		alias = lastPathSegment(path.Value)
	}
	ctx.state.PushImport(alias, mod)
	if mod.HasGlobalFns() {
		// Re-exported functions change unqualified resolution from here
		// on; a fresh cache keeps memoized misses from masking them.
		ctx.caches.pushFnResolution()
	}
	return value.UnitVal
}

func lastPathSegment(path string) string {
	last := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' || path[i] == ':' {
			last = i + 1
		}
	}
	return path[last:]
}
