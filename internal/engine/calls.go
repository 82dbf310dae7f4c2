package engine

import (
	"strings"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/config"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/scope"
	"github.com/funvibe/runic/internal/value"
)

// argTypeNames renders the argument type signature used for full-hash
// resolution.
func argTypeNames(args []value.Value) []string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = value.Flatten(a).TypeName()
	}
	return types
}

func fnSignature(name string, args []value.Value) string {
	return name + " (" + strings.Join(argTypeNames(args), ", ") + ")"
}

// resolveFn locates the function entry for a call site. Unqualified
// resolution searches the script lib stack innermost-first, then the
// engine's global modules in registration order, then the re-exported
// (global) functions of imported modules newest-first. The result,
// including a definitive not-found, is memoized per run on the second
// encounter of the same hash.
func (e *Engine) resolveFn(ctx *evalCtx, name string, namespace []string, args []value.Value, pos ast.Position) (*fnResolutionEntry, *RuntimeError) {
	types := argTypeNames(args)

	if len(namespace) > 0 {
		return e.resolveQualifiedFn(ctx, name, namespace, types, len(args), pos)
	}

	cache := ctx.caches.fnResolution()
	hash := module.FullHash(name, types)
	if entry, ok := cache.lookup(hash); ok {
		return entry, nil
	}

	entry := e.searchFn(ctx, name, types, len(args))
	cache.record(hash, entry)
	return entry, nil
}

func (e *Engine) searchFn(ctx *evalCtx, name string, types []string, arity int) *fnResolutionEntry {
	// Script lib stack, innermost first.
	for i := len(ctx.state.libs) - 1; i >= 0; i-- {
		lib := ctx.state.libs[i]
		if fn, ok := lib.LookupFn(name, types); ok && fn.ParamCount == arity {
			return &fnResolutionEntry{fn: fn, source: lib.ID()}
		}
		if fn, ok := lib.LookupFnByArity(name, arity); ok {
			return &fnResolutionEntry{fn: fn, source: lib.ID()}
		}
	}

	// Engine global modules, registration order.
	for _, m := range e.globalModules {
		if fn, ok := m.LookupFn(name, types); ok {
			return &fnResolutionEntry{fn: fn, source: m.ID()}
		}
		if fn, ok := m.LookupFnByArity(name, arity); ok {
			return &fnResolutionEntry{fn: fn, source: m.ID()}
		}
	}

	// Re-exported functions of imported modules, newest import first.
	var found *fnResolutionEntry
	ctx.state.forEachImport(func(alias string, m *module.Module) bool {
		if fn, ok := m.LookupFn(name, types); ok && fn.Access == module.AccessGlobal {
			found = &fnResolutionEntry{fn: fn, source: m.ID()}
			return false
		}
		if fn, ok := m.LookupFnByArity(name, arity); ok && fn.Access == module.AccessGlobal {
			found = &fnResolutionEntry{fn: fn, source: m.ID()}
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return &fnResolutionEntry{} // definitive not-found
}

// resolveScriptMethod finds a script definition for a method-style call.
// Script functions bind the receiver as `this`, so they match at
// receiver-excluded arity. Cached under the base hash of that arity,
// disjoint from the full-signature hashes of plain calls.
func (e *Engine) resolveScriptMethod(ctx *evalCtx, name string, arity int) *fnResolutionEntry {
	cache := ctx.caches.fnResolution()
	hash := module.BaseHash(name, arity)
	if entry, ok := cache.lookup(hash); ok {
		return entry
	}
	entry := e.searchScriptFn(ctx, name, arity)
	cache.record(hash, entry)
	return entry
}

func (e *Engine) searchScriptFn(ctx *evalCtx, name string, arity int) *fnResolutionEntry {
	for i := len(ctx.state.libs) - 1; i >= 0; i-- {
		lib := ctx.state.libs[i]
		if fn, ok := lib.LookupFnByArity(name, arity); ok && fn.IsScript() {
			return &fnResolutionEntry{fn: fn, source: lib.ID()}
		}
	}
	for _, m := range e.globalModules {
		if fn, ok := m.LookupFnByArity(name, arity); ok && fn.IsScript() {
			return &fnResolutionEntry{fn: fn, source: m.ID()}
		}
	}
	var found *fnResolutionEntry
	ctx.state.forEachImport(func(alias string, m *module.Module) bool {
		if fn, ok := m.LookupFnByArity(name, arity); ok && fn.IsScript() && fn.Access == module.AccessGlobal {
			found = &fnResolutionEntry{fn: fn, source: m.ID()}
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return &fnResolutionEntry{}
}

func (e *Engine) resolveQualifiedFn(ctx *evalCtx, name string, namespace []string, types []string, arity int, pos ast.Position) (*fnResolutionEntry, *RuntimeError) {
	cache := ctx.caches.fnResolution()
	hash := module.QualifiedFullHash(namespace, name, types)
	if entry, ok := cache.lookup(hash); ok {
		return entry, nil
	}

	// global:: searches the re-exported functions of all imports.
	if len(namespace) == 1 && namespace[0] == config.GlobalNamespace {
		entry := &fnResolutionEntry{}
		ctx.state.forEachImport(func(alias string, m *module.Module) bool {
			if fn, ok := m.LookupFn(name, types); ok && fn.Access == module.AccessGlobal {
				entry = &fnResolutionEntry{fn: fn, source: m.ID()}
				return false
			}
			if fn, ok := m.LookupFnByArity(name, arity); ok && fn.Access == module.AccessGlobal {
				entry = &fnResolutionEntry{fn: fn, source: m.ID()}
				return false
			}
			return true
		})
		cache.record(hash, entry)
		return entry, nil
	}

	mod, ok := ctx.state.FindImport(namespace[0])
	if !ok {
		return nil, newErrorKind(ErrModuleNotFound, pos, "module not found: %s", namespace[0])
	}
	entry := &fnResolutionEntry{}
	if fn, ok := mod.QualifiedFn(namespace[1:], name, types); ok {
		entry = &fnResolutionEntry{fn: fn, source: mod.ID()}
	}
	cache.record(hash, entry)
	return entry, nil
}

// ensureNoDataRace rejects a mutating method call whose receiver cell is
// aliased by a later argument. Pure methods are exempt. The receiver cell
// comes from the method target when there is one, since the target
// flattens shared values on read.
func ensureNoDataRace(fn *module.Func, cell *value.Cell, args []value.Value, pos ast.Position) *RuntimeError {
	if fn.Pure || len(args) < 2 {
		return nil
	}
	if cell == nil {
		if recv, ok := args[0].(*value.Shared); ok {
			cell = recv.Cell
		}
	}
	if cell == nil {
		return nil
	}
	for _, a := range args[1:] {
		if s, ok := a.(*value.Shared); ok && s.Cell == cell {
			return newErrorKind(ErrDataRace, pos, "data race detected: argument aliases the mutated receiver")
		}
	}
	return nil
}

// execFn invokes a resolved entry. A non-nil target marks a method-style
// call: args[0] is the receiver and is written back through the target
// afterwards (the only argument a caller may observe mutated).
func (e *Engine) execFn(ctx *evalCtx, entry *fnResolutionEntry, name string, target *Target, args []value.Value, pos ast.Position) value.Value {
	fn := entry.fn
	switch fn.Kind {
	case module.NativeValueKind:
		nctx := e.nativeContext(ctx, name, pos)
		result, err := fn.Native(nctx, args)
		if err != nil {
			return fromGoError(err, pos)
		}
		if result == nil {
			return value.UnitVal
		}
		if serr := e.checkDataSize(result, pos); serr != nil {
			return serr
		}
		return result

	case module.NativeMethodKind:
		var cell *value.Cell
		if target != nil {
			cell = target.SharedCell()
		}
		if err := ensureNoDataRace(fn, cell, args, pos); err != nil {
			return err
		}
		nctx := e.nativeContext(ctx, name, pos)
		result, err := fn.Method(nctx, args)
		if err != nil {
			return fromGoError(err, pos)
		}
		// The receiver may have grown; check it before it writes back.
		if len(args) > 0 {
			if serr := e.checkDataSize(args[0], pos); serr != nil {
				return serr
			}
		}
		if target != nil && target.IsMutable() && len(args) > 0 {
			if serr := target.SetValue(value.Flatten(args[0]), pos); serr != nil {
				return serr
			}
		}
		if result == nil {
			return value.UnitVal
		}
		if serr := e.checkDataSize(result, pos); serr != nil {
			return serr
		}
		return result

	case module.PluginTrampolineKind:
		nctx := e.nativeContext(ctx, name, pos)
		result, err := fn.Plugin(nctx, fn, args)
		if err != nil {
			return fromGoError(err, pos)
		}
		if result == nil {
			return value.UnitVal
		}
		if serr := e.checkDataSize(result, pos); serr != nil {
			return serr
		}
		return result

	case module.TypeIteratorKind:
		return newError(pos, "type iterator %s cannot be called directly", name)

	case module.ScriptDefinedKind:
		if target != nil {
			// Method-style: args[0] is the receiver, bound as `this` by
			// reference; the rest bind positionally.
			this := target.Value()
			result := e.callScriptFnWithScope(ctx, scope.New(), fn.Script, &this, args[1:], entry.source, pos, true)
			if isError(result) {
				return result
			}
			if serr := target.SetValue(value.Flatten(this), pos); serr != nil {
				return serr
			}
			return result
		}
		return e.callScriptFnWithScope(ctx, scope.New(), fn.Script, nil, args, entry.source, pos, true)
	}
	return newError(pos, "unknown function kind for %s", name)
}

// callScriptFnWithScope executes a script function body. Depth at the
// limit succeeds; one past it fails with a stack overflow. Non-fatal
// errors gain a stack frame; fatal errors pass through unwrapped.
func (e *Engine) callScriptFnWithScope(ctx *evalCtx, s *scope.Scope, def *ast.FnDef, this *value.Value, args []value.Value, source string, pos ast.Position, rewindScope bool) value.Value {
	if max := e.limits.MaxCallDepth; max > 0 && ctx.state.Level >= max {
		return newErrorKind(ErrStackOverflow, pos, "call stack depth exceeds limit %d", max)
	}
	if len(args) != len(def.Params) {
		return newErrorKind(ErrFunctionNotFound, pos, "function not found: %s/%d", def.Name, len(args))
	}

	mark := s.Len()
	for i, param := range def.Params {
		s.Push(param, args[i])
	}

	state := ctx.state
	state.pushFrame(CallFrame{FnName: def.Name, Args: args, Source: source, Position: pos})
	prevSource := state.Source
	if source != "" {
		state.Source = source
	}
	state.Level++

	callCtx := ctx.withScope(s).withThis(this)
	result := e.evalStatements(callCtx, def.Body.Statements)
	result = e.debuggerFunctionExit(callCtx, def, pos, result)

	state.Level--
	state.Source = prevSource
	state.popFrame()

	if rewindScope {
		s.Rewind(mark)
	} else {
		// Keep locals the body pushed; strip only the parameter bindings.
		s.RemoveRange(mark, len(def.Params))
	}

	switch r := result.(type) {
	case *returnSignal:
		return r.value
	case *breakSignal, *continueSignal:
		return newError(def.Position, "break or continue outside of a loop in function %s", def.Name)
	case *RuntimeError:
		if r.IsFatal() {
			return r
		}
		r.Frames = append(r.Frames, CallFrame{FnName: def.Name, Source: source, Position: pos})
		return r
	}
	return result
}

// callFnPtr calls through a function pointer: curried values prepend to
// the call arguments and count toward arity.
func (e *Engine) callFnPtr(ctx *evalCtx, fp *value.FnPtr, this *value.Value, args []value.Value, pos ast.Position) value.Value {
	full := make([]value.Value, 0, len(fp.Curry)+len(args))
	full = append(full, fp.Curry...)
	full = append(full, args...)

	entry, rerr := e.resolveFn(ctx, fp.Name, nil, full, pos)
	if rerr != nil {
		return rerr
	}
	if entry == nil || entry.fn == nil {
		return newErrorKind(ErrFunctionNotFound, pos, "function not found: %s", fnSignature(fp.Name, full))
	}
	if entry.fn.IsScript() && this != nil {
		return e.callScriptFnWithScope(ctx, scope.New(), entry.fn.Script, this, full, entry.source, pos, true)
	}
	return e.execFn(ctx, entry, fp.Name, nil, full, pos)
}

// evalFnCall dispatches a call expression. A scope variable holding a
// function pointer shadows functions of the same name; method calls
// resolve their receiver as a write-back target.
func (e *Engine) evalFnCall(ctx *evalCtx, node *ast.FnCall) value.Value {
	if node.Method {
		return e.evalMethodCall(ctx, node)
	}

	// Scope fn-ptr binding gets first crack at unqualified names.
	if len(node.Namespace) == 0 {
		if idx := ctx.scope.Search(node.Name); idx >= 0 {
			if fp, ok := value.Flatten(ctx.scope.GetByIndex(idx)).(*value.FnPtr); ok {
				args, abort := e.evalArgs(ctx, node.Args)
				if abort != nil {
					return abort
				}
				return e.callFnPtr(ctx, fp, nil, args, node.Position)
			}
		}
	}

	args, abort := e.evalArgs(ctx, node.Args)
	if abort != nil {
		return abort
	}
	entry, rerr := e.resolveFn(ctx, node.Name, node.Namespace, args, node.Position)
	if rerr != nil {
		return rerr
	}
	if entry == nil || entry.fn == nil {
		name := node.Name
		if len(node.Namespace) > 0 {
			name = qualifiedName(node.Namespace, node.Name)
		}
		return newErrorKind(ErrFunctionNotFound, node.Position, "function not found: %s", fnSignature(name, args))
	}
	return e.execFn(ctx, entry, node.Name, nil, args, node.Position)
}

// evalMethodCall evaluates receiver.method(args): the receiver resolves
// as a target so mutations write back through it.
func (e *Engine) evalMethodCall(ctx *evalCtx, node *ast.FnCall) value.Value {
	recvTarget, terr := e.evalTarget(ctx, node.Args[0])
	if terr != nil {
		return terr
	}
	rest, abort := e.evalArgs(ctx, node.Args[1:])
	if abort != nil {
		return abort
	}

	recv := recvTarget.Value()
	if fp, ok := value.Flatten(recv).(*value.FnPtr); ok && node.Name == "call" {
		return e.callFnPtr(ctx, fp, nil, rest, node.Position)
	}

	args := append([]value.Value{recv}, rest...)
	entry, rerr := e.resolveFn(ctx, node.Name, node.Namespace, args, node.Position)
	if rerr != nil {
		return rerr
	}
	// Script definitions bind the receiver as `this`, not as a parameter,
	// so they dispatch at receiver-excluded arity.
	if len(node.Namespace) == 0 && (entry == nil || entry.fn == nil || entry.fn.IsScript()) {
		if scriptEntry := e.resolveScriptMethod(ctx, node.Name, len(args)-1); scriptEntry.fn != nil {
			entry = scriptEntry
		}
	}
	if entry == nil || entry.fn == nil {
		return newErrorKind(ErrFunctionNotFound, node.Position, "function not found: %s", fnSignature(node.Name, args))
	}
	return e.execFn(ctx, entry, node.Name, recvTarget, args, node.Position)
}

func (e *Engine) evalArgs(ctx *evalCtx, exprs []ast.Expression) ([]value.Value, value.Value) {
	args := make([]value.Value, 0, len(exprs))
	for _, ex := range exprs {
		v := e.evalExpr(ctx, ex)
		if isAbort(v) {
			return nil, v
		}
		args = append(args, v)
	}
	return args, nil
}
