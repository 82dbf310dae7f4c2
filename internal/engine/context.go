package engine

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/scope"
	"github.com/funvibe/runic/internal/value"
)

// EvalContext is the engine's view handed to host callbacks (variable
// resolver, custom syntax, debugger hook). It exposes the live run state
// read-mostly; scope mutations are allowed and detected by the caller.
type EvalContext struct {
	engine   *Engine
	ctx      *evalCtx
	position ast.Position
}

// Engine returns the owning engine.
func (c *EvalContext) Engine() *Engine { return c.engine }

// Position is the position of the node that triggered the callback.
func (c *EvalContext) Position() ast.Position { return c.position }

// Scope is the active scope. Callbacks may read and mutate it.
func (c *EvalContext) Scope() *scope.Scope { return c.ctx.scope }

// This returns the bound receiver, if any.
func (c *EvalContext) This() (value.Value, bool) {
	if c.ctx.this == nil {
		return nil, false
	}
	return *c.ctx.this, true
}

// Source is the source id of the unit currently evaluating.
func (c *EvalContext) Source() string { return c.ctx.state.Source }

// RunID identifies the evaluation run, for correlating diagnostics
// across nested calls and debugger sessions.
func (c *EvalContext) RunID() string { return c.ctx.state.RunID }

// CallLevel is the current function-call nesting level.
func (c *EvalContext) CallLevel() int { return c.ctx.state.Level }

// Tag is the opaque user state threaded through the run.
func (c *EvalContext) Tag() value.Value { return c.ctx.state.Tag }

// SetTag replaces the opaque user state.
func (c *EvalContext) SetTag(v value.Value) { c.ctx.state.Tag = v }

// CallStack returns the active script-call frames, outermost first.
func (c *EvalContext) CallStack() []CallFrame { return c.ctx.state.CallStack() }

// Debugger returns the run's debugger state, nil when no debugger is
// registered.
func (c *EvalContext) Debugger() *DebuggerState { return c.ctx.state.debugger }

// EvalExpression evaluates an expression in the current context. Custom
// syntax handlers use this to evaluate their inputs on demand.
func (c *EvalContext) EvalExpression(expr ast.Expression) (value.Value, error) {
	v := c.engine.evalExpr(c.ctx, expr)
	switch r := v.(type) {
	case *RuntimeError:
		return nil, r
	case *returnSignal:
		return r.value, nil
	}
	if isControl(v) {
		return nil, newError(expr.Pos(), "control flow in custom syntax input")
	}
	return v, nil
}

// Call re-enters the dispatcher by name.
func (c *EvalContext) Call(name string, args ...value.Value) (value.Value, error) {
	n := &nativeContext{engine: c.engine, ctx: c.ctx, fnName: name, pos: c.position}
	return n.Call(name, args...)
}

// nativeContext is the dispatcher re-entry surface given to native
// functions. A fresh resolution cache is pushed for the nested call and
// rewound afterwards: the visible module chain may differ inside.
type nativeContext struct {
	engine *Engine
	ctx    *evalCtx
	fnName string
	pos    ast.Position
}

func (e *Engine) nativeContext(ctx *evalCtx, name string, pos ast.Position) *nativeContext {
	return &nativeContext{engine: e, ctx: ctx, fnName: name, pos: pos}
}

func (n *nativeContext) FnName() string         { return n.fnName }
func (n *nativeContext) Source() string         { return n.ctx.state.Source }
func (n *nativeContext) Position() ast.Position { return n.pos }
func (n *nativeContext) CallLevel() int         { return n.ctx.state.Level }
func (n *nativeContext) Tag() value.Value       { return n.ctx.state.Tag }

func (n *nativeContext) Call(name string, args ...value.Value) (value.Value, error) {
	return n.callImpl(name, nil, args, false)
}

func (n *nativeContext) CallNative(name string, args ...value.Value) (value.Value, error) {
	return n.callImpl(name, nil, args, true)
}

func (n *nativeContext) CallWithThis(name string, this value.Value, args ...value.Value) (value.Value, error) {
	return n.callImpl(name, &this, args, false)
}

func (n *nativeContext) callImpl(name string, this *value.Value, args []value.Value, nativeOnly bool) (value.Value, error) {
	ctx := n.ctx
	mark := ctx.caches.len()
	ctx.caches.pushFnResolution()
	defer ctx.caches.rewindFnResolution(mark)

	lookupArgs := args
	if this != nil {
		lookupArgs = append([]value.Value{*this}, args...)
	}
	entry, rerr := n.engine.resolveFn(ctx, name, nil, lookupArgs, n.pos)
	if rerr != nil {
		return nil, rerr
	}
	if entry == nil || entry.fn == nil || (nativeOnly && entry.fn.IsScript()) {
		return nil, newErrorKind(ErrFunctionNotFound, n.pos, "function not found: %s", fnSignature(name, lookupArgs))
	}

	var result value.Value
	if entry.fn.IsScript() && this != nil {
		result = n.engine.callScriptFnWithScope(ctx, scope.New(), entry.fn.Script, this, args, entry.source, n.pos, true)
	} else {
		var target *Target
		if this != nil {
			target = targetFromValue(*this)
		}
		result = n.engine.execFn(ctx, entry, name, target, lookupArgs, n.pos)
	}
	switch r := result.(type) {
	case *RuntimeError:
		return nil, r
	case *returnSignal:
		return r.value, nil
	}
	if isControl(result) {
		return nil, newError(n.pos, "control flow escaped nested call %s", name)
	}
	return result, nil
}
