// Package engine implements the evaluation core: the tree-walking
// evaluator, function dispatch, resource limiting and the debugger hook.
//
// The engine instance holds only read-mostly configuration (limits,
// callbacks, registered modules). All per-run mutable state lives in a
// GlobalRuntimeState, so independent evaluations may run concurrently on
// one engine; a single evaluation is strictly single-threaded.
package engine

import (
	"errors"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/config"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/scope"
	"github.com/funvibe/runic/internal/value"
)

// ErrNotFound is returned by module resolvers when the import path does
// not exist; the engine converts it to a module-not-found error. Any
// other resolver error surfaces as "error inside module".
var ErrNotFound = errors.New("module not found")

// ModuleResolver turns an import path into a Module. Resolution from
// storage is the host's concern; the engine only drives the protocol.
type ModuleResolver interface {
	Resolve(e *Engine, source string, path string, pos ast.Position) (*module.Module, error)
}

// ASTResolver is the specialized variant that resolves an import path to
// a parsed unit, bypassing module caching entirely. Used when
// precompiling self-contained programs.
type ASTResolver interface {
	ResolveAST(e *Engine, source string, path string, pos ast.Position) (*ast.Program, error)
}

// VarResolverFunc gets first refusal on every scope-variable access. It
// may substitute a value (ok=true), decline (ok=false, nil error), or
// veto the access with an error.
type VarResolverFunc func(name string, ctx *EvalContext) (v value.Value, ok bool, err error)

// DefVarFilterFunc vetoes variable definitions. Returning false forbids
// the let/const statement.
type DefVarFilterFunc func(name string, constant bool, nestLevel int) bool

// CustomSyntaxFunc evaluates a custom-syntax node.
type CustomSyntaxFunc func(ctx *EvalContext, inputs []ast.Expression) (value.Value, error)

// DebuggerInitFunc produces the user state stored on the debugger at the
// start of a run.
type DebuggerInitFunc func() value.Value

// Engine is the evaluation engine. Zero-configuration construction via
// New; every field is optional.
type Engine struct {
	limits  config.Limits
	options config.Options

	// globalModules are searched in registration order for unqualified
	// calls.
	globalModules []*module.Module

	resolver     ModuleResolver
	varResolver  VarResolverFunc
	defVarFilter DefVarFilterFunc
	progress     ProgressFunc
	customSyntax map[string]CustomSyntaxFunc

	debugInit     DebuggerInitFunc
	debugCallback OnDebuggerFunc
}

// New constructs an engine with default limits and all capabilities
// enabled.
func New() *Engine {
	return NewWithOptions(config.Options{})
}

// NewWithOptions constructs an engine with explicit capability flags.
// Absent capabilities are a configuration choice checked here, not a
// code-path difference discovered at call sites.
func NewWithOptions(opts config.Options) *Engine {
	return &Engine{
		limits:       config.DefaultLimits(),
		options:      opts,
		customSyntax: make(map[string]CustomSyntaxFunc),
	}
}

// Limits returns the current resource budget.
func (e *Engine) Limits() config.Limits { return e.limits }

// SetLimits replaces the resource budget consumed at evaluation time.
func (e *Engine) SetLimits(l config.Limits) { e.limits = l }

// Options returns the capability flags fixed at construction.
func (e *Engine) Options() config.Options { return e.options }

// RegisterGlobalModule appends a module to the engine-global search
// chain. The module must be indexed before first use.
func (e *Engine) RegisterGlobalModule(m *module.Module) {
	if !m.Indexed() {
		m.BuildIndex()
	}
	e.globalModules = append(e.globalModules, m)
}

// SetModuleResolver installs the resolver driving import statements.
func (e *Engine) SetModuleResolver(r ModuleResolver) { e.resolver = r }

// OnVarResolver installs the variable resolver callback.
func (e *Engine) OnVarResolver(fn VarResolverFunc) { e.varResolver = fn }

// OnDefVar installs the variable-definition filter.
func (e *Engine) OnDefVar(fn DefVarFilterFunc) { e.defVarFilter = fn }

// OnProgress installs the progress callback, polled once per node.
func (e *Engine) OnProgress(fn ProgressFunc) { e.progress = fn }

// RegisterCustomSyntax installs the handler for a custom-syntax node name.
func (e *Engine) RegisterCustomSyntax(name string, fn CustomSyntaxFunc) {
	e.customSyntax[name] = fn
}

// RegisterDebugger installs the debugger init+callback pair. Ignored when
// the engine was built with the debugger capability disabled.
func (e *Engine) RegisterDebugger(init DebuggerInitFunc, cb OnDebuggerFunc) {
	if e.options.DisableDebugger {
		return
	}
	e.debugInit = init
	e.debugCallback = cb
}

// evalCtx bundles the per-run context threaded through every evaluation
// call: the run state, system caches, the active scope, and the bound
// `this` pointer (nil when unbound).
type evalCtx struct {
	state  *GlobalRuntimeState
	caches *Caches
	scope  *scope.Scope
	this   *value.Value
}

// withScope derives a context with a different active scope.
func (c *evalCtx) withScope(s *scope.Scope) *evalCtx {
	clone := *c
	clone.scope = s
	return &clone
}

// withThis derives a context with a bound receiver.
func (c *evalCtx) withThis(this *value.Value) *evalCtx {
	clone := *c
	clone.this = this
	return &clone
}

// Eval evaluates a program in a fresh scope and returns its result.
func (e *Engine) Eval(program *ast.Program) (value.Value, error) {
	return e.EvalWithScope(scope.New(), program)
}

// EvalWithScope evaluates a program against a caller-owned scope.
// Bindings made before a failing statement remain in the scope, so a
// REPL can keep feeding statements into the same scope.
func (e *Engine) EvalWithScope(s *scope.Scope, program *ast.Program) (value.Value, error) {
	state := newGlobalRuntimeState(program.Source)
	if e.debugCallback != nil {
		state.debugger = newDebuggerState(e.debugInit)
	}
	caches := newCaches()

	lib := libFromProgram(program)
	state.PushLib(lib)
	defer state.PopLib()

	ctx := &evalCtx{state: state, caches: caches, scope: s}

	result := e.evalStatements(ctx, program.Statements)
	result = e.finishRun(ctx, result)

	switch r := result.(type) {
	case *RuntimeError:
		state.truncateFrames(0)
		return nil, r
	case *returnSignal:
		return r.value, nil
	case *breakSignal, *continueSignal:
		// A loop signal past the outermost boundary is a construction
		// bug in the AST, not a user error.
		return nil, newError(program.Pos(), "break or continue outside of a loop")
	}
	return result, nil
}

// CallScriptFn invokes a named script function from a program against a
// caller-owned scope, binding args positionally. When rewindScope is
// false, only the parameter bindings are stripped afterwards and new
// top-level locals survive in the scope.
func (e *Engine) CallScriptFn(s *scope.Scope, program *ast.Program, name string, rewindScope bool, args ...value.Value) (value.Value, error) {
	state := newGlobalRuntimeState(program.Source)
	if e.debugCallback != nil {
		state.debugger = newDebuggerState(e.debugInit)
	}
	caches := newCaches()

	lib := libFromProgram(program)
	state.PushLib(lib)
	defer state.PopLib()

	fn, ok := lib.LookupFnByArity(name, len(args))
	if !ok {
		return nil, newErrorKind(ErrFunctionNotFound, ast.NoPosition, "function not found: %s/%d", name, len(args))
	}

	ctx := &evalCtx{state: state, caches: caches, scope: s}
	result := e.callScriptFnWithScope(ctx, s, fn.Script, nil, args, program.Source, ast.NoPosition, rewindScope)
	if err, ok := result.(*RuntimeError); ok {
		return nil, err
	}
	return result, nil
}

// finishRun fires the debugger End event once the outermost statement
// list finishes.
func (e *Engine) finishRun(ctx *evalCtx, result value.Value) value.Value {
	dbg := ctx.state.debugger
	if dbg == nil || e.debugCallback == nil {
		return result
	}
	if dbg.status.kind == statusTerminate {
		return result
	}
	dbg.status = debuggerStatus{kind: statusTerminate}
	return result
}

// libFromProgram builds the script-function namespace of one compilation
// unit: every hoisted function, indexed by (name, arity).
func libFromProgram(program *ast.Program) *module.Module {
	lib := module.New(program.Source)
	for _, def := range program.Functions {
		lib.SetScriptFn(def)
	}
	return lib
}

// evalStatements runs a statement list, yielding the value of the last
// statement. Signals and errors abort the list and propagate.
func (e *Engine) evalStatements(ctx *evalCtx, stmts []ast.Statement) value.Value {
	var result value.Value = value.UnitVal
	for _, stmt := range stmts {
		result = e.evalStmt(ctx, stmt)
		if isAbort(result) {
			return result
		}
	}
	return result
}
