package engine

import (
	"fmt"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// DebuggerCommand is the hook's verdict on how execution proceeds.
type DebuggerCommand int

const (
	// DebugContinue runs freely until the next breakpoint.
	DebugContinue DebuggerCommand = iota
	// DebugNext stops at the next statement, stepping over calls.
	DebugNext
	// DebugStepInto stops at the very next node, entering calls.
	DebugStepInto
	// DebugStepOver runs the current node without stepping into it, then
	// stops.
	DebugStepOver
	// DebugFunctionExit runs until the current function call unwinds.
	DebugFunctionExit
)

// DebuggerEventKind discriminates why the hook fired.
type DebuggerEventKind int

const (
	// EventInit fires at the first node of a run.
	EventInit DebuggerEventKind = iota
	// EventStep fires when a pending step status matched the node.
	EventStep
	// EventBreakPoint fires when a registered breakpoint matched.
	EventBreakPoint
	// EventFunctionExit fires when a function call unwinds to the
	// requested level; Result carries the function's return value.
	EventFunctionExit
)

// DebuggerEvent is the payload handed to the hook callback.
type DebuggerEvent struct {
	Kind     DebuggerEventKind
	Node     ast.Node
	Position ast.Position
	// BreakPoint is the index of the matched breakpoint, -1 otherwise.
	BreakPoint int
	// Result is the function return value for EventFunctionExit.
	Result value.Value
}

// OnDebuggerFunc is the hook callback. Returning an error terminates the
// run with that error.
type OnDebuggerFunc func(ctx *EvalContext, event DebuggerEvent) (DebuggerCommand, error)

// BreakPointKind selects what a breakpoint matches on.
type BreakPointKind int

const (
	// BreakAtPosition matches a statement on a source line.
	BreakAtPosition BreakPointKind = iota
	// BreakAtFunctionName matches a call to a function of any arity.
	BreakAtFunctionName
	// BreakAtFunctionCall matches a call with an exact arity.
	BreakAtFunctionCall
	// BreakAtProperty matches property access by field name.
	BreakAtProperty
)

// BreakPoint is one registered stop condition. Disabled breakpoints stay
// registered but never match.
type BreakPoint struct {
	Kind     BreakPointKind
	Source   string // BreakAtPosition; empty matches any source
	Position ast.Position
	FnName   string
	Arity    int
	Field    string
	Enabled  bool
}

func (b *BreakPoint) String() string {
	switch b.Kind {
	case BreakAtPosition:
		return fmt.Sprintf("%s:%d", b.Source, b.Position.Line)
	case BreakAtFunctionName:
		return b.FnName
	case BreakAtFunctionCall:
		return fmt.Sprintf("%s/%d", b.FnName, b.Arity)
	case BreakAtProperty:
		return "." + b.Field
	}
	return "?"
}

func (b *BreakPoint) matches(node ast.Node, source string, isStmt bool) bool {
	if !b.Enabled {
		return false
	}
	switch b.Kind {
	case BreakAtPosition:
		// Statement granularity: a line breakpoint fires once per
		// statement, not again on every sub-expression of that line.
		if !isStmt {
			return false
		}
		if b.Source != "" && b.Source != source {
			return false
		}
		return node.Pos().Line == b.Position.Line
	case BreakAtFunctionName:
		call, ok := node.(*ast.FnCall)
		return ok && call.Name == b.FnName
	case BreakAtFunctionCall:
		call, ok := node.(*ast.FnCall)
		return ok && call.Name == b.FnName && len(call.Args) == b.Arity
	case BreakAtProperty:
		dot, ok := node.(*ast.DotExpr)
		return ok && dot.Field == b.Field
	}
	return false
}

type statusKind int

const (
	// statusInit stops at the first node of the run.
	statusInit statusKind = iota
	// statusContinue runs freely.
	statusContinue
	// statusStep stops at the next node of any granularity.
	statusStep
	// statusNext stops at the next statement.
	statusNext
	// statusFnExit stops when call nesting unwinds to level.
	statusFnExit
	// statusTerminate aborts the run at the next node.
	statusTerminate
)

type debuggerStatus struct {
	kind  statusKind
	level int // statusFnExit
}

// DebuggerState is the per-run debugger: pending status, registered
// breakpoints and opaque user state.
type DebuggerState struct {
	status      debuggerStatus
	breakPoints []*BreakPoint
	userState   value.Value
}

func newDebuggerState(init DebuggerInitFunc) *DebuggerState {
	d := &DebuggerState{
		status:    debuggerStatus{kind: statusInit},
		userState: value.UnitVal,
	}
	if init != nil {
		if v := init(); v != nil {
			d.userState = v
		}
	}
	return d
}

// State returns the opaque user state.
func (d *DebuggerState) State() value.Value { return d.userState }

// SetState replaces the opaque user state.
func (d *DebuggerState) SetState(v value.Value) { d.userState = v }

// AddBreakPoint registers a stop condition, enabled.
func (d *DebuggerState) AddBreakPoint(bp *BreakPoint) {
	bp.Enabled = true
	d.breakPoints = append(d.breakPoints, bp)
}

// BreakPoints returns the registered breakpoints in registration order.
func (d *DebuggerState) BreakPoints() []*BreakPoint { return d.breakPoints }

// RemoveBreakPoint deletes by index; out-of-range is ignored.
func (d *DebuggerState) RemoveBreakPoint(i int) {
	if i < 0 || i >= len(d.breakPoints) {
		return
	}
	d.breakPoints = append(d.breakPoints[:i], d.breakPoints[i+1:]...)
}

func (d *DebuggerState) matchBreakPoint(node ast.Node, source string, isStmt bool) int {
	for i, bp := range d.breakPoints {
		if bp.matches(node, source, isStmt) {
			return i
		}
	}
	return -1
}

// Terminate makes the run abort at the next evaluated node.
func (d *DebuggerState) Terminate() { d.status = debuggerStatus{kind: statusTerminate} }

// runDebugger offers a node to the debugger. The returned status, when
// non-nil, must be restored after the node finishes (step-over semantics:
// the node runs freely, then the pending stop resumes).
func (e *Engine) runDebugger(ctx *evalCtx, node ast.Node, isStmt bool) (*debuggerStatus, *RuntimeError) {
	dbg := ctx.state.debugger
	if dbg == nil || e.debugCallback == nil {
		return nil, nil
	}

	var kind DebuggerEventKind
	bpIndex := -1
	switch dbg.status.kind {
	case statusTerminate:
		return nil, newErrorKind(ErrTerminated, node.Pos(), "evaluation terminated by debugger")
	case statusInit:
		kind = EventInit
	case statusStep:
		kind = EventStep
	case statusNext:
		if !isStmt {
			if bpIndex = dbg.matchBreakPoint(node, ctx.state.Source, isStmt); bpIndex < 0 {
				return nil, nil
			}
			kind = EventBreakPoint
		} else {
			kind = EventStep
		}
	default:
		if bpIndex = dbg.matchBreakPoint(node, ctx.state.Source, isStmt); bpIndex < 0 {
			return nil, nil
		}
		kind = EventBreakPoint
	}

	event := DebuggerEvent{
		Kind:       kind,
		Node:       node,
		Position:   node.Pos(),
		BreakPoint: bpIndex,
	}
	cmd, err := e.fireDebugger(ctx, event)
	if err != nil {
		return nil, err
	}
	// A Terminate() issued inside the hook wins over the returned command.
	if dbg.status.kind == statusTerminate {
		return nil, newErrorKind(ErrTerminated, node.Pos(), "evaluation terminated by debugger")
	}

	switch cmd {
	case DebugContinue:
		dbg.status = debuggerStatus{kind: statusContinue}
		return nil, nil
	case DebugNext:
		// Run the node's children freely; stop at the statement after it.
		dbg.status = debuggerStatus{kind: statusContinue}
		return &debuggerStatus{kind: statusNext}, nil
	case DebugStepOver:
		dbg.status = debuggerStatus{kind: statusContinue}
		return &debuggerStatus{kind: statusStep}, nil
	case DebugStepInto:
		dbg.status = debuggerStatus{kind: statusStep}
		return nil, nil
	case DebugFunctionExit:
		// When the stop node is itself a call, the interesting exit is
		// the call about to be entered, one level deeper.
		level := ctx.state.Level
		if _, ok := node.(*ast.FnCall); ok {
			level++
		}
		dbg.status = debuggerStatus{kind: statusFnExit, level: level}
		return nil, nil
	}
	return nil, newError(node.Pos(), "unknown debugger command %d", cmd)
}

// debuggerFunctionExit fires the function-exit event while a script call
// unwinds, if the pending status asked for this level.
func (e *Engine) debuggerFunctionExit(ctx *evalCtx, def *ast.FnDef, pos ast.Position, result value.Value) value.Value {
	dbg := ctx.state.debugger
	if dbg == nil || e.debugCallback == nil {
		return result
	}
	if dbg.status.kind != statusFnExit || ctx.state.Level > dbg.status.level {
		return result
	}

	exposed := result
	if isAbort(exposed) {
		if r, ok := exposed.(*returnSignal); ok {
			exposed = r.value
		} else {
			exposed = value.UnitVal
		}
	}
	event := DebuggerEvent{
		Kind:       EventFunctionExit,
		Node:       def,
		Position:   pos,
		BreakPoint: -1,
		Result:     exposed,
	}
	cmd, err := e.fireDebugger(ctx, event)
	if err != nil {
		return err
	}
	if dbg.status.kind == statusTerminate {
		return newErrorKind(ErrTerminated, pos, "evaluation terminated by debugger")
	}
	switch cmd {
	case DebugContinue:
		dbg.status = debuggerStatus{kind: statusContinue}
	case DebugNext:
		dbg.status = debuggerStatus{kind: statusNext}
	case DebugStepInto, DebugStepOver:
		dbg.status = debuggerStatus{kind: statusStep}
	case DebugFunctionExit:
		dbg.status = debuggerStatus{kind: statusFnExit, level: ctx.state.Level - 1}
	}
	return result
}

// fireDebugger invokes the hook callback, forcing name-based variable
// search for the rest of the run if the callback changed the scope shape.
func (e *Engine) fireDebugger(ctx *evalCtx, event DebuggerEvent) (DebuggerCommand, *RuntimeError) {
	before := ctx.scope.Len()
	ec := &EvalContext{engine: e, ctx: ctx, position: event.Position}
	cmd, err := e.debugCallback(ec, event)
	if ctx.scope.Len() != before {
		ctx.state.alwaysSearchScope = true
	}
	if err != nil {
		return cmd, fromGoError(err, event.Position)
	}
	return cmd, nil
}
