package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// errorsIsNotFound reports whether a resolver error means the import path
// simply does not exist.
func errorsIsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ErrKind is the error taxonomy. Recoverable kinds propagate through the
// call chain and are re-wrapped at script-function boundaries for
// diagnostics; fatal kinds pass through unwrapped so the true cause is
// never obscured, and are not catchable by the limiter itself.
type ErrKind int

const (
	ErrRuntime ErrKind = iota
	ErrFunctionNotFound
	ErrVariableNotFound
	ErrMismatchedTypes
	ErrMismatchedOutputType
	ErrModuleNotFound
	ErrInModule
	ErrUnboundThis
	ErrDataRace
	ErrAssignToConstant
	ErrForbiddenVariable

	// Fatal, system-level kinds.
	ErrStackOverflow
	ErrTooManyOperations
	ErrTooManyModules
	ErrDataTooLarge
	ErrTerminated
)

func (k ErrKind) String() string {
	switch k {
	case ErrFunctionNotFound:
		return "function not found"
	case ErrVariableNotFound:
		return "variable not found"
	case ErrMismatchedTypes:
		return "mismatched type"
	case ErrMismatchedOutputType:
		return "mismatched output type"
	case ErrModuleNotFound:
		return "module not found"
	case ErrInModule:
		return "error inside module"
	case ErrUnboundThis:
		return "'this' is not bound"
	case ErrDataRace:
		return "data race detected"
	case ErrAssignToConstant:
		return "cannot assign to constant"
	case ErrForbiddenVariable:
		return "forbidden variable"
	case ErrStackOverflow:
		return "stack overflow"
	case ErrTooManyOperations:
		return "too many operations"
	case ErrTooManyModules:
		return "too many modules loaded"
	case ErrDataTooLarge:
		return "data too large"
	case ErrTerminated:
		return "terminated"
	}
	return "runtime error"
}

// CallFrame is the debugger-visible record of one active script-function
// invocation and the unit of error stack traces.
type CallFrame struct {
	FnName   string
	Args     []value.Value
	Source   string
	Position ast.Position
}

// RuntimeError is the engine's error value. It implements both the value
// interface (so evaluation rules can return it like any other result) and
// the Go error interface at the host boundary.
type RuntimeError struct {
	ErrKind  ErrKind
	Message  string
	Position ast.Position
	Frames   []CallFrame
	// Term carries the substituted termination value when a progress
	// callback aborts the run.
	Term value.Value
}

const ERROR_VAL value.Kind = "ERROR"

func (e *RuntimeError) Kind() value.Kind   { return ERROR_VAL }
func (e *RuntimeError) TypeName() string   { return "error" }
func (e *RuntimeError) Clone() value.Value { return e }
func (e *RuntimeError) Hash() uint64       { return 0 }

func (e *RuntimeError) Inspect() string {
	var b strings.Builder
	if e.Position.IsNone() {
		fmt.Fprintf(&b, "ERROR: %s", e.Message)
	} else {
		fmt.Fprintf(&b, "ERROR at %d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
	}
	for i := len(e.Frames) - 1; i >= 0; i-- {
		f := e.Frames[i]
		fmt.Fprintf(&b, "\n  in %s", f.FnName)
		if f.Source != "" {
			fmt.Fprintf(&b, " (%s)", f.Source)
		}
		if !f.Position.IsNone() {
			fmt.Fprintf(&b, " at %d:%d", f.Position.Line, f.Position.Column)
		}
	}
	return b.String()
}

func (e *RuntimeError) Error() string { return e.Inspect() }

// IsFatal reports whether the error is a system-level error that must
// pass through call boundaries unwrapped.
func (e *RuntimeError) IsFatal() bool {
	switch e.ErrKind {
	case ErrStackOverflow, ErrTooManyOperations, ErrTooManyModules, ErrDataTooLarge, ErrTerminated:
		return true
	}
	return false
}

func newError(pos ast.Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{ErrKind: ErrRuntime, Message: fmt.Sprintf(format, args...), Position: pos}
}

func newErrorKind(kind ErrKind, pos ast.Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{ErrKind: kind, Message: fmt.Sprintf(format, args...), Position: pos}
}

func isError(v value.Value) bool {
	if v == nil {
		return false
	}
	_, ok := v.(*RuntimeError)
	return ok
}

// fromGoError converts a native function's error into a RuntimeError,
// passing engine errors through unchanged.
func fromGoError(err error, pos ast.Position) *RuntimeError {
	if re, ok := err.(*RuntimeError); ok {
		if re.Position.IsNone() {
			re.Position = pos
		}
		return re
	}
	return newError(pos, "%s", err.Error())
}

// Control-flow signals. These are not errors: each is produced by exactly
// one statement kind and consumed at exactly one boundary (function call
// for return, loop for break/continue). A signal escaping its boundary is
// a construction bug in the engine, not a user error.

const (
	RETURN_SIGNAL   value.Kind = "RETURN_SIGNAL"
	BREAK_SIGNAL    value.Kind = "BREAK_SIGNAL"
	CONTINUE_SIGNAL value.Kind = "CONTINUE_SIGNAL"
)

type returnSignal struct {
	value value.Value
}

func (s *returnSignal) Kind() value.Kind   { return RETURN_SIGNAL }
func (s *returnSignal) TypeName() string   { return "return" }
func (s *returnSignal) Inspect() string    { return "return " + s.value.Inspect() }
func (s *returnSignal) Clone() value.Value { return s }
func (s *returnSignal) Hash() uint64       { return 0 }

type breakSignal struct{}

func (s *breakSignal) Kind() value.Kind   { return BREAK_SIGNAL }
func (s *breakSignal) TypeName() string   { return "break" }
func (s *breakSignal) Inspect() string    { return "break" }
func (s *breakSignal) Clone() value.Value { return s }
func (s *breakSignal) Hash() uint64       { return 0 }

type continueSignal struct{}

func (s *continueSignal) Kind() value.Kind   { return CONTINUE_SIGNAL }
func (s *continueSignal) TypeName() string   { return "continue" }
func (s *continueSignal) Inspect() string    { return "continue" }
func (s *continueSignal) Clone() value.Value { return s }
func (s *continueSignal) Hash() uint64       { return 0 }

var (
	breakSig    = &breakSignal{}
	continueSig = &continueSignal{}
)

// isControl reports whether v is any control-flow signal.
func isControl(v value.Value) bool {
	switch v.(type) {
	case *returnSignal, *breakSignal, *continueSignal:
		return true
	}
	return false
}

// isAbort reports whether evaluation of the current construct must stop
// and propagate v upward.
func isAbort(v value.Value) bool { return isError(v) || isControl(v) }
