package module

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// Access is the namespace visibility of a registered function.
type Access int

const (
	// AccessInternal functions are reachable only via a qualified module
	// path (mod::fn).
	AccessInternal Access = iota
	// AccessGlobal functions are additionally visible unqualified from any
	// scope whose search chain includes the defining module.
	AccessGlobal
)

// FuncKind discriminates the closed set of callable payloads.
type FuncKind int

const (
	NativeValueKind FuncKind = iota
	NativeMethodKind
	TypeIteratorKind
	PluginTrampolineKind
	ScriptDefinedKind
)

func (k FuncKind) String() string {
	switch k {
	case NativeValueKind:
		return "native"
	case NativeMethodKind:
		return "method"
	case TypeIteratorKind:
		return "iterator"
	case PluginTrampolineKind:
		return "plugin"
	case ScriptDefinedKind:
		return "script"
	}
	return "unknown"
}

// NativeCallContext is what the engine exposes to native functions: the
// identity of the call and the ability to re-enter the dispatcher.
type NativeCallContext interface {
	// FnName is the name the call site used.
	FnName() string
	// Source is the source id of the calling unit, if any.
	Source() string
	// Position is the call position.
	Position() ast.Position
	// CallLevel is the current function-call nesting level.
	CallLevel() int
	// Tag is the custom user state threaded through the run.
	Tag() value.Value
	// Call re-enters the dispatcher by name.
	Call(name string, args ...value.Value) (value.Value, error)
	// CallNative re-enters the dispatcher, skipping script functions.
	CallNative(name string, args ...value.Value) (value.Value, error)
	// CallWithThis re-enters the dispatcher with an explicit receiver.
	CallWithThis(name string, this value.Value, args ...value.Value) (value.Value, error)
}

// NativeFunc is a host function called by value. Arguments are consumed;
// the callee owns them.
type NativeFunc func(ctx NativeCallContext, args []value.Value) (value.Value, error)

// NativeMethod is a host function whose first argument is the receiver,
// passed by reference: mutations to a pointer-shaped receiver (array,
// map, bytes, shared cell) are visible to the caller, and the dispatcher
// writes args[0] back through the originating target afterwards.
type NativeMethod func(ctx NativeCallContext, args []value.Value) (value.Value, error)

// IteratorFunc produces a pull-style iterator over a host value.
type IteratorFunc func(v value.Value) (func() (value.Value, bool), error)

// PluginFunc is the trampoline payload for externally generated bindings.
// It receives its own registration entry so one trampoline can serve many
// generated functions.
type PluginFunc func(ctx NativeCallContext, fn *Func, args []value.Value) (value.Value, error)

// Func is one function-table entry. Exactly one payload field matching
// Kind is set; keeping the payload a closed tagged variant keeps
// resolution and hashing exhaustive and centrally testable.
type Func struct {
	Name       string
	Access     Access
	ParamCount int
	// ParamTypes is the optional full type signature. Empty means the
	// function accepts any argument types of the right arity.
	ParamTypes []string
	// Pure methods promise not to mutate their receiver; pure calls are
	// exempt from the pre-call aliasing check.
	Pure bool

	Kind     FuncKind
	Native   NativeFunc
	Method   NativeMethod
	Iterator IteratorFunc
	Plugin   PluginFunc
	Script   *ast.FnDef
}

// IsScript reports whether the entry is a script-defined function.
func (f *Func) IsScript() bool { return f.Kind == ScriptDefinedKind }

// Typed reports whether the entry carries a full parameter signature.
func (f *Func) Typed() bool { return len(f.ParamTypes) > 0 }
