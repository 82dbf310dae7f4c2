package engine

import (
	"github.com/google/uuid"

	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/value"
)

type importEntry struct {
	alias string
	mod   *module.Module
}

// GlobalRuntimeState is the per-run mutable context threaded through every
// evaluation call. The engine itself holds only read-mostly configuration;
// everything that changes during a run lives here, so one engine instance
// can serve several independent evaluations at once.
type GlobalRuntimeState struct {
	// RunID correlates diagnostics across nested call contexts.
	RunID string

	// Source is the source id of the unit currently evaluating.
	Source string

	// imports is the stack of imported modules in import order; lookup
	// searches newest-first.
	imports []importEntry

	// libs is the stack of active script-function namespaces, innermost
	// last, for resolving cross-calls within a compilation unit.
	libs []*module.Module

	// Level is the script-function call nesting level.
	Level int

	// Operations is the per-run operation counter.
	Operations uint64

	numModules int

	// constants is the global constants cache, addressed via global::.
	constants map[string]value.Value

	// debugger is nil unless the engine was built with a debugger.
	debugger *DebuggerState

	// alwaysSearchScope forces name-based variable lookup for the rest of
	// the run once cached offsets can no longer be trusted (a variable
	// resolver or debugger callback mutated the scope).
	alwaysSearchScope bool

	// Tag is opaque user state exposed to native functions.
	Tag value.Value

	// frames is the debugger-visible call stack.
	frames []CallFrame
}

func newGlobalRuntimeState(source string) *GlobalRuntimeState {
	return &GlobalRuntimeState{
		RunID:     uuid.NewString(),
		Source:    source,
		constants: make(map[string]value.Value),
		Tag:       value.UnitVal,
	}
}

// Fork produces a nested call context for a native function re-entering
// the dispatcher. Sub-structures are shared: the fork is cheap and writes
// through to the same run.
func (g *GlobalRuntimeState) Fork() *GlobalRuntimeState {
	clone := *g
	return &clone
}

// PushImport registers an imported module under an alias. The same module
// may appear under several aliases.
func (g *GlobalRuntimeState) PushImport(alias string, m *module.Module) {
	g.imports = append(g.imports, importEntry{alias: alias, mod: m})
	g.numModules++
}

// FindImport resolves an alias, searching newest-first.
func (g *GlobalRuntimeState) FindImport(alias string) (*module.Module, bool) {
	for i := len(g.imports) - 1; i >= 0; i-- {
		if g.imports[i].alias == alias {
			return g.imports[i].mod, true
		}
	}
	return nil, false
}

// forEachImport visits imported modules newest-first.
func (g *GlobalRuntimeState) forEachImport(visit func(alias string, m *module.Module) bool) {
	for i := len(g.imports) - 1; i >= 0; i-- {
		if !visit(g.imports[i].alias, g.imports[i].mod) {
			return
		}
	}
}

// PushLib activates a compilation unit's script-function namespace.
func (g *GlobalRuntimeState) PushLib(m *module.Module) { g.libs = append(g.libs, m) }

// PopLib deactivates the innermost script-function namespace.
func (g *GlobalRuntimeState) PopLib() { g.libs = g.libs[:len(g.libs)-1] }

// GlobalConstant reads the run's constants cache.
func (g *GlobalRuntimeState) GlobalConstant(name string) (value.Value, bool) {
	v, ok := g.constants[name]
	return v, ok
}

// SetGlobalConstant writes the run's constants cache.
func (g *GlobalRuntimeState) SetGlobalConstant(name string, v value.Value) {
	g.constants[name] = v
}

// CallStack returns the debugger-visible call stack, outermost first.
func (g *GlobalRuntimeState) CallStack() []CallFrame { return g.frames }

func (g *GlobalRuntimeState) pushFrame(f CallFrame) { g.frames = append(g.frames, f) }

func (g *GlobalRuntimeState) popFrame() {
	if len(g.frames) > 0 {
		g.frames = g.frames[:len(g.frames)-1]
	}
}

// truncateFrames drops frames wholesale during error unwinding.
func (g *GlobalRuntimeState) truncateFrames(n int) {
	if n < len(g.frames) {
		g.frames = g.frames[:n]
	}
}
