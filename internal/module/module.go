// Package module implements the function table: a namespace of native and
// script-defined functions, variables, sub-modules and type iterators,
// indexed by structural hash for O(1) lookup.
package module

import (
	"fmt"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

// Module owns maps from (name, hash) to function entries, plus variables
// and sub-modules. After all registrations, BuildIndex must be called once
// to flatten qualified lookups; mutating a module afterwards requires
// re-indexing.
type Module struct {
	id string

	// typed holds entries registered with a full parameter signature,
	// keyed by full hash. untyped holds signature-less entries (including
	// all script functions), keyed by base hash.
	typed   map[uint64]*Func
	untyped map[uint64]*Func

	variables  map[string]value.Value
	subModules map[string]*Module
	iterators  map[string]*Func

	// flat is the index built by BuildIndex: own and sub-module functions
	// under their qualified hashes.
	flat     map[uint64]*Func
	flatVars map[string]value.Value
	indexed  bool
}

func New(id string) *Module {
	return &Module{
		id:         id,
		typed:      make(map[uint64]*Func),
		untyped:    make(map[uint64]*Func),
		variables:  make(map[string]value.Value),
		subModules: make(map[string]*Module),
		iterators:  make(map[string]*Func),
	}
}

func (m *Module) ID() string { return m.id }

// Indexed reports whether BuildIndex ran after the last mutation.
func (m *Module) Indexed() bool { return m.indexed }

// SetNativeFn registers a host function called by value. paramTypes may be
// nil for an untyped (any-argument) registration.
func (m *Module) SetNativeFn(name string, access Access, paramTypes []string, arity int, fn NativeFunc) *Func {
	f := &Func{
		Name:       name,
		Access:     access,
		ParamCount: arity,
		ParamTypes: paramTypes,
		Kind:       NativeValueKind,
		Native:     fn,
	}
	m.store(f)
	return f
}

// SetMethodFn registers a host function whose first argument is the
// receiver, passed by reference.
func (m *Module) SetMethodFn(name string, access Access, paramTypes []string, arity int, pure bool, fn NativeMethod) *Func {
	f := &Func{
		Name:       name,
		Access:     access,
		ParamCount: arity,
		ParamTypes: paramTypes,
		Pure:       pure,
		Kind:       NativeMethodKind,
		Method:     fn,
	}
	m.store(f)
	return f
}

// SetPluginFn registers a trampoline entry produced by external codegen.
func (m *Module) SetPluginFn(name string, access Access, paramTypes []string, arity int, fn PluginFunc) *Func {
	f := &Func{
		Name:       name,
		Access:     access,
		ParamCount: arity,
		ParamTypes: paramTypes,
		Kind:       PluginTrampolineKind,
		Plugin:     fn,
	}
	m.store(f)
	return f
}

// SetScriptFn registers a script-defined function. Script functions are
// untyped: they match by (name, arity) only.
func (m *Module) SetScriptFn(def *ast.FnDef) *Func {
	access := AccessInternal
	if def.Global {
		access = AccessGlobal
	}
	f := &Func{
		Name:       def.Name,
		Access:     access,
		ParamCount: len(def.Params),
		Kind:       ScriptDefinedKind,
		Script:     def,
	}
	m.store(f)
	return f
}

// SetIterator registers the iterator for a value type name, replacing any
// previous registration for that type.
func (m *Module) SetIterator(typeName string, fn IteratorFunc) {
	m.iterators[typeName] = &Func{
		Name:       "iterator<" + typeName + ">",
		Access:     AccessInternal,
		ParamCount: 1,
		Kind:       TypeIteratorKind,
		Iterator:   fn,
	}
	m.indexed = false
}

// SetVar registers a module-level variable.
func (m *Module) SetVar(name string, v value.Value) {
	m.variables[name] = v
	m.indexed = false
}

// SetSubModule mounts a sub-module under the given name.
func (m *Module) SetSubModule(name string, sub *Module) {
	m.subModules[name] = sub
	m.indexed = false
}

func (m *Module) store(f *Func) {
	if f.Typed() {
		m.typed[FullHash(f.Name, f.ParamTypes)] = f
	} else {
		m.untyped[BaseHash(f.Name, f.ParamCount)] = f
	}
	m.indexed = false
}

// Var reads a module-level variable.
func (m *Module) Var(name string) (value.Value, bool) {
	v, ok := m.variables[name]
	return v, ok
}

// SubModule returns the mounted sub-module, if any.
func (m *Module) SubModule(name string) (*Module, bool) {
	s, ok := m.subModules[name]
	return s, ok
}

// IteratorFor returns the iterator registered for a type name, searching
// sub-modules after the module itself.
func (m *Module) IteratorFor(typeName string) (IteratorFunc, bool) {
	if f, ok := m.iterators[typeName]; ok {
		return f.Iterator, true
	}
	for _, sub := range m.subModules {
		if it, ok := sub.IteratorFor(typeName); ok {
			return it, true
		}
	}
	return nil, false
}

// LookupFn resolves a call against this module only: the full hash of the
// actual argument types first, then the untyped (name, arity) entry.
func (m *Module) LookupFn(name string, argTypes []string) (*Func, bool) {
	if len(argTypes) > 0 || name != "" {
		if f, ok := m.typed[FullHash(name, argTypes)]; ok {
			return f, true
		}
	}
	f, ok := m.untyped[BaseHash(name, len(argTypes))]
	return f, ok
}

// LookupFnByArity resolves by (name, arity) alone, preferring an untyped
// entry and falling back to a sole typed overload of that arity.
func (m *Module) LookupFnByArity(name string, arity int) (*Func, bool) {
	if f, ok := m.untyped[BaseHash(name, arity)]; ok {
		return f, true
	}
	var found *Func
	for _, f := range m.typed {
		if f.Name == name && f.ParamCount == arity {
			if found != nil {
				return nil, false // ambiguous without argument types
			}
			found = f
		}
	}
	return found, found != nil
}

// HasGlobalFns reports whether any function entry is re-exported into the
// importer's unqualified namespace.
func (m *Module) HasGlobalFns() bool {
	for _, f := range m.typed {
		if f.Access == AccessGlobal {
			return true
		}
	}
	for _, f := range m.untyped {
		if f.Access == AccessGlobal {
			return true
		}
	}
	return false
}

// ForEachFn visits every function entry, including typed overloads.
func (m *Module) ForEachFn(visit func(*Func)) {
	for _, f := range m.typed {
		visit(f)
	}
	for _, f := range m.untyped {
		visit(f)
	}
}

// BuildIndex flattens this module and all sub-modules into a single hash
// index of qualified lookups. It must run once after all registrations
// and again after any later mutation.
func (m *Module) BuildIndex() {
	m.flat = make(map[uint64]*Func)
	m.flatVars = make(map[string]value.Value)
	m.indexInto(nil)
	m.indexed = true
}

func (m *Module) indexInto(path []string) {
	for _, f := range m.typed {
		m.rootFlat()[QualifiedFullHash(path, f.Name, f.ParamTypes)] = f
	}
	for _, f := range m.untyped {
		m.rootFlat()[QualifiedBaseHash(path, f.Name, f.ParamCount)] = f
	}
	for name, v := range m.variables {
		m.rootFlatVars()[qualifyName(path, name)] = v
	}
	for name, sub := range m.subModules {
		subPath := append(append([]string{}, path...), name)
		sub.flat = m.flat // sub-modules share the root index
		sub.flatVars = m.flatVars
		sub.indexInto(subPath)
		sub.indexed = true
	}
}

func (m *Module) rootFlat() map[uint64]*Func           { return m.flat }
func (m *Module) rootFlatVars() map[string]value.Value { return m.flatVars }

func qualifyName(path []string, name string) string {
	out := ""
	for _, p := range path {
		out += p + "::"
	}
	return out + name
}

// QualifiedFn resolves a qualified call against the built index.
func (m *Module) QualifiedFn(path []string, name string, argTypes []string) (*Func, bool) {
	if !m.indexed {
		return nil, false
	}
	if f, ok := m.flat[QualifiedFullHash(path, name, argTypes)]; ok {
		return f, true
	}
	f, ok := m.flat[QualifiedBaseHash(path, name, len(argTypes))]
	return f, ok
}

// QualifiedFnByArity resolves a qualified call by (name, arity) alone
// against the built index. Typed overloads are not searched: argument
// types are unknown at this kind of call site.
func (m *Module) QualifiedFnByArity(path []string, name string, arity int) (*Func, bool) {
	if !m.indexed {
		return nil, false
	}
	f, ok := m.flat[QualifiedBaseHash(path, name, arity)]
	return f, ok
}

// QualifiedVar resolves a qualified variable against the built index.
func (m *Module) QualifiedVar(path []string, name string) (value.Value, bool) {
	if !m.indexed {
		v, ok := m.variables[name]
		return v, ok
	}
	v, ok := m.flatVars[qualifyName(path, name)]
	return v, ok
}

func (m *Module) String() string {
	return fmt.Sprintf("module(%s, %d fns)", m.id, len(m.typed)+len(m.untyped))
}
