// Package resolve provides module resolvers for the engine's import
// protocol: a static path→module table, a chaining resolver, and a
// program-based resolver that evaluates a compilation unit into a module
// and caches the result.
package resolve

import (
	"sync"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/engine"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/scope"
)

// StaticResolver resolves import paths from a fixed table. The zero value
// is usable.
type StaticResolver struct {
	mu      sync.RWMutex
	modules map[string]*module.Module
}

// NewStaticResolver builds an empty table.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{modules: make(map[string]*module.Module)}
}

// Register maps a path to a module, replacing any previous entry.
func (r *StaticResolver) Register(path string, m *module.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.modules == nil {
		r.modules = make(map[string]*module.Module)
	}
	r.modules[path] = m
}

// Resolve implements engine.ModuleResolver.
func (r *StaticResolver) Resolve(e *engine.Engine, source, path string, pos ast.Position) (*module.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modules[path]; ok {
		return m, nil
	}
	return nil, engine.ErrNotFound
}

// CollectionResolver tries a list of resolvers in order, moving on only
// when a resolver reports not-found. Any other error stops the chain.
type CollectionResolver struct {
	resolvers []engine.ModuleResolver
}

// NewCollectionResolver chains the given resolvers.
func NewCollectionResolver(resolvers ...engine.ModuleResolver) *CollectionResolver {
	return &CollectionResolver{resolvers: resolvers}
}

// Append adds a resolver at the end of the chain.
func (r *CollectionResolver) Append(next engine.ModuleResolver) {
	r.resolvers = append(r.resolvers, next)
}

// Resolve implements engine.ModuleResolver.
func (r *CollectionResolver) Resolve(e *engine.Engine, source, path string, pos ast.Position) (*module.Module, error) {
	for _, sub := range r.resolvers {
		m, err := sub.Resolve(e, source, path, pos)
		if err == nil {
			return m, nil
		}
		if err != engine.ErrNotFound {
			return nil, err
		}
	}
	return nil, engine.ErrNotFound
}

// SourceFunc loads the compilation unit behind an import path. It is the
// front end's side of the program resolver; returning engine.ErrNotFound
// marks a missing path.
type SourceFunc func(path string) (*ast.Program, error)

// ProgramResolver resolves imports by evaluating a program into a module.
// Results are cached per path: importing the same path twice, under any
// aliases, yields the same module instance.
type ProgramResolver struct {
	load SourceFunc

	mu    sync.Mutex
	cache map[string]*module.Module
}

// NewProgramResolver builds a resolver around a program loader.
func NewProgramResolver(load SourceFunc) *ProgramResolver {
	return &ProgramResolver{load: load, cache: make(map[string]*module.Module)}
}

// ClearCache drops all cached modules; subsequent imports re-evaluate.
func (r *ProgramResolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*module.Module)
}

// Resolve implements engine.ModuleResolver.
func (r *ProgramResolver) Resolve(e *engine.Engine, source, path string, pos ast.Position) (*module.Module, error) {
	r.mu.Lock()
	cached, ok := r.cache[path]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	program, err := r.load(path)
	if err != nil {
		return nil, err
	}
	m, err := ModuleFromProgram(e, program)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[path] = m
	r.mu.Unlock()
	return m, nil
}

// ResolveAST implements engine.ASTResolver: the unit behind the path is
// loaded fresh, bypassing the module cache entirely.
func (r *ProgramResolver) ResolveAST(e *engine.Engine, source, path string, pos ast.Position) (*ast.Program, error) {
	return r.load(path)
}

// SelfContained walks a program's import statements with literal string
// paths, resolves each unit through the AST variant, evaluates it, and
// returns a StaticResolver serving the results from memory. The source
// resolver's module cache is never consulted or filled. Literal imports
// inside the resolved units are bundled recursively; computed import
// paths stay with the engine's runtime resolver.
func SelfContained(e *engine.Engine, program *ast.Program, res engine.ASTResolver) (*StaticResolver, error) {
	out := NewStaticResolver()
	if err := bundleImports(e, program, res, out, map[string]bool{}); err != nil {
		return nil, err
	}
	return out, nil
}

func bundleImports(e *engine.Engine, program *ast.Program, res engine.ASTResolver, out *StaticResolver, seen map[string]bool) error {
	for _, st := range program.Statements {
		imp, ok := st.(*ast.Import)
		if !ok {
			continue
		}
		lit, ok := imp.Path.(*ast.StringLiteral)
		if !ok || seen[lit.Value] {
			continue
		}
		seen[lit.Value] = true
		unit, err := res.ResolveAST(e, program.Source, lit.Value, imp.Pos())
		if err != nil {
			return err
		}
		if err := bundleImports(e, unit, res, out, seen); err != nil {
			return err
		}
		m, err := ModuleFromProgram(e, unit)
		if err != nil {
			return err
		}
		out.Register(lit.Value, m)
	}
	return nil
}

// ModuleFromProgram evaluates a compilation unit and captures the result
// as a module: surviving top-level variables become module variables,
// hoisted functions become module functions.
func ModuleFromProgram(e *engine.Engine, program *ast.Program) (*module.Module, error) {
	s := scope.New()
	if _, err := e.EvalWithScope(s, program); err != nil {
		return nil, err
	}

	m := module.New(program.Source)
	for i := 0; i < s.Len(); i++ {
		m.SetVar(s.NameByIndex(i), s.GetByIndex(i))
	}
	for _, def := range program.Functions {
		m.SetScriptFn(def)
	}
	m.BuildIndex()
	return m, nil
}
