// Package runic is the embedding surface of the evaluation engine: engine
// construction, scopes, values, module registration and resolvers.
package runic

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/config"
	"github.com/funvibe/runic/internal/engine"
	"github.com/funvibe/runic/internal/module"
	"github.com/funvibe/runic/internal/resolve"
	"github.com/funvibe/runic/internal/scope"
	"github.com/funvibe/runic/internal/value"
)

// Core engine types.
type (
	Engine         = engine.Engine
	EvalContext    = engine.EvalContext
	RuntimeError   = engine.RuntimeError
	CallFrame      = engine.CallFrame
	ModuleResolver = engine.ModuleResolver
	ASTResolver    = engine.ASTResolver
	Scope          = scope.Scope
	Module         = module.Module
	Limits         = config.Limits
	Options        = config.Options
	Position       = ast.Position
	Program        = ast.Program
)

// Value model.
type (
	Value  = value.Value
	Int    = value.Int
	Float  = value.Float
	Bool   = value.Bool
	String = value.String
	Char   = value.Char
	Array  = value.Array
	Map    = value.Map
	Bytes  = value.Bytes
	FnPtr  = value.FnPtr
	Shared = value.Shared
)

// Debugger surface.
type (
	DebuggerCommand = engine.DebuggerCommand
	DebuggerEvent   = engine.DebuggerEvent
	DebuggerCLI     = engine.DebuggerCLI
	BreakPoint      = engine.BreakPoint
)

// Resolvers.
type (
	StaticResolver     = resolve.StaticResolver
	CollectionResolver = resolve.CollectionResolver
	ProgramResolver    = resolve.ProgramResolver
)

// UnitVal is the unit singleton.
var UnitVal = value.UnitVal

// ErrNotFound marks a missing import path in custom resolvers.
var ErrNotFound = engine.ErrNotFound

// New builds an engine with default limits and the core library
// registered as a global module.
func New() *Engine {
	e := engine.New()
	e.RegisterGlobalModule(CoreLib())
	return e
}

// NewRaw builds an engine without the core library.
func NewRaw() *Engine { return engine.New() }

// NewWithOptions builds an engine with explicit capability flags and the
// core library registered.
func NewWithOptions(opts Options) *Engine {
	e := engine.NewWithOptions(opts)
	e.RegisterGlobalModule(CoreLib())
	return e
}

// NewScope builds an empty scope.
func NewScope() *Scope { return scope.New() }

// NewModule builds an empty module with the given id.
func NewModule(id string) *Module { return module.New(id) }

// NewStaticResolver builds an empty static path table.
func NewStaticResolver() *StaticResolver { return resolve.NewStaticResolver() }

// SelfContained pre-resolves a program's literal imports through the AST
// variant of the resolver and bundles the evaluated modules into an
// in-memory resolver, so the program can run without its sources.
func SelfContained(e *Engine, p *Program, res ASTResolver) (*StaticResolver, error) {
	return resolve.SelfContained(e, p, res)
}

// DefaultLimits returns the engine's default resource budget.
func DefaultLimits() Limits { return config.DefaultLimits() }

// ConfigFile is the on-disk YAML configuration shape.
type ConfigFile = config.File

// LoadConfig parses a YAML configuration document.
func LoadConfig(data []byte) (ConfigFile, error) { return config.Load(data) }

// LoadConfigFile reads and parses a YAML configuration file.
func LoadConfigFile(path string) (ConfigFile, error) { return config.LoadFile(path) }
