package config

// Default resource limits applied to a freshly constructed engine.
// A zero value means "unlimited" for counters and sizes.
const (
	// DefaultMaxCallDepth is the maximum nesting level of script function
	// calls before evaluation aborts with a stack-overflow error.
	DefaultMaxCallDepth = 64

	// DefaultMaxOperations is the operation budget per evaluation run.
	// Zero disables operation counting.
	DefaultMaxOperations = 0

	// DefaultMaxModules caps how many modules a single run may import.
	DefaultMaxModules = 1024

	// DefaultMaxExprDepth is informational only in the evaluator; it is
	// enforced by front ends while building the AST.
	DefaultMaxExprDepth = 128

	// Size limits for growable values. Zero disables the check.
	DefaultMaxStringSize = 0
	DefaultMaxArraySize  = 0
	DefaultMaxMapSize    = 0
)

// Well-known function names the engine resolves dynamically.
const (
	ToStringFuncName = "to_string"
	IndexerGetName   = "index$get"
	IndexerSetName   = "index$set"
)

// GlobalNamespace is the pseudo-module name that resolves against the
// run's global constants cache instead of an imported module.
const GlobalNamespace = "global"

// AnonymousFnPrefix prefixes generated names of anonymous functions.
const AnonymousFnPrefix = "anon$"
