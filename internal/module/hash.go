package module

import (
	"hash/fnv"
	"strconv"
)

// Function lookup uses a two-stage structural hash:
//
//   - the base hash folds (namespace, name, arity) and locates the first
//     candidate for a call site that knows nothing about argument types;
//   - the full hash additionally folds the ordered parameter type names
//     and disambiguates overloads sharing (name, arity).
//
// Registering the same full hash twice overwrites: last registration wins.

const sep = "\x00"

// BaseHash folds (name, arity).
func BaseHash(name string, arity int) uint64 {
	return QualifiedBaseHash(nil, name, arity)
}

// FullHash folds (name, ordered parameter type names).
func FullHash(name string, paramTypes []string) uint64 {
	return QualifiedFullHash(nil, name, paramTypes)
}

// QualifiedBaseHash folds (module path, name, arity).
func QualifiedBaseHash(path []string, name string, arity int) uint64 {
	h := fnv.New64a()
	for _, p := range path {
		h.Write([]byte(p))
		h.Write([]byte(sep))
	}
	h.Write([]byte(name))
	h.Write([]byte(sep))
	h.Write([]byte(strconv.Itoa(arity)))
	return h.Sum64()
}

// QualifiedFullHash folds (module path, name, parameter type names).
func QualifiedFullHash(path []string, name string, paramTypes []string) uint64 {
	h := fnv.New64a()
	for _, p := range path {
		h.Write([]byte(p))
		h.Write([]byte(sep))
	}
	h.Write([]byte(name))
	for _, t := range paramTypes {
		h.Write([]byte(sep))
		h.Write([]byte(t))
	}
	return h.Sum64()
}
