package value

import (
	"fmt"
	"sort"
	"strings"
)

type Array struct {
	Elems []Value
}

func (a *Array) Kind() Kind       { return ARRAY_VAL }
func (a *Array) TypeName() string { return TypeArray }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a *Array) Clone() Value {
	elems := make([]Value, len(a.Elems))
	for i, e := range a.Elems {
		elems[i] = e.Clone()
	}
	return &Array{Elems: elems}
}
func (a *Array) Hash() uint64 {
	h := hashString(TypeArray)
	for _, e := range a.Elems {
		h = h*31 ^ e.Hash()
	}
	return h
}

// Get reads an element. Negative indices count from the end; out-of-range
// reads clamp to the nearest bound.
func (a *Array) Get(idx int) Value {
	if len(a.Elems) == 0 {
		return UnitVal
	}
	idx = clampIndex(idx, len(a.Elems))
	return a.Elems[idx]
}

type Map struct {
	Pairs map[string]Value
}

func NewMap() *Map {
	return &Map{Pairs: make(map[string]Value)}
}

func (m *Map) Kind() Kind       { return MAP_VAL }
func (m *Map) TypeName() string { return TypeMap }
func (m *Map) Inspect() string {
	keys := make([]string, 0, len(m.Pairs))
	for k := range m.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %s", k, m.Pairs[k].Inspect())
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}
func (m *Map) Clone() Value {
	pairs := make(map[string]Value, len(m.Pairs))
	for k, v := range m.Pairs {
		pairs[k] = v.Clone()
	}
	return &Map{Pairs: pairs}
}
func (m *Map) Hash() uint64 {
	h := hashString(TypeMap)
	for k, v := range m.Pairs {
		h ^= hashString(k) * 31
		h ^= v.Hash()
	}
	return h
}

// Bytes is a compact byte sequence. Distinct from Array to allow
// byte-level targets without boxing every element.
type Bytes struct {
	Data []byte
}

func (b *Bytes) Kind() Kind       { return BYTES_VAL }
func (b *Bytes) TypeName() string { return TypeBytes }
func (b *Bytes) Inspect() string  { return fmt.Sprintf("bytes(%x)", b.Data) }
func (b *Bytes) Clone() Value {
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	return &Bytes{Data: data}
}
func (b *Bytes) Hash() uint64 {
	h := hashString(TypeBytes)
	for _, c := range b.Data {
		h = h*31 + uint64(c)
	}
	return h
}

// clampIndex maps a possibly negative index into [0, length).
func clampIndex(idx, length int) int {
	if idx < 0 {
		idx += length
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}

// ClampIndex is clampIndex for callers outside the package.
func ClampIndex(idx, length int) int { return clampIndex(idx, length) }
