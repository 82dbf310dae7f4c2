// Package scope implements the rewindable stack of named bindings that
// forms the lexical environment of an evaluation run.
package scope

import "github.com/funvibe/runic/internal/value"

type entry struct {
	name     string
	value    value.Value
	constant bool
}

// Scope is a flat ordered list of bindings. Entering a block or function
// saves the length; leaving rewinds to it. Shadowing is resolved by
// scanning from the end.
type Scope struct {
	entries []entry
}

func New() *Scope { return &Scope{} }

func (s *Scope) Len() int { return len(s.entries) }

// Push appends a mutable binding and returns its offset.
func (s *Scope) Push(name string, v value.Value) int {
	s.entries = append(s.entries, entry{name: name, value: v})
	return len(s.entries) - 1
}

// PushConstant appends a constant binding and returns its offset.
func (s *Scope) PushConstant(name string, v value.Value) int {
	s.entries = append(s.entries, entry{name: name, value: v, constant: true})
	return len(s.entries) - 1
}

// Rewind truncates back to a saved length. Rewinding above the current
// length is a no-op: truncation never removes entries below the mark.
func (s *Scope) Rewind(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.entries) {
		s.entries = s.entries[:n]
	}
}

// RemoveRange drops n entries starting at offset start, keeping later
// entries. Used to strip parameter bindings while preserving new locals
// in REPL-style incremental evaluation.
func (s *Scope) RemoveRange(start, n int) {
	if start < 0 || n <= 0 || start >= len(s.entries) {
		return
	}
	if start+n > len(s.entries) {
		n = len(s.entries) - start
	}
	s.entries = append(s.entries[:start], s.entries[start+n:]...)
}

// Search returns the offset of the newest binding with the given name,
// or -1 when unbound.
func (s *Scope) Search(name string) int {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].name == name {
			return i
		}
	}
	return -1
}

// Get reads the newest binding with the given name.
func (s *Scope) Get(name string) (value.Value, bool) {
	if i := s.Search(name); i >= 0 {
		return s.entries[i].value, true
	}
	return nil, false
}

func (s *Scope) GetByIndex(i int) value.Value { return s.entries[i].value }

func (s *Scope) NameByIndex(i int) string { return s.entries[i].name }

func (s *Scope) IsConstant(i int) bool { return s.entries[i].constant }

// SetByIndex overwrites the value of an existing binding.
func (s *Scope) SetByIndex(i int, v value.Value) { s.entries[i].value = v }

// ValuePtr returns a pointer to the binding's value slot. The pointer is
// only valid until the next Push; callers use it transiently to build
// assignment targets within a single statement.
func (s *Scope) ValuePtr(i int) *value.Value { return &s.entries[i].value }

// Names returns binding names oldest-first, for diagnostics and tests.
func (s *Scope) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}
