package value

import "sync"

// Cell is the aliasable, lockable holder behind a Shared value. It is the
// sole mechanism for closure capture and aliasing: every other variant is
// cloned when it crosses an ownership boundary.
//
// Locks are short-lived, scoped to the single statement or expression
// performing a mutation. The call dispatcher prevents two mutable
// arguments from referencing the same cell before a call begins.
type Cell struct {
	mu    sync.RWMutex
	value Value
}

func NewCell(v Value) *Cell { return &Cell{value: v} }

// Borrow returns the current content without cloning. The caller must not
// retain the result across a mutation of the cell.
func (c *Cell) Borrow() Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the content.
func (c *Cell) Set(v Value) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// Update applies fn to the content under the write lock and stores the
// result. fn must not re-enter the cell.
func (c *Cell) Update(fn func(Value) Value) {
	c.mu.Lock()
	c.value = fn(c.value)
	c.mu.Unlock()
}

// Shared is the aliasable wrapper variant. Cloning a Shared yields a
// value pointing at the same cell; use Flatten to get a detached copy of
// the content.
type Shared struct {
	Cell *Cell
}

func (s *Shared) Kind() Kind       { return SHARED_VAL }
func (s *Shared) TypeName() string { return s.Cell.Borrow().TypeName() }
func (s *Shared) Inspect() string  { return s.Cell.Borrow().Inspect() }
func (s *Shared) Clone() Value     { return &Shared{Cell: s.Cell} }
func (s *Shared) Hash() uint64     { return s.Cell.Borrow().Hash() }
