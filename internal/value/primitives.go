package value

import (
	"fmt"
	"strconv"
	"time"
)

// Unit is the empty value ().
type Unit struct{}

func (u *Unit) Kind() Kind       { return UNIT_VAL }
func (u *Unit) TypeName() string { return TypeUnit }
func (u *Unit) Inspect() string  { return "()" }
func (u *Unit) Clone() Value     { return u }
func (u *Unit) Hash() uint64     { return hashString(TypeUnit) }

type Bool struct {
	Value bool
}

func (b *Bool) Kind() Kind       { return BOOL_VAL }
func (b *Bool) TypeName() string { return TypeBool }
func (b *Bool) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Bool) Clone() Value     { return &Bool{Value: b.Value} }
func (b *Bool) Hash() uint64 {
	if b.Value {
		return hashString("true")
	}
	return hashString("false")
}

type Int struct {
	Value int64
}

func (i *Int) Kind() Kind       { return INT_VAL }
func (i *Int) TypeName() string { return TypeInt }
func (i *Int) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Int) Clone() Value     { return &Int{Value: i.Value} }
func (i *Int) Hash() uint64     { return uint64(i.Value) }

type Float struct {
	Value float64
}

func (f *Float) Kind() Kind       { return FLOAT_VAL }
func (f *Float) TypeName() string { return TypeFloat }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }
func (f *Float) Clone() Value     { return &Float{Value: f.Value} }
func (f *Float) Hash() uint64     { return hashString(f.Inspect()) }

type Char struct {
	Value rune
}

func (c *Char) Kind() Kind       { return CHAR_VAL }
func (c *Char) TypeName() string { return TypeChar }
func (c *Char) Inspect() string  { return string(c.Value) }
func (c *Char) Clone() Value     { return &Char{Value: c.Value} }
func (c *Char) Hash() uint64     { return uint64(c.Value) }

type String struct {
	Value string
}

func (s *String) Kind() Kind       { return STRING_VAL }
func (s *String) TypeName() string { return TypeString }
func (s *String) Inspect() string  { return s.Value }
func (s *String) Clone() Value     { return &String{Value: s.Value} }
func (s *String) Hash() uint64     { return hashString(s.Value) }

// Timestamp is an opaque instant, comparable and subtractable through
// registered natives.
type Timestamp struct {
	Time time.Time
}

func (t *Timestamp) Kind() Kind       { return TIMESTAMP_VAL }
func (t *Timestamp) TypeName() string { return TypeTimestamp }
func (t *Timestamp) Inspect() string  { return t.Time.Format(time.RFC3339Nano) }
func (t *Timestamp) Clone() Value     { return &Timestamp{Time: t.Time} }
func (t *Timestamp) Hash() uint64     { return uint64(t.Time.UnixNano()) }

// Host wraps an opaque host (Go) value registered by the embedder. Name
// is the type identifier used in overload hashing.
type Host struct {
	Value any
	Name  string
}

func (h *Host) Kind() Kind       { return HOST_VAL }
func (h *Host) TypeName() string { return h.Name }
func (h *Host) Inspect() string  { return fmt.Sprintf("%s(%v)", h.Name, h.Value) }
func (h *Host) Clone() Value     { return &Host{Value: h.Value, Name: h.Name} }
func (h *Host) Hash() uint64     { return hashString(h.Name) }

// FnPtr points at a function by name, with optionally curried arguments
// that are prepended at call time.
type FnPtr struct {
	Name  string
	Curry []Value
}

func (f *FnPtr) Kind() Kind       { return FNPTR_VAL }
func (f *FnPtr) TypeName() string { return TypeFnPtr }
func (f *FnPtr) Inspect() string  { return "Fn(" + f.Name + ")" }
func (f *FnPtr) Clone() Value {
	curry := make([]Value, len(f.Curry))
	for i, c := range f.Curry {
		curry[i] = c.Clone()
	}
	return &FnPtr{Name: f.Name, Curry: curry}
}
func (f *FnPtr) Hash() uint64 { return hashString(f.Name) }

// Singletons for the values that carry no state.
var (
	UnitVal = &Unit{}
	TRUE    = &Bool{Value: true}
	FALSE   = &Bool{Value: false}
)

// FromBool returns the shared boolean singleton.
func FromBool(b bool) *Bool {
	if b {
		return TRUE
	}
	return FALSE
}
