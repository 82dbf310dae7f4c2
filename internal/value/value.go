package value

import "hash/fnv"

// Kind discriminates the closed set of runtime value variants.
type Kind string

const (
	UNIT_VAL      Kind = "UNIT"
	BOOL_VAL      Kind = "BOOL"
	INT_VAL       Kind = "INT"
	FLOAT_VAL     Kind = "FLOAT"
	CHAR_VAL      Kind = "CHAR"
	STRING_VAL    Kind = "STRING"
	ARRAY_VAL     Kind = "ARRAY"
	MAP_VAL       Kind = "MAP"
	BYTES_VAL     Kind = "BYTES"
	FNPTR_VAL     Kind = "FN_PTR"
	TIMESTAMP_VAL Kind = "TIMESTAMP"
	HOST_VAL      Kind = "HOST"
	SHARED_VAL    Kind = "SHARED"
)

// Canonical type names, used both for diagnostics and as the type
// identifiers folded into function-resolution hashes.
const (
	TypeUnit      = "()"
	TypeBool      = "bool"
	TypeInt       = "i64"
	TypeFloat     = "f64"
	TypeChar      = "char"
	TypeString    = "string"
	TypeArray     = "array"
	TypeMap       = "map"
	TypeBytes     = "bytes"
	TypeFnPtr     = "Fn"
	TypeTimestamp = "timestamp"
)

// Value is the dynamically-typed runtime value. All variants except the
// shared cell behave as values: crossing an ownership boundary clones
// them. Only *Shared may have more than one owner.
type Value interface {
	Kind() Kind
	// TypeName is the canonical type identifier used in overload hashing.
	TypeName() string
	// Inspect renders the value for diagnostics.
	Inspect() string
	// Clone produces an independent copy. Containers copy deeply; a
	// shared cell clones to the same cell.
	Clone() Value
	Hash() uint64
}

// hashString folds a string with FNV-64a.
func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Flatten dereferences a shared cell, cloning its content; any other
// value is returned unchanged.
func Flatten(v Value) Value {
	if s, ok := v.(*Shared); ok {
		return s.Cell.Borrow().Clone()
	}
	return v
}

// Share wraps a value in a fresh shared cell. Sharing a shared value
// returns it unchanged.
func Share(v Value) *Shared {
	if s, ok := v.(*Shared); ok {
		return s
	}
	return &Shared{Cell: &Cell{value: v}}
}

// IsUnit reports whether v is the unit value, looking through sharing.
func IsUnit(v Value) bool {
	if s, ok := v.(*Shared); ok {
		v = s.Cell.Borrow()
	}
	_, ok := v.(*Unit)
	return ok
}

// IsTruthy implements boolean coercion at control-flow boundaries: false
// and unit are falsey, everything else is truthy.
func IsTruthy(v Value) bool {
	switch v := Flatten(v).(type) {
	case *Bool:
		return v.Value
	case *Unit:
		return false
	default:
		return true
	}
}
