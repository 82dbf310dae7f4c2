package engine

import (
	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

type targetKind int

const (
	// targetSlot points at a mutable slot (a scope entry). Direct slots
	// are never destructively taken: the binding must stay valid.
	targetSlot targetKind = iota
	// targetShared points at the content of a shared cell; the write
	// lock is scoped to the single mutation.
	targetShared
	// targetTemp is a disposable temporary with no write-back.
	targetTemp
	// Synthesized sub-values: the host language cannot address a bit or
	// a character directly, so assignment re-encodes the sub-value into
	// the parent container with masking/shifting.
	targetBit
	targetBitRange
	targetBlobByte
	targetStringChar
	// targetMapEntry is a direct mutable slot inside an object map.
	targetMapEntry
	// targetCustom writes back through a supplied function (registered
	// property setters).
	targetCustom
)

// Target describes where a value came from so a mutation can be written
// back correctly. Targets are transient: created per assignment
// expression and discarded immediately after use.
type Target struct {
	kind   targetKind
	slot   *value.Value // targetSlot
	cell   *value.Cell  // targetShared
	val    value.Value  // current value (temp and synthesized kinds)
	source *Target      // parent container for synthesized kinds
	index  int          // bit offset / byte index / char index
	mask   int64        // targetBitRange
	shift  uint         // targetBitRange
	mapRef *value.Map   // targetMapEntry
	key    string       // targetMapEntry
	write  func(v value.Value, pos ast.Position) *RuntimeError // targetCustom
}

func mapEntryTarget(m *value.Map, key string) *Target {
	cur, ok := m.Pairs[key]
	if !ok {
		cur = value.UnitVal
	}
	return &Target{kind: targetMapEntry, mapRef: m, key: key, val: cur}
}

func customTarget(current value.Value, write func(v value.Value, pos ast.Position) *RuntimeError) *Target {
	return &Target{kind: targetCustom, val: current, write: write}
}

func targetFromSlot(slot *value.Value) *Target {
	if s, ok := (*slot).(*value.Shared); ok {
		return &Target{kind: targetShared, cell: s.Cell}
	}
	return &Target{kind: targetSlot, slot: slot}
}

func targetFromValue(v value.Value) *Target {
	if s, ok := v.(*value.Shared); ok {
		return &Target{kind: targetShared, cell: s.Cell}
	}
	return &Target{kind: targetTemp, val: v}
}

// IsMutable reports whether writing back is meaningful.
func (t *Target) IsMutable() bool { return t.kind != targetTemp }

// IsTemp reports whether the target is a disposable temporary.
func (t *Target) IsTemp() bool { return t.kind == targetTemp }

// SharedCell returns the aliasable cell behind the target, if any.
func (t *Target) SharedCell() *value.Cell {
	if t.kind == targetShared {
		return t.cell
	}
	return nil
}

// Value returns the current value without consuming the target.
func (t *Target) Value() value.Value {
	switch t.kind {
	case targetSlot:
		return *t.slot
	case targetShared:
		return t.cell.Borrow()
	default:
		return t.val
	}
}

// TakeOrClone converts the target into a caller-visible value: references
// are cloned (the original binding must remain valid), temporaries and
// synthesized sub-values are moved. This asymmetry is load-bearing for
// performance and must be preserved.
func (t *Target) TakeOrClone() value.Value {
	switch t.kind {
	case targetSlot:
		return (*t.slot).Clone()
	case targetShared:
		return t.cell.Borrow().Clone()
	case targetMapEntry:
		return t.val.Clone()
	default:
		return t.val
	}
}

// SetValue writes a new value through the target, re-encoding synthesized
// sub-values into their parent container. A type mismatch on write-back
// is a mismatched-type error, never a panic.
func (t *Target) SetValue(v value.Value, pos ast.Position) *RuntimeError {
	switch t.kind {
	case targetSlot:
		*t.slot = v
		return nil
	case targetShared:
		t.cell.Set(v)
		return nil
	case targetTemp:
		t.val = v
		return nil
	case targetMapEntry:
		t.mapRef.Pairs[t.key] = v
		t.val = v
		return nil
	case targetCustom:
		t.val = v
		return t.write(v, pos)
	case targetBit:
		b, ok := value.Flatten(v).(*value.Bool)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "expected bool for bit assignment, got %s", v.TypeName())
		}
		parent, ok := value.Flatten(t.source.Value()).(*value.Int)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "bit target parent is no longer an integer")
		}
		mask := int64(1) << uint(t.index)
		n := parent.Value
		if b.Value {
			n |= mask
		} else {
			n &^= mask
		}
		t.val = v
		return t.source.SetValue(&value.Int{Value: n}, pos)
	case targetBitRange:
		iv, ok := value.Flatten(v).(*value.Int)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "expected integer for bit-range assignment, got %s", v.TypeName())
		}
		parent, ok := value.Flatten(t.source.Value()).(*value.Int)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "bit-range target parent is no longer an integer")
		}
		n := parent.Value &^ t.mask
		n |= (iv.Value << t.shift) & t.mask
		t.val = v
		return t.source.SetValue(&value.Int{Value: n}, pos)
	case targetBlobByte:
		iv, ok := value.Flatten(v).(*value.Int)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "expected integer for byte assignment, got %s", v.TypeName())
		}
		parent, ok := value.Flatten(t.source.Value()).(*value.Bytes)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "byte target parent is no longer a byte array")
		}
		parent.Data[t.index] = byte(iv.Value & 0xff)
		t.val = v
		return nil
	case targetStringChar:
		c, ok := value.Flatten(v).(*value.Char)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "expected char for character assignment, got %s", v.TypeName())
		}
		parent, ok := value.Flatten(t.source.Value()).(*value.String)
		if !ok {
			return newErrorKind(ErrMismatchedTypes, pos, "character target parent is no longer a string")
		}
		runes := []rune(parent.Value)
		if t.index < 0 || t.index >= len(runes) {
			return newErrorKind(ErrMismatchedTypes, pos, "character index %d out of bounds", t.index)
		}
		runes[t.index] = c.Value
		t.val = v
		return t.source.SetValue(&value.String{Value: string(runes)}, pos)
	}
	return newError(pos, "invalid assignment target")
}

// bitTarget addresses one bit of an integer. The index is pre-validated
// by the indexing rules (negative counts from the end of the 64 bits).
func bitTarget(source *Target, bit int, pos ast.Position) (*Target, *RuntimeError) {
	parent, ok := value.Flatten(source.Value()).(*value.Int)
	if !ok {
		return nil, newErrorKind(ErrMismatchedTypes, pos, "bit access requires an integer, got %s", source.Value().TypeName())
	}
	if bit < 0 {
		bit += 64
	}
	if bit < 0 || bit >= 64 {
		return nil, newError(pos, "bit index %d out of bounds", bit)
	}
	set := parent.Value&(int64(1)<<uint(bit)) != 0
	return &Target{kind: targetBit, source: source, index: bit, val: value.FromBool(set)}, nil
}

// bitRangeTarget addresses a run of bits. Out-of-range portions mask to
// zero width instead of erroring.
func bitRangeTarget(source *Target, start, length int, pos ast.Position) (*Target, *RuntimeError) {
	parent, ok := value.Flatten(source.Value()).(*value.Int)
	if !ok {
		return nil, newErrorKind(ErrMismatchedTypes, pos, "bit-range access requires an integer, got %s", source.Value().TypeName())
	}
	if start < 0 {
		start += 64
	}
	if start < 0 {
		start = 0
	}
	if start > 63 {
		start, length = 0, 0
	}
	if length < 0 {
		length = 0
	}
	if start+length > 64 {
		length = 64 - start
	}
	var mask int64
	if length >= 64 {
		mask = -1
	} else {
		mask = ((int64(1) << uint(length)) - 1) << uint(start)
	}
	bits := (parent.Value & mask) >> uint(start)
	return &Target{
		kind:   targetBitRange,
		source: source,
		mask:   mask,
		shift:  uint(start),
		val:    &value.Int{Value: bits},
	}, nil
}

// blobByteTarget addresses one byte of a byte array. Negative indices
// count from the end.
func blobByteTarget(source *Target, idx int, pos ast.Position) (*Target, *RuntimeError) {
	parent, ok := value.Flatten(source.Value()).(*value.Bytes)
	if !ok {
		return nil, newErrorKind(ErrMismatchedTypes, pos, "byte access requires a byte array, got %s", source.Value().TypeName())
	}
	if len(parent.Data) == 0 {
		return nil, newError(pos, "byte index %d out of bounds", idx)
	}
	idx = value.ClampIndex(idx, len(parent.Data))
	return &Target{
		kind:   targetBlobByte,
		source: source,
		index:  idx,
		val:    &value.Int{Value: int64(parent.Data[idx])},
	}, nil
}

// stringCharTarget addresses one character of a string. Negative indices
// count from the end and clamp on read.
func stringCharTarget(source *Target, idx int, pos ast.Position) (*Target, *RuntimeError) {
	parent, ok := value.Flatten(source.Value()).(*value.String)
	if !ok {
		return nil, newErrorKind(ErrMismatchedTypes, pos, "character access requires a string, got %s", source.Value().TypeName())
	}
	runes := []rune(parent.Value)
	if len(runes) == 0 {
		return nil, newError(pos, "character index %d out of bounds", idx)
	}
	idx = value.ClampIndex(idx, len(runes))
	return &Target{
		kind:   targetStringChar,
		source: source,
		index:  idx,
		val:    &value.Char{Value: runes[idx]},
	}, nil
}
