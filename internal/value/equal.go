package value

// Equal is structural equality over the value union. Shared cells compare
// by content. Function pointers compare by name and curried arguments.
func Equal(a, b Value) bool {
	a, b = Flatten(a), Flatten(b)
	switch av := a.(type) {
	case *Unit:
		_, ok := b.(*Unit)
		return ok
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case *Int:
		switch bv := b.(type) {
		case *Int:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Float:
			return av.Value == bv.Value
		case *Int:
			return av.Value == float64(bv.Value)
		}
		return false
	case *Char:
		bv, ok := b.(*Char)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Timestamp:
		bv, ok := b.(*Timestamp)
		return ok && av.Time.Equal(bv.Time)
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || len(av.Pairs) != len(bv.Pairs) {
			return false
		}
		for k, v := range av.Pairs {
			w, ok := bv.Pairs[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case *Bytes:
		bv, ok := b.(*Bytes)
		if !ok || len(av.Data) != len(bv.Data) {
			return false
		}
		for i := range av.Data {
			if av.Data[i] != bv.Data[i] {
				return false
			}
		}
		return true
	case *FnPtr:
		bv, ok := b.(*FnPtr)
		if !ok || av.Name != bv.Name || len(av.Curry) != len(bv.Curry) {
			return false
		}
		for i := range av.Curry {
			if !Equal(av.Curry[i], bv.Curry[i]) {
				return false
			}
		}
		return true
	case *Host:
		bv, ok := b.(*Host)
		return ok && av.Name == bv.Name && av.Value == bv.Value
	}
	return false
}
