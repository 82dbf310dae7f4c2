package module

import "testing"

func TestBaseHashDeterministic(t *testing.T) {
	if BaseHash("foo", 2) != BaseHash("foo", 2) {
		t.Error("same inputs must hash identically")
	}
}

func TestBaseHashDiscriminates(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
	}{
		{"name", BaseHash("foo", 1), BaseHash("bar", 1)},
		{"arity", BaseHash("foo", 1), BaseHash("foo", 2)},
		{"namespace", QualifiedBaseHash([]string{"m"}, "foo", 1), BaseHash("foo", 1)},
		{"path depth", QualifiedBaseHash([]string{"a", "b"}, "f", 0), QualifiedBaseHash([]string{"a"}, "f", 0)},
	}
	for _, tt := range tests {
		if tt.a == tt.b {
			t.Errorf("%s: hashes collide", tt.name)
		}
	}
}

func TestFullHashFoldsParamTypes(t *testing.T) {
	a := FullHash("f", []string{"i64"})
	b := FullHash("f", []string{"string"})
	if a == b {
		t.Error("different signatures must hash differently")
	}

	// Order matters.
	ab := FullHash("f", []string{"i64", "string"})
	ba := FullHash("f", []string{"string", "i64"})
	if ab == ba {
		t.Error("parameter order must be part of the hash")
	}
}

func TestHashSeparatorPreventsConcatenationCollisions(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not fold to the same bytes.
	a := QualifiedBaseHash([]string{"ab"}, "c", 0)
	b := QualifiedBaseHash([]string{"a"}, "bc", 0)
	if a == b {
		t.Error("namespace/name boundary lost in the hash")
	}

	c := FullHash("f", []string{"ab", "c"})
	d := FullHash("f", []string{"a", "bc"})
	if c == d {
		t.Error("type-name boundary lost in the hash")
	}
}

func TestQualifiedFullHashEmptyPathEqualsFullHash(t *testing.T) {
	if FullHash("f", []string{"i64"}) != QualifiedFullHash(nil, "f", []string{"i64"}) {
		t.Error("unqualified hash must be the empty-path qualified hash")
	}
}
