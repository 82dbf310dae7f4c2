package module

import (
	"testing"

	"github.com/funvibe/runic/internal/ast"
	"github.com/funvibe/runic/internal/value"
)

func nop(ctx NativeCallContext, args []value.Value) (value.Value, error) {
	return value.UnitVal, nil
}

func TestLookupFnPrefersTypedOverload(t *testing.T) {
	m := New("m")
	typed := m.SetNativeFn("f", AccessInternal, []string{value.TypeInt}, 1, nop)
	untyped := m.SetNativeFn("f", AccessInternal, nil, 1, nop)

	got, ok := m.LookupFn("f", []string{value.TypeInt})
	if !ok || got != typed {
		t.Error("typed overload must win for a matching signature")
	}
	got, ok = m.LookupFn("f", []string{value.TypeString})
	if !ok || got != untyped {
		t.Error("untyped entry must catch unmatched signatures")
	}
}

func TestLastRegistrationWins(t *testing.T) {
	m := New("m")
	m.SetNativeFn("f", AccessInternal, []string{value.TypeInt}, 1, nop)
	second := m.SetNativeFn("f", AccessInternal, []string{value.TypeInt}, 1, nop)

	got, ok := m.LookupFn("f", []string{value.TypeInt})
	if !ok || got != second {
		t.Error("re-registering the same signature must overwrite")
	}
}

func TestLookupFnByArity(t *testing.T) {
	m := New("m")
	sole := m.SetNativeFn("f", AccessInternal, []string{value.TypeInt}, 1, nop)

	got, ok := m.LookupFnByArity("f", 1)
	if !ok || got != sole {
		t.Error("a sole typed overload resolves by arity")
	}

	// A second typed overload of the same arity makes arity-only lookup
	// ambiguous.
	m.SetNativeFn("f", AccessInternal, []string{value.TypeString}, 1, nop)
	if _, ok := m.LookupFnByArity("f", 1); ok {
		t.Error("ambiguous arity lookup must fail")
	}

	// An untyped entry resolves the ambiguity.
	untyped := m.SetNativeFn("f", AccessInternal, nil, 1, nop)
	got, ok = m.LookupFnByArity("f", 1)
	if !ok || got != untyped {
		t.Error("untyped entry must win arity-only lookup")
	}
}

func TestScriptFnAccessFollowsDef(t *testing.T) {
	m := New("m")
	private := m.SetScriptFn(&ast.FnDef{Name: "p", Params: []string{"a"}})
	public := m.SetScriptFn(&ast.FnDef{Name: "g", Global: true})

	if private.Access != AccessInternal {
		t.Error("non-global script fn must be internal")
	}
	if public.Access != AccessGlobal {
		t.Error("global script fn must be re-exported")
	}
	if private.ParamCount != 1 {
		t.Errorf("script fn arity %d, want 1", private.ParamCount)
	}
}

func TestQualifiedLookupThroughSubModules(t *testing.T) {
	leaf := New("leaf")
	leafFn := leaf.SetNativeFn("deep", AccessInternal, nil, 0, nop)
	leaf.SetVar("marker", &value.Int{Value: 7})

	mid := New("mid")
	mid.SetSubModule("leaf", leaf)

	root := New("root")
	rootFn := root.SetNativeFn("top", AccessInternal, nil, 0, nop)
	root.SetSubModule("mid", mid)
	root.BuildIndex()

	got, ok := root.QualifiedFn(nil, "top", nil)
	if !ok || got != rootFn {
		t.Error("own function not found in the index")
	}
	got, ok = root.QualifiedFn([]string{"mid", "leaf"}, "deep", nil)
	if !ok || got != leafFn {
		t.Error("sub-module function not found under its qualified path")
	}
	if _, ok := root.QualifiedFn([]string{"leaf"}, "deep", nil); ok {
		t.Error("sub-module function must not be reachable under a wrong path")
	}

	v, ok := root.QualifiedVar([]string{"mid", "leaf"}, "marker")
	if !ok {
		t.Fatal("sub-module variable not found")
	}
	if v.(*value.Int).Value != 7 {
		t.Errorf("wrong variable value: %s", v.Inspect())
	}
}

func TestQualifiedLookupByArity(t *testing.T) {
	m := New("m")
	fn := m.SetNativeFn("scale", AccessInternal, nil, 2, nop)
	m.BuildIndex()

	if _, ok := m.QualifiedFn(nil, "scale", nil); ok {
		t.Error("signature lookup without types must miss an arity-2 entry")
	}
	got, ok := m.QualifiedFnByArity(nil, "scale", 2)
	if !ok || got != fn {
		t.Error("arity lookup must find the entry")
	}
	if _, ok := m.QualifiedFnByArity(nil, "scale", 1); ok {
		t.Error("wrong arity must miss")
	}
}

func TestQualifiedLookupRequiresIndex(t *testing.T) {
	m := New("m")
	m.SetNativeFn("f", AccessInternal, nil, 0, nop)
	if _, ok := m.QualifiedFn(nil, "f", nil); ok {
		t.Error("qualified lookup before BuildIndex must miss")
	}
	m.BuildIndex()
	if !m.Indexed() {
		t.Error("Indexed must report true after BuildIndex")
	}
	if _, ok := m.QualifiedFn(nil, "f", nil); !ok {
		t.Error("qualified lookup after BuildIndex must hit")
	}
}

func TestIteratorForSearchesSubModules(t *testing.T) {
	iter := func(v value.Value) (func() (value.Value, bool), error) {
		return func() (value.Value, bool) { return nil, false }, nil
	}
	sub := New("sub")
	sub.SetIterator("grid", iter)

	root := New("root")
	root.SetSubModule("sub", sub)

	if _, ok := root.IteratorFor("grid"); !ok {
		t.Error("iterator in a sub-module must be found from the root")
	}
	if _, ok := root.IteratorFor("missing"); ok {
		t.Error("unknown type must have no iterator")
	}
}

func TestVars(t *testing.T) {
	m := New("m")
	m.SetVar("x", &value.Int{Value: 1})
	if _, ok := m.Var("x"); !ok {
		t.Error("variable not found")
	}
	if _, ok := m.Var("y"); ok {
		t.Error("unknown variable must miss")
	}
}
