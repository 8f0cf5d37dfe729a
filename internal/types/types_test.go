package types

import "testing"

func TestNamedTypeEquality(t *testing.T) {
	a := Named(Int64)
	b := Named(Int64)
	if !a.Equals(b) {
		t.Errorf("expected %s to equal %s", a, b)
	}
	c := Named(Int32)
	if a.Equals(c) {
		t.Errorf("did not expect %s to equal %s", a, c)
	}
}

func TestNamedTypeWithPackageInequality(t *testing.T) {
	a := NamedType{Pkg: ResolvedPackage{Path: Package{"a", "b"}}, Name: "Foo"}
	b := NamedType{Pkg: ResolvedPackage{Path: Package{"a", "c"}}, Name: "Foo"}
	if a.Equals(b) {
		t.Errorf("expected different packages to make %s != %s", a, b)
	}
}

func TestDereference(t *testing.T) {
	inner := Named(Int32)
	ref := ReferenceType{Elem: inner}
	ptr := PointerType{Elem: inner}

	if got, ok := Dereference(ref); !ok || !got.Equals(inner) {
		t.Errorf("Dereference(%s) = %v, %v; want %s, true", ref, got, ok, inner)
	}
	if got, ok := Dereference(ptr); !ok || !got.Equals(inner) {
		t.Errorf("Dereference(%s) = %v, %v; want %s, true", ptr, got, ok, inner)
	}
	if _, ok := Dereference(inner); ok {
		t.Errorf("Dereference(%s) should fail on a non-reference/pointer type", inner)
	}
}

func TestBuiltinPredicates(t *testing.T) {
	cases := []struct {
		name string
		t    Type
		want func(Type) bool
	}{
		{"Int64 is integer", Named(Int64), IsInteger},
		{"Double is floating point", Named(Double), IsFloatingPoint},
		{"Bool is boolean", Named(Bool), IsBoolean},
		{"String is string", Named(String), IsString},
	}
	for _, c := range cases {
		if !c.want(c.t) {
			t.Errorf("%s: predicate failed for %s", c.name, c.t)
		}
	}
	if IsInteger(Named(Bool)) {
		t.Error("Bool should not be an integer type")
	}
}

func TestDefaultLiteralTypes(t *testing.T) {
	if !DefaultIntegerType().Equals(Named(Int64)) {
		t.Errorf("default integer type should be Int64, got %s", DefaultIntegerType())
	}
	if !DefaultFloatType().Equals(Named(Double)) {
		t.Errorf("default float type should be Double, got %s", DefaultFloatType())
	}
}

func TestBuiltinTypesCoverage(t *testing.T) {
	got := BuiltinTypes()
	if len(got) != 16 {
		t.Fatalf("expected 16 builtin types, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, ty := range got {
		seen[ty.Name] = true
	}
	for _, want := range []string{Noting, Unit, Bool, Int64, UInt64, Float, Double, String} {
		if !seen[want] {
			t.Errorf("builtin set missing %s", want)
		}
	}
}

func TestFunctionTypeEquals(t *testing.T) {
	a := FunctionType{Args: []ArgType{{Label: "x", Type: Named(Int64)}}, Ret: Named(Bool)}
	b := FunctionType{Args: []ArgType{{Label: "x", Type: Named(Int64)}}, Ret: Named(Bool)}
	if !a.Equals(b) {
		t.Errorf("expected %s to equal %s", a, b)
	}
	c := FunctionType{Args: []ArgType{{Label: "y", Type: Named(Int64)}}, Ret: Named(Bool)}
	if a.Equals(c) {
		t.Errorf("did not expect %s to equal %s (different label)", a, c)
	}
}
