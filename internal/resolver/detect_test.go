package resolver

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

func TestDetectRegistersStructNameAndType(t *testing.T) {
	c := arena.New()
	var diags diagnostic.List
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{
		&hir.StructDecl{Name: "A"},
	}}
	Detect(c, &diags, f)

	ns, err := c.GetNamespace([]string{"test"})
	if err != nil {
		t.Fatalf("expected namespace 'test' to exist: %v", err)
	}
	if _, ok := c.LookupType(ns, "A"); !ok {
		t.Fatal("expected StructInfo registered for A")
	}
	vs, ok := c.LookupValues(ns, "A")
	if !ok || len(vs) != 1 {
		t.Fatalf("expected one value entry for A, got %v", vs)
	}
	tot, ok := vs[0].(types.TypeOfType)
	if !ok || tot.Of.String() != "test::A" {
		t.Fatalf("expected Type<test::A>, got %v", vs[0])
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	c := arena.New()
	var diags diagnostic.List
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{&hir.StructDecl{Name: "A"}}}
	Detect(c, &diags, f)
	Detect(c, &diags, f)

	ns, _ := c.GetNamespace([]string{"test"})
	vs, _ := c.LookupValues(ns, "A")
	if len(vs) != 1 {
		t.Fatalf("expected Detect to not duplicate A's value entry, got %d", len(vs))
	}
}
