package resolver

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/builtins"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

// pointStruct builds a minimal `struct Point { x: Int64; fun sum(self) { return self.x + self.x } }`
// (no declared return type).
func pointStruct() *hir.StructDecl {
	sum := &hir.FunDecl{
		Name: "sum",
		ArgDefs: []hir.ArgDef{
			{Label: "_", Name: "self", Type: types.Self},
		},
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ExprStmt{Expr: &hir.ReturnExpr{Value: &hir.BinOpExpr{
				Op:  hir.OpAdd,
				LHS: &hir.MemberExpr{Target: &hir.NameExpr{Name: "self"}, Name: "x"},
				RHS: &hir.MemberExpr{Target: &hir.NameExpr{Name: "self"}, Name: "x"},
			}}},
		}},
	}
	return &hir.StructDecl{
		Name: "Point",
		StoredProperties: []*hir.VarDecl{
			{Name: "x", Type: types.Named(types.Int64)},
		},
		MemberFunctions: []*hir.FunDecl{sum},
	}
}

func runPipeline(t *testing.T, f *hir.File) (*arena.Context, *diagnostic.List) {
	t.Helper()
	c := arena.New()
	builtins.Seed(c)
	var diags diagnostic.List
	Detect(c, &diags, f)
	Preload(c, &diags, f)
	Resolve(c, &diags, f)
	return c, &diags
}

func TestResolveMemberAndBinOpOnStruct(t *testing.T) {
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{pointStruct()}}
	_, diags := runPipeline(t, f)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}

	sum := f.Body[0].(*hir.StructDecl).MemberFunctions[0]
	ret := sum.Body.Stmts[0].(*hir.ExprStmt).Expr.(*hir.ReturnExpr)
	if ret.Value.Type() == nil || !ret.Value.Type().Equals(types.Named(types.Int64)) {
		t.Fatalf("expected self.x + self.x : Int64, got %v", ret.Value.Type())
	}
}

func TestResolveLiteralNarrowsToExpectedType(t *testing.T) {
	v := &hir.VarDecl{
		Name:  "n",
		Type:  types.Named(types.Int32),
		Value: &hir.LiteralExpr{Kind: hir.LitInt, IntValue: 3},
	}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{v}}
	_, diags := runPipeline(t, f)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if !v.Value.Type().Equals(types.Named(types.Int32)) {
		t.Fatalf("expected literal to narrow to Int32, got %v", v.Value.Type())
	}
}

func TestResolveUnknownNameProducesDiagnostic(t *testing.T) {
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{
		&hir.VarDecl{Name: "v", Value: &hir.NameExpr{Name: "doesNotExist"}},
	}}
	_, diags := runPipeline(t, f)
	if !diags.HasErrors() {
		t.Fatal("expected an unknown-name diagnostic")
	}
	if diags.Errors()[0].Category != diagnostic.UnknownName {
		t.Fatalf("expected UnknownName, got %v", diags.Errors()[0].Category)
	}
}

func TestResolveInitReturnsSelfType(t *testing.T) {
	initFn := &hir.FunDecl{
		Name:     "init",
		IsStatic: true,
		ArgDefs:  []hir.ArgDef{{Label: "x", Name: "x", Type: types.Named(types.Int64)}},
		Body:     &hir.Block{},
	}
	s := &hir.StructDecl{
		Name:             "Box",
		StoredProperties: []*hir.VarDecl{{Name: "x", Type: types.Named(types.Int64)}},
		MemberFunctions:  []*hir.FunDecl{initFn},
	}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{s}}
	c, diags := runPipeline(t, f)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	ns, _ := c.GetNamespace([]string{"test"})
	info, ok := c.LookupType(ns, "Box")
	if !ok {
		t.Fatal("expected StructInfo for Box")
	}
	sig, ok := info.StaticFunctions["init"].(types.FunctionType)
	if !ok {
		t.Fatal("expected init registered as a FunctionType")
	}
	want := types.NamedType{Pkg: types.ResolvedPackage{Path: []string{"test"}}, Name: "Box"}
	if !sig.Ret.Equals(want) {
		t.Fatalf("expected init to return %s, got %s", want, sig.Ret)
	}
}

func TestResolveArrayElementTypeMismatch(t *testing.T) {
	arr := &hir.ArrayExpr{Elems: []hir.Expr{
		&hir.LiteralExpr{Kind: hir.LitInt, IntValue: 1},
		&hir.LiteralExpr{Kind: hir.LitString, StringValue: "x"},
	}}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{
		&hir.VarDecl{Name: "a", Value: arr},
	}}
	_, diags := runPipeline(t, f)
	if !diags.HasErrors() {
		t.Fatal("expected a type-mismatch diagnostic for mixed array element types")
	}
}
