package lowering

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/builtins"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/mlir"
	"github.com/ChanTsune/wizc/internal/resolver"
	"github.com/ChanTsune/wizc/internal/types"
)

// resolveFile runs the full three-pass resolver over f and fails the test
// if any diagnostic was produced, returning the arena so the caller can
// build a lowering Context over it.
func resolveFile(t *testing.T, f *hir.File) *arena.Context {
	t.Helper()
	c := arena.New()
	builtins.Seed(c)
	var diags diagnostic.List
	resolver.Detect(c, &diags, f)
	resolver.Preload(c, &diags, f)
	resolver.Resolve(c, &diags, f)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	return c
}

// pointStruct builds `struct Point { x: Int64; fun sum(self) { return self.x + self.x } }`
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
		Name:             "Point",
		StoredProperties: []*hir.VarDecl{{Name: "x", Type: types.Named(types.Int64)}},
		MemberFunctions:  []*hir.FunDecl{sum},
	}
}

func findFun(file *mlir.File, name string) *mlir.MLFun {
	for _, d := range file.Body {
		if fn, ok := d.(*mlir.MLFun); ok && fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestLowerStructSynthesizesDefaultInit(t *testing.T) {
	s := pointStruct()
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{s}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	init := findFun(out, "test::Point::init##x#Int64")
	if init == nil {
		t.Fatalf("expected synthesized init, got decls: %+v", out.Body)
	}
	if len(init.Args) != 1 || init.Args[0].Name != "x" {
		t.Fatalf("expected init(x: Int64), got %+v", init.Args)
	}
	if len(init.Body) != 3 {
		t.Fatalf("expected [decl self, assign self.x, return self], got %d stmts", len(init.Body))
	}
	if _, ok := init.Body[0].(*mlir.MLDeclStmt); !ok {
		t.Fatalf("expected first stmt to declare self, got %T", init.Body[0])
	}
	if _, ok := init.Body[1].(*mlir.MLAssign); !ok {
		t.Fatalf("expected second stmt to assign self.x, got %T", init.Body[1])
	}
	ret, ok := init.Body[2].(*mlir.MLExprStmt)
	if !ok {
		t.Fatalf("expected third stmt to be an expr stmt, got %T", init.Body[2])
	}
	if _, ok := ret.Expr.(mlir.MLReturn); !ok {
		t.Fatalf("expected return self, got %T", ret.Expr)
	}
}

func TestLowerMemberFunctionMangledNameAndSelfFirstArg(t *testing.T) {
	s := pointStruct()
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{s}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	want := "test::Point::sum##_#test::Point"
	sum := findFun(out, want)
	if sum == nil {
		t.Fatalf("expected method mangled to %q, got decls: %+v", want, out.Body)
	}
	if len(sum.Args) != 1 || sum.Args[0].Name != "self" {
		t.Fatalf("expected self as the method's sole flat argument, got %+v", sum.Args)
	}
	if _, ok := sum.Args[0].Type.(mlir.MLStructType); !ok {
		t.Fatalf("expected self's type to be the lowered struct type, got %T", sum.Args[0].Type)
	}
}

// TestLowerOverloadedFreeFunctionsProduceDistinctMangledNames exercises
// spec.md §8's "overload-selection is injective" property end-to-end: two
// free functions named `f` with different argument types lower to two
// distinct mangled symbols.
func TestLowerOverloadedFreeFunctionsProduceDistinctMangledNames(t *testing.T) {
	fInt := &hir.FunDecl{
		Name:       "f",
		ArgDefs:    []hir.ArgDef{{Label: "_", Name: "n", Type: types.Named(types.Int64)}},
		ReturnType: types.Named(types.Int64),
		Body:       &hir.Block{},
	}
	fBool := &hir.FunDecl{
		Name:       "f",
		ArgDefs:    []hir.ArgDef{{Label: "_", Name: "b", Type: types.Named(types.Bool)}},
		ReturnType: types.Named(types.Int64),
		Body:       &hir.Block{},
	}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{fInt, fBool}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	a := findFun(out, "test::f##_#Int64")
	b := findFun(out, "test::f##_#Bool")
	if a == nil || b == nil {
		t.Fatalf("expected two distinctly-mangled overloads of f, got decls: %+v", out.Body)
	}
}

func TestLowerNoMangleAnnotationBypassesMangling(t *testing.T) {
	fn := &hir.FunDecl{
		Name:       "raw_syscall",
		ArgDefs:    []hir.ArgDef{{Label: "_", Name: "n", Type: types.Named(types.Int64)}},
		ReturnType: types.Named(types.Int64),
		Body:       &hir.Block{},
	}
	fn.Annotations = []string{"no_mangle"}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{fn}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	if findFun(out, "raw_syscall") == nil {
		t.Fatalf("expected unmangled name for a no_mangle function, got decls: %+v", out.Body)
	}
}

func TestLowerCallRewritesMethodCallToDirectMangledCall(t *testing.T) {
	sum := &hir.FunDecl{
		Name:    "sum",
		ArgDefs: []hir.ArgDef{{Label: "_", Name: "self", Type: types.Self}},
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ExprStmt{Expr: &hir.ReturnExpr{Value: &hir.MemberExpr{Target: &hir.NameExpr{Name: "self"}, Name: "x"}}},
		}},
	}
	s := &hir.StructDecl{
		Name:             "Point",
		StoredProperties: []*hir.VarDecl{{Name: "x", Type: types.Named(types.Int64)}},
		MemberFunctions:  []*hir.FunDecl{sum},
	}
	caller := &hir.FunDecl{
		Name: "use",
		ArgDefs: []hir.ArgDef{
			{Label: "_", Name: "p", Type: types.NamedType{Pkg: types.RawPackage{}, Name: "Point"}},
		},
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ExprStmt{Expr: &hir.ReturnExpr{Value: &hir.CallExpr{
				Target: &hir.MemberExpr{Target: &hir.NameExpr{Name: "p"}, Name: "sum"},
			}}},
		}},
	}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{s, caller}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	use := findFun(out, "test::use##_#test::Point")
	if use == nil {
		t.Fatalf("expected lowered `use`, got decls: %+v", out.Body)
	}
	ret := use.Body[0].(*mlir.MLExprStmt).Expr.(mlir.MLReturn)
	call, ok := ret.Value.(mlir.MLCall)
	if !ok {
		t.Fatalf("expected call expression, got %T", ret.Value)
	}
	target, ok := call.Target.(mlir.MLName)
	if !ok || target.Name != "test::Point::sum##_#test::Point" {
		t.Fatalf("expected direct mangled call to sum, got %+v", call.Target)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected self prepended as the sole argument, got %d args", len(call.Args))
	}
}

// TestLowerDefaultInitArgsMatchStoredPropertyOrder uses cmp.Diff to assert
// the synthesized initializer's argument names track stored-property
// declaration order exactly (spec.md §3's "labels = names, in declaration
// order"), and dumps the mismatching MLFun with spew on failure since an
// argument-order bug is otherwise awkward to spot from a %+v diff alone.
func TestLowerDefaultInitArgsMatchStoredPropertyOrder(t *testing.T) {
	s := &hir.StructDecl{
		Name: "Pair",
		StoredProperties: []*hir.VarDecl{
			{Name: "a", Type: types.Named(types.Int64)},
			{Name: "b", Type: types.Named(types.Bool)},
		},
	}
	f := &hir.File{Name: "test.wiz", Body: []hir.Decl{s}}
	c := resolveFile(t, f)

	ctx := NewContext(c, CollectNoMangle([]*hir.File{f}))
	out := ctx.LowerFile(f)

	init := findFun(out, "test::Pair::init##a#Int64##b#Bool")
	if init == nil {
		t.Fatalf("expected synthesized init, got decls: %s", spew.Sdump(out.Body))
	}
	gotNames := make([]string, len(init.Args))
	for i, a := range init.Args {
		gotNames[i] = a.Name
	}
	wantNames := []string{"a", "b"}
	if diff := cmp.Diff(wantNames, gotNames); diff != "" {
		t.Fatalf("init argument order mismatch (-want +got):\n%s\nfull MLFun: %s", diff, spew.Sdump(init))
	}
}
