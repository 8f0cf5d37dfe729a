package pipeline

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/cst"
	"github.com/ChanTsune/wizc/internal/mlir"
)

// pointFile builds `struct Point { val x: Int64 }` `fun sum(_ p: Point) -> Int64 { return p.x }`
// directly as CST, exercising the pipeline's hir.Lower -> resolve -> lower chain end to end.
func pointFile() *cst.File {
	point := &cst.StructDecl{
		Name: "Point",
		Body: []cst.Decl{
			&cst.VarDecl{Name: "x", Type: &cst.TypeExpr{Name: "Int64"}},
		},
	}
	sum := &cst.FunDecl{
		Name: "sum",
		Args: []cst.ArgDef{
			{Label: "_", Name: "p", Type: &cst.TypeExpr{Name: "Point"}},
		},
		ReturnType: &cst.TypeExpr{Name: "Int64"},
		Body: &cst.Block{Stmts: []cst.Stmt{
			&cst.ExprStmt{Expr: &cst.ReturnExpr{Value: &cst.MemberExpr{
				Target: &cst.NameExpr{Name: "p"}, Name: "x",
			}}},
		}},
	}
	return &cst.File{Name: "test.wiz", Body: []cst.Decl{point, sum}}
}

func findFun(files []*mlir.File, name string) *mlir.MLFun {
	for _, f := range files {
		for _, d := range f.Body {
			if fn, ok := d.(*mlir.MLFun); ok && fn.Name == name {
				return fn
			}
		}
	}
	return nil
}

func TestCompileLowersStructAndFunction(t *testing.T) {
	result := Compile([]*cst.File{pointFile()})
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Diagnostics.Errors())
	}
	if result.Stats.FilesCompiled != 1 {
		t.Fatalf("expected 1 file compiled, got %d", result.Stats.FilesCompiled)
	}
	if findFun(result.MLIR, "test::sum##_#test::Point") == nil {
		t.Fatalf("expected lowered sum, got: %+v", result.MLIR)
	}
	// Default init synthesized since Point declares no init.
	if findFun(result.MLIR, "test::Point::init##x#Int64") == nil {
		t.Fatalf("expected synthesized default init, got: %+v", result.MLIR)
	}
}

func TestCompileReportsUnknownNameWithoutLowering(t *testing.T) {
	bad := &cst.FunDecl{
		Name:       "broken",
		ReturnType: &cst.TypeExpr{Name: "Int64"},
		Body: &cst.Block{Stmts: []cst.Stmt{
			&cst.ExprStmt{Expr: &cst.ReturnExpr{Value: &cst.NameExpr{Name: "doesNotExist"}}},
		}},
	}
	f := &cst.File{Name: "test.wiz", Body: []cst.Decl{bad}}

	result := Compile([]*cst.File{f})
	if !result.Diagnostics.HasErrors() {
		t.Fatalf("expected an unknown-name error")
	}
	if result.MLIR != nil {
		t.Fatalf("expected no MLIR output when resolution fails, got %+v", result.MLIR)
	}
}

func TestCompileWithOptionsDisableManglingBypassesSuffix(t *testing.T) {
	result := CompileWithOptions([]*cst.File{pointFile()}, Options{DisableMangling: true})
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Diagnostics.Errors())
	}
	if findFun(result.MLIR, "sum") == nil {
		t.Fatalf("expected unmangled `sum` with DisableMangling, got: %+v", result.MLIR)
	}
}
