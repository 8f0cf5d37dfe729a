package api

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/cst"
	"github.com/ChanTsune/wizc/internal/mlir"
)

// pointFile builds `struct Point { val x: Int64 }` `fun sum(_ p: Point) -> Int64 { return p.x }`
// directly as CST, the same shape an external parser would hand to Compile.
func pointFile() *File {
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
	return &File{Name: "test.wiz", Body: []cst.Decl{point, sum}}
}

func findFun(files []*MLIRFile, name string) bool {
	for _, f := range files {
		for _, d := range f.Body {
			if fn, ok := d.(*mlir.MLFun); ok && fn.Name == name {
				return true
			}
		}
	}
	return false
}

func TestCompileLowersStructAndFunction(t *testing.T) {
	result := Compile([]*File{pointFile()})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.FilesCompiled != 1 {
		t.Fatalf("expected 1 file compiled, got %d", result.FilesCompiled)
	}
	if result.DeclsLowered == 0 {
		t.Fatalf("expected at least one lowered declaration")
	}
	if len(result.MLIR) != 1 {
		t.Fatalf("expected 1 lowered file, got %d", len(result.MLIR))
	}
	if !findFun(result.MLIR, "test::sum##_#test::Point") {
		t.Fatalf("expected mangled sum, got: %+v", result.MLIR)
	}
}

func TestCompileReportsErrorsWithoutMLIR(t *testing.T) {
	bad := &cst.FunDecl{
		Name:       "broken",
		ReturnType: &cst.TypeExpr{Name: "Int64"},
		Body: &cst.Block{Stmts: []cst.Stmt{
			&cst.ExprStmt{Expr: &cst.ReturnExpr{Value: &cst.NameExpr{Name: "doesNotExist"}}},
		}},
	}
	f := &File{Name: "test.wiz", Body: []cst.Decl{bad}}

	result := Compile([]*File{f})
	if len(result.Errors) == 0 {
		t.Fatalf("expected at least one error")
	}
	if result.MLIR != nil {
		t.Fatalf("expected nil MLIR on error, got %+v", result.MLIR)
	}
}

func TestCompileWithOptionsDisableMangling(t *testing.T) {
	result := CompileWithOptions([]*File{pointFile()}, CompileOptions{DisableMangling: true})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !findFun(result.MLIR, "sum") {
		t.Fatalf("expected unmangled sum, got: %+v", result.MLIR)
	}
}

func TestCompileWithOptionsKeepNames(t *testing.T) {
	result := CompileWithOptions([]*File{pointFile()}, CompileOptions{
		KeepNames: []string{"test::sum"},
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !findFun(result.MLIR, "sum") {
		t.Fatalf("expected sum kept unmangled via KeepNames, got: %+v", result.MLIR)
	}
}
