package mlirdump

import (
	"strings"
	"testing"

	"github.com/ChanTsune/wizc/internal/mlir"
)

func TestDumpFunWithReturn(t *testing.T) {
	f := &mlir.File{
		Name: "test",
		Body: []mlir.Decl{
			&mlir.MLFun{
				Name: "test::sum##_#test::Point",
				Args: []mlir.MLArg{{Name: "p", Type: mlir.MLStructType{MangledName: "test::Point"}}},
				Ret:  mlir.MLPrimitive{Name: "Int64"},
				Body: []mlir.Stmt{
					&mlir.MLExprStmt{Expr: mlir.MLReturn{
						Value: mlir.MLMember{
							Target: mlir.MLName{Name: "p"},
							Name:   "x",
						},
					}},
				},
			},
		},
	}

	out := Dump([]*mlir.File{f})
	if !strings.Contains(out, "fun test::sum##_#test::Point(p: test::Point) -> Int64 {") {
		t.Fatalf("missing function header, got:\n%s", out)
	}
	if !strings.Contains(out, "return p.x") {
		t.Fatalf("missing return statement, got:\n%s", out)
	}
}

func TestDumpStruct(t *testing.T) {
	f := &mlir.File{
		Name: "test",
		Body: []mlir.Decl{
			&mlir.MLStruct{
				MangledName: "test::Point",
				Fields:      []mlir.MLField{{Name: "x", Type: mlir.MLPrimitive{Name: "Int64"}}},
			},
		},
	}

	out := Dump([]*mlir.File{f})
	if !strings.Contains(out, "struct test::Point {") {
		t.Fatalf("missing struct header, got:\n%s", out)
	}
	if !strings.Contains(out, "x: Int64") {
		t.Fatalf("missing field, got:\n%s", out)
	}
}

func TestDumpBinOpAndLiteral(t *testing.T) {
	f := &mlir.File{
		Name: "test",
		Body: []mlir.Decl{
			&mlir.MLFun{
				Name: "add",
				Ret:  mlir.MLPrimitive{Name: "Int64"},
				Body: []mlir.Stmt{
					&mlir.MLExprStmt{Expr: mlir.MLReturn{
						Value: mlir.PrimitiveBinOp{
							Op:  mlir.MLAdd,
							LHS: mlir.MLIntLiteral{Value: 1},
							RHS: mlir.MLIntLiteral{Value: 2},
						},
					}},
				},
			},
		},
	}

	out := Dump([]*mlir.File{f})
	if !strings.Contains(out, "return 1 + 2") {
		t.Fatalf("missing binop expression, got:\n%s", out)
	}
}
