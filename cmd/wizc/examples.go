package main

import "github.com/ChanTsune/wizc/internal/cst"

// Since internal/cst's node shapes are produced by a parser outside this
// module's scope, wizc has no source file to read from disk. These
// built-in examples stand in for it, so the debug harness still has
// something to run the pipeline over.

var examples = map[string]func() *cst.File{
	"point":    pointExample,
	"overload": overloadExample,
}

// pointExample is `struct Point { val x: Int64 }` `fun sum(_ p: Point) -> Int64 { return p.x }`.
func pointExample() *cst.File {
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
	return &cst.File{Name: "point.wiz", Body: []cst.Decl{point, sum}}
}

// overloadExample is two free functions named `f`, one over Int64 and one
// over Bool, demonstrating that the two overloads get distinct mangled
// symbols.
func overloadExample() *cst.File {
	fInt := &cst.FunDecl{
		Name: "f",
		Args: []cst.ArgDef{
			{Label: "_", Name: "n", Type: &cst.TypeExpr{Name: "Int64"}},
		},
		ReturnType: &cst.TypeExpr{Name: "Int64"},
		Body:       &cst.Block{Stmts: []cst.Stmt{&cst.ExprStmt{Expr: &cst.ReturnExpr{Value: &cst.NameExpr{Name: "n"}}}}},
	}
	fBool := &cst.FunDecl{
		Name: "f",
		Args: []cst.ArgDef{
			{Label: "_", Name: "b", Type: &cst.TypeExpr{Name: "Bool"}},
		},
		ReturnType: &cst.TypeExpr{Name: "Int64"},
		Body: &cst.Block{Stmts: []cst.Stmt{&cst.ExprStmt{Expr: &cst.ReturnExpr{Value: &cst.LiteralExpr{Kind: cst.LiteralInt, Text: "0"}}}}},
	}
	return &cst.File{Name: "overload.wiz", Body: []cst.Decl{fInt, fBool}}
}
