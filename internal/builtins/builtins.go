// Package builtins seeds a fresh resolver arena (internal/arena, Component
// C) with the fixed set of built-in primitive types and the
// binary-operator table, before any source file is traversed (spec.md
// §4.C data model item (e); SPEC_FULL §2).
//
// Every type here lives in the global package: there is no user-facing
// declaration a programmer could point at, so Seed runs once per pipeline
// run rather than once per file.
package builtins

import (
	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

// arithmeticOps is the fixed set of operators the table seeds with
// identity-typed arithmetic (lhs == rhs == result). Comparison, equality,
// and logical operators never consult the table: the resolver always
// types those Bool directly (spec.md §4.D "Binary operation resolution").
var arithmeticOps = []hir.BinOp{hir.OpAdd, hir.OpSub, hir.OpMul, hir.OpDiv, hir.OpMod}

// Seed registers every built-in primitive type in c's global namespace and
// populates c's binary-operator table with identity-typed arithmetic on
// every integer and floating-point type. Call this once, before Detect
// runs over the first file.
func Seed(c *arena.Context) {
	for _, t := range types.BuiltinTypes() {
		c.RegisterType(c.CurrentNamespace(), t.Name, arena.NewStructInfo())
	}
	seedArithmetic(c, types.IntegerTypes())
	seedArithmetic(c, types.FloatingPointTypes())
}

func seedArithmetic(c *arena.Context, numeric []types.NamedType) {
	for _, t := range numeric {
		for _, op := range arithmeticOps {
			c.RegisterBinOp(op.Symbol(), t, t, t)
		}
	}
}
