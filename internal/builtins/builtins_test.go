package builtins

import (
	"testing"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

func TestSeedRegistersEveryPrimitiveType(t *testing.T) {
	c := arena.New()
	Seed(c)
	for _, ty := range types.BuiltinTypes() {
		if _, ok := c.LookupType(c.CurrentNamespace(), ty.Name); !ok {
			t.Errorf("expected built-in type %s registered", ty.Name)
		}
	}
}

func TestSeedArithmeticIsIdentityTyped(t *testing.T) {
	c := arena.New()
	Seed(c)

	i64 := types.Named(types.Int64)
	got, ok := c.LookupBinOp(hir.OpAdd.Symbol(), i64, i64)
	if !ok || !got.Equals(i64) {
		t.Fatalf("expected Int64 + Int64 -> Int64, got %v, %v", got, ok)
	}

	dbl := types.Named(types.Double)
	got, ok = c.LookupBinOp(hir.OpMod.Symbol(), dbl, dbl)
	if !ok || !got.Equals(dbl) {
		t.Fatalf("expected Double %% Double -> Double, got %v, %v", got, ok)
	}
}

func TestSeedDoesNotMixOperandTypes(t *testing.T) {
	c := arena.New()
	Seed(c)

	i64 := types.Named(types.Int64)
	dbl := types.Named(types.Double)
	if _, ok := c.LookupBinOp(hir.OpAdd.Symbol(), i64, dbl); ok {
		t.Fatal("expected no entry for mixed Int64 + Double")
	}
}

func TestSeedDoesNotRegisterComparisonOperators(t *testing.T) {
	c := arena.New()
	Seed(c)

	i64 := types.Named(types.Int64)
	if _, ok := c.LookupBinOp(hir.OpLt.Symbol(), i64, i64); ok {
		t.Fatal("comparison operators are typed directly by the resolver, not via the table")
	}
}
