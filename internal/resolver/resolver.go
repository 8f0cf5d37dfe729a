// Package resolver implements Component D, the type resolver: three passes
// over a source set's HLIR that turn an untyped (or partially typed) tree
// into a fully-typed one (spec.md §4.D).
//
// Detect, Preload, and Resolve must run in that strict order over the
// whole source set before lowering begins (spec.md §5's "detect -> preload
// -> resolve phase order is strict"); internal/pipeline is the only
// intended caller of all three.
package resolver

import (
	"strings"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

// filePackagePath derives the namespace path a file's top-level
// declarations belong to from its unit name: segments are split on "/",
// and a trailing source extension on the last segment is stripped, so a
// unit named "test.wiz" declares into the single-segment package "test"
// and "a/b/test.wiz" declares into "a::b::test", matching the mangled
// names spec.md §8's scenarios expect (e.g. "test::A::init").
func filePackagePath(name string) []string {
	segs := strings.Split(name, "/")
	if n := len(segs); n > 0 {
		segs[n-1] = strings.TrimSuffix(segs[n-1], ".wiz")
	}
	var out []string
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyUses brings every one of f's use-declarations into scope and
// returns a function that un-applies them in reverse order, implementing
// spec.md §5's "applied at the start of each file, un-applied at its end".
func applyUses(c *arena.Context, f *hir.File) func() {
	for _, u := range f.Uses {
		c.UseNamespace(u.Path)
	}
	return func() {
		for i := len(f.Uses) - 1; i >= 0; i-- {
			c.UnuseNamespace(f.Uses[i].Path)
		}
	}
}

// substituteSelf returns t with every occurrence of the Self placeholder
// replaced by self, implementing spec.md §4.D "Self substitution". Types
// that carry no nested type (primitives, Self itself when self is nil)
// pass through unchanged.
func substituteSelf(t types.Type, self types.Type) types.Type {
	if t == nil || self == nil {
		return t
	}
	switch v := t.(type) {
	case types.SelfType:
		return self
	case types.ReferenceType:
		return types.ReferenceType{Elem: substituteSelf(v.Elem, self)}
	case types.PointerType:
		return types.PointerType{Elem: substituteSelf(v.Elem, self)}
	case types.ArrayType:
		return types.ArrayType{Elem: substituteSelf(v.Elem, self), Size: v.Size}
	case types.TupleType:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = substituteSelf(e, self)
		}
		return types.TupleType{Elems: elems}
	case types.NamedType:
		if len(v.TypeArgs) == 0 {
			return v
		}
		args := make([]types.Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = substituteSelf(a, self)
		}
		v.TypeArgs = args
		return v
	case types.FunctionType:
		args := make([]types.ArgType, len(v.Args))
		for i, a := range v.Args {
			args[i] = types.ArgType{Label: a.Label, Type: substituteSelf(a.Type, self)}
		}
		return types.FunctionType{Args: args, Ret: substituteSelf(v.Ret, self)}
	default:
		return t
	}
}

// substituteTypeParams replaces every NamedType bare-name occurrence in t
// matching one of bindings' keys with its bound type, implementing generic
// struct instantiation (SPEC_FULL §4.D "Generic struct instantiation").
func substituteTypeParams(t types.Type, bindings map[string]types.Type) types.Type {
	if t == nil || len(bindings) == 0 {
		return t
	}
	switch v := t.(type) {
	case types.ReferenceType:
		return types.ReferenceType{Elem: substituteTypeParams(v.Elem, bindings)}
	case types.PointerType:
		return types.PointerType{Elem: substituteTypeParams(v.Elem, bindings)}
	case types.ArrayType:
		return types.ArrayType{Elem: substituteTypeParams(v.Elem, bindings), Size: v.Size}
	case types.TupleType:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = substituteTypeParams(e, bindings)
		}
		return types.TupleType{Elems: elems}
	case types.NamedType:
		if v.Pkg.Segments().IsGlobal() && len(v.TypeArgs) == 0 {
			if bound, ok := bindings[v.Name]; ok {
				return bound
			}
		}
		if len(v.TypeArgs) == 0 {
			return v
		}
		args := make([]types.Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = substituteTypeParams(a, bindings)
		}
		v.TypeArgs = args
		return v
	case types.FunctionType:
		args := make([]types.ArgType, len(v.Args))
		for i, a := range v.Args {
			args[i] = types.ArgType{Label: a.Label, Type: substituteTypeParams(a.Type, bindings)}
		}
		return types.FunctionType{Args: args, Ret: substituteTypeParams(v.Ret, bindings)}
	default:
		return t
	}
}

// errf is a small helper that wraps a diagnostic.Category + formatted
// message and attributes it to declName, matching every other package's
// "collect, don't abort the source set" propagation rule (spec.md §7).
func errf(diags *diagnostic.List, declName string, cat diagnostic.Category, format string, args ...any) {
	diags.Add(declName, diagnostic.New(cat, format, args...))
}
