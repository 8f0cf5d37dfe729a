package resolver

import (
	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/types"
)

// Preload is Pass 2 (spec.md §4.D "preload"): fully resolve every
// stored-property, computed-property, member-function, and free-function
// signature, writing them into the arena's StructInfo / namespace values so
// Pass 3 (Resolve) can type expression bodies against a complete picture of
// every declaration in the source set, not just the ones that happen to
// precede it textually.
func Preload(c *arena.Context, diags *diagnostic.List, f *hir.File) {
	g := c.PushPath(filePackagePath(f.Name))
	defer g.Close()
	undo := applyUses(c, f)
	defer undo()

	for _, d := range f.Body {
		switch v := d.(type) {
		case *hir.StructDecl:
			preloadStruct(c, diags, v)
		case *hir.ProtocolDecl:
			preloadProtocol(c, diags, v)
		case *hir.ExtensionDecl:
			preloadExtension(c, diags, v)
		case *hir.FunDecl:
			preloadFreeFunction(c, diags, v)
		case *hir.VarDecl:
			preloadGlobalVar(c, diags, v)
		}
	}
}

func preloadStruct(c *arena.Context, diags *diagnostic.List, v *hir.StructDecl) {
	ns := c.CurrentNamespace()
	info, ok := c.LookupType(ns, v.Name)
	if !ok {
		return // Detect did not run first; nothing to fill in.
	}
	info.TypeParams = v.TypeParams
	selfType := types.NamedType{Pkg: c.CurrentPackage(), Name: v.Name}

	guard := c.SetCurrentType(selfType)
	defer guard.Close()

	for _, prop := range v.StoredProperties {
		rt := resolveType(c, diags, v.Name+"."+prop.Name, prop.Type)
		prop.Type = rt
		info.StoredProperties[prop.Name] = rt
		prop.SetDeclPackage(c.CurrentPackage())
	}
	for _, cp := range v.ComputedProperties {
		info.ComputedProperties[cp.Name] = resolveComputedPropertyType(c, diags, v.Name, cp, selfType)
		cp.SetDeclPackage(c.CurrentPackage())
	}
	for _, mf := range v.MemberFunctions {
		sig := resolveFunSignature(c, diags, v.Name, mf, selfType)
		if mf.IsStatic {
			info.StaticFunctions[mf.Name] = sig
		} else {
			info.MemberFunctions[mf.Name] = sig
		}
		mf.SetDeclPackage(c.CurrentPackage())
	}
}

func preloadProtocol(c *arena.Context, diags *diagnostic.List, v *hir.ProtocolDecl) {
	ns := c.CurrentNamespace()
	info, ok := c.LookupType(ns, v.Name)
	if !ok {
		return
	}
	guard := c.SetCurrentType(types.Self)
	defer guard.Close()

	for _, cp := range v.ComputedProperties {
		info.ComputedProperties[cp.Name] = resolveComputedPropertyType(c, diags, v.Name, cp, types.Self)
		cp.SetDeclPackage(c.CurrentPackage())
	}
	for _, mf := range v.MemberFunctions {
		sig := resolveFunSignature(c, diags, v.Name, mf, types.Self)
		if mf.IsStatic {
			info.StaticFunctions[mf.Name] = sig
		} else {
			info.MemberFunctions[mf.Name] = sig
		}
		mf.SetDeclPackage(c.CurrentPackage())
	}
}

// preloadExtension locates the StructInfo of the (already-detected) target
// type -- possibly in a different namespace than the extension itself --
// and merges the extension's members and protocol conformance into it.
func preloadExtension(c *arena.Context, diags *diagnostic.List, v *hir.ExtensionDecl) {
	target := resolveType(c, diags, "extension", v.TargetType)
	v.TargetType = target
	named, ok := target.(types.NamedType)
	if !ok {
		errf(diags, "extension", diagnostic.TypeMismatch, "extension target must be a named type, got %s", target.String())
		return
	}
	idx, err := c.GetNamespace(named.Pkg.Segments())
	if err != nil {
		errf(diags, "extension", diagnostic.NamespaceMissing, "unknown namespace for extension target %s", named.String())
		return
	}
	info, ok := c.LookupType(idx, named.Name)
	if !ok {
		errf(diags, "extension", diagnostic.UnknownName, "unknown extension target type %s", named.String())
		return
	}
	pkg := types.ResolvedPackage{Path: append([]string(nil), named.Pkg.Segments()...)}

	if v.Protocol != nil {
		p := resolveType(c, diags, "extension", v.Protocol)
		v.Protocol = p
		if pn, ok := p.(types.NamedType); ok {
			info.Conforms = append(info.Conforms, append(append(types.Package(nil), pn.Pkg.Segments()...), pn.Name))
		}
	}

	guard := c.SetCurrentType(named)
	defer guard.Close()

	for _, cp := range v.ComputedProperties {
		info.ComputedProperties[cp.Name] = resolveComputedPropertyType(c, diags, named.Name, cp, named)
		cp.SetDeclPackage(pkg)
	}
	for _, mf := range v.MemberFunctions {
		sig := resolveFunSignature(c, diags, named.Name, mf, named)
		if mf.IsStatic {
			info.StaticFunctions[mf.Name] = sig
		} else {
			info.MemberFunctions[mf.Name] = sig
		}
		mf.SetDeclPackage(pkg)
	}
}

func preloadFreeFunction(c *arena.Context, diags *diagnostic.List, v *hir.FunDecl) {
	sig := resolveFunSignature(c, diags, v.Name, v, nil)
	c.RegisterValue(c.CurrentNamespace(), v.Name, sig)
	v.SetDeclPackage(c.CurrentPackage())
}

// preloadGlobalVar resolves a top-level val/var's declared type, if any,
// so forward references can see it. An implicit-typed global's type is
// only known once Pass 3 resolves its initializer expression.
func preloadGlobalVar(c *arena.Context, diags *diagnostic.List, v *hir.VarDecl) {
	if v.Type != nil {
		v.Type = resolveType(c, diags, v.Name, v.Type)
		c.RegisterValue(c.CurrentNamespace(), v.Name, v.Type)
	}
	v.SetDeclPackage(c.CurrentPackage())
}

// resolveFunSignature resolves fn's argument and return types in place and
// returns the resulting FunctionType. selfType is the concrete type "self"
// binds to (nil for a free function, types.Self inside an unresolved
// protocol signature). An "init" function's return type is always
// selfType, matching spec.md §4.D's "return type = the struct's Named
// type" rule, regardless of any declared annotation.
func resolveFunSignature(c *arena.Context, diags *diagnostic.List, ownerLabel string, fn *hir.FunDecl, selfType types.Type) types.FunctionType {
	label := ownerLabel + "." + fn.Name
	args := make([]types.ArgType, 0, len(fn.ArgDefs))
	for i := range fn.ArgDefs {
		ad := &fn.ArgDefs[i]
		if ad.Name == "self" {
			t := selfType
			if ad.SelfRef && t != nil {
				t = types.ReferenceType{Elem: t}
			}
			ad.Type = t
			args = append(args, types.ArgType{Label: ad.Label, Type: t})
			continue
		}
		rt := resolveType(c, diags, label, ad.Type)
		ad.Type = rt
		args = append(args, types.ArgType{Label: ad.Label, Type: rt})
	}

	var ret types.Type
	switch {
	case fn.Name == "init" && selfType != nil:
		ret = selfType
	case fn.ReturnType != nil:
		ret = resolveType(c, diags, label, fn.ReturnType)
	case fn.Body != nil:
		ret = inferReturnType(fn.Body)
	default:
		errf(diags, label, diagnostic.InferenceFailure,
			"function %q has no declared return type and no body to infer one from", fn.Name)
		ret = types.Named(types.Unit)
	}
	fn.ReturnType = ret
	return types.FunctionType{Args: args, Ret: ret}
}

// resolveComputedPropertyType resolves cp's signature and returns its
// result type -- a computed property's StructInfo entry is the property's
// value type, not a FunctionType, matching spec.md §3's "all as name ->
// Type maps" for stored and computed properties alike.
func resolveComputedPropertyType(c *arena.Context, diags *diagnostic.List, ownerLabel string, cp *hir.FunDecl, selfType types.Type) types.Type {
	return resolveFunSignature(c, diags, ownerLabel, cp, selfType).Ret
}

// inferReturnType approximates spec.md §4.D's "infer from the expression
// body" rule for the one case decidable without a full mutual-inference
// pass across the source set: a single-statement expression body whose
// expression already carries a type (a literal, or an already-resolved
// sub-expression). Anything else falls back to Unit, matching the
// block-bodied rule literally -- full bidirectional inference across
// forward-referenced declarations is explicitly a Non-goal (spec.md §1).
func inferReturnType(body *hir.Block) types.Type {
	if body == nil || len(body.Stmts) != 1 {
		return types.Named(types.Unit)
	}
	if es, ok := body.Stmts[0].(*hir.ExprStmt); ok {
		if t := es.Expr.Type(); t != nil {
			return t
		}
	}
	return types.Named(types.Unit)
}

// resolveType resolves every Raw package reference inside t against c's
// arena, implementing spec.md §4.D's bare-name and explicit-path type
// lookup. SelfType passes through unchanged (substituted later, once a
// concrete current_type is known at the use site).
func resolveType(c *arena.Context, diags *diagnostic.List, declName string, t types.Type) types.Type {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case types.SelfType:
		return v
	case types.ReferenceType:
		return types.ReferenceType{Elem: resolveType(c, diags, declName, v.Elem)}
	case types.PointerType:
		return types.PointerType{Elem: resolveType(c, diags, declName, v.Elem)}
	case types.ArrayType:
		return types.ArrayType{Elem: resolveType(c, diags, declName, v.Elem), Size: v.Size}
	case types.TupleType:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = resolveType(c, diags, declName, e)
		}
		return types.TupleType{Elems: elems}
	case types.NamedType:
		raw, isRaw := v.Pkg.(types.RawPackage)
		if !isRaw {
			v.TypeArgs = resolveTypeArgs(c, diags, declName, v.TypeArgs)
			return v
		}
		var pkg types.PackageRef
		if len(raw.Path) > 0 {
			idx, err := c.GetNamespace(raw.Path)
			if err != nil {
				errf(diags, declName, diagnostic.NamespaceMissing, "unknown namespace %s", raw.Path.String())
				return v
			}
			if _, ok := c.LookupType(idx, v.Name); !ok {
				errf(diags, declName, diagnostic.UnknownName, "unknown type %s::%s", raw.Path.String(), v.Name)
				return v
			}
			pkg = types.ResolvedPackage{Path: raw.Path}
		} else {
			_, resolvedPkg, ok := c.LookupTypeInScope(v.Name)
			if !ok {
				errf(diags, declName, diagnostic.UnknownName, "unknown type %s", v.Name)
				return v
			}
			pkg = resolvedPkg
		}
		return types.NamedType{Pkg: pkg, Name: v.Name, TypeArgs: resolveTypeArgs(c, diags, declName, v.TypeArgs)}
	default:
		return t
	}
}

func resolveTypeArgs(c *arena.Context, diags *diagnostic.List, declName string, args []types.Type) []types.Type {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.Type, len(args))
	for i, a := range args {
		out[i] = resolveType(c, diags, declName, a)
	}
	return out
}
