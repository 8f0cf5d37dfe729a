// Package lowering implements Component E (spec.md §4.E): the tree walk
// that turns a fully-resolved HLIR source set into MLIR, the flat,
// generics-free, overload-free, mangled tree internal/mlir defines.
//
// Grounded on original_source/wiz/wizc/src/middle_level_ir.rs's
// HLIR2MLIRContext: one context threaded through the whole source set,
// carrying the struct-member lookup the resolver arena already built plus
// a side table of which declarations carry a `no_mangle` annotation (the
// original's `declaration_annotations` map, here built as an explicit
// pre-pass rather than populated lazily, since this package lowers whole
// files rather than one expression at a time).
package lowering

import (
	"fmt"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/mlir"
	"github.com/ChanTsune/wizc/internal/types"
)

// Context carries the state shared across every file of one lowering run.
type Context struct {
	arena    *arena.Context
	noMangle map[string]bool

	locals []map[string]bool // stack of lexical scopes, for plain-vs-mangled name lowering

	lambdaCounter int
	extraDecls    []mlir.Decl // lambdas hoisted to top-level MLFuns, flushed per file
}

// NewContext builds a lowering Context over an already Detect/Preload/
// Resolve'd arena and a no_mangle table built by CollectNoMangle.
func NewContext(a *arena.Context, noMangle map[string]bool) *Context {
	return &Context{arena: a, noMangle: noMangle}
}

// ----------------------------------------------------------------------------
// no_mangle side table
// ----------------------------------------------------------------------------

func hasAnnotation(annotations []string, name string) bool {
	for _, a := range annotations {
		if a == name {
			return true
		}
	}
	return false
}

func qualify(pkg []string, name string) string {
	if len(pkg) == 0 {
		return name
	}
	key := ""
	for i, p := range pkg {
		if i > 0 {
			key += "::"
		}
		key += p
	}
	return key + "::" + name
}

// CollectNoMangle walks every file's top-level declarations (never their
// bodies) and records, for each function/method/computed-property/
// initializer, whether it carries `no_mangle` -- keyed by its pre-mangle
// qualified name, since by the time a Call target is lowered only the
// resolved signature is at hand, not the original FunDecl. Initializers
// are mangled through MangleInit, which takes no no_mangle flag, so their
// entries here do not change their symbol names; global vars get no
// entry.
func CollectNoMangle(files []*hir.File) map[string]bool {
	out := map[string]bool{}
	for _, f := range files {
		for _, d := range f.Body {
			collectDeclNoMangle(d, out)
		}
	}
	return out
}

func collectDeclNoMangle(d hir.Decl, out map[string]bool) {
	switch v := d.(type) {
	case *hir.FunDecl:
		out[qualify(v.DeclPackage().Segments(), v.Name)] = hasAnnotation(v.DeclAnnotations(), "no_mangle")
	case *hir.StructDecl:
		collectMemberNoMangle(v.Name, v.MemberFunctions, out)
		collectMemberNoMangle(v.Name, v.ComputedProperties, out)
	case *hir.ProtocolDecl:
		collectMemberNoMangle(v.Name, v.MemberFunctions, out)
		collectMemberNoMangle(v.Name, v.ComputedProperties, out)
	case *hir.ExtensionDecl:
		if named, ok := v.TargetType.(types.NamedType); ok {
			collectMemberNoMangle(named.Name, v.MemberFunctions, out)
			collectMemberNoMangle(named.Name, v.ComputedProperties, out)
		}
	}
}

func collectMemberNoMangle(structName string, fns []*hir.FunDecl, out map[string]bool) {
	for _, fn := range fns {
		key := qualify(fn.DeclPackage().Segments(), structName+"::"+fn.Name)
		out[key] = hasAnnotation(fn.DeclAnnotations(), "no_mangle")
	}
}

// ----------------------------------------------------------------------------
// Self-type and local-scope stacks
// ----------------------------------------------------------------------------

func (ctx *Context) pushLocals() { ctx.locals = append(ctx.locals, map[string]bool{}) }
func (ctx *Context) popLocals()  { ctx.locals = ctx.locals[:len(ctx.locals)-1] }

func (ctx *Context) bindLocal(name string) {
	if len(ctx.locals) == 0 {
		return
	}
	ctx.locals[len(ctx.locals)-1][name] = true
}

func (ctx *Context) isLocal(name string) bool {
	for i := len(ctx.locals) - 1; i >= 0; i-- {
		if ctx.locals[i][name] {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// File entry point
// ----------------------------------------------------------------------------

// LowerFile lowers one resolved HLIR file to its MLIR counterpart. Callers
// must only reach this after a source set's Detect/Preload/Resolve passes
// completed with no diagnostics: every type here is assumed fully resolved
// (no nil Expr.Type(), no unresolved NameExpr.Resolved), matching spec.md
// §8's "lowering never re-checks what the resolver already guaranteed".
func (ctx *Context) LowerFile(f *hir.File) *mlir.File {
	out := &mlir.File{Name: f.Name}
	for _, d := range f.Body {
		out.Body = append(out.Body, ctx.lowerDecl(d)...)
	}
	out.Body = append(out.Body, ctx.extraDecls...)
	ctx.extraDecls = nil
	return out
}

func (ctx *Context) lowerDecl(d hir.Decl) []mlir.Decl {
	switch v := d.(type) {
	case *hir.StructDecl:
		return ctx.lowerStruct(v)
	case *hir.ExtensionDecl:
		return ctx.lowerExtension(v)
	case *hir.ProtocolDecl:
		// Protocols are a compile-time-only conformance contract (spec.md
		// §4.D "where clause" / conformance checking); they have no runtime
		// representation of their own once every conforming struct's
		// members are already lowered directly onto that struct. Nothing
		// to emit.
		return nil
	case *hir.FunDecl:
		return []mlir.Decl{ctx.lowerFreeFunction(v)}
	case *hir.VarDecl:
		return []mlir.Decl{ctx.lowerGlobalVar(v)}
	default:
		panic(fmt.Sprintf("lowering: unhandled decl %T", d))
	}
}

// ----------------------------------------------------------------------------
// Structs, extensions, initializer synthesis
// ----------------------------------------------------------------------------

func (ctx *Context) lowerStruct(v *hir.StructDecl) []mlir.Decl {
	named := types.NamedType{Pkg: v.DeclPackage(), Name: v.Name}
	fields := make([]mlir.MLField, len(v.StoredProperties))
	for i, p := range v.StoredProperties {
		fields[i] = mlir.MLField{Name: p.Name, Type: ctx.lowerType(p.Type)}
	}
	decls := []mlir.Decl{&mlir.MLStruct{MangledName: ctx.mangleTypeName(named), Fields: fields}}

	hasInit := false
	for _, mf := range v.MemberFunctions {
		if mf.Name == "init" {
			hasInit = true
			break
		}
	}
	if !hasInit {
		decls = append(decls, ctx.synthesizeDefaultInit(named, v.StoredProperties))
	}
	for _, mf := range v.MemberFunctions {
		decls = append(decls, ctx.lowerMemberFunction(named, mf))
	}
	for _, cp := range v.ComputedProperties {
		decls = append(decls, ctx.lowerMemberFunction(named, cp))
	}
	return decls
}

func (ctx *Context) lowerExtension(v *hir.ExtensionDecl) []mlir.Decl {
	named, ok := v.TargetType.(types.NamedType)
	if !ok {
		return nil
	}
	var decls []mlir.Decl
	for _, mf := range v.MemberFunctions {
		decls = append(decls, ctx.lowerMemberFunction(named, mf))
	}
	for _, cp := range v.ComputedProperties {
		decls = append(decls, ctx.lowerMemberFunction(named, cp))
	}
	return decls
}

// synthesizeDefaultInit implements spec.md §3's "Default initializer
// synthesis": one argument per stored property (labels = names, in
// declaration order), body assigns each argument to `self.<field>` and
// returns self.
func (ctx *Context) synthesizeDefaultInit(named types.NamedType, props []*hir.VarDecl) *mlir.MLFun {
	structType := mlir.MLStructType{MangledName: ctx.mangleTypeName(named)}
	args := make([]mlir.MLArg, len(props))
	argSigs := make([]ArgSig, len(props))
	for i, p := range props {
		t := ctx.lowerType(p.Type)
		args[i] = mlir.MLArg{Name: p.Name, Type: t}
		argSigs[i] = ArgSig{Label: p.Name, Type: t.String()}
	}
	name := MangleInit(named.Pkg.Segments(), named.Name, argSigs)

	ctx.pushLocals()
	defer ctx.popLocals()
	for _, a := range args {
		ctx.bindLocal(a.Name)
	}
	ctx.bindLocal("self")

	body := []mlir.Stmt{&mlir.MLDeclStmt{Decl: &mlir.MLVar{
		Name: "self", Type: structType, Value: mlir.MLZeroValue{ExprHeader: mlir.ExprHeader{Ty: structType}},
	}}}
	for _, p := range props {
		body = append(body, &mlir.MLAssign{
			Target: mlir.MLMember{ExprHeader: mlir.ExprHeader{Ty: ctx.lowerType(p.Type)}, Target: selfName(structType), Name: p.Name},
			Value:  argName(p.Name, ctx.lowerType(p.Type)),
		})
	}
	body = append(body, &mlir.MLExprStmt{Expr: mlir.MLReturn{
		ExprHeader: mlir.ExprHeader{Ty: structType}, Value: selfName(structType),
	}})

	return &mlir.MLFun{Name: name, Args: args, Ret: structType, Body: body}
}

func selfName(ty mlir.MLValueType) mlir.Expr {
	return mlir.MLName{ExprHeader: mlir.ExprHeader{Ty: ty}, Name: "self"}
}

func argName(name string, ty mlir.MLValueType) mlir.Expr {
	return mlir.MLName{ExprHeader: mlir.ExprHeader{Ty: ty}, Name: name}
}

// lowerMemberFunction lowers a member function, computed property, or
// user-written initializer of the struct/extension named by owner into a
// standalone MLFun (spec.md §4.E rule 1). A method's self parameter becomes
// its first argument; an initializer takes only its declared arguments.
func (ctx *Context) lowerMemberFunction(owner types.NamedType, fn *hir.FunDecl) *mlir.MLFun {
	isInit := fn.Name == "init"
	structType := mlir.MLStructType{MangledName: ctx.mangleTypeName(owner)}

	var args []mlir.MLArg
	var argSigs []ArgSig
	if !isInit && len(fn.ArgDefs) > 0 && fn.ArgDefs[0].Name == "self" {
		t := ctx.lowerType(fn.ArgDefs[0].Type)
		args = append(args, mlir.MLArg{Name: "self", Type: t})
		argSigs = append(argSigs, ArgSig{Label: fn.ArgDefs[0].Label, Type: t.String()})
		for _, ad := range fn.ArgDefs[1:] {
			at := ctx.lowerType(ad.Type)
			args = append(args, mlir.MLArg{Name: ad.Name, Type: at})
			argSigs = append(argSigs, ArgSig{Label: ad.Label, Type: at.String()})
		}
	} else {
		for _, ad := range fn.ArgDefs {
			at := ctx.lowerType(ad.Type)
			args = append(args, mlir.MLArg{Name: ad.Name, Type: at})
			argSigs = append(argSigs, ArgSig{Label: ad.Label, Type: at.String()})
		}
	}

	retType := ctx.lowerType(fn.ReturnType)

	var name string
	key := qualify(owner.Pkg.Segments(), owner.Name+"::"+fn.Name)
	if isInit {
		name = MangleInit(owner.Pkg.Segments(), owner.Name, argSigs)
	} else {
		name = Mangle(owner.Pkg.Segments(), owner.Name+"::"+fn.Name, ctx.noMangle[key], argSigs)
	}

	ctx.pushLocals()
	defer ctx.popLocals()
	for _, a := range args {
		ctx.bindLocal(a.Name)
	}

	var body []mlir.Stmt
	if isInit {
		ctx.bindLocal("self")
		body = append(body, &mlir.MLDeclStmt{Decl: &mlir.MLVar{
			Name: "self", Type: structType, Value: mlir.MLZeroValue{ExprHeader: mlir.ExprHeader{Ty: structType}},
		}})
	}
	if fn.Body != nil {
		body = append(body, ctx.lowerStmts(fn.Body.Stmts)...)
	}
	if isInit {
		body = append(body, &mlir.MLExprStmt{Expr: mlir.MLReturn{
			ExprHeader: mlir.ExprHeader{Ty: structType}, Value: selfName(structType),
		}})
		retType = structType
	}

	return &mlir.MLFun{Name: name, Args: args, Ret: retType, Body: body}
}

// ----------------------------------------------------------------------------
// Free functions and globals
// ----------------------------------------------------------------------------

func (ctx *Context) lowerFreeFunction(fn *hir.FunDecl) *mlir.MLFun {
	args := make([]mlir.MLArg, len(fn.ArgDefs))
	argSigs := make([]ArgSig, len(fn.ArgDefs))
	for i, ad := range fn.ArgDefs {
		t := ctx.lowerType(ad.Type)
		args[i] = mlir.MLArg{Name: ad.Name, Type: t}
		argSigs[i] = ArgSig{Label: ad.Label, Type: t.String()}
	}
	key := qualify(fn.DeclPackage().Segments(), fn.Name)
	name := Mangle(fn.DeclPackage().Segments(), fn.Name, ctx.noMangle[key], argSigs)

	ctx.pushLocals()
	defer ctx.popLocals()
	for _, a := range args {
		ctx.bindLocal(a.Name)
	}

	var body []mlir.Stmt
	if fn.Body != nil {
		body = ctx.lowerStmts(fn.Body.Stmts)
	}
	return &mlir.MLFun{Name: name, Args: args, Ret: ctx.lowerType(fn.ReturnType), Body: body}
}

func (ctx *Context) lowerGlobalVar(v *hir.VarDecl) *mlir.MLVar {
	t := ctx.lowerType(v.Type)
	key := qualify(v.DeclPackage().Segments(), v.Name)
	name := Mangle(v.DeclPackage().Segments(), v.Name, ctx.noMangle[key], nil)
	var value mlir.Expr
	if v.Value != nil {
		value = ctx.lowerExpr(v.Value)
	}
	return &mlir.MLVar{Name: name, Type: t, Value: value}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (ctx *Context) lowerStmts(stmts []hir.Stmt) []mlir.Stmt {
	out := make([]mlir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, ctx.lowerStmt(s))
	}
	return out
}

func (ctx *Context) lowerStmt(s hir.Stmt) mlir.Stmt {
	switch v := s.(type) {
	case *hir.DeclStmt:
		vd, ok := v.Decl.(*hir.VarDecl)
		if !ok {
			panic(fmt.Sprintf("lowering: unhandled local decl %T", v.Decl))
		}
		ctx.bindLocal(vd.Name)
		var value mlir.Expr
		if vd.Value != nil {
			value = ctx.lowerExpr(vd.Value)
		}
		return &mlir.MLDeclStmt{Decl: &mlir.MLVar{Name: vd.Name, Type: ctx.lowerType(vd.Type), Value: value}}
	case *hir.ExprStmt:
		if bo, ok := v.Expr.(*hir.BinOpExpr); ok && bo.Op == hir.OpInfixFunctionCall && bo.InfixName == "=" {
			return &mlir.MLAssign{Target: ctx.lowerExpr(bo.LHS), Value: ctx.lowerExpr(bo.RHS)}
		}
		return &mlir.MLExprStmt{Expr: ctx.lowerExpr(v.Expr)}
	default:
		panic(fmt.Sprintf("lowering: unhandled stmt %T", s))
	}
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

// lowerType converts a fully-resolved HLIR type to its MLIR counterpart.
// nil (an unresolved declaration that never reached the resolver) lowers to
// Unit rather than panicking, matching the resolver's own fail-soft policy.
func (ctx *Context) lowerType(t types.Type) mlir.MLValueType {
	if t == nil {
		return mlir.MLPrimitive{Name: types.Unit}
	}
	switch v := t.(type) {
	case types.NamedType:
		if types.IsPrimitive(v) {
			return mlir.MLPrimitive{Name: v.Name}
		}
		return mlir.MLStructType{MangledName: ctx.mangleTypeName(v)}
	case types.ReferenceType:
		return mlir.MLReference{Elem: ctx.lowerType(v.Elem)}
	case types.PointerType:
		return mlir.MLPointer{Elem: ctx.lowerType(v.Elem)}
	case types.ArrayType:
		return mlir.MLArray{Elem: ctx.lowerType(v.Elem), Size: v.Size}
	case types.TupleType:
		elems := make([]mlir.MLValueType, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = ctx.lowerType(e)
		}
		return mlir.MLTuple{Elems: elems}
	case types.FunctionType:
		return ctx.lowerFunctionType(v)
	default:
		panic(fmt.Sprintf("lowering: unresolved type reached lowering: %T (%s)", t, t.String()))
	}
}

func (ctx *Context) lowerFunctionType(f types.FunctionType) mlir.MLFunctionType {
	args := make([]mlir.MLValueType, len(f.Args))
	for i, a := range f.Args {
		args[i] = ctx.lowerType(a.Type)
	}
	return mlir.MLFunctionType{Args: args, Ret: ctx.lowerType(f.Ret)}
}

// mangleTypeName names a lowered struct. A generic instantiation's type
// arguments are appended between angle brackets (not itself one of
// spec.md §6's worked examples; a deliberate, minimal extension recorded
// in DESIGN.md, since MLIR carries no generics and every distinct
// instantiation needs a distinct name).
func (ctx *Context) mangleTypeName(n types.NamedType) string {
	base := qualify(n.Pkg.Segments(), n.Name)
	if len(n.TypeArgs) == 0 {
		return base
	}
	base += "<"
	for i, a := range n.TypeArgs {
		if i > 0 {
			base += ","
		}
		base += ctx.lowerType(a).String()
	}
	return base + ">"
}
