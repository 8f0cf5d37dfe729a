package hir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChanTsune/wizc/internal/cst"
	"github.com/ChanTsune/wizc/internal/types"
)

// Lower performs Component B: a pure, stateless structural translation from
// a CST file into an unresolved HLIR file. It never consults or mutates any
// resolver state; type resolution (Component D) runs afterward over its
// output.
func Lower(f *cst.File) (*File, error) {
	out := &File{Name: f.Name}
	for _, u := range f.Uses {
		var alias string
		if u.Alias != "" {
			alias = u.Alias
		}
		out.Uses = append(out.Uses, Use{Path: u.Path, Wildcard: u.Wildcard, Alias: alias})
	}
	for _, d := range f.Body {
		ld, err := lowerDecl(d)
		if err != nil {
			return nil, err
		}
		out.Body = append(out.Body, ld)
	}
	return out, nil
}

func lowerDecl(d cst.Decl) (Decl, error) {
	switch v := d.(type) {
	case *cst.VarDecl:
		return lowerVarDecl(v)
	case *cst.FunDecl:
		return lowerFunDecl(v)
	case *cst.StructDecl:
		return lowerStructDecl(v)
	case *cst.ProtocolDecl:
		return lowerProtocolDecl(v)
	case *cst.ExtensionDecl:
		return lowerExtensionDecl(v)
	case *cst.ClassDecl:
		// class is parsed but ignored (spec.md §6); lower to an empty,
		// unreachable marker decl carrying no members rather than silently
		// dropping the body's declarations from a diagnostic standpoint.
		return &ignoredClassDecl{name: v.Name}, nil
	default:
		return nil, fmt.Errorf("hir.Lower: unhandled decl type %T", d)
	}
}

// ignoredClassDecl documents that `class` was seen and intentionally
// skipped, rather than simply vanishing from the lowered tree.
type ignoredClassDecl struct {
	declHeader
	name string
}

func (*ignoredClassDecl) isDecl() {}

func lowerVarDecl(v *cst.VarDecl) (*VarDecl, error) {
	val, err := lowerExpr(v.Value)
	if err != nil {
		return nil, err
	}
	out := &VarDecl{
		declHeader: declHeader{Annotations: v.Annotations},
		IsMut:      v.IsMut,
		Name:       v.Name,
		Value:      val,
	}
	if v.Type != nil {
		t, err := lowerTypeExpr(*v.Type)
		if err != nil {
			return nil, err
		}
		out.Type = t
	}
	return out, nil
}

func lowerArgDef(a cst.ArgDef) (ArgDef, error) {
	if a.Name == "self" {
		return ArgDef{Label: "_", Name: "self", Type: types.Self, SelfRef: a.SelfRef}, nil
	}
	label := a.Label
	if label == "" {
		label = a.Name
	}
	var t types.Type
	if a.Type != nil {
		lt, err := lowerTypeExpr(*a.Type)
		if err != nil {
			return ArgDef{}, err
		}
		t = lt
	}
	return ArgDef{Label: label, Name: a.Name, Type: t}, nil
}

func lowerWhereClauses(ws []cst.WhereClause) ([]WhereClause, error) {
	out := make([]WhereClause, 0, len(ws))
	for _, w := range ws {
		pt, err := lowerTypeExpr(w.Protocol)
		if err != nil {
			return nil, err
		}
		out = append(out, WhereClause{TypeParam: w.TypeParam, Protocol: pt})
	}
	return out, nil
}

func lowerFunDecl(v *cst.FunDecl) (*FunDecl, error) {
	out := &FunDecl{
		declHeader: declHeader{Annotations: v.Annotations},
		Name:       v.Name,
		TypeParams: v.TypeParams,
	}
	for _, m := range v.Modifiers {
		if m == "static" {
			out.IsStatic = true
		}
	}
	wc, err := lowerWhereClauses(v.WhereClauses)
	if err != nil {
		return nil, err
	}
	out.TypeConstraints = wc

	for _, a := range v.Args {
		la, err := lowerArgDef(a)
		if err != nil {
			return nil, err
		}
		out.ArgDefs = append(out.ArgDefs, la)
	}
	if v.ReturnType != nil {
		rt, err := lowerTypeExpr(*v.ReturnType)
		if err != nil {
			return nil, err
		}
		out.ReturnType = rt
	}
	if v.Body != nil {
		b, err := lowerBlock(v.Body)
		if err != nil {
			return nil, err
		}
		out.Body = b
	}
	return out, nil
}

// isComputedProperty reports whether a struct/protocol/extension member
// function is really a computed property: exactly one argument, named
// self, plus the `computed` annotation (whether it has a body is not
// checked). Any other member function stays a member function; final
// member/computed/method classification for dispatch
// purposes happens structurally the same way either way (both live in
// StructInfo's member tables, see internal/arena), so lowering only needs
// to route the declaration into the right HLIR slice for the resolver to
// preload correctly.
func isComputedProperty(f *cst.FunDecl) bool {
	for _, a := range f.Args {
		if a.Name != "self" {
			return false
		}
	}
	return len(f.Args) == 1 && hasComputedAnnotation(f.Annotations)
}

func hasComputedAnnotation(annotations []string) bool {
	for _, a := range annotations {
		if a == "computed" {
			return true
		}
	}
	return false
}

func lowerStructDecl(v *cst.StructDecl) (*StructDecl, error) {
	out := &StructDecl{
		declHeader: declHeader{Annotations: v.Annotations},
		Name:       v.Name,
		TypeParams: v.TypeParams,
	}
	wc, err := lowerWhereClauses(v.WhereClauses)
	if err != nil {
		return nil, err
	}
	out.TypeConstraints = wc

	hasUserInit := false
	for _, d := range v.Body {
		switch m := d.(type) {
		case *cst.VarDecl:
			lv, err := lowerVarDecl(m)
			if err != nil {
				return nil, err
			}
			out.StoredProperties = append(out.StoredProperties, lv)
		case *cst.FunDecl:
			lf, err := lowerFunDecl(m)
			if err != nil {
				return nil, err
			}
			if lf.Name == "init" {
				hasUserInit = true
			}
			if isComputedProperty(m) {
				out.ComputedProperties = append(out.ComputedProperties, lf)
			} else {
				out.MemberFunctions = append(out.MemberFunctions, lf)
			}
		default:
			return nil, fmt.Errorf("hir.Lower: unexpected struct member %T", d)
		}
	}

	if !hasUserInit {
		out.MemberFunctions = append(out.MemberFunctions, synthesizeDefaultInit(out))
	}
	return out, nil
}

// synthesizeDefaultInit implements spec.md §4.B rule 3: exactly one
// initializer whose arguments are the stored properties in declaration
// order (labels = names), whose body assigns each argument to self.<field>
// and returns self. "self" here is an implicit receiver bound by the
// resolver while walking an init body (SPEC_FULL §4.D), not an explicit
// ArgDef — this mirrors the original sources, where `init` is a static
// function with no declared self parameter.
func synthesizeDefaultInit(s *StructDecl) *FunDecl {
	init := &FunDecl{
		Name:     "init",
		IsStatic: true,
	}
	var stmts []Stmt
	for _, prop := range s.StoredProperties {
		init.ArgDefs = append(init.ArgDefs, ArgDef{
			Label: prop.Name,
			Name:  prop.Name,
			Type:  prop.Type,
		})
		assign := &BinOpExpr{
			Op: OpInfixFunctionCall,
			LHS: &MemberExpr{
				Target: &NameExpr{Name: "self"},
				Name:   prop.Name,
			},
			RHS:       &NameExpr{Name: prop.Name},
			InfixName: "=",
		}
		stmts = append(stmts, &ExprStmt{Expr: assign})
	}
	stmts = append(stmts, &ExprStmt{Expr: &ReturnExpr{Value: &NameExpr{Name: "self"}}})
	init.Body = &Block{Stmts: stmts}
	return init
}

func lowerProtocolDecl(v *cst.ProtocolDecl) (*ProtocolDecl, error) {
	out := &ProtocolDecl{
		declHeader: declHeader{Annotations: v.Annotations},
		Name:       v.Name,
	}
	for _, d := range v.Body {
		f, ok := d.(*cst.FunDecl)
		if !ok {
			return nil, fmt.Errorf("hir.Lower: unexpected protocol member %T", d)
		}
		lf, err := lowerFunDecl(f)
		if err != nil {
			return nil, err
		}
		if isComputedProperty(f) {
			out.ComputedProperties = append(out.ComputedProperties, lf)
		} else {
			out.MemberFunctions = append(out.MemberFunctions, lf)
		}
	}
	return out, nil
}

func lowerExtensionDecl(v *cst.ExtensionDecl) (*ExtensionDecl, error) {
	target, err := lowerTypeExpr(v.Target)
	if err != nil {
		return nil, err
	}
	out := &ExtensionDecl{
		declHeader: declHeader{Annotations: v.Annotations},
		TargetType: target,
	}
	if v.Protocol != nil {
		p, err := lowerTypeExpr(*v.Protocol)
		if err != nil {
			return nil, err
		}
		out.Protocol = p
	}
	for _, d := range v.Body {
		f, ok := d.(*cst.FunDecl)
		if !ok {
			return nil, fmt.Errorf("hir.Lower: unexpected extension member %T", d)
		}
		lf, err := lowerFunDecl(f)
		if err != nil {
			return nil, err
		}
		if isComputedProperty(f) {
			out.ComputedProperties = append(out.ComputedProperties, lf)
		} else {
			out.MemberFunctions = append(out.MemberFunctions, lf)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Type syntax lowering (spec.md §4.B rule 2)
// ----------------------------------------------------------------------------

func lowerTypeExpr(t cst.TypeExpr) (types.Type, error) {
	var base types.Type = types.NamedType{
		Pkg:      types.RawPackage{Path: types.Package(t.Path)},
		Name:     t.Name,
		TypeArgs: nil,
	}
	if t.TypeArgs != nil {
		named := base.(types.NamedType)
		for _, a := range t.TypeArgs.Args {
			at, err := lowerTypeExpr(a)
			if err != nil {
				return nil, err
			}
			named.TypeArgs = append(named.TypeArgs, at)
		}
		base = named
	}
	switch {
	case t.Ref:
		return types.ReferenceType{Elem: base}, nil
	case t.Ptr:
		return types.PointerType{Elem: base}, nil
	default:
		return base, nil
	}
}

// ----------------------------------------------------------------------------
// Statement / expression lowering
// ----------------------------------------------------------------------------

func lowerBlock(b *cst.Block) (*Block, error) {
	out := &Block{}
	for _, s := range b.Stmts {
		ls, err := lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, ls)
	}
	return out, nil
}

func lowerStmt(s cst.Stmt) (Stmt, error) {
	switch v := s.(type) {
	case *cst.DeclStmt:
		d, err := lowerDecl(v.Decl)
		if err != nil {
			return nil, err
		}
		return &DeclStmt{Decl: d}, nil
	case *cst.ExprStmt:
		e, err := lowerExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: e}, nil
	default:
		return nil, fmt.Errorf("hir.Lower: unhandled stmt type %T", s)
	}
}

// binOpTable implements spec.md §4.B rule 6: fixed source operator tokens
// map to an enum value; anything else becomes InfixFunctionCall(name).
var binOpTable = map[string]BinOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"&&": OpAnd, "||": OpOr,
}

func lowerExpr(e cst.Expr) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch v := e.(type) {
	case *cst.NameExpr:
		out := &NameExpr{Path: v.Path, Name: v.Name}
		if v.TypeArgs != nil {
			for _, a := range v.TypeArgs.Args {
				at, err := lowerTypeExpr(a)
				if err != nil {
					return nil, err
				}
				out.TypeArgs = append(out.TypeArgs, at)
			}
		}
		return out, nil
	case *cst.LiteralExpr:
		return lowerLiteral(v)
	case *cst.BinOpExpr:
		lhs, err := lowerExpr(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(v.RHS)
		if err != nil {
			return nil, err
		}
		out := &BinOpExpr{LHS: lhs, RHS: rhs}
		if op, ok := binOpTable[v.Op]; ok {
			out.Op = op
		} else {
			out.Op = OpInfixFunctionCall
			out.InfixName = v.Op
		}
		return out, nil
	case *cst.UnaryExpr:
		operand, err := lowerExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		op, err := lowerUnaryOp(v.Op, v.Position)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: operand}, nil
	case *cst.SubscriptExpr:
		target, err := lowerExpr(v.Target)
		if err != nil {
			return nil, err
		}
		index, err := lowerExpr(v.Index)
		if err != nil {
			return nil, err
		}
		return &SubscriptExpr{Target: target, Index: index}, nil
	case *cst.MemberExpr:
		target, err := lowerExpr(v.Target)
		if err != nil {
			return nil, err
		}
		return &MemberExpr{Target: target, Name: v.Name, IsSafe: v.IsSafe}, nil
	case *cst.ArrayExpr:
		out := &ArrayExpr{}
		for _, el := range v.Elems {
			le, err := lowerExpr(el)
			if err != nil {
				return nil, err
			}
			out.Elems = append(out.Elems, le)
		}
		return out, nil
	case *cst.CallExpr:
		return lowerCall(v)
	case *cst.IfExpr:
		return lowerIf(v)
	case *cst.ReturnExpr:
		var val Expr
		if v.Value != nil {
			lv, err := lowerExpr(v.Value)
			if err != nil {
				return nil, err
			}
			val = lv
		}
		return &ReturnExpr{Value: val}, nil
	case *cst.TypeCastExpr:
		val, err := lowerExpr(v.Value)
		if err != nil {
			return nil, err
		}
		target, err := lowerTypeExpr(v.Target)
		if err != nil {
			return nil, err
		}
		kind := CastForced
		if v.Kind == cst.CastOptional {
			kind = CastOptional
		}
		return &TypeCastExpr{Kind: kind, Value: val, Target: target}, nil
	case *cst.SizeOfExpr:
		target, err := lowerTypeExpr(v.Target)
		if err != nil {
			return nil, err
		}
		return &SizeOfExpr{Target: target}, nil
	case *cst.LambdaExpr:
		return lowerLambda(v)
	default:
		return nil, fmt.Errorf("hir.Lower: unhandled expr type %T", e)
	}
}

func lowerUnaryOp(op string, pos cst.UnaryPosition) (UnaryOp, error) {
	if pos == cst.Postfix {
		if op == "!!" {
			return UnaryForceUnwrap, nil
		}
		return 0, fmt.Errorf("hir.Lower: unknown postfix operator %q", op)
	}
	switch op {
	case "+":
		return UnaryPlus, nil
	case "-":
		return UnaryMinus, nil
	case "!":
		return UnaryNot, nil
	case "*":
		return UnaryDeref, nil
	case "&":
		return UnaryRef, nil
	default:
		return 0, fmt.Errorf("hir.Lower: unknown prefix operator %q", op)
	}
}

func lowerCall(v *cst.CallExpr) (*CallExpr, error) {
	target, err := lowerExpr(v.Target)
	if err != nil {
		return nil, err
	}
	out := &CallExpr{Target: target}
	if v.TypeArgs != nil {
		for _, a := range v.TypeArgs.Args {
			at, err := lowerTypeExpr(a)
			if err != nil {
				return nil, err
			}
			out.TypeArgs = append(out.TypeArgs, at)
		}
	}
	for _, a := range v.Args {
		av, err := lowerExpr(a.Value)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, CallArg{Label: a.Label, Value: av})
	}
	if v.TrailingLambda != nil {
		lam, err := lowerLambda(v.TrailingLambda)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, CallArg{Label: "", Value: lam})
	}
	return out, nil
}

func lowerIf(v *cst.IfExpr) (*IfExpr, error) {
	cond, err := lowerExpr(v.Cond)
	if err != nil {
		return nil, err
	}
	then, err := lowerBlock(v.Then)
	if err != nil {
		return nil, err
	}
	out := &IfExpr{Cond: cond, Then: then}
	if v.Else != nil {
		elseB, err := lowerBlock(v.Else)
		if err != nil {
			return nil, err
		}
		out.Else = elseB
	} else {
		// spec.md §4.B rule 5: if-without-else is typed Noting immediately,
		// regardless of the then-block's contents.
		out.SetType(types.Named(types.Noting))
	}
	return out, nil
}

func lowerLambda(v *cst.LambdaExpr) (*LambdaExpr, error) {
	out := &LambdaExpr{}
	for _, a := range v.Args {
		la, err := lowerArgDef(a)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, la)
	}
	body, err := lowerBlock(v.Body)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

// lowerLiteral implements spec.md §4.B rule 1: integers default to Int64,
// floats to Double, booleans to Bool, strings to String; null receives no
// type yet (the resolver never narrows null today — SPEC_FULL leaves this
// as a later extension point, consistent with Self substitution only
// handling type positions, not null's absent type).
func lowerLiteral(v *cst.LiteralExpr) (*LiteralExpr, error) {
	out := &LiteralExpr{}
	switch v.Kind {
	case cst.LiteralInt:
		n, err := strconv.ParseInt(v.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("hir.Lower: invalid integer literal %q: %w", v.Text, err)
		}
		out.Kind = LitInt
		out.IntValue = n
		out.SetType(types.DefaultIntegerType())
	case cst.LiteralFloat:
		n, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("hir.Lower: invalid float literal %q: %w", v.Text, err)
		}
		out.Kind = LitFloat
		out.FloatValue = n
		out.SetType(types.DefaultFloatType())
	case cst.LiteralString:
		out.Kind = LitString
		out.StringValue = strings.Trim(v.Text, `"`)
		out.SetType(types.Named(types.String))
	case cst.LiteralBool:
		out.Kind = LitBool
		out.BoolValue = v.Text == "true"
		out.SetType(types.Named(types.Bool))
	case cst.LiteralNull:
		out.Kind = LitNull
		// no type yet
	default:
		return nil, fmt.Errorf("hir.Lower: unknown literal kind %v", v.Kind)
	}
	return out, nil
}
