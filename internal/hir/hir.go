// Package hir defines the High-Level Intermediate Representation: the
// typed, desugaring-free tree produced by AST lowering (this package's
// Lower function, Component B) and populated in place by the type resolver
// (internal/resolver, Component D).
//
// Like the CST, the entity set is closed: every Decl/Expr/Stmt variant is a
// tagged struct implementing a marker method, and every consumer is
// expected to switch exhaustively (spec.md §9 design note).
package hir

import "github.com/ChanTsune/wizc/internal/types"

// File is one compilation unit: its use-declarations and top-level decls.
type File struct {
	Name string
	Uses []Use
	Body []Decl
}

// Use is a normalized use-declaration. A trailing `*` segment from the CST
// becomes Wildcard=true rather than a literal "*" path segment (SPEC_FULL
// §4.B), so internal/arena's use_name_space never special-cases the string.
type Use struct {
	Path     []string
	Wildcard bool
	Alias    string
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is the closed set of declaration kinds.
type Decl interface {
	isDecl()
	// Common accessors every decl carries (spec.md §3).
	DeclAnnotations() []string
	DeclPackage() types.PackageRef
	SetDeclPackage(types.PackageRef)
}

// declHeader factors the fields every Decl kind shares.
type declHeader struct {
	Annotations []string
	Package     types.PackageRef
}

func (h *declHeader) DeclAnnotations() []string         { return h.Annotations }
func (h *declHeader) DeclPackage() types.PackageRef     { return h.Package }
func (h *declHeader) SetDeclPackage(p types.PackageRef) { h.Package = p }

// VarDecl is `val`/`var name[: Type] = value`.
type VarDecl struct {
	declHeader
	IsMut bool
	Name  string
	Type  types.Type // nil until inferred/declared type is known
	Value Expr
}

func (*VarDecl) isDecl() {}

// ArgDef is one function/initializer/lambda parameter. A `self`/`&self`
// argument carries Name="self", Label="_", Type=types.Self, and SelfRef set
// according to whether `&self` was written (spec.md §4.B rule 4).
type ArgDef struct {
	Label   string
	Name    string
	Type    types.Type
	SelfRef bool
}

// WhereClause is one `where T: Proto` generic constraint.
type WhereClause struct {
	TypeParam string
	Protocol  types.Type
}

// FunDecl is a free function, member function, static function, or
// synthesized initializer.
type FunDecl struct {
	declHeader
	Name            string
	TypeParams      []string
	TypeConstraints []WhereClause
	ArgDefs         []ArgDef
	Body            *Block     // nil for an abstract/protocol signature
	ReturnType      types.Type // nil until declared or inferred
	IsStatic        bool
}

func (*FunDecl) isDecl() {}

// StructDecl declares a struct: its stored properties (fields), computed
// properties (property-like member functions with no arguments besides
// self), and member functions, in source order.
type StructDecl struct {
	declHeader
	Name               string
	TypeParams         []string
	TypeConstraints    []WhereClause
	StoredProperties   []*VarDecl
	ComputedProperties []*FunDecl
	MemberFunctions    []*FunDecl
}

func (*StructDecl) isDecl() {}

// ProtocolDecl declares a protocol: a set of member-function/computed-
// property signatures a conforming struct's extension must provide.
type ProtocolDecl struct {
	declHeader
	Name               string
	ComputedProperties []*FunDecl
	MemberFunctions    []*FunDecl
}

func (*ProtocolDecl) isDecl() {}

// ExtensionDecl extends TargetType, optionally conforming it to Protocol.
type ExtensionDecl struct {
	declHeader
	TargetType         types.Type
	Protocol           types.Type // nil for a plain (non-conformance) extension
	ComputedProperties []*FunDecl
	MemberFunctions    []*FunDecl
}

func (*ExtensionDecl) isDecl() {}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Block is a sequence of statements; its "value" (for an if/lambda body) is
// the last statement's expression, if any.
type Block struct {
	Stmts []Stmt
}

// LastExprType returns the type of the block's final expression statement,
// or nil if the block is empty or ends in a declaration.
func (b *Block) LastExprType() types.Type {
	if len(b.Stmts) == 0 {
		return nil
	}
	if es, ok := b.Stmts[len(b.Stmts)-1].(*ExprStmt); ok {
		return es.Expr.Type()
	}
	return nil
}

type Stmt interface{ isStmt() }

type DeclStmt struct{ Decl Decl }
type ExprStmt struct{ Expr Expr }

func (*DeclStmt) isStmt() {}
func (*ExprStmt) isStmt() {}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is the closed set of expression kinds. Every expression carries an
// optional resolved type (spec.md §3, invariant 1 in §8: after a successful
// resolve, Type() is never nil).
type Expr interface {
	isExpr()
	Type() types.Type
	SetType(types.Type)
}

type exprHeader struct {
	ty types.Type
}

func (e *exprHeader) Type() types.Type      { return e.ty }
func (e *exprHeader) SetType(t types.Type)  { e.ty = t }

// NameExpr is a (possibly namespaced) identifier reference.
type NameExpr struct {
	exprHeader
	Path     []string
	Name     string
	TypeArgs []types.Type
	// Resolved is set by the resolver to the namespace/package the Name was
	// found in (spec.md §4.D resolve_name_type rule 4).
	Resolved types.PackageRef
}

func (*NameExpr) isExpr() {}

// LiteralKind mirrors cst.LiteralKind after lowering has parsed the token
// text into a concrete value.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNull
)

// LiteralExpr is a literal value. IntValue/FloatValue/StringValue/BoolValue
// is populated according to Kind; Narrowed records whether the resolver has
// already committed this literal to a context-supplied type (spec.md §4.D
// "literal narrowing"), so narrowing is idempotent across re-resolution.
type LiteralExpr struct {
	exprHeader
	Kind        LiteralKind
	IntValue    int64
	FloatValue  float64
	StringValue string
	BoolValue   bool
	Narrowed    bool
}

func (*LiteralExpr) isExpr() {}

// BinOp is the fixed set of recognized binary operators (spec.md §4.B rule
// 6). Any other source token lowers to InfixFunctionCall(name).
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpInfixFunctionCall
)

// Symbol returns the canonical source spelling of op, used as the
// operator-table key (internal/arena, internal/builtins). Panics for
// OpInfixFunctionCall, which never consults the table -- its result type
// comes from resolving InfixName as an ordinary call.
func (op BinOp) Symbol() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		panic("hir: BinOp.Symbol called on OpInfixFunctionCall")
	}
}

// BinOpExpr is `lhs OP rhs`. InfixName is set only when Op ==
// OpInfixFunctionCall.
type BinOpExpr struct {
	exprHeader
	Op        BinOp
	InfixName string
	LHS       Expr
	RHS       Expr
}

func (*BinOpExpr) isExpr() {}

// UnaryOp is a prefix or postfix unary operator.
type UnaryOp uint8

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
	UnaryDeref       // prefix *e
	UnaryRef         // prefix &e
	UnaryForceUnwrap // postfix e!!
)

type UnaryExpr struct {
	exprHeader
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) isExpr() {}

// SubscriptExpr is `target[index]`.
type SubscriptExpr struct {
	exprHeader
	Target Expr
	Index  Expr
}

func (*SubscriptExpr) isExpr() {}

// MemberExpr is `target.name` / `target?.name`.
type MemberExpr struct {
	exprHeader
	Target Expr
	Name   string
	IsSafe bool
}

func (*MemberExpr) isExpr() {}

// ArrayExpr is an array literal.
type ArrayExpr struct {
	exprHeader
	Elems []Expr
}

func (*ArrayExpr) isExpr() {}

// CallArg is one labeled or positional call argument.
type CallArg struct {
	Label string // "" (treated as positional / "_") when not labeled
	Value Expr
}

// CallExpr is `target(args...)`.
type CallExpr struct {
	exprHeader
	Target   Expr
	TypeArgs []types.Type
	Args     []CallArg
}

func (*CallExpr) isExpr() {}

// IfExpr is `if cond { then } [else { else }]`. Its type is Noting when
// Else is nil, otherwise the then-block's last-expression type (Unit when
// that block has none); the else-block's type is not compared against it.
type IfExpr struct {
	exprHeader
	Cond Expr
	Then *Block
	Else *Block
}

func (*IfExpr) isExpr() {}

// ReturnExpr is `return` / `return value`.
type ReturnExpr struct {
	exprHeader
	Value Expr // nil for a bare return
}

func (*ReturnExpr) isExpr() {}

// CastKind distinguishes `as` from `as?`.
type CastKind uint8

const (
	CastForced CastKind = iota
	CastOptional
)

type TypeCastExpr struct {
	exprHeader
	Kind   CastKind
	Value  Expr
	Target types.Type
}

func (*TypeCastExpr) isExpr() {}

// SizeOfExpr is `sizeof(T)`.
type SizeOfExpr struct {
	exprHeader
	Target types.Type
}

func (*SizeOfExpr) isExpr() {}

// LambdaExpr is an anonymous function literal.
type LambdaExpr struct {
	exprHeader
	Args []ArgDef
	Body *Block
}

func (*LambdaExpr) isExpr() {}
