// Package cst defines the shape of the Concrete Syntax Tree this module
// consumes from the (external, out of scope) parser. It is a data-only
// package: no lexing, no parsing, no trivia rendering lives here, only the
// node shapes described in spec.md §6 that internal/hir's AST lowering
// walks to produce HLIR.
//
// Trivia (leading/trailing whitespace and comments) is modeled as an opaque
// token per node so a real parser can round-trip source text; this module
// never reads Trivia, it only passes it through untouched where a node is
// kept as-is (matching "Trivia preservation... out of scope" in spec.md §1).
package cst

// Trivia is whitespace/comment text attached to a token. The core never
// interprets it.
type Trivia string

// Pos is a byte offset into the source file a CST was parsed from.
type Pos int

// File is the root of one parsed source file.
type File struct {
	Name string
	Uses []Use
	Body []Decl
}

// Use is a `use a::b::c` or `use a::b::*` declaration.
type Use struct {
	Path     []string
	Wildcard bool
	Alias    string // empty if no `as` alias
}

// ----------------------------------------------------------------------------
// Type syntax
// ----------------------------------------------------------------------------

// TypeArgs is the optional `<T, U>` suffix on a name or call.
type TypeArgs struct {
	Args []TypeExpr
}

// TypeExpr is type syntax as written in source: a bare or namespaced name,
// optionally decorated with leading `&`/`*`.
type TypeExpr struct {
	Path     []string // e.g. ["a","b"] for a::b::T; empty for a bare name
	Name     string
	TypeArgs *TypeArgs
	Ref      bool // leading `&`
	Ptr      bool // leading `*`; Ref and Ptr are mutually exclusive
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is the closed set of top-level and member declaration kinds.
type Decl interface{ isDecl() }

// Modifier is a declaration modifier keyword (e.g. `static`, `override`).
type Modifier string

// VarDecl is `val`/`var` with an optional type annotation and an
// initializer expression.
type VarDecl struct {
	Annotations []string
	IsMut       bool // true for `var`, false for `val`
	Name        string
	Type        *TypeExpr // nil if omitted
	Value       Expr
}

func (*VarDecl) isDecl() {}

// ArgDef is one function parameter.
type ArgDef struct {
	Label string // "_" for positional, "" defaults to Name
	Name  string
	Type  *TypeExpr // nil for `self`/`&self`
	SelfRef bool    // true for `&self`; only meaningful when Name == "self"
}

// FunDecl is a function, member function, or initializer.
type FunDecl struct {
	Annotations    []string
	Modifiers      []Modifier
	Name           string
	TypeParams     []string
	WhereClauses   []WhereClause
	Args           []ArgDef
	ReturnType     *TypeExpr // nil if omitted
	Body           *Block    // nil for an abstract/protocol-only declaration
}

func (*FunDecl) isDecl() {}

// WhereClause is one `where T: Proto` constraint.
type WhereClause struct {
	TypeParam string
	Protocol  TypeExpr
}

// StructDecl is a struct declaration.
type StructDecl struct {
	Annotations  []string
	Name         string
	TypeParams   []string
	WhereClauses []WhereClause
	Body         []Decl // VarDecl (stored property), FunDecl (member function), or nested decls
}

func (*StructDecl) isDecl() {}

// ProtocolDecl declares a protocol (interface of member-function/computed-
// property signatures).
type ProtocolDecl struct {
	Annotations []string
	Name        string
	Body        []Decl
}

func (*ProtocolDecl) isDecl() {}

// ExtensionDecl extends a target type, optionally conforming it to a
// protocol, with computed properties and member functions.
type ExtensionDecl struct {
	Annotations []string
	Target      TypeExpr
	Protocol    *TypeExpr // nil if this is a plain extension, not a conformance
	Body        []Decl
}

func (*ExtensionDecl) isDecl() {}

// ClassDecl is parsed but ignored by this module (spec.md §6: "class
// (currently ignored)").
type ClassDecl struct {
	Name string
	Body []Decl
}

func (*ClassDecl) isDecl() {}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Block is a brace-delimited sequence of statements.
type Block struct {
	Stmts []Stmt
}

// Stmt is the closed set of statement kinds. Bare declarations (`val`/`var`)
// and bare expressions are both statements.
type Stmt interface{ isStmt() }

type DeclStmt struct{ Decl Decl }
type ExprStmt struct{ Expr Expr }

func (*DeclStmt) isStmt() {}
func (*ExprStmt) isStmt() {}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is the closed set of expression kinds.
type Expr interface{ isExpr() }

// NameExpr is a (possibly namespaced, possibly generic) identifier.
type NameExpr struct {
	Path     []string
	Name     string
	TypeArgs *TypeArgs
}

func (*NameExpr) isExpr() {}

// LiteralKind identifies the kind of a literal.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralNull
)

// LiteralExpr is an integer/float/string/boolean/null literal.
type LiteralExpr struct {
	Kind LiteralKind
	Text string // raw lexeme, parsed by hir.Lower
}

func (*LiteralExpr) isExpr() {}

// BinOpExpr is `lhs OP rhs`; Op is the raw operator token text (spec.md §4.B
// rule 6 maps it to a fixed enum, or InfixFunctionCall, during lowering).
type BinOpExpr struct {
	Op  string
	LHS Expr
	RHS Expr
}

func (*BinOpExpr) isExpr() {}

// UnaryPosition distinguishes prefix (`-x`, `&x`, `*x`, `!x`) from postfix
// (`x!!`) unary operators.
type UnaryPosition uint8

const (
	Prefix UnaryPosition = iota
	Postfix
)

type UnaryExpr struct {
	Op       string
	Position UnaryPosition
	Operand  Expr
}

func (*UnaryExpr) isExpr() {}

// SubscriptExpr is `target[index]`.
type SubscriptExpr struct {
	Target Expr
	Index  Expr
}

func (*SubscriptExpr) isExpr() {}

// MemberExpr is `target.name` or `target?.name`.
type MemberExpr struct {
	Target Expr
	Name   string
	IsSafe bool
}

func (*MemberExpr) isExpr() {}

// ArrayExpr is an array literal `[e1, e2, ...]`.
type ArrayExpr struct{ Elems []Expr }

func (*ArrayExpr) isExpr() {}

// Arg is one labeled or positional call argument.
type Arg struct {
	Label string // "" if positional
	Value Expr
}

// CallExpr is `target(args...)`, optionally with type arguments and a
// trailing lambda block (`target(args) { ... }`).
type CallExpr struct {
	Target         Expr
	TypeArgs       *TypeArgs
	Args           []Arg
	TrailingLambda *LambdaExpr
}

func (*CallExpr) isExpr() {}

// IfExpr is `if cond { ... } else { ... }`; Else is nil for if-without-else.
type IfExpr struct {
	Cond Expr
	Then *Block
	Else *Block
}

func (*IfExpr) isExpr() {}

// ReturnExpr is `return` or `return value`; Value is nil for a bare return.
type ReturnExpr struct{ Value Expr }

func (*ReturnExpr) isExpr() {}

// CastKind distinguishes `as` (infallible) from `as?` (fallible) casts.
type CastKind uint8

const (
	CastForced CastKind = iota
	CastOptional
)

type TypeCastExpr struct {
	Kind   CastKind
	Value  Expr
	Target TypeExpr
}

func (*TypeCastExpr) isExpr() {}

// SizeOfExpr is `sizeof(T)`.
type SizeOfExpr struct{ Target TypeExpr }

func (*SizeOfExpr) isExpr() {}

// LambdaExpr is an anonymous function literal.
type LambdaExpr struct {
	Args []ArgDef
	Body *Block
}

func (*LambdaExpr) isExpr() {}
