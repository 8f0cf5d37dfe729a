// Package types provides the wiz type system: the representation of
// values, function signatures, type-of-type metavalues, the pre-resolution
// Self placeholder, and package paths.
//
// A Type is one of a closed set of variants (Value, Function, Type, Self);
// ValueType is itself a closed set (Named, Reference, Pointer, Array, Tuple).
// Consumers switch exhaustively rather than relying on open interfaces.
package types

import (
	"fmt"
	"strings"
)

// Type is the root of the type model. Every concrete type implements it.
type Type interface {
	// String returns source-like syntax for this type.
	String() string
	// Equals returns true if this type is structurally equal to other.
	Equals(other Type) bool
	isType()
}

// ----------------------------------------------------------------------------
// Self
// ----------------------------------------------------------------------------

// SelfType is the pre-resolution Self placeholder. It only ever appears in
// HLIR signatures produced by AST lowering; the resolver replaces every
// occurrence with the enclosing struct/extension's Named type (§4.D).
type SelfType struct{}

func (SelfType) String() string     { return "Self" }
func (SelfType) Equals(o Type) bool { _, ok := o.(SelfType); return ok }
func (SelfType) isType()            {}

// Self is the shared SelfType value.
var Self Type = SelfType{}

// ----------------------------------------------------------------------------
// Type(Type) - the "type of a type" metavalue
// ----------------------------------------------------------------------------

// TypeOfType represents the metavalue produced when a type name is used as
// an expression, e.g. `A` in `A(a: 1)`. Member access on a TypeOfType only
// reaches static functions (notably `init`, see §4.D).
type TypeOfType struct {
	Of Type
}

func (t TypeOfType) String() string { return fmt.Sprintf("Type<%s>", t.Of.String()) }
func (t TypeOfType) Equals(o Type) bool {
	ot, ok := o.(TypeOfType)
	return ok && t.Of.Equals(ot.Of)
}
func (TypeOfType) isType() {}

// ----------------------------------------------------------------------------
// Function
// ----------------------------------------------------------------------------

// ArgType is one entry of a function type's argument list.
type ArgType struct {
	Label string
	Type  Type
}

// FunctionType is the type of a function, method, or initializer value.
type FunctionType struct {
	Args []ArgType
	Ret  Type
}

func (f FunctionType) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Label != "" && a.Label != "_" {
			b.WriteString(a.Label)
			b.WriteString(": ")
		}
		b.WriteString(a.Type.String())
	}
	b.WriteString(") -> ")
	b.WriteString(f.Ret.String())
	return b.String()
}

func (f FunctionType) Equals(o Type) bool {
	of, ok := o.(FunctionType)
	if !ok || len(f.Args) != len(of.Args) || !f.Ret.Equals(of.Ret) {
		return false
	}
	for i := range f.Args {
		if f.Args[i].Label != of.Args[i].Label || !f.Args[i].Type.Equals(of.Args[i].Type) {
			return false
		}
	}
	return true
}
func (FunctionType) isType() {}

// ----------------------------------------------------------------------------
// Package
// ----------------------------------------------------------------------------

// Package is an ordered sequence of namespace segments. The empty sequence
// is the global (built-in) package.
type Package []string

func (p Package) String() string { return strings.Join(p, "::") }
func (p Package) Equals(o Package) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
func (p Package) IsGlobal() bool { return len(p) == 0 }

// PackageRef is either a RawPackage (as written in source, pre-resolution)
// or a ResolvedPackage (post-resolution, names an arena namespace path).
type PackageRef interface {
	Segments() Package
	isPackageRef()
}

// RawPackage is the package path exactly as written in source.
type RawPackage struct{ Path Package }

func (r RawPackage) Segments() Package { return r.Path }
func (RawPackage) isPackageRef()       {}

// ResolvedPackage names a namespace that exists in the resolver arena.
type ResolvedPackage struct{ Path Package }

func (r ResolvedPackage) Segments() Package { return r.Path }
func (ResolvedPackage) isPackageRef()       {}

// GlobalPackage is the resolved global (built-in) package.
func GlobalPackage() PackageRef { return ResolvedPackage{Path: nil} }

// ----------------------------------------------------------------------------
// ValueType
// ----------------------------------------------------------------------------

// ValueType is the payload of Value(ValueType); itself a closed variant set.
type ValueType interface {
	Type
	isValueType()
}

// NamedType is a reference to a declared or built-in type by name, with
// optional generic type arguments.
type NamedType struct {
	Pkg      PackageRef
	Name     string
	TypeArgs []Type // nil means not generic / not instantiated
}

func (n NamedType) String() string {
	var b strings.Builder
	if !n.Pkg.Segments().IsGlobal() {
		b.WriteString(n.Pkg.Segments().String())
		b.WriteString("::")
	}
	b.WriteString(n.Name)
	if len(n.TypeArgs) > 0 {
		b.WriteString("<")
		for i, a := range n.TypeArgs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteString(">")
	}
	return b.String()
}

func (n NamedType) Equals(o Type) bool {
	on, ok := o.(NamedType)
	if !ok || n.Name != on.Name || !n.Pkg.Segments().Equals(on.Pkg.Segments()) {
		return false
	}
	if len(n.TypeArgs) != len(on.TypeArgs) {
		return false
	}
	for i := range n.TypeArgs {
		if !n.TypeArgs[i].Equals(on.TypeArgs[i]) {
			return false
		}
	}
	return true
}
func (NamedType) isType()      {}
func (NamedType) isValueType() {}

// ReferenceType is &T.
type ReferenceType struct{ Elem Type }

func (r ReferenceType) String() string { return "&" + r.Elem.String() }
func (r ReferenceType) Equals(o Type) bool {
	or, ok := o.(ReferenceType)
	return ok && r.Elem.Equals(or.Elem)
}
func (ReferenceType) isType()      {}
func (ReferenceType) isValueType() {}

// PointerType is *T, an unsafe raw pointer.
type PointerType struct{ Elem Type }

func (p PointerType) String() string { return "*" + p.Elem.String() }
func (p PointerType) Equals(o Type) bool {
	op, ok := o.(PointerType)
	return ok && p.Elem.Equals(op.Elem)
}
func (PointerType) isType()      {}
func (PointerType) isValueType() {}

// ArrayType is [T; N].
type ArrayType struct {
	Elem Type
	Size int
}

func (a ArrayType) String() string { return fmt.Sprintf("[%s; %d]", a.Elem.String(), a.Size) }
func (a ArrayType) Equals(o Type) bool {
	oa, ok := o.(ArrayType)
	return ok && a.Size == oa.Size && a.Elem.Equals(oa.Elem)
}
func (ArrayType) isType()      {}
func (ArrayType) isValueType() {}

// TupleType is (T1, T2, ...).
type TupleType struct{ Elems []Type }

func (t TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t TupleType) Equals(o Type) bool {
	ot, ok := o.(TupleType)
	if !ok || len(t.Elems) != len(ot.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equals(ot.Elems[i]) {
			return false
		}
	}
	return true
}
func (TupleType) isType()      {}
func (TupleType) isValueType() {}

// ----------------------------------------------------------------------------
// Built-in primitives
// ----------------------------------------------------------------------------

// Built-in primitive names, all in the global package.
const (
	Noting = "Noting"
	Unit   = "Unit"
	Bool   = "Bool"
	Int8   = "Int8"
	Int16  = "Int16"
	Int32  = "Int32"
	Int64  = "Int64"
	UInt8  = "UInt8"
	UInt16 = "UInt16"
	UInt32 = "UInt32"
	UInt64 = "UInt64"
	Size   = "Size"
	USize  = "USize"
	Float  = "Float"
	Double = "Double"
	String = "String"
)

// Named constructs a built-in (global package, non-generic) Named type.
func Named(name string) NamedType {
	return NamedType{Pkg: GlobalPackage(), Name: name}
}

var (
	integerNames = []string{Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Size, USize}
	floatNames   = []string{Float, Double}
)

// builtinNames lists every primitive name, in the order new code should
// register them (detection/seeding order does not matter semantically, but
// a fixed order keeps output and error messages deterministic).
var builtinNames = []string{
	Noting, Unit, Bool,
	Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64,
	Size, USize, Float, Double, String,
}

// BuiltinTypes returns the fixed set of built-in primitive types, in
// registration order. Used by the resolver to seed the global namespace.
func BuiltinTypes() []NamedType {
	out := make([]NamedType, len(builtinNames))
	for i, n := range builtinNames {
		out[i] = Named(n)
	}
	return out
}

// IntegerTypes returns every built-in integer type.
func IntegerTypes() []NamedType {
	out := make([]NamedType, len(integerNames))
	for i, n := range integerNames {
		out[i] = Named(n)
	}
	return out
}

// FloatingPointTypes returns every built-in floating-point type.
func FloatingPointTypes() []NamedType {
	out := make([]NamedType, len(floatNames))
	for i, n := range floatNames {
		out[i] = Named(n)
	}
	return out
}

// DefaultIntegerType is the type an unconstrained integer literal narrows to.
func DefaultIntegerType() NamedType { return Named(Int64) }

// DefaultFloatType is the type an unconstrained floating literal narrows to.
func DefaultFloatType() NamedType { return Named(Double) }

func nameIn(name string, set []string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

// IsPrimitive reports whether t is one of the fixed built-in names.
func IsPrimitive(t Type) bool {
	n, ok := t.(NamedType)
	return ok && n.Pkg.Segments().IsGlobal() && nameIn(n.Name, builtinNames)
}

// IsInteger reports whether t is one of the built-in integer types.
func IsInteger(t Type) bool {
	n, ok := t.(NamedType)
	return ok && n.Pkg.Segments().IsGlobal() && nameIn(n.Name, integerNames)
}

// IsFloatingPoint reports whether t is one of the built-in floating types.
func IsFloatingPoint(t Type) bool {
	n, ok := t.(NamedType)
	return ok && n.Pkg.Segments().IsGlobal() && nameIn(n.Name, floatNames)
}

// IsNumeric reports whether t is an integer or floating-point built-in.
func IsNumeric(t Type) bool { return IsInteger(t) || IsFloatingPoint(t) }

// IsBoolean reports whether t is the built-in Bool type.
func IsBoolean(t Type) bool {
	n, ok := t.(NamedType)
	return ok && n.Pkg.Segments().IsGlobal() && n.Name == Bool
}

// IsString reports whether t is the built-in String type.
func IsString(t Type) bool {
	n, ok := t.(NamedType)
	return ok && n.Pkg.Segments().IsGlobal() && n.Name == String
}

// IsSelf reports whether t is the pre-resolution Self placeholder.
func IsSelf(t Type) bool { _, ok := t.(SelfType); return ok }

// IsPointerType reports whether t is *T.
func IsPointerType(t Type) bool { _, ok := t.(PointerType); return ok }

// IsReferenceType reports whether t is &T.
func IsReferenceType(t Type) bool { _, ok := t.(ReferenceType); return ok }

// IsUnsafePointer is an alias for IsPointerType: every *T in this language
// is an unsafe raw pointer (there is no separate safe-pointer variant).
func IsUnsafePointer(t Type) bool { return IsPointerType(t) }

// IsFunctionType reports whether t is a Function type.
func IsFunctionType(t Type) bool { _, ok := t.(FunctionType); return ok }

// Dereference strips exactly one Reference or Pointer layer from t. It
// reports false if t is neither, so callers can retry with the stripped
// type without duplicating this switch at every call site (used by member
// access and subscript auto-deref in the resolver, §4.D).
func Dereference(t Type) (Type, bool) {
	switch v := t.(type) {
	case ReferenceType:
		return v.Elem, true
	case PointerType:
		return v.Elem, true
	default:
		return t, false
	}
}

// PackageOf returns the package of a Named type; it is a programmer error to
// call it on any other variant.
func PackageOf(t Type) Package {
	n, ok := t.(NamedType)
	if !ok {
		panic(fmt.Sprintf("types.PackageOf: not a Named type: %T", t))
	}
	return n.Pkg.Segments()
}

// NameOf returns the name of a Named type; it is a programmer error to call
// it on any other variant.
func NameOf(t Type) string {
	n, ok := t.(NamedType)
	if !ok {
		panic(fmt.Sprintf("types.NameOf: not a Named type: %T", t))
	}
	return n.Name
}
