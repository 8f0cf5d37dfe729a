// Package diagnostic implements the error-handling design of spec.md §7: a
// single error kind carrying a human message, categorized, plus a
// collector that lets one failing declaration abort its own traversal
// without aborting the whole source set (spec.md §7 propagation rule).
package diagnostic

import "fmt"

// Category is the closed set of resolver error categories from spec.md §7,
// plus Overload (named only in spec.md §9's design notes, supplemented here
// since the notes require surfacing it as a real failure mode).
type Category uint8

const (
	// NamespaceMissing: push or lookup of an absent namespace.
	NamespaceMissing Category = iota
	// UnknownName: identifier not in any active namespace or local frame.
	UnknownName
	// UnknownMember: member access on a struct whose info lacks the field/method.
	UnknownMember
	// UndefinedOperator: no matching binary-operator-table entry and no
	// literal-narrowing rescue.
	UndefinedOperator
	// TypeMismatch: call argument count/type disagreement, non-boolean
	// while-condition, or mixed-type array elements.
	TypeMismatch
	// InferenceFailure: an abstract function without a declared return type.
	InferenceFailure
	// SelfOutsideType: Self used in a position with no enclosing type.
	SelfOutsideType
	// Overload: more than one candidate survives label/type filtering and
	// the expected-signature hint did not disambiguate.
	Overload
)

func (c Category) String() string {
	switch c {
	case NamespaceMissing:
		return "namespace-missing"
	case UnknownName:
		return "unknown-name"
	case UnknownMember:
		return "unknown-member"
	case UndefinedOperator:
		return "undefined-operator"
	case TypeMismatch:
		return "type-mismatch"
	case InferenceFailure:
		return "inference-failure"
	case SelfOutsideType:
		return "self-outside-type"
	case Overload:
		return "overload"
	default:
		return "unknown"
	}
}

// ResolverError is the single error kind spec.md §7 describes: a category
// plus a human message, with the declaration name it was reported against
// so a collector can attribute it.
type ResolverError struct {
	Category Category
	Message  string
	Decl     string // name of the decl this error aborted, if known
}

func (e *ResolverError) Error() string {
	if e.Decl != "" {
		return fmt.Sprintf("%s: %s: %s", e.Decl, e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// New constructs a ResolverError not yet attributed to a declaration.
func New(cat Category, format string, args ...any) *ResolverError {
	return &ResolverError{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// WithDecl returns a copy of e attributed to decl.
func (e *ResolverError) WithDecl(decl string) *ResolverError {
	cp := *e
	cp.Decl = decl
	return &cp
}

// List collects the errors produced while walking a source set. Per spec.md
// §7, the first failure inside one declaration is recorded against that
// declaration, and the enclosing traversal continues with the next
// declaration rather than aborting the whole compilation.
type List struct {
	errors []*ResolverError
}

// Add records err (attributed to decl) and continues.
func (l *List) Add(decl string, err *ResolverError) {
	l.errors = append(l.errors, err.WithDecl(decl))
}

// HasErrors reports whether any error was recorded.
func (l *List) HasErrors() bool { return len(l.errors) > 0 }

// Errors returns every recorded error, in recording order.
func (l *List) Errors() []*ResolverError { return l.errors }
