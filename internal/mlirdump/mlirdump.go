// Package mlirdump renders a lowered MLIR tree as indented text.
//
// There is no requirement to round-trip this output back into wiz source
// — this exists purely so cmd/wizc can show a human what the pipeline
// actually produced.
package mlirdump

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChanTsune/wizc/internal/mlir"
)

// Options controls dump output.
type Options struct {
	// IndentWidth is the number of spaces per nesting level. Zero uses the
	// default of four.
	IndentWidth int
}

// Dumper renders MLIR files as text.
type Dumper struct {
	options Options
	buf     strings.Builder
	indent  int
}

// New creates a new Dumper.
func New(options Options) *Dumper {
	if options.IndentWidth == 0 {
		options.IndentWidth = 4
	}
	return &Dumper{options: options}
}

// Dump renders a set of lowered files as one text document.
func (d *Dumper) Dump(files []*mlir.File) string {
	d.buf.Reset()
	for i, f := range files {
		if i > 0 {
			d.buf.WriteByte('\n')
		}
		d.dumpFile(f)
	}
	return d.buf.String()
}

// Dump is a package-level convenience wrapper around Dumper.Dump with
// default options.
func Dump(files []*mlir.File) string {
	return New(Options{}).Dump(files)
}

func (d *Dumper) print(s string) { d.buf.WriteString(s) }

func (d *Dumper) printIndent() {
	d.buf.WriteString(strings.Repeat(" ", d.indent*d.options.IndentWidth))
}

func (d *Dumper) printLine(s string) {
	d.printIndent()
	d.buf.WriteString(s)
	d.buf.WriteByte('\n')
}

func (d *Dumper) dumpFile(f *mlir.File) {
	d.printLine(fmt.Sprintf("// file %s", f.Name))
	for _, decl := range f.Body {
		d.dumpDecl(decl)
	}
}

func (d *Dumper) dumpDecl(decl mlir.Decl) {
	switch v := decl.(type) {
	case *mlir.MLVar:
		d.dumpVar(v)
	case *mlir.MLFun:
		d.dumpFun(v)
	case *mlir.MLStruct:
		d.dumpStruct(v)
	default:
		panic(fmt.Sprintf("mlirdump: unhandled decl %T", decl))
	}
}

func (d *Dumper) dumpVar(v *mlir.MLVar) {
	line := fmt.Sprintf("var %s: %s", v.Name, v.Type)
	if v.Value != nil {
		line += " = " + d.exprString(v.Value)
	}
	d.printLine(line)
}

func (d *Dumper) dumpFun(fn *mlir.MLFun) {
	args := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		args[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	d.printLine(fmt.Sprintf("fun %s(%s) -> %s {", fn.Name, strings.Join(args, ", "), fn.Ret))
	d.indent++
	for _, s := range fn.Body {
		d.dumpStmt(s)
	}
	d.indent--
	d.printLine("}")
}

func (d *Dumper) dumpStruct(s *mlir.MLStruct) {
	d.printLine(fmt.Sprintf("struct %s {", s.MangledName))
	d.indent++
	for _, f := range s.Fields {
		d.printLine(fmt.Sprintf("%s: %s", f.Name, f.Type))
	}
	d.indent--
	d.printLine("}")
}

func (d *Dumper) dumpStmt(s mlir.Stmt) {
	switch v := s.(type) {
	case *mlir.MLDeclStmt:
		d.dumpVar(v.Decl)
	case *mlir.MLExprStmt:
		d.printLine(d.exprString(v.Expr))
	case *mlir.MLAssign:
		d.printLine(d.exprString(v.Target) + " = " + d.exprString(v.Value))
	default:
		panic(fmt.Sprintf("mlirdump: unhandled stmt %T", s))
	}
}

// exprString renders an expression inline on one line; an MLIf renders its
// branches as `{ s1; s2 }` blocks on that same line (see blockExprString).
func (d *Dumper) exprString(e mlir.Expr) string {
	switch v := e.(type) {
	case mlir.MLName:
		return v.Name
	case mlir.MLIntLiteral:
		return strconv.FormatInt(v.Value, 10)
	case mlir.MLFloatLiteral:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case mlir.MLStringLiteral:
		return strconv.Quote(v.Value)
	case mlir.MLBoolLiteral:
		return strconv.FormatBool(v.Value)
	case mlir.MLNullLiteral:
		return "null"
	case mlir.PrimitiveBinOp:
		return d.exprString(v.LHS) + " " + binOpSymbol(v.Op) + " " + d.exprString(v.RHS)
	case mlir.PrimitiveUnaryOp:
		return unaryOpSymbol(v.Op) + d.exprString(v.Operand)
	case mlir.PrimitiveTypeCast:
		op := "as?"
		if v.Forced {
			op = "as"
		}
		return d.exprString(v.Value) + " " + op + " " + v.Type().String()
	case mlir.PrimitiveSubscript:
		return d.exprString(v.Target) + "[" + d.exprString(v.Index) + "]"
	case mlir.MLMember:
		sep := "."
		if v.IsSafe {
			sep = "?."
		}
		return d.exprString(v.Target) + sep + v.Name
	case mlir.MLCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = d.exprString(a)
		}
		return d.exprString(v.Target) + "(" + strings.Join(args, ", ") + ")"
	case mlir.MLIf:
		return d.blockExprString("if " + d.exprString(v.Cond), v.Then, v.Else)
	case mlir.MLReturn:
		if v.Value == nil {
			return "return"
		}
		return "return " + d.exprString(v.Value)
	case mlir.MLArrayLit:
		elems := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = d.exprString(e)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case mlir.MLZeroValue:
		return "zeroValue<" + v.Type().String() + ">"
	default:
		panic(fmt.Sprintf("mlirdump: unhandled expr %T", e))
	}
}

func (d *Dumper) blockExprString(header string, then, els []mlir.Stmt) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(" { ")
	for i, s := range then {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(d.stmtString(s))
	}
	sb.WriteString(" }")
	if len(els) > 0 {
		sb.WriteString(" else { ")
		for i, s := range els {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(d.stmtString(s))
		}
		sb.WriteString(" }")
	}
	return sb.String()
}

func (d *Dumper) stmtString(s mlir.Stmt) string {
	switch v := s.(type) {
	case *mlir.MLDeclStmt:
		line := fmt.Sprintf("var %s: %s", v.Decl.Name, v.Decl.Type)
		if v.Decl.Value != nil {
			line += " = " + d.exprString(v.Decl.Value)
		}
		return line
	case *mlir.MLExprStmt:
		return d.exprString(v.Expr)
	case *mlir.MLAssign:
		return d.exprString(v.Target) + " = " + d.exprString(v.Value)
	default:
		panic(fmt.Sprintf("mlirdump: unhandled stmt %T", s))
	}
}

func binOpSymbol(op mlir.PrimitiveBinOpKind) string {
	switch op {
	case mlir.MLAdd:
		return "+"
	case mlir.MLSub:
		return "-"
	case mlir.MLMul:
		return "*"
	case mlir.MLDiv:
		return "/"
	case mlir.MLMod:
		return "%"
	case mlir.MLEq:
		return "=="
	case mlir.MLNe:
		return "!="
	case mlir.MLLt:
		return "<"
	case mlir.MLLe:
		return "<="
	case mlir.MLGt:
		return ">"
	case mlir.MLGe:
		return ">="
	case mlir.MLAnd:
		return "&&"
	case mlir.MLOr:
		return "||"
	default:
		panic(fmt.Sprintf("mlirdump: unhandled bin op %d", op))
	}
}

func unaryOpSymbol(op mlir.PrimitiveUnaryOpKind) string {
	switch op {
	case mlir.MLNeg:
		return "-"
	case mlir.MLPos:
		return "+"
	case mlir.MLNot:
		return "!"
	case mlir.MLAddrOf:
		return "&"
	case mlir.MLDerefOf:
		return "*"
	default:
		panic(fmt.Sprintf("mlirdump: unhandled unary op %d", op))
	}
}
