// Package api provides the public API for the wiz semantic pipeline.
//
// This package is for programmatic use of the compiler core by a driver
// that owns parsing: callers hand in an already-parsed source set (see
// internal/cst for the node shapes an external parser produces) and get
// back lowered MLIR plus diagnostics. For CLI usage, see cmd/wizc.
package api

import (
	"github.com/ChanTsune/wizc/internal/cst"
	"github.com/ChanTsune/wizc/internal/mlir"
	"github.com/ChanTsune/wizc/internal/pipeline"
)

// File is a parsed source file, as produced by an external parser.
type File = cst.File

// MLIRFile is one compiled unit's lowered output.
type MLIRFile = mlir.File

// CompileOptions controls compilation behavior.
type CompileOptions struct {
	// DisableMangling turns off symbol mangling globally, useful for
	// inspecting MLIR output during development.
	DisableMangling bool

	// KeepNames lists qualified declaration names exempt from mangling.
	KeepNames []string
}

// CompileResult contains the compilation output.
type CompileResult struct {
	// MLIR holds one lowered file per input source file, in input order.
	// Nil if Errors is non-empty: lowering never runs over a source set
	// that failed name or type resolution.
	MLIR []*MLIRFile

	// Errors contains every diagnostic message produced across every
	// compilation pass. If non-empty, MLIR is nil.
	Errors []string

	// FilesCompiled is the number of source files successfully lowered.
	FilesCompiled int

	// DeclsLowered is the total count of top-level MLIR declarations
	// produced across every file (struct lowering expands one StructDecl
	// into several MLFuns plus one MLStruct, so this is not a 1:1 count
	// against the source's declaration count).
	DeclsLowered int
}

// Compile compiles a source set with default options: full mangling, no
// extra kept names.
func Compile(files []*File) CompileResult {
	return CompileWithOptions(files, CompileOptions{})
}

// CompileWithOptions compiles a source set with custom options.
func CompileWithOptions(files []*File, opts CompileOptions) CompileResult {
	result := pipeline.CompileWithOptions(files, pipeline.Options{
		DisableMangling: opts.DisableMangling,
		KeepNames:       opts.KeepNames,
	})

	errs := make([]string, len(result.Diagnostics.Errors()))
	for i, e := range result.Diagnostics.Errors() {
		errs[i] = e.Error()
	}

	return CompileResult{
		MLIR:          result.MLIR,
		Errors:        errs,
		FilesCompiled: result.Stats.FilesCompiled,
		DeclsLowered:  result.Stats.DeclsLowered,
	}
}
