// Package pipeline provides the main compilation API.
//
// It coordinates HIR construction, type resolution, and MLIR lowering to
// turn a parsed source set into a lowered, mangled program.
package pipeline

import (
	"fmt"

	"github.com/ChanTsune/wizc/internal/arena"
	"github.com/ChanTsune/wizc/internal/builtins"
	"github.com/ChanTsune/wizc/internal/cst"
	"github.com/ChanTsune/wizc/internal/diagnostic"
	"github.com/ChanTsune/wizc/internal/hir"
	"github.com/ChanTsune/wizc/internal/lowering"
	"github.com/ChanTsune/wizc/internal/mlir"
	"github.com/ChanTsune/wizc/internal/resolver"
)

// Options controls compilation behavior.
type Options struct {
	// DisableMangling turns off symbol mangling globally, as though every
	// declaration in the source set carried `no_mangle`. Intended for
	// debug builds where MLIR dumps should stay readable.
	DisableMangling bool

	// KeepNames lists additional declaration names that bypass mangling
	// even without an explicit `no_mangle` annotation, matched against
	// the pre-mangle qualified name (`pkg::name` or `pkg::Struct::name`).
	KeepNames []string
}

// DefaultOptions returns options for an ordinary release build: full
// mangling, no extra kept names.
func DefaultOptions() Options {
	return Options{}
}

// Result contains the compilation output.
type Result struct {
	// MLIR holds one lowered file per input source file, in input order.
	// Nil when Diagnostics.HasErrors() is true: lowering never runs over
	// a source set the resolver rejected.
	MLIR []*mlir.File

	// Diagnostics collects every error encountered across every pass.
	Diagnostics *diagnostic.List

	Stats Stats
}

// Stats reports basic compilation statistics.
type Stats struct {
	FilesCompiled int
	DeclsLowered  int
}

// Pipeline compiles a set of CST files to MLIR.
type Pipeline struct {
	options Options
}

// New creates a new Pipeline with the given options.
func New(options Options) *Pipeline {
	return &Pipeline{options: options}
}

// Compile runs the full HIR -> resolve -> MLIR pipeline over an entire
// source set at once, so cross-file name resolution (spec.md §4.D) sees
// every file's top-level declarations before any file's bodies are typed.
func (p *Pipeline) Compile(files []*cst.File) Result {
	result := Result{Diagnostics: &diagnostic.List{}}

	// hir.Lower only fails on a CST shape its closed switch doesn't cover,
	// which a conforming external parser never produces; panicking here
	// (rather than threading a second error channel alongside
	// Diagnostics) matches the "should never happen" precedent used
	// throughout this module for invariant violations.
	hirFiles := make([]*hir.File, 0, len(files))
	for _, f := range files {
		hf, err := hir.Lower(f)
		if err != nil {
			panic(fmt.Sprintf("pipeline: lowering CST to HIR: %v", err))
		}
		hirFiles = append(hirFiles, hf)
	}

	c := arena.New()
	builtins.Seed(c)

	for _, hf := range hirFiles {
		resolver.Detect(c, result.Diagnostics, hf)
	}
	for _, hf := range hirFiles {
		resolver.Preload(c, result.Diagnostics, hf)
	}
	for _, hf := range hirFiles {
		resolver.Resolve(c, result.Diagnostics, hf)
	}
	if result.Diagnostics.HasErrors() {
		return result
	}

	noMangle := lowering.CollectNoMangle(hirFiles)
	if p.options.DisableMangling {
		for k := range noMangle {
			noMangle[k] = true
		}
	}
	for _, k := range p.options.KeepNames {
		noMangle[k] = true
	}

	ctx := lowering.NewContext(c, noMangle)
	for _, hf := range hirFiles {
		mf := ctx.LowerFile(hf)
		result.MLIR = append(result.MLIR, mf)
		result.Stats.DeclsLowered += len(mf.Body)
	}
	result.Stats.FilesCompiled = len(hirFiles)

	return result
}

// Compile compiles a source set with default options.
func Compile(files []*cst.File) Result {
	return New(DefaultOptions()).Compile(files)
}

// CompileWithOptions compiles a source set with custom options.
func CompileWithOptions(files []*cst.File, options Options) Result {
	return New(options).Compile(files)
}
