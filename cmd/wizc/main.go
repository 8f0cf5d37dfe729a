// Command wizc runs the wiz semantic pipeline over a built-in example
// program and prints its lowered MLIR.
//
// Usage:
//
//	wizc [options] <example>
//	wizc --list
//
// Options:
//
//	-o <file>              Write output to file (default: stdout)
//	--config <file>        Use specific config file
//	--no-config            Ignore config files
//	--no-mangle            Don't mangle identifiers
//	--keep-names <names>   Comma-separated qualified names to preserve
//	--list                 List available examples and exit
//	--version              Print version and exit
//	--help                 Print help and exit
//
// Config file:
//
//	wizc looks for wizc.json or .wizcrc in the current directory and
//	parent directories. Config file options are overridden by CLI flags.
//
// There is no `<source.wiz>` argument: internal/cst's node shapes come
// from a parser outside this module's scope, so wizc exercises the
// pipeline over a small set of built-in example programs instead (see
// examples.go). A driver that owns parsing links against pkg/api
// directly rather than going through this binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ChanTsune/wizc/internal/config"
	"github.com/ChanTsune/wizc/internal/mlirdump"
	"github.com/ChanTsune/wizc/pkg/api"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		outputFile  string
		configFile  string
		noConfig    bool
		noMangle    bool
		keepNames   string
		listExample bool
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&outputFile, "o", "", "Write output to `file`")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.BoolVar(&noMangle, "no-mangle", false, "Don't mangle identifiers")
	flag.StringVar(&keepNames, "keep-names", "", "Comma-separated qualified names to preserve")
	flag.BoolVar(&listExample, "list", false, "List available examples and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&showHelp, "help", false, "Print help and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wizc - wiz compiler pipeline debug harness v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: wizc [options] <example>\n")
		fmt.Fprintf(os.Stderr, "       wizc --list\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for wizc.json or .wizcrc in current and parent directories.\n")
		fmt.Fprintf(os.Stderr, "  CLI flags override config file settings.\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		return nil
	}
	if showVersion {
		fmt.Printf("wizc v%s (%s)\n", version, commit)
		return nil
	}
	if listExample {
		names := make([]string, 0, len(examples))
		for name := range examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no example specified (try --list)")
	}
	name := flag.Arg(0)
	build, ok := examples[name]
	if !ok {
		return fmt.Errorf("unknown example %q (try --list)", name)
	}

	// Load config file.
	var cfg *config.Config
	if !noConfig {
		var err error
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("loading config file %s: %w", configFile, err)
			}
		} else {
			startDir, _ := os.Getwd()
			cfg, _, err = config.Load(startDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}
	}

	var cliKeepNames []string
	if keepNames != "" {
		cliKeepNames = strings.Split(keepNames, ",")
		for i := range cliKeepNames {
			cliKeepNames[i] = strings.TrimSpace(cliKeepNames[i])
		}
	}

	if cfg == nil {
		cfg = &config.Config{}
	}
	pipelineOpts := cfg.Merge(config.MergeOptions{NoMangle: noMangle, KeepNames: cliKeepNames})

	result := api.CompileWithOptions([]*api.File{build()}, api.CompileOptions{
		DisableMangling: pipelineOpts.DisableMangling,
		KeepNames:       pipelineOpts.KeepNames,
	})

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("compilation failed with %d error(s)", len(result.Errors))
	}

	text := mlirdump.Dump(result.MLIR)

	var output *os.File = os.Stdout
	if outputFile != "" {
		f, err := os.Create(filepath.Clean(outputFile))
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if _, err := fmt.Fprint(output, text); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Compiled %d file(s), %d declaration(s) lowered\n",
			result.FilesCompiled, result.DeclsLowered)
	}

	return nil
}
