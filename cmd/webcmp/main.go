package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/pthm/webcmp/lib/config"
	"github.com/pthm/webcmp/lib/generator"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "generate":
		if err := run(args, runGenerate); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "clean":
		if err := run(args, runClean); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("webcmp version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`webcmp - Go components as custom elements

Usage:
  webcmp <command> [arguments]

Commands:
  generate [packages]   Generate descriptors for tagged components (e.g., ./... or ./components/...)
  clean [packages]      Remove generated files (*_wc.go and declaration files)
  version               Print version
  help                  Show this help

Options:
  --dry-run             Show what would be generated or removed without writing files
  --verbose             Log every component found

Configuration is read from webcmp.yaml in the current directory when present.

Examples:
  webcmp generate ./...                    Generate for all packages
  webcmp generate ./components/counter     Generate for a specific package
  webcmp generate --dry-run ./...          Preview generation
  webcmp clean ./...                       Remove all generated files`)
}

type invocation struct {
	patterns []string
	dryRun   bool
	log      logr.Logger
	cfg      *config.Resolved
}

func run(args []string, fn func(invocation) error) error {
	var inv invocation
	var verbose bool

	for _, arg := range args {
		switch arg {
		case "--dry-run":
			inv.dryRun = true
		case "--verbose", "-v":
			verbose = true
		default:
			inv.patterns = append(inv.patterns, arg)
		}
	}
	if len(inv.patterns) == 0 {
		inv.patterns = []string{"./..."}
	}

	zl, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	inv.log = zapr.NewLogger(zl)

	cfg, err := config.Resolve(".")
	if err != nil {
		return err
	}
	inv.cfg = cfg
	inv.dryRun = inv.dryRun || cfg.Generate.DryRun
	if cfg.ModulePath != "" {
		inv.log.V(1).Info("resolved module", "module", cfg.ModulePath, "root", cfg.Root)
	}

	return fn(inv)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	zcfg.DisableCaller = true
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}

func generatorOptions(inv invocation) generator.Options {
	decl := inv.cfg.Generate.Declarations
	if decl == "-" {
		decl = ""
	}
	return generator.Options{
		DryRun:       inv.dryRun,
		Suffix:       inv.cfg.Generate.Suffix,
		Declarations: decl,
		Logger:       inv.log,
	}
}

func runGenerate(inv invocation) error {
	return generator.New(generatorOptions(inv)).Generate(inv.patterns...)
}

func runClean(inv invocation) error {
	return generator.New(generatorOptions(inv)).Clean(inv.patterns...)
}
