// Command manualgen renders a content plan into a DOCX technical manual.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/manualgen/internal/config"
	"github.com/dgallion1/manualgen/internal/fetch"
	"github.com/dgallion1/manualgen/internal/manual"
	"github.com/dgallion1/manualgen/internal/outline"
	"github.com/dgallion1/manualgen/internal/parser"
	"github.com/dgallion1/manualgen/internal/pipeline"
	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/style"
	flag "github.com/spf13/pflag"
)

// Exit codes.
const (
	ExitSuccess = 0 // Manual written
	ExitGeneral = 1 // Plan, fetch, emission or write failure
	ExitUsage   = 2 // Invalid flags or configuration
)

type cliFlags struct {
	plan         string
	out          string
	stagingDir   string
	noCreateDirs bool
	fetchTimeout time.Duration
	pageSize     string
	logFormat    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one render and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	var f cliFlags
	fs := flag.NewFlagSet("manualgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.plan, "plan", "", "plan or document to render (default: built-in manual)")
	fs.StringVarP(&f.out, "out", "o", cfg.OutputPath, "output .docx path")
	fs.StringVar(&f.stagingDir, "staging-dir", cfg.StagingDir, "directory for fetched assets")
	fs.BoolVar(&f.noCreateDirs, "no-create-dirs", false, "fail instead of creating missing parent directories")
	fs.DurationVar(&f.fetchTimeout, "fetch-timeout", cfg.FetchTimeout, "timeout per asset download")
	fs.StringVar(&f.pageSize, "page-size", cfg.PageSize, "page size: a4 or letter")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: manualgen [flags]")
		fs.PrintDefaults()
		exts := make([]string, 0, len(parser.SupportedExtensions))
		for ext := range parser.SupportedExtensions {
			exts = append(exts, ext)
		}
		slices.Sort(exts)
		fmt.Fprintf(stderr, "\nPlan formats: %s\n", strings.Join(exts, " "))
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return ExitUsage
	}

	log, err := newLogger(f.logFormat, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	cfg.OutputPath = f.out
	cfg.StagingDir = f.stagingDir
	cfg.PageSize = f.pageSize
	if f.fetchTimeout > 0 {
		cfg.FetchTimeout = f.fetchTimeout
	}
	if f.noCreateDirs {
		cfg.CreateParentDirs = false
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return ExitUsage
	}

	p, err := loadPlan(f.plan, cfg)
	if err != nil {
		log.Error("load plan failed", "plan", f.plan, "error", err)
		return ExitGeneral
	}
	totals := outline.Totals(outline.Stats(p))
	log.Info("plan loaded",
		"title", p.Title,
		"sections", len(p.Sections),
		"blocks", totals.Blocks,
		"words", totals.Words,
		"images", totals.Images,
	)

	fetcher := fetch.NewClient(cfg.FetchTimeout, cfg.MaxAssetBytes).WithLogger(log)
	runner, err := pipeline.NewRunner(style.Default(), fetcher, log, cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return ExitUsage
	}

	job := pipeline.NewJob(p, filepath.Base(cfg.OutputPath), cfg.OutputPath, cfg.StagingDir)
	art, err := runner.Run(ctx, job)
	if err != nil {
		return ExitGeneral
	}
	fmt.Fprintln(stdout, art.Path)
	return ExitSuccess
}

func newLogger(format string, w io.Writer) (*slog.Logger, error) {
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, nil)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, nil)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// loadPlan reads the plan at path with the importer matching its
// extension, or the built-in manual when path is empty.
func loadPlan(path string, cfg config.Config) (*plan.Plan, error) {
	if path == "" {
		return manual.Load()
	}
	prs, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pp, ok := prs.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = cfg.PDFFallbackPdftotext
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return prs.Parse(f, filepath.Base(path))
}
