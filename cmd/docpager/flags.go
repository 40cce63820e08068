package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// assetFlags holds stylesheet and template flags.
type assetFlags struct {
	style       string // name, file path or CSS content
	templateSet string
	assetPath   string
}

// composeFlags holds all flags for the compose command.
type composeFlags struct {
	common   commonFlags
	assets   assetFlags
	output   string
	engine   string
	pdf      bool
	workers  int
	maxPages int
	timeout  time.Duration
}

// newFlags holds flags for the new command.
type newFlags struct {
	common  commonFlags
	output  string
	branch  int
	dueDays int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log layout steps and timing")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.templateSet, "template", "", "template set name or directory path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// parseComposeFlags parses compose command flags and returns positional args.
func parseComposeFlags(args []string, usage io.Writer) (*composeFlags, []string, error) {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &composeFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.engine, "engine", "e", "", "layout engine: model, chrome")
	fs.BoolVar(&f.pdf, "pdf", false, "also print each document to PDF")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.IntVar(&f.maxPages, "max-pages", 0, "visible page cap (0 = config)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-document timeout (e.g., 30s, 2m)")

	addCommonFlags(fs, &f.common)
	addAssetFlags(fs, &f.assets)

	fs.Usage = func() { printComposeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseNewFlags parses new command flags and returns positional args.
func parseNewFlags(args []string, usage io.Writer) (*newFlags, []string, error) {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &newFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "snapshot file (default: stdout)")
	fs.IntVarP(&f.branch, "branch", "b", 0, "index of the config branch to send from")
	fs.IntVar(&f.dueDays, "due-days", 30, "days from today to the validity or due date")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printNewUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
