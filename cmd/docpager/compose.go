package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	docpager "github.com/alnah/go-docpager"
	"github.com/alnah/go-docpager/internal/config"
	"github.com/alnah/go-docpager/internal/hints"
	"go.uber.org/zap"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Composer is the part of docpager.Composer the batch needs.
type Composer interface {
	Compose(ctx context.Context, in docpager.Input) (*docpager.Result, error)
}

// Compile-time interface implementation check.
var _ Composer = (*docpager.Composer)(nil)

// Pool abstracts composer pool operations for testability.
type Pool interface {
	Acquire() (Composer, error)
	Release(Composer)
	Size() int
}

// poolAdapter exposes a docpager.ComposerPool as a Pool.
type poolAdapter struct {
	pool *docpager.ComposerPool
}

func (a *poolAdapter) Acquire() (Composer, error) {
	c, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Release panics when given a Composer the pool did not hand out.
func (a *poolAdapter) Release(c Composer) {
	dc, ok := c.(*docpager.Composer)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(dc)
}

func (a *poolAdapter) Size() int { return a.pool.Size() }

// ComposeResult holds the outcome of a single document.
type ComposeResult struct {
	InputPath string
	Outputs   []string
	Report    *docpager.Report
	Err       error
	Duration  time.Duration
}

// batch groups what every job of one compose run shares.
type batch struct {
	loader    *docpager.Loader
	numbering *docpager.Numbering
	logger    *zap.Logger
}

// runCompose loads configuration, discovers snapshots and composes them
// with a pool of composers.
func runCompose(ctx context.Context, inputs []string, flags *composeFlags, env *Environment, logger *zap.Logger) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	warnUnknownEnvVars(env.Stderr, env.Environ())
	envCfg := loadEnvConfig(env.Getenv)

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeComposeFlags(flags, cfg)

	if len(inputs) == 0 {
		return fmt.Errorf("%w: pass snapshot files or directories", ErrNoInput)
	}
	jobs, err := discoverSnapshots(inputs, cfg.Output.DefaultDir, cfg.Output.PDF)
	if err != nil {
		return fmt.Errorf("discovering snapshots: %w", err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no .yaml or .yml snapshots found", ErrNoInput)
	}

	opts := []docpager.Option{docpager.WithConfig(cfg), docpager.WithLogger(logger)}
	if d := resolveTimeout(flags.timeout, envCfg.Timeout); d > 0 {
		opts = append(opts, docpager.WithTimeout(d))
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	size := min(docpager.ResolvePoolSize(workers), len(jobs))
	logger.Debug("composing", zap.Int("documents", len(jobs)), zap.Int("workers", size), zap.String("engine", cfg.Layout.Engine))

	pool := docpager.NewComposerPool(size, opts...)
	defer func() { _ = pool.Close() }()

	b := &batch{
		loader: docpager.NewLoader(
			docpager.WithClock(env.Now),
			docpager.WithDefaultGSTRate(cfg.Format.GSTRate),
		),
		numbering: docpager.NewNumbering(
			cfg.Numbering.QuotePrefix, cfg.Numbering.InvoicePrefix,
			cfg.Numbering.NextQuote, cfg.Numbering.NextInvoice,
		),
		logger: logger,
	}
	results := b.composeAll(ctx, &poolAdapter{pool: pool}, jobs)

	failed, firstErr := printResults(results, flags.common, cfg.Layout.MaxPages, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed: %w", failed, len(results), firstErr)
	}
	return nil
}

// loadConfig loads the config named by the flag, else by DOCPAGER_CONFIG,
// else the defaults.
func loadConfig(name string, env *envConfig) (*config.Config, error) {
	if name == "" {
		name = env.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeComposeFlags merges CLI flags into config. CLI values override
// config and environment values.
func mergeComposeFlags(flags *composeFlags, cfg *config.Config) {
	if flags.engine != "" {
		cfg.Layout.Engine = flags.engine
	}
	if flags.maxPages > 0 {
		cfg.Layout.MaxPages = flags.maxPages
	}
	if flags.output != "" {
		cfg.Output.DefaultDir = flags.output
	}
	if flags.pdf {
		cfg.Output.PDF = true
	}
	if flags.assets.style != "" {
		cfg.Assets.Style = flags.assets.style
	}
	if flags.assets.templateSet != "" {
		cfg.Assets.TemplateSet = flags.assets.templateSet
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
}

// resolveTimeout picks the flag timeout, then the environment one. Zero
// keeps the config value.
func resolveTimeout(flagTimeout, envTimeout time.Duration) time.Duration {
	if flagTimeout > 0 {
		return flagTimeout
	}
	return envTimeout
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > docpager.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, docpager.MaxPoolSize)
	}
	return nil
}

// composeAll processes jobs concurrently, one worker per pooled composer.
// Results keep the order of jobs.
func (b *batch) composeAll(ctx context.Context, pool Pool, jobs []composeJob) []ComposeResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	results := make([]ComposeResult, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c, err := pool.Acquire()
			if err != nil {
				for idx := range queue {
					results[idx] = ComposeResult{InputPath: jobs[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(c)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = ComposeResult{InputPath: jobs[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = b.composeFile(ctx, c, jobs[idx])
			}
		}()
	}

	wg.Wait()
	return results
}

// composeFile lays out one snapshot and writes its outputs.
func (b *batch) composeFile(ctx context.Context, c Composer, job composeJob) (result ComposeResult) {
	start := time.Now()
	result.InputPath = job.InputPath
	defer func() { result.Duration = time.Since(start) }()

	doc, err := b.loader.LoadFile(ctx, job.InputPath)
	if err != nil {
		if errors.Is(err, docpager.ErrSnapshotParse) {
			err = fmt.Errorf("%w%s", err, hints.ForDocumentParse())
		}
		result.Err = err
		return result
	}
	b.numbering.Assign(doc)

	res, err := c.Compose(ctx, docpager.Input{Document: doc, PDF: job.PDFPath != ""})
	if err != nil {
		switch {
		case errors.Is(err, docpager.ErrBrowserConnect):
			err = fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("%w%s", err, hints.ForTimeout())
		}
		result.Err = err
		return result
	}
	result.Report = res.Report

	if err := writeOutput(job.HTMLPath, res.HTML); err != nil {
		result.Err = err
		return result
	}
	result.Outputs = append(result.Outputs, job.HTMLPath)

	if job.PDFPath != "" {
		if err := writeOutput(job.PDFPath, res.PDF); err != nil {
			result.Err = err
			return result
		}
		result.Outputs = append(result.Outputs, job.PDFPath)
	}

	b.logger.Debug("composed",
		zap.String("input", job.InputPath),
		zap.String("number", doc.Number()),
		zap.Int("pages", res.Report.Pages),
	)
	return result
}

// writeOutput writes data to path, creating its directory.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating directory: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}
	// #nosec G306 -- composed documents are meant to be readable
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// printResults outputs per-document results and truncation warnings, and
// returns the number of failures with the first error.
func printResults(results []ComposeResult, flags commonFlags, maxPages int, env *Environment) (int, error) {
	var (
		failed   int
		firstErr error
	)

	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if r.Report.Truncated() {
			fmt.Fprintf(env.Stderr, "warning: %s: page cap reached, %d row(s) and %d block(s) left off%s\n",
				r.InputPath, r.Report.TruncatedRows, r.Report.DroppedNodes(), hints.ForTruncation(maxPages))
		}

		if flags.quiet {
			continue
		}
		for _, out := range r.Outputs {
			if flags.verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %v)\n",
					r.InputPath, out, r.Report.Pages, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s (%d pages)\n", out, r.Report.Pages)
			}
		}
	}

	if !flags.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed, firstErr
}
