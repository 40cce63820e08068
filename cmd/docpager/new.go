package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	docpager "github.com/alnah/go-docpager"
	"github.com/alnah/go-docpager/internal/dateutil"
	flag "github.com/spf13/pflag"
)

// runNewCmd executes the new command and returns an exit code.
func runNewCmd(args []string, env *Environment) int {
	flags, rest, err := parseNewFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}
	if err := runNew(rest, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runNew writes a blank snapshot of the requested kind, numbered from the
// config counters and sent from the chosen config branch.
func runNew(args []string, flags *newFlags, env *Environment) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one of quote, invoice, letterhead", ErrNoInput)
	}
	kind, err := docpager.ParseKind(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, loadEnvConfig(env.Getenv))
	if err != nil {
		return err
	}

	doc := docpager.NewDocument(kind)
	docpager.NewNumbering(
		cfg.Numbering.QuotePrefix, cfg.Numbering.InvoicePrefix,
		cfg.Numbering.NextQuote, cfg.Numbering.NextInvoice,
	).Assign(doc)

	today := env.Now()
	due := ""
	if kind.HasItems() && flags.dueDays > 0 {
		due = today.AddDate(0, 0, flags.dueDays).Format(dateutil.StorageLayout)
	}
	if err := doc.SetDates(today.Format(dateutil.StorageLayout), due); err != nil {
		return err
	}

	b := cfg.Branch(flags.branch)
	doc.SetBranch(docpager.Branch{
		Name:    b.Name,
		Address: b.Address,
		Email:   b.Email,
		Phone:   b.Phone,
		Website: b.Website,
		GST:     b.GST,
		Logo:    b.Logo,
	})
	if cfg.Theme.Default != "" {
		doc.SetTheme(docpager.Theme{Background: cfg.Theme.Default})
	}

	if flags.output == "" {
		return docpager.SaveDocument(env.Stdout, doc)
	}

	if err := os.MkdirAll(filepath.Dir(flags.output), dirPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	f, err := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := docpager.SaveDocument(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Created %s (%s %s)\n", flags.output, kind, doc.Number())
	}
	return nil
}
