package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// maxprocs.Set only fails on an invalid GOMAXPROCS env, in which case the
	// runtime default applies.
	logger := newLogger(env.Stderr, wantsVerbose(os.Args))
	_, _ = maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))

	code := runMain(context.Background(), os.Args, env)
	_ = logger.Sync()
	os.Exit(code)
}

// runMain dispatches the command in args[1] and returns the process exit
// code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "compose":
		return runComposeCmd(ctx, rest, env)
	case "new":
		return runNewCmd(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "docpager %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runComposeCmd parses compose flags, runs the batch under a signal-aware
// context and maps the outcome to an exit code.
func runComposeCmd(ctx context.Context, args []string, env *Environment) int {
	flags, inputs, err := parseComposeFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := notifyContext(ctx)
	defer stop()

	logger := newLogger(env.Stderr, flags.common.verbose)
	defer func() { _ = logger.Sync() }()

	if err := runCompose(ctx, inputs, flags, env, logger); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// wantsVerbose reports whether -v or --verbose appears before "--".
func wantsVerbose(args []string) bool {
	if i := slices.Index(args, "--"); i >= 0 {
		args = args[:i]
	}
	return slices.Contains(args, "-v") || slices.Contains(args, "--verbose")
}
