package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpager <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  compose    Lay out document snapshots into paginated HTML/PDF")
	fmt.Fprintln(w, "  new        Write a blank quote, invoice or letterhead snapshot")
	fmt.Fprintln(w, "  doctor     Check Chrome, the configuration and a sample layout")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'docpager help <command>' for details on a specific command.")
}

// printComposeUsage prints usage for the compose command.
func printComposeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpager compose <document.yaml|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Lay out quotes, invoices and letterheads into A4 pages.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  document    YAML snapshot, or a directory searched for .yaml/.yml files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each snapshot)")
	fmt.Fprintln(w, "      --pdf                 Also print each document to PDF (needs Chrome)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "  -e, --engine <s>          Layout engine: model, chrome")
	fmt.Fprintln(w, "      --max-pages <n>       Visible page cap (default: 10)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (default: 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name|path>   CSS style name or file path")
	fmt.Fprintln(w, "      --template <name>     Template set name or directory")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log layout steps and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DOCPAGER_CONFIG, DOCPAGER_ENGINE, DOCPAGER_STYLE, DOCPAGER_OUTPUT_DIR,")
	fmt.Fprintln(w, "  DOCPAGER_TIMEOUT, DOCPAGER_WORKERS, DOCPAGER_MAX_PAGES")
}

// printNewUsage prints usage for the new command.
func printNewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpager new <quote|invoice|letterhead> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write a blank, numbered document snapshot dated today.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       Snapshot file (default: stdout)")
	fmt.Fprintln(w, "  -b, --branch <n>          Config branch to send from (default: 0)")
	fmt.Fprintln(w, "      --due-days <n>        Days to the validity or due date (default: 30)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "compose":
		printComposeUsage(env.Stdout)
	case "new":
		printNewUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: docpager doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, sandbox and temp directory setup.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: docpager version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: docpager help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
