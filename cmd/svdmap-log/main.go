// Command svdmap-log is a tool for viewing and analyzing svdmap diagnostic logs.
//
// Log files are created by running svdmap-gen with the -log flag, which
// appends one CBOR-encoded event per pipeline step, warning, and error.
//
// Usage:
//
//	svdmap-log <command> [flags] <file.dlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	svdmap-log view gen.dlog
//
//	# View only planner warnings
//	svdmap-log view --stage plan --severity warning gen.dlog
//
//	# Export to JSONL
//	svdmap-log export --format jsonl gen.dlog
//
//	# Keep one run's warnings and errors in a new file
//	svdmap-log filter --run 1b4e28ba --min-severity warning -o filtered.dlog gen.dlog
//
//	# Show statistics
//	svdmap-log stats gen.dlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/svdmap/svdmap-go/cmd/svdmap-log/commands"
	"github.com/svdmap/svdmap-go/pkg/diag"
)

const usage = `svdmap-log - svdmap Diagnostic Log Analyzer

Usage:
  svdmap-log <command> [flags] <file.dlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "svdmap-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `svdmap-log view - View log file in human-readable format

Usage:
  svdmap-log view [flags] <file.dlog>

Flags:
`)
		fs.PrintDefaults()
	}

	run := fs.String("run", "", "Filter by run ID (prefix match)")
	stage := fs.String("stage", "", "Filter by stage (parse, build, validate, plan, emit)")
	severity := fs.String("severity", "", "Filter by severity (info, warning, error)")
	minSeverity := fs.String("min-severity", "", "Filter by minimum severity (info, warning, error)")
	path := fs.String("path", "", "Filter by path substring")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	file := fs.Arg(0)

	// Build filter
	filter := diag.Filter{
		PathContains: *path,
	}

	if *stage != "" {
		s, err := commands.ParseStageFlag(*stage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Stage = &s
	}

	if *severity != "" {
		s, err := commands.ParseSeverityFlag(*severity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Severity = &s
	}

	if *minSeverity != "" {
		s, err := commands.ParseSeverityFlag(*minSeverity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.MinSeverity = &s
	}

	if err := commands.RunView(file, filter, *run, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `svdmap-log export - Export log file to JSONL or CSV format

Usage:
  svdmap-log export [flags] <file.dlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	file := fs.Arg(0)

	if err := commands.RunExport(file, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `svdmap-log filter - Filter log file and write to new file

Usage:
  svdmap-log filter [flags] <file.dlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	run := fs.String("run", "", "Filter by exact run ID")
	stage := fs.String("stage", "", "Filter by stage (parse, build, validate, plan, emit)")
	severity := fs.String("severity", "", "Filter by severity (info, warning, error)")
	minSeverity := fs.String("min-severity", "", "Filter by minimum severity (info, warning, error)")
	path := fs.String("path", "", "Filter by path substring")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	file := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:       *output,
		RunID:        *run,
		Stage:        *stage,
		Severity:     *severity,
		MinSeverity:  *minSeverity,
		PathContains: *path,
		TimeStart:    *timeStart,
		TimeEnd:      *timeEnd,
	}

	if err := commands.RunFilter(file, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `svdmap-log stats - Show statistics about the log file

Usage:
  svdmap-log stats <file.dlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	file := fs.Arg(0)

	if err := commands.RunStats(file, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
