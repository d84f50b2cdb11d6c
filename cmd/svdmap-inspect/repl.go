package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/svdmap/svdmap-go/pkg/inspect"
)

// session holds the command loop state. Output goes through out so the
// loop can write to the readline-coordinated writer while tests capture
// a buffer.
type session struct {
	insp *inspect.Inspector
	fmtr *inspect.Formatter
	out  io.Writer
}

// dispatch runs one input line and reports whether the loop should
// exit. Arguments are split with shell quoting rules so phrases like
// find "clock divider" stay one argument.
func (s *session) dispatch(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	args, err := shellwords.Split(input)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}
	cmd := strings.ToLower(args[0])
	args = args[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "tree", "t":
		s.cmdTree()

	case "show", "s":
		s.cmdShow(args)

	case "decode", "d":
		s.cmdDecode(args)

	case "commit", "c":
		s.cmdCommit(args)

	case "find", "f":
		s.cmdFind(args)

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  tree                       - Show the full device tree
  show <PERIPH[.REG[.FIELD]]> - Describe one peripheral, register or field
  decode <PERIPH.REG> <word> - Slice a raw register word into field values
  commit <PERIPH.REG> <merge|overwrite> <current> FIELD=VALUE...
                             - Dry-run a transaction commit
  find <text>                - Search names and descriptions
  help                       - Show this help
  exit                       - Leave

Paths are case-insensitive: spi1.cr.spe and SPI1.CR.SPE are the same.
Words take decimal or 0x hex. Field values also take true/false for
single bits and enumerated value names.`)
}

// cmdTree handles the tree command.
func (s *session) cmdTree() {
	fmt.Fprint(s.out, s.insp.FormatTree(s.insp.Tree(), s.fmtr))
}

// cmdShow handles the show command.
func (s *session) cmdShow(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: show <PERIPH[.REG[.FIELD]]>")
		fmt.Fprintln(s.out, "  Example: show SPI1.CR.SPE")
		return
	}

	res, err := s.resolve(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.insp.Describe(res, s.fmtr))
}

// cmdDecode handles the decode command.
func (s *session) cmdDecode(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: decode <PERIPH.REG> <word>")
		fmt.Fprintln(s.out, "  Example: decode SPI1.CR 0x42")
		return
	}

	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}
	raw, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid word %q: %v\n", args[1], err)
		return
	}

	values, err := s.insp.Decode(path, uint32(raw))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.fmtr.FormatDecoded(values))
}

// cmdCommit handles the commit command: a dry-run transaction against
// an assumed current word, no hardware involved.
func (s *session) cmdCommit(args []string) {
	if len(args) < 4 {
		fmt.Fprintln(s.out, "Usage: commit <PERIPH.REG> <merge|overwrite> <current> FIELD=VALUE...")
		fmt.Fprintln(s.out, "  Example: commit SPI1.CR merge 0x81 SPE=1 FREQ=3")
		return
	}

	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}

	var overwrite bool
	switch strings.ToLower(args[1]) {
	case "merge":
	case "overwrite":
		overwrite = true
	default:
		fmt.Fprintf(s.out, "Mode %q is not merge or overwrite\n", args[1])
		return
	}

	current, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid current word %q: %v\n", args[2], err)
		return
	}

	rep, err := s.insp.DryRun(path, overwrite, uint32(current), args[3:])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.fmtr.FormatReport(rep))
}

// cmdFind handles the find command. Unquoted words are joined back
// into one query so find clock divider and find "clock divider" match
// the same text.
func (s *session) cmdFind(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: find <text>")
		return
	}
	fmt.Fprint(s.out, s.fmtr.FormatMatches(s.insp.Find(strings.Join(args, " "))))
}

func (s *session) resolve(raw string) (*inspect.Resolution, error) {
	path, err := inspect.ParsePath(raw)
	if err != nil {
		return nil, err
	}
	return s.insp.Resolve(path)
}
