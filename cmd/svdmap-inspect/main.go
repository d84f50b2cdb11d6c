// Command svdmap-inspect is an interactive browser for a register
// description file. It runs the same parse, build, validate and plan
// stages as svdmap-gen, then opens a readline prompt over the resulting
// model instead of emitting code.
//
// Usage:
//
//	svdmap-inspect [flags] <file.svd>
//
// Flags:
//
//	-no-desc   Hide description text in tree output
//
// Interactive Commands:
//
//	tree        - Show the full device tree
//	show <p>    - Describe a peripheral, register or field by path
//	decode <r> <word> - Slice a raw register word into field values
//	commit <r> <merge|overwrite> <current> FIELD=VALUE... - Dry-run a commit
//	find <text> - Search names and descriptions
//	help        - Show help
//	exit        - Leave
//
// Paths are dot separated and case-insensitive, for example SPI1,
// spi1.cr or SPI1.CR.SPE.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/svdmap/svdmap-go/pkg/inspect"
	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
	"github.com/svdmap/svdmap-go/pkg/svd"
)

var noDesc = flag.Bool("no-desc", false, "hide description text in tree output")

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *noDesc); err != nil {
		fmt.Fprintf(os.Stderr, "svdmap-inspect: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: svdmap-inspect [flags] <file.svd>")
	flag.PrintDefaults()
}

func run(path string, noDesc bool) error {
	insp, err := load(path)
	if err != nil {
		return err
	}

	fmtr := inspect.NewFormatter()
	fmtr.ShowDescriptions = !noDesc

	dev := insp.Device()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          strings.ToLower(dev.Name) + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s := &session{insp: insp, fmtr: fmtr, out: rl.Stdout()}
	fmt.Fprintf(s.out, "%s: %d peripherals\n", dev.Name, len(dev.Peripherals))
	s.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt && len(line) != 0 {
				continue
			}
			return nil
		}
		if s.dispatch(line) {
			return nil
		}
	}
}

// load runs the generator pipeline up to planning and wraps the result
// for browsing.
func load(path string) (*inspect.Inspector, error) {
	root, err := svd.Load(path)
	if err != nil {
		return nil, err
	}
	dev, err := model.Build(root)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(dev); err != nil {
		return nil, err
	}
	plans, err := plan.Device(dev)
	if err != nil {
		return nil, err
	}
	return inspect.NewInspector(dev, plans), nil
}
