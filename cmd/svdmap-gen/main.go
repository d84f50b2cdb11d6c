package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/svdmap/svdmap-go/pkg/codegen"
	"github.com/svdmap/svdmap-go/pkg/diag"
	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
	"github.com/svdmap/svdmap-go/pkg/svd"
)

func main() {
	configPath := flag.String("config", "", "Path to an svdmap.yaml config file")
	outDir := flag.String("out", "", "Output directory for the generated tree")
	importRoot := flag.String("import-root", "", "Import path prefix of the emitted packages")
	hwioImport := flag.String("hwio-import", "", "Import path of the hwio runtime package")
	linkmapPath := flag.String("linkmap", "", "Also write the plain-text address map to this file")
	logPath := flag.String("log", "", "Append CBOR diagnostic events to this file")
	verbose := flag.Bool("v", false, "Mirror diagnostic events to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: svdmap-gen [-config svdmap.yaml] [-out dir] [-import-root path] [-hwio-import path] [-linkmap file] [-log file] [-v] <file.svd>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *configPath, *outDir, *importRoot, *hwioImport, *linkmapPath, *logPath, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "svdmap-gen: %v\n", err)
		os.Exit(1)
	}
}

func run(svdPath, configPath, outDir, importRoot, hwioImport, linkmapPath, logPath string, verbose bool) error {
	cfg := codegen.Config{}
	if configPath != "" {
		var err error
		cfg, err = codegen.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}

	// Flags override config file values.
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if importRoot != "" {
		cfg.ImportRoot = importRoot
	}
	if hwioImport != "" {
		cfg.HwioImport = hwioImport
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if cfg.ImportRoot == "" {
		return fmt.Errorf("an import root is required (-import-root flag or importRoot in the config)")
	}

	logger, closeLog, err := buildLogger(logPath, verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	runID := uuid.New().String()
	emit := func(stage diag.Stage, sev diag.Severity, path, msg string, count int) {
		logger.Log(diag.Event{
			Time:     time.Now(),
			RunID:    runID,
			Stage:    stage,
			Severity: sev,
			Path:     path,
			Message:  msg,
			Count:    count,
		})
	}
	fail := func(stage diag.Stage, err error) error {
		emit(stage, diag.SeverityError, "", err.Error(), 0)
		return err
	}

	data, err := os.ReadFile(svdPath)
	if err != nil {
		return fail(diag.StageParse, fmt.Errorf("reading %s: %w", svdPath, err))
	}
	cfg.Source = filepath.Base(svdPath)
	cfg.Sum = codegen.Fingerprint(data)

	root, err := svd.Parse(bytes.NewReader(data))
	if err != nil {
		return fail(diag.StageParse, fmt.Errorf("parsing %s: %w", svdPath, err))
	}
	emit(diag.StageParse, diag.SeverityInfo, "", "parsed element tree", countElements(root))

	dev, err := model.Build(root)
	if err != nil {
		return fail(diag.StageBuild, err)
	}
	emit(diag.StageBuild, diag.SeverityInfo, "", "built device model", len(dev.Peripherals))

	if err := model.Validate(dev); err != nil {
		return fail(diag.StageValidate, err)
	}
	emit(diag.StageValidate, diag.SeverityInfo, "", "validated layout", len(dev.Peripherals))

	plans, err := plan.Device(dev)
	if err != nil {
		return fail(diag.StagePlan, err)
	}
	emit(diag.StagePlan, diag.SeverityInfo, "", "planned register access", len(plans))
	warn(dev, plans, emit)

	tree, err := codegen.Generate(dev, plans, cfg)
	if err != nil {
		// A formatting failure reduces the tree to the broken
		// rendering; write it so the defect can be inspected.
		if tree != nil {
			_ = tree.WriteTo(cfg.OutDir)
		}
		return fail(diag.StageEmit, err)
	}
	emit(diag.StageEmit, diag.SeverityInfo, "", "emitted source tree", len(tree.Files()))

	if err := tree.WriteTo(cfg.OutDir); err != nil {
		return fail(diag.StageEmit, err)
	}
	for _, p := range tree.Files() {
		fmt.Printf("  generated %s\n", filepath.Join(cfg.OutDir, filepath.FromSlash(p)))
	}

	if linkmapPath != "" {
		if err := os.WriteFile(linkmapPath, []byte(codegen.Linkmap(dev, cfg)), 0o644); err != nil {
			return fail(diag.StageEmit, fmt.Errorf("writing linkmap: %w", err))
		}
		fmt.Printf("  generated %s\n", linkmapPath)
	}
	return nil
}

// buildLogger assembles the diagnostic sink: a CBOR file log, a stderr
// mirror, both, or none.
func buildLogger(logPath string, verbose bool) (diag.Logger, func(), error) {
	var loggers []diag.Logger
	closer := func() {}

	if logPath != "" {
		fl, err := diag.NewFileLogger(logPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening diagnostic log: %w", err)
		}
		loggers = append(loggers, fl)
		closer = func() { _ = fl.Close() }
	}
	if verbose {
		loggers = append(loggers, diag.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	if len(loggers) == 0 {
		return diag.NoopLogger{}, closer, nil
	}
	return diag.NewMultiLogger(loggers...), closer, nil
}

// warn logs the description constructs that generate correctly but are
// worth confirming against the datasheet.
func warn(dev *model.Device, plans map[*model.Register]*plan.RegisterPlan, emit func(diag.Stage, diag.Severity, string, string, int)) {
	for _, p := range dev.Peripherals {
		if p.Derived() {
			emit(diag.StagePlan, diag.SeverityWarning,
				fmt.Sprintf("peripheral %q", p.Name),
				fmt.Sprintf("placement only, layout bound to %q", p.DerivedFrom), 0)
			continue
		}
		for _, reg := range p.Registers {
			rp := plans[reg]
			if rp == nil {
				continue
			}
			path := fmt.Sprintf("peripheral %q > register %q", p.Name, reg.Name)
			if rp.ClearMask != 0 {
				emit(diag.StagePlan, diag.SeverityWarning, path,
					fmt.Sprintf("always-cleared mask %#x applies to every commit", rp.ClearMask), 0)
			}
			if !rp.Snapshot {
				emit(diag.StagePlan, diag.SeverityWarning, path,
					"write-only register, snapshot type skipped", 0)
			}
		}
	}
}

func countElements(e *svd.Element) int {
	n := 1
	for _, c := range e.Children {
		n += countElements(c)
	}
	return n
}
