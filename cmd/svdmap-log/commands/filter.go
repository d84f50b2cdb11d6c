package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/svdmap/svdmap-go/pkg/diag"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output       string
	RunID        string
	Stage        string
	Severity     string
	MinSeverity  string
	PathContains string
	TimeStart    string
	TimeEnd      string
}

// RunFilter filters the log file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions) error {
	// Build filter
	filter := diag.Filter{
		RunID:        opts.RunID,
		PathContains: opts.PathContains,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Stage != "" {
		s, err := parseStage(opts.Stage)
		if err != nil {
			return err
		}
		filter.Stage = &s
	}

	if opts.Severity != "" {
		s, err := parseSeverity(opts.Severity)
		if err != nil {
			return err
		}
		filter.Severity = &s
	}

	if opts.MinSeverity != "" {
		s, err := parseSeverity(opts.MinSeverity)
		if err != nil {
			return err
		}
		filter.MinSeverity = &s
	}

	// Open input
	reader, err := diag.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := diag.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
