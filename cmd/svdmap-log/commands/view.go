// Package commands implements the svdmap-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/diag"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event diag.Event) {
	// Header line: timestamp [run:id] SEVERITY STAGE
	ts := event.Time.UTC().Format("2006-01-02T15:04:05.000000Z")
	runID := shortenRunID(event.RunID)

	fmt.Fprintf(w, "%s [run:%s] %-7s %s\n", ts, runID, event.Severity.String(), event.Stage.String())

	if event.Path != "" {
		fmt.Fprintf(w, "  Path: %s\n", event.Path)
	}
	fmt.Fprintf(w, "  Message: %s\n", event.Message)
	if event.Count > 0 {
		fmt.Fprintf(w, "  Count: %d\n", event.Count)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ParseStageFlag parses a stage string from a command-line flag (case-insensitive).
func ParseStageFlag(s string) (diag.Stage, error) {
	return parseStage(s)
}

// parseStage parses a stage string (case-insensitive).
func parseStage(s string) (diag.Stage, error) {
	switch strings.ToLower(s) {
	case "parse":
		return diag.StageParse, nil
	case "build":
		return diag.StageBuild, nil
	case "validate":
		return diag.StageValidate, nil
	case "plan":
		return diag.StagePlan, nil
	case "emit":
		return diag.StageEmit, nil
	default:
		return 0, fmt.Errorf("invalid stage: %s (must be parse, build, validate, plan, or emit)", s)
	}
}

// ParseSeverityFlag parses a severity string from a command-line flag (case-insensitive).
func ParseSeverityFlag(s string) (diag.Severity, error) {
	return parseSeverity(s)
}

// parseSeverity parses a severity string (case-insensitive).
func parseSeverity(s string) (diag.Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return diag.SeverityInfo, nil
	case "warning":
		return diag.SeverityWarning, nil
	case "error":
		return diag.SeverityError, nil
	default:
		return 0, fmt.Errorf("invalid severity: %s (must be info, warning, or error)", s)
	}
}

// RunView executes the view command. runPrefix, when non-empty, keeps
// only events whose run ID starts with it, so the shortened IDs shown
// by the stats command can be pasted back in.
func RunView(path string, filter diag.Filter, runPrefix string, output io.Writer) error {
	reader, err := diag.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if runPrefix != "" && !strings.HasPrefix(event.RunID, runPrefix) {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
