package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/svdmap/svdmap-go/pkg/diag"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByStage    map[diag.Stage]int
	EventsBySeverity map[diag.Severity]int
	Runs             map[string]*RunSummary
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RunSummary holds statistics for a single compiler run.
type RunSummary struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	LastStage diag.Stage
	Warnings  int
	Errors    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := diag.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByStage:    make(map[diag.Stage]int),
		EventsBySeverity: make(map[diag.Severity]int),
		Runs:             make(map[string]*RunSummary),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByStage[event.Stage]++
		stats.EventsBySeverity[event.Severity]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Time.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Time
		}
		if event.Time.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Time
		}

		// Track per-run stats
		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunSummary{
				FirstSeen: event.Time,
				LastSeen:  event.Time,
			}
			stats.Runs[event.RunID] = run
		}
		run.Events++
		if event.Time.After(run.LastSeen) {
			run.LastSeen = event.Time
		}
		if event.Stage > run.LastStage {
			run.LastStage = event.Stage
		}
		switch event.Severity {
		case diag.SeverityWarning:
			run.Warnings++
		case diag.SeverityError:
			run.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== svdmap Diagnostic Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by stage
	fmt.Fprintln(w, "Events by Stage:")
	for _, stage := range []diag.Stage{diag.StageParse, diag.StageBuild, diag.StageValidate, diag.StagePlan, diag.StageEmit} {
		if count := stats.EventsByStage[stage]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", stage.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by severity
	fmt.Fprintln(w, "Events by Severity:")
	for _, sev := range []diag.Severity{diag.SeverityInfo, diag.SeverityWarning, diag.SeverityError} {
		if count := stats.EventsBySeverity[sev]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", sev.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Runs
	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) > 0 {
		// Sort by first seen time
		type runInfo struct {
			id    string
			stats *RunSummary
		}
		runs := make([]runInfo, 0, len(stats.Runs))
		for id, rs := range stats.Runs {
			runs = append(runs, runInfo{id, rs})
		}
		sort.Slice(runs, func(i, j int) bool {
			return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, r := range runs {
			duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
			shortID := r.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, r.stats.Events, duration)
			fmt.Fprintf(w, "           Reached: %s\n", r.stats.LastStage.String())
			if r.stats.Warnings > 0 {
				fmt.Fprintf(w, "           Warnings: %d\n", r.stats.Warnings)
			}
			if r.stats.Errors > 0 {
				fmt.Fprintf(w, "           Errors: %d\n", r.stats.Errors)
			}
		}
	}
}
