package diag_test

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svdmap/svdmap-go/pkg/diag"
)

// logRun appends a realistic event sequence for one compiler invocation:
// stage completions, optionally a warning and a fatal error mirror.
func logRun(l diag.Logger, runID string, failed bool) {
	now := time.Now()
	for stage := diag.StageParse; stage <= diag.StagePlan; stage++ {
		l.Log(diag.Event{
			Time:     now,
			RunID:    runID,
			Stage:    stage,
			Severity: diag.SeverityInfo,
			Message:  "stage complete",
			Count:    3,
		})
	}
	l.Log(diag.Event{
		Time:     now,
		RunID:    runID,
		Stage:    diag.StagePlan,
		Severity: diag.SeverityWarning,
		Path:     `peripheral "SPI1" > register "CR"`,
		Message:  "always-cleared mask 0x1 applies to every commit",
	})
	if failed {
		l.Log(diag.Event{
			Time:     now,
			RunID:    runID,
			Stage:    diag.StageEmit,
			Severity: diag.SeverityError,
			Message:  "layout conflict",
		})
	}
}

// TestRunQuery verifies the operator workflow end to end: two runs
// logged through a fan-out logger, then the failing run's problems read
// back out of the file with a filter.
func TestRunQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.cbor")

	fl, err := diag.NewFileLogger(path)
	require.NoError(t, err)

	var console bytes.Buffer
	logger := diag.NewMultiLogger(fl, diag.NewSlogAdapter(slog.New(slog.NewTextHandler(&console, nil))))

	logRun(logger, "run-ok", false)
	logRun(logger, "run-bad", true)
	require.NoError(t, fl.Close())

	// The console mirror saw both runs.
	assert.Contains(t, console.String(), "run_id=run-ok")
	assert.Contains(t, console.String(), "run_id=run-bad")
	assert.Contains(t, console.String(), "level=ERROR")

	// Query: everything above info from the failing run only.
	minSev := diag.SeverityWarning
	r, err := diag.NewFilteredReader(path, diag.Filter{RunID: "run-bad", MinSeverity: &minSev})
	require.NoError(t, err)
	defer r.Close()

	var got []diag.Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, diag.SeverityWarning, got[0].Severity)
	assert.Equal(t, `peripheral "SPI1" > register "CR"`, got[0].Path)
	assert.Equal(t, diag.SeverityError, got[1].Severity)
	assert.Equal(t, diag.StageEmit, got[1].Stage)
	for _, ev := range got {
		assert.Equal(t, "run-bad", ev.RunID)
	}
}

// TestRunQueryStageTally verifies stage completion events keep their
// counts through the file round trip.
func TestRunQueryStageTally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.cbor")

	fl, err := diag.NewFileLogger(path)
	require.NoError(t, err)
	logRun(fl, "run-ok", false)
	require.NoError(t, fl.Close())

	stage := diag.StageBuild
	r, err := diag.NewFilteredReader(path, diag.Filter{Stage: &stage})
	require.NoError(t, err)
	defer r.Close()

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Count)
	assert.Equal(t, diag.SeverityInfo, ev.Severity)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
