package analysis

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinvit-2/exp-ai-account/telemetry"
)

func TestWriteWorkbook(t *testing.T) {
	s := Summarize([]telemetry.Envelope{
		decisionEvent("p1", "HIGH_API", "BIASED", 103, "INVITE", false, false, 1000),
		decisionEvent("p2", "LOW_API", "JOB_MATCH", 49, "NO_INVITE", false, false, 2000),
		sessionEvent("p1", "HIGH_API", "BIASED", "session_end"),
	})

	path := filepath.Join(t.TempDir(), WorkbookName("test"))
	require.NoError(t, WriteWorkbook(path, s))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per cell")
	require.Equal(t, "condition_api", rows[0][0])
	require.Equal(t, "HIGH_API", rows[1][0])
	require.Equal(t, "BIASED", rows[1][1])
	require.Equal(t, "LOW_API", rows[2][0])

	totals, err := f.GetRows("Totals")
	require.NoError(t, err)
	require.Len(t, totals, 3)
	require.Equal(t, []string{"events", "3"}, totals[0][:2])
}

func TestWorkbookName(t *testing.T) {
	require.Equal(t, "hiring_task_summary_pilot.xlsx", WorkbookName("pilot"))
}
