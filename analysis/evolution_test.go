package analysis

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evoRows() []Row {
	return []Row{
		{RunID: "r1", Date: "2026-01-01 00:00:00", Case: "Email Urgency", TaskModel: "m", ReflectionModel: "r",
			Optimized: 0.70, Robustness: 0.65},
		{RunID: "r2", Date: "2026-01-16 00:00:00", Case: "Email Urgency", TaskModel: "m", ReflectionModel: "r",
			Optimized: 0.80, Robustness: 0.78},
		{RunID: "r3", Date: "2026-01-31 00:00:00", Case: "Email Urgency", TaskModel: "m", ReflectionModel: "r",
			Optimized: 0.82, Robustness: 0.80},
	}
}

func TestBatchBoundaries(t *testing.T) {
	boundaries := BatchBoundaries(evoRows(), 3)
	require.Len(t, boundaries, 2)

	// 30-day span cut into three 10-day periods
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), boundaries[0])
	assert.Equal(t, time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC), boundaries[1])
}

func TestBatchBoundariesDegenerate(t *testing.T) {
	same := []Row{
		{Date: "2026-01-01 00:00:00"},
		{Date: "2026-01-01 00:00:00"},
	}
	assert.Nil(t, BatchBoundaries(same, 3), "identical timestamps cannot be batched")
	assert.Nil(t, BatchBoundaries([]Row{{Date: "garbage"}}, 3))
}

func TestAssignBatch(t *testing.T) {
	boundaries := []time.Time{
		time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 0, AssignBatch(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), boundaries))
	assert.Equal(t, 1, AssignBatch(time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), boundaries), "boundary belongs to the later batch")
	assert.Equal(t, 2, AssignBatch(time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), boundaries))
}

func TestTrend(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	assert.Equal(t, "^", Trend(v(70.0), v(75.0)))
	assert.Equal(t, "v", Trend(v(75.0), v(70.0)))
	assert.Equal(t, "=", Trend(v(75.0), v(75.3)), "within half a point counts as equal")
	assert.Equal(t, "N/A", Trend(nil, v(75.0)))
	assert.Equal(t, "N/A", Trend(v(75.0), nil))
}

func TestBuildEvolution(t *testing.T) {
	rows := evoRows()
	boundaries := BatchBoundaries(rows, 3)
	evolution := BuildEvolution(rows, boundaries)
	require.Len(t, evolution, 1)

	e := evolution[0]
	assert.Equal(t, "Email Urgency", e.Key.Case)
	require.Len(t, e.OptPct, 3)

	require.NotNil(t, e.OptPct[0])
	assert.InDelta(t, 70.0, *e.OptPct[0], 1e-9, "scores normalized to percent")
	require.NotNil(t, e.OptPct[1])
	assert.InDelta(t, 80.0, *e.OptPct[1], 1e-9)
	require.NotNil(t, e.RobPct[2])
	assert.InDelta(t, 80.0, *e.RobPct[2], 1e-9)
}

func TestBuildEvolutionEmptyBatch(t *testing.T) {
	rows := []Row{
		{RunID: "r1", Date: "2026-01-01 00:00:00", Case: "A", TaskModel: "m", ReflectionModel: "r", Optimized: 0.7, Robustness: 0.6},
		{RunID: "r2", Date: "2026-01-31 00:00:00", Case: "A", TaskModel: "m", ReflectionModel: "r", Optimized: 0.8, Robustness: 0.7},
	}
	boundaries := BatchBoundaries(rows, 3)
	evolution := BuildEvolution(rows, boundaries)
	require.Len(t, evolution, 1)
	assert.Nil(t, evolution[0].OptPct[1], "middle batch has no runs")
}

func TestWriteEvolutionReport(t *testing.T) {
	rows := evoRows()
	boundaries := BatchBoundaries(rows, 3)
	evolution := BuildEvolution(rows, boundaries)

	var buf bytes.Buffer
	WriteEvolutionReport(&buf, boundaries, evolution)
	out := buf.String()

	assert.Contains(t, out, "EVOLUCION POR LOTES TEMPORALES")
	assert.Contains(t, out, "Email Urgency")
	assert.Contains(t, out, "^", "rising series shows improvement marker")
	assert.Contains(t, out, "Leyenda")
}
