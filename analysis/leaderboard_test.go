package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{RunID: "a1", Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.60, Optimized: 0.80, Robustness: 0.78, Budget: "30", Source: "poc"},
		{RunID: "a2", Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.62, Optimized: 0.82, Robustness: 0.80, Budget: "30", Source: "poc"},
		{RunID: "b1", Case: "Text-to-SQL", TaskModel: "azure/gpt-4o-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.70, Optimized: 0.65, Robustness: 0.60, Budget: "", Notes: "Budget: 15", Source: "standalone"},
	}
}

func TestGroupRows(t *testing.T) {
	groups := GroupRows(sampleRows())
	require.Len(t, groups, 2)
	assert.Len(t, groups[GroupKey{"Email Urgency", "azure/gpt-4.1-mini", "azure/gpt-4o"}], 2)
	assert.Len(t, groups[GroupKey{"Text-to-SQL", "azure/gpt-4o-mini", "azure/gpt-4o"}], 1)
}

func TestBuildLeaderboard(t *testing.T) {
	stats := BuildLeaderboard(sampleRows(), nil)
	require.Len(t, stats, 2)

	// sorted by case name
	email, sql := stats[0], stats[1]
	assert.Equal(t, "Email Urgency", email.Key.Case)
	assert.Equal(t, "Text-to-SQL", sql.Key.Case)

	assert.Equal(t, 2, email.Runs)
	assert.InDelta(t, 61.0, email.AvgBasePct, 1e-9)
	assert.InDelta(t, 81.0, email.AvgOptPct, 1e-9)
	assert.InDelta(t, 79.0, email.AvgRobPct, 1e-9)
	assert.InDelta(t, 18.0, email.DeltaPct, 1e-9)
	assert.Equal(t, 30, email.MaxCalls)
	assert.Equal(t, "Alta", email.Stability)
	require.NotNil(t, email.Savings1K, "improved group gets ROI columns")
	require.NotNil(t, email.Breakeven)
	assert.Equal(t, []string{"poc"}, email.Sources)

	assert.InDelta(t, -10.0, sql.DeltaPct, 1e-9)
	assert.Equal(t, 15, sql.MaxCalls, "budget parsed from Notas")
	assert.Nil(t, sql.Savings1K, "regressed group has no ROI")
	assert.Nil(t, sql.Breakeven)
}

func TestBuildLeaderboardPercentScale(t *testing.T) {
	rows := []Row{
		{RunID: "p1", Case: "RAG Optimization", TaskModel: "m", ReflectionModel: "r",
			Baseline: 60.0, Optimized: 80.0, Robustness: 75.0},
	}
	stats := BuildLeaderboard(rows, nil)
	require.Len(t, stats, 1)
	assert.InDelta(t, 60.0, stats[0].AvgBasePct, 1e-9, "already-percent scores are not rescaled")
	assert.InDelta(t, 15.0, stats[0].DeltaPct, 1e-9)
}

func TestBuildCaseStats(t *testing.T) {
	stats := BuildLeaderboard(sampleRows(), nil)
	cases := BuildCaseStats(stats)
	require.Len(t, cases, 2)

	// sorted by delta descending
	assert.Equal(t, "Email Urgency", cases[0].Case)
	assert.Equal(t, 2, cases[0].TotalRuns)
	assert.InDelta(t, 18.0, cases[0].AvgDelta, 1e-9)
	assert.Equal(t, "Text-to-SQL", cases[1].Case)
}

func TestDetectAnomalies(t *testing.T) {
	rows := []Row{
		// healthy run
		{RunID: "ok", Case: "A", Baseline: 0.6, Optimized: 0.8, Robustness: 0.75},
		// optimization regressed and robustness below baseline
		{RunID: "bad", Case: "A", Source: "poc", Baseline: 0.7, Optimized: 0.65, Robustness: 0.60},
		// extreme test score
		{RunID: "ext", Case: "B", Baseline: 0.5, Optimized: 0.9, Robustness: 1.0},
	}
	anomalies := DetectAnomalies(rows)
	require.Len(t, anomalies, 2)

	assert.Equal(t, "bad", anomalies[0].RunID)
	assert.Equal(t, "Opt < Base, Rob < Base", anomalies[0].Reason)
	assert.Equal(t, "70,0000", anomalies[0].BasePct)

	assert.Equal(t, "ext", anomalies[1].RunID)
	assert.Equal(t, "Extremo (100,0000%)", anomalies[1].Reason)
}

func TestDetectAnomaliesMultipleReasons(t *testing.T) {
	rows := []Row{
		{RunID: "r", Case: "C", Baseline: 0.8, Optimized: 0.5, Robustness: 0.0},
	}
	anomalies := DetectAnomalies(rows)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "Opt < Base, Rob < Base, Extremo (0,0000%)", anomalies[0].Reason)
}
