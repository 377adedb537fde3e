package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/pricing"
)

func TestBuildBudgetBreakdown(t *testing.T) {
	rows := []Row{
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o", Budget: "30", Source: "poc"},
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o", Budget: "30", Source: "poc"},
		{Case: "Email Urgency", TaskModel: "azure/gpt-4o", ReflectionModel: "azure/gpt-4o", Budget: "30", Source: "standalone"},
		{Case: "Text-to-SQL", TaskModel: "azure/gpt-4o-mini", ReflectionModel: "azure/gpt-4o", Budget: "15", Source: "poc"},
	}

	budgets := BuildBudgetBreakdown(rows, nil, SortByCost)
	require.Len(t, budgets, 2)

	email := budgets[0]
	assert.Equal(t, "Email Urgency", email.Case, "most expensive case first")
	assert.Equal(t, 3, email.Count)
	assert.Equal(t, []string{"poc", "standalone"}, email.Sources)
	require.Len(t, email.ByCombo, 2)
	assert.Greater(t, email.ByCombo[0].Cost, email.ByCombo[1].Cost, "combos sorted by cost")

	// per-run cost matches the optimization cost formula
	perRun := pricing.CalculateOptimizationCost("Text-to-SQL", "azure/gpt-4o-mini", "azure/gpt-4o", 15, 0, nil).TotalCost
	assert.InDelta(t, perRun, budgets[1].TotalCost, 1e-12)
}

func TestBuildBudgetBreakdownSortModes(t *testing.T) {
	rows := []Row{
		{Case: "B", TaskModel: "m", ReflectionModel: "r", Budget: "30"},
		{Case: "A", TaskModel: "m", ReflectionModel: "r", Budget: "15"},
		{Case: "A", TaskModel: "m", ReflectionModel: "r", Budget: "15"},
	}

	byName := BuildBudgetBreakdown(rows, nil, SortByName)
	assert.Equal(t, "A", byName[0].Case)

	byCount := BuildBudgetBreakdown(rows, nil, SortByCount)
	assert.Equal(t, "A", byCount[0].Case)
	assert.Equal(t, 2, byCount[0].Count)
}

func TestWriteBudgetReport(t *testing.T) {
	rows := []Row{
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o", Budget: "30", Source: "poc"},
	}
	budgets := BuildBudgetBreakdown(rows, nil, SortByCost)

	var buf bytes.Buffer
	WriteBudgetReport(&buf, budgets)
	out := buf.String()

	assert.Contains(t, out, "PRESUPUESTO GASTADO POR CASO")
	assert.Contains(t, out, "CASO: Email Urgency")
	assert.Contains(t, out, "azure/gpt-4.1-mini + azure/gpt-4o")
	assert.Contains(t, out, "RESUMEN GLOBAL")
	assert.Contains(t, out, "RANKING DE CASOS POR COSTO TOTAL")
}
