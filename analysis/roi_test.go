package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/pricing"
)

func TestBuildROI(t *testing.T) {
	rows := []Row{
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.60, Robustness: 0.80, Budget: "30"},
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.62, Robustness: 0.78, Budget: "30"},
		{Case: "Text-to-SQL", TaskModel: "azure/gpt-4o-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.70, Robustness: 0.55, Budget: "15"},
	}

	results := BuildROI(rows, nil, 1000)
	require.Len(t, results, 2)

	improved := results[0]
	assert.Equal(t, "Email Urgency", improved.Key.Case, "profitable group sorts first")
	assert.Equal(t, 30, improved.MaxCalls)
	assert.InDelta(t, 0.18, improved.AvgDelta, 1e-9)
	require.NotNil(t, improved.ROI)
	assert.Equal(t, 1000, improved.ROI.ProductionCalls)
	assert.Greater(t, improved.ROI.BreakevenCalls, 0)
	assert.InDelta(t, improved.Cost.TotalCost, improved.ROI.OptimizationCost, 1e-12)

	regressed := results[1]
	assert.Equal(t, "Text-to-SQL", regressed.Key.Case)
	assert.Equal(t, 15, regressed.MaxCalls)
	assert.Nil(t, regressed.ROI, "no ROI projection when the delta is negative")
	assert.Greater(t, regressed.Cost.TotalCost, 0.0, "cost is still reported")
}

func TestBuildROIBreakevenOrdering(t *testing.T) {
	// Both groups improve; the pair with the bigger expensive/cheap spread
	// repays its optimization sooner and must sort first.
	rows := []Row{
		{Case: "Email Urgency", TaskModel: "azure/gpt-4o-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.50, Robustness: 0.70, Budget: "30"},
		{Case: "CV Extraction", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.50, Robustness: 0.70, Budget: "30"},
	}

	results := BuildROI(rows, nil, 1000)
	require.Len(t, results, 2)
	require.NotNil(t, results[0].ROI)
	require.NotNil(t, results[1].ROI)
	assert.LessOrEqual(t, results[0].ROI.BreakevenCalls, results[1].ROI.BreakevenCalls)
}

func TestWriteROIReport(t *testing.T) {
	rows := []Row{
		{Case: "Email Urgency", TaskModel: "azure/gpt-4.1-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.60, Robustness: 0.80, Budget: "30"},
		{Case: "Text-to-SQL", TaskModel: "azure/gpt-4o-mini", ReflectionModel: "azure/gpt-4o",
			Baseline: 0.70, Robustness: 0.55, Budget: "15"},
	}
	table := pricing.DefaultTable()
	results := BuildROI(rows, table, 1000)

	var buf bytes.Buffer
	WriteROIReport(&buf, table, results, 1000)
	out := buf.String()

	assert.Contains(t, out, "ANALISIS DE ROI - OPTIMIZACION DE PROMPTS")
	assert.Contains(t, out, "PRECIOS CONFIGURADOS (por 1M de tokens):")
	assert.Contains(t, out, "CASO: Email Urgency")
	assert.Contains(t, out, "COSTO DE OPTIMIZACION:")
	assert.Contains(t, out, "ROI EN PRODUCCION (volumen: 1000 llamadas):")
	assert.Contains(t, out, "PUNTO DE EQUILIBRIO:")
	assert.Contains(t, out, "ROI EN PRODUCCION: N/A (delta promedio: -0.15, optimizacion no mejoro)")
}
