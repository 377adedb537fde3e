package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectScale(t *testing.T) {
	assert.Equal(t, 1.0, DetectScale([]float64{0.5, 0.8, 1.0}), "exactly 1.0 stays fractional")
	assert.Equal(t, 100.0, DetectScale([]float64{0.5, 85.0}))
	assert.Equal(t, 100.0, DetectScale([]float64{1.0001}))
	assert.Equal(t, 1.0, DetectScale(nil))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 0.85, ParseFloat("0,85"))
	assert.Equal(t, 0.85, ParseFloat("0.85"))
	assert.Equal(t, 92.5, ParseFloat(" 92,5 "))
	assert.Equal(t, 0.0, ParseFloat(""))
	assert.Equal(t, 0.0, ParseFloat("N/A"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0,8523", FormatFloat(0.8523, 4))
	assert.Equal(t, "92,50", FormatFloat(92.5, 2))
	assert.Equal(t, "+12,50", FormatSignedFloat(12.5, 2))
	assert.Equal(t, "-3,25", FormatSignedFloat(-3.25, 2))
	assert.Equal(t, "+0,00", FormatSignedFloat(0, 2))
}

func TestMeanAndStdev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)

	assert.Equal(t, 0.0, Stdev([]float64{5.0}), "single sample has no spread")
	// sample stdev of {2,4,4,4,5,5,7,9} = 2.138...
	assert.InDelta(t, 2.13809, Stdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-4)
}

func TestStabilityLabel(t *testing.T) {
	tests := []struct {
		std   float64
		scale float64
		want  string
	}{
		{0.02, 1.0, "Alta"},
		{0.0499, 1.0, "Alta"},
		{0.05, 1.0, "Buena"},
		{0.0999, 1.0, "Buena"},
		{0.10, 1.0, "Atencion"},
		{0.1499, 1.0, "Atencion"},
		{0.15, 1.0, "Inestable"},
		{0.30, 1.0, "Inestable"},
		// same spread on the percent scale
		{4.0, 100.0, "Alta"},
		{12.0, 100.0, "Atencion"},
		{20.0, 100.0, "Inestable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StabilityLabel(tt.std, tt.scale), "std=%v scale=%v", tt.std, tt.scale)
	}
}

func TestParseNotes(t *testing.T) {
	n := ParseNotes("Budget: 30, Strategy: medium, Few-Shot: Yes (k=3)")
	require.NotNil(t, n.Budget)
	assert.Equal(t, 30, *n.Budget)
	assert.Equal(t, "medium", n.Strategy)
	require.NotNil(t, n.FewShot)
	assert.True(t, *n.FewShot)
	require.NotNil(t, n.FewShotK)
	assert.Equal(t, 3, *n.FewShotK)

	n = ParseNotes("Budget: 60, Strategy: heavy, Few-Shot: No")
	assert.Equal(t, 60, *n.Budget)
	require.NotNil(t, n.FewShot)
	assert.False(t, *n.FewShot)
	assert.Nil(t, n.FewShotK)

	n = ParseNotes("")
	assert.Nil(t, n.Budget)
	assert.Empty(t, n.Strategy)
	assert.Nil(t, n.FewShot)
}

func TestExtractBudget(t *testing.T) {
	assert.Equal(t, 45, ExtractBudget([]Row{{Budget: "45"}}, 30), "dedicated column wins")
	assert.Equal(t, 25, ExtractBudget([]Row{{Budget: "N/A", Notes: "Budget: 25"}}, 30), "Notas fallback")
	assert.Equal(t, 30, ExtractBudget([]Row{{Budget: "", Notes: "sin presupuesto"}}, 30), "fallback value")
	assert.Equal(t, 15, ExtractBudget([]Row{
		{Budget: "", Notes: ""},
		{Budget: "15", Notes: ""},
	}, 30), "scans all rows in the group")
}
