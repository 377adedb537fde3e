package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Run ID;Fecha;Caso;Modelo Tarea;Modelo Profesor;Baseline Score;Optimizado Score;Robustez Score;Run Directory;Reflexion Positiva;Budget;Notas\n" +
	"a3f9b2c1;2026-01-10 12:00:00;Email Urgency;azure/gpt-4.1-mini;azure/gpt-4o;0,6000;0,8000;0,7800;runs/x;si;30;Strategy: medium\n" +
	"PROMEDIO;;;;;0,5;0,5;0,5;;;;\n" +
	"b2c3d4e5;2026-01-11 09:30:00;;azure/gpt-4.1-mini;azure/gpt-4o;0,5;0,5;0,5;;;;\n" +
	"c3d4e5f6;2026-01-12 18:45:00;Text-to-SQL;azure/gpt-4o-mini;azure/gpt-4o;0,7000;0,6500;0,6000;;no;;Budget: 15\n"

func writeMetrics(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "results", "experiments", MetricsFilename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	path := writeMetrics(t, filepath.Join(root, "gepa_poc"), sampleCSV)

	rows, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2, "PROMEDIO and empty-case rows are skipped")

	first := rows[0]
	assert.Equal(t, "a3f9b2c1", first.RunID)
	assert.Equal(t, "Email Urgency", first.Case)
	assert.InDelta(t, 0.60, first.Baseline, 1e-9)
	assert.InDelta(t, 0.80, first.Optimized, 1e-9)
	assert.InDelta(t, 0.78, first.Robustness, 1e-9)
	assert.Equal(t, "30", first.Budget)
	assert.Equal(t, "gepa_poc", first.Source)

	assert.Equal(t, "Budget: 15", rows[1].Notes)
}

func TestLoadFileBOM(t *testing.T) {
	root := t.TempDir()
	path := writeMetrics(t, filepath.Join(root, "proj"), "\ufeff"+sampleCSV)

	rows, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a3f9b2c1", rows[0].RunID, "BOM on the header must not break Run ID lookup")
}

func TestLoadAllMerges(t *testing.T) {
	root := t.TempDir()
	p1 := writeMetrics(t, filepath.Join(root, "proj_a"), sampleCSV)
	p2 := writeMetrics(t, filepath.Join(root, "proj_b"), sampleCSV)

	rows, err := LoadAll([]string{p1, p2})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "proj_a", rows[0].Source)
	assert.Equal(t, "proj_b", rows[2].Source)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeMetrics(t, filepath.Join(root, "gepa_poc"), sampleCSV)
	writeMetrics(t, filepath.Join(root, "standalone"), sampleCSV)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	paths, err := Discover(root, "")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "gepa_poc")
	assert.Contains(t, paths[1], "standalone")

	filtered, err := Discover(root, "GEPA")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Contains(t, filtered[0], "gepa_poc")
}

func TestLoadAllEmpty(t *testing.T) {
	_, err := LoadAll(nil)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestFilterCase(t *testing.T) {
	rows := []Row{
		{Case: "Email Urgency"},
		{Case: "Text-to-SQL"},
	}
	assert.Len(t, FilterCase(rows, ""), 2)
	assert.Len(t, FilterCase(rows, "email"), 1)
	assert.Len(t, FilterCase(rows, "SQL"), 1)
	assert.Empty(t, FilterCase(rows, "rag"))
}
