package analysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptforge/promptforge/ledger"
)

// MetricsFilename is the canonical results file name searched for when no
// explicit path is given.
const MetricsFilename = "metricas_optimizacion.csv"

// averageSentinel marks manually-added summary rows in shared spreadsheets;
// they are not runs.
const averageSentinel = "PROMEDIO"

// Row is one experiment run loaded from a results CSV. Scores are already
// parsed; Budget and Notes stay raw for ExtractBudget.
type Row struct {
	RunID           string
	Date            string
	Case            string
	TaskModel       string
	ReflectionModel string
	Baseline        float64
	Optimized       float64
	Robustness      float64
	Budget          string
	Notes           string
	Source          string
}

// LoadFile reads one results CSV, skipping summary and incomplete rows.
// Every row is tagged with a source label derived from the path so merged
// reports can tell projects apart.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metrics file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ledger.Delimiter
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading metrics file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metrics file %s is empty", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	source := sourceLabel(path)
	var rows []Row
	for _, record := range records[1:] {
		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		runID := cell("Run ID")
		if runID == "" || runID == averageSentinel {
			continue
		}
		if cell("Caso") == "" {
			continue
		}

		rows = append(rows, Row{
			RunID:           runID,
			Date:            cell("Fecha"),
			Case:            cell("Caso"),
			TaskModel:       cell("Modelo Tarea"),
			ReflectionModel: cell("Modelo Profesor"),
			Baseline:        ParseFloat(cell("Baseline Score")),
			Optimized:       ParseFloat(cell("Optimizado Score")),
			Robustness:      ParseFloat(cell("Robustez Score")),
			Budget:          cell("Budget"),
			Notes:           cell("Notas"),
			Source:          source,
		})
	}
	return rows, nil
}

// Discover finds every project results file under root, following the
// <project>/results/experiments/ layout. A non-empty projectFilter keeps
// only projects whose directory name contains it, case-insensitively.
func Discover(root, projectFilter string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning for metrics files: %w", err)
	}

	needle := strings.ToLower(projectFilter)
	var found []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(entry.Name()), needle) {
			continue
		}
		candidate := filepath.Join(root, entry.Name(), "results", "experiments", MetricsFilename)
		if _, err := os.Stat(candidate); err == nil {
			found = append(found, candidate)
		}
	}
	sort.Strings(found)
	return found, nil
}

// LoadAll merges several results CSVs into one row set.
func LoadAll(paths []string) ([]Row, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no metrics files given, expected at least one %s", MetricsFilename)
	}
	var all []Row
	for _, path := range paths {
		rows, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

// FilterCase keeps rows whose case name contains the filter,
// case-insensitively. An empty filter keeps everything.
func FilterCase(rows []Row, caseFilter string) []Row {
	if caseFilter == "" {
		return rows
	}
	needle := strings.ToLower(caseFilter)
	var out []Row
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Case), needle) {
			out = append(out, row)
		}
	}
	return out
}

// sourceLabel derives a project label from a metrics path. The layout
// <project>/results/experiments/<file> yields the project name; flatter
// paths fall back to the parent directory.
func sourceLabel(path string) string {
	dir := filepath.Dir(path)
	parts := strings.Split(filepath.ToSlash(dir), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case "experiments", "results", "", ".":
			continue
		default:
			return parts[i]
		}
	}
	return "unknown"
}
