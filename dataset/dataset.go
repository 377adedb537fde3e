// Package dataset loads experiment examples from split-annotated CSV files.
//
// Expected layout: a "split" column (train/val/test), an input column
// ("text" by default) and one or more output columns. A single output
// column yields flat examples; several output columns are nested under an
// "extracted" map.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/promptforge/promptforge/adapter"
)

const SplitColumn = "split"

// DefaultInputColumn is the input column name assumed when the experiment
// does not override it.
const DefaultInputColumn = "text"

// Splits groups the loaded examples by their split annotation.
type Splits struct {
	Train []adapter.Example
	Val   []adapter.Example
	Test  []adapter.Example
}

// Load reads a CSV and groups its rows by split. outputColumns nil or empty
// means every column except "split" and the input column, in header order.
// Rows with an unknown split value are an error rather than silently kept
// out of every set.
func Load(path, inputColumn string, outputColumns []string) (*Splits, error) {
	if inputColumn == "" {
		inputColumn = DefaultInputColumn
	}

	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	if len(outputColumns) == 0 {
		for _, col := range header {
			if col != SplitColumn && col != inputColumn {
				outputColumns = append(outputColumns, col)
			}
		}
	}

	col := indexColumns(header)
	if _, ok := col[SplitColumn]; !ok {
		return nil, fmt.Errorf("dataset %s: missing %q column", path, SplitColumn)
	}
	if _, ok := col[inputColumn]; !ok {
		return nil, fmt.Errorf("dataset %s: missing input column %q", path, inputColumn)
	}

	splits := &Splits{}
	for i, row := range rows {
		example := adapter.Example{inputColumn: field(row, col, inputColumn)}
		if len(outputColumns) == 1 {
			example[outputColumns[0]] = field(row, col, outputColumns[0])
		} else {
			extracted := make(map[string]any, len(outputColumns))
			for _, name := range outputColumns {
				extracted[name] = field(row, col, name)
			}
			example["extracted"] = extracted
		}

		split := strings.ToLower(strings.TrimSpace(field(row, col, SplitColumn)))
		switch split {
		case "train":
			splits.Train = append(splits.Train, example)
		case "val":
			splits.Val = append(splits.Val, example)
		case "test":
			splits.Test = append(splits.Test, example)
		default:
			return nil, fmt.Errorf("dataset %s row %d: unknown split %q, use train, val or test", path, i+2, split)
		}
	}
	return splits, nil
}

// Info summarizes a dataset file without materializing examples.
type Info struct {
	Path          string
	TotalRows     int
	SplitCounts   map[string]int
	Columns       []string
	InputColumn   string
	OutputColumns []string
}

// Describe returns row, split and column statistics for a dataset file.
func Describe(path string) (*Info, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col := indexColumns(header)
	counts := map[string]int{"train": 0, "val": 0, "test": 0}
	for _, row := range rows {
		split := strings.ToLower(strings.TrimSpace(field(row, col, SplitColumn)))
		counts[split]++
	}

	var outputColumns []string
	for _, name := range header {
		if name != "" && name != SplitColumn && name != DefaultInputColumn {
			outputColumns = append(outputColumns, name)
		}
	}

	return &Info{
		Path:          path,
		TotalRows:     len(rows),
		SplitCounts:   counts,
		Columns:       header,
		InputColumn:   DefaultInputColumn,
		OutputColumns: outputColumns,
	}, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset not found: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("dataset %s is empty", path)
	}

	header := records[0]
	if len(header) > 0 {
		// utf-8-sig exports prepend a BOM to the first header cell.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, records[1:], nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
