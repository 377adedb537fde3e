package analysis

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// dateLayout matches the timestamps the ledger writes.
const dateLayout = "2006-01-02 15:04:05"

// ParseDate reads a ledger timestamp; the second return is false for
// malformed or empty cells.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BatchBoundaries splits the time span of the rows into numBatches equal
// periods and returns the numBatches-1 cut points. Returns nil when all
// rows share one timestamp or none parse.
func BatchBoundaries(rows []Row, numBatches int) []time.Time {
	var dates []time.Time
	for _, row := range rows {
		if t, ok := ParseDate(row.Date); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) == 0 {
		return nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	minDate, maxDate := dates[0], dates[len(dates)-1]
	if minDate.Equal(maxDate) {
		return nil
	}

	span := maxDate.Sub(minDate)
	boundaries := make([]time.Time, 0, numBatches-1)
	for i := 1; i < numBatches; i++ {
		boundaries = append(boundaries, minDate.Add(span*time.Duration(i)/time.Duration(numBatches)))
	}
	return boundaries
}

// AssignBatch maps a timestamp to its batch index given sorted boundaries.
func AssignBatch(t time.Time, boundaries []time.Time) int {
	for i, boundary := range boundaries {
		if t.Before(boundary) {
			return i
		}
	}
	return len(boundaries)
}

// Trend compares two batch averages on the percent scale: ^ improved,
// v worsened, = within half a point, N/A when either batch is empty.
func Trend(prev, curr *float64) string {
	if prev == nil || curr == nil {
		return "N/A"
	}
	diff := *curr - *prev
	switch {
	case diff > 0.5:
		return "^"
	case diff < -0.5:
		return "v"
	default:
		return "="
	}
}

// EvolutionRow is the per-group batch series, normalized to percent. Nil
// entries mark batches with no runs for that group.
type EvolutionRow struct {
	Key     GroupKey
	OptPct  []*float64
	RobPct  []*float64
}

// BuildEvolution averages optimized and test scores per batch for each
// group. Scores are normalized per group so mixed 0-1 / 0-100 histories
// stay comparable.
func BuildEvolution(rows []Row, boundaries []time.Time) []EvolutionRow {
	numBatches := len(boundaries) + 1

	type series struct {
		opt [][]float64
		rob [][]float64
	}
	groups := make(map[GroupKey]*series)

	for _, row := range rows {
		t, ok := ParseDate(row.Date)
		if !ok {
			continue
		}
		key := GroupKey{
			Case:            orUnknown(row.Case),
			TaskModel:       orUnknown(row.TaskModel),
			ReflectionModel: orUnknown(row.ReflectionModel),
		}
		s := groups[key]
		if s == nil {
			s = &series{opt: make([][]float64, numBatches), rob: make([][]float64, numBatches)}
			groups[key] = s
		}
		idx := AssignBatch(t, boundaries)
		s.opt[idx] = append(s.opt[idx], row.Optimized)
		s.rob[idx] = append(s.rob[idx], row.Robustness)
	}

	out := make([]EvolutionRow, 0, len(groups))
	for key, s := range groups {
		var all []float64
		for i := 0; i < numBatches; i++ {
			all = append(all, s.opt[i]...)
			all = append(all, s.rob[i]...)
		}
		toPct := 100.0 / DetectScale(all)

		row := EvolutionRow{Key: key, OptPct: make([]*float64, numBatches), RobPct: make([]*float64, numBatches)}
		for i := 0; i < numBatches; i++ {
			if len(s.opt[i]) > 0 {
				v := Mean(s.opt[i]) * toPct
				row.OptPct[i] = &v
			}
			if len(s.rob[i]) > 0 {
				v := Mean(s.rob[i]) * toPct
				row.RobPct[i] = &v
			}
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Case < out[j].Key.Case })
	return out
}

// formatSeries interleaves batch averages with trend markers:
// "75.0% ^ 80.0% = 80.2%".
func formatSeries(values []*float64) string {
	var parts []string
	for i, v := range values {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%.1f%%", *v))
		} else {
			parts = append(parts, "  -  ")
		}
		if i < len(values)-1 {
			parts = append(parts, Trend(values[i], values[i+1]))
		}
	}
	return strings.Join(parts, " ")
}

// WriteEvolutionReport prints the temporal batch comparison.
func WriteEvolutionReport(w io.Writer, boundaries []time.Time, rows []EvolutionRow) {
	fmt.Fprintln(w, strings.Repeat("=", 140))
	fmt.Fprintln(w, "EVOLUCION POR LOTES TEMPORALES")
	fmt.Fprintln(w, strings.Repeat("=", 140))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Limites de lotes:")
	for i, boundary := range boundaries {
		fmt.Fprintf(w, "  Lote %d -> Lote %d: %s\n", i, i+1, boundary.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-30s | %-40s | %-40s | %-40s\n", "Caso", "Modelos", "Optimizado %", "Robustez %")
	fmt.Fprintln(w, strings.Repeat("-", 140))
	for _, row := range rows {
		models := row.Key.TaskModel + "/" + row.Key.ReflectionModel
		fmt.Fprintf(w, "%-30s | %-40s | %-40s | %-40s\n",
			row.Key.Case, models, formatSeries(row.OptPct), formatSeries(row.RobPct))
	}
	fmt.Fprintln(w, strings.Repeat("-", 140))
	fmt.Fprintln(w, "Leyenda: ^ Mejoro | v Empeoro | = Igual | - Sin datos")
}
