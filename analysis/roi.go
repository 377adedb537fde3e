package analysis

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/promptforge/promptforge/pricing"
)

// ROIResult is the cost/benefit projection for one group. ROI is nil when
// the optimization did not improve the average test score.
type ROIResult struct {
	Key      GroupKey
	MaxCalls int
	AvgDelta float64
	Cost     pricing.OptimizationCost
	ROI      *pricing.ProductionROI
}

// BuildROI projects optimization cost and production ROI per group at the
// given volume. Groups whose optimization paid off sort first, by breakeven
// ascending.
func BuildROI(rows []Row, table pricing.Table, volume int) []ROIResult {
	var results []ROIResult
	for key, groupRows := range GroupRows(rows) {
		var base, rob []float64
		for _, r := range groupRows {
			base = append(base, r.Baseline)
			rob = append(rob, r.Robustness)
		}
		avgDelta := Mean(rob) - Mean(base)

		maxCalls := ExtractBudget(groupRows, pricing.FallbackMaxCalls)
		cost := pricing.CalculateOptimizationCost(
			key.Case, key.TaskModel, key.ReflectionModel, maxCalls, 0, table)

		result := ROIResult{Key: key, MaxCalls: maxCalls, AvgDelta: avgDelta, Cost: cost}
		if avgDelta > 0 {
			roi := pricing.CalculateProductionROI(
				key.Case, cost.TotalCost, key.ReflectionModel, key.TaskModel, volume, table)
			result.ROI = &roi
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.ROI == nil) != (b.ROI == nil) {
			return a.ROI != nil
		}
		if a.ROI == nil {
			return a.Key.Case < b.Key.Case
		}
		return a.ROI.BreakevenCalls < b.ROI.BreakevenCalls
	})
	return results
}

// WriteROIReport prints the configured pricing and the per-group cost and
// ROI projections.
func WriteROIReport(w io.Writer, table pricing.Table, results []ROIResult, volume int) {
	fmt.Fprintln(w, strings.Repeat("=", 100))
	fmt.Fprintln(w, "ANALISIS DE ROI - OPTIMIZACION DE PROMPTS")
	fmt.Fprintln(w, strings.Repeat("=", 100))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PRECIOS CONFIGURADOS (por 1M de tokens):")
	fmt.Fprintf(w, "%-15s | %12s | %12s\n", "Modelo", "Input (USD)", "Output (USD)")
	fmt.Fprintln(w, strings.Repeat("-", 45))
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	seen := make(map[string]bool)
	for _, name := range names {
		p := table[name]
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		fmt.Fprintf(w, "%-15s | %12s | %12s\n", p.Name, FormatCurrency(p.InputPrice), FormatCurrency(p.OutputPrice))
	}

	for _, res := range results {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("-", 100))
		fmt.Fprintf(w, "CASO: %s\n", res.Key.Case)
		fmt.Fprintln(w, strings.Repeat("-", 100))
		fmt.Fprintf(w, "Modelo Tarea: %s\n", res.Key.TaskModel)
		fmt.Fprintf(w, "Modelo Profesor: %s\n", res.Key.ReflectionModel)
		fmt.Fprintf(w, "Budget (max_calls): %d\n", res.MaxCalls)
		fmt.Fprintln(w)

		fmt.Fprintln(w, "COSTO DE OPTIMIZACION:")
		fmt.Fprintf(w, "  - Llamadas Task Model: %d = %s\n", res.Cost.TaskCalls, FormatCurrency(res.Cost.TaskCost))
		fmt.Fprintf(w, "  - Llamadas Reflection: %d = %s\n", res.Cost.ReflectionCalls, FormatCurrency(res.Cost.ReflectionCost))
		fmt.Fprintf(w, "  - TOTAL: %s\n", FormatCurrency(res.Cost.TotalCost))
		fmt.Fprintln(w)

		if res.ROI == nil {
			fmt.Fprintf(w, "ROI EN PRODUCCION: N/A (delta promedio: %+.2f, optimizacion no mejoro)\n", res.AvgDelta)
			fmt.Fprintln(w, "PUNTO DE EQUILIBRIO: N/A")
		} else {
			fmt.Fprintf(w, "ROI EN PRODUCCION (volumen: %d llamadas):\n", volume)
			fmt.Fprintf(w, "  - Sin optimizar: %s\n", FormatCurrency(res.ROI.CostWithoutOptimized))
			fmt.Fprintf(w, "  - Optimizado: %s\n", FormatCurrency(res.ROI.CostWithOptimizedTotal))
			fmt.Fprintf(w, "  - Ahorro: %s\n", FormatCurrency(res.ROI.Savings))
			fmt.Fprintf(w, "  - ROI: %.1f%%\n", res.ROI.ROIPercentage)
			fmt.Fprintln(w)
			fmt.Fprintf(w, "PUNTO DE EQUILIBRIO: %d llamadas\n", res.ROI.BreakevenCalls)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 100))
}
