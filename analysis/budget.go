package analysis

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/promptforge/promptforge/pricing"
)

// ComboCost accumulates runs of one task/reflection model pair.
type ComboCost struct {
	Combo string
	Count int
	Cost  float64
}

// CaseBudget is the spend summary of one case.
type CaseBudget struct {
	Case      string
	Count     int
	TotalCost float64
	ByCombo   []ComboCost
	Sources   []string
}

// BudgetSort selects the ordering of the breakdown.
type BudgetSort string

const (
	SortByCost  BudgetSort = "cost"
	SortByCount BudgetSort = "count"
	SortByName  BudgetSort = "name"
)

// BuildBudgetBreakdown estimates what each case has cost so far, with a
// per-model-pair breakdown. Each run's budget comes from its own row.
func BuildBudgetBreakdown(rows []Row, table pricing.Table, sortBy BudgetSort) []CaseBudget {
	type acc struct {
		count   int
		total   float64
		combos  map[string]*ComboCost
		sources map[string]bool
	}
	cases := make(map[string]*acc)

	for _, row := range rows {
		caseName := orUnknown(row.Case)
		taskModel := row.TaskModel
		if taskModel == "" {
			taskModel = "gpt-4o-mini"
		}
		reflectionModel := row.ReflectionModel
		if reflectionModel == "" {
			reflectionModel = "gpt-4o"
		}

		maxCalls := ExtractBudget([]Row{row}, pricing.FallbackMaxCalls)
		cost := pricing.CalculateOptimizationCost(caseName, taskModel, reflectionModel, maxCalls, 0, table).TotalCost

		a := cases[caseName]
		if a == nil {
			a = &acc{combos: make(map[string]*ComboCost), sources: make(map[string]bool)}
			cases[caseName] = a
		}
		a.count++
		a.total += cost
		a.sources[orUnknown(row.Source)] = true

		combo := taskModel + " + " + reflectionModel
		c := a.combos[combo]
		if c == nil {
			c = &ComboCost{Combo: combo}
			a.combos[combo] = c
		}
		c.Count++
		c.Cost += cost
	}

	budgets := make([]CaseBudget, 0, len(cases))
	for name, a := range cases {
		combos := make([]ComboCost, 0, len(a.combos))
		for _, c := range a.combos {
			combos = append(combos, *c)
		}
		sort.Slice(combos, func(i, j int) bool { return combos[i].Cost > combos[j].Cost })

		sources := make([]string, 0, len(a.sources))
		for s := range a.sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		budgets = append(budgets, CaseBudget{
			Case:      name,
			Count:     a.count,
			TotalCost: a.total,
			ByCombo:   combos,
			Sources:   sources,
		})
	}

	switch sortBy {
	case SortByCount:
		sort.Slice(budgets, func(i, j int) bool { return budgets[i].Count > budgets[j].Count })
	case SortByName:
		sort.Slice(budgets, func(i, j int) bool { return budgets[i].Case < budgets[j].Case })
	default:
		sort.Slice(budgets, func(i, j int) bool { return budgets[i].TotalCost > budgets[j].TotalCost })
	}
	return budgets
}

// WriteBudgetReport prints the per-case spend breakdown plus a global
// summary and cost ranking.
func WriteBudgetReport(w io.Writer, budgets []CaseBudget) {
	fmt.Fprintln(w, strings.Repeat("=", 100))
	fmt.Fprintln(w, "PRESUPUESTO GASTADO POR CASO")
	fmt.Fprintln(w, strings.Repeat("=", 100))

	totalCost := 0.0
	totalCount := 0
	for _, b := range budgets {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("-", 100))
		fmt.Fprintf(w, "CASO: %s\n", b.Case)
		fmt.Fprintf(w, "Fuente(s): %s\n", strings.Join(b.Sources, ", "))
		fmt.Fprintln(w, strings.Repeat("-", 100))
		fmt.Fprintf(w, "Total Experimentos: %d\n", b.Count)
		fmt.Fprintf(w, "Costo Total: %s\n", FormatCurrency(b.TotalCost))
		fmt.Fprintf(w, "Costo Promedio/Exp: %s\n", FormatCurrency(b.TotalCost/float64(b.Count)))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Desglose por Combinacion de Modelos:")
		for _, c := range b.ByCombo {
			pct := 0.0
			if b.TotalCost > 0 {
				pct = c.Cost / b.TotalCost * 100
			}
			fmt.Fprintf(w, "  %-45s %4d %12s %6.1f%%\n", c.Combo, c.Count, FormatCurrency(c.Cost), pct)
		}
		totalCost += b.TotalCost
		totalCount += b.Count
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 100))
	fmt.Fprintln(w, "RESUMEN GLOBAL")
	fmt.Fprintln(w, strings.Repeat("=", 100))
	fmt.Fprintf(w, "Total Experimentos: %d\n", totalCount)
	fmt.Fprintf(w, "Total Presupuesto: %s\n", FormatCurrency(totalCost))
	if totalCount > 0 {
		fmt.Fprintf(w, "Costo Promedio/Exp: %s\n", FormatCurrency(totalCost/float64(totalCount)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "RANKING DE CASOS POR COSTO TOTAL:")
	ranked := append([]CaseBudget(nil), budgets...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].TotalCost > ranked[j].TotalCost })
	for _, b := range ranked {
		pct := 0.0
		if totalCost > 0 {
			pct = b.TotalCost / totalCost * 100
		}
		fmt.Fprintf(w, "  %-30s %6s %12s %6.1f%%\n", b.Case, strconv.Itoa(b.Count), FormatCurrency(b.TotalCost), pct)
	}
}
