package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptforge/promptforge/pricing"
)

// GroupKey identifies one (case, task model, reflection model) combination.
type GroupKey struct {
	Case            string
	TaskModel       string
	ReflectionModel string
}

// GroupStat aggregates the runs of one group. Percentages are normalized to
// a 0-100 scale regardless of how scores were recorded.
type GroupStat struct {
	Key        GroupKey
	Runs       int
	AvgBasePct float64
	AvgOptPct  float64
	AvgRobPct  float64
	StdPct     float64
	DeltaPct   float64
	Stability  string
	MaxCalls   int

	// Savings1K and Breakeven are nil when the optimization did not
	// actually improve over baseline.
	Savings1K *float64
	Breakeven *int

	Sources []string
}

// CaseStat aggregates all groups of one case.
type CaseStat struct {
	Case      string
	TotalRuns int
	AvgBase   float64
	AvgOpt    float64
	AvgRob    float64
	AvgDelta  float64
}

// roiVolume is the production volume assumed for savings columns.
const roiVolume = 1000

// GroupRows buckets rows by (case, task model, reflection model).
func GroupRows(rows []Row) map[GroupKey][]Row {
	groups := make(map[GroupKey][]Row)
	for _, row := range rows {
		key := GroupKey{
			Case:            orUnknown(row.Case),
			TaskModel:       orUnknown(row.TaskModel),
			ReflectionModel: orUnknown(row.ReflectionModel),
		}
		groups[key] = append(groups[key], row)
	}
	return groups
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// BuildLeaderboard computes per-group statistics, sorted by case name and
// delta. ROI columns are only filled for groups where the optimized test
// score beat the baseline.
func BuildLeaderboard(rows []Row, table pricing.Table) []GroupStat {
	var stats []GroupStat
	for key, groupRows := range GroupRows(rows) {
		base := make([]float64, len(groupRows))
		opt := make([]float64, len(groupRows))
		rob := make([]float64, len(groupRows))
		for i, r := range groupRows {
			base[i], opt[i], rob[i] = r.Baseline, r.Optimized, r.Robustness
		}

		all := append(append(append([]float64{}, base...), opt...), rob...)
		scale := DetectScale(all)
		toPct := 100.0 / scale

		avgBase, avgOpt, avgRob := Mean(base), Mean(opt), Mean(rob)
		stdRob := Stdev(rob)
		deltaPct := (avgRob - avgBase) * toPct

		maxCalls := ExtractBudget(groupRows, pricing.FallbackMaxCalls)

		stat := GroupStat{
			Key:        key,
			Runs:       len(groupRows),
			AvgBasePct: avgBase * toPct,
			AvgOptPct:  avgOpt * toPct,
			AvgRobPct:  avgRob * toPct,
			StdPct:     stdRob / scale * 100,
			DeltaPct:   deltaPct,
			Stability:  StabilityLabel(stdRob, scale),
			MaxCalls:   maxCalls,
			Sources:    sourceSet(groupRows),
		}

		if deltaPct > 0 {
			cost := pricing.CalculateOptimizationCost(
				key.Case, key.TaskModel, key.ReflectionModel, maxCalls, 0, table)
			roi := pricing.CalculateProductionROI(
				key.Case, cost.TotalCost, key.ReflectionModel, key.TaskModel, roiVolume, table)
			savings := roi.Savings
			breakeven := roi.BreakevenCalls
			stat.Savings1K = &savings
			stat.Breakeven = &breakeven
		}

		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Key.Case != stats[j].Key.Case {
			return stats[i].Key.Case < stats[j].Key.Case
		}
		return stats[i].DeltaPct < stats[j].DeltaPct
	})
	return stats
}

// BuildCaseStats rolls group statistics up to one line per case, sorted by
// average delta descending.
func BuildCaseStats(stats []GroupStat) []CaseStat {
	byCase := make(map[string][]GroupStat)
	var order []string
	for _, s := range stats {
		if _, seen := byCase[s.Key.Case]; !seen {
			order = append(order, s.Key.Case)
		}
		byCase[s.Key.Case] = append(byCase[s.Key.Case], s)
	}

	caseStats := make([]CaseStat, 0, len(order))
	for _, name := range order {
		groups := byCase[name]
		var base, opt, rob, delta []float64
		total := 0
		for _, g := range groups {
			total += g.Runs
			base = append(base, g.AvgBasePct)
			opt = append(opt, g.AvgOptPct)
			rob = append(rob, g.AvgRobPct)
			delta = append(delta, g.DeltaPct)
		}
		caseStats = append(caseStats, CaseStat{
			Case:      name,
			TotalRuns: total,
			AvgBase:   Mean(base),
			AvgOpt:    Mean(opt),
			AvgRob:    Mean(rob),
			AvgDelta:  Mean(delta),
		})
	}

	sort.Slice(caseStats, func(i, j int) bool {
		return caseStats[i].AvgDelta > caseStats[j].AvgDelta
	})
	return caseStats
}

// Anomaly flags one suspicious run.
type Anomaly struct {
	RunID   string
	Case    string
	Source  string
	BasePct string
	OptPct  string
	RobPct  string
	Reason  string
}

// DetectAnomalies flags runs where optimization regressed, robustness fell
// below baseline, or the test score sits at an extreme (0, 1 or 100). A run
// can accumulate several reasons.
func DetectAnomalies(rows []Row) []Anomaly {
	var anomalies []Anomaly
	for _, row := range rows {
		scale := DetectScale([]float64{row.Baseline, row.Optimized, row.Robustness})
		toPct := 100.0 / scale

		var reasons []string
		if row.Optimized < row.Baseline {
			reasons = append(reasons, "Opt < Base")
		}
		if row.Robustness < row.Baseline {
			reasons = append(reasons, "Rob < Base")
		}
		if row.Robustness == 0.0 || row.Robustness == 1.0 || row.Robustness == 100.0 {
			reasons = append(reasons, fmt.Sprintf("Extremo (%s%%)", FormatFloat(row.Robustness*toPct, 4)))
		}

		if len(reasons) > 0 {
			anomalies = append(anomalies, Anomaly{
				RunID:   row.RunID,
				Case:    row.Case,
				Source:  row.Source,
				BasePct: FormatFloat(row.Baseline*toPct, 4),
				OptPct:  FormatFloat(row.Optimized*toPct, 4),
				RobPct:  FormatFloat(row.Robustness*toPct, 4),
				Reason:  strings.Join(reasons, ", "),
			})
		}
	}
	return anomalies
}

func sourceSet(rows []Row) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, r := range rows {
		src := r.Source
		if src == "" {
			src = "?"
		}
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)
	return sources
}
