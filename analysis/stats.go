// Package analysis computes leaderboards, anomaly reports, budget
// breakdowns and temporal evolution over the experiment results CSV.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DetectScale reports whether scores are on a 0-1 or 0-100 scale. A score
// of exactly 1.0 is still 0-1 scale; only values above it flip to percent.
func DetectScale(scores []float64) float64 {
	for _, s := range scores {
		if s > 1.0 {
			return 100.0
		}
	}
	return 1.0
}

// ParseFloat reads a European-format number ("0,85"). Empty and malformed
// values parse as 0 so a single bad cell cannot abort a whole report.
func ParseFloat(value string) float64 {
	if value == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
	if err != nil {
		return 0.0
	}
	return v
}

// FormatFloat renders a float with European decimal separator.
func FormatFloat(value float64, decimals int) string {
	return strings.Replace(strconv.FormatFloat(value, 'f', decimals, 64), ".", ",", 1)
}

// FormatSignedFloat renders a signed float ("+12,50") for delta columns.
func FormatSignedFloat(value float64, decimals int) string {
	s := strconv.FormatFloat(value, 'f', decimals, 64)
	if value >= 0 {
		s = "+" + s
	}
	return strings.Replace(s, ".", ",", 1)
}

// FormatCurrency renders a USD amount.
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// Mean of a non-empty slice; 0 when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stdev is the sample standard deviation; 0 with fewer than two values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// StabilityLabel classifies run-to-run variance, normalized by score scale:
// Alta (<5%), Buena (5-10%), Atencion (10-15%), Inestable (>=15%).
func StabilityLabel(std, scale float64) string {
	normalized := std
	if scale > 0 {
		normalized = std / scale
	}
	switch {
	case normalized < 0.05:
		return "Alta"
	case normalized < 0.10:
		return "Buena"
	case normalized < 0.15:
		return "Atencion"
	default:
		return "Inestable"
	}
}

// Notes is the structured content of the free-form Notas column.
type Notes struct {
	Budget   *int
	Strategy string
	FewShot  *bool
	FewShotK *int
}

var (
	budgetRe   = regexp.MustCompile(`Budget:\s*(\d+)`)
	strategyRe = regexp.MustCompile(`Strategy:\s*(\w+)`)
	fewShotRe  = regexp.MustCompile(`(?i)Few-Shot:\s*(Yes|No)`)
	fewShotKRe = regexp.MustCompile(`k=(\d+)`)
)

// ParseNotes extracts the structured fields from a Notas cell, e.g.
// "Budget: 30, Strategy: medium, Few-Shot: Yes (k=3)".
func ParseNotes(notas string) Notes {
	var n Notes
	if strings.TrimSpace(notas) == "" {
		return n
	}
	if m := budgetRe.FindStringSubmatch(notas); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			n.Budget = &v
		}
	}
	if m := strategyRe.FindStringSubmatch(notas); m != nil {
		n.Strategy = m[1]
	}
	if m := fewShotRe.FindStringSubmatch(notas); m != nil {
		v := strings.EqualFold(m[1], "yes")
		n.FewShot = &v
	}
	if m := fewShotKRe.FindStringSubmatch(notas); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			n.FewShotK = &v
		}
	}
	return n
}

// ExtractBudget resolves the metric-call budget for a group of rows: the
// dedicated Budget column wins, older rows fall back to the Notas text, and
// rows with neither use the fallback.
func ExtractBudget(rows []Row, fallback int) int {
	for _, row := range rows {
		if b := strings.TrimSpace(row.Budget); b != "" {
			if v, err := strconv.Atoi(b); err == nil {
				return v
			}
		}
		if n := ParseNotes(row.Notes); n.Budget != nil {
			return *n.Budget
		}
	}
	return fallback
}
