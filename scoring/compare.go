// Package scoring implements the comparison strategies shared by the task
// adapters: exact, punctuation-normalized and fuzzy string matching, field-set
// partial credit, and SQL text normalization.
package scoring

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultFuzzyThreshold is the similarity ratio accepted by CompareFuzzy
// when the caller does not configure one.
const DefaultFuzzyThreshold = 0.85

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// MatchMode selects the per-field comparison strategy.
type MatchMode string

const (
	MatchExact      MatchMode = "exact"
	MatchNormalized MatchMode = "normalized"
	MatchFuzzy      MatchMode = "fuzzy"
)

// Compare applies the selected strategy. Unknown or empty modes compare
// exactly; threshold only matters in fuzzy mode.
func Compare(mode MatchMode, expected, actual string, threshold float64) bool {
	switch mode {
	case MatchNormalized:
		return CompareNormalized(expected, actual)
	case MatchFuzzy:
		return CompareFuzzy(expected, actual, threshold)
	default:
		return CompareExact(expected, actual)
	}
}

// CompareExact reports plain equality. Callers pre-lowercase and trim.
func CompareExact(expected, actual string) bool {
	return expected == actual
}

// Normalize strips everything that is neither a word character nor
// whitespace, then collapses whitespace runs. Normalize is idempotent.
func Normalize(s string) string {
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CompareNormalized compares after Normalize on both sides.
func CompareNormalized(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

// CompareFuzzy accepts a normalized match outright, otherwise accepts when
// the similarity ratio of the normalized strings reaches the threshold.
// Thresholds outside (0, 1] fall back to DefaultFuzzyThreshold.
func CompareFuzzy(expected, actual string, threshold float64) bool {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	if CompareNormalized(expected, actual) {
		return true
	}
	return Ratio(Normalize(expected), Normalize(actual)) >= threshold
}

// Ratio computes a sequence-similarity ratio in [0, 1]: twice the number of
// matching characters over the total length of both strings.
func Ratio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1.0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return 2.0 * float64(common) / float64(len(a)+len(b))
}

// FieldSetScore aggregates per-field match results: a perfect record scores
// 1.0, a partial one scores matches/total when normalize is enabled and 0.0
// otherwise. Zero fields score 0.0.
func FieldSetScore(matches, total int, normalize bool) float64 {
	if total == 0 {
		return 0.0
	}
	if matches == total {
		return 1.0
	}
	if normalize {
		return float64(matches) / float64(total)
	}
	return 0.0
}
