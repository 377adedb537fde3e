package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/promptforge/promptforge/scoring"
)

const (
	MaxMetricCallsMin = 10
	MaxMetricCallsMax = 500
)

// required sections with their required scalar fields, validated by tag so
// the rules live next to the struct they describe.
type requiredSurface struct {
	CaseName    string `validate:"required"`
	AdapterType string `validate:"required,oneof=classifier extractor sql rag"`
	CSVFilename string `validate:"required"`
}

var validate = validator.New()

// Validate checks an experiment configuration and returns every problem
// found as a human-readable message. An empty slice means the config is
// usable. datasetsDir may be empty to skip file-existence checks (unit
// tests, dry runs).
func Validate(exp *Experiment, datasetsDir string) []string {
	var errs []string

	surface := newRequiredSurface(exp)
	if err := validate.Struct(surface); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, fe := range vErrs {
				errs = append(errs, surfaceMessage(fe, exp))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	errs = append(errs, validateAdapter(&exp.Adapter)...)
	errs = append(errs, validateOptimization(&exp.Optimization)...)

	if datasetsDir != "" && exp.Data.CSVFilename != "" {
		csvPath := filepath.Join(datasetsDir, exp.Data.CSVFilename)
		if _, err := os.Stat(csvPath); err != nil {
			errs = append(errs, fmt.Sprintf(
				"CSV file not found: %s\n  Expected at: %s\n  Place your CSV in: %s",
				exp.Data.CSVFilename, csvPath, datasetsDir))
		}
	}

	return errs
}

func newRequiredSurface(exp *Experiment) requiredSurface {
	return requiredSurface{
		CaseName:    exp.Case.Name,
		AdapterType: exp.Adapter.Type,
		CSVFilename: exp.Data.CSVFilename,
	}
}

func surfaceMessage(fe validator.FieldError, exp *Experiment) string {
	switch fe.Field() {
	case "CaseName":
		return "Missing required field: 'case.name'"
	case "AdapterType":
		if fe.Tag() == "oneof" {
			return fmt.Sprintf("Invalid adapter type: '%s'. Must be one of: classifier, extractor, sql, rag",
				exp.Adapter.Type)
		}
		return "Missing required field: 'adapter.type'"
	case "CSVFilename":
		return "Missing required field: 'data.csv_filename'"
	default:
		return fe.Error()
	}
}

func validateAdapter(a *AdapterConfig) []string {
	var errs []string

	switch a.Type {
	case KindClassifier:
		if a.ValidClasses == nil {
			errs = append(errs, "Adapter 'classifier' requires field: 'adapter.valid_classes'")
		} else if len(a.ValidClasses) == 0 {
			errs = append(errs, "'adapter.valid_classes' cannot be empty")
		}
	case KindExtractor:
		if a.RequiredFields == nil {
			errs = append(errs, "Adapter 'extractor' requires field: 'adapter.required_fields'")
		} else if len(a.RequiredFields) == 0 {
			errs = append(errs, "'adapter.required_fields' cannot be empty")
		}
	}

	if a.MaxPositiveExamples != nil && *a.MaxPositiveExamples < 0 {
		errs = append(errs, fmt.Sprintf(
			"'adapter.max_positive_examples' cannot be negative, got: %d", *a.MaxPositiveExamples))
	}
	switch a.MatchMode {
	case "", string(scoring.MatchExact), string(scoring.MatchNormalized), string(scoring.MatchFuzzy):
	default:
		errs = append(errs, fmt.Sprintf(
			"'adapter.match_mode' must be one of exact, normalized, fuzzy, got: %q", a.MatchMode))
	}
	if a.FuzzyThreshold != nil && (*a.FuzzyThreshold <= 0 || *a.FuzzyThreshold > 1) {
		errs = append(errs, fmt.Sprintf(
			"'adapter.fuzzy_threshold' must be in (0, 1], got: %v", *a.FuzzyThreshold))
	}
	return errs
}

func validateOptimization(o *OptimizationConfig) []string {
	var errs []string

	if o.MaxMetricCalls == nil && o.AutoBudget == "" {
		errs = append(errs, "Optimization requires 'max_metric_calls' or 'auto_budget'")
		return errs
	}
	if o.MaxMetricCalls != nil {
		calls := *o.MaxMetricCalls
		if calls < MaxMetricCallsMin || calls > MaxMetricCallsMax {
			errs = append(errs, fmt.Sprintf(
				"'optimization.max_metric_calls' must be between %d and %d, got: %d",
				MaxMetricCallsMin, MaxMetricCallsMax, calls))
		}
	}
	if o.AutoBudget != "" {
		if _, ok := autoBudgets[o.AutoBudget]; !ok {
			errs = append(errs, fmt.Sprintf(
				"'optimization.auto_budget' must be one of: light, medium, heavy, got: '%s'",
				o.AutoBudget))
		}
	}
	return errs
}

// FormatErrors renders the validation errors as the numbered fatal message
// shown to the user at startup.
func FormatErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Configuration invalid (%d error(s)):\n", len(errs)))
	for i, e := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, e))
	}
	return b.String()
}
