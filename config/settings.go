package config

import "github.com/promptforge/promptforge/scoring"

// Default reflective-dataset limits. Overridable per experiment, never
// mutated at runtime: every adapter receives its own settings value.
const (
	DefaultClassifierTextMaxLen = 1000
	DefaultExtractorTextMaxLen  = 1000
	DefaultRAGContextMaxLen     = 1500
	DefaultRAGMaxPositives      = 2
	DefaultExtractorMaxPositive = 0
)

// AdapterSettings is the immutable per-run adapter configuration, derived
// once from a validated Experiment.
type AdapterSettings struct {
	ClassifierTextMaxLen  int
	ExtractorTextMaxLen   int
	RAGContextMaxLen      int
	ExtractorMaxPositives int
	RAGMaxPositives       int
	MatchMode             scoring.MatchMode
	FuzzyThreshold        float64

	ValidClasses   []string
	RequiredFields []string

	TaskModel   string
	JudgeModel  string
	Temperature float64
}

// DefaultAdapterSettings returns the baseline settings used when no
// experiment overrides apply.
func DefaultAdapterSettings() AdapterSettings {
	return AdapterSettings{
		ClassifierTextMaxLen:  DefaultClassifierTextMaxLen,
		ExtractorTextMaxLen:   DefaultExtractorTextMaxLen,
		RAGContextMaxLen:      DefaultRAGContextMaxLen,
		ExtractorMaxPositives: DefaultExtractorMaxPositive,
		RAGMaxPositives:       DefaultRAGMaxPositives,
		MatchMode:             scoring.MatchExact,
		FuzzyThreshold:        scoring.DefaultFuzzyThreshold,
	}
}

// Settings derives the adapter settings for this experiment, applying the
// YAML overrides on top of the defaults and the model roles from env.
func (e *Experiment) Settings(env *LLMEnv) AdapterSettings {
	s := DefaultAdapterSettings()

	a := e.Adapter
	if a.MaxTextLength != nil {
		s.ClassifierTextMaxLen = *a.MaxTextLength
		s.ExtractorTextMaxLen = *a.MaxTextLength
	}
	if a.RAGContextMaxLength != nil {
		s.RAGContextMaxLen = *a.RAGContextMaxLength
	}
	if a.MaxPositiveExamples != nil {
		switch a.Type {
		case KindExtractor:
			s.ExtractorMaxPositives = *a.MaxPositiveExamples
		case KindRAG:
			s.RAGMaxPositives = *a.MaxPositiveExamples
		}
	}
	if a.MatchMode != "" {
		s.MatchMode = scoring.MatchMode(a.MatchMode)
	}
	if a.FuzzyThreshold != nil {
		s.FuzzyThreshold = *a.FuzzyThreshold
	}
	s.ValidClasses = append([]string(nil), a.ValidClasses...)
	s.RequiredFields = append([]string(nil), a.RequiredFields...)

	if env != nil {
		s.TaskModel = env.TaskModel
		s.JudgeModel = env.ReflectionModel
		s.Temperature = env.Temperature
	}
	return s
}
