// Package config handles the experiment YAML surface and the environment
// based LLM connection settings. Validation produces a flat list of
// human-readable errors that are fatal for the whole run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdapterKind names one of the supported task adapters.
const (
	KindClassifier = "classifier"
	KindExtractor  = "extractor"
	KindSQL        = "sql"
	KindRAG        = "rag"
)

// Budget presets accepted in optimization.auto_budget, mapped to a metric
// call count when max_metric_calls is not given explicitly.
var autoBudgets = map[string]int{
	"light":  15,
	"medium": 30,
	"heavy":  60,
}

// Experiment mirrors the experiment YAML document.
type Experiment struct {
	Case         CaseConfig         `yaml:"case"`
	Adapter      AdapterConfig      `yaml:"adapter"`
	Data         DataConfig         `yaml:"data"`
	Optimization OptimizationConfig `yaml:"optimization"`
	Prompt       PromptConfig       `yaml:"prompt"`
}

type CaseConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type AdapterConfig struct {
	Type string `yaml:"type"`

	// classifier
	ValidClasses []string `yaml:"valid_classes"`

	// extractor
	RequiredFields []string `yaml:"required_fields"`

	// extractor / rag reinforcement cap
	MaxPositiveExamples *int `yaml:"max_positive_examples"`

	// reflective-dataset truncation overrides
	MaxTextLength       *int `yaml:"max_text_length"`
	RAGContextMaxLength *int `yaml:"rag_context_max_length"`

	// field comparison: exact (default), normalized, or fuzzy
	MatchMode      string   `yaml:"match_mode"`
	FuzzyThreshold *float64 `yaml:"fuzzy_threshold"`
}

type DataConfig struct {
	CSVFilename   string   `yaml:"csv_filename"`
	InputColumn   string   `yaml:"input_column"`
	OutputColumns []string `yaml:"output_columns"`
}

type OptimizationConfig struct {
	MaxMetricCalls *int   `yaml:"max_metric_calls"`
	AutoBudget     string `yaml:"auto_budget"`
}

type PromptConfig struct {
	Filename string `yaml:"filename"`
}

// Load reads and parses an experiment YAML file. It does not validate;
// call Validate on the result before constructing adapters.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	return &exp, nil
}

// MetricCalls resolves the optimization budget: an explicit
// max_metric_calls wins, otherwise the auto_budget preset, otherwise the
// medium preset.
func (e *Experiment) MetricCalls() int {
	if e.Optimization.MaxMetricCalls != nil {
		return *e.Optimization.MaxMetricCalls
	}
	if n, ok := autoBudgets[e.Optimization.AutoBudget]; ok {
		return n
	}
	return autoBudgets["medium"]
}

// InputColumn returns the configured input column, defaulting to "text".
func (e *Experiment) InputColumn() string {
	if e.Data.InputColumn == "" {
		return "text"
	}
	return e.Data.InputColumn
}
