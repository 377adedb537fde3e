// Package pricing models per-call LLM costs, optimization budgets and
// production ROI projections.
package pricing

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelPricing is the cost of one model in USD per 1M tokens.
type ModelPricing struct {
	Name        string  `yaml:"name"`
	InputPrice  float64 `yaml:"input_price"`
	OutputPrice float64 `yaml:"output_price"`
}

// CostPerCall is the cost of a single call with the given token counts.
func (p ModelPricing) CostPerCall(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*p.InputPrice/1_000_000 +
		float64(outputTokens)*p.OutputPrice/1_000_000
}

// fallbackModel is the tier assumed for models missing from the table.
const fallbackModel = "gpt-4o-mini"

// DefaultTable returns Azure OpenAI Global Standard pricing.
func DefaultTable() Table {
	return Table{
		"gpt-4o":       {Name: "GPT-4o", InputPrice: 2.50, OutputPrice: 10.00},
		"gpt-4.1-mini": {Name: "GPT-4.1-mini", InputPrice: 0.15, OutputPrice: 0.60},
		"gpt-4o-mini":  {Name: "GPT-4o-mini", InputPrice: 0.15, OutputPrice: 0.60},
	}
}

// Table maps a lowercase model name (no provider prefix) to its pricing.
type Table map[string]ModelPricing

// Lookup resolves a model name to its pricing. The provider prefix
// ("azure/gpt-4o") is stripped and the name lowercased; unknown models fall
// back to the cheapest known tier so cost estimates stay conservative
// rather than failing.
func (t Table) Lookup(model string) ModelPricing {
	key := strings.ToLower(model)
	if i := strings.IndexByte(key, '/'); i >= 0 {
		key = key[i+1:]
	}
	if p, ok := t[key]; ok {
		return p
	}
	if p, ok := t[fallbackModel]; ok {
		return p
	}
	return DefaultTable()[fallbackModel]
}

// LoadTable reads pricing overrides from a YAML file and merges them over
// the defaults.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing file: %w", err)
	}
	var overrides map[string]ModelPricing
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing pricing file %s: %w", path, err)
	}

	table := DefaultTable()
	for name, p := range overrides {
		table[strings.ToLower(name)] = p
	}
	return table, nil
}

// TokenEstimate is the expected per-call token footprint of a use case.
type TokenEstimate struct {
	Input  int `yaml:"input"`
	Output int `yaml:"output"`
}

// DefaultTokenEstimates maps known use cases to their measured footprints.
// The "default" entry covers unknown cases.
func DefaultTokenEstimates() map[string]TokenEstimate {
	return map[string]TokenEstimate{
		"Email Urgency":    {Input: 300, Output: 50},
		"CV Extraction":    {Input: 800, Output: 200},
		"Text-to-SQL":      {Input: 400, Output: 150},
		"RAG Optimization": {Input: 600, Output: 300},
		"default":          {Input: 500, Output: 150},
	}
}

// EstimateForCase resolves the token estimate for a use case.
func EstimateForCase(caseName string, estimates map[string]TokenEstimate) TokenEstimate {
	if estimates == nil {
		estimates = DefaultTokenEstimates()
	}
	if e, ok := estimates[caseName]; ok {
		return e
	}
	return estimates["default"]
}

const (
	// FallbackMaxCalls applies when no budget was recorded for a run.
	FallbackMaxCalls = 30
	// FallbackValSize applies when the validation set size is unknown.
	FallbackValSize = 5
)

// DefaultValSizes maps known use cases to their validation set sizes.
func DefaultValSizes() map[string]int {
	return map[string]int{
		"Email Urgency":    10,
		"CV Extraction":    5,
		"Text-to-SQL":      6,
		"RAG Optimization": 4,
	}
}

func valSizeForCase(caseName string) int {
	if n, ok := DefaultValSizes()[caseName]; ok {
		return n
	}
	return FallbackValSize
}

// OptimizationCost breaks down what one optimization run costs.
type OptimizationCost struct {
	TaskCalls       int
	TaskCost        float64
	ReflectionCalls int
	ReflectionCost  float64
	TotalCost       float64

	TaskPricing       ModelPricing
	ReflectionPricing ModelPricing
}

// CalculateOptimizationCost estimates the cost of an optimization run.
// Each metric call evaluates the whole validation set with the task model,
// plus one baseline pass; the reflection model runs roughly every second
// metric call and consumes triple input and double output tokens since it
// analyzes errors and generates variants.
func CalculateOptimizationCost(caseName, taskModel, reflectionModel string, maxCalls, valSize int, table Table) OptimizationCost {
	if maxCalls <= 0 {
		maxCalls = FallbackMaxCalls
	}
	if valSize <= 0 {
		valSize = valSizeForCase(caseName)
	}
	if table == nil {
		table = DefaultTable()
	}
	tokens := EstimateForCase(caseName, nil)

	taskPricing := table.Lookup(taskModel)
	reflectionPricing := table.Lookup(reflectionModel)

	taskCalls := (maxCalls + 1) * valSize
	reflectionCalls := maxCalls / 2

	taskCost := float64(taskCalls) * taskPricing.CostPerCall(tokens.Input, tokens.Output)
	reflectionCost := float64(reflectionCalls) * reflectionPricing.CostPerCall(tokens.Input*3, tokens.Output*2)

	return OptimizationCost{
		TaskCalls:         taskCalls,
		TaskCost:          taskCost,
		ReflectionCalls:   reflectionCalls,
		ReflectionCost:    reflectionCost,
		TotalCost:         taskCost + reflectionCost,
		TaskPricing:       taskPricing,
		ReflectionPricing: reflectionPricing,
	}
}

// ProductionROI compares running production volume on the expensive model
// against the optimized cheap-model setup.
type ProductionROI struct {
	ProductionCalls        int
	CostWithoutOptimized   float64
	CostWithOptimizedTotal float64
	CostWithOptimizedProd  float64
	OptimizationCost       float64
	Savings                float64
	ROIPercentage          float64
	BreakevenCalls         int
}

// promptOverheadTokens accounts for optimized prompts being longer than the
// originals.
const promptOverheadTokens = 500

// CalculateProductionROI projects savings at a production volume. Breakeven
// is the call count where accumulated per-call savings repay the
// optimization; it is 0 when the cheap model is not actually cheaper.
func CalculateProductionROI(caseName string, optimizationCost float64, expensiveModel, cheapModel string, productionCalls int, table Table) ProductionROI {
	if table == nil {
		table = DefaultTable()
	}
	tokens := EstimateForCase(caseName, nil)

	expensive := table.Lookup(expensiveModel)
	cheap := table.Lookup(cheapModel)

	costWithout := float64(productionCalls) * expensive.CostPerCall(tokens.Input, tokens.Output)
	costProd := float64(productionCalls) * cheap.CostPerCall(tokens.Input+promptOverheadTokens, tokens.Output)
	costTotal := costProd + optimizationCost

	savings := costWithout - costTotal
	roi := 0.0
	if optimizationCost > 0 {
		roi = savings / optimizationCost * 100
	}

	diff := expensive.CostPerCall(tokens.Input, tokens.Output) - cheap.CostPerCall(tokens.Input, tokens.Output)
	breakeven := 0
	if diff > 0 {
		breakeven = int(math.Floor(optimizationCost / diff))
	}

	return ProductionROI{
		ProductionCalls:        productionCalls,
		CostWithoutOptimized:   costWithout,
		CostWithOptimizedTotal: costTotal,
		CostWithOptimizedProd:  costProd,
		OptimizationCost:       optimizationCost,
		Savings:                savings,
		ROIPercentage:          roi,
		BreakevenCalls:         breakeven,
	}
}
