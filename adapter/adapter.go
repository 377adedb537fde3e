// Package adapter implements the evaluation and reflective-feedback
// subsystem: four task adapters (classifier, extractor, sql, rag) sharing
// one contract consumed by the external optimizer.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// Example is one task instance: a free-form field mapping holding the input
// text/question/context plus the expected outputs. Treated as immutable.
type Example map[string]any

// Candidate is the prompt proposal under evaluation, minimally
// {"system_prompt": ...}. Adapters read it, never mutate it.
type Candidate map[string]string

// SystemPromptComponent is the candidate component every adapter evaluates.
const SystemPromptComponent = "system_prompt"

// Output is one per-example result record. Its shape is adapter-specific.
type Output map[string]any

// Trajectory is a richer per-example trace, captured only on request and
// preferred over Output when building the reflective dataset.
type Trajectory map[string]any

// EvaluationBatch is the contract returned by Evaluate. Scores and Outputs
// are parallel; Trajectories is nil unless capture was requested, and
// parallel to the others when present.
type EvaluationBatch struct {
	Outputs      []Output
	Scores       []float64
	Trajectories []Trajectory
}

// ReflectiveRecord is one structured feedback record for the optimizer's
// reflection step.
type ReflectiveRecord struct {
	Inputs           map[string]any `json:"Inputs"`
	GeneratedOutputs map[string]any `json:"Generated Outputs"`
	GroundTruth      string         `json:"Ideal Output (Ground Truth),omitempty"`
	Feedback         string         `json:"Feedback,omitempty"`
	JudgeFeedback    string         `json:"Feedback (del Juez),omitempty"`
	Type             string         `json:"Type,omitempty"`
}

// Record type tags for reinforcement-aware reflection.
const (
	PositiveExample = "positive_example"
	NegativeExample = "negative_example"
)

// ErrAllExamplesFailed signals that every example in a batch failed
// technically. Returning an empty successful batch instead would let the
// optimizer mistake a broken connection for a perfect or zero score.
var ErrAllExamplesFailed = errors.New("all examples in batch failed")

// Adapter is the two-method capability the external optimizer consumes.
type Adapter interface {
	// Evaluate runs the candidate over the batch and scores each example.
	Evaluate(ctx context.Context, batch []Example, cand Candidate, captureTraces bool) (*EvaluationBatch, error)

	// MakeReflectiveDataset converts an evaluation batch into feedback
	// records keyed by the candidate component they should improve.
	MakeReflectiveDataset(cand Candidate, eval *EvaluationBatch, components []string) map[string][]ReflectiveRecord
}

// Kind tags one of the closed set of adapter variants.
type Kind string

const (
	KindClassifier Kind = config.KindClassifier
	KindExtractor  Kind = config.KindExtractor
	KindSQL        Kind = config.KindSQL
	KindRAG        Kind = config.KindRAG
)

// New builds the adapter variant for the given kind. The variant set is
// closed; unknown kinds are a configuration bug caught at startup.
func New(kind Kind, settings config.AdapterSettings, caller *llm.Caller, logger utils.Logger) (Adapter, error) {
	if logger == nil {
		logger = utils.NewLogger(utils.LogLevelWarn)
	}
	base := base{settings: settings, caller: caller, logger: logger}
	switch kind {
	case KindClassifier:
		return &Classifier{base: base}, nil
	case KindExtractor:
		return &Extractor{base: base}, nil
	case KindSQL:
		return &SQL{base: base}, nil
	case KindRAG:
		return &RAG{base: base, sanitizer: DefaultSanitizer()}, nil
	default:
		return nil, fmt.Errorf("unknown adapter kind: %q", kind)
	}
}

// base carries what every adapter variant needs.
type base struct {
	settings config.AdapterSettings
	caller   *llm.Caller
	logger   utils.Logger
}

// callTask performs one task-model completion with the candidate system
// prompt. No retry: task-call failures are per-example technical failures
// handled by each adapter's failure policy.
func (b *base) callTask(ctx context.Context, systemPrompt, userContent string, maxTokens int) (string, error) {
	req := llm.ChatRequest{
		Model:       b.settings.TaskModel,
		Temperature: b.settings.Temperature,
		MaxTokens:   maxTokens,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
	}
	text, blocked, err := b.caller.Call(ctx, req, 1)
	if err != nil {
		return "", err
	}
	if blocked {
		return "", llm.NewError(llm.ErrorKindModeration, "task call blocked by content filter", nil)
	}
	return text, nil
}

// truncate caps a text field at maxLen runes, marking the cut with an
// ellipsis suffix. Cutting on a rune boundary keeps the output valid UTF-8
// for the reflection model.
func (b *base) truncate(text string, maxLen int, who string) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	b.logger.Info("text truncated for reflection",
		"adapter", who, "from", len(runes), "to", maxLen)
	return string(runes[:maxLen]) + "..."
}

// reflectionSources returns the per-example records to mine for feedback:
// trajectories when captured, outputs otherwise.
func reflectionSources(eval *EvaluationBatch) []map[string]any {
	if eval.Trajectories != nil {
		out := make([]map[string]any, len(eval.Trajectories))
		for i, t := range eval.Trajectories {
			out[i] = t
		}
		return out
	}
	out := make([]map[string]any, len(eval.Outputs))
	for i, o := range eval.Outputs {
		out[i] = o
	}
	return out
}

// emptyReflective pre-fills an empty record list per requested component.
func emptyReflective(components []string) map[string][]ReflectiveRecord {
	out := make(map[string][]ReflectiveRecord, len(components))
	for _, c := range components {
		out[c] = []ReflectiveRecord{}
	}
	return out
}

func wantsComponent(components []string, name string) bool {
	for _, c := range components {
		if c == name {
			return true
		}
	}
	return false
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
