package adapter

import (
	"context"
	"fmt"
	"strings"
)

const classifierMaxTokens = 50

// labelKeys is the lookup order for finding the expected class in an example.
var labelKeys = []string{"urgency", "label", "class", "sentiment"}

// Classifier evaluates single-label classification candidates. The model
// answer is lowercased and compared case-insensitively against the expected
// label.
type Classifier struct {
	base
}

func (c *Classifier) Evaluate(ctx context.Context, batch []Example, cand Candidate, captureTraces bool) (*EvaluationBatch, error) {
	eval := &EvaluationBatch{}
	if captureTraces {
		eval.Trajectories = []Trajectory{}
	}
	systemPrompt := cand[SystemPromptComponent]

	for idx, example := range batch {
		userText := stringField(example, "text")
		expected := stringField(example, labelKey(example))

		raw, err := c.callTask(ctx, systemPrompt, userText, classifierMaxTokens)
		if err != nil {
			c.logger.Warn("example dropped after task call failure",
				"adapter", "classifier", "index", idx, "error", err)
			continue
		}
		predicted := strings.ToLower(raw)
		correct := predicted == strings.ToLower(expected)
		score := 0.0
		if correct {
			score = 1.0
		}

		eval.Outputs = append(eval.Outputs, Output{
			"predicted": predicted,
			"expected":  expected,
			"text":      userText,
		})
		eval.Scores = append(eval.Scores, score)
		if captureTraces {
			eval.Trajectories = append(eval.Trajectories, Trajectory{
				"input":         userText,
				"expected":      expected,
				"predicted":     predicted,
				"system_prompt": systemPrompt,
				"correct":       correct,
			})
		}
	}

	if len(eval.Scores) == 0 {
		return nil, fmt.Errorf("%w (%d total)", ErrAllExamplesFailed, len(batch))
	}
	return eval, nil
}

// MakeReflectiveDataset emits one negative record per imperfect example.
// Long input text is truncated so the reflection prompt stays bounded.
func (c *Classifier) MakeReflectiveDataset(cand Candidate, eval *EvaluationBatch, components []string) map[string][]ReflectiveRecord {
	out := emptyReflective(components)
	if !wantsComponent(components, SystemPromptComponent) {
		return out
	}

	for i, data := range reflectionSources(eval) {
		if i >= len(eval.Scores) || eval.Scores[i] >= 1.0 {
			continue
		}
		text := stringField(data, "input", "text")
		pred := stringField(data, "predicted")
		exp := stringField(data, "expected")

		out[SystemPromptComponent] = append(out[SystemPromptComponent], ReflectiveRecord{
			Inputs: map[string]any{
				"text": c.truncate(text, c.settings.ClassifierTextMaxLen, "classifier"),
			},
			GeneratedOutputs: map[string]any{
				"predicted_class": pred,
				"expected_class":  exp,
			},
			Feedback: fmt.Sprintf("Clasificación incorrecta. Se esperaba '%s' pero se obtuvo '%s'.", exp, pred),
		})
	}
	return out
}

func labelKey(example Example) string {
	for _, key := range labelKeys {
		if _, ok := example[key]; ok {
			return key
		}
	}
	return "label"
}
