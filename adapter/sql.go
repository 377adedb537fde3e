package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/scoring"
)

const sqlMaxTokens = 200

// SQL evaluates text-to-SQL candidates. The generated query is stripped of
// code fences and compared against the expected query under whitespace and
// case normalization.
type SQL struct {
	base
}

func (s *SQL) Evaluate(ctx context.Context, batch []Example, cand Candidate, captureTraces bool) (*EvaluationBatch, error) {
	eval := &EvaluationBatch{}
	if captureTraces {
		eval.Trajectories = []Trajectory{}
	}
	systemPrompt := cand[SystemPromptComponent]

	for idx, example := range batch {
		question := stringField(example, "question")
		extracted := mapField(example, "extracted")
		schema := stringField(extracted, "schema")
		expectedSQL := stringField(extracted, "expected_sql")

		userContent := fmt.Sprintf("Esquema: %s\nPregunta: %s", schema, question)

		raw, err := s.callTask(ctx, systemPrompt, userContent, sqlMaxTokens)
		if err != nil {
			s.logger.Warn("example dropped after task call failure",
				"adapter", "sql", "index", idx, "error", err)
			continue
		}
		predictedSQL := strings.TrimSpace(scoring.StripCodeFences(raw))

		correct := scoring.CompareSQL(predictedSQL, expectedSQL)
		score := 0.0
		if correct {
			score = 1.0
		}

		eval.Outputs = append(eval.Outputs, Output{
			"predicted": predictedSQL,
			"expected":  expectedSQL,
			"question":  question,
		})
		eval.Scores = append(eval.Scores, score)
		if captureTraces {
			eval.Trajectories = append(eval.Trajectories, Trajectory{
				"input":     userContent,
				"expected":  expectedSQL,
				"predicted": predictedSQL,
				"correct":   correct,
			})
		}
	}

	if len(eval.Scores) == 0 {
		return nil, fmt.Errorf("%w (%d total)", ErrAllExamplesFailed, len(batch))
	}
	return eval, nil
}

func (s *SQL) MakeReflectiveDataset(cand Candidate, eval *EvaluationBatch, components []string) map[string][]ReflectiveRecord {
	out := emptyReflective(components)
	if !wantsComponent(components, SystemPromptComponent) {
		return out
	}

	for i, data := range reflectionSources(eval) {
		if i >= len(eval.Scores) || eval.Scores[i] >= 1.0 {
			continue
		}
		out[SystemPromptComponent] = append(out[SystemPromptComponent], ReflectiveRecord{
			Inputs: map[string]any{
				"question":     stringField(data, "question"),
				"expected_sql": stringField(data, "expected"),
			},
			GeneratedOutputs: map[string]any{"predicted_sql": stringField(data, "predicted")},
			Feedback:         "El SQL generado no coincide con el esperado. Sigue el esquema y sintaxis exacta.",
		})
	}
	return out
}
