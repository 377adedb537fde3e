package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/promptforge/promptforge/scoring"
)

const extractorMaxTokens = 300

// Extractor evaluates structured field extraction. The model answer is
// parsed as JSON (with a balanced-brace fallback scan for answers wrapped in
// prose) and scored per field: correct/total over case-insensitive trimmed
// values, compared per the configured match mode (exact, normalized, or
// fuzzy with the configured threshold).
type Extractor struct {
	base
}

func (e *Extractor) Evaluate(ctx context.Context, batch []Example, cand Candidate, captureTraces bool) (*EvaluationBatch, error) {
	eval := &EvaluationBatch{}
	if captureTraces {
		eval.Trajectories = []Trajectory{}
	}
	systemPrompt := cand[SystemPromptComponent]
	if instr := e.SchemaInstructions(); instr != "" {
		systemPrompt = systemPrompt + "\n\n" + instr
	}

	for idx, example := range batch {
		userText := stringField(example, "text")
		expected := mapField(example, "extracted")

		raw, err := e.callTask(ctx, systemPrompt, userText, extractorMaxTokens)
		if err != nil {
			e.logger.Warn("example dropped after task call failure",
				"adapter", "extractor", "index", idx, "error", err)
			continue
		}

		extracted := parseFields(raw)

		correct := 0
		comparisons := map[string]any{}
		for name, expectedValue := range expected {
			got, present := extracted[name]
			extractedVal := ""
			if present {
				extractedVal = strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", got)))
			}
			expectedVal := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", expectedValue)))
			fieldCorrect := present && scoring.Compare(
				e.settings.MatchMode, expectedVal, extractedVal, e.settings.FuzzyThreshold)
			if fieldCorrect {
				correct++
			}
			comparisons[name] = map[string]any{
				"expected":  expectedValue,
				"extracted": got,
				"correct":   fieldCorrect,
			}
		}
		score := 0.0
		if len(expected) > 0 {
			score = float64(correct) / float64(len(expected))
		}

		eval.Outputs = append(eval.Outputs, Output{
			"extracted":         extracted,
			"expected":          expected,
			"field_comparisons": comparisons,
			"text":              userText,
		})
		eval.Scores = append(eval.Scores, score)
		if captureTraces {
			eval.Trajectories = append(eval.Trajectories, Trajectory{
				"input":             userText,
				"expected_fields":   expected,
				"extracted_fields":  extracted,
				"field_comparisons": comparisons,
				"system_prompt":     systemPrompt,
				"score":             score,
			})
		}
	}

	if len(eval.Scores) == 0 {
		return nil, fmt.Errorf("%w (%d total)", ErrAllExamplesFailed, len(batch))
	}
	return eval, nil
}

// MakeReflectiveDataset emits one negative record per imperfect example
// listing the mismatched fields, then up to ExtractorMaxPositives perfect
// examples as reinforcement.
func (e *Extractor) MakeReflectiveDataset(cand Candidate, eval *EvaluationBatch, components []string) map[string][]ReflectiveRecord {
	out := emptyReflective(components)
	if !wantsComponent(components, SystemPromptComponent) {
		return out
	}
	sources := reflectionSources(eval)

	for i, data := range sources {
		if i >= len(eval.Scores) || eval.Scores[i] >= 1.0 {
			continue
		}
		comparisons := mapField(data, "field_comparisons")
		var errs []string
		for _, name := range sortedKeys(comparisons) {
			comp, ok := comparisons[name].(map[string]any)
			if !ok || comp["correct"] == true {
				continue
			}
			got := "MISSING"
			if v := comp["extracted"]; v != nil {
				got = fmt.Sprintf("%v", v)
			}
			errs = append(errs, fmt.Sprintf("'%s': exp='%v', got='%s'", name, comp["expected"], got))
		}

		text := stringField(data, "input", "text")
		out[SystemPromptComponent] = append(out[SystemPromptComponent], ReflectiveRecord{
			Inputs: map[string]any{
				"cv_text": e.truncate(text, e.settings.ExtractorTextMaxLen, "extractor"),
			},
			GeneratedOutputs: map[string]any{
				"extracted_fields": anyField(data, "extracted_fields", "extracted"),
			},
			Feedback: fmt.Sprintf("Errores: %s. Revisa el formato JSON y la extracción exacta.", strings.Join(errs, "; ")),
			Type:     NegativeExample,
		})
	}

	if e.settings.ExtractorMaxPositives > 0 {
		added := 0
		for i, data := range sources {
			if added >= e.settings.ExtractorMaxPositives {
				break
			}
			if i >= len(eval.Scores) || eval.Scores[i] != 1.0 {
				continue
			}
			extracted, _ := anyField(data, "extracted_fields", "extracted").(map[string]any)
			expected := mapField(data, "expected_fields", "expected")

			var correctFields []string
			for _, name := range sortedKeys(extracted) {
				if exp, ok := expected[name]; ok && fmt.Sprintf("%v", exp) == fmt.Sprintf("%v", extracted[name]) {
					correctFields = append(correctFields, fmt.Sprintf("'%s': '%v'", name, extracted[name]))
				}
			}

			text := stringField(data, "input", "text")
			out[SystemPromptComponent] = append(out[SystemPromptComponent], ReflectiveRecord{
				Inputs: map[string]any{
					"cv_text": e.truncate(text, e.settings.ExtractorTextMaxLen, "extractor"),
				},
				GeneratedOutputs: map[string]any{"extracted_fields": extracted},
				Feedback: fmt.Sprintf("EJEMPLO EXITOSO: Extracción perfecta. Campos correctos: %s.",
					strings.Join(correctFields, ", ")),
				Type: PositiveExample,
			})
			added++
		}
	}

	negatives, positives := 0, 0
	for _, rec := range out[SystemPromptComponent] {
		switch rec.Type {
		case NegativeExample:
			negatives++
		case PositiveExample:
			positives++
		}
	}
	if negatives > 0 || positives > 0 {
		e.logger.Info("reflective dataset built",
			"adapter", "extractor", "negatives", negatives, "positives", positives)
	}
	return out
}

// SchemaInstructions renders a JSON Schema for the required extraction
// fields, appended to the task instructions so the model knows the exact
// output shape.
func (e *Extractor) SchemaInstructions() string {
	if len(e.settings.RequiredFields) == 0 {
		return ""
	}
	props := orderedmap.New[string, *jsonschema.Schema]()
	for _, field := range e.settings.RequiredFields {
		props.Set(field, &jsonschema.Schema{Type: "string"})
	}
	schema := &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             append([]string(nil), e.settings.RequiredFields...),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return "Responde únicamente con un objeto JSON que cumpla este esquema:\n" + string(data)
}

// parseFields decodes the model answer as a JSON object, falling back to a
// balanced-brace scan when the object is embedded in surrounding prose.
func parseFields(text string) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err == nil {
		return fields
	}
	return extractJSONObject(text)
}

func extractJSONObject(text string) map[string]any {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return map[string]any{}
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var fields map[string]any
				if err := json.Unmarshal([]byte(text[start:i+1]), &fields); err == nil {
					return fields
				}
			}
		}
	}
	return map[string]any{}
}

func mapField(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return map[string]any{}
}

func anyField(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
