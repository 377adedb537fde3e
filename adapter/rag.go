package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/promptforge/promptforge/llm"
)

const (
	ragGenerationMaxTokens = 400
	ragJudgeMaxTokens      = 200
)

const blockedOutput = "Content filter blocked request"

// judgeSystemPrompt asks the judge model for a five-point score plus a
// reasoned verdict in a fixed PUNTAJE/RAZON format.
const judgeSystemPrompt = `Eres un evaluador experto de sistemas RAG en español.

CRITERIOS DE EVALUACIÓN:
1. PRECISIÓN FACTUAL: ¿Los hechos son correctos según el contexto?
2. COMPLETITUD: ¿Incluye detalles críticos (números, condiciones, excepciones)?
3. ALUCINACIÓN: ¿Inventa información no presente en el contexto?
4. RELEVANCIA: ¿Responde exactamente lo preguntado?

ESCALA:
1.0 = Perfecta: todos los detalles críticos, sin alucinaciones
0.75 = Buena: correcta pero omite detalle menor
0.5 = Parcial: correcta en esencial pero falta info clave
0.25 = Pobre: mayormente incorrecta o alucinaciones
0.0 = Fallida: completamente incorrecta o no responde

INSTRUCCIONES:
- Ignora diferencias menores de redacción
- Penaliza fuertemente alucinaciones
- Números y límites son CRÍTICOS
- Si contexto no tiene info, debe admitir desconocimiento

Formato:
PUNTAJE: [0.0, 0.25, 0.5, 0.75, 1.0]
RAZON: [Explicación detallada]`

// RAG evaluates retrieval-augmented answer generation. Retrieval is
// simulated by reading the context directly from the example; answer quality
// is judged by a stronger model. Unlike the other adapters, failed examples
// are scored 0.0 and kept so a flaky filter cannot shrink the batch.
type RAG struct {
	base
	sanitizer *Sanitizer
}

func (r *RAG) Evaluate(ctx context.Context, batch []Example, cand Candidate, captureTraces bool) (*EvaluationBatch, error) {
	eval := &EvaluationBatch{}
	if captureTraces {
		eval.Trajectories = []Trajectory{}
	}
	systemPrompt := cand[SystemPromptComponent]

	for idx, example := range batch {
		question := stringField(example, "question")
		contextText := stringField(example, "context")
		groundTruth := stringField(example, "answer")

		userContent := fmt.Sprintf("Contexto:\n%s\n\nPregunta:\n%s", contextText, question)

		req := llm.ChatRequest{
			Model:       r.settings.TaskModel,
			Temperature: r.settings.Temperature,
			MaxTokens:   ragGenerationMaxTokens,
			Messages: []llm.Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userContent},
			},
		}
		text, blocked, err := r.caller.Call(ctx, req, llm.DefaultMaxRetries)
		if err != nil {
			r.logger.Warn("example failed", "adapter", "rag", "index", idx, "error", err)
			eval.Outputs = append(eval.Outputs, Output{"error": err.Error()})
			eval.Scores = append(eval.Scores, 0.0)
			if captureTraces {
				eval.Trajectories = append(eval.Trajectories, Trajectory{"error": err.Error()})
			}
			continue
		}
		if blocked {
			eval.Outputs = append(eval.Outputs, Output{"error": blockedOutput})
			eval.Scores = append(eval.Scores, 0.0)
			if captureTraces {
				eval.Trajectories = append(eval.Trajectories, Trajectory{"error": blockedOutput})
			}
			continue
		}
		generated := strings.TrimSpace(text)

		score, feedback := r.judge(ctx, question, groundTruth, generated)

		eval.Outputs = append(eval.Outputs, Output{
			"generated_answer": generated,
			"ground_truth":     groundTruth,
			"judge_feedback":   feedback,
		})
		eval.Scores = append(eval.Scores, score)
		if captureTraces {
			eval.Trajectories = append(eval.Trajectories, Trajectory{
				"question":         question,
				"context":          contextText,
				"ground_truth":     groundTruth,
				"generated_answer": generated,
				"score":            score,
				"judge_feedback":   feedback,
				"system_prompt":    systemPrompt,
			})
		}
	}

	return eval, nil
}

// judge scores a generated answer against the ground truth with the judge
// model and returns (score, textual feedback). Judge failures never abort
// the batch.
func (r *RAG) judge(ctx context.Context, question, groundTruth, generated string) (float64, string) {
	userContent := fmt.Sprintf("Pregunta: %s\nRespuesta Ideal: %s\nRespuesta Generada: %s",
		question, groundTruth, generated)

	req := llm.ChatRequest{
		Model:       r.settings.JudgeModel,
		Temperature: r.settings.Temperature,
		MaxTokens:   ragJudgeMaxTokens,
		Messages: []llm.Message{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: userContent},
		},
	}
	text, blocked, err := r.caller.Call(ctx, req, llm.DefaultMaxRetries)
	if err != nil {
		return 0.0, fmt.Sprintf("Error del Juez: %v", err)
	}
	if blocked {
		return 0.0, "Juez bloqueado por content filter"
	}
	return parseJudgeVerdict(strings.TrimSpace(text))
}

// parseJudgeVerdict extracts PUNTAJE/SCORE and RAZON/REASON lines from a
// judge answer. A malformed verdict scores 0.0 with the raw text as
// feedback.
func parseJudgeVerdict(content string) (float64, string) {
	score := 0.0
	reason := content

	for _, line := range strings.Split(content, "\n") {
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "PUNTAJE:") || strings.HasPrefix(upper, "SCORE:") {
			parts := strings.Split(line, ":")
			if len(parts) > 1 {
				if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
					score = v
				}
			}
		}
		if strings.HasPrefix(upper, "RAZON:") || strings.HasPrefix(upper, "REASON:") {
			if _, rest, ok := strings.Cut(line, ":"); ok {
				reason = strings.TrimSpace(rest)
			}
		}
	}
	return score, reason
}

// MakeReflectiveDataset emits a sanitized record per imperfect example plus
// up to RAGMaxPositives perfect examples. All fields pass through the
// sanitizer before they can reach the reflection model.
func (r *RAG) MakeReflectiveDataset(cand Candidate, eval *EvaluationBatch, components []string) map[string][]ReflectiveRecord {
	out := emptyReflective(components)
	if !wantsComponent(components, SystemPromptComponent) {
		return out
	}
	sources := reflectionSources(eval)

	for i, data := range sources {
		if i >= len(eval.Scores) || eval.Scores[i] >= 1.0 {
			continue
		}
		out[SystemPromptComponent] = append(out[SystemPromptComponent],
			r.reflectiveRecord(data, "Respuesta incorrecta.", NegativeExample, ""))
	}

	if r.settings.RAGMaxPositives > 0 {
		added := 0
		for i, data := range sources {
			if added >= r.settings.RAGMaxPositives {
				break
			}
			if i >= len(eval.Scores) || eval.Scores[i] != 1.0 {
				continue
			}
			out[SystemPromptComponent] = append(out[SystemPromptComponent],
				r.reflectiveRecord(data, "Respuesta perfecta.", PositiveExample, "EJEMPLO EXITOSO: "))
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
		r.logger.Info("reflective dataset built",
			"adapter", "rag", "negatives", negatives, "positives", positives)
	}
	return out
}

func (r *RAG) reflectiveRecord(data map[string]any, defaultFeedback, recordType, feedbackPrefix string) ReflectiveRecord {
	question := stringField(data, "question")
	contextText := stringField(data, "context")
	generated := stringField(data, "generated_answer")
	groundTruth := stringField(data, "ground_truth")
	feedback := stringField(data, "judge_feedback")
	if feedback == "" {
		feedback = defaultFeedback
	}

	truncated := r.truncate(contextText, r.settings.RAGContextMaxLen, "rag")

	return ReflectiveRecord{
		Inputs: map[string]any{
			"pregunta": r.sanitizer.Clean(question),
			"contexto": r.sanitizer.Clean(truncated),
		},
		GeneratedOutputs: map[string]any{
			"respuesta_generada": r.sanitizer.Clean(generated),
		},
		GroundTruth:   r.sanitizer.Clean(groundTruth),
		JudgeFeedback: feedbackPrefix + r.sanitizer.Clean(feedback),
		Type:          recordType,
	}
}
