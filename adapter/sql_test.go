package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlBatch() []Example {
	return []Example{{
		"question": "¿Cuántos usuarios hay?",
		"extracted": map[string]any{
			"schema":       "users(id, name)",
			"expected_sql": "SELECT COUNT(*) FROM users",
		},
	}}
}

func TestSQLEvaluate(t *testing.T) {
	a, client := newTestAdapter(t, KindSQL, testSettings())
	client.Enqueue("```sql\nselect count(*)   from users;\n```")

	eval, err := a.Evaluate(context.Background(), sqlBatch(), Candidate{"system_prompt": "genera sql"}, false)
	require.NoError(t, err)

	require.Len(t, eval.Scores, 1)
	assert.Equal(t, 1.0, eval.Scores[0], "fences stripped, case and whitespace normalized, semicolon dropped")
	assert.Equal(t, "select count(*)   from users;", eval.Outputs[0]["predicted"])

	require.Len(t, client.Requests, 1)
	assert.Equal(t, 200, client.Requests[0].MaxTokens)
	assert.Equal(t, "Esquema: users(id, name)\nPregunta: ¿Cuántos usuarios hay?", client.Requests[0].Messages[1].Content)
}

func TestSQLEvaluateMismatch(t *testing.T) {
	a, client := newTestAdapter(t, KindSQL, testSettings())
	client.Enqueue("SELECT name FROM users")

	eval, err := a.Evaluate(context.Background(), sqlBatch(), Candidate{"system_prompt": "x"}, true)
	require.NoError(t, err)

	assert.Equal(t, 0.0, eval.Scores[0])
	require.Len(t, eval.Trajectories, 1)
	assert.Equal(t, false, eval.Trajectories[0]["correct"])
}

func TestSQLAllExamplesFailed(t *testing.T) {
	a, client := newTestAdapter(t, KindSQL, testSettings())
	client.EnqueueError(errors.New("timeout"))

	_, err := a.Evaluate(context.Background(), sqlBatch(), Candidate{"system_prompt": "x"}, false)
	assert.ErrorIs(t, err, ErrAllExamplesFailed)
}

func TestSQLReflectiveDataset(t *testing.T) {
	a, client := newTestAdapter(t, KindSQL, testSettings())
	client.Enqueue("SELECT name FROM users")

	eval, err := a.Evaluate(context.Background(), sqlBatch(), Candidate{"system_prompt": "x"}, false)
	require.NoError(t, err)

	ds := a.MakeReflectiveDataset(Candidate{}, eval, []string{"system_prompt"})
	records := ds["system_prompt"]
	require.Len(t, records, 1)

	assert.Equal(t, "¿Cuántos usuarios hay?", records[0].Inputs["question"])
	assert.Equal(t, "SELECT COUNT(*) FROM users", records[0].Inputs["expected_sql"])
	assert.Equal(t, "SELECT name FROM users", records[0].GeneratedOutputs["predicted_sql"])
	assert.Equal(t, "El SQL generado no coincide con el esperado. Sigue el esquema y sintaxis exacta.", records[0].Feedback)
}
