package pricing

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncodingModel is used when a model has no registered tokenizer
// (provider-prefixed or fine-tuned names).
const fallbackEncodingModel = "gpt-4o"

// encodingForModel is swapped in tests; tiktoken fetches BPE ranks on first
// use, which tests must not depend on.
var encodingForModel = tiktoken.EncodingForModel

// EncodingModelName strips the provider prefix so provider-qualified
// deployments resolve the same tokenizer as the bare model name
// ("azure/gpt-4o" and "gpt-4o" tokenize identically).
func EncodingModelName(model string) string {
	if i := strings.IndexByte(model, '/'); i >= 0 {
		return model[i+1:]
	}
	return model
}

// TokenEstimator counts real tokens from prompt text, replacing the static
// per-case estimates when the actual prompts are available.
type TokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTokenEstimator builds an estimator for the given model, falling back
// to the gpt-4o encoding for unknown names.
func NewTokenEstimator(model string) (*TokenEstimator, error) {
	enc, err := encodingForModel(EncodingModelName(model))
	if err != nil {
		enc, err = encodingForModel(fallbackEncodingModel)
		if err != nil {
			return nil, err
		}
	}
	return &TokenEstimator{enc: enc}, nil
}

// Count returns the token count of a text.
func (e *TokenEstimator) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// EstimateCall measures a full prompt/completion pair.
func (e *TokenEstimator) EstimateCall(prompt, completion string) TokenEstimate {
	return TokenEstimate{
		Input:  e.Count(prompt),
		Output: e.Count(completion),
	}
}

// MeasurePrompt refines the static per-case estimate with the measured
// token count of the actual prompt text.
func (e *TokenEstimator) MeasurePrompt(caseName, prompt string) TokenEstimate {
	est := EstimateForCase(caseName, nil)
	est.Input = e.Count(prompt)
	return est
}
