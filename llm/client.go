// Package llm defines the chat-completion transport contract consumed by the
// task adapters, together with error classification and the retry wrapper
// around a single completion call.
package llm

import "context"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one chat-completion call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatResponse carries the text returned by the provider.
type ChatResponse struct {
	Content string
}

// Client is the opaque transport capability. Implementations are expected to
// return *Error with the Kind set whenever they can classify the failure;
// callers fall back to Classify for providers that surface plain errors.
type Client interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
