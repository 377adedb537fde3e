package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindModeration
	ErrorKindAuth
	ErrorKindRateLimited
	ErrorKindNotFound
)

// Error represents a classified transport error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.KindString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.KindString(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) KindString() string {
	switch e.Kind {
	case ErrorKindModeration:
		return "ModerationError"
	case ErrorKindAuth:
		return "AuthenticationError"
	case ErrorKindRateLimited:
		return "RateLimitError"
	case ErrorKindNotFound:
		return "NotFoundError"
	default:
		return "UnknownError"
	}
}

// NewError creates a classified transport error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Classify determines the kind of a transport failure. Errors already typed
// as *Error keep their kind; anything else is classified by substring
// matching on the provider's message, which is the only signal some
// providers expose.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	var typed *Error
	if errors.As(err, &typed) && typed.Kind != ErrorKindUnknown {
		return typed.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "content_filter") || strings.Contains(msg, "jailbreak"):
		return ErrorKindModeration
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return ErrorKindAuth
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return ErrorKindRateLimited
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return ErrorKindNotFound
	default:
		return ErrorKindUnknown
	}
}
