package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no API key is set. Callers with a
// deterministic fallback (recommender, duration prediction) treat this as a
// signal to skip the provider entirely.
var ErrNotConfigured = errors.New("ai provider not configured")

// ErrIncompleteResponse is returned when a response could not be parsed even
// after repair. Callers must surface this as "rephrase or ask for fewer
// tasks", not as a generic failure, and must not retry automatically.
var ErrIncompleteResponse = errors.New("ai response was incomplete or invalid")

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindOverloaded  ErrorKind = "overloaded"   // HTTP 503
	KindRateLimited ErrorKind = "rate_limited" // HTTP 429
	KindTimeout     ErrorKind = "timeout"      // per-attempt deadline hit
	KindOther       ErrorKind = "other"        // anything else; never retried
)

// ProviderError is a classified failure from the generative-AI endpoint.
type ProviderError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 if the request never completed
	Message string // provider-supplied message, if any
	err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.err != nil {
		return fmt.Sprintf("provider %s: %v", e.Kind, e.err)
	}
	return fmt.Sprintf("provider %s", e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.err
}

// Transient reports whether the failure is worth retrying.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case KindOverloaded, KindRateLimited, KindTimeout:
		return true
	}
	return false
}

// UserMessage returns the user-facing explanation for this failure.
func (e *ProviderError) UserMessage() string {
	switch e.Kind {
	case KindOverloaded:
		return "The AI service is currently experiencing high traffic. Please wait a few moments and try again."
	case KindRateLimited:
		return "Rate limit reached. Please wait 30 seconds before trying again."
	case KindTimeout:
		return "The AI service took too long to respond. Please try again."
	default:
		if e.Message != "" {
			return e.Message
		}
		return "Failed to process AI request. Please try again."
	}
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient()
}
