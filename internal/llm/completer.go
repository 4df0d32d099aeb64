// Package llm defines the text-completion interface consumed by the
// pipeline stages and helpers for working with model output.
package llm

import (
	"context"
	"errors"
)

// Predefined errors for completion calls.
var (
	// ErrUnavailable is returned when the completion backend cannot be reached.
	ErrUnavailable = errors.New("completion service unavailable")

	// ErrEmptyResponse is returned when the backend replied with no content.
	ErrEmptyResponse = errors.New("empty completion response")
)

// Request describes a single completion call.
type Request struct {
	// System is the instruction template for the call site.
	System string

	// User is the user-facing content (query text, context, etc.).
	User string

	// MaxTokens caps the response length (0 uses the backend default).
	MaxTokens int

	// Temperature controls sampling (0 for deterministic call sites).
	Temperature float32

	// JSONOnly asks the backend for a JSON-constrained response where the
	// backend supports it. Callers must still tolerate malformed output.
	JSONOnly bool
}

// Completer executes a single text-completion call.
// Implementations must honor context cancellation and deadlines.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
