package ports

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoChoices is returned when the upstream model answered without any choice.
var ErrNoChoices = errors.New("completion response has no choices")

type ChatMessage struct {
	Role    string
	Content string
}

type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// UpstreamStatusError carries a non-200 upstream answer verbatim.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("completion request failed (status %d): %s", e.StatusCode, e.Body)
}

// UpstreamRequestError means the upstream could not be reached or read.
type UpstreamRequestError struct {
	Err error
}

func (e *UpstreamRequestError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamRequestError) Unwrap() error {
	return e.Err
}

// Completer talks to an upstream chat-completions model for the bundled backend.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
