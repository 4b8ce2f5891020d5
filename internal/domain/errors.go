package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTopic           = errors.New("topic is required")
	ErrPersonaNotFound      = errors.New("persona not found")
	ErrInstanceNotFound     = errors.New("instance not found")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrSecretNotFound       = errors.New("secret not found")

	// ErrBatchInterrupted means another action took the engine between two
	// turns of a start-conversation batch; later instances were not asked.
	ErrBatchInterrupted = errors.New("conversation batch interrupted")
)

// ServiceError is a non-success answer from the generation service.
// Message carries the response body as the server sent it.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("generation service error: %s", e.Message)
	}
	return fmt.Sprintf("generation service error (status %d): %s", e.StatusCode, e.Message)
}

// TransportError means the generation service could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InstanceError attributes a generation failure to the instance whose turn failed.
type InstanceError struct {
	InstanceID InstanceID
	Persona    string
	Err        error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %d (%s): %v", e.InstanceID, e.Persona, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}
