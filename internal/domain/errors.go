package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found in this conversation")
	ErrConflict             = errors.New("conversation was modified concurrently")
)

// ValidationError reports malformed input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GatewayError reports a failed or unparseable generation call
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("generation gateway %s: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StoreError reports a persistence layer failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PersistenceAfterGenerationError is returned when the gateway produced a
// reply that could not be recorded. Reply holds the generated text.
type PersistenceAfterGenerationError struct {
	Reply string
	Err   error
}

func (e *PersistenceAfterGenerationError) Error() string {
	return fmt.Sprintf("reply generated but not persisted: %v", e.Err)
}

func (e *PersistenceAfterGenerationError) Unwrap() error {
	return e.Err
}
