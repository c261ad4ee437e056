package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ppiankov/seoforge/internal/heal"
	"github.com/ppiankov/seoforge/internal/llm"
)

var (
	// ErrInvalidRequest marks input that no retry can fix
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrCircuitOpen is returned while a provider's breaker short-circuits calls
	ErrCircuitOpen = errors.New("circuit open")

	// ErrInsufficientContent marks drafts under the word-count gate
	ErrInsufficientContent = errors.New("insufficient content")
)

// ErrorClass groups failures by how the retry loop treats them
type ErrorClass string

const (
	ClassTransient   ErrorClass = "transient"
	ClassParse       ErrorClass = "parse"
	ClassValidation  ErrorClass = "validation"
	ClassPermanent   ErrorClass = "permanent"
	ClassCircuitOpen ErrorClass = "circuit_open"
)

// Classify maps an attempt error to its class
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return ClassPermanent
	case errors.Is(err, ErrCircuitOpen):
		return ClassCircuitOpen
	case errors.Is(err, heal.ErrUnhealable):
		return ClassParse
	case errors.Is(err, ErrInsufficientContent):
		return ClassValidation
	case llm.IsTransient(err), errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	}

	// Remaining client errors (400, 403, 404) will not change on retry.
	// 408 is the server giving up on a slow request, so it is retried.
	code := llm.StatusCode(err)
	if code >= 400 && code < 500 && code != http.StatusRequestTimeout {
		return ClassPermanent
	}
	return ClassTransient
}

// AttemptsExhaustedError is the terminal failure of Generate
type AttemptsExhaustedError struct {
	Attempts int
	Last     error
	Class    ErrorClass
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s) [%s]: %v", e.Attempts, e.Class, e.Last)
}

func (e *AttemptsExhaustedError) Unwrap() error {
	return e.Last
}
