package port

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for precondition failures. These surface as client errors
// at the HTTP boundary.
var (
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrModuleNotFound = errors.New("module not found in extracted content")
	ErrNoContent      = errors.New("quiz has no extracted content")
	ErrNoQuestions    = errors.New("no questions found for module")
)

// IsValidation reports whether err is a precondition failure whose message is
// safe to return to the client as-is.
func IsValidation(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrNoContent) ||
		errors.Is(err, ErrNoQuestions)
}

// EmbeddingErrorKind classifies embedding provider failures.
type EmbeddingErrorKind string

const (
	EmbeddingAuth          EmbeddingErrorKind = "auth"
	EmbeddingRateLimit     EmbeddingErrorKind = "rate_limit"
	EmbeddingModelNotFound EmbeddingErrorKind = "model_not_found"
	EmbeddingTransient     EmbeddingErrorKind = "transient"
	EmbeddingOther         EmbeddingErrorKind = "other"
)

// EmbeddingError wraps a provider failure with enough classification for the
// caller to decide whether a retry makes sense. This subsystem never retries
// internally.
type EmbeddingError struct {
	Kind       EmbeddingErrorKind
	RetryAfter time.Duration // best-effort hint, 0 when the provider gave none
	Err        error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Kind, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may reasonably retry the request.
func (e *EmbeddingError) Retryable() bool {
	return e.Kind == EmbeddingRateLimit || e.Kind == EmbeddingTransient
}
