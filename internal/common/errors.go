package common

import (
	"context"
	"errors"
	"fmt"
	"net"

	"gorm.io/gorm"
)

// Kind buckets a failure into the categories the UI and the retry
// policy care about.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindServer     Kind = "server"
)

// AppError is the classified error wrapper handed to callers. Every error
// surfaced by the workflow layer is one of these; raw errors stay reachable
// through Unwrap.
type AppError struct {
	Kind      Kind
	Message   string
	Retryable bool
	Attempts  int
	Cause     error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for failures raised before any network call.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBusy         = errors.New("another generation is already running")
)

func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Kind:      kind,
		Message:   message,
		Retryable: kind == KindNetwork || kind == KindTimeout,
		Cause:     cause,
	}
}

// Classify maps a raw failure onto the error taxonomy. Already-classified
// errors pass through untouched so attempt counts survive rewrapping.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewAppError(KindTimeout, "tidsfristen blev overskredet", err)
	case errors.Is(err, context.Canceled):
		return NewAppError(KindServer, "handlingen blev afbrudt", err)
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(KindValidation, "ugyldige data", err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(KindAuth, "du er ikke logget ind", err)
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return NewAppError(KindServer, "ressourcen blev ikke fundet", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewAppError(KindTimeout, "netværkskaldet fik timeout", err)
		}
		return NewAppError(KindNetwork, "netværksfejl - tjek din forbindelse", err)
	}

	return NewAppError(KindServer, "der opstod en uventet fejl", err)
}

// IsRetryable is the default retry predicate: network and timeout failures
// are worth another attempt, everything else is not.
func IsRetryable(err error) bool {
	c := Classify(err)
	return c != nil && c.Retryable
}
