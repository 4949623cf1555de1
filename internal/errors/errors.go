package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Domain error taxonomy. Services return these (possibly wrapped with
// detail); handlers translate them with HTTPStatus and never inspect
// errors themselves.
var (
	// ErrNotFound marks lookups for users, matches or channels that do not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidArgument marks rejected input (self-swipe, malformed ids).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyDecided marks a repeat swipe on a pair that already has a
	// committed decision. Terminal for the caller, harmless to the user.
	ErrAlreadyDecided = errors.New("decision already recorded")

	// ErrAlreadyExists marks unique-constraint collisions on signup.
	ErrAlreadyExists = errors.New("record already exists")
)

// InvalidArgument wraps ErrInvalidArgument with a human-readable reason.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// NotFound wraps ErrNotFound with the entity that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Map normalizes repo/infra errors into the domain taxonomy.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists

	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("request timed out: %w", err)

	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request was canceled: %w", err)

	default:
		return err
	}
}

// HTTPStatus resolves a domain error to the response code handlers should
// send. Anything outside the taxonomy is treated as transient and retryable
// from the top.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
