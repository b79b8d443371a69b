package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/fpstore/internal/pool"
	"github.com/himanishpuri/fpstore/pkg/models"
	"gorm.io/gorm"
)

var (
	// ErrConnection is returned when a connection cannot be opened or probed.
	ErrConnection = errors.New("connection failure")

	// ErrTransient is returned when a statement or commit fails inside a
	// session. The session has been rolled back.
	ErrTransient = errors.New("transient store error")

	// ErrCapacity is returned when a statement would exceed the backing
	// store's bound-parameter limit, or the configured batch size is invalid.
	ErrCapacity = errors.New("capacity exceeded")

	// ErrNotFound is returned when a song does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")

	// ErrInvalidConfig is returned when Options fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNilClient keeps calls on a nil *DBClient from panicking.
	ErrNilClient = errors.New("db client is nil")

	ErrInvalidHash = models.ErrInvalidHash
)

// StoreError wraps errors with operation context
type StoreError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("storage: %v", e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError classifies err and attaches the operation name. Errors that are
// already StoreErrors pass through unchanged.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: classify(err)}
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrConnection),
		errors.Is(err, ErrTransient),
		errors.Is(err, ErrCapacity),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrClosed),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrNilClient),
		errors.Is(err, ErrInvalidHash),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pool.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, pool.ErrDial):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isTooManyVariables(err):
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: song: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
}

func isTooManyVariables(err error) bool {
	return strings.Contains(err.Error(), "too many SQL variables")
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
