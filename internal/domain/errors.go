package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches any ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden matches any AuthorizationError.
	ErrForbidden = errors.New("not allowed to edit course")
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrPersistence matches any PersistenceError.
	ErrPersistence = errors.New("storage operation failed")
	// ErrQuizCompleted is returned when answering a quiz that is already finished.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrQuestionOutOfOrder is returned when a question is answered twice or ahead of its turn.
	ErrQuestionOutOfOrder = errors.New("question answered out of order")
	// ErrNotQuizLecture is returned when quiz actions target a non-quiz lecture.
	ErrNotQuizLecture = errors.New("lecture is not a quiz")
	// ErrInvalidAnswer is returned when an answer index does not reference an option.
	ErrInvalidAnswer = errors.New("answer index out of range")
	// ErrUnauthenticated is returned when no user could be resolved for a request.
	ErrUnauthenticated = errors.New("authentication required")
)

// Problem is a single field-level validation failure.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in one validation pass.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Add(path, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when no problems were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Path+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthorizationError is returned when a user edits a course they do not own.
type AuthorizationError struct {
	UserID   string
	CourseID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %q may not edit course %q", e.UserID, e.CourseID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// NotFoundError names the entity that could not be resolved.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a PersistenceError unless it already carries a
// domain classification.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
