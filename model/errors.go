package model

import (
	"errors"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// ValidationError holds one or more human readable reasons an operation was rejected.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return ErrValidation.Error()
	case 1:
		return e.Problems[0]
	}

	var sb strings.Builder
	sb.WriteString("Errors:")
	for _, p := range e.Problems {
		sb.WriteString("\n* ")
		sb.WriteString(p)
	}
	return sb.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
