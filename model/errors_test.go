package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	single := NewValidationError("Game is unrated, all games must be rated.")
	if single.Error() != "Game is unrated, all games must be rated." {
		t.Errorf("unexpected message: %s", single.Error())
	}

	multi := NewValidationError("first", "second")
	if multi.Error() != "Errors:\n* first\n* second" {
		t.Errorf("unexpected message: %q", multi.Error())
	}

	wrapped := fmt.Errorf("error joining: %w", multi)
	if !errors.Is(wrapped, ErrValidation) {
		t.Errorf("wrapped validation error should match ErrValidation")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Errorf("validation error should not match ErrNotFound")
	}
}
