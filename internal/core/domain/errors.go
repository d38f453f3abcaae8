package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks file-level failures; never retried.
	ErrValidation = errors.New("document validation failed")
	// ErrProcessing marks extraction-call failures; retried within the
	// same bounded loop as low-confidence results.
	ErrProcessing = errors.New("extraction processing failed")
	// ErrNotFound marks missing submissions or results.
	ErrNotFound = errors.New("not found")
	// ErrReviewTimeout marks an expired human-review wait; terminal.
	ErrReviewTimeout = errors.New("human review timed out")
	// ErrReviewRejected marks an explicit reviewer rejection; terminal.
	ErrReviewRejected = errors.New("human review rejected")
	// ErrTemporary marks transient infrastructure failures.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
