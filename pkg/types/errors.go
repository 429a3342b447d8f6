// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter is returned when a FilterSpec fails validation. It is
	// the only error RunSearch reports for recoverable input.
	ErrInvalidFilter = errors.New("invalid filter specification")

	// ErrEmbeddingUnavailable indicates that no embedding provider is
	// configured (for example, a missing API key).
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrDimensionMismatch is returned when vectors of different lengths are
	// added to or queried against the same index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers test for ErrInvalidFilter with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrInvalidFilter }
