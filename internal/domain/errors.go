package domain

import "errors"

var (
	// ErrInvalidInput marks user-supplied values that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a horoscope that does not exist for (sign, date).
	ErrNotFound = errors.New("not found")
)
