package store

import "errors"

var (
	// ErrNotFound is returned when the target of an operation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyActive is returned when restoring a goal that is active.
	ErrAlreadyActive = errors.New("goal already active")

	// ErrCapacityExceeded is returned when an add or restore would push the
	// active goal count past the maximum.
	ErrCapacityExceeded = errors.New("maximum number of active goals reached")

	// ErrInvariantViolation is returned when stored order-number state is
	// inconsistent, e.g. an active goal carrying order number zero.
	ErrInvariantViolation = errors.New("order number invariant violated")

	// ErrConflict is returned on unique-constraint races, e.g. two callers
	// creating the outcome for the same day. Safe to retry.
	ErrConflict = errors.New("conflicting concurrent write")
)
