package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update found the entity
	// in a different state than expected.
	ErrConflict = errors.New("entity state conflict")

	// ErrInsufficientFunds is returned when a wallet debit would drive the
	// balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("entity already exists")
)
