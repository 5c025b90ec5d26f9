// Package apperrors defines the failure kinds core operations return.
// Store-level errors are translated into these at the service boundary and
// never escape to the handler layer untyped.
package apperrors

import "errors"

var (
	// ErrConflict is returned for uniqueness violations (username, email).
	ErrConflict = errors.New("resource already exists")

	// ErrUnauthorized is returned when the caller is anonymous or not the
	// owner of the resource being mutated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails structural constraints.
	ErrValidation = errors.New("invalid input")

	// ErrSelfLike is returned when a user tries to like their own message.
	ErrSelfLike = errors.New("cannot like your own message")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrNoMatch is the uniform authentication failure. Unknown username and
	// wrong password are deliberately indistinguishable to the caller.
	ErrNoMatch = errors.New("invalid username or password")
)
