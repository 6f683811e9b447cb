package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure leaving a service wraps exactly one of these so the
// transport layer can map it to a status code with errors.Is.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated marks bad credentials or a missing/invalid token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks an authenticated caller acting on something it does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks an unavailable or failing backing store.
	ErrStorage = errors.New("storage unavailable")
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	// ErrRoomCodeTaken is returned when a room code is already in use.
	ErrRoomCodeTaken = fmt.Errorf("%w: room with this code already exists", ErrConflict)
	// ErrSequenceTaken is returned when a question sequence number is already used in a room.
	ErrSequenceTaken = fmt.Errorf("%w: sequence number already exists in room", ErrConflict)

	// ErrInvalidCredentials is deliberately identical for unknown users and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)

	// ErrNotRoomCreator is returned when someone other than the creator mutates a room.
	ErrNotRoomCreator = fmt.Errorf("%w: you are not the creator of this room", ErrForbidden)

	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRoomNotFound     = fmt.Errorf("%w: room not found", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("%w: question not found", ErrNotFound)
)

// Invalid wraps a human readable detail as a validation error.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StorageFailure wraps a driver error so it matches ErrStorage while keeping the cause.
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
