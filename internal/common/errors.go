package common

import "errors"

var (
	// ErrStorageUnavailable: the embedded store could not be opened. Callers
	// should keep working in a degraded mode instead of failing hard.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformed: a payload could not be serialized or has the wrong shape.
	ErrMalformed = errors.New("malformed payload")

	// ErrRemoteUnavailable covers every remote failure (network, auth, server
	// side). All of them mean "retry later".
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrValidationFailed: a card record lacks required fields.
	ErrValidationFailed = errors.New("validation failed")

	ErrUnknownPartition = errors.New("unknown partition")
	ErrNotFound         = errors.New("not found")
)
