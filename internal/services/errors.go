package services

import "errors"

// The service layer reports failures through four error kinds. Handlers map
// them to HTTP statuses; anything else is treated as an internal error.

// ValidationError means a required field is missing or malformed. The
// operation aborts before any write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError means a referenced store, user, slug or token does not
// exist. A benign outcome, never fatal.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// AuthorizationError means the caller is not permitted to perform the
// operation, e.g. a non-owner editing a store.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// ConflictError means a uniqueness constraint could not be satisfied, e.g.
// the bounded slug retry ran out under concurrent writes.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
