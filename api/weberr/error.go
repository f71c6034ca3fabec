package weberr

import (
	"errors"
	"net/http"

	"github.com/irsalhamdi/e-learning/database"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewError wraps err so the error middleware answers with status and a body
// holding msg. err itself is only logged.
func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(
		err,
		"you are not allowed to perform this action",
		http.StatusForbidden,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

// BadRequest exposes the message of err to the client, so err must be safe
// to show: a decoding or validation failure.
func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		err.Error(),
		http.StatusBadRequest,
		opts...,
	)
}

func Conflict(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		msg,
		http.StatusConflict,
		opts...,
	)
}

func Unprocessable(err error, msg string, opts ...Opt) error {
	return NewError(
		err,
		msg,
		http.StatusUnprocessableEntity,
		opts...,
	)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(
		err,
		"too many attempts, retry later",
		http.StatusTooManyRequests,
		opts...,
	)
}

// FromStore maps the storage sentinels to their HTTP answer. Errors it does
// not know are returned unchanged and end up as a 500.
func FromStore(err error, opts ...Opt) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return NotFound(err, opts...)
	case errors.Is(err, database.ErrDuplicateUsername):
		return Conflict(err, database.ErrDuplicateUsername.Error(), opts...)
	case errors.Is(err, database.ErrDuplicateEmail):
		return Conflict(err, database.ErrDuplicateEmail.Error(), opts...)
	case errors.Is(err, database.ErrDuplicateSlug):
		return Conflict(err, database.ErrDuplicateSlug.Error(), opts...)
	case errors.Is(err, database.ErrDuplicateEnrollment):
		return Conflict(err, database.ErrDuplicateEnrollment.Error(), opts...)
	case errors.Is(err, database.ErrDuplicateReview):
		return Conflict(err, database.ErrDuplicateReview.Error(), opts...)
	case errors.Is(err, database.ErrOutOfRange):
		return NewError(err, database.ErrOutOfRange.Error(), http.StatusBadRequest, opts...)
	case errors.Is(err, database.ErrNotPurchasable):
		return Unprocessable(err, database.ErrNotPurchasable.Error(), opts...)
	}
	return err
}
