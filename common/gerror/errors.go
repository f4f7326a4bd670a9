package gerror

import (
	"errors"
	"net/http"
)

const (
	ErrCodeInternal              Code = "Internal"
	ErrCodeInvalidArgument       Code = "InvalidArgument"
	ErrCodeValidationFailed      Code = "ValidationFailed"
	ErrCodeInvalidQueryParameter Code = "InvalidQueryParameter"
	ErrCodeNotFound              Code = "NotFound"
	ErrCodeAlreadyExists         Code = "AlreadyExists"
	ErrCodeOptimisticLockFailed  Code = "OptimisticLockFailed"
	ErrCodeNotSupported          Code = "NotSupported"
)

// ToError returns the outermost Error in the provided error chain that has the
// provided code, looking past Errors with other codes. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	for err != nil {
		var gErr Error
		if !errors.As(err, &gErr) {
			return nil
		}
		if gErr.Code() == code {
			return &gErr
		}
		err = gErr.Unwrap()
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal server error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

// NewErrInvalidArgument is returned when a caller misuses an API, e.g. by supplying
// mutually exclusive arguments or an out of range value. It is never worth retrying.
func NewErrInvalidArgument(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeInvalidArgument, http.StatusBadRequest, nil)
}

func ToInvalidArgument(err error) *Error {
	return ToError(err, ErrCodeInvalidArgument)
}

func IsInvalidArgument(err error) bool {
	return ToInvalidArgument(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

func NewErrInvalidQueryParameter(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeInvalidQueryParameter, http.StatusBadRequest, nil)
}

func ToInvalidQueryParameter(err error) *Error {
	return ToError(err, ErrCodeInvalidQueryParameter)
}

func IsInvalidQueryParameter(err error) bool {
	return ToInvalidQueryParameter(err) != nil
}

func NewErrNotFound(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeNotFound, http.StatusNotFound, nil)
}

func ToNotFound(err error) *Error {
	return ToError(err, ErrCodeNotFound)
}

func IsNotFound(err error) bool {
	return ToNotFound(err) != nil
}

func NewErrAlreadyExists(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeAlreadyExists, http.StatusBadRequest, nil)
}

func ToAlreadyExists(err error) *Error {
	return ToError(err, ErrCodeAlreadyExists)
}

func IsAlreadyExists(err error) bool {
	return ToAlreadyExists(err) != nil
}

func NewErrOptimisticLockFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeOptimisticLockFailed, http.StatusPreconditionFailed, nil)
}

func ToOptimisticLockFailed(err error) *Error {
	return ToError(err, ErrCodeOptimisticLockFailed)
}

func IsOptimisticLockFailed(err error) bool {
	return ToOptimisticLockFailed(err) != nil
}

// NewErrNotSupported is returned by a backend asked to do something it has no support for,
// e.g. run inside a SQL transaction.
func NewErrNotSupported(message string) Error {
	return NewError(message, AudienceInternal, ErrCodeNotSupported, http.StatusNotImplemented, nil)
}

func ToNotSupported(err error) *Error {
	return ToError(err, ErrCodeNotSupported)
}

func IsNotSupported(err error) bool {
	return ToNotSupported(err) != nil
}
