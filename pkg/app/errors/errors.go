// Package errors maps service failures onto categories the HTTP layer can
// turn into status codes.
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError marks a successful call
	CategoryNoError Category = iota
	// CategoryDataError The client sent invalid data in the request payload or parameters
	CategoryDataError
	// CategoryUnauthorized The caller could not be authenticated
	CategoryUnauthorized
	// CategoryForbidden The caller is authenticated but may not access the resource
	CategoryForbidden
	// CategoryResourceNotFound The requested resource does not exist
	CategoryResourceNotFound
	// CategoryDataConflict The request conflicts with the current state, e.g. a sync already running
	CategoryDataConflict
	// CategoryDependencyFailure The billing system or another dependency failed
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "CategoryNoError"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError carries a category, the message shown to the caller and the
// underlying error that is only logged.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

func newError(cat Category, err error, message, fallback string) error {
	if err == nil {
		err = errors.New(fallback)
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError hides err behind "Internal Server Error"
func GeneralError(err error) error {
	return newError(CategoryGeneralError, err, "Internal Server Error", "internal server error")
}

// ResourceNotFoundError returns an error with category ResourceNotFound
func ResourceNotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, err, message, "resource not found: "+message)
}

// BadRequestError returns an error with category DataError
func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, err, message, "bad request: "+message)
}

// ForbiddenError returns an error with category Forbidden
func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, err, message, "request forbidden")
}

// UnAuthorizedError returns an error with category Unauthorized
func UnAuthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, err, message, "unauthorized")
}

// ConflictError returns an error with category DataConflict
func ConflictError(err error, message string) error {
	return newError(CategoryDataConflict, err, message, "conflict")
}

// DependencyError returns an error with category DependencyFailure
func DependencyError(err error, message string) error {
	return newError(CategoryDependencyFailure, err, message, "dependency failure")
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryDataConflict:
		return http.StatusConflict
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
