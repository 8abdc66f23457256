// Package apperr provides a small categorized error type used to map
// content pipeline failures onto HTTP responses without leaking causes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryConfig     Category = "config"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryUpstream   Category = "upstream"
	CategoryInternal   Category = "internal"
)

// Error carries a category, a message safe to log, and optional diagnostics
// (upstream status, upstream message). Nothing in it is sent to clients
// except through PublicMessage.
type Error struct {
	Category Category
	Message  string
	Cause    error
	Context  map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a diagnostic field to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

func Wrap(err error, category Category, message string) *Error {
	return &Error{Category: category, Message: message, Cause: err}
}

func Config(message string) *Error {
	return New(CategoryConfig, message)
}

func Validation(message string) *Error {
	return New(CategoryValidation, message)
}

// Upstream wraps a failed CMS call, keeping the upstream status for diagnostics.
func Upstream(err error, status int, message string) *Error {
	category := CategoryUpstream
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		category = CategoryAuth
	}
	e := Wrap(err, category, message)
	if status != 0 {
		e.WithContext("upstream_status", status)
	}
	return e
}

// CategoryOf returns the category of the first *Error in err's chain, or
// CategoryInternal.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

func IsCategory(err error, category Category) bool {
	return CategoryOf(err) == category
}

func HTTPStatus(category Category) int {
	switch category {
	case CategoryAuth:
		return http.StatusUnauthorized
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the generic text a client sees for a category.
func PublicMessage(category Category) string {
	switch category {
	case CategoryConfig:
		return "Server configuration error"
	case CategoryAuth:
		return "Unauthorized"
	case CategoryValidation:
		return "Invalid request"
	case CategoryNotFound:
		return "Not found"
	default:
		return "Failed to fetch content"
	}
}
