package labels

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("label not found")
	ErrInvalidName    = errors.New("label name is required")
	ErrInvalidColor   = errors.New("label color must be #RRGGBB")
	ErrSelfParent     = errors.New("label cannot be its own parent")
	ErrNestingTooDeep = errors.New("labels support a single level of nesting")
	ErrDuplicate      = errors.New("label already exists")
)

// MapHTTPStatus maps label domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidColor),
		errors.Is(err, ErrSelfParent),
		errors.Is(err, ErrNestingTooDeep):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
