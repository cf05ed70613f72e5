package assignments

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("assignment not found")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidTarget   = errors.New("invalid assignment target")
	ErrEmptyLabel      = errors.New("label id is required")
	ErrVersionConflict = errors.New("concurrent version allocation")
	ErrCorruptEntry    = errors.New("stored entry has an inconsistent target")
)

// MapHTTPStatus maps ledger errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrEmptyLabel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
