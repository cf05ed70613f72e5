package datasets

import (
	"errors"
	"net/http"
)

// Domain errors for dataset operations.
var (
	ErrNotFound         = errors.New("dataset not found")
	ErrInvalidID        = errors.New("invalid dataset id")
	ErrEmptyName        = errors.New("dataset name is required")
	ErrNoHeaders        = errors.New("dataset requires at least one header")
	ErrRowTooLong       = errors.New("row has more cells than headers")
	ErrInvalidCell      = errors.New("cell must be a string, number, or null")
	ErrVisibilityLength = errors.New("visibility flags must match the column count")
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
	ErrNoSource         = errors.New("dataset has no archived source")
)

// MapHTTPStatus maps dataset domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoSource):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrNoHeaders),
		errors.Is(err, ErrRowTooLong),
		errors.Is(err, ErrInvalidCell),
		errors.Is(err, ErrVisibilityLength),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
