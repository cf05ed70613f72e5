package workspace

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
)

var (
	ErrNoActiveDataset   = errors.New("no active dataset")
	ErrDemographicColumn = errors.New("demographic columns cannot be labeled")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNoKeyColumn       = errors.New("no key column selected")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrColumnOutOfRange  = errors.New("column out of range")
)

// MapHTTPStatus maps workspace errors, and the dataset and ledger errors it
// passes through, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoActiveDataset):
		return http.StatusConflict
	case errors.Is(err, ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrDemographicColumn),
		errors.Is(err, ErrUnknownColumn),
		errors.Is(err, ErrNoKeyColumn),
		errors.Is(err, ErrColumnOutOfRange):
		return http.StatusBadRequest
	}

	if status := assignments.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return datasets.MapHTTPStatus(err)
}
