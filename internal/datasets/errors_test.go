package datasets_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/tagline/internal/datasets"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", datasets.ErrNotFound, http.StatusNotFound},
		{"no source", datasets.ErrNoSource, http.StatusNotFound},
		{"too large", datasets.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"empty name", datasets.ErrEmptyName, http.StatusBadRequest},
		{"no headers", datasets.ErrNoHeaders, http.StatusBadRequest},
		{"row too long", fmt.Errorf("wrap: %w", datasets.ErrRowTooLong), http.StatusBadRequest},
		{"invalid cell", datasets.ErrInvalidCell, http.StatusBadRequest},
		{"visibility", datasets.ErrVisibilityLength, http.StatusBadRequest},
		{"invalid file", datasets.ErrInvalidFile, http.StatusBadRequest},
		{"invalid id", datasets.ErrInvalidID, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := datasets.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
