package workspace_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/workspace"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workspace.ErrNoActiveDataset, http.StatusConflict},
		{fmt.Errorf("%w: 9", workspace.ErrRowOutOfRange), http.StatusNotFound},
		{workspace.ErrColumnOutOfRange, http.StatusBadRequest},
		{workspace.ErrDemographicColumn, http.StatusBadRequest},
		{workspace.ErrUnknownColumn, http.StatusBadRequest},
		{workspace.ErrNoKeyColumn, http.StatusBadRequest},
		{assignments.ErrEmptyLabel, http.StatusBadRequest},
		{assignments.ErrNotFound, http.StatusNotFound},
		{assignments.ErrVersionConflict, http.StatusConflict},
		{datasets.ErrNotFound, http.StatusNotFound},
		{datasets.ErrVisibilityLength, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := workspace.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
