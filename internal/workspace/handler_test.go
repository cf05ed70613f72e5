package workspace_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/stats"
	"github.com/JaimeStill/tagline/internal/workspace"
	"github.com/JaimeStill/tagline/pkg/routes"
)

type mockSystem struct {
	activeFn       func(ctx context.Context) (*workspace.State, error)
	activateFn     func(ctx context.Context, id int64) (*workspace.State, error)
	visibilityFn   func(ctx context.Context, flags []bool) (*workspace.State, error)
	demographicsFn func(ctx context.Context, headers []string) (*workspace.State, error)
	keyColumnFn    func(ctx context.Context, header *string) (*workspace.State, error)
	searchFn       func(ctx context.Context, q string) (*workspace.SearchResult, error)
	applyCellFn    func(ctx context.Context, row, col int, cmd assignments.ApplyCommand) (*assignments.Assignment, error)
	applyRowFn     func(ctx context.Context, row int, cmd assignments.ApplyCommand) (*assignments.Assignment, error)
	selectionFn    func(ctx context.Context, cmd workspace.SelectionCommand) ([]assignments.BatchResult, error)
	removeCellFn   func(ctx context.Context, row, col int, labelID string) (int64, error)
	removeRowFn    func(ctx context.Context, row int, labelID string) (int64, error)
	removeByIDFn   func(ctx context.Context, id int64) error
	statsFn        func(ctx context.Context) (*stats.Summary, error)
	respondentFn   func(ctx context.Context, row int) (*workspace.Respondent, error)
}

func (m *mockSystem) Handler() *workspace.Handler {
	return workspace.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Active(ctx context.Context) (*workspace.State, error) {
	return m.activeFn(ctx)
}

func (m *mockSystem) Activate(ctx context.Context, id int64) (*workspace.State, error) {
	return m.activateFn(ctx, id)
}

func (m *mockSystem) SetColumnVisibility(ctx context.Context, flags []bool) (*workspace.State, error) {
	return m.visibilityFn(ctx, flags)
}

func (m *mockSystem) SetDemographicColumns(ctx context.Context, headers []string) (*workspace.State, error) {
	return m.demographicsFn(ctx, headers)
}

func (m *mockSystem) SetKeyColumn(ctx context.Context, header *string) (*workspace.State, error) {
	return m.keyColumnFn(ctx, header)
}

func (m *mockSystem) Search(ctx context.Context, q string) (*workspace.SearchResult, error) {
	return m.searchFn(ctx, q)
}

func (m *mockSystem) ApplyCell(ctx context.Context, row, col int, cmd assignments.ApplyCommand) (*assignments.Assignment, error) {
	return m.applyCellFn(ctx, row, col, cmd)
}

func (m *mockSystem) ApplyRow(ctx context.Context, row int, cmd assignments.ApplyCommand) (*assignments.Assignment, error) {
	return m.applyRowFn(ctx, row, cmd)
}

func (m *mockSystem) ApplySelection(ctx context.Context, cmd workspace.SelectionCommand) ([]assignments.BatchResult, error) {
	return m.selectionFn(ctx, cmd)
}

func (m *mockSystem) RemoveCell(ctx context.Context, row, col int, labelID string) (int64, error) {
	return m.removeCellFn(ctx, row, col, labelID)
}

func (m *mockSystem) RemoveRow(ctx context.Context, row int, labelID string) (int64, error) {
	return m.removeRowFn(ctx, row, labelID)
}

func (m *mockSystem) RemoveByID(ctx context.Context, id int64) error {
	return m.removeByIDFn(ctx, id)
}

func (m *mockSystem) Stats(ctx context.Context) (*stats.Summary, error) {
	return m.statsFn(ctx)
}

func (m *mockSystem) Respondent(ctx context.Context, row int) (*workspace.Respondent, error) {
	return m.respondentFn(ctx, row)
}

func (m *mockSystem) Invalidate() {}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func TestHandlerActivate(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"found", "/workspace/active/7", nil, http.StatusOK},
		{"missing", "/workspace/active/8", datasets.ErrNotFound, http.StatusNotFound},
		{"bad id", "/workspace/active/x", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				activateFn: func(_ context.Context, id int64) (*workspace.State, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &workspace.State{Dataset: &datasets.Dataset{ID: id}, Index: assignments.NewIndex()}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest("PUT", tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerNoActiveDatasetIsConflict(t *testing.T) {
	sys := &mockSystem{
		statsFn: func(context.Context) (*stats.Summary, error) {
			return nil, workspace.ErrNoActiveDataset
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/workspace/stats", nil))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandlerApplyCell(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"created", "/workspace/cells/1/2", nil, http.StatusCreated},
		{"demographic", "/workspace/cells/1/0", workspace.ErrDemographicColumn, http.StatusBadRequest},
		{"out of range", "/workspace/cells/99/2", workspace.ErrRowOutOfRange, http.StatusNotFound},
		{"bad column", "/workspace/cells/1/q", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRow, gotCol int
			sys := &mockSystem{
				applyCellFn: func(_ context.Context, row, col int, cmd assignments.ApplyCommand) (*assignments.Assignment, error) {
					gotRow, gotCol = row, col
					if tt.err != nil {
						return nil, tt.err
					}
					return &assignments.Assignment{ID: 1, Target: assignments.CellTarget(row, col), LabelID: cmd.LabelID, Version: 1}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(`{"label_id":"L1"}`))
			setupMux(sys).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusCreated && (gotRow != 1 || gotCol != 2) {
				t.Errorf("target = (%d, %d), want (1, 2)", gotRow, gotCol)
			}
		})
	}
}

func TestHandlerRemoveRow(t *testing.T) {
	var gotLabel string
	sys := &mockSystem{
		removeRowFn: func(_ context.Context, row int, labelID string) (int64, error) {
			gotLabel = labelID
			return 2, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("DELETE", "/workspace/rows/4/labels/L9", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotLabel != "L9" {
		t.Errorf("label = %q, want L9", gotLabel)
	}

	var body map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["removed"] != 2 {
		t.Errorf("removed = %d, want 2", body["removed"])
	}
}

func TestHandlerSearch(t *testing.T) {
	var gotQuery string
	sys := &mockSystem{
		searchFn: func(_ context.Context, q string) (*workspace.SearchResult, error) {
			gotQuery = q
			return &workspace.SearchResult{Column: "id", Query: q, Rows: []int{0, 2}}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/workspace/search?q=r-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotQuery != "r-01" {
		t.Errorf("query = %q, want r-01", gotQuery)
	}

	var res workspace.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("rows = %v, want 2 rows", res.Rows)
	}
}

func TestHandlerSetDemographics(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"valid", `{"columns":["age"]}`, nil, http.StatusOK},
		{"unknown", `{"columns":["income"]}`, workspace.ErrUnknownColumn, http.StatusBadRequest},
		{"malformed", `{"columns":`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				demographicsFn: func(_ context.Context, headers []string) (*workspace.State, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &workspace.State{DemographicColumns: headers}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("PUT", "/workspace/demographics", strings.NewReader(tt.body))
			setupMux(sys).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerRespondent(t *testing.T) {
	sys := &mockSystem{
		respondentFn: func(_ context.Context, row int) (*workspace.Respondent, error) {
			return &workspace.Respondent{
				Row:       row,
				Columns:   []workspace.RespondentColumn{{Index: 0, Header: "id", Value: "R-001", Labels: []assignments.Assignment{}}},
				RowLabels: []assignments.Assignment{},
				Labels:    map[string][]assignments.Assignment{},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/workspace/respondents/3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp workspace.Respondent
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Row != 3 || len(resp.Columns) != 1 {
		t.Errorf("respondent = %+v", resp)
	}

	rec = httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/workspace/respondents/-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative row status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerRemoveByID(t *testing.T) {
	sys := &mockSystem{
		removeByIDFn: func(_ context.Context, id int64) error {
			if id == 404 {
				return assignments.ErrNotFound
			}
			return nil
		},
	}

	for path, want := range map[string]int{
		"/workspace/entries/1":   http.StatusNoContent,
		"/workspace/entries/404": http.StatusNotFound,
		"/workspace/entries/x":   http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		setupMux(sys).ServeHTTP(rec, httptest.NewRequest("DELETE", path, nil))
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, want)
		}
	}
}
