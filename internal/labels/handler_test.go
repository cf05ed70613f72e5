package labels_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/tagline/internal/labels"
)

type mockSystem struct {
	listFn      func(ctx context.Context) ([]labels.Label, error)
	findFn      func(ctx context.Context, id string) (*labels.Label, error)
	hierarchyFn func(ctx context.Context) (*labels.Hierarchy, error)
	createFn    func(ctx context.Context, cmd labels.CreateCommand) (*labels.Label, error)
	updateFn    func(ctx context.Context, id string, cmd labels.UpdateCommand) (*labels.Label, error)
	deleteFn    func(ctx context.Context, id string) error
}

func (m *mockSystem) Handler() *labels.Handler {
	return labels.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) List(ctx context.Context) ([]labels.Label, error) { return m.listFn(ctx) }

func (m *mockSystem) Find(ctx context.Context, id string) (*labels.Label, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Hierarchy(ctx context.Context) (*labels.Hierarchy, error) {
	return m.hierarchyFn(ctx)
}

func (m *mockSystem) Create(ctx context.Context, cmd labels.CreateCommand) (*labels.Label, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id string, cmd labels.UpdateCommand) (*labels.Label, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func TestHandlerHierarchyRouteWinsOverID(t *testing.T) {
	sys := &mockSystem{
		hierarchyFn: func(_ context.Context) (*labels.Hierarchy, error) {
			h := labels.BuildHierarchy([]labels.Label{{ID: "a"}, {ID: "b", ParentID: strPtr("a")}})
			return &h, nil
		},
		findFn: func(_ context.Context, id string) (*labels.Label, error) {
			t.Errorf("find called with %q", id)
			return nil, labels.ErrNotFound
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/labels/hierarchy", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var h labels.Hierarchy
	if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(h.Roots) != 1 || len(h.Children["a"]) != 1 {
		t.Errorf("hierarchy = %+v", h)
	}
}

func TestHandlerCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"created", `{"name":"Positive"}`, nil, http.StatusCreated},
		{"invalid name", `{"name":""}`, labels.ErrInvalidName, http.StatusBadRequest},
		{"nesting", `{"name":"x","parent_id":"c"}`, labels.ErrNestingTooDeep, http.StatusBadRequest},
		{"malformed", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(_ context.Context, cmd labels.CreateCommand) (*labels.Label, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &labels.Label{ID: "new", Name: cmd.Name, Color: "#3B82F6"}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest("POST", "/labels", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerUpdate(t *testing.T) {
	var captured labels.UpdateCommand
	var capturedID string
	sys := &mockSystem{
		updateFn: func(_ context.Context, id string, cmd labels.UpdateCommand) (*labels.Label, error) {
			capturedID, captured = id, cmd
			return &labels.Label{ID: id, Name: "renamed"}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("PUT", "/labels/abc", strings.NewReader(`{"name":"renamed","clear_parent":true}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if capturedID != "abc" {
		t.Errorf("id = %q, want abc", capturedID)
	}
	if captured.Name == nil || *captured.Name != "renamed" || !captured.ClearParent {
		t.Errorf("command = %+v", captured)
	}
}

func TestHandlerDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id string) error {
			if id != "abc" {
				return labels.ErrNotFound
			}
			return nil
		},
	}
	mux := setupMux(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/labels/abc", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/labels/zzz", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
