package assignments

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tagline/pkg/handlers"
	"github.com/JaimeStill/tagline/pkg/routes"
)

var (
	errInvalidFileID = errors.New("invalid dataset id")
	errInvalidEntry  = errors.New("invalid assignment id")
)

// Handler provides HTTP endpoints for the label ledger.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "assignments"),
	}
}

// Routes returns the route group definition for ledger endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/assignments",
		Tags:   []string{"Assignments"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{fileId}/index", Handler: h.Index, OpenAPI: Spec.Index},
			{Method: "POST", Pattern: "/{fileId}/batch", Handler: h.Batch, OpenAPI: Spec.Batch},
			{Method: "DELETE", Pattern: "/entries/{id}", Handler: h.RemoveByID, OpenAPI: Spec.RemoveByID},
		},
		Children: []routes.Group{
			{
				Prefix: "/{fileId}/cells/{row}/{col}",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Current, OpenAPI: Spec.CurrentCell},
					{Method: "GET", Pattern: "/history", Handler: h.History, OpenAPI: Spec.CellHistory},
					{Method: "POST", Pattern: "", Handler: h.Apply, OpenAPI: Spec.ApplyCell},
					{Method: "DELETE", Pattern: "/labels/{labelId}", Handler: h.Remove, OpenAPI: Spec.RemoveCell},
				},
			},
			{
				Prefix: "/{fileId}/rows/{row}",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Current, OpenAPI: Spec.CurrentRow},
					{Method: "GET", Pattern: "/history", Handler: h.History, OpenAPI: Spec.RowHistory},
					{Method: "POST", Pattern: "", Handler: h.Apply, OpenAPI: Spec.ApplyRow},
					{Method: "DELETE", Pattern: "/labels/{labelId}", Handler: h.Remove, OpenAPI: Spec.RemoveRow},
				},
			},
		},
	}
}

// Index returns the dataset's cell and row label index.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	fileID, ok := handlers.PathInt64(r, "fileId")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidFileID)
		return
	}

	ix, err := h.sys.LoadIndex(r.Context(), fileID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ix)
}

// Batch applies one label to many targets and reports each outcome.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	fileID, ok := handlers.PathInt64(r, "fileId")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidFileID)
		return
	}

	var cmd BatchCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	results, err := h.sys.ApplyBatch(r.Context(), fileID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, results)
}

// Current returns the target's entries in ledger order.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	fileID, target, ok := h.target(w, r)
	if !ok {
		return
	}

	items, err := h.sys.Current(r.Context(), fileID, target)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// History returns the target's entries, newest version first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	fileID, target, ok := h.target(w, r)
	if !ok {
		return
	}

	items, err := h.sys.History(r.Context(), fileID, target)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Apply appends a new entry. An unsaved dataset (id 0) yields 204.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	fileID, target, ok := h.target(w, r)
	if !ok {
		return
	}

	var cmd ApplyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.Apply(r.Context(), fileID, target, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if a == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}

// Remove deletes every application of one label to the target.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	fileID, target, ok := h.target(w, r)
	if !ok {
		return
	}

	n, err := h.sys.Remove(r.Context(), fileID, target, r.PathValue("labelId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

// RemoveByID deletes a single entry.
func (h *Handler) RemoveByID(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathInt64(r, "id")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidEntry)
		return
	}

	if err := h.sys.RemoveByID(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// target reads fileId, row, and the optional col path values. Routes without
// a col segment address the whole row.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (int64, Target, bool) {
	fileID, ok := handlers.PathInt64(r, "fileId")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidFileID)
		return 0, Target{}, false
	}

	row, ok := handlers.PathInt(r, "row")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTarget)
		return 0, Target{}, false
	}

	if r.PathValue("col") == "" {
		return fileID, RowTarget(row), true
	}

	col, ok := handlers.PathInt(r, "col")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidTarget)
		return 0, Target{}, false
	}
	return fileID, CellTarget(row, col), true
}
