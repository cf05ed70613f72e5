package workspace

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/pkg/handlers"
	"github.com/JaimeStill/tagline/pkg/routes"
)

var (
	errInvalidRow    = errors.New("invalid row index")
	errInvalidColumn = errors.New("invalid column index")
	errInvalidEntry  = errors.New("invalid assignment id")
)

// Handler provides HTTP endpoints for the labeling session.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "workspace"),
	}
}

// Routes returns the route group definition for workspace endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workspace",
		Tags:   []string{"Workspace"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Active, OpenAPI: Spec.Active},
			{Method: "PUT", Pattern: "/active/{id}", Handler: h.Activate, OpenAPI: Spec.Activate},
			{Method: "PUT", Pattern: "/visibility", Handler: h.SetVisibility, OpenAPI: Spec.SetVisibility},
			{Method: "PUT", Pattern: "/demographics", Handler: h.SetDemographics, OpenAPI: Spec.SetDemographics},
			{Method: "PUT", Pattern: "/key-column", Handler: h.SetKeyColumn, OpenAPI: Spec.SetKeyColumn},
			{Method: "GET", Pattern: "/search", Handler: h.Search, OpenAPI: Spec.Search},
			{Method: "POST", Pattern: "/selection", Handler: h.ApplySelection, OpenAPI: Spec.ApplySelection},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats, OpenAPI: Spec.Stats},
			{Method: "GET", Pattern: "/respondents/{row}", Handler: h.Respondent, OpenAPI: Spec.Respondent},
			{Method: "DELETE", Pattern: "/entries/{id}", Handler: h.RemoveByID, OpenAPI: Spec.RemoveByID},
		},
		Children: []routes.Group{
			{
				Prefix: "/cells/{row}/{col}",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.ApplyCell, OpenAPI: Spec.ApplyCell},
					{Method: "DELETE", Pattern: "/labels/{labelId}", Handler: h.RemoveCell, OpenAPI: Spec.RemoveCell},
				},
			},
			{
				Prefix: "/rows/{row}",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.ApplyRow, OpenAPI: Spec.ApplyRow},
					{Method: "DELETE", Pattern: "/labels/{labelId}", Handler: h.RemoveRow, OpenAPI: Spec.RemoveRow},
				},
			},
		},
	}
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	st, err := h.sys.Active(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathInt64(r, "id")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, datasets.ErrInvalidID)
		return
	}

	st, err := h.sys.Activate(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var cmd datasets.VisibilityCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	st, err := h.sys.SetColumnVisibility(r.Context(), cmd.VisibleColumns)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) SetDemographics(w http.ResponseWriter, r *http.Request) {
	var cmd DemographicsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	st, err := h.sys.SetDemographicColumns(r.Context(), cmd.Columns)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) SetKeyColumn(w http.ResponseWriter, r *http.Request) {
	var cmd KeyColumnCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	st, err := h.sys.SetKeyColumn(r.Context(), cmd.Column)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) ApplySelection(w http.ResponseWriter, r *http.Request) {
	var cmd SelectionCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	results, err := h.sys.ApplySelection(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, results)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sys.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) Respondent(w http.ResponseWriter, r *http.Request) {
	row, ok := handlers.PathInt(r, "row")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRow)
		return
	}

	resp, err := h.sys.Respondent(r.Context(), row)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) ApplyCell(w http.ResponseWriter, r *http.Request) {
	row, col, err := cellPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd assignments.ApplyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.ApplyCell(r.Context(), row, col, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}

func (h *Handler) ApplyRow(w http.ResponseWriter, r *http.Request) {
	row, ok := handlers.PathInt(r, "row")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRow)
		return
	}

	var cmd assignments.ApplyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	a, err := h.sys.ApplyRow(r.Context(), row, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}

func (h *Handler) RemoveCell(w http.ResponseWriter, r *http.Request) {
	row, col, err := cellPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	n, err := h.sys.RemoveCell(r.Context(), row, col, r.PathValue("labelId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	row, ok := handlers.PathInt(r, "row")
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRow)
		return
	}

	n, err := h.sys.RemoveRow(r.Context(), row, r.PathValue("labelId"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

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

func cellPath(r *http.Request) (row, col int, err error) {
	row, ok := handlers.PathInt(r, "row")
	if !ok {
		return 0, 0, errInvalidRow
	}
	col, ok = handlers.PathInt(r, "col")
	if !ok {
		return 0, 0, errInvalidColumn
	}
	return row, col, nil
}
