package workspace

import (
	"slices"

	"github.com/JaimeStill/tagline/pkg/openapi"
)

var (
	rowParam     = openapi.PathParamInt("row", "Zero-based row index")
	colParam     = openapi.PathParamInt("col", "Zero-based column index")
	labelIDParam = &openapi.Parameter{
		Name:     "labelId",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "string"},
	}

	noActive = openapi.ResponseRef("Conflict")
)

func stateOp(summary, body string) *openapi.Operation {
	op := &openapi.Operation{
		Summary: summary,
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Workspace state", "WorkspaceState"),
			400: openapi.ResponseRef("BadRequest"),
			409: noActive,
		},
	}
	if body != "" {
		op.RequestBody = openapi.RequestBodyJSON(body, true)
	}
	return op
}

func applyOp(summary string, params ...*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Parameters:  params,
		RequestBody: openapi.RequestBodyJSON("ApplyCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("New ledger entry", "Assignment"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: noActive,
		},
	}
}

func removeOp(summary string, params ...*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:    summary,
		Parameters: append(slices.Clone(params), labelIDParam),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Number of entries removed", "RemoveResult"),
			400: openapi.ResponseRef("BadRequest"),
			409: noActive,
		},
	}
}

// Spec holds the OpenAPI operations for workspace routes.
var Spec = struct {
	Active, Activate, SetVisibility, SetDemographics, SetKeyColumn *openapi.Operation
	Search, ApplySelection, Stats, Respondent, RemoveByID          *openapi.Operation
	ApplyCell, RemoveCell, ApplyRow, RemoveRow                     *openapi.Operation
}{
	Active: &openapi.Operation{
		Summary: "Current workspace state",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Workspace state", "WorkspaceState"),
		},
	},
	Activate: &openapi.Operation{
		Summary:    "Make a dataset active",
		Parameters: []*openapi.Parameter{openapi.PathParamInt("id", "Dataset ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Workspace state", "WorkspaceState"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	SetVisibility:   stateOp("Replace column visibility of the active dataset", "VisibilityCommand"),
	SetDemographics: stateOp("Mark demographic columns by header", "DemographicsCommand"),
	SetKeyColumn:    stateOp("Select the column used for respondent search", "KeyColumnCommand"),
	Search: &openapi.Operation{
		Summary:     "Find rows by key column",
		Description: "Case-insensitive substring match against the key column.",
		Parameters:  []*openapi.Parameter{openapi.QueryParam("q", "string", "Search text", false)},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Matching rows", "SearchResult"),
			400: openapi.ResponseRef("BadRequest"),
			409: noActive,
		},
	},
	ApplySelection: &openapi.Operation{
		Summary:     "Label every cell in a row and column selection",
		RequestBody: openapi.RequestBodyJSON("SelectionCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Per-cell results", "BatchResult"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: noActive,
		},
	},
	Stats: &openapi.Operation{
		Summary: "Label statistics for the active dataset",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Statistics", "StatsSummary"),
			409: noActive,
		},
	},
	Respondent: &openapi.Operation{
		Summary:    "One row with its cell and row labels",
		Parameters: []*openapi.Parameter{rowParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Respondent", "Respondent"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: noActive,
		},
	},
	RemoveByID: &openapi.Operation{
		Summary:    "Remove one ledger entry",
		Parameters: []*openapi.Parameter{openapi.PathParamInt("id", "Assignment ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Removed"},
			404: openapi.ResponseRef("NotFound"),
			409: noActive,
		},
	},
	ApplyCell:  applyOp("Label a cell of the active dataset", rowParam, colParam),
	RemoveCell: removeOp("Remove a label from a cell of the active dataset", rowParam, colParam),
	ApplyRow:   applyOp("Label a row of the active dataset", rowParam),
	RemoveRow:  removeOp("Remove a label from a row of the active dataset", rowParam),
}

// Schemas returns the component schemas referenced by Spec.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"WorkspaceState": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"dataset":             openapi.SchemaRef("Dataset"),
				"visible_columns":     {Type: "array", Items: &openapi.Schema{Type: "boolean"}},
				"demographic_columns": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"key_column":          {Type: "string"},
				"index":               openapi.SchemaRef("AssignmentIndex"),
			},
		},
		"DemographicsCommand": {
			Type:     "object",
			Required: []string{"columns"},
			Properties: map[string]*openapi.Schema{
				"columns": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"KeyColumnCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"column": {Type: "string", Description: "Header name; null clears the key column"},
			},
		},
		"SearchResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"column": {Type: "string"},
				"query":  {Type: "string"},
				"rows":   {Type: "array", Items: &openapi.Schema{Type: "integer"}},
			},
		},
		"SelectionCommand": {
			Type:     "object",
			Required: []string{"label_id", "rows"},
			Properties: map[string]*openapi.Schema{
				"label_id":       {Type: "string"},
				"rows":           {Type: "array", Items: &openapi.Schema{Type: "integer"}},
				"columns":        {Type: "array", Items: &openapi.Schema{Type: "string"}, Description: "Headers; each selects every column carrying it"},
				"column_indices": {Type: "array", Items: &openapi.Schema{Type: "integer"}},
				"applied_by":     {Type: "string"},
				"notes":          {Type: "string"},
			},
		},
		"LabelCount": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"label_id": {Type: "string"},
				"name":     {Type: "string"},
				"color":    {Type: "string"},
				"count":    {Type: "integer"},
			},
		},
		"ColumnCount": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"column": {Type: "integer"},
				"header": {Type: "string"},
				"count":  {Type: "integer"},
			},
		},
		"StatsSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_cells":   {Type: "integer"},
				"total_rows":    {Type: "integer"},
				"labeled_cells": {Type: "integer"},
				"labeled_rows":  {Type: "integer"},
				"total_entries": {Type: "integer"},
				"coverage":      {Type: "number", Description: "Percent of labeled cell and row targets, one decimal"},
				"frequency":     openapi.ArrayOf("LabelCount"),
				"columns":       openapi.ArrayOf("ColumnCount"),
			},
		},
		"RespondentColumn": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"index":       {Type: "integer"},
				"header":      {Type: "string"},
				"value":       {Description: "String, number, or null"},
				"demographic": {Type: "boolean"},
				"visible":     {Type: "boolean"},
				"labels":      openapi.ArrayOf("Assignment"),
			},
		},
		"Respondent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"row":        {Type: "integer"},
				"columns":    openapi.ArrayOf("RespondentColumn"),
				"row_labels": openapi.ArrayOf("Assignment"),
				"labels":     {Type: "object", Description: `Entries keyed by "row" or "cell-N"`},
			},
		},
	}
}
