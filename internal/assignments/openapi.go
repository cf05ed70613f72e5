package assignments

import (
	"slices"

	"github.com/JaimeStill/tagline/pkg/openapi"
)

var (
	fileIDParam  = openapi.PathParamInt("fileId", "Dataset ID")
	rowParam     = openapi.PathParamInt("row", "Zero-based row index")
	colParam     = openapi.PathParamInt("col", "Zero-based column index")
	labelIDParam = &openapi.Parameter{
		Name:     "labelId",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "string"},
	}

	cellParams = []*openapi.Parameter{fileIDParam, rowParam, colParam}
	rowParams  = []*openapi.Parameter{fileIDParam, rowParam}
)

func listOp(summary string, params []*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:    summary,
		Parameters: params,
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Ledger entries", "Assignment"),
			400: openapi.ResponseRef("BadRequest"),
		},
	}
}

func applyOp(summary string, params []*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Parameters:  params,
		RequestBody: openapi.RequestBodyJSON("ApplyCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("New ledger entry", "Assignment"),
			204: {Description: "Dataset is unsaved; nothing recorded"},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	}
}

func removeOp(summary string, params []*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:    summary,
		Parameters: append(slices.Clone(params), labelIDParam),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Number of entries removed", "RemoveResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	}
}

// Spec holds the OpenAPI operations for ledger routes.
var Spec = struct {
	Index, Batch, RemoveByID                        *openapi.Operation
	CurrentCell, CellHistory, ApplyCell, RemoveCell *openapi.Operation
	CurrentRow, RowHistory, ApplyRow, RemoveRow     *openapi.Operation
}{
	Index: &openapi.Operation{
		Summary:    "Label index for a dataset",
		Parameters: []*openapi.Parameter{fileIDParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Cell and row label index", "AssignmentIndex"),
		},
	},
	Batch: &openapi.Operation{
		Summary:     "Apply one label to many cells and rows",
		Description: "Each item is applied independently. Failures are reported per item and do not undo the others.",
		Parameters:  []*openapi.Parameter{fileIDParam},
		RequestBody: openapi.RequestBodyJSON("BatchCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Per-item results", "BatchResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	RemoveByID: &openapi.Operation{
		Summary:    "Remove a single ledger entry",
		Parameters: []*openapi.Parameter{openapi.PathParamInt("id", "Assignment ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Removed"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	CurrentCell: listOp("Entries for a cell", cellParams),
	CellHistory: listOp("Cell history, newest version first", cellParams),
	ApplyCell:   applyOp("Apply a label to a cell", cellParams),
	RemoveCell:  removeOp("Remove every application of a label from a cell", cellParams),
	CurrentRow:  listOp("Entries for a row", rowParams),
	RowHistory:  listOp("Row history, newest version first", rowParams),
	ApplyRow:    applyOp("Apply a label to a row", rowParams),
	RemoveRow:   removeOp("Remove every application of a label from a row", rowParams),
}

// Schemas returns the component schemas referenced by Spec.
func Schemas() map[string]*openapi.Schema {
	target := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"kind":   {Type: "string", Enum: []any{"cell", "row"}},
			"row":    {Type: "integer"},
			"column": {Type: "integer", Description: "-1 for row targets"},
		},
	}

	return map[string]*openapi.Schema{
		"AssignmentTarget": target,
		"Assignment": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "integer", Format: "int64"},
				"file_id":    {Type: "integer", Format: "int64"},
				"target":     openapi.SchemaRef("AssignmentTarget"),
				"label_id":   {Type: "string"},
				"applied_at": {Type: "string", Format: "date-time"},
				"applied_by": {Type: "string"},
				"notes":      {Type: "string"},
				"version":    {Type: "integer"},
			},
		},
		"ApplyCommand": {
			Type:     "object",
			Required: []string{"label_id"},
			Properties: map[string]*openapi.Schema{
				"label_id":   {Type: "string"},
				"applied_by": {Type: "string"},
				"notes":      {Type: "string"},
			},
		},
		"BatchCommand": {
			Type:     "object",
			Required: []string{"label_id"},
			Properties: map[string]*openapi.Schema{
				"label_id": {Type: "string"},
				"cells": {Type: "array", Items: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"row":    {Type: "integer"},
						"column": {Type: "integer"},
					},
				}},
				"rows":       {Type: "array", Items: &openapi.Schema{Type: "integer"}},
				"applied_by": {Type: "string"},
				"notes":      {Type: "string"},
			},
		},
		"BatchResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"target":     openapi.SchemaRef("AssignmentTarget"),
				"assignment": openapi.SchemaRef("Assignment"),
				"error":      {Type: "string"},
			},
		},
		"AssignmentIndex": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"cells": {Type: "object", Description: `Label ids keyed by "row-col"`},
				"rows":  {Type: "object", Description: "Label ids keyed by row index"},
			},
		},
		"RemoveResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"removed": {Type: "integer"},
			},
		},
	}
}
