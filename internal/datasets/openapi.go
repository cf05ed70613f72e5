package datasets

import "github.com/JaimeStill/tagline/pkg/openapi"

var idParam = openapi.PathParamInt("id", "Dataset ID")

// Spec holds the OpenAPI operations for dataset routes.
var Spec = struct {
	List, Find, Import, Upload, SetVisibility, Source, Delete *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List datasets",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search by name", false),
			openapi.QueryParam("sort", "string", "Sort fields, e.g. -UploadedAt", false),
			openapi.QueryParam("name", "string", "Filter by name substring", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of dataset summaries", "DatasetPage"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a dataset",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Dataset with rows", "Dataset"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Import: &openapi.Operation{
		Summary:     "Import a dataset from JSON",
		RequestBody: openapi.RequestBodyJSON("ImportCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Imported dataset", "Dataset"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Upload: &openapi.Operation{
		Summary: "Import a dataset from a CSV upload",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {Schema: &openapi.Schema{
					Type:     "object",
					Required: []string{"file"},
					Properties: map[string]*openapi.Schema{
						"file": {Type: "string", Format: "binary"},
						"name": {Type: "string"},
					},
				}},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Imported dataset", "Dataset"),
			400: openapi.ResponseRef("BadRequest"),
			413: {Description: "Upload exceeds the size limit"},
		},
	},
	SetVisibility: &openapi.Operation{
		Summary:     "Replace column visibility flags",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("VisibilityCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated dataset", "Dataset"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Source: &openapi.Operation{
		Summary:    "Download the archived source file",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: {Description: "Raw upload"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a dataset and its label assignments",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas returns the component schemas referenced by Spec.
func Schemas() map[string]*openapi.Schema {
	cell := &openapi.Schema{Description: "string, number, or null"}

	return map[string]*openapi.Schema{
		"Dataset": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "integer", Format: "int64"},
				"name":            {Type: "string"},
				"uploaded_at":     {Type: "string", Format: "date-time"},
				"headers":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"rows":            {Type: "array", Items: &openapi.Schema{Type: "array", Items: cell}},
				"visible_columns": {Type: "array", Items: &openapi.Schema{Type: "boolean"}},
				"source_key":      {Type: "string"},
				"content_type":    {Type: "string"},
			},
		},
		"DatasetSummary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "integer", Format: "int64"},
				"name":         {Type: "string"},
				"uploaded_at":  {Type: "string", Format: "date-time"},
				"row_count":    {Type: "integer"},
				"column_count": {Type: "integer"},
			},
		},
		"DatasetPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        openapi.ArrayOf("DatasetSummary"),
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"ImportCommand": {
			Type:     "object",
			Required: []string{"name", "headers"},
			Properties: map[string]*openapi.Schema{
				"name":    {Type: "string"},
				"headers": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"rows":    {Type: "array", Items: &openapi.Schema{Type: "array", Items: cell}},
			},
		},
		"VisibilityCommand": {
			Type:     "object",
			Required: []string{"visible_columns"},
			Properties: map[string]*openapi.Schema{
				"visible_columns": {Type: "array", Items: &openapi.Schema{Type: "boolean"}},
			},
		},
	}
}
